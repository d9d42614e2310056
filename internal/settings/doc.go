// Package settings is the typed object model over a settings document.
//
// Every settings object (device manager, device, register, serial port,
// conversation and so on) embeds a Node bound to one document element.
// Typed accessors read and write that element's attributes; child objects
// are held in a Collection built by scanning the element's immediate
// children for one tag.
//
// # Tree
//
//	settings
//	├── serialport*
//	├── database?
//	├── conversation* ── message* ── action* ── parameter*
//	└── devicemanager*
//	    ├── device*
//	    ├── registertemplate*
//	    └── blockmessage* ── register*
//
// # Values
//
// Missing attributes are not errors. String accessors return "", boolean
// accessors are true only for "true", and numeric accessors return a nil
// pointer for an empty value. A value that does not parse returns a
// *ValueError matching ErrMalformedValue; Load builds every node and fails
// on the first such value.
//
// # Changes
//
// SetValue writes through to the document and calls every Observer
// subscribed on the tree's Context before returning. Collections are
// snapshots: after editing the document directly, call Reload.
//
// # Register positions
//
// DynamicDataMap splits register definitions (RawItems, in definition
// order) from their positions in a received block (Items, positioned
// entries only). Positions discovered at runtime are applied with
// SetItemPosition or AssignPositions; the map is stale until Rebuild.
//
// # Usage
//
//	ctx := settings.NewContext()
//	ctx.Subscribe(settings.ObserverFunc(func(ev settings.ChangeEvent) {
//	    log.Println(ev.Tag, ev.Attribute, ev.Value)
//	}))
//
//	app, err := settings.LoadFile(ctx, "settings.xml")
//	if err != nil {
//	    return err
//	}
//	if err := app.Validate(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// A tree is owned by one goroutine. Callers that receive changes from
// several goroutines must serialise access themselves.
package settings
