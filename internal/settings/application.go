package settings

import (
	"fmt"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
)

// ApplicationSettings is the root of a loaded settings tree.
type ApplicationSettings struct {
	Node

	doc           *document.Document
	managers      *Collection[*DeviceManager]
	serialPorts   *Collection[*SerialPort]
	conversations *Collection[*Conversation]
	database      *DatabaseSettings
}

// New creates an empty settings tree.
func New(ctx *Context) *ApplicationSettings {
	// An empty root has no children to fail on
	app, _ := Load(ctx, document.New(TagSettings)) //nolint:errcheck // cannot fail
	return app
}

// Load builds the settings tree from doc. Malformed numeric attributes
// anywhere in the tree fail the load with an error matching ErrMalformedValue.
// A nil ctx gets a fresh Context.
func Load(ctx *Context, doc *document.Document) (*ApplicationSettings, error) {
	if ctx == nil {
		ctx = NewContext()
	}
	if doc == nil || doc.Root == nil {
		return nil, document.ErrEmptyDocument
	}
	if doc.Root.Name != TagSettings {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedRoot, doc.Root.Name)
	}

	a := &ApplicationSettings{Node: newNode(ctx, doc.Root), doc: doc}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// LoadFile parses the XML document at path and builds the settings tree.
func LoadFile(ctx *Context, path string) (*ApplicationSettings, error) {
	doc, err := document.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(ctx, doc)
}

// Reload rebuilds every collection from the document. Nodes handed out
// before the call are detached from the tree afterwards. On error the
// previous tree is kept.
func (a *ApplicationSettings) Reload() error {
	root := a.doc.Root

	managers, err := LoadCollection(a.ctx, root, TagDeviceManager, newDeviceManager)
	if err != nil {
		return err
	}
	ports, err := LoadCollection(a.ctx, root, TagSerialPort, newSerialPort)
	if err != nil {
		return err
	}
	conversations, err := LoadCollection(a.ctx, root, TagConversation, newConversation)
	if err != nil {
		return err
	}
	var db *DatabaseSettings
	if el := root.FirstChild(TagDatabase); el != nil {
		if db, err = newDatabaseSettings(a.ctx, el); err != nil {
			return err
		}
	}

	a.managers = managers
	a.serialPorts = ports
	a.conversations = conversations
	a.database = db
	return nil
}

// Document returns the backing document.
func (a *ApplicationSettings) Document() *document.Document {
	return a.doc
}

// SaveFile writes the backing document to path.
func (a *ApplicationSettings) SaveFile(path string) error {
	return a.doc.SaveFile(path)
}

// DeviceManagers returns the device managers in document order.
func (a *ApplicationSettings) DeviceManagers() *Collection[*DeviceManager] {
	return a.managers
}

// SerialPorts returns the configured serial ports.
func (a *ApplicationSettings) SerialPorts() *Collection[*SerialPort] {
	return a.serialPorts
}

// Conversations returns the configured conversations.
func (a *ApplicationSettings) Conversations() *Collection[*Conversation] {
	return a.conversations
}

// Database returns the database settings, adding an empty database element
// the first time it is asked for when the document has none.
func (a *ApplicationSettings) Database() *DatabaseSettings {
	if a.database == nil {
		// A fresh element has no attributes to fail on
		a.database, _ = newDatabaseSettings(a.ctx, a.doc.Root.AddElement(TagDatabase)) //nolint:errcheck // cannot fail
	}
	return a.database
}

// Devices returns an enumerator over every device of every manager.
func (a *ApplicationSettings) Devices() *DeviceEnumerator {
	return NewDeviceEnumerator(a.managers.Items())
}

// FindDevice returns the first device with the given name across all managers.
func (a *ApplicationSettings) FindDevice(name string) (*Device, error) {
	for d := range a.Devices().All() {
		if d.Name() == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

// FindDeviceManager returns the device manager with the given name.
func (a *ApplicationSettings) FindDeviceManager(name string) (*DeviceManager, error) {
	for _, m := range a.managers.items {
		if m.Name() == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrManagerNotFound, name)
}

// FindSerialPort returns the serial port with the given name.
func (a *ApplicationSettings) FindSerialPort(name string) (*SerialPort, error) {
	for _, p := range a.serialPorts.items {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSerialPortNotFound, name)
}

// AddDeviceManager appends a new device manager.
func (a *ApplicationSettings) AddDeviceManager(name string, protocol Protocol) (*DeviceManager, error) {
	m, err := a.managers.Add()
	if err != nil {
		return nil, fmt.Errorf("adding device manager %q: %w", name, err)
	}
	m.SetName(name)
	m.SetProtocol(protocol)
	return m, nil
}

// AddSerialPort appends a new serial port.
func (a *ApplicationSettings) AddSerialPort(name, portName string) (*SerialPort, error) {
	p, err := a.serialPorts.Add()
	if err != nil {
		return nil, fmt.Errorf("adding serial port %q: %w", name, err)
	}
	p.SetName(name)
	p.SetPortName(portName)
	return p, nil
}
