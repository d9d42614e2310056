// Package document provides the attribute store behind the settings tree.
//
// A Document is a tree of Elements. Each Element has a name, an ordered list
// of string attributes and an ordered list of child elements. The settings
// package binds one settings node to one Element and never looks at how the
// tree reaches disk.
//
// Two persistence paths exist:
//
//   - XML files (Parse, LoadFile, Document.Write, Document.SaveFile). This is
//     the editable on-disk form.
//   - SQLite snapshots (SQLiteRepository). Named copies of a document kept in
//     the service database so a known-good tree survives a broken edit.
//
// # Usage
//
//	doc, err := document.LoadFile("settings.xml")
//	if err != nil {
//	    return err
//	}
//	mgr := doc.Root.AddElement("devicemanager")
//	mgr.SetValue("name", "Inverters")
//	if err := doc.SaveFile("settings.xml"); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Elements are not safe for concurrent mutation. The tree is owned by the
// goroutine that loaded it.
package document
