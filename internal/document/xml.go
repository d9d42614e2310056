package document

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	// filePermissions is the permission mode for saved settings files.
	filePermissions = 0600

	// dirPermissions is the permission mode for the settings directory.
	dirPermissions = 0750
)

// Parse reads an XML settings document.
//
// Only elements and attributes are significant. Character data, comments
// and processing instructions are skipped. Namespace prefixes are dropped.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)

	var (
		root  *Element
		stack []*Element
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing settings document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := NewElement(t.Name.Local)
			for _, a := range t.Attr {
				el.SetValue(a.Name.Local, a.Value)
			}

			if len(stack) == 0 {
				if root != nil {
					return nil, ErrMultipleRoots
				}
				root = el
			} else {
				stack[len(stack)-1].AppendChild(el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, ErrEmptyDocument
	}
	return &Document{Root: root}, nil
}

// LoadFile parses the XML settings document at path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening settings document: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Write encodes the document as indented XML with a declaration header.
func (d *Document) Write(w io.Writer) error {
	if d == nil || d.Root == nil {
		return ErrEmptyDocument
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writing settings document: %w", err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := encodeElement(enc, d.Root); err != nil {
		return fmt.Errorf("writing settings document: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("writing settings document: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encodeElement(enc *xml.Encoder, e *Element) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}}
	for _, a := range e.attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range e.children {
		if err := encodeElement(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// SaveFile writes the document to path. The file is written to a temporary
// sibling first and renamed into place so readers never see a partial file.
func (d *Document) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary settings file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // No-op after a successful rename

	if err := d.Write(tmp); err != nil {
		tmp.Close() //nolint:errcheck // Already failing
		return err
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		tmp.Close() //nolint:errcheck // Already failing
		return fmt.Errorf("setting settings file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary settings file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}
