package document

import (
	"fmt"
	"strings"
)

// Attr is a single named attribute on an Element.
type Attr struct {
	Name  string
	Value string
}

// Element is one node of the attribute store.
// Attribute and child order is preserved exactly as loaded or added.
type Element struct {
	Name string

	attrs    []Attr
	children []*Element
	parent   *Element
}

// Document is a settings document with a single root element.
type Document struct {
	Root *Element
}

// New creates a document whose root element has the given name.
func New(rootName string) *Document {
	return &Document{Root: NewElement(rootName)}
}

// NewElement creates a detached element.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// GetValue returns the named attribute, or "" when it is absent.
func (e *Element) GetValue(name string) string {
	v, _ := e.Attr(name)
	return v
}

// SetValue writes the named attribute, appending it if it does not exist yet.
func (e *Element) SetValue(name, value string) {
	for i := range e.attrs {
		if e.attrs[i].Name == name {
			e.attrs[i].Value = value
			return
		}
	}
	e.attrs = append(e.attrs, Attr{Name: name, Value: value})
}

// RemoveAttr deletes the named attribute. It reports whether it was present.
func (e *Element) RemoveAttr(name string) bool {
	for i := range e.attrs {
		if e.attrs[i].Name == name {
			e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
			return true
		}
	}
	return false
}

// Attrs returns a copy of the element's attributes in order.
func (e *Element) Attrs() []Attr {
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// AddElement appends a new child element and returns it.
func (e *Element) AddElement(name string) *Element {
	child := NewElement(name)
	e.AppendChild(child)
	return child
}

// AppendChild attaches an existing element as the last child.
// The child is detached from its previous parent first.
func (e *Element) AppendChild(child *Element) {
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = e
	e.children = append(e.children, child)
}

// RemoveChild detaches child from e. It reports whether child was found.
func (e *Element) RemoveChild(child *Element) bool {
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Children returns the immediate child elements in document order.
// The slice is a copy; the elements are shared.
func (e *Element) Children() []*Element {
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// ChildrenNamed returns the immediate children whose name equals name exactly.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first immediate child with the given name, or nil.
func (e *Element) FirstChild(name string) *Element {
	for _, c := range e.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Parent returns the parent element, or nil for a root or detached element.
func (e *Element) Parent() *Element {
	return e.parent
}

// Path returns a slash separated location such as
// "settings/devicemanager[0]/device[1]". The index counts siblings with the
// same name.
func (e *Element) Path() string {
	var parts []string
	for cur := e; cur != nil; cur = cur.parent {
		if cur.parent == nil {
			parts = append(parts, cur.Name)
			break
		}
		idx := 0
		for _, sib := range cur.parent.children {
			if sib == cur {
				break
			}
			if sib.Name == cur.Name {
				idx++
			}
		}
		parts = append(parts, fmt.Sprintf("%s[%d]", cur.Name, idx))
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Clone returns a deep, detached copy of e.
func (e *Element) Clone() *Element {
	cpy := &Element{Name: e.Name}
	cpy.attrs = make([]Attr, len(e.attrs))
	copy(cpy.attrs, e.attrs)
	for _, c := range e.children {
		cc := c.Clone()
		cc.parent = cpy
		cpy.children = append(cpy.children, cc)
	}
	return cpy
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil || d.Root == nil {
		return &Document{}
	}
	return &Document{Root: d.Root.Clone()}
}
