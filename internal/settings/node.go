package settings

import (
	"strconv"
	"strings"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
)

// Node binds one settings object to one document element.
// Entity types embed Node and add typed accessors on top of it.
type Node struct {
	ctx *Context
	el  *document.Element
}

func newNode(ctx *Context, el *document.Element) Node {
	return Node{ctx: ctx, el: el}
}

// Element returns the backing document element.
func (n *Node) Element() *document.Element {
	return n.el
}

// Context returns the shared tree context.
func (n *Node) Context() *Context {
	return n.ctx
}

// GetValue returns the named attribute, or "" when it is absent.
func (n *Node) GetValue(name string) string {
	return n.el.GetValue(name)
}

// SetValue writes the attribute and notifies the context's observers with tag.
func (n *Node) SetValue(name, value, tag string) {
	n.el.SetValue(name, value)
	n.ctx.notify(ChangeEvent{
		Tag:       tag,
		Element:   n.el.Path(),
		Attribute: name,
		Value:     value,
	})
}

// GetBool is true only for the exact string "true".
func (n *Node) GetBool(name string) bool {
	return n.GetValue(name) == "true"
}

// SetBool writes "true" or "false".
func (n *Node) SetBool(name string, v bool, tag string) {
	n.SetValue(name, strconv.FormatBool(v), tag)
}

// GetUint16 parses the attribute. An empty value yields nil.
func (n *Node) GetUint16(name string) (*uint16, error) {
	return getNullable(n, name, func(s string) (uint16, error) {
		v, err := strconv.ParseUint(s, 10, 16)
		return uint16(v), err
	})
}

// SetUint16 writes v, or "" when v is nil.
func (n *Node) SetUint16(name string, v *uint16, tag string) {
	setNullable(n, name, v, func(x uint16) string { return strconv.FormatUint(uint64(x), 10) }, tag)
}

// GetInt parses the attribute. An empty value yields nil.
func (n *Node) GetInt(name string) (*int, error) {
	return getNullable(n, name, strconv.Atoi)
}

// SetInt writes v, or "" when v is nil.
func (n *Node) SetInt(name string, v *int, tag string) {
	setNullable(n, name, v, strconv.Itoa, tag)
}

// GetFloat parses the attribute. An empty value yields nil.
func (n *Node) GetFloat(name string) (*float64, error) {
	return getNullable(n, name, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// SetFloat writes v, or "" when v is nil.
func (n *Node) SetFloat(name string, v *float64, tag string) {
	setNullable(n, name, v, func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }, tag)
}

func getNullable[T any](n *Node, name string, parse func(string) (T, error)) (*T, error) {
	raw := n.GetValue(name)
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	v, err := parse(s)
	if err != nil {
		return nil, &ValueError{
			Element:   n.el.Path(),
			Attribute: name,
			Value:     raw,
			Err:       err,
		}
	}
	return &v, nil
}

func setNullable[T any](n *Node, name string, v *T, format func(T) string, tag string) {
	if v == nil {
		n.SetValue(name, "", tag)
		return
	}
	n.SetValue(name, format(*v), tag)
}
