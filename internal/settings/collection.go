package settings

import (
	"iter"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
)

// BuildFunc constructs a typed node from a matching child element.
type BuildFunc[T any] func(ctx *Context, el *document.Element) (T, error)

// Collection holds the typed children of one element whose name equals tag,
// in document order.
//
// It is a snapshot taken when it was loaded. Elements added to the document
// behind its back are not visible until Reload.
type Collection[T any] struct {
	ctx    *Context
	parent *document.Element
	tag    string
	build  BuildFunc[T]
	items  []T
}

// LoadCollection scans parent's immediate children and builds one T for
// each child named tag. The first build error is returned.
func LoadCollection[T any](ctx *Context, parent *document.Element, tag string, build BuildFunc[T]) (*Collection[T], error) {
	c := &Collection[T]{
		ctx:    ctx,
		parent: parent,
		tag:    tag,
		build:  build,
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload rebuilds the collection from the current document. On error the
// previous items are kept.
func (c *Collection[T]) Reload() error {
	children := c.parent.ChildrenNamed(c.tag)
	items := make([]T, 0, len(children))
	for _, el := range children {
		item, err := c.build(c.ctx, el)
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	c.items = items
	return nil
}

// Add appends a new element named tag to the parent and a node built from it.
func (c *Collection[T]) Add() (T, error) {
	el := c.parent.AddElement(c.tag)
	item, err := c.build(c.ctx, el)
	if err != nil {
		c.parent.RemoveChild(el)
		var zero T
		return zero, err
	}
	c.items = append(c.items, item)
	return item, nil
}

// Tag returns the element name this collection matches.
func (c *Collection[T]) Tag() string {
	return c.tag
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// At returns the i'th item. It panics if i is out of range.
func (c *Collection[T]) At(i int) T {
	return c.items[i]
}

// Items returns a copy of the items in document order.
func (c *Collection[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// All iterates over index and item pairs.
func (c *Collection[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range c.items {
			if !yield(i, item) {
				return
			}
		}
	}
}
