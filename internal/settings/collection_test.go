package settings

import (
	"errors"
	"testing"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
)

func buildParameter(ctx *Context, el *document.Element) (*Parameter, error) {
	return newParameter(ctx, el)
}

func TestLoadCollectionMatchesTagInOrder(t *testing.T) {
	root := document.NewElement(TagAction)
	root.AddElement(TagParameter).SetValue("name", "a")
	root.AddElement("other").SetValue("name", "skip")
	root.AddElement(TagParameter).SetValue("name", "b")
	root.AddElement("Parameter").SetValue("name", "wrong case")
	nested := root.AddElement("group")
	nested.AddElement(TagParameter).SetValue("name", "too deep")
	root.AddElement(TagParameter).SetValue("name", "c")

	c, err := LoadCollection(NewContext(), root, TagParameter, buildParameter)
	if err != nil {
		t.Fatalf("LoadCollection() error = %v", err)
	}

	if c.Tag() != TagParameter {
		t.Errorf("Tag() = %q", c.Tag())
	}
	var names []string
	for _, p := range c.All() {
		names = append(names, p.Name())
	}
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestCollectionIsSnapshot(t *testing.T) {
	root := document.NewElement(TagAction)
	root.AddElement(TagParameter)

	c, err := LoadCollection(NewContext(), root, TagParameter, buildParameter)
	if err != nil {
		t.Fatalf("LoadCollection() error = %v", err)
	}

	root.AddElement(TagParameter)
	if c.Len() != 1 {
		t.Errorf("Len() after external edit = %d, want 1 until Reload", c.Len())
	}

	if err := c.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() after Reload = %d, want 2", c.Len())
	}
}

func TestCollectionAdd(t *testing.T) {
	root := document.NewElement(TagAction)
	c, err := LoadCollection(NewContext(), root, TagParameter, buildParameter)
	if err != nil {
		t.Fatalf("LoadCollection() error = %v", err)
	}

	p, err := c.Add()
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c.Len() != 1 || c.At(0) != p {
		t.Error("added item not in collection")
	}
	if p.Element().Parent() != root || p.Element().Name != TagParameter {
		t.Error("added element not attached under parent with collection tag")
	}

	items := c.Items()
	items[0] = nil
	if c.At(0) == nil {
		t.Error("Items() returned the backing slice")
	}
}

func TestCollectionBuildErrors(t *testing.T) {
	errBoom := errors.New("boom")
	fail := false
	build := func(ctx *Context, el *document.Element) (*Parameter, error) {
		if fail {
			return nil, errBoom
		}
		return newParameter(ctx, el)
	}

	root := document.NewElement(TagAction)
	root.AddElement(TagParameter)
	c, err := LoadCollection(NewContext(), root, TagParameter, build)
	if err != nil {
		t.Fatalf("LoadCollection() error = %v", err)
	}

	fail = true
	root.AddElement(TagParameter)
	if err := c.Reload(); !errors.Is(err, errBoom) {
		t.Errorf("Reload() error = %v, want errBoom", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() after failed Reload = %d, want previous 1", c.Len())
	}

	before := len(root.Children())
	if _, err := c.Add(); !errors.Is(err, errBoom) {
		t.Errorf("Add() error = %v, want errBoom", err)
	}
	if len(root.Children()) != before {
		t.Error("failed Add left an element in the document")
	}

	if _, err := LoadCollection(NewContext(), root, TagParameter, build); !errors.Is(err, errBoom) {
		t.Errorf("LoadCollection() error = %v, want errBoom", err)
	}
}
