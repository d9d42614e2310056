package settings

import (
	"fmt"
	"testing"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
)

type regDef struct {
	id1, id3 string
	position *uint16
}

// makeRegisters builds register templates under a throwaway manager element.
func makeRegisters(t *testing.T, defs []regDef) []*Register {
	t.Helper()

	ctx := NewContext()
	parent := document.NewElement(TagDeviceManager)
	build := registerBuilder(TagRegisterTemplate)

	regs := make([]*Register, 0, len(defs))
	for i, d := range defs {
		el := parent.AddElement(TagRegisterTemplate)
		el.SetValue("name", fmt.Sprintf("r%d", i))
		el.SetValue("id1", d.id1)
		el.SetValue("id3", d.id3)
		if d.position != nil {
			el.SetValue("position", fmt.Sprint(*d.position))
		}
		r, err := build(ctx, el)
		if err != nil {
			t.Fatalf("build register %d: %v", i, err)
		}
		regs = append(regs, r)
	}
	return regs
}

func TestDynamicDataMapItems(t *testing.T) {
	tests := []struct {
		name      string
		positions []*uint16
		wantNames []string
	}{
		{"none positioned", []*uint16{nil, nil, nil}, nil},
		{"empty", nil, nil},
		{"all positioned", []*uint16{ptr(uint16(4)), ptr(uint16(0)), ptr(uint16(2))}, []string{"r0", "r1", "r2"}},
		{"some positioned", []*uint16{nil, ptr(uint16(7)), nil, ptr(uint16(1))}, []string{"r1", "r3"}},
		{"position zero counts", []*uint16{ptr(uint16(0)), nil}, []string{"r0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := make([]regDef, len(tt.positions))
			for i, p := range tt.positions {
				defs[i] = regDef{id1: fmt.Sprintf("ID%d", i), position: p}
			}

			m, err := NewDynamicDataMap(makeRegisters(t, defs))
			if err != nil {
				t.Fatalf("NewDynamicDataMap() error = %v", err)
			}

			if len(m.RawItems) != len(tt.positions) {
				t.Errorf("len(RawItems) = %d, want %d", len(m.RawItems), len(tt.positions))
			}
			if tt.wantNames == nil {
				if m.Items != nil || m.Positioned() {
					t.Errorf("Items = %v, want nil", m.Items)
				}
				return
			}
			if len(m.Items) != len(tt.wantNames) {
				t.Fatalf("len(Items) = %d, want %d", len(m.Items), len(tt.wantNames))
			}
			for i, want := range tt.wantNames {
				if got := m.Items[i].Definition.Name(); got != want {
					t.Errorf("Items[%d] = %s, want %s", i, got, want)
				}
			}
			if m.Stale() {
				t.Error("new map is stale")
			}
		})
	}
}

func TestSetItemPosition(t *testing.T) {
	defs := []regDef{
		{id1: "A", id3: "100"},
		{id1: "B", id3: "A"},
		{id1: "C", id3: "200"},
		{id1: "C", id3: "300"},
		{id1: "D", id3: "200"},
	}

	tests := []struct {
		name    string
		id      string
		want    bool
		changed int
	}{
		{"primary match", "B", true, 1},
		{"primary wins over earlier secondary", "A", true, 0},
		{"secondary fallback", "100", true, 0},
		{"first primary match only", "C", true, 2},
		{"first secondary match only", "200", true, 2},
		{"no match", "ZZZ", false, -1},
		{"empty id", "", false, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewDynamicDataMap(makeRegisters(t, defs))
			if err != nil {
				t.Fatalf("NewDynamicDataMap() error = %v", err)
			}

			got := m.SetItemPosition(tt.id, 42)
			if got != tt.want {
				t.Fatalf("SetItemPosition(%q) = %v, want %v", tt.id, got, tt.want)
			}

			for i, item := range m.RawItems {
				if i == tt.changed {
					if item.Position == nil || *item.Position != 42 {
						t.Errorf("RawItems[%d].Position = %v, want 42", i, item.Position)
					}
					continue
				}
				if item.Position != nil {
					t.Errorf("RawItems[%d] modified: position %d", i, *item.Position)
				}
			}

			if m.Stale() != tt.want {
				t.Errorf("Stale() = %v, want %v", m.Stale(), tt.want)
			}
		})
	}
}

func TestSetItemPositionRequiresRebuild(t *testing.T) {
	m, err := NewDynamicDataMap(makeRegisters(t, []regDef{{id1: "A"}, {id1: "B"}}))
	if err != nil {
		t.Fatalf("NewDynamicDataMap() error = %v", err)
	}

	m.SetItemPosition("B", 3)
	if m.Items != nil {
		t.Error("Items rebuilt without Rebuild")
	}
	if !m.Stale() {
		t.Error("Stale() = false after SetItemPosition")
	}

	m.Rebuild()
	if m.Stale() {
		t.Error("Stale() = true after Rebuild")
	}
	if len(m.Items) != 1 || m.Items[0].Definition.Id1() != "B" {
		t.Errorf("Items after Rebuild = %v, want [B]", m.Items)
	}
}

func TestSetItemPositionLeavesDocumentAlone(t *testing.T) {
	regs := makeRegisters(t, []regDef{{id1: "A"}})
	m, err := NewDynamicDataMap(regs)
	if err != nil {
		t.Fatalf("NewDynamicDataMap() error = %v", err)
	}

	m.SetItemPosition("A", 9)
	if p, _ := regs[0].Position(); p != nil {
		t.Errorf("register position attribute changed to %d", *p)
	}
}

func TestAssignPositions(t *testing.T) {
	m, err := NewDynamicDataMap(makeRegisters(t, []regDef{
		{id1: "A", id3: "1"},
		{id1: "B", id3: "2"},
		{id1: "C", id3: "3"},
	}))
	if err != nil {
		t.Fatalf("NewDynamicDataMap() error = %v", err)
	}

	unmatched := m.AssignPositions([]Assignment{
		{ID: "C", Position: 0},
		{ID: "1", Position: 2},
		{ID: "X", Position: 5},
	})

	if len(unmatched) != 1 || unmatched[0] != "X" {
		t.Errorf("unmatched = %v, want [X]", unmatched)
	}
	if m.Stale() {
		t.Error("Stale() = true after AssignPositions")
	}
	// Items keep definition order, not position order
	if len(m.Items) != 2 || m.Items[0].Definition.Id1() != "A" || m.Items[1].Definition.Id1() != "C" {
		t.Errorf("Items = %v, want [A C]", m.Items)
	}
}

func TestNewDynamicDataMapMalformedPosition(t *testing.T) {
	regs := makeRegisters(t, []regDef{{id1: "A"}})
	regs[0].Element().SetValue("position", "first")

	if _, err := NewDynamicDataMap(regs); err == nil {
		t.Error("NewDynamicDataMap() expected error for malformed position")
	}
}
