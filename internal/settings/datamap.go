package settings

// MapItem pairs a register definition with its position in a data block.
// Position starts as the definition's configured position and may be
// changed by SetItemPosition without touching the document.
type MapItem struct {
	Position   *uint16
	Definition *Register
}

// DynamicDataMap resolves register definitions to positions in a received
// data block.
//
// RawItems keeps every definition in definition order. Items holds only the
// positioned entries, in the same relative order, and is nil until at least
// one entry has a position.
//
// SetItemPosition does not rebuild Items. The map is marked stale instead and
// consumers reject it until Rebuild is called, so a forgotten rebuild fails
// loudly instead of decoding against old positions.
type DynamicDataMap struct {
	RawItems []*MapItem
	Items    []*MapItem

	stale bool
}

// Assignment is one position discovered at runtime.
type Assignment struct {
	ID       string
	Position uint16
}

// NewDynamicDataMap builds a map over defs. Items is built immediately from
// the configured positions.
func NewDynamicDataMap(defs []*Register) (*DynamicDataMap, error) {
	m := &DynamicDataMap{RawItems: make([]*MapItem, 0, len(defs))}
	for _, d := range defs {
		pos, err := d.Position()
		if err != nil {
			return nil, err
		}
		m.RawItems = append(m.RawItems, &MapItem{Position: pos, Definition: d})
	}
	m.Rebuild()
	return m, nil
}

// SetItemPosition sets the position of the first entry whose Id1 equals id.
// If no entry matches on Id1, the first entry whose Id3 equals id is used.
// It reports whether an entry was found. An empty id never matches.
//
// Items is not rebuilt; call Rebuild after a batch of assignments.
func (m *DynamicDataMap) SetItemPosition(id string, position uint16) bool {
	if id == "" {
		return false
	}

	item := m.find(id, (*Register).Id1)
	if item == nil {
		item = m.find(id, (*Register).Id3)
	}
	if item == nil {
		return false
	}

	p := position
	item.Position = &p
	m.stale = true
	return true
}

func (m *DynamicDataMap) find(id string, field func(*Register) string) *MapItem {
	for _, item := range m.RawItems {
		if field(item.Definition) == id {
			return item
		}
	}
	return nil
}

// Rebuild recomputes Items from RawItems and clears the stale flag.
func (m *DynamicDataMap) Rebuild() {
	count := 0
	for _, item := range m.RawItems {
		if item.Position != nil {
			count++
		}
	}

	m.stale = false
	if count == 0 {
		m.Items = nil
		return
	}

	m.Items = make([]*MapItem, 0, count)
	for _, item := range m.RawItems {
		if item.Position != nil {
			m.Items = append(m.Items, item)
		}
	}
}

// AssignPositions applies every assignment and rebuilds once.
// It returns the ids that matched no entry.
func (m *DynamicDataMap) AssignPositions(assignments []Assignment) (unmatched []string) {
	for _, a := range assignments {
		if !m.SetItemPosition(a.ID, a.Position) {
			unmatched = append(unmatched, a.ID)
		}
	}
	m.Rebuild()
	return unmatched
}

// Stale reports whether positions changed since the last Rebuild.
func (m *DynamicDataMap) Stale() bool {
	return m.stale
}

// Positioned reports whether Items is populated.
func (m *DynamicDataMap) Positioned() bool {
	return m.Items != nil
}
