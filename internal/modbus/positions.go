package modbus

import (
	"strconv"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

// ResolvePositions places the registers of m that have no configured
// position, using a manager's register templates. A template supplies a
// position either directly or through an Id3 holding the absolute register
// address, which must fall inside block b. Block registers are matched to
// templates on Id1 first, then on Id3.
//
// Registers that already have a position keep it. The ids of registers left
// without a position are returned.
func ResolvePositions(m *settings.DynamicDataMap, b *settings.BlockMessage, templates []*settings.Register) ([]string, error) {
	var open []*settings.Register
	for _, item := range m.RawItems {
		if item.Position == nil {
			open = append(open, item.Definition)
		}
	}
	if len(open) == 0 {
		return nil, nil
	}

	base, err := b.Address()
	if err != nil {
		return nil, err
	}
	qty, err := b.Quantity()
	if err != nil {
		return nil, err
	}

	byID1 := make(map[string]uint16)
	byID3 := make(map[string]uint16)
	for _, t := range templates {
		pos, ok, err := templatePosition(t, base, qty)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		// First template wins
		if id := t.Id1(); id != "" {
			if _, seen := byID1[id]; !seen {
				byID1[id] = pos
			}
		}
		if id := t.Id3(); id != "" {
			if _, seen := byID3[id]; !seen {
				byID3[id] = pos
			}
		}
	}

	var (
		assignments []settings.Assignment
		unplaced    []string
	)
	for _, def := range open {
		if id := def.Id1(); id != "" {
			if pos, ok := byID1[id]; ok {
				assignments = append(assignments, settings.Assignment{ID: id, Position: pos})
				continue
			}
		}
		if id := def.Id3(); id != "" {
			if pos, ok := byID3[id]; ok {
				assignments = append(assignments, settings.Assignment{ID: id, Position: pos})
				continue
			}
		}
		unplaced = append(unplaced, registerID(def))
	}

	unplaced = append(unplaced, m.AssignPositions(assignments)...)
	return unplaced, nil
}

// templatePosition returns the position t gives inside a block starting at
// base and holding qty registers.
func templatePosition(t *settings.Register, base, qty *uint16) (uint16, bool, error) {
	pos, err := t.Position()
	if err != nil {
		return 0, false, err
	}
	if pos != nil {
		return *pos, true, nil
	}
	if base == nil || qty == nil {
		return 0, false, nil
	}

	addr, err := strconv.ParseUint(t.Id3(), 10, 16)
	if err != nil {
		// Id3 is a plain identifier, not an address
		return 0, false, nil
	}
	if addr < uint64(*base) || addr >= uint64(*base)+uint64(*qty) {
		return 0, false, nil
	}
	return uint16(addr) - *base, true, nil
}

func registerID(r *settings.Register) string {
	switch {
	case r.Id1() != "":
		return r.Id1()
	case r.Id3() != "":
		return r.Id3()
	default:
		return r.Name()
	}
}
