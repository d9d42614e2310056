package modbus

import (
	"fmt"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

// Reading is one decoded register value.
type Reading struct {
	Register string                `json:"register"`
	Id1      string                `json:"id1,omitempty"`
	Id3      string                `json:"id3,omitempty"`
	Position uint16                `json:"position"`
	Type     settings.RegisterType `json:"type"`
	Raw      []uint16              `json:"raw"`
	Value    float64               `json:"value"`
}

// Decode extracts every positioned item of m from words. Positions are
// offsets in registers from the start of the block.
//
// A stale map is refused with settings.ErrStaleDataMap.
func Decode(m *settings.DynamicDataMap, words []uint16) ([]Reading, error) {
	if m.Stale() {
		return nil, settings.ErrStaleDataMap
	}

	readings := make([]Reading, 0, len(m.Items))
	for _, item := range m.Items {
		def := item.Definition
		pos := int(*item.Position)
		typ := def.Type()
		n := typ.Words()

		if pos+n > len(words) {
			return nil, fmt.Errorf("%w: %s at %d needs %d words, block has %d",
				ErrPositionOutOfRange, def.Name(), pos, n, len(words))
		}

		raw := make([]uint16, n)
		copy(raw, words[pos:pos+n])

		value := convert(typ, raw)
		scale, err := def.ScaleFactor()
		if err != nil {
			return nil, err
		}
		if scale != nil {
			value *= *scale
		}

		readings = append(readings, Reading{
			Register: def.Name(),
			Id1:      def.Id1(),
			Id3:      def.Id3(),
			Position: *item.Position,
			Type:     typ,
			Raw:      raw,
			Value:    value,
		})
	}
	return readings, nil
}

func convert(typ settings.RegisterType, raw []uint16) float64 {
	switch typ {
	case settings.RegisterInt16:
		return float64(int16(raw[0]))
	case settings.RegisterUint32:
		return float64(uint32(raw[0])<<16 | uint32(raw[1]))
	case settings.RegisterInt32:
		return float64(int32(uint32(raw[0])<<16 | uint32(raw[1])))
	default:
		return float64(raw[0])
	}
}

// unpackRegisters converts a big-endian register payload to words.
func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := range n {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
