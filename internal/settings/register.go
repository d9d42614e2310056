package settings

import (
	"fmt"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
)

// RegisterType is the wire encoding of a register value.
type RegisterType string

// Register types.
const (
	RegisterUint16 RegisterType = "uint16"
	RegisterInt16  RegisterType = "int16"
	RegisterUint32 RegisterType = "uint32"
	RegisterInt32  RegisterType = "int32"
)

// Words returns the number of 16-bit registers the type occupies.
func (t RegisterType) Words() int {
	switch t {
	case RegisterUint32, RegisterInt32:
		return 2
	default:
		return 1
	}
}

// Valid reports whether t is a known type.
func (t RegisterType) Valid() bool {
	switch t {
	case RegisterUint16, RegisterInt16, RegisterUint32, RegisterInt32:
		return true
	}
	return false
}

// Register describes one field of a device's register layout. It is used
// both for register templates on a device manager and for registers inside
// a block message.
type Register struct {
	Node
	tag string
}

func registerBuilder(tag string) BuildFunc[*Register] {
	return func(ctx *Context, el *document.Element) (*Register, error) {
		r := &Register{Node: newNode(ctx, el), tag: tag}
		if _, err := r.Position(); err != nil {
			return nil, err
		}
		if _, err := r.ScaleFactor(); err != nil {
			return nil, err
		}
		if t := r.GetValue("type"); t != "" && !RegisterType(t).Valid() {
			return nil, &ValueError{
				Element:   el.Path(),
				Attribute: "type",
				Value:     t,
				Err:       fmt.Errorf("unknown register type"),
			}
		}
		return r, nil
	}
}

// Name returns the register's display name.
func (r *Register) Name() string { return r.GetValue("name") }

// SetName writes the register name.
func (r *Register) SetName(name string) { r.SetValue("name", name, r.tag) }

// Id1 returns the primary identifier.
func (r *Register) Id1() string { return r.GetValue("id1") }

// Id3 returns the alternate identifier.
func (r *Register) Id3() string { return r.GetValue("id3") }

// Position returns the configured position in the data block, or nil when
// unset.
func (r *Register) Position() (*uint16, error) {
	return r.GetUint16("position")
}

// SetPosition writes the configured position. nil clears it.
func (r *Register) SetPosition(p *uint16) {
	r.SetUint16("position", p, r.tag)
}

// Type returns the register type, uint16 when unset.
func (r *Register) Type() RegisterType {
	if t := r.GetValue("type"); t != "" {
		return RegisterType(t)
	}
	return RegisterUint16
}

// ScaleFactor returns the multiplier applied to raw values, or nil for none.
func (r *Register) ScaleFactor() (*float64, error) {
	return r.GetFloat("scale")
}
