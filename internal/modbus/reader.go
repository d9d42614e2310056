package modbus

import (
	"fmt"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

// RegisterClient reads holding registers. modbus.Client from
// github.com/goburrow/modbus satisfies it.
type RegisterClient interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
}

// Reader reads block messages from one device.
type Reader struct {
	client RegisterClient
}

// NewReader creates a reader over client.
func NewReader(client RegisterClient) *Reader {
	return &Reader{client: client}
}

// ReadBlock reads the registers covered by b.
func (r *Reader) ReadBlock(b *settings.BlockMessage) ([]uint16, error) {
	addr, err := b.Address()
	if err != nil {
		return nil, err
	}
	qty, err := b.Quantity()
	if err != nil {
		return nil, err
	}
	if addr == nil || qty == nil || *qty == 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteBlock, b.Element().Path())
	}

	data, err := r.client.ReadHoldingRegisters(*addr, *qty)
	if err != nil {
		return nil, fmt.Errorf("reading block %s at %d: %w", b.Name(), *addr, err)
	}
	words := unpackRegisters(data)
	if len(words) < int(*qty) {
		return nil, fmt.Errorf("%w: block %s got %d of %d registers", ErrShortResponse, b.Name(), len(words), *qty)
	}
	return words[:*qty], nil
}

// ReadAndDecode reads b and decodes it through m, normally a data map
// built from b and resolved with ResolvePositions.
func (r *Reader) ReadAndDecode(b *settings.BlockMessage, m *settings.DynamicDataMap) ([]Reading, error) {
	words, err := r.ReadBlock(b)
	if err != nil {
		return nil, err
	}
	return Decode(m, words)
}
