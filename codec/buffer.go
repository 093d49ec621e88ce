package codec

import (
	"fmt"

	"github.com/colorfulnotion/pvmhost/hosterrors"
)

// BoundedBuffer is the capacity-checked return buffer of an invocation.
// A value that would exceed the capacity is rejected whole and the buffer
// keeps its previous content.
type BoundedBuffer struct {
	capacity int
	data     []byte
}

func NewBoundedBuffer(capacity int) *BoundedBuffer {
	return &BoundedBuffer{capacity: capacity}
}

// Set replaces the content.
func (b *BoundedBuffer) Set(p []byte) error {
	if _, err := Bounded(p, b.capacity, hosterrors.ErrResponseTooLarge); err != nil {
		return err
	}
	b.data = append(b.data[:0], p...)
	return nil
}

func (b *BoundedBuffer) Bytes() []byte { return b.data }

// Bounded checks p against a capacity without copying.
func Bounded(p []byte, capacity int, overflow error) ([]byte, error) {
	if len(p) > capacity {
		return nil, fmt.Errorf("%w: %d bytes exceeds capacity %d", overflow, len(p), capacity)
	}
	return p, nil
}
