package genref

import (
	"fmt"
	"unsafe"
)

// Layout is the size and alignment of a payload type. Free slots are kept
// per Layout so that a slot is only reused for payloads of a compatible
// shape.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// LayoutOf returns the Layout of T.
func LayoutOf[T any]() Layout {
	var v T
	return Layout{Size: unsafe.Sizeof(v), Align: unsafe.Alignof(v)}
}

// String implements fmt.Stringer.
func (l Layout) String() string {
	return fmt.Sprintf("%d/%d", l.Size, l.Align)
}

// Dropper is implemented by payloads that need to release resources when the
// allocation holding them is destroyed.
type Dropper interface {
	Drop()
}

// cellOf returns the payload storage held in cell, reusing it when it already
// stores a T and replacing it otherwise.
func cellOf[T any](cell *any) *T {
	if p, ok := (*cell).(*T); ok {
		return p
	}
	p := new(T)
	*cell = p
	return p
}

// dropValue runs the payload's destructor, if any, and clears the storage so
// the collector can reclaim whatever the payload referenced.
func dropValue[T any](p *T) {
	if d, ok := any(p).(Dropper); ok {
		d.Drop()
	} else if d, ok := any(*p).(Dropper); ok {
		d.Drop()
	}
	var zero T
	*p = zero
}
