package genref

import "context"

type heapKey struct{}

// NewContext returns a copy of ctx carrying the Heap. The context must not
// be used to reach the Heap from another goroutine.
func NewContext(ctx context.Context, h *Heap) context.Context {
	return context.WithValue(ctx, heapKey{}, h)
}

// FromContext returns the Heap carried by ctx, if any.
func FromContext(ctx context.Context) (*Heap, bool) {
	h, ok := ctx.Value(heapKey{}).(*Heap)
	return h, ok
}
