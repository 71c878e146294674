package genref

// Owned is the owning handle of an allocation. It is the only handle that
// can destroy the payload, which happens when it is dropped: right away if
// nothing is accessing the payload, otherwise when the last accessor is
// released. Dropping the owner invalidates every Weak alias immediately.
//
// An Owned allocated from a Heap must stay on the Heap's goroutine. One from
// NewShared or Sendable.Receive may be used from any goroutine, but like any
// Go value it must not be dropped concurrently with other calls on it.
type Owned[T any] struct {
	rec    record
	cell   *T
	layout Layout
}

// New allocates v from the Heap.
func New[T any](h *Heap, v T) *Owned[T] {
	l := LayoutOf[T]()
	s := h.get(l)
	p := cellOf[T](&s.cell)
	*p = v
	return &Owned[T]{rec: s, cell: p, layout: l}
}

// NewShared allocates v from the Global, so that its handles may be used
// from any goroutine.
func NewShared[T any](g *Global, v T) *Owned[T] {
	l := LayoutOf[T]()
	s := g.get(l)
	p := cellOf[T](&s.cell)
	*p = v
	return &Owned[T]{rec: s, cell: p, layout: l}
}

func (o *Owned[T]) live() record {
	if o.rec == nil {
		panic("genref: use of a released owner")
	}
	return o.rec
}

// Valid reports if the Owned still holds its allocation, that is, it has not
// been dropped, taken or sent.
func (o *Owned[T]) Valid() bool { return o.rec != nil }

// Generation returns the current generation of the allocation.
func (o *Owned[T]) Generation() uint32 { return o.live().count() }

// Alias returns a Weak referring to the allocation.
func (o *Owned[T]) Alias() Weak[T] {
	r := o.live()
	return Weak[T]{rec: r, cell: o.cell, gen: r.count()}
}

// TryRead returns a shared accessor to the payload, or false if it is being
// written.
func (o *Owned[T]) TryRead() (*Reading[T], bool) {
	r := o.live()
	if !r.tryLockShared() {
		return nil, false
	}
	return newReading(r, o.cell, r.count()), true
}

// TryWrite returns an exclusive accessor to the payload, or false if it is
// being accessed.
func (o *Owned[T]) TryWrite() (*Writing[T], bool) {
	r := o.live()
	if !r.tryLockExclusive() {
		return nil, false
	}
	return newWriting(r, o.cell, r.count()), true
}

// TryIntoInner moves the payload out of the allocation and releases the
// allocation without running the payload's destructor. It fails, leaving the
// Owned untouched, if the payload is being accessed.
func (o *Owned[T]) TryIntoInner() (T, bool) {
	r := o.live().canonical()
	if !r.tryLockExclusive() {
		var zero T
		return zero, false
	}

	retired := r.bump()
	v := *o.cell
	var zero T
	*o.cell = zero
	r.unlockExclusive()
	r.domain().recycle(r, o.layout, retired)

	o.rec, o.cell = nil, nil
	return v, true
}

// Drop invalidates every alias of the allocation and destroys the payload,
// deferring the destruction until the last accessor is released if any are
// alive. Calling Drop on a released Owned does nothing.
func (o *Owned[T]) Drop() {
	if o.rec == nil {
		return
	}
	r, cell, l := o.rec.canonical(), o.cell, o.layout
	o.rec, o.cell = nil, nil

	destroy := func() { dropValue(cell) }
	if r.tryLockExclusive() {
		retired := r.bump()
		destroy()
		r.unlockExclusive()
		r.domain().recycle(r, l, retired)
		return
	}

	// an accessor holds the lock. queue the destruction, then try again in
	// case every accessor went away before it was queued.
	d := r.domain()
	d.deferDrop(r, l, destroy)
	d.reap(r)
}
