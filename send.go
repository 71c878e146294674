package genref

// Sendable carries an allocation from one goroutine to another. It is
// produced by Owned.Send and turned back into an Owned by Receive on the
// receiving goroutine. The payload type must itself be safe to use from the
// receiving goroutine.
type Sendable[T any] struct {
	rec    *sharedSlot
	cell   *T
	layout Layout
}

// share returns the shared form of r, promoting a goroutine confined slot.
func share(r record) *sharedSlot {
	switch r := r.(type) {
	case *sharedSlot:
		return r
	case *localSlot:
		return r.promote()
	default:
		panic("genref: unknown record type")
	}
}

// Send releases the Owned and returns a Sendable for the same allocation.
// Accessors and aliases created before the call keep working, and are now
// backed by the shared form of the allocation.
func (o *Owned[T]) Send() (*Sendable[T], error) {
	if o.rec == nil {
		return nil, ErrReleased
	}
	s := &Sendable[T]{rec: share(o.rec), cell: o.cell, layout: o.layout}
	o.rec, o.cell = nil, nil
	return s, nil
}

// Receive returns the owner of the allocation. It can only be called once.
func (s *Sendable[T]) Receive() (*Owned[T], error) {
	if s.rec == nil {
		return nil, ErrReleased
	}
	o := &Owned[T]{rec: s.rec, cell: s.cell, layout: s.layout}
	s.rec, s.cell = nil, nil
	return o, nil
}

// Send returns a Weak to the same allocation that may be used from any
// goroutine. Sending the same allocation again returns a Weak backed by the
// same shared record.
func (w Weak[T]) Send() (Weak[T], error) {
	if !w.Valid() {
		return Weak[T]{}, ErrInvalid
	}
	return Weak[T]{rec: share(w.rec), cell: w.cell, gen: w.gen}, nil
}
