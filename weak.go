package genref

// Weak is a copyable, non-owning reference to an allocation. It remembers
// the generation of the allocation when it was created and is valid for as
// long as that generation is current. The zero Weak is never valid.
type Weak[T any] struct {
	rec  record
	cell *T
	gen  uint32
}

// Valid reports if the allocation is still alive. The answer may be stale by
// the time it is used; TryRead and TryWrite check again once locked.
func (w Weak[T]) Valid() bool {
	return w.rec != nil && w.rec.count() == w.gen
}

// Generation returns the generation the Weak refers to.
func (w Weak[T]) Generation() uint32 { return w.gen }

// TryRead returns a shared accessor to the payload, or false if the
// allocation is gone or being written.
func (w Weak[T]) TryRead() (*Reading[T], bool) {
	if !w.Valid() || !w.rec.tryLockShared() {
		return nil, false
	}
	// the owner may have been dropped between the check and the lock.
	if w.rec.count() != w.gen {
		release(w.rec, w.gen, false)
		return nil, false
	}
	return newReading(w.rec, w.cell, w.gen), true
}

// TryWrite returns an exclusive accessor to the payload, or false if the
// allocation is gone or being accessed.
func (w Weak[T]) TryWrite() (*Writing[T], bool) {
	if !w.Valid() || !w.rec.tryLockExclusive() {
		return nil, false
	}
	if w.rec.count() != w.gen {
		release(w.rec, w.gen, true)
		return nil, false
	}
	return newWriting(w.rec, w.cell, w.gen), true
}
