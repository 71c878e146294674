package genref

// guard is the part shared by Reading and Writing: the lock held on an
// allocation and the domain the accessor is counted in.
type guard struct {
	rec  record
	dom  domain
	gen  uint32
	done bool
}

func newGuard(r record, gen uint32) guard {
	d := r.canonical().domain()
	d.acquireGuard()
	return guard{rec: r, dom: d, gen: gen}
}

func (g *guard) check() {
	if g.done {
		panic("genref: use of a released accessor")
	}
}

func (g *guard) release(exclusive bool) {
	g.check()
	g.done = true
	release(g.rec, g.gen, exclusive)
	g.dom.releaseGuard()
}

// release gives up a lock on r held by someone that observed generation gen.
// If the owner has been dropped since, whoever turns out to be the last
// holder runs the deferred drop.
func release(r record, gen uint32, exclusive bool) {
	r = r.canonical()
	if r.count() != gen && (exclusive || r.tryIntoExclusive()) {
		r.domain().claim(r)
		return
	}

	if exclusive {
		r.unlockExclusive()
	} else {
		r.unlockShared()
	}

	// the owner may have queued its drop while we still held the lock.
	if r.count() != gen {
		r.domain().reap(r)
	}
}

// Reading is a shared accessor. The payload can not be written or destroyed
// while it is alive. It must be released exactly once.
type Reading[T any] struct {
	guard
	cell *T
}

func newReading[T any](r record, cell *T, gen uint32) *Reading[T] {
	return &Reading[T]{guard: newGuard(r, gen), cell: cell}
}

// Get returns a copy of the payload.
func (r *Reading[T]) Get() T {
	r.check()
	return *r.cell
}

// Value returns a pointer to the payload. It must not be written through, or
// used after the Reading is released.
func (r *Reading[T]) Value() *T {
	r.check()
	return r.cell
}

// Clone returns another shared accessor to the same payload.
func (r *Reading[T]) Clone() *Reading[T] {
	r.check()
	if !r.rec.tryLockShared() {
		panic("genref: failed to share lock a share locked allocation")
	}
	return newReading(r.rec, r.cell, r.gen)
}

// TryUpgrade turns the Reading into a Writing if it is the only accessor of
// the payload. On success the Reading is released.
func (r *Reading[T]) TryUpgrade() (*Writing[T], bool) {
	r.check()
	if !r.rec.tryIntoExclusive() {
		return nil, false
	}
	r.done = true
	return &Writing[T]{guard: guard{rec: r.rec, dom: r.dom, gen: r.gen}, cell: r.cell}, true
}

// Release gives up the accessor.
func (r *Reading[T]) Release() { r.release(false) }

// Writing is an exclusive accessor. No other accessor can exist while it is
// alive. It must be released exactly once.
type Writing[T any] struct {
	guard
	cell *T
}

func newWriting[T any](r record, cell *T, gen uint32) *Writing[T] {
	return &Writing[T]{guard: newGuard(r, gen), cell: cell}
}

// Get returns a copy of the payload.
func (w *Writing[T]) Get() T {
	w.check()
	return *w.cell
}

// Set replaces the payload.
func (w *Writing[T]) Set(v T) {
	w.check()
	*w.cell = v
}

// Value returns a pointer to the payload, valid until the Writing is
// released.
func (w *Writing[T]) Value() *T {
	w.check()
	return w.cell
}

// Downgrade turns the Writing into a Reading, which is returned. The Writing
// is released.
func (w *Writing[T]) Downgrade() *Reading[T] {
	w.check()
	w.rec.downgrade()
	w.done = true
	return &Reading[T]{guard: guard{rec: w.rec, dom: w.dom, gen: w.gen}, cell: w.cell}
}

// Release gives up the accessor.
func (w *Writing[T]) Release() { w.release(true) }
