package genref

// deferred is the destruction of a payload that could not run when its owner
// was dropped because the allocation was locked.
type deferred struct {
	layout  Layout
	destroy func()
	retired bool
}

// dropQueue holds deferred destructions keyed by the canonical record of the
// allocation. It is not synchronized; the Global domain guards it with a
// mutex.
type dropQueue struct {
	entries map[record]deferred
	bound   map[Layout]int
}

func newDropQueue() dropQueue {
	return dropQueue{
		entries: make(map[record]deferred),
		bound:   make(map[Layout]int),
	}
}

func (q *dropQueue) push(r record, d deferred) {
	if _, ok := q.entries[r]; ok {
		panic("genref: allocation queued for drop twice")
	}
	q.entries[r] = d
	q.bound[d.layout]++
}

// take removes the entry for r if there is one and r can be locked
// exclusively. On success the caller holds r exclusively.
func (q *dropQueue) take(r record) (deferred, bool) {
	d, ok := q.entries[r]
	if !ok || !r.tryLockExclusive() {
		return deferred{}, false
	}
	q.remove(r, d)
	return d, true
}

// claim removes the entry for r, which the caller already holds exclusively.
func (q *dropQueue) claim(r record) (deferred, bool) {
	d, ok := q.entries[r]
	if ok {
		q.remove(r, d)
	}
	return d, ok
}

// drain swaps out the queue's storage and returns every entry whose record
// could be locked exclusively, keeping the rest queued.
func (q *dropQueue) drain() (records []record, ds []deferred) {
	if len(q.entries) == 0 {
		return nil, nil
	}
	entries := q.entries
	q.entries = make(map[record]deferred, len(entries))
	for r, d := range entries {
		if r.tryLockExclusive() {
			q.bound[d.layout]--
			records = append(records, r)
			ds = append(ds, d)
		} else {
			q.entries[r] = d
		}
	}
	return records, ds
}

func (q *dropQueue) remove(r record, d deferred) {
	delete(q.entries, r)
	q.bound[d.layout]--
}

// stats copies the per layout count of queued drops.
func (q *dropQueue) stats() map[Layout]int {
	out := make(map[Layout]int, len(q.bound))
	for l, n := range q.bound {
		if n > 0 {
			out[l] = n
		}
	}
	return out
}

// run destroys the payload of r, which the caller holds exclusively, then
// unlocks and recycles it.
func (d deferred) run(r record) {
	d.destroy()
	r.unlockExclusive()
	r.domain().recycle(r, d.layout, d.retired)
}
