package genref

import (
	"github.com/sirupsen/logrus"
)

// Heap is an allocator domain confined to a single goroutine. It keeps its
// own free lists, borrowing batches of free slots from its Global when they
// run dry, and defers drops that can not run while the allocation is locked.
//
// A Heap, and every handle allocated from it, must only be used by the
// goroutine that owns it. Use Owned.Send or Weak.Send to hand an allocation
// to another goroutine. Call Close when the goroutine is done with the Heap
// so its free slots can be reused by other Heaps.
type Heap struct {
	global *Global
	log    logrus.FieldLogger

	free     map[Layout][]*localSlot
	batch    map[Layout]int
	arena    arena[localSlot]
	queue    dropQueue
	guards   int
	retired  int
	borrowed int
	closed   bool
}

func newHeap(g *Global) *Heap {
	return &Heap{
		global: g,
		log:    g.log.WithField("domain", "heap"),
		free:   make(map[Layout][]*localSlot),
		batch:  make(map[Layout]int),
		arena:  newArena[localSlot](g.cfg.ArenaChunk, g.cfg.ArenaMaxChunk),
		queue:  newDropQueue(),
	}
}

// Global returns the Global the Heap borrows from.
func (h *Heap) Global() *Global { return h.global }

// get returns a slot for a payload of the given layout: recycled from the
// heap's free list, borrowed from the Global, or freshly minted.
func (h *Heap) get(l Layout) *localSlot {
	if h.closed {
		panic("genref: allocation from a closed heap")
	}

	s := h.pop(l)
	if s == nil && h.request(l) {
		s = h.pop(l)
	}
	if s == nil {
		var grew bool
		s, grew = h.arena.mint()
		if grew {
			h.log.WithFields(logrus.Fields{
				"chunks": h.arena.chunks,
				"minted": h.arena.minted,
			}).Debug("minted counter chunk")
		}
		s.gen.Store(countInit)
	}
	s.heap = h
	return s
}

func (h *Heap) pop(l Layout) *localSlot {
	fl := h.free[l]
	if len(fl) == 0 {
		return nil
	}
	s := fl[len(fl)-1]
	fl[len(fl)-1] = nil
	h.free[l] = fl[:len(fl)-1]
	return s
}

// request borrows a batch of free slots from the Global. The next batch for
// the layout doubles when the Global served the whole request, shrinks to
// what it served otherwise, and halves when it served nothing. A batch size
// of zero stops further requests for the layout.
func (h *Heap) request(l Layout) bool {
	n, ok := h.batch[l]
	if !ok {
		n = h.global.cfg.InitialBatch
	}
	if n == 0 {
		return false
	}

	var got int
	h.free[l], got = h.global.request(l, n, h.free[l])
	h.borrowed += got

	next := n
	switch {
	case got == n:
		if next = 2 * n; next > h.global.cfg.MaxBatch {
			next = h.global.cfg.MaxBatch
		}
	case got == 0:
		next = n / 2
	default:
		next = got
	}
	if next != n {
		h.log.WithFields(logrus.Fields{
			"layout": l.String(),
			"got":    got,
			"batch":  next,
		}).Debug("adjusted batch size")
	}
	h.batch[l] = next

	return got > 0
}

// Close drains the drop queue and hands every free slot to the Global. It
// panics if accessors are still alive. Allocations still owned when the Heap
// is closed go to the Global when they are dropped. Close is idempotent.
func (h *Heap) Close() {
	if h.closed {
		return
	}
	if h.guards > 0 {
		panic("genref: heap closed with live accessors")
	}
	h.drain()

	var parked int
	for l, fl := range h.free {
		h.global.park(l, fl...)
		parked += len(fl)
	}
	h.free = make(map[Layout][]*localSlot)
	h.closed = true

	h.log.WithField("parked", parked).Debug("closed heap")
}

func (h *Heap) acquireGuard() { h.guards++ }

func (h *Heap) releaseGuard() {
	if h.guards--; h.guards < 0 {
		panic("genref: accessor released more often than acquired")
	} else if h.guards == 0 {
		h.drain()
	}
}

func (h *Heap) deferDrop(r record, l Layout, destroy func()) {
	retired := r.bump()
	h.queue.push(r, deferred{layout: l, destroy: destroy, retired: retired})
}

func (h *Heap) reap(r record) {
	if d, ok := h.queue.take(r); ok {
		d.run(r)
	}
}

func (h *Heap) claim(r record) {
	if d, ok := h.queue.claim(r); ok {
		d.run(r)
	} else {
		r.unlockExclusive()
	}
}

func (h *Heap) drain() {
	records, ds := h.queue.drain()
	for i, d := range ds {
		d.run(records[i])
	}
	if len(ds) > 0 {
		h.log.WithField("drops", len(ds)).Debug("drained drop queue")
	}
}

func (h *Heap) recycle(r record, l Layout, retired bool) {
	s := r.(*localSlot)
	switch {
	case retired:
		h.retired++
		h.log.WithField("layout", l.String()).Debug("retired counter")
	case h.closed:
		h.global.park(l, s)
	default:
		h.free[l] = append(h.free[l], s)
	}
}
