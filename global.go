package genref

import (
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/cpu"
)

// Global is the allocator domain shared by every goroutine. It hands out
// shared slots, keeps the free slots of closed Heaps for other Heaps to
// borrow, and runs the drops deferred on shared slots. It is safe to use
// concurrently.
type Global struct {
	cfg Config
	log logrus.FieldLogger

	// mu guards the free lists and the arena.
	mu      sync.Mutex
	free    map[Layout][]*sharedSlot
	parked  map[Layout][]*localSlot
	arena   arena[sharedSlot]
	retired int
	_       cpu.CacheLinePad

	// qmu guards the drop queue.
	qmu   sync.Mutex
	queue dropQueue
	_     cpu.CacheLinePad

	guards counter
}

// NewGlobal returns a Global using the given configuration.
func NewGlobal(cfg Config) (*Global, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Global{
		cfg:    cfg,
		log:    cfg.Logger,
		free:   make(map[Layout][]*sharedSlot),
		parked: make(map[Layout][]*localSlot),
		arena:  newArena[sharedSlot](cfg.ArenaChunk, cfg.ArenaMaxChunk),
		queue:  newDropQueue(),
	}, nil
}

// get returns a shared slot for a payload of the given layout, recycled if
// possible.
func (g *Global) get(l Layout) *sharedSlot {
	g.mu.Lock()
	defer g.mu.Unlock()

	if fl := g.free[l]; len(fl) > 0 {
		s := fl[len(fl)-1]
		fl[len(fl)-1] = nil
		g.free[l] = fl[:len(fl)-1]
		return s
	}
	return g.mintLocked()
}

// mintShared returns a never used shared slot.
func (g *Global) mintShared() *sharedSlot {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.mintLocked()
}

func (g *Global) mintLocked() *sharedSlot {
	s, grew := g.arena.mint()
	if grew {
		g.log.WithFields(logrus.Fields{
			"domain": "global",
			"chunks": g.arena.chunks,
			"minted": g.arena.minted,
		}).Debug("minted counter chunk")
	}
	s.gen.Store(countInit)
	s.global = g
	return s
}

// request moves up to n parked slots of the given layout onto into and
// returns the extended slice and how many were moved.
func (g *Global) request(l Layout, n int, into []*localSlot) ([]*localSlot, int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fl := g.parked[l]
	if n > len(fl) {
		n = len(fl)
	}
	into = append(into, fl[len(fl)-n:]...)
	clear(fl[len(fl)-n:])
	g.parked[l] = fl[:len(fl)-n]
	return into, n
}

// park takes ownership of the free slots of a closing Heap.
func (g *Global) park(l Layout, slots ...*localSlot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.parked[l] = append(g.parked[l], slots...)
}

// NewHeap returns a Heap that borrows from and returns to g.
func (g *Global) NewHeap() *Heap {
	return newHeap(g)
}

func (g *Global) acquireGuard() { g.guards.Acquire() }

func (g *Global) releaseGuard() {
	if g.guards.Release() {
		g.drain()
	}
}

func (g *Global) deferDrop(r record, l Layout, destroy func()) {
	g.qmu.Lock()
	defer g.qmu.Unlock()

	// the bump and the push happen under one lock so that reap never sees
	// the bump without the entry.
	retired := r.bump()
	g.queue.push(r, deferred{layout: l, destroy: destroy, retired: retired})
}

func (g *Global) reap(r record) {
	g.qmu.Lock()
	d, ok := g.queue.take(r)
	g.qmu.Unlock()

	if ok {
		d.run(r)
	}
}

func (g *Global) claim(r record) {
	g.qmu.Lock()
	d, ok := g.queue.claim(r)
	g.qmu.Unlock()

	if ok {
		d.run(r)
	} else {
		r.unlockExclusive()
	}
}

// drain runs every queued drop whose allocation is no longer locked. The
// destructors run outside of the queue lock.
func (g *Global) drain() {
	g.qmu.Lock()
	records, ds := g.queue.drain()
	g.qmu.Unlock()

	for i, d := range ds {
		d.run(records[i])
	}
	if len(ds) > 0 {
		g.log.WithFields(logrus.Fields{
			"domain": "global",
			"drops":  len(ds),
		}).Debug("drained drop queue")
	}
}

func (g *Global) recycle(r record, l Layout, retired bool) {
	s := r.(*sharedSlot)

	g.mu.Lock()
	defer g.mu.Unlock()

	if retired {
		g.retired++
		g.log.WithFields(logrus.Fields{
			"domain": "global",
			"layout": l.String(),
		}).Debug("retired counter")
		return
	}
	g.free[l] = append(g.free[l], s)
}
