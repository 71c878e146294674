package genref

// Stats describes the state of an allocator domain, for diagnosing leaks. It
// is a snapshot and does not change with the domain.
type Stats struct {
	// FreeSlots is the number of free slots ready for reuse, by layout.
	FreeSlots map[Layout]int

	// Parked is the number of slots handed back by closed Heaps and not yet
	// borrowed again, by layout. It is only set for a Global.
	Parked map[Layout]int

	// DeferredDrops is the number of allocations whose owner is gone but
	// whose payload is kept alive by an accessor, by layout.
	DeferredDrops map[Layout]int

	// Guards is the number of live accessors in the domain.
	Guards int

	// Minted is the number of fresh slots created by the domain's arena.
	Minted int

	// Retired is the number of slots whose generation reached the maximum
	// and that will never be reused.
	Retired int

	// Borrowed is the number of slots a Heap took from its Global.
	Borrowed int
}

func sumSizes(m map[Layout]int) (n int) {
	for l, c := range m {
		n += int(l.Size) * c
	}
	return n
}

func sum(m map[Layout]int) (n int) {
	for _, c := range m {
		n += c
	}
	return n
}

func counts[S any](m map[Layout][]S) map[Layout]int {
	out := make(map[Layout]int, len(m))
	for l, fl := range m {
		if len(fl) > 0 {
			out[l] = len(fl)
		}
	}
	return out
}

// FreeObjects returns the number of free slots.
func (s Stats) FreeObjects() int { return sum(s.FreeSlots) }

// FreeBytes returns the payload size of the free slots.
func (s Stats) FreeBytes() int { return sumSizes(s.FreeSlots) }

// BoundObjects returns the number of allocations waiting to be dropped.
func (s Stats) BoundObjects() int { return sum(s.DeferredDrops) }

// BoundBytes returns the payload size of the allocations waiting to be
// dropped.
func (s Stats) BoundBytes() int { return sumSizes(s.DeferredDrops) }

// Stats returns a snapshot of the Heap.
func (h *Heap) Stats() Stats {
	return Stats{
		FreeSlots:     counts(h.free),
		DeferredDrops: h.queue.stats(),
		Guards:        h.guards,
		Minted:        h.arena.minted,
		Retired:       h.retired,
		Borrowed:      h.borrowed,
	}
}

// Stats returns a snapshot of the Global.
func (g *Global) Stats() Stats {
	g.mu.Lock()
	st := Stats{
		FreeSlots: counts(g.free),
		Parked:    counts(g.parked),
		Minted:    g.arena.minted,
		Retired:   g.retired,
	}
	g.mu.Unlock()

	g.qmu.Lock()
	st.DeferredDrops = g.queue.stats()
	g.qmu.Unlock()

	st.Guards = g.guards.Load()
	return st
}
