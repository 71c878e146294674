package genref

import (
	"math"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

const (
	countInvalid uint32 = 0              // never initialized
	countInit    uint32 = 1              // first generation of a fresh slot
	countRetired uint32 = math.MaxUint32 // never handed out again
)

// record is the generation counter and lock of one allocation record.
type record interface {
	access

	// count returns the current generation. It panics on the invalid
	// sentinel.
	count() uint32

	// bump advances the generation, invalidating every alias of the current
	// one. It reports whether the new generation is the retired sentinel, in
	// which case the record must never be recycled.
	bump() (retired bool)

	// canonical returns the record that stands for this allocation in drop
	// queues and free lists.
	canonical() record

	// domain returns the allocator domain the canonical record belongs to.
	domain() domain
}

// domain is an allocator domain: a goroutine confined Heap or the Global
// pool. It owns free lists, a drop queue and a count of live accessors.
type domain interface {
	acquireGuard()
	releaseGuard()

	// deferDrop bumps r and queues destroy to run once r can be locked
	// exclusively.
	deferDrop(r record, l Layout, destroy func())

	// reap runs the deferred drop of r if there is one and r is unlocked.
	reap(r record)

	// claim runs the deferred drop of r, which the caller holds exclusively.
	// Without a queued drop it only unlocks r.
	claim(r record)

	// recycle returns r to the free list unless it retired.
	recycle(r record, l Layout, retired bool)
}

//
// goroutine confined slots
//

// localSlot is an allocation record owned by a single Heap. Once promoted it
// forwards every operation to its shared slot and is never reused.
//
// gen and promoted are atomic because a closed Heap parks its free slots in
// the Global, where another goroutine's Heap may borrow them while stale
// aliases on the old goroutine still validate against them.
type localSlot struct {
	heap     *Heap
	gen      atomic.Uint32
	lock     lockState
	promoted atomic.Pointer[sharedSlot]
	cell     any
}

func (s *localSlot) count() uint32 {
	if p := s.promoted.Load(); p != nil {
		return p.count()
	}
	n := s.gen.Load()
	if n == countInvalid {
		panic("genref: read of an uninitialized counter")
	}
	return n
}

func (s *localSlot) bump() bool {
	if p := s.promoted.Load(); p != nil {
		return p.bump()
	}
	return s.gen.Add(1) == countRetired
}

func (s *localSlot) canonical() record {
	if p := s.promoted.Load(); p != nil {
		return p
	}
	return s
}

func (s *localSlot) domain() domain {
	if p := s.promoted.Load(); p != nil {
		return p.global
	}
	return s.heap
}

// promote returns the shared form of the slot, creating it on first use. The
// current generation and every lock currently held carry over, so handles
// and accessors created before the promotion keep working.
func (s *localSlot) promote() *sharedSlot {
	if p := s.promoted.Load(); p != nil {
		return p
	}
	p := s.heap.global.mintShared()
	p.gen.Store(s.count())
	s.lock.replay(&p.lock)
	p.cell, s.cell = s.cell, nil
	s.promoted.Store(p)
	return p
}

func (s *localSlot) tryLockShared() bool {
	if p := s.promoted.Load(); p != nil {
		return p.tryLockShared()
	}
	return s.lock.tryLockShared()
}

func (s *localSlot) tryLockExclusive() bool {
	if p := s.promoted.Load(); p != nil {
		return p.tryLockExclusive()
	}
	return s.lock.tryLockExclusive()
}

func (s *localSlot) tryLockUpgradable() bool {
	if p := s.promoted.Load(); p != nil {
		return p.tryLockUpgradable()
	}
	return s.lock.tryLockUpgradable()
}

func (s *localSlot) tryUpgrade() bool {
	if p := s.promoted.Load(); p != nil {
		return p.tryUpgrade()
	}
	return s.lock.tryUpgrade()
}

func (s *localSlot) tryIntoExclusive() bool {
	if p := s.promoted.Load(); p != nil {
		return p.tryIntoExclusive()
	}
	return s.lock.tryIntoExclusive()
}

func (s *localSlot) downgrade() {
	if p := s.promoted.Load(); p != nil {
		p.downgrade()
		return
	}
	s.lock.downgrade()
}

func (s *localSlot) unlockShared() {
	if p := s.promoted.Load(); p != nil {
		p.unlockShared()
		return
	}
	s.lock.unlockShared()
}

func (s *localSlot) unlockExclusive() {
	if p := s.promoted.Load(); p != nil {
		p.unlockExclusive()
		return
	}
	s.lock.unlockExclusive()
}

func (s *localSlot) unlockUpgradable() {
	if p := s.promoted.Load(); p != nil {
		p.unlockUpgradable()
		return
	}
	s.lock.unlockUpgradable()
}

//
// shared slots
//

// sharedSlot is an allocation record that may be used from any goroutine.
// Slots are padded so that neighbours in an arena chunk do not share a cache
// line.
type sharedSlot struct {
	gen    atomic.Uint32
	lock   rwLock
	global *Global
	cell   any
	_      cpu.CacheLinePad
}

func (s *sharedSlot) count() uint32 {
	n := s.gen.Load()
	if n == countInvalid {
		panic("genref: read of an uninitialized counter")
	}
	return n
}

func (s *sharedSlot) bump() bool { return s.gen.Add(1) == countRetired }
func (s *sharedSlot) canonical() record { return s }
func (s *sharedSlot) domain() domain { return s.global }

func (s *sharedSlot) tryLockShared() bool { return s.lock.tryLockShared() }
func (s *sharedSlot) tryLockExclusive() bool { return s.lock.tryLockExclusive() }
func (s *sharedSlot) tryLockUpgradable() bool { return s.lock.tryLockUpgradable() }
func (s *sharedSlot) tryUpgrade() bool { return s.lock.tryUpgrade() }
func (s *sharedSlot) tryIntoExclusive() bool { return s.lock.tryIntoExclusive() }
func (s *sharedSlot) downgrade() { s.lock.downgrade() }
func (s *sharedSlot) unlockShared() { s.lock.unlockShared() }
func (s *sharedSlot) unlockExclusive() { s.lock.unlockExclusive() }
func (s *sharedSlot) unlockUpgradable() { s.lock.unlockUpgradable() }
