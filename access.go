package genref

import "sync/atomic"

// access is the locking protocol every allocation record supports. The try
// methods never block. The unlock methods, downgrade and tryUpgrade panic when
// the lock is not in the state they require.
type access interface {
	tryLockShared() bool
	tryLockExclusive() bool
	tryLockUpgradable() bool

	// tryUpgrade turns the caller's upgradable lock into the exclusive lock
	// if no other reader remains. On failure the state is unchanged.
	tryUpgrade() bool

	// tryIntoExclusive turns the caller's shared lock into the exclusive lock
	// if it is the only holder. On failure the caller still holds its shared
	// lock.
	tryIntoExclusive() bool

	downgrade()
	unlockShared()
	unlockExclusive()
	unlockUpgradable()
}

//
// local lock state
//

// lockState is the lock of a goroutine confined slot. 0 is unlocked, -1 is
// exclusively locked and a positive value is twice the number of shared
// holders plus one if a holder has marked itself upgradable.
type lockState int32

const (
	lockFree      lockState = 0
	lockWriter    lockState = -1
	lockOneReader lockState = 2
	lockUpgrade   lockState = 1
)

func (l *lockState) tryLockShared() bool {
	if *l < 0 {
		return false
	}
	*l += lockOneReader
	return true
}

func (l *lockState) tryLockExclusive() bool {
	if *l != lockFree {
		return false
	}
	*l = lockWriter
	return true
}

func (l *lockState) tryLockUpgradable() bool {
	if *l < 0 || *l&lockUpgrade != 0 {
		return false
	}
	*l |= lockUpgrade
	return true
}

func (l *lockState) tryUpgrade() bool {
	if *l < 0 || *l&lockUpgrade == 0 {
		panic("genref: upgrade without an upgradable lock")
	}
	if *l != lockUpgrade {
		return false
	}
	*l = lockWriter
	return true
}

func (l *lockState) tryIntoExclusive() bool {
	if *l != lockOneReader {
		return false
	}
	*l = lockWriter
	return true
}

func (l *lockState) downgrade() {
	if *l != lockWriter {
		panic("genref: downgrade of a lock that is not exclusive")
	}
	*l = lockOneReader
}

func (l *lockState) unlockShared() {
	switch {
	case *l < 0:
		panic("genref: unlock shared on an exclusive lock")
	case *l < lockOneReader:
		panic("genref: unlock shared on a lock with no readers")
	}
	*l -= lockOneReader
}

func (l *lockState) unlockExclusive() {
	switch {
	case *l > 0:
		panic("genref: unlock exclusive on a shared lock")
	case *l == lockFree:
		panic("genref: unlock exclusive on an unlocked lock")
	}
	*l = lockFree
}

func (l *lockState) unlockUpgradable() {
	if *l < 0 || *l&lockUpgrade == 0 {
		panic("genref: unlock upgradable without an upgradable lock")
	}
	*l &^= lockUpgrade
}

// readers returns the number of plain shared holders, whether one holder is
// upgradable and whether the lock is exclusive.
func (l lockState) readers() (n int32, upgradable, exclusive bool) {
	if l < 0 {
		return 0, false, true
	}
	return int32(l / 2), l&lockUpgrade != 0, false
}

// replay acquires on rw the same set of locks currently represented by l, so
// that every holder of l can later release through rw.
func (l lockState) replay(rw *rwLock) {
	n, upgradable, exclusive := l.readers()
	if exclusive {
		rw.lockExclusive()
		return
	}
	for i := int32(0); i < n; i++ {
		rw.lockShared()
	}
	if upgradable {
		rw.lockUpgradable()
	}
}

//
// shared lock state
//

const (
	rwWriter     = 1 << 0
	rwUpgradable = 1 << 1
	rwReader     = 1 << 2
)

// rwLock is the lock of a slot that may be used from many goroutines. The
// state word holds the reader count shifted by two, an upgradable bit and a
// writer bit. The upgradable holder is also counted as a reader.
type rwLock struct {
	state atomic.Uint64
}

func (l *rwLock) tryLockShared() bool {
	for {
		s := l.state.Load()
		if s&rwWriter != 0 {
			return false
		}
		if l.state.CompareAndSwap(s, s+rwReader) {
			return true
		}
	}
}

func (l *rwLock) tryLockExclusive() bool {
	return l.state.CompareAndSwap(0, rwWriter)
}

func (l *rwLock) tryLockUpgradable() bool {
	for {
		s := l.state.Load()
		if s&(rwWriter|rwUpgradable) != 0 {
			return false
		}
		if l.state.CompareAndSwap(s, s+rwReader+rwUpgradable) {
			return true
		}
	}
}

func (l *rwLock) tryUpgrade() bool {
	if l.state.CompareAndSwap(rwReader|rwUpgradable, rwWriter) {
		return true
	}
	if s := l.state.Load(); s&rwUpgradable == 0 {
		panic("genref: upgrade without an upgradable lock")
	}
	return false
}

func (l *rwLock) tryIntoExclusive() bool {
	if !l.tryLockUpgradable() {
		return false
	}
	l.unlockShared()
	if l.tryUpgrade() {
		return true
	}
	// we still hold the upgradable lock, so no writer can have slipped in.
	if !l.tryLockShared() {
		panic("genref: failed to relock after a failed upgrade")
	}
	l.unlockUpgradable()
	return false
}

func (l *rwLock) downgrade() {
	if !l.state.CompareAndSwap(rwWriter, rwReader) {
		panic("genref: downgrade of a lock that is not exclusive")
	}
}

func (l *rwLock) unlockShared() {
	for {
		s := l.state.Load()
		need := uint64(1)
		if s&rwUpgradable != 0 {
			need++
		}
		switch {
		case s&rwWriter != 0:
			panic("genref: unlock shared on an exclusive lock")
		case s>>2 < need:
			panic("genref: unlock shared on a lock with no readers")
		}
		if l.state.CompareAndSwap(s, s-rwReader) {
			return
		}
	}
}

func (l *rwLock) unlockExclusive() {
	if !l.state.CompareAndSwap(rwWriter, 0) {
		if l.state.Load() == 0 {
			panic("genref: unlock exclusive on an unlocked lock")
		}
		panic("genref: unlock exclusive on a shared lock")
	}
}

func (l *rwLock) unlockUpgradable() {
	for {
		s := l.state.Load()
		if s&rwWriter != 0 || s&rwUpgradable == 0 {
			panic("genref: unlock upgradable without an upgradable lock")
		}
		if l.state.CompareAndSwap(s, s-rwReader-rwUpgradable) {
			return
		}
	}
}

// lockShared, lockExclusive and lockUpgradable are only used while replaying
// a local lock onto a freshly minted rwLock, where they can not contend.

func (l *rwLock) lockShared() {
	if !l.tryLockShared() {
		panic("genref: failed to share lock a fresh shared slot")
	}
}

func (l *rwLock) lockExclusive() {
	if !l.tryLockExclusive() {
		panic("genref: failed to exclusive lock a fresh shared slot")
	}
}

func (l *rwLock) lockUpgradable() {
	if !l.tryLockUpgradable() {
		panic("genref: failed to upgradable lock a fresh shared slot")
	}
}
