package genref

import (
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/zeebo/assert"
)

// newTestGlobal returns a Global logging at debug level into a hook.
func newTestGlobal(t testing.TB) (*Global, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	cfg := DefaultConfig()
	cfg.Logger = logger

	g, err := NewGlobal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return g, hook
}

func newTestHeap(t testing.TB) *Heap {
	g, _ := newTestGlobal(t)
	return g.NewHeap()
}

func assertPanics(t *testing.T, fn func()) {
	t.Helper()
	defer func() { assert.That(t, recover() != nil) }()
	fn()
}

func hasEntry(hook *logtest.Hook, msg string) bool {
	for _, e := range hook.AllEntries() {
		if e.Message == msg {
			return true
		}
	}
	return false
}

// dropCounter counts how many times it was destroyed.
type dropCounter struct {
	drops *int
}

func (d dropCounter) Drop() { *d.drops++ }

// atomicDropCounter is a dropCounter safe to destroy from any goroutine.
type atomicDropCounter struct {
	drops *atomic.Int64
}

func (d atomicDropCounter) Drop() { d.drops.Add(1) }
