package genref

import (
	"testing"

	"github.com/zeebo/assert"
)

func TestDropQueue(t *testing.T) {
	l := LayoutOf[int]()
	q := newDropQueue()

	var a, b localSlot
	a.gen.Store(countInit)
	b.gen.Store(countInit)

	ran := 0
	d := deferred{layout: l, destroy: func() { ran++ }}
	q.push(&a, d)
	q.push(&b, d)
	assertPanics(t, func() { q.push(&a, d) })
	assert.Equal(t, q.stats()[l], 2)

	// locked records stay queued.
	assert.That(t, b.tryLockShared())
	records, ds := q.drain()
	assert.Equal(t, len(ds), 1)
	assert.That(t, records[0] == record(&a))
	assert.Equal(t, q.stats()[l], 1)

	_, ok := q.take(&b)
	assert.That(t, !ok)
	_, ok = q.take(&a)
	assert.That(t, !ok)

	// claim does not care about the lock, the caller already holds it.
	_, ok = q.claim(&b)
	assert.That(t, ok)
	assert.Equal(t, len(q.stats()), 0)
	assert.Equal(t, ran, 0)
}
