package genref

import (
	"testing"

	"github.com/zeebo/assert"
)

func TestOwnedScenario(t *testing.T) {
	h := newTestHeap(t)

	o := New(h, 42)
	w := o.Alias()
	assert.That(t, w.Valid())
	assert.Equal(t, w.Generation(), o.Generation())

	r, ok := w.TryRead()
	assert.That(t, ok)
	assert.Equal(t, r.Get(), 42)
	r.Release()

	wr, ok := o.TryWrite()
	assert.That(t, ok)
	wr.Set(43)
	wr.Release()

	r, ok = w.TryRead()
	assert.That(t, ok)
	assert.Equal(t, *r.Value(), 43)
	r.Release()

	o.Drop()
	assert.That(t, !o.Valid())
	assert.That(t, !w.Valid())
	_, ok = w.TryRead()
	assert.That(t, !ok)
	_, ok = w.TryWrite()
	assert.That(t, !ok)

	// dropping twice does nothing.
	o.Drop()
	assertPanics(t, func() { o.TryRead() })
}

func TestWeakZero(t *testing.T) {
	var w Weak[int]
	assert.That(t, !w.Valid())
	_, ok := w.TryRead()
	assert.That(t, !ok)
	_, ok = w.TryWrite()
	assert.That(t, !ok)
}

func TestAccessExclusion(t *testing.T) {
	h := newTestHeap(t)
	o := New(h, 1)
	w := o.Alias()

	r1, ok := o.TryRead()
	assert.That(t, ok)
	r2, ok := w.TryRead()
	assert.That(t, ok)

	_, ok = w.TryWrite()
	assert.That(t, !ok)
	_, ok = o.TryWrite()
	assert.That(t, !ok)
	assert.Equal(t, h.Stats().Guards, 2)

	r1.Release()
	r2.Release()

	wr, ok := w.TryWrite()
	assert.That(t, ok)
	_, ok = o.TryRead()
	assert.That(t, !ok)
	_, ok = w.TryWrite()
	assert.That(t, !ok)
	wr.Release()
	assert.Equal(t, h.Stats().Guards, 0)
}

func TestAccessorReleaseTwice(t *testing.T) {
	h := newTestHeap(t)
	o := New(h, 1)

	r, _ := o.TryRead()
	r.Release()
	assertPanics(t, r.Release)
	assertPanics(t, func() { r.Get() })

	wr, _ := o.TryWrite()
	wr.Release()
	assertPanics(t, wr.Release)
	assertPanics(t, func() { wr.Set(2) })
}

func TestDeferredDrop(t *testing.T) {
	t.Run("Reading", func(t *testing.T) {
		h := newTestHeap(t)
		l := LayoutOf[dropCounter]()
		drops := 0

		o := New(h, dropCounter{&drops})
		w := o.Alias()
		r1, ok := o.TryRead()
		assert.That(t, ok)
		r2 := r1.Clone()

		o.Drop()
		assert.That(t, !w.Valid())
		assert.Equal(t, drops, 0)
		assert.Equal(t, h.Stats().DeferredDrops[l], 1)
		assert.Equal(t, h.Stats().BoundBytes(), int(l.Size))

		// the payload is still readable through the live accessors.
		assert.That(t, r2.Get().drops == &drops)

		r1.Release()
		assert.Equal(t, drops, 0)
		r2.Release()
		assert.Equal(t, drops, 1)

		st := h.Stats()
		assert.Equal(t, st.BoundObjects(), 0)
		assert.Equal(t, st.FreeSlots[l], 1)
	})

	t.Run("Writing", func(t *testing.T) {
		h := newTestHeap(t)
		drops := 0

		o := New(h, dropCounter{&drops})
		wr, ok := o.Alias().TryWrite()
		assert.That(t, ok)

		o.Drop()
		assert.Equal(t, drops, 0)
		wr.Release()
		assert.Equal(t, drops, 1)
		assert.Equal(t, h.Stats().FreeObjects(), 1)
	})

	t.Run("Immediate", func(t *testing.T) {
		h := newTestHeap(t)
		drops := 0

		New(h, dropCounter{&drops}).Drop()
		assert.Equal(t, drops, 1)
		assert.Equal(t, h.Stats().BoundObjects(), 0)
	})

	t.Run("PointerReceiver", func(t *testing.T) {
		h := newTestHeap(t)
		drops := 0

		o := New(h, pointerDropper{drops: &drops})
		r, _ := o.TryRead()
		p := r.Value()
		o.Drop()
		assert.That(t, !p.dropped)
		r.Release()
		assert.Equal(t, drops, 1)

		// the payload storage is cleared after the destructor ran.
		assert.That(t, !p.dropped)
		assert.That(t, p.drops == nil)
	})
}

type pointerDropper struct {
	dropped bool
	drops   *int
}

func (p *pointerDropper) Drop() {
	p.dropped = true
	*p.drops++
}

// TestDeferredDropTransient covers a lock taken by a Weak that passed its
// validity check just before the owner was dropped. If that lock outlives
// every accessor, its release runs the drop.
func TestDeferredDropTransient(t *testing.T) {
	h := newTestHeap(t)
	drops := 0

	o := New(h, dropCounter{&drops})
	w := o.Alias()
	r, _ := o.TryRead()

	assert.That(t, w.rec.tryLockShared())
	o.Drop()

	r.Release()
	assert.Equal(t, drops, 0)
	assert.Equal(t, h.Stats().BoundObjects(), 1)

	release(w.rec, w.gen, false)
	assert.Equal(t, drops, 1)
	assert.Equal(t, h.Stats().BoundObjects(), 0)
	assert.Equal(t, h.Stats().FreeObjects(), 1)
}

func TestInvalidation(t *testing.T) {
	h := newTestHeap(t)

	o := New(h, 0)
	var aliases []Weak[int]
	for i := 0; i < 100; i++ {
		aliases = append(aliases, o.Alias())
	}
	o.Drop()

	// every alias is invalid, even once the slot is reused.
	o = New(h, 1)
	for _, w := range aliases {
		assert.That(t, !w.Valid())
		_, ok := w.TryRead()
		assert.That(t, !ok)
	}
	assert.That(t, o.Alias().Valid())
}

func TestTryIntoInner(t *testing.T) {
	h := newTestHeap(t)
	drops := 0

	o := New(h, dropCounter{&drops})
	w := o.Alias()
	r, _ := w.TryRead()

	_, ok := o.TryIntoInner()
	assert.That(t, !ok)
	assert.That(t, o.Valid())
	assert.That(t, w.Valid())
	r.Release()

	v, ok := o.TryIntoInner()
	assert.That(t, ok)
	assert.That(t, v.drops == &drops)
	assert.Equal(t, drops, 0)
	assert.That(t, !o.Valid())
	assert.That(t, !w.Valid())
	assert.Equal(t, h.Stats().FreeObjects(), 1)
}

func TestUpgradeDowngrade(t *testing.T) {
	h := newTestHeap(t)
	o := New(h, 1)

	r, _ := o.TryRead()
	r2 := r.Clone()

	_, ok := r.TryUpgrade()
	assert.That(t, !ok)
	r2.Release()

	wr, ok := r.TryUpgrade()
	assert.That(t, ok)
	assertPanics(t, r.Release)
	_, ok = o.TryRead()
	assert.That(t, !ok)
	wr.Set(5)

	rd := wr.Downgrade()
	assertPanics(t, wr.Release)
	assert.Equal(t, rd.Get(), 5)

	// downgraded: other readers are allowed again.
	r3, ok := o.TryRead()
	assert.That(t, ok)
	r3.Release()
	rd.Release()

	assert.Equal(t, h.Stats().Guards, 0)
	wr, ok = o.TryWrite()
	assert.That(t, ok)
	wr.Release()
}

func TestUpgradeAfterDrop(t *testing.T) {
	h := newTestHeap(t)
	drops := 0

	o := New(h, dropCounter{&drops})
	r, _ := o.TryRead()
	o.Drop()

	wr, ok := r.TryUpgrade()
	assert.That(t, ok)
	rd := wr.Downgrade()
	assert.Equal(t, drops, 0)
	rd.Release()
	assert.Equal(t, drops, 1)
}
