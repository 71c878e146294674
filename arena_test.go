package genref

import (
	"fmt"
	"testing"

	"github.com/zeebo/assert"
)

func TestArena(t *testing.T) {
	a := newArena[localSlot](4, 10)

	var sizes []int
	seen := make(map[*localSlot]bool)
	for i := 0; i < 4+6+9+10+10; i++ {
		s, grew := a.mint()
		if grew {
			sizes = append(sizes, len(a.chunk))
		}
		assert.That(t, !seen[s])
		seen[s] = true

		// minted slots are zero until someone initializes them.
		assert.Equal(t, s.gen.Load(), countInvalid)
		assertPanics(t, func() { s.count() })
		s.gen.Store(countInit)
	}

	assert.Equal(t, fmt.Sprint(sizes), "[4 6 9 10 10]")
	assert.Equal(t, a.minted, len(seen))
	assert.Equal(t, a.chunks, 5)

	// earlier slots keep their values after later chunks were minted.
	for s := range seen {
		assert.Equal(t, s.gen.Load(), countInit)
	}
}

func TestArenaTiny(t *testing.T) {
	a := newArena[sharedSlot](1, 8)

	var sizes []int
	for i := 0; i < 1+2+3+4; i++ {
		if _, grew := a.mint(); grew {
			sizes = append(sizes, len(a.chunk))
		}
	}
	assert.Equal(t, fmt.Sprint(sizes), "[1 2 3 4]")
}
