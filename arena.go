package genref

// arena mints slots out of chunks that are never resized, so the address of a
// minted slot never changes. Each new chunk is half again as large as the
// previous one, up to max.
type arena[S any] struct {
	chunk  []S
	next   int
	size   int
	max    int
	minted int
	chunks int
}

func newArena[S any](size, max int) arena[S] {
	if size > max {
		size = max
	}
	return arena[S]{size: size, max: max}
}

// mint returns a fresh slot and whether a new chunk had to be allocated for
// it.
func (a *arena[S]) mint() (s *S, grew bool) {
	if a.next == len(a.chunk) {
		a.chunk = make([]S, a.size)
		a.next = 0
		a.chunks++
		grew = true

		if a.size += a.size / 2; a.size < 2 {
			a.size = 2
		}
		if a.size > a.max {
			a.size = a.max
		}
	}
	s = &a.chunk[a.next]
	a.next++
	a.minted++
	return s, grew
}
