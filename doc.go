// package genref provides generational references: an owning handle that can be
// aliased by cheap, copyable weak handles without reference counting.
//
// Every allocation is paired for life with a generation counter. A Weak
// remembers the generation it was created with, and is valid only while that
// generation is current. Dropping the Owned bumps the generation, which
// invalidates every Weak at once in O(1):
//
//	heap := global.NewHeap()
//	defer heap.Close()
//
//	owner := genref.New(heap, 42)
//	alias := owner.Alias()
//
//	if r, ok := alias.TryRead(); ok {
//		fmt.Println(r.Get()) // 42
//		r.Release()
//	}
//
//	owner.Drop()
//	_, ok := alias.TryRead() // ok == false
//
// Access to the payload goes through accessors. A Reading is a shared lock on
// the allocation and a Writing is an exclusive one; both are obtained with
// non-blocking Try calls and must be Released exactly once. Dropping the
// Owned while accessors are alive does not destroy the payload right away:
// the destruction is queued and runs when the last accessor is released.
// Payloads implementing Dropper have their Drop method called at that point.
//
// Counters live in two kinds of allocator domain. A Heap is confined to one
// goroutine and uses no synchronization at all. It keeps free slots per
// payload Layout, borrows batches of free slots from its Global when it runs
// out, and mints new ones from an arena otherwise. The Global is shared by
// every goroutine and backs allocations made with NewShared. Moving an
// allocation to another goroutine goes through Owned.Send or Weak.Send, which
// promote the counter to its shared form while keeping the current
// generation and any held locks.
//
// Slots are never freed. A counter whose generation reaches the maximum value
// is retired instead of reused, so a wrapped generation can never make a
// stale Weak look valid again.
package genref
