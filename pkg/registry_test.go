package pkg

import (
	"sync"
	"testing"
)

func TestRegistryAddRemove(t *testing.T) {
	r := newRegistry()
	a := newFakeConn("a")
	b := newFakeConn("b")

	if !r.empty() {
		t.Fatal("new registry is not empty")
	}

	r.add(a)
	r.add(b)
	if r.size() != 2 {
		t.Fatalf("size: got %d, want 2", r.size())
	}

	r.remove(a)
	if r.size() != 1 {
		t.Fatalf("size after remove: got %d, want 1", r.size())
	}

	// Removing a non-member is a no-op.
	r.remove(a)
	if r.size() != 1 {
		t.Fatalf("size after duplicate remove: got %d, want 1", r.size())
	}

	r.remove(b)
	if !r.empty() {
		t.Fatal("registry not empty after removing all members")
	}
}

func TestRegistryAddIsIdempotent(t *testing.T) {
	r := newRegistry()
	a := newFakeConn("a")

	r.add(a)
	r.add(a)
	if r.size() != 1 {
		t.Fatalf("size after duplicate add: got %d, want 1", r.size())
	}
}

func TestRegistrySnapshotIsStable(t *testing.T) {
	r := newRegistry()
	a := newFakeConn("a")
	b := newFakeConn("b")
	r.add(a)
	r.add(b)

	snap := r.snapshot()
	r.remove(a)
	r.remove(b)

	if len(snap) != 2 {
		t.Fatalf("snapshot mutated by concurrent removal: got %d, want 2", len(snap))
	}
}

func TestRegistryConcurrentMutation(t *testing.T) {
	r := newRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newFakeConn("c")
			r.add(c)
			for j := 0; j < 10; j++ {
				r.snapshot()
			}
			r.remove(c)
		}()
	}
	wg.Wait()

	if !r.empty() {
		t.Fatalf("size after concurrent add/remove: got %d, want 0", r.size())
	}
}
