package history

import (
	"sync"
	"testing"
)

func TestCommandIDs_AdvancesOncePerCall(t *testing.T) {
	var ids CommandIDs
	for want := 0; want < 300; want++ {
		got := ids.Next()
		if got != CommandID(uint8(want)) {
			t.Fatalf("call %d: got id %d, want %d", want, got, uint8(want))
		}
	}
}

func TestCommandIDs_WrapsSilently(t *testing.T) {
	var ids CommandIDs
	for i := 0; i < 256; i++ {
		ids.Next()
	}
	if got := ids.Next(); got != 0 {
		t.Fatalf("after 256 ids, next should wrap to 0, got %d", got)
	}
}

func TestCommandIDs_ConcurrentCallers(t *testing.T) {
	var ids CommandIDs
	const goroutines = 8
	const perGoroutine = 32 // total 256: exactly one full cycle

	var mu sync.Mutex
	seen := make(map[CommandID]int)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]CommandID, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				local = append(local, ids.Next())
			}
			mu.Lock()
			for _, id := range local {
				seen[id]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != 256 {
		t.Fatalf("expected all 256 ids to be issued exactly once, got %d distinct", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("id %d issued %d times", id, n)
		}
	}
}
