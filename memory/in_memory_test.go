package memory

import (
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryStore_StoreAndRecent(t *testing.T) {
	svc := NewInMemoryStore()

	for i := 0; i < 5; i++ {
		if _, err := svc.Store("m1", i, fmt.Sprintf("plan %d", i), map[string]any{"idx": i}); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}

	all := svc.Recent("m1", -1, 0)
	if len(all) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(all))
	}
	if all[0].Content != "plan 0" || all[4].Content != "plan 4" {
		t.Fatalf("expected oldest first, got %q..%q", all[0].Content, all[4].Content)
	}

	// only rounds before 3, newest two
	got := svc.Recent("m1", 3, 2)
	if len(got) != 2 || got[0].Round != 1 || got[1].Round != 2 {
		t.Fatalf("unexpected recent entries: %#v", got)
	}

	// metadata is copied out
	got[0].Metadata["idx"] = 99
	again := svc.Recent("m1", 3, 2)
	if again[0].Metadata["idx"] != 1 {
		t.Fatalf("expected copy isolation, got %#v", again[0].Metadata["idx"])
	}

	if len(svc.Recent("unknown", -1, 0)) != 0 {
		t.Fatalf("expected no entries for unknown key")
	}
}

func TestInMemoryStore_Capacity(t *testing.T) {
	svc := NewInMemoryStore(func(o *Options) { o.Capacity = 3 })

	for i := 0; i < 5; i++ {
		if _, err := svc.Store("m1", i, fmt.Sprintf("plan %d", i), nil); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}

	got := svc.Recent("m1", -1, 0)
	if len(got) != 3 || got[0].Content != "plan 2" {
		t.Fatalf("expected oldest entries evicted, got %#v", got)
	}
}

func TestInMemoryStore_SearchAndClear(t *testing.T) {
	svc := NewInMemoryStore()
	_, _ = svc.Store("m1", 0, "Hunt the Donut", nil)
	_, _ = svc.Store("m1", 1, "grab sushi", nil)
	_, _ = svc.Store("m1", 2, "more DONUTS", nil)

	res := svc.Search("m1", "donut", 10)
	if len(res) != 2 || res[0].Content != "more DONUTS" {
		t.Fatalf("expected newest donut match first, got %#v", res)
	}

	if res := svc.Search("m1", "", 1); len(res) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(res))
	}

	svc.Clear("m1")
	if res := svc.Search("m1", "", 10); len(res) != 0 {
		t.Fatalf("expected cleared store, got %d", len(res))
	}
}

func TestInMemoryStore_EmptyKey(t *testing.T) {
	svc := NewInMemoryStore()
	if _, err := svc.Store("", 0, "x", nil); err != ErrEmptyKey {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	svc := NewInMemoryStore(func(o *Options) { o.Capacity = 1000 })

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, _ = svc.Store("shared", i, fmt.Sprintf("w%d-%d", w, i), nil)
				_ = svc.Recent("shared", -1, 5)
			}
		}(w)
	}
	wg.Wait()

	if got := len(svc.Recent("shared", -1, 0)); got != 400 {
		t.Fatalf("expected 400 entries, got %d", got)
	}
}
