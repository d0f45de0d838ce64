package artifact

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/minionmesh/core"
)

var (
	_ core.ArtifactStore = (*InMemoryStore)(nil)
	_ core.ArtifactStore = (*DirStore)(nil)
)

func stores(t *testing.T) map[string]core.ArtifactStore {
	t.Helper()
	dir, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("dir store: %v", err)
	}
	return map[string]core.ArtifactStore{"memory": NewInMemoryStore(), "dir": dir}
}

func TestStore_SaveGetIsolation(t *testing.T) {
	for name, svc := range stores(t) {
		t.Run(name, func(t *testing.T) {
			data := []byte("hello")
			if err := svc.Save("m1", "a1", data); err != nil {
				t.Fatalf("save: %v", err)
			}
			data[0] = 'H'

			out, err := svc.Get("m1", "a1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(out) != "hello" {
				t.Fatalf("expected 'hello', got %q", string(out))
			}

			out[0] = 'x'
			out2, _ := svc.Get("m1", "a1")
			if string(out2) != "hello" {
				t.Fatalf("expected isolation, got %q", string(out2))
			}
		})
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	for name, svc := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"b", "a"} {
				if err := svc.Save("m1", id, []byte(id)); err != nil {
					t.Fatal(err)
				}
			}

			ids, err := svc.List("m1")
			if err != nil {
				t.Fatal(err)
			}
			if fmt.Sprint(ids) != "[a b]" {
				t.Fatalf("expected sorted [a b], got %v", ids)
			}

			if err := svc.Delete("m1", "a"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := svc.Get("m1", "a"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if err := svc.Delete("m1", "a"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on second delete, got %v", err)
			}

			empty, err := svc.List("unknown")
			if err != nil || len(empty) != 0 {
				t.Fatalf("expected empty list for unknown match, got %v (%v)", empty, err)
			}
		})
	}
}

func TestStore_RejectsInvalidNames(t *testing.T) {
	for name, svc := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, bad := range [][2]string{{"", "a"}, {"m", ""}, {"m", "../escape"}, {"..", "a"}, {`m\x`, "a"}} {
				if err := svc.Save(bad[0], bad[1], nil); !errors.Is(err, ErrInvalidName) {
					t.Fatalf("save(%q, %q): expected ErrInvalidName, got %v", bad[0], bad[1], err)
				}
			}
		})
	}
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	svc := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = svc.Save("m", fmt.Sprintf("a%d", i), []byte{byte(i)})
		}(i)
	}
	wg.Wait()

	ids, _ := svc.List("m")
	if len(ids) != 50 {
		t.Fatalf("expected 50 artifacts, got %d", len(ids))
	}
}

func TestTranscript_RoundTrip(t *testing.T) {
	svc := NewInMemoryStore()

	stale := core.NewResolvedEvent("m1", core.ResolvedRound{Round: 0})
	reset := core.NewEvent("m1", core.EventMatchReset, 0)
	r0 := core.NewResolvedEvent("m1", core.ResolvedRound{
		Round:          0,
		Decisions:      []core.Decision{{AgentID: 0, Move: core.MoveRight}},
		FinalPositions: map[core.AgentID]core.Position{0: core.Pos(0, 1)},
		Collected:      map[core.AgentID]core.ItemKind{0: 2},
	})
	r1 := core.NewResolvedEvent("m1", core.ResolvedRound{Round: 1})
	done := core.NewFinishedEvent("m1", core.Outcome{Finished: true, Winner: 0, Rounds: 2})

	events := []core.Event{stale, reset, core.NewEvent("m1", core.EventRoundStarted, 0), r0, r1, done}
	if err := SaveTranscript(svc, "m1", events); err != nil {
		t.Fatalf("save transcript: %v", err)
	}

	got, err := LoadTranscript(svc, "m1")
	if err != nil {
		t.Fatalf("load transcript: %v", err)
	}
	if got.MatchID != "m1" || len(got.Rounds) != 2 {
		t.Fatalf("unexpected transcript: %+v", got)
	}
	if got.Rounds[0].Decisions[0].Move != core.MoveRight {
		t.Fatalf("expected move right, got %s", got.Rounds[0].Decisions[0].Move)
	}
	if got.Rounds[0].Collected[0] != 2 {
		t.Fatalf("expected collected kind 2, got %v", got.Rounds[0].Collected)
	}
	if !got.Outcome.Finished || got.Outcome.Rounds != 2 {
		t.Fatalf("unexpected outcome: %+v", got.Outcome)
	}

	if _, err := LoadTranscript(svc, "other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
