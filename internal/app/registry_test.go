package app_test

import (
	"errors"
	"sync"
	"testing"

	"trivia-quiz-server/internal/app"
	"trivia-quiz-server/internal/domain"
)

func TestBindRejectsDuplicateNickname(t *testing.T) {
	players := app.NewRegistry(2)

	if err := players.Bind(0, "Ann"); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := players.Bind(1, "Ann"); !errors.Is(err, domain.ErrNicknameTaken) {
		t.Fatalf("expected nickname taken, got %v", err)
	}
	if err := players.Bind(1, "  "); !errors.Is(err, domain.ErrInvalidNickname) {
		t.Fatalf("expected invalid nickname, got %v", err)
	}
	if err := players.Bind(5, "Bo"); !errors.Is(err, domain.ErrSlotNotFound) {
		t.Fatalf("expected slot error, got %v", err)
	}

	if got := players.Unbind(0); got != "Ann" {
		t.Fatalf("expected Ann unbound, got %q", got)
	}
	if err := players.Bind(1, "Ann"); err != nil {
		t.Fatalf("expected nickname free after unbind, got %v", err)
	}
}

func TestConcurrentLoginsWithSameNickname(t *testing.T) {
	const seats = 8
	players := app.NewRegistry(seats)

	var wg sync.WaitGroup
	results := make(chan error, seats)
	for slot := 0; slot < seats; slot++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results <- players.Bind(slot, "Ann")
		}(slot)
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
		} else if !errors.Is(err, domain.ErrNicknameTaken) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one successful login, got %d", ok)
	}
}

func TestActiveTopicTracking(t *testing.T) {
	players := app.NewRegistry(1)
	_ = players.Bind(0, "Ann")

	if _, ok := players.FindActiveTopic(0); ok {
		t.Fatalf("expected no active topic after login")
	}
	players.SetActiveTopic(0, 2)
	if topic, ok := players.FindActiveTopic(0); !ok || topic != 2 {
		t.Fatalf("expected topic 2, got %d ok=%v", topic, ok)
	}
	online := players.Online()
	if len(online) != 1 || online[0].ActiveTopic != 2 {
		t.Fatalf("expected Ann playing topic 2, got %+v", online)
	}
	players.ClearActiveTopic(0)
	if _, ok := players.FindActiveTopic(0); ok {
		t.Fatalf("expected active topic cleared")
	}
}
