package app_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"trivia-quiz-server/internal/app"
	"trivia-quiz-server/internal/domain"
)

func TestPlayScoresAndRanks(t *testing.T) {
	ctx := context.Background()
	service := newTestService(2)

	if err := service.Login(ctx, 0, "Ann"); err != nil {
		t.Fatalf("login: %v", err)
	}
	play, err := service.StartTopic(ctx, 0, 0)
	if err != nil {
		t.Fatalf("start topic: %v", err)
	}
	answers := []string{"paris", "ROME", "Barcelona", "tokyo!", "Cusco"}
	for q, answer := range answers {
		service.SubmitAnswer(ctx, play, q, answer)
	}
	service.FinishTopic(ctx, play)

	if err := service.Login(ctx, 1, "Bo"); err != nil {
		t.Fatalf("login: %v", err)
	}
	play, _ = service.StartTopic(ctx, 1, 0)
	for q, answer := range []string{"Paris", "Rome", "Madrid", "Tokyo", "Lima"} {
		if !service.SubmitAnswer(ctx, play, q, answer) {
			t.Fatalf("expected %q to be correct", answer)
		}
	}
	service.FinishTopic(ctx, play)

	lb := service.Report()[0]
	if len(lb.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", lb.Entries)
	}
	if lb.Entries[0].Nickname != "Bo" || lb.Entries[0].Score != 5 {
		t.Fatalf("expected Bo leading with 5, got %+v", lb.Entries[0])
	}
	if lb.Entries[1].Nickname != "Ann" || lb.Entries[1].Score != 3 || !lb.Entries[1].Finished {
		t.Fatalf("expected Ann finished with 3, got %+v", lb.Entries[1])
	}
}

func TestTieBreakByFinishTime(t *testing.T) {
	ctx := context.Background()
	service := newTestService(2)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	service.SetClock(func() time.Time { return clock })

	_ = service.Login(ctx, 0, "Cy")
	_ = service.Login(ctx, 1, "Dee")
	cy, _ := service.StartTopic(ctx, 0, 1)
	dee, _ := service.StartTopic(ctx, 1, 1)

	answers := []string{"Au", "Fe", "Ag", "Pb", "wrong"}
	for q, answer := range answers {
		service.SubmitAnswer(ctx, dee, q, answer)
		service.SubmitAnswer(ctx, cy, q, answer)
	}
	service.FinishTopic(ctx, cy)
	clock = clock.Add(2 * time.Second)
	service.FinishTopic(ctx, dee)

	lb := service.Report()[1]
	if lb.Entries[0].Nickname != "Cy" || lb.Entries[1].Nickname != "Dee" {
		t.Fatalf("expected Cy above Dee, got %+v", lb.Entries)
	}
}

func TestLeaveRemovesEveryEntryOfPlayer(t *testing.T) {
	ctx := context.Background()
	service := newTestService(2)

	_ = service.Login(ctx, 0, "Ann")
	_ = service.Login(ctx, 1, "Bo")
	for topic := 0; topic < 2; topic++ {
		play, _ := service.StartTopic(ctx, 0, topic)
		service.SubmitAnswer(ctx, play, 0, service.Question(play, 0).Answer)
		service.FinishTopic(ctx, play)
		other, _ := service.StartTopic(ctx, 1, topic)
		service.FinishTopic(ctx, other)
	}

	service.Leave(ctx, 0)

	for _, lb := range service.Report() {
		if len(lb.Entries) != 1 || lb.Entries[0].Nickname != "Bo" {
			t.Fatalf("expected only Bo on %s, got %+v", lb.Topic, lb.Entries)
		}
	}
	if service.Players().IsNicknameTaken("Ann", -1) {
		t.Fatalf("expected Ann's seat to be free")
	}
}

func TestStartTopicReplacesPreviousEntry(t *testing.T) {
	ctx := context.Background()
	service := newTestService(1)
	_ = service.Login(ctx, 0, "Ann")

	first, _ := service.StartTopic(ctx, 0, 0)
	service.SubmitAnswer(ctx, first, 0, "Paris")
	service.FinishTopic(ctx, first)
	if _, err := service.StartTopic(ctx, 0, 0); err != nil {
		t.Fatalf("restart topic: %v", err)
	}

	lb := service.Report()[0]
	if len(lb.Entries) != 1 || lb.Entries[0].Score != 0 || lb.Entries[0].Finished {
		t.Fatalf("expected a single fresh entry, got %+v", lb.Entries)
	}
}

func TestStartTopicRequiresLoginAndValidTopic(t *testing.T) {
	ctx := context.Background()
	service := newTestService(1)

	if _, err := service.StartTopic(ctx, 0, 0); !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected participant error, got %v", err)
	}
	_ = service.Login(ctx, 0, "Ann")
	if _, err := service.StartTopic(ctx, 0, 9); !errors.Is(err, domain.ErrTopicNotFound) {
		t.Fatalf("expected topic error, got %v", err)
	}
}

func TestStatusShowsRosterAndProgress(t *testing.T) {
	ctx := context.Background()
	service := newTestService(2)
	_ = service.Login(ctx, 1, "Ann")
	play, _ := service.StartTopic(ctx, 1, 1)
	service.SubmitAnswer(ctx, play, 0, "au")

	status := service.Status()
	if len(status.Topics) != 2 || status.QuestionsPerTopic != 5 {
		t.Fatalf("unexpected topics %+v / %d", status.Topics, status.QuestionsPerTopic)
	}
	if len(status.Players) != 1 {
		t.Fatalf("expected one online player, got %+v", status.Players)
	}
	ann := status.Players[0]
	if ann.ActiveTopic != "science" || len(ann.Progress) != 1 || ann.Progress[0].Score != 1 || ann.Progress[0].Finished {
		t.Fatalf("unexpected progress %+v", ann)
	}
}

func TestNicknameReusedDuringLeaveKeepsNewEntry(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		service := newTestService(2)
		if err := service.Login(ctx, 0, "Ann"); err != nil {
			t.Fatalf("login: %v", err)
		}
		if _, err := service.StartTopic(ctx, 0, 0); err != nil {
			t.Fatalf("start topic: %v", err)
		}

		left := make(chan struct{})
		go func() {
			service.Leave(ctx, 0)
			close(left)
		}()

		// Log in again as soon as the nickname is released.
		for service.Login(ctx, 1, "Ann") != nil {
			runtime.Gosched()
		}
		play, err := service.StartTopic(ctx, 1, 0)
		if err != nil {
			t.Fatalf("start topic again: %v", err)
		}
		if !service.SubmitAnswer(ctx, play, 0, "Paris") {
			t.Fatalf("expected correct answer")
		}
		<-left

		entries := service.Report()[0].Entries
		if len(entries) != 1 || entries[0].Nickname != "Ann" || entries[0].Score != 1 {
			t.Fatalf("run %d: new entry lost, got %+v", i, entries)
		}
	}
}

func newTestService(seats int) *app.QuizService {
	return app.NewQuizService(sampleTopics(5), app.NewRegistry(seats))
}
