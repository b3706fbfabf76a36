package app_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"trivia-quiz-server/internal/app"
	"trivia-quiz-server/internal/domain"
)

type versionSource struct {
	version atomic.Int64
}

func (s *versionSource) Status() domain.Status {
	return domain.Status{QuestionsPerTopic: int(s.version.Load())}
}

type recordingSink struct {
	mu      sync.Mutex
	renders int
	last    int
}

func (s *recordingSink) Render(_ context.Context, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders++
	s.last = status.QuestionsPerTopic
	return nil
}

func (s *recordingSink) seen() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders, s.last
}

func TestRefreshWaitsForRenderOfOwnUpdate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &versionSource{}
	sink := &recordingSink{}
	publisher := app.NewPublisher(source, discardLogger(), sink)
	go publisher.Run(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				mine := source.version.Add(1)
				publisher.Refresh(ctx)
				if _, last := sink.seen(); int64(last) < mine {
					t.Errorf("render %d does not reflect update %d", last, mine)
					return
				}
			}
		}()
	}
	wg.Wait()

	renders, _ := sink.seen()
	if renders < 2 {
		t.Fatalf("expected renders to happen, got %d", renders)
	}
}

func TestRefreshReturnsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	publisher := app.NewPublisher(&versionSource{}, discardLogger())
	cancel()

	done := make(chan struct{})
	go func() {
		publisher.Refresh(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("refresh blocked on a stopped publisher")
	}
}

func TestSubscribeReceivesRenders(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &versionSource{}
	publisher := app.NewPublisher(source, discardLogger())
	updates, unsubscribe := publisher.Subscribe()
	defer unsubscribe()

	go publisher.Run(ctx)
	<-updates // startup render

	source.version.Store(7)
	publisher.Refresh(ctx)

	select {
	case status := <-updates:
		if status.QuestionsPerTopic != 7 {
			t.Fatalf("expected version 7, got %d", status.QuestionsPerTopic)
		}
	case <-time.After(time.Second):
		t.Fatalf("no update received")
	}
	if latest, ok := publisher.Latest(); !ok || latest.QuestionsPerTopic != 7 {
		t.Fatalf("expected latest snapshot 7, got %+v ok=%v", latest, ok)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
