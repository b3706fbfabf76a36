package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-quiz-server/internal/domain"
)

func newMirror(t *testing.T) (*StatusMirror, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStatusMirror(client, "quiz", time.Minute, time.Second), mr
}

func TestRenderMirrorsSnapshot(t *testing.T) {
	mirror, mr := newMirror(t)

	status := domain.Status{
		Topics:            []string{"geography"},
		QuestionsPerTopic: 5,
		Players:           []domain.OnlinePlayer{{Nickname: "Ann"}, {Nickname: "Bo"}},
		Leaderboards: []domain.Leaderboard{{
			Topic: "geography",
			Entries: []domain.LeaderboardEntry{
				{Nickname: "Bo", Score: 5, Finished: true},
				{Nickname: "Ann", Score: 3},
			},
		}},
	}
	if err := mirror.Render(context.Background(), status); err != nil {
		t.Fatalf("render: %v", err)
	}

	raw, err := mr.Get("quiz:status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	var decoded domain.Status
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if decoded.QuestionsPerTopic != 5 || len(decoded.Leaderboards) != 1 {
		t.Fatalf("unexpected status %+v", decoded)
	}

	members, err := mr.Members("quiz:online")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 online players, got %v", members)
	}

	list, err := mr.List("quiz:leaderboard:geography")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0] != "Bo:5" || list[1] != "Ann:3" {
		t.Fatalf("unexpected leaderboard %v", list)
	}
	if ttl := mr.TTL("quiz:leaderboard:geography"); ttl != time.Minute {
		t.Fatalf("expected ttl of one minute, got %s", ttl)
	}
}

func TestRenderReplacesPreviousSnapshot(t *testing.T) {
	mirror, mr := newMirror(t)
	ctx := context.Background()

	first := domain.Status{
		Players: []domain.OnlinePlayer{{Nickname: "Ann"}},
		Leaderboards: []domain.Leaderboard{{
			Topic:   "science",
			Entries: []domain.LeaderboardEntry{{Nickname: "Ann", Score: 2}},
		}},
	}
	if err := mirror.Render(ctx, first); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := mirror.Render(ctx, domain.Status{Leaderboards: []domain.Leaderboard{{Topic: "science"}}}); err != nil {
		t.Fatalf("render: %v", err)
	}

	if mr.Exists("quiz:online") {
		t.Fatalf("expected online set to be cleared")
	}
	if mr.Exists("quiz:leaderboard:science") {
		t.Fatalf("expected empty leaderboard to be removed")
	}
}

func TestResetRemovesOnlyPrefixedKeys(t *testing.T) {
	mirror, mr := newMirror(t)

	_ = mr.Set("quiz:status", "{}")
	_ = mr.Set("quiz:leaderboard:old", "x")
	_ = mr.Set("other:key", "keep")

	if err := mirror.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if mr.Exists("quiz:status") || mr.Exists("quiz:leaderboard:old") {
		t.Fatalf("expected prefixed keys to be removed")
	}
	if !mr.Exists("other:key") {
		t.Fatalf("expected unrelated key to survive")
	}
}
