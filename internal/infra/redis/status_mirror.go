package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-quiz-server/internal/domain"
)

// StatusMirror copies rendered status snapshots into Redis so external
// dashboards can read it. Nothing is read back; the server keeps no state
// across restarts. Every Redis round trip is bounded by timeout.
type StatusMirror struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

func NewStatusMirror(client *redis.Client, prefix string, ttl, timeout time.Duration) *StatusMirror {
	if prefix == "" {
		prefix = "trivia"
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	return &StatusMirror{client: client, prefix: prefix, ttl: ttl, timeout: timeout}
}

// Run writes snapshots from updates until the channel is closed or ctx is
// done. It runs beside the publisher, never inside a render, so a slow Redis
// only delays the mirror. When writes fall behind, only the newest pending
// snapshot is written.
func (m *StatusMirror) Run(ctx context.Context, updates <-chan domain.Status, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-updates:
			if !ok {
				return
			}
			status, open := newest(updates, status)
			if err := m.Render(ctx, status); err != nil {
				logger.Warn("redis mirror failed", "err", err)
			}
			if !open {
				return
			}
		}
	}
}

// newest drains updates without blocking and reports whether the channel is still open.
func newest(updates <-chan domain.Status, status domain.Status) (domain.Status, bool) {
	for {
		select {
		case next, ok := <-updates:
			if !ok {
				return status, false
			}
			status = next
		default:
			return status, true
		}
	}
}

// Reset removes keys left behind by a previous run.
func (m *StatusMirror) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var keys []string
	iter := m.client.Scan(ctx, 0, m.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %s keys: %w", m.prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := m.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete %s keys: %w", m.prefix, err)
	}
	return nil
}

// Render writes one snapshot in a single transaction.
func (m *StatusMirror) Render(ctx context.Context, status domain.Status) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	_, err = m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, m.StatusKey(), payload, m.ttl)

		online := m.OnlineKey()
		pipe.Del(ctx, online)
		if len(status.Players) > 0 {
			members := make([]any, len(status.Players))
			for i, player := range status.Players {
				members[i] = player.Nickname
			}
			pipe.SAdd(ctx, online, members...)
			m.expire(ctx, pipe, online)
		}

		for _, board := range status.Leaderboards {
			key := m.LeaderboardKey(board.Topic)
			pipe.Del(ctx, key)
			if len(board.Entries) == 0 {
				continue
			}
			values := make([]any, len(board.Entries))
			for i, entry := range board.Entries {
				values[i] = entry.Nickname + ":" + strconv.Itoa(entry.Score)
			}
			pipe.RPush(ctx, key, values...)
			m.expire(ctx, pipe, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror status: %w", err)
	}
	return nil
}

func (m *StatusMirror) StatusKey() string {
	return m.prefix + ":status"
}

func (m *StatusMirror) OnlineKey() string {
	return m.prefix + ":online"
}

func (m *StatusMirror) LeaderboardKey(topic string) string {
	return m.prefix + ":leaderboard:" + topic
}

func (m *StatusMirror) expire(ctx context.Context, pipe redis.Pipeliner, key string) {
	if m.ttl > 0 {
		pipe.Expire(ctx, key, m.ttl)
	}
}
