package app

import (
	"sync"
	"time"

	"trivia-quiz-server/internal/domain"
)

// Entry is a player's score record in one topic. Its fields are guarded by the
// lock of the Leaderboard that owns it.
type Entry struct {
	nickname   string
	score      int
	finishedAt time.Time
	rank       int // position in Leaderboard.ranked, -1 once removed
}

func (e *Entry) finished() bool {
	return !e.finishedAt.IsZero()
}

// Leaderboard keeps the entries of one topic ordered by score descending and,
// among equal scores, by earlier finish time. Every method takes the board's
// own lock so unrelated topics never contend.
type Leaderboard struct {
	topic string

	mu     sync.Mutex
	ranked []*Entry // leader first; InsertAtFront appends at the lowest-ranked end
}

func NewLeaderboard(topic string) *Leaderboard {
	return &Leaderboard{topic: topic}
}

// Topic returns the name of the topic this board ranks.
func (b *Leaderboard) Topic() string {
	return b.topic
}

// InsertAtFront creates a zero-score entry for nickname at the lowest-ranked
// end of the board, where new players start.
func (b *Leaderboard) InsertAtFront(nickname string) *Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := &Entry{nickname: nickname, rank: len(b.ranked)}
	b.ranked = append(b.ranked, e)
	return e
}

// Award adds one point to e and promotes it. It returns the new score.
func (b *Leaderboard) Award(e *Entry) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e.rank < 0 {
		return e.score
	}
	e.score++
	b.promoteLocked(e, outranks)
	return e.score
}

// Promote moves e toward the leader past every neighbour it outranks. The cost
// is proportional to the number of positions moved.
func (b *Leaderboard) Promote(e *Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e.rank < 0 {
		return
	}
	b.promoteLocked(e, outranks)
}

// SettleOnFinish stamps e with its finish time and restores the finish-time
// tie-break among entries with the same score.
func (b *Leaderboard) SettleOnFinish(e *Entry, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e.rank < 0 {
		return
	}
	e.finishedAt = now
	b.riseLocked(e)
	b.sinkLocked(e)
}

// RemoveAllFor unlinks every entry recorded for nickname and reports how many
// were removed.
func (b *Leaderboard) RemoveAllFor(nickname string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.ranked[:0]
	removed := 0
	for _, e := range b.ranked {
		if e.nickname == nickname {
			e.rank = -1
			removed++
			continue
		}
		e.rank = len(kept)
		kept = append(kept, e)
	}
	for i := len(kept); i < len(b.ranked); i++ {
		b.ranked[i] = nil
	}
	b.ranked = kept
	return removed
}

// Snapshot copies the current ranking, leader first. The copy does not track
// later changes.
func (b *Leaderboard) Snapshot() domain.Leaderboard {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]domain.LeaderboardEntry, 0, len(b.ranked))
	for _, e := range b.ranked {
		entries = append(entries, domain.LeaderboardEntry{
			Nickname:   e.nickname,
			Score:      e.score,
			Finished:   e.finished(),
			FinishedAt: e.finishedAt,
		})
	}
	return domain.Leaderboard{Topic: b.topic, Entries: entries}
}

// Len returns the number of entries on the board.
func (b *Leaderboard) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ranked)
}

func (b *Leaderboard) promoteLocked(e *Entry, passes func(e, above *Entry) bool) {
	for i := e.rank; i > 0 && passes(e, b.ranked[i-1]); i-- {
		b.swapLocked(i, i-1)
	}
}

// riseLocked moves a freshly finished entry above every entry of equal score
// that finished after it, stepping over in-progress entries of that score.
func (b *Leaderboard) riseLocked(e *Entry) {
	target := e.rank
	for i := e.rank - 1; i >= 0 && b.ranked[i].score == e.score; i-- {
		if finishedEarlier(e, b.ranked[i]) {
			target = i
		}
	}
	for i := e.rank; i > target; i-- {
		b.swapLocked(i, i-1)
	}
}

// sinkLocked moves a freshly finished entry below every entry of equal score
// that finished before it. In-progress entries of the same score keep their
// relative order.
func (b *Leaderboard) sinkLocked(e *Entry) {
	target := e.rank
	for i := e.rank + 1; i < len(b.ranked) && b.ranked[i].score == e.score; i++ {
		other := b.ranked[i]
		if other.finished() && other.finishedAt.Before(e.finishedAt) {
			target = i
		}
	}
	for i := e.rank; i < target; i++ {
		b.swapLocked(i, i+1)
	}
}

func (b *Leaderboard) swapLocked(i, j int) {
	b.ranked[i], b.ranked[j] = b.ranked[j], b.ranked[i]
	b.ranked[i].rank = i
	b.ranked[j].rank = j
}

func outranks(e, above *Entry) bool {
	if e.score != above.score {
		return e.score > above.score
	}
	return finishedEarlier(e, above)
}

func finishedEarlier(e, above *Entry) bool {
	return e.score == above.score &&
		e.finished() && above.finished() &&
		e.finishedAt.Before(above.finishedAt)
}
