package app

import (
	"strings"
	"sync"

	"trivia-quiz-server/internal/domain"
)

const noTopic = -1

// PlayerSlot is a copy of one bound seat.
type PlayerSlot struct {
	Index       int
	Nickname    string
	ActiveTopic int // zero-based topic index, -1 when browsing
}

type playerSlot struct {
	nickname    string
	activeTopic int
}

// Registry owns the fixed set of player seats. One seat is bound to each
// connection for its lifetime; an empty nickname marks a free seat.
type Registry struct {
	mu    sync.Mutex
	slots []playerSlot
}

func NewRegistry(size int) *Registry {
	slots := make([]playerSlot, size)
	for i := range slots {
		slots[i].activeTopic = noTopic
	}
	return &Registry{slots: slots}
}

// Size returns the number of seats.
func (r *Registry) Size() int {
	return len(r.slots)
}

// Bind claims nickname for slot. The uniqueness check and the claim happen
// under one lock, so two concurrent logins with the same nickname cannot
// both succeed.
func (r *Registry) Bind(slot int, nickname string) error {
	if strings.TrimSpace(nickname) == "" {
		return domain.ErrInvalidNickname
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if slot < 0 || slot >= len(r.slots) {
		return domain.ErrSlotNotFound
	}
	if r.takenLocked(nickname, slot) {
		return domain.ErrNicknameTaken
	}
	r.slots[slot] = playerSlot{nickname: nickname, activeTopic: noTopic}
	return nil
}

// Unbind frees slot and returns the nickname it held.
func (r *Registry) Unbind(slot int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot < 0 || slot >= len(r.slots) {
		return ""
	}
	nickname := r.slots[slot].nickname
	r.slots[slot] = playerSlot{activeTopic: noTopic}
	return nickname
}

// IsNicknameTaken reports whether a seat other than except holds nickname.
func (r *Registry) IsNicknameTaken(nickname string, except int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.takenLocked(nickname, except)
}

// Nickname returns the nickname bound to slot, or "" for a free seat.
func (r *Registry) Nickname(slot int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot < 0 || slot >= len(r.slots) {
		return ""
	}
	return r.slots[slot].nickname
}

// SetActiveTopic marks slot as playing topic.
func (r *Registry) SetActiveTopic(slot, topic int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot >= 0 && slot < len(r.slots) {
		r.slots[slot].activeTopic = topic
	}
}

// ClearActiveTopic marks slot as browsing.
func (r *Registry) ClearActiveTopic(slot int) {
	r.SetActiveTopic(slot, noTopic)
}

// FindActiveTopic returns the topic slot is playing, if any.
func (r *Registry) FindActiveTopic(slot int) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot < 0 || slot >= len(r.slots) || r.slots[slot].activeTopic == noTopic {
		return 0, false
	}
	return r.slots[slot].activeTopic, true
}

// Online lists the bound seats in seat order.
func (r *Registry) Online() []PlayerSlot {
	r.mu.Lock()
	defer r.mu.Unlock()

	online := make([]PlayerSlot, 0, len(r.slots))
	for i, s := range r.slots {
		if s.nickname == "" {
			continue
		}
		online = append(online, PlayerSlot{Index: i, Nickname: s.nickname, ActiveTopic: s.activeTopic})
	}
	return online
}

func (r *Registry) takenLocked(nickname string, except int) bool {
	for i, s := range r.slots {
		if i != except && s.nickname != "" && s.nickname == nickname {
			return true
		}
	}
	return false
}
