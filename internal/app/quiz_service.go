package app

import (
	"context"
	"time"

	"trivia-quiz-server/internal/domain"
)

// Refresher asks the status publisher for a render and waits until it is done.
type Refresher interface {
	Refresh(ctx context.Context)
}

// QuizService contains the game rules shared by all sessions: nickname
// binding, per-topic leaderboards and answer scoring.
type QuizService struct {
	topics    []domain.Topic
	boards    []*Leaderboard
	players   *Registry
	refresher Refresher
	now       func() time.Time
}

func NewQuizService(topics []domain.Topic, players *Registry) *QuizService {
	boards := make([]*Leaderboard, len(topics))
	for i, topic := range topics {
		boards[i] = NewLeaderboard(topic.Name)
	}
	return &QuizService{
		topics:  topics,
		boards:  boards,
		players: players,
		now:     time.Now,
	}
}

// SetRefresher wires the status publisher. Without one, state changes are not rendered.
func (s *QuizService) SetRefresher(r Refresher) {
	s.refresher = r
}

// SetClock is used by tests for deterministic finish times.
func (s *QuizService) SetClock(now func() time.Time) {
	s.now = now
}

// Play is the handle of one quiz in progress.
type Play struct {
	Slot     int
	Topic    int
	Nickname string
	entry    *Entry
}

// Topics returns the loaded bank in load order.
func (s *QuizService) Topics() []domain.Topic {
	return s.topics
}

// TopicNames returns the topic names in load order.
func (s *QuizService) TopicNames() []string {
	names := make([]string, len(s.topics))
	for i, topic := range s.topics {
		names[i] = topic.Name
	}
	return names
}

// QuestionsPerTopic returns N, the fixed number of questions of every topic.
func (s *QuizService) QuestionsPerTopic() int {
	if len(s.topics) == 0 {
		return 0
	}
	return len(s.topics[0].Questions)
}

// Players exposes the seat registry.
func (s *QuizService) Players() *Registry {
	return s.players
}

// Login binds nickname to slot and renders the new roster.
func (s *QuizService) Login(ctx context.Context, slot int, nickname string) error {
	if err := s.players.Bind(slot, nickname); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

// StartTopic enters the player of slot into topic with a fresh zero-score
// entry. A previous entry of the same player in that topic is replaced.
func (s *QuizService) StartTopic(ctx context.Context, slot, topic int) (*Play, error) {
	if topic < 0 || topic >= len(s.topics) {
		return nil, domain.ErrTopicNotFound
	}
	nickname := s.players.Nickname(slot)
	if nickname == "" {
		return nil, domain.ErrParticipantNotFound
	}

	s.players.SetActiveTopic(slot, topic)
	board := s.boards[topic]
	board.RemoveAllFor(nickname)
	entry := board.InsertAtFront(nickname)

	s.refresh(ctx)
	return &Play{Slot: slot, Topic: topic, Nickname: nickname, entry: entry}, nil
}

// Question returns the prompt of question q of the play's topic.
func (s *QuizService) Question(play *Play, q int) domain.Question {
	return s.topics[play.Topic].Questions[q]
}

// SubmitAnswer scores an answer to question q, promotes the entry on a match
// and renders the change. It reports whether the answer was correct.
func (s *QuizService) SubmitAnswer(ctx context.Context, play *Play, q int, answer string) bool {
	expected := s.topics[play.Topic].Questions[q].Answer
	correct := AnswersMatch(expected, answer)
	if correct {
		s.boards[play.Topic].Award(play.entry)
	}
	s.refresh(ctx)
	return correct
}

// FinishTopic stamps the play's finish time, settles ties and returns the
// player to browsing.
func (s *QuizService) FinishTopic(ctx context.Context, play *Play) {
	s.boards[play.Topic].SettleOnFinish(play.entry, s.now())
	s.players.ClearActiveTopic(play.Slot)
	s.refresh(ctx)
}

// Leave removes the player's entries from every topic, then frees slot. The
// nickname stays taken until its entries are gone.
func (s *QuizService) Leave(ctx context.Context, slot int) {
	if nickname := s.players.Nickname(slot); nickname != "" {
		for _, board := range s.boards {
			board.RemoveAllFor(nickname)
		}
	}
	s.players.Unbind(slot)
	s.refresh(ctx)
}

// Report snapshots every leaderboard in load order, leader first.
func (s *QuizService) Report() []domain.Leaderboard {
	boards := make([]domain.Leaderboard, len(s.boards))
	for i, board := range s.boards {
		boards[i] = board.Snapshot()
	}
	return boards
}

// Status assembles the topic list, the online roster with per-topic progress
// and the full leaderboards.
func (s *QuizService) Status() domain.Status {
	online := s.players.Online()
	boards := s.Report()

	players := make([]domain.OnlinePlayer, 0, len(online))
	for _, slot := range online {
		player := domain.OnlinePlayer{Nickname: slot.Nickname}
		if slot.ActiveTopic >= 0 && slot.ActiveTopic < len(s.topics) {
			player.ActiveTopic = s.topics[slot.ActiveTopic].Name
		}
		for _, board := range boards {
			for _, entry := range board.Entries {
				if entry.Nickname == slot.Nickname {
					player.Progress = append(player.Progress, domain.TopicProgress{
						Topic:    board.Topic,
						Score:    entry.Score,
						Finished: entry.Finished,
					})
					break
				}
			}
		}
		players = append(players, player)
	}

	return domain.Status{
		Topics:            s.TopicNames(),
		QuestionsPerTopic: s.QuestionsPerTopic(),
		Players:           players,
		Leaderboards:      boards,
		UpdatedAt:         s.now(),
	}
}

func (s *QuizService) refresh(ctx context.Context) {
	if s.refresher != nil {
		s.refresher.Refresh(ctx)
	}
}
