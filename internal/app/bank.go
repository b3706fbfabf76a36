package app

import (
	"context"
	"fmt"
	"strings"

	"trivia-quiz-server/internal/domain"
)

// TopicLoader fetches the question bank from a backing source (files, Postgres, memory).
type TopicLoader interface {
	LoadTopics(ctx context.Context) ([]domain.Topic, error)
}

// LoadBank loads and validates the question bank. Every topic must carry
// exactly questionsPerTopic non-blank question/answer pairs. All failures
// wrap domain.ErrLoad.
func LoadBank(ctx context.Context, loader TopicLoader, questionsPerTopic int) ([]domain.Topic, error) {
	topics, err := loader.LoadTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLoad, err)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: no topics found", domain.ErrLoad)
	}
	for _, topic := range topics {
		if strings.TrimSpace(topic.Name) == "" {
			return nil, fmt.Errorf("%w: topic without a name", domain.ErrLoad)
		}
		if len(topic.Questions) != questionsPerTopic {
			return nil, fmt.Errorf("%w: topic %q has %d questions, want %d",
				domain.ErrLoad, topic.Name, len(topic.Questions), questionsPerTopic)
		}
		for i, q := range topic.Questions {
			if strings.TrimSpace(q.Prompt) == "" || strings.TrimSpace(q.Answer) == "" {
				return nil, fmt.Errorf("%w: topic %q question %d is blank", domain.ErrLoad, topic.Name, i+1)
			}
		}
	}
	return topics, nil
}

// Normalize reduces an answer to its comparable form: ASCII letters and digits
// only, lower-cased. Whitespace, punctuation and non-ASCII bytes are dropped.
func Normalize(answer string) string {
	var b strings.Builder
	b.Grow(len(answer))
	for i := 0; i < len(answer); i++ {
		c := answer[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + 'a' - 'A')
		}
	}
	return b.String()
}

// AnswersMatch compares a submitted answer with the expected one after
// normalization.
func AnswersMatch(expected, submitted string) bool {
	return Normalize(expected) == Normalize(submitted)
}
