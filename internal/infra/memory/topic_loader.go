package memory

import (
	"context"

	"trivia-quiz-server/internal/domain"
)

// StaticTopicLoader is a simple loader backed by an in-memory slice (useful for tests/demos).
type StaticTopicLoader struct {
	topics []domain.Topic
}

func NewStaticTopicLoader(topics []domain.Topic) *StaticTopicLoader {
	return &StaticTopicLoader{topics: topics}
}

// LoadTopics returns a copy of the configured topics in their original order.
func (l *StaticTopicLoader) LoadTopics(_ context.Context) ([]domain.Topic, error) {
	topics := make([]domain.Topic, len(l.topics))
	for i, topic := range l.topics {
		topics[i] = domain.Topic{
			Name:      topic.Name,
			Questions: append([]domain.Question(nil), topic.Questions...),
		}
	}
	return topics, nil
}

// SampleTopics is the built-in demo bank served by `start --demo`.
func SampleTopics() []domain.Topic {
	return []domain.Topic{
		{
			Name: "geography",
			Questions: []domain.Question{
				{Prompt: "What is the capital of France?", Answer: "Paris"},
				{Prompt: "Which river flows through Cairo?", Answer: "Nile"},
				{Prompt: "What is the largest ocean?", Answer: "Pacific"},
				{Prompt: "On which continent is Kenya?", Answer: "Africa"},
				{Prompt: "What is the capital of Japan?", Answer: "Tokyo"},
			},
		},
		{
			Name: "science",
			Questions: []domain.Question{
				{Prompt: "What is the chemical symbol of gold?", Answer: "Au"},
				{Prompt: "How many planets orbit the Sun?", Answer: "8"},
				{Prompt: "What gas do plants absorb?", Answer: "Carbon dioxide"},
				{Prompt: "What is H2O commonly called?", Answer: "Water"},
				{Prompt: "What particle has a negative charge?", Answer: "Electron"},
			},
		},
	}
}
