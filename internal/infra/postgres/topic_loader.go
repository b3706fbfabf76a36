package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz-server/internal/domain"
)

// TopicLoader reads the question bank from the topic_questions table.
type TopicLoader struct {
	pool *pgxpool.Pool
}

func NewTopicLoader(pool *pgxpool.Pool) *TopicLoader {
	return &TopicLoader{pool: pool}
}

type questionRow struct {
	topic    string
	question domain.Question
}

// LoadTopics returns the topics ordered by topic position, each with its
// questions in question order.
func (l *TopicLoader) LoadTopics(ctx context.Context) ([]domain.Topic, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT topic, prompt, answer
		FROM topic_questions
		ORDER BY topic_position, topic, question_position`)
	if err != nil {
		return nil, fmt.Errorf("query topic questions: %w", err)
	}
	defer rows.Close()

	var collected []questionRow
	for rows.Next() {
		var row questionRow
		if err := rows.Scan(&row.topic, &row.question.Prompt, &row.question.Answer); err != nil {
			return nil, fmt.Errorf("scan topic question: %w", err)
		}
		collected = append(collected, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read topic questions: %w", err)
	}
	return groupTopics(collected), nil
}

// groupTopics folds ordered rows into topics, starting a new topic whenever
// the topic name changes.
func groupTopics(rows []questionRow) []domain.Topic {
	var topics []domain.Topic
	for _, row := range rows {
		if len(topics) == 0 || topics[len(topics)-1].Name != row.topic {
			topics = append(topics, domain.Topic{Name: row.topic})
		}
		last := &topics[len(topics)-1]
		last.Questions = append(last.Questions, row.question)
	}
	return topics
}
