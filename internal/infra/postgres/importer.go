package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"trivia-quiz-server/internal/domain"
)

type topicQuestion struct {
	bun.BaseModel `bun:"table:topic_questions"`

	Topic            string `bun:"topic,pk"`
	QuestionPosition int    `bun:"question_position,pk"`
	TopicPosition    int    `bun:"topic_position,notnull"`
	Prompt           string `bun:"prompt,notnull"`
	Answer           string `bun:"answer,notnull"`
}

// Importer writes a question bank into Postgres so the server can load it
// with the postgres source.
type Importer struct {
	db *bun.DB
}

func NewImporter(db *bun.DB) *Importer {
	return &Importer{db: db}
}

// Import upserts every question of topics and drops stored questions beyond
// each topic's new length, all in one transaction. Topics keep the order of
// the slice.
func (i *Importer) Import(ctx context.Context, topics []domain.Topic) (int, error) {
	rows := questionRows(topics)
	if len(rows) == 0 {
		return 0, nil
	}

	err := i.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (topic, question_position) DO UPDATE").
			Set("topic_position = EXCLUDED.topic_position").
			Set("prompt = EXCLUDED.prompt").
			Set("answer = EXCLUDED.answer").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert questions: %w", err)
		}

		for _, topic := range topics {
			if _, err := tx.NewDelete().
				Model((*topicQuestion)(nil)).
				Where("topic = ?", topic.Name).
				Where("question_position >= ?", len(topic.Questions)).
				Exec(ctx); err != nil {
				return fmt.Errorf("trim topic %s: %w", topic.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func questionRows(topics []domain.Topic) []topicQuestion {
	var rows []topicQuestion
	for t, topic := range topics {
		for q, question := range topic.Questions {
			rows = append(rows, topicQuestion{
				Topic:            topic.Name,
				TopicPosition:    t,
				QuestionPosition: q,
				Prompt:           question.Prompt,
				Answer:           question.Answer,
			})
		}
	}
	return rows
}
