package files

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"trivia-quiz-server/internal/domain"
	"trivia-quiz-server/internal/protocol"
)

// TopicLoader reads one topic per *.txt file of a folder. The topic name is
// the file name without its extension; topics are ordered by file name.
type TopicLoader struct {
	folder string
}

func NewTopicLoader(folder string) *TopicLoader {
	return &TopicLoader{folder: folder}
}

func (l *TopicLoader) LoadTopics(_ context.Context) ([]domain.Topic, error) {
	entries, err := os.ReadDir(l.folder)
	if err != nil {
		return nil, fmt.Errorf("read topic folder: %w", err)
	}

	var topics []domain.Topic
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".txt")
		questions, err := l.loadFile(filepath.Join(l.folder, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("topic %q: %w", name, err)
		}
		topics = append(topics, domain.Topic{
			Name:      protocol.Clip(name, protocol.TextWidth),
			Questions: questions,
		})
	}
	return topics, nil
}

func (l *TopicLoader) loadFile(path string) ([]domain.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseQuestions(f)
}

// ParseQuestions reads alternating question and answer lines. Blank lines are
// skipped and trailing whitespace, including CR, is ignored. Questions are
// clipped to the question width and answers to the text width of the wire.
func ParseQuestions(r io.Reader) ([]domain.Question, error) {
	var (
		questions []domain.Question
		prompt    string
		line      int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), " \t\r")
		if text == "" {
			continue
		}
		if prompt == "" {
			prompt = text
			continue
		}
		questions = append(questions, domain.Question{
			Prompt: protocol.Clip(prompt, protocol.QuestionWidth),
			Answer: protocol.Clip(text, protocol.TextWidth),
		})
		prompt = ""
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan questions: %w", err)
	}
	if prompt != "" {
		return nil, fmt.Errorf("question %q has no answer (line %d)", prompt, line)
	}
	return questions, nil
}
