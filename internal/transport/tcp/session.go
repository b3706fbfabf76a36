package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"syscall"

	"trivia-quiz-server/internal/app"
	"trivia-quiz-server/internal/domain"
	"trivia-quiz-server/internal/protocol"
)

// session drives one connection through login, browsing and quizzing.
type session struct {
	conn     net.Conn
	r        *bufio.Reader
	w        *bufio.Writer
	slot     int
	service  *app.QuizService
	logger   *slog.Logger
	nickname string
}

func newSession(conn net.Conn, slot int, service *app.QuizService, logger *slog.Logger) *session {
	return &session{
		conn:    conn,
		r:       bufio.NewReader(conn),
		w:       bufio.NewWriter(conn),
		slot:    slot,
		service: service,
		logger:  logger,
	}
}

// run returns nil when the client ended the session with the end command or
// the end session sentinel, and the transport error otherwise.
func (s *session) run(ctx context.Context) error {
	topicCount := len(s.service.Topics())
	if err := s.reply(func(w io.Writer) error {
		return protocol.WriteUint16(w, uint16(topicCount))
	}); err != nil {
		return fmt.Errorf("send topic count: %w", err)
	}

	loggedIn, err := s.login(ctx)
	if err != nil || !loggedIn {
		return err
	}

	if err := s.reply(func(w io.Writer) error {
		for _, name := range s.service.TopicNames() {
			if err := protocol.WriteText(w, name, protocol.TextWidth); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("send topic names: %w", err)
	}

	for {
		cmd, err := protocol.ReadUint16(s.r)
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		switch cmd {
		case protocol.CmdEnd:
			return nil
		case protocol.CmdShowScore:
			if err := s.sendReport(); err != nil {
				return err
			}
		default:
			topic, ok := protocol.TopicIndex(cmd)
			if !ok || topic >= topicCount {
				s.logger.Debug("ignoring invalid command", "nickname", s.nickname, "command", cmd)
				continue
			}
			ended, err := s.quiz(ctx, topic)
			if err != nil || ended {
				return err
			}
		}
	}
}

// login reads nickname candidates until one is accepted. It reports false
// when the client asked to end the session instead.
func (s *session) login(ctx context.Context) (bool, error) {
	for {
		nickname, err := protocol.ReadText(s.r, protocol.NicknameWidth)
		if err != nil {
			return false, fmt.Errorf("read nickname: %w", err)
		}

		switch nickname {
		case protocol.ShowScore:
			if err := s.sendReport(); err != nil {
				return false, err
			}
			continue
		case protocol.EndSession:
			return false, nil
		}

		ack := protocol.AckAccepted
		if err := s.service.Login(ctx, s.slot, nickname); err != nil {
			if !errors.Is(err, domain.ErrNicknameTaken) && !errors.Is(err, domain.ErrInvalidNickname) {
				return false, err
			}
			s.logger.Debug("nickname rejected", "nickname", nickname, "err", err)
			ack = protocol.AckRejected
		}

		if err := s.reply(func(w io.Writer) error {
			return protocol.WriteUint16(w, ack)
		}); err != nil {
			return false, fmt.Errorf("send login ack: %w", err)
		}
		if ack == protocol.AckAccepted {
			s.nickname = nickname
			s.logger.Info("player logged in", "nickname", nickname)
			return true, nil
		}
	}
}

// quiz plays every question of topic. It reports true when the client ended
// the session in the middle of the quiz.
func (s *session) quiz(ctx context.Context, topic int) (bool, error) {
	play, err := s.service.StartTopic(ctx, s.slot, topic)
	if err != nil {
		return false, err
	}
	s.logger.Debug("topic started", "nickname", s.nickname, "topic", topic)

	for q := 0; q < s.service.QuestionsPerTopic(); {
		prompt := s.service.Question(play, q).Prompt
		if err := s.reply(func(w io.Writer) error {
			return protocol.WriteText(w, prompt, protocol.QuestionWidth)
		}); err != nil {
			return false, fmt.Errorf("send question: %w", err)
		}

		answer, err := protocol.ReadText(s.r, protocol.TextWidth)
		if err != nil {
			return false, fmt.Errorf("read answer: %w", err)
		}

		switch answer {
		case protocol.ShowScore:
			if err := s.sendReport(); err != nil {
				return false, err
			}
			continue
		case protocol.EndSession:
			return true, nil
		}

		result := protocol.ResultWrong
		if s.service.SubmitAnswer(ctx, play, q, answer) {
			result = protocol.ResultCorrect
		}
		if err := s.reply(func(w io.Writer) error {
			return protocol.WriteUint16(w, result)
		}); err != nil {
			return false, fmt.Errorf("send result: %w", err)
		}
		q++
	}

	s.service.FinishTopic(ctx, play)
	s.logger.Debug("topic finished", "nickname", s.nickname, "topic", topic)
	return false, nil
}

func (s *session) sendReport() error {
	boards := s.service.Report()
	if err := s.reply(func(w io.Writer) error {
		return protocol.WriteReport(w, boards)
	}); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}

// terminate frees the seat and drops the player's entries.
func (s *session) terminate(ctx context.Context) {
	s.service.Leave(ctx, s.slot)
	if s.nickname != "" {
		s.logger.Info("player left", "nickname", s.nickname)
	}
}

// reply writes one logical message and flushes it.
func (s *session) reply(write func(w io.Writer) error) error {
	if err := write(s.w); err != nil {
		return err
	}
	return s.w.Flush()
}

func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
