package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"

	"trivia-quiz-server/internal/domain"
	"trivia-quiz-server/internal/protocol"
)

type clientState int

const (
	stateLogin clientState = iota
	stateBrowsing
	stateQuiz
	stateClosed
)

// Client speaks the quiz protocol from the player side. It tracks the
// session state so sentinels are sent in the field the server expects.
type Client struct {
	conn              net.Conn
	r                 *bufio.Reader
	questionsPerTopic int

	state    clientState
	topics   []string
	question string
	asked    int
}

// Dial connects to addr and reads the topic count greeting.
func Dial(ctx context.Context, addr string, questionsPerTopic int) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c, err := NewClient(conn, questionsPerTopic)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// NewClient wraps an established connection and reads the topic count greeting.
func NewClient(conn net.Conn, questionsPerTopic int) (*Client, error) {
	c := &Client{
		conn:              conn,
		r:                 bufio.NewReader(conn),
		questionsPerTopic: questionsPerTopic,
	}
	count, err := protocol.ReadUint16(c.r)
	if err != nil {
		return nil, c.fault("read topic count", err)
	}
	c.topics = make([]string, count)
	return c, nil
}

// TopicCount returns the number of topics announced by the server.
func (c *Client) TopicCount() int {
	return len(c.topics)
}

// Topics returns the topic names received after login.
func (c *Client) Topics() []string {
	return c.topics
}

// Question returns the question currently awaiting an answer.
func (c *Client) Question() string {
	return c.question
}

// Login proposes nickname. A rejection returns domain.ErrNicknameRejected and
// leaves the client able to try another nickname.
func (c *Client) Login(nickname string) error {
	if c.state != stateLogin {
		return errors.New("already logged in")
	}
	if err := protocol.WriteText(c.conn, nickname, protocol.NicknameWidth); err != nil {
		return c.fault("send nickname", err)
	}
	ack, err := protocol.ReadUint16(c.r)
	if err != nil {
		return c.fault("read login ack", err)
	}
	if ack != protocol.AckAccepted {
		return domain.ErrNicknameRejected
	}
	for i := range c.topics {
		name, err := protocol.ReadText(c.r, protocol.TextWidth)
		if err != nil {
			return c.fault("read topic name", err)
		}
		c.topics[i] = name
	}
	c.state = stateBrowsing
	return nil
}

// SelectTopic starts the quiz of topic index and returns its first question.
func (c *Client) SelectTopic(index int) (string, error) {
	if c.state != stateBrowsing {
		return "", errors.New("not browsing")
	}
	if err := protocol.WriteUint16(c.conn, protocol.TopicCommand(index)); err != nil {
		return "", c.fault("send topic", err)
	}
	c.state = stateQuiz
	c.asked = 0
	if err := c.readQuestion(); err != nil {
		return "", err
	}
	return c.question, nil
}

// Answer submits an answer to the current question. It reports whether the
// answer was correct and whether the quiz is over; otherwise Question holds
// the next prompt.
func (c *Client) Answer(answer string) (correct, done bool, err error) {
	if c.state != stateQuiz {
		return false, false, errors.New("no quiz in progress")
	}
	if err := protocol.WriteText(c.conn, answer, protocol.TextWidth); err != nil {
		return false, false, c.fault("send answer", err)
	}
	result, err := protocol.ReadUint16(c.r)
	if err != nil {
		return false, false, c.fault("read result", err)
	}
	c.asked++
	if c.asked >= c.questionsPerTopic {
		c.state = stateBrowsing
		c.question = ""
		return result == protocol.ResultCorrect, true, nil
	}
	if err := c.readQuestion(); err != nil {
		return false, false, err
	}
	return result == protocol.ResultCorrect, false, nil
}

// ShowScore requests the leaderboard report. During a quiz the server asks
// the current question again afterwards.
func (c *Client) ShowScore() ([]domain.Leaderboard, error) {
	var err error
	switch c.state {
	case stateLogin:
		err = protocol.WriteText(c.conn, protocol.ShowScore, protocol.NicknameWidth)
	case stateBrowsing:
		err = protocol.WriteUint16(c.conn, protocol.CmdShowScore)
	case stateQuiz:
		err = protocol.WriteText(c.conn, protocol.ShowScore, protocol.TextWidth)
	default:
		return nil, domain.ErrServerOffline
	}
	if err != nil {
		return nil, c.fault("send show score", err)
	}

	boards, err := protocol.ReadReport(c.r, len(c.topics))
	if err != nil {
		return nil, c.fault("read report", err)
	}
	if c.state == stateQuiz {
		if err := c.readQuestion(); err != nil {
			return nil, err
		}
	}
	return boards, nil
}

// End asks the server to terminate the session and closes the connection.
func (c *Client) End() error {
	var err error
	switch c.state {
	case stateLogin:
		err = protocol.WriteText(c.conn, protocol.EndSession, protocol.NicknameWidth)
	case stateBrowsing:
		err = protocol.WriteUint16(c.conn, protocol.CmdEnd)
	case stateQuiz:
		err = protocol.WriteText(c.conn, protocol.EndSession, protocol.TextWidth)
	}
	c.state = stateClosed
	closeErr := c.conn.Close()
	if err != nil {
		return c.fault("send end", err)
	}
	return closeErr
}

// Close drops the connection without notifying the server.
func (c *Client) Close() error {
	c.state = stateClosed
	return c.conn.Close()
}

func (c *Client) readQuestion() error {
	question, err := protocol.ReadText(c.r, protocol.QuestionWidth)
	if err != nil {
		return c.fault("read question", err)
	}
	c.question = question
	return nil
}

// fault maps a closed server connection to domain.ErrServerOffline.
func (c *Client) fault(op string, err error) error {
	if isDisconnect(err) {
		c.state = stateClosed
		return fmt.Errorf("%s: %w", op, domain.ErrServerOffline)
	}
	return fmt.Errorf("%s: %w", op, err)
}
