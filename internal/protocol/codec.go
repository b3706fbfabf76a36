package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"trivia-quiz-server/internal/domain"
)

// ReadUint16 reads one network-order 16-bit field. A peer that closed before
// sending anything yields io.EOF; a partial field yields io.ErrUnexpectedEOF.
func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// WriteUint16 writes one network-order 16-bit field.
func WriteUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadText reads a fixed-width text field and returns its content up to the
// first NUL byte.
func ReadText(r io.Reader, width int) (string, error) {
	buf := make([]byte, width)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

// WriteText writes s into a zero-padded buffer of the given width, clipping
// it with Clip first.
func WriteText(w io.Writer, s string, width int) error {
	buf := make([]byte, width)
	copy(buf, Clip(s, width))
	_, err := w.Write(buf)
	return err
}

// Clip shortens s to the content capacity of a field of the given width.
func Clip(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(s) > width-1 {
		return s[:width-1]
	}
	return s
}

// WriteReport encodes a score report: for every topic its name, the entry
// count and then the (nickname, score) pairs from the lowest-ranked entry to
// the leader. Boards are expected leader first, as produced by snapshots.
func WriteReport(w io.Writer, boards []domain.Leaderboard) error {
	for _, board := range boards {
		if err := WriteText(w, board.Topic, TextWidth); err != nil {
			return err
		}
		if err := WriteUint16(w, uint16(len(board.Entries))); err != nil {
			return err
		}
		for i := len(board.Entries) - 1; i >= 0; i-- {
			entry := board.Entries[i]
			if err := WriteText(w, entry.Nickname, TextWidth); err != nil {
				return err
			}
			if err := WriteUint16(w, uint16(entry.Score)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadReport decodes a score report for topicCount topics and returns the
// boards leader first.
func ReadReport(r io.Reader, topicCount int) ([]domain.Leaderboard, error) {
	boards := make([]domain.Leaderboard, 0, topicCount)
	for t := 0; t < topicCount; t++ {
		name, err := ReadText(r, TextWidth)
		if err != nil {
			return nil, fmt.Errorf("read topic name: %w", err)
		}
		count, err := ReadUint16(r)
		if err != nil {
			return nil, fmt.Errorf("read entry count: %w", err)
		}
		entries := make([]domain.LeaderboardEntry, count)
		for i := int(count) - 1; i >= 0; i-- {
			nick, err := ReadText(r, TextWidth)
			if err != nil {
				return nil, fmt.Errorf("read nickname: %w", err)
			}
			score, err := ReadUint16(r)
			if err != nil {
				return nil, fmt.Errorf("read score: %w", err)
			}
			entries[i] = domain.LeaderboardEntry{Nickname: nick, Score: int(score)}
		}
		boards = append(boards, domain.Leaderboard{Topic: name, Entries: entries})
	}
	return boards, nil
}
