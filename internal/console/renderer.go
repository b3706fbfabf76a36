package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"trivia-quiz-server/internal/domain"
)

const clearScreen = "\033[H\033[2J"

var separator = strings.Repeat("+", 32)

// Renderer prints the operator status screen: topics, online players and
// per-topic leaderboards, followed by the shutdown prompt.
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	redraw bool
	title  string
}

func NewRenderer(out io.Writer, redraw bool) *Renderer {
	return &Renderer{out: out, redraw: redraw, title: "Trivia Quiz - Server Status"}
}

// Render implements app.Sink.
func (r *Renderer) Render(_ context.Context, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := bufio.NewWriter(r.out)
	if r.redraw {
		fmt.Fprint(w, clearScreen)
	}
	fmt.Fprintln(w, r.title)
	fmt.Fprintln(w, separator)

	writeTopics(w, status)
	writeOnline(w, status)
	writeLeaderboards(w, status)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Press 'Q' and ENTER to shut down")
	return w.Flush()
}

func writeTopics(w io.Writer, status domain.Status) {
	fmt.Fprintf(w, "== Available topics (%d) ==\n", len(status.Topics))
	for i, name := range status.Topics {
		fmt.Fprintf(w, "  %2d) %s\n", i+1, name)
	}
	fmt.Fprintln(w, separator)
}

func writeOnline(w io.Writer, status domain.Status) {
	fmt.Fprintf(w, "== Online players (%d) ==\n", len(status.Players))
	for _, player := range status.Players {
		if player.ActiveTopic != "" {
			fmt.Fprintf(w, "- %s  [playing: %s]\n", player.Nickname, player.ActiveTopic)
		} else {
			fmt.Fprintf(w, "- %s\n", player.Nickname)
		}
		for _, progress := range player.Progress {
			suffix := ""
			if !progress.Finished {
				suffix = " (in progress)"
			}
			fmt.Fprintf(w, "    * %s  -> %d/%d%s\n", progress.Topic, progress.Score, status.QuestionsPerTopic, suffix)
		}
	}
	fmt.Fprintln(w, separator)
}

func writeLeaderboards(w io.Writer, status domain.Status) {
	fmt.Fprintln(w, "== Leaderboards ==")
	for _, board := range status.Leaderboards {
		fmt.Fprintf(w, "[%s]\n", board.Topic)
		for i, entry := range board.Entries {
			if entry.Finished {
				fmt.Fprintf(w, "  %2d) %-16s  %d/%d  (finished: %s)\n",
					i+1, entry.Nickname, entry.Score, status.QuestionsPerTopic, entry.FinishedAt.Local().Format("15:04:05"))
			} else {
				fmt.Fprintf(w, "  %2d) %-16s  %d/%d  (in progress)\n",
					i+1, entry.Nickname, entry.Score, status.QuestionsPerTopic)
			}
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, separator)
}
