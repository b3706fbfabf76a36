package console

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// WatchForShutdown reads operator input and calls shutdown as soon as a line
// contains q or Q. Other input is ignored. It returns when input ends or ctx is
// done; end of input does not trigger shutdown.
func WatchForShutdown(ctx context.Context, in io.Reader, shutdown func()) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.ContainsAny(line, "qQ") {
				shutdown()
				return
			}
		}
	}
}
