package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"trivia-quiz-server/internal/app"
	"trivia-quiz-server/internal/domain"
)

// Options configures the quiz listener.
type Options struct {
	Addr          string
	MaxPlayers    int
	ShutdownGrace time.Duration
}

// Server accepts player connections with a fixed pool of workers. Each worker
// owns one player seat and serves one connection at a time, so at most
// MaxPlayers sessions run at once; further connections wait in the listen
// backlog.
type Server struct {
	service *app.QuizService
	logger  *slog.Logger
	opts    Options

	listener net.Listener
	acceptMu sync.Mutex

	connsMu sync.Mutex
	conns   []net.Conn // indexed by seat

	shuttingDown atomic.Bool
	stopOnce     sync.Once
	stopped      chan struct{}
}

func NewServer(service *app.QuizService, logger *slog.Logger, opts Options) *Server {
	// A worker owns a registry seat, so the pool can never outgrow the registry.
	if seats := service.Players().Size(); opts.MaxPlayers <= 0 || opts.MaxPlayers > seats {
		opts.MaxPlayers = seats
	}
	return &Server{
		service: service,
		logger:  logger,
		opts:    opts,
		conns:   make([]net.Conn, opts.MaxPlayers),
		stopped: make(chan struct{}),
	}
}

// Listen binds the listening endpoint. A bind failure is a startup fault.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run serves connections until Shutdown is called or ctx is canceled. After
// shutdown it waits at most ShutdownGrace for workers to finish their cleanup.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopped:
			cancel()
		case <-ctx.Done():
		}
	}()

	var g errgroup.Group
	for slot := 0; slot < s.opts.MaxPlayers; slot++ {
		slot := slot
		g.Go(func() error {
			s.worker(ctx, slot)
			return nil
		})
	}
	workersDone := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(workersDone)
	}()

	s.logger.Info("quiz server listening", "addr", s.Addr().String(), "max_players", s.opts.MaxPlayers)

	select {
	case <-workersDone:
		return nil
	case <-ctx.Done():
	}

	s.Shutdown()
	select {
	case <-workersDone:
	case <-time.After(s.opts.ShutdownGrace):
		s.logger.Warn("shutdown grace period elapsed with sessions still running")
	}
	return nil
}

// Shutdown closes the listener and force-closes every active connection so
// workers blocked in reads observe end-of-stream. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() {
		s.shuttingDown.Store(true)
		close(s.stopped)
		s.logger.Info("shutdown requested, closing connections")

		if s.listener != nil {
			_ = s.listener.Close()
		}

		s.connsMu.Lock()
		defer s.connsMu.Unlock()
		for slot, conn := range s.conns {
			if conn != nil {
				forceClose(conn)
				s.conns[slot] = nil
			}
		}
	})
}

// ShuttingDown reports whether Shutdown has been triggered.
func (s *Server) ShuttingDown() bool {
	return s.shuttingDown.Load()
}

func (s *Server) worker(ctx context.Context, slot int) {
	for {
		s.acceptMu.Lock()
		conn, err := s.listener.Accept()
		s.acceptMu.Unlock()
		if err != nil {
			if s.shuttingDown.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed", "slot", slot, "err", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if !s.track(slot, conn) {
			forceClose(conn)
			return
		}
		s.serve(ctx, slot, conn)
		s.untrack(slot)
		_ = conn.Close()

		if s.shuttingDown.Load() {
			return
		}
	}
}

func (s *Server) serve(ctx context.Context, slot int, conn net.Conn) {
	logger := s.logger.With("slot", slot, "remote", conn.RemoteAddr().String())
	logger.Debug("session started")

	sess := newSession(conn, slot, s.service, logger)
	err := sess.run(ctx)
	sess.terminate(ctx)

	switch {
	case err == nil:
		logger.Debug("session ended", "nickname", sess.nickname)
	case s.shuttingDown.Load():
		logger.Info("session closed by shutdown", "nickname", sess.nickname,
			"err", fmt.Errorf("%w: %v", domain.ErrServerOffline, err))
	case isDisconnect(err):
		logger.Debug("peer disconnected", "nickname", sess.nickname, "err", err)
	default:
		logger.Warn("session fault", "nickname", sess.nickname, "err", err)
	}
}

// track registers conn for forced closure. It refuses once shutdown started,
// so no connection escapes the close sweep.
func (s *Server) track(slot int, conn net.Conn) bool {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if s.shuttingDown.Load() {
		return false
	}
	s.conns[slot] = conn
	return true
}

func (s *Server) untrack(slot int) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[slot] = nil
}

func forceClose(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.CloseRead()
		_ = tc.CloseWrite()
	}
	_ = conn.Close()
}
