package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"trivia-quiz-server/internal/app"
	"trivia-quiz-server/internal/config"
	"trivia-quiz-server/internal/console"
	"trivia-quiz-server/internal/domain"
	"trivia-quiz-server/internal/infra/files"
	"trivia-quiz-server/internal/infra/memory"
	"trivia-quiz-server/internal/infra/postgres"
	infraredis "trivia-quiz-server/internal/infra/redis"
	transport "trivia-quiz-server/internal/transport/http"
	"trivia-quiz-server/internal/transport/tcp"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, addr *string) *cobra.Command {
	var demo bool
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *addr, demo, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "serve the built-in sample topics")
	return cmd
}

func runServer(ctx context.Context, configPath, addrFlag string, demo bool, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)

	finalAddr := addrFlag
	if finalAddr == "" {
		finalAddr = cfg.Server.Addr
	}
	if demo {
		cfg.Quiz.Source = "memory"
	}

	loader, closeLoader, err := newTopicLoader(ctx, cfg)
	if err != nil {
		return err
	}
	topics, err := app.LoadBank(ctx, loader, cfg.Quiz.QuestionsPerTopic)
	closeLoader()
	if err != nil {
		return err
	}
	logger.Info("question bank loaded", "source", cfg.Quiz.Source, "topics", len(topics))

	service := app.NewQuizService(topics, app.NewRegistry(cfg.Server.MaxPlayers))

	publisher := app.NewPublisher(service, logger, console.NewRenderer(out, cfg.Status.ClearScreen))
	service.SetRefresher(publisher)

	var mirror *infraredis.StatusMirror
	if cfg.Redis.Addr != "" {
		timeout := config.TTLDuration(cfg.Redis.Timeout, time.Second)
		redisClient := redis.NewClient(&redis.Options{
			Addr:                  cfg.Redis.Addr,
			Password:              cfg.Redis.Password,
			DB:                    cfg.Redis.DB,
			ReadTimeout:           timeout,
			WriteTimeout:          timeout,
			ContextTimeoutEnabled: true,
		})
		defer redisClient.Close()

		mirror = infraredis.NewStatusMirror(redisClient, cfg.Redis.Prefix, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute), timeout)
		if err := mirror.Reset(ctx); err != nil {
			logger.Warn("redis mirror reset failed", "err", err)
		}
	}

	server := tcp.NewServer(service, logger, tcp.Options{
		Addr:          finalAddr,
		MaxPlayers:    cfg.Server.MaxPlayers,
		ShutdownGrace: config.TTLDuration(cfg.Server.ShutdownGrace, 200*time.Millisecond),
	})
	if err := server.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if mirror != nil {
		// Subscribed before the publisher starts so the first render is mirrored too.
		updates, unsubscribe := publisher.Subscribe()
		g.Go(func() error {
			defer unsubscribe()
			mirror.Run(gctx, updates, logger)
			return nil
		})
	}
	g.Go(func() error {
		return publisher.Run(gctx)
	})
	g.Go(func() error {
		// Everything else stops once the quiz server is down.
		defer cancel()
		return server.Run(gctx)
	})
	g.Go(func() error {
		console.WatchForShutdown(gctx, in, server.Shutdown)
		return nil
	})
	if cfg.Status.HTTPAddr != "" {
		startStatusServer(gctx, g, cfg, publisher, logger)
	}

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

func startStatusServer(ctx context.Context, g *errgroup.Group, cfg config.Config, feed transport.StatusFeed, logger *slog.Logger) {
	server := &http.Server{
		Addr:              cfg.Status.HTTPAddr,
		Handler:           transport.NewRouter(feed, cfg.Status.AllowedOrigins, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info("status server listening", "addr", cfg.Status.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}

// newTopicLoader picks the question source. The returned close function
// releases any connection the loader holds.
func newTopicLoader(ctx context.Context, cfg config.Config) (app.TopicLoader, func(), error) {
	noop := func() {}
	switch cfg.Quiz.Source {
	case "", "files":
		return files.NewTopicLoader(cfg.Quiz.Folder), noop, nil
	case "memory":
		return memory.NewStaticTopicLoader(memory.SampleTopics()), noop, nil
	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, noop, fmt.Errorf("%w: postgres url not configured", domain.ErrLoad)
		}
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, noop, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, noop, fmt.Errorf("%w: connect postgres: %v", domain.ErrLoad, err)
		}
		return postgres.NewTopicLoader(pool), pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: unknown quiz source %q", domain.ErrLoad, cfg.Quiz.Source)
	}
}
