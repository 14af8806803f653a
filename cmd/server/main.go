package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/playrummy/backend/internal/api"
	"github.com/playrummy/backend/internal/config"
	"github.com/playrummy/backend/internal/database"
	"github.com/playrummy/backend/internal/events"
	"github.com/playrummy/backend/internal/logging"
	"github.com/playrummy/backend/internal/migrations"
	"github.com/playrummy/backend/internal/redis"
	"github.com/playrummy/backend/internal/session"
	"github.com/playrummy/backend/internal/store"
	"github.com/playrummy/backend/internal/ws"
)

const (
	eventBuffer     = 1024
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	cmd := &cobra.Command{
		Use:           "rummy-server",
		Short:         "Runs one rummy session over TCP and WebSocket",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.PlayerAmount, "players", cfg.PlayerAmount, "number of players in the session")
	flags.IntVar(&cfg.HandSize, "hand-size", cfg.HandSize, "cards dealt to each player")
	flags.BoolVar(&cfg.EnforceRules, "enforce-rules", cfg.EnforceRules, "validate plays against the rummy rules")
	flags.StringVar(&cfg.GameAddr, "game-addr", cfg.GameAddr, "TCP address for line-protocol clients")
	flags.StringVar(&cfg.Port, "port", cfg.Port, "HTTP port for the API and WebSocket endpoint")
	flags.BoolVar(&cfg.MigrateOnStart, "migrate", cfg.MigrateOnStart, "apply database migrations before serving")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.Environment)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	var (
		sinks []events.Sink
		deps  = api.Deps{Config: cfg, Logger: logger}
	)

	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			logger.Info("running DB migrations on startup")
			if err := migrations.RunMigrations(cfg.DatabaseURL, migrations.Dir, logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}

		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		moves := store.NewMoveLog(db)
		sinks = append(sinks, moves)
		deps.Moves = moves
		logger.Info("move log enabled")
	} else {
		logger.Info("DATABASE_URL not set, move log disabled")
	}

	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		pub := events.NewRedisPublisher(rdb, cfg.EventsChannel)
		sinks = append(sinks, pub)
		deps.Recent = pub
		logger.Info("event publishing enabled", zap.String("channel", cfg.EventsChannel))
	} else {
		logger.Info("REDIS_URL not set, event publishing disabled")
	}

	pipeline := events.NewPipeline(eventBuffer, logger.Named("events"), sinks...)

	sess := session.New(session.Config{
		PlayerAmount: cfg.PlayerAmount,
		HandSize:     cfg.HandSize,
		EnforceRules: cfg.EnforceRules,
	}, logger.Named("session"), pipeline)
	hub := ws.NewHub(sess, cfg.OutboxSize, logger.Named("hub"))

	deps.Session = sess
	deps.Hub = hub

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting rummy server",
		zap.String("session_id", sess.ID().String()),
		zap.Int("players", cfg.PlayerAmount),
		zap.Int("hand_size", cfg.HandSize),
		zap.Bool("enforce_rules", cfg.EnforceRules),
		zap.String("game_addr", cfg.GameAddr),
		zap.String("http_port", cfg.Port))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return pipeline.Run(gctx)
	})
	g.Go(func() error {
		return hub.ListenTCP(gctx, cfg.GameAddr)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("rummy server stopped", zap.Int64("events_dropped", pipeline.Dropped()))
	return err
}
