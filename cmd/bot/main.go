package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/playrummy/backend/internal/client"
	"github.com/playrummy/backend/internal/logging"
	"github.com/playrummy/backend/internal/protocol"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr string
		env  string
	)

	cmd := &cobra.Command{
		Use:           "rummy-bot",
		Short:         "Joins a rummy session and plays it automatically",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(env)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return play(ctx, addr, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:2556", "game server TCP address")
	cmd.Flags().StringVar(&env, "env", "development", "logging environment")

	return cmd
}

// untilFinished stops the connection once the game has a result
type untilFinished struct {
	bot    *client.Bot
	cancel context.CancelFunc
}

func (u untilFinished) Serve(op protocol.ServerOp, tokens []string) error {
	err := u.bot.Serve(op, tokens)
	if u.bot.Controller().State().Finished {
		u.cancel()
	}
	return err
}

func play(ctx context.Context, addr string, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, err := client.Dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	bot := client.NewBot(client.NewController(conn, logger), logger)
	logger.Info("connected", zap.String("addr", addr))

	if err := conn.Run(ctx, untilFinished{bot: bot, cancel: cancel}); err != nil {
		return err
	}

	state := bot.Controller().State()
	logger.Info("session over",
		zap.Int("player_id", state.PlayerID),
		zap.Bool("finished", state.Finished),
		zap.Bool("won", state.Won),
		zap.Int("points", state.Points))
	return nil
}
