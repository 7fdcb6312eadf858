package cli

import (
	"os/signal"
	"syscall"

	"github.com/example/civicsbot/internal/bot"
	"github.com/example/civicsbot/internal/scheduler"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the reminder scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, svc, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			b, err := bot.New(a.cfg, svc, a.log)
			if err != nil {
				return err
			}

			if a.cfg.Scheduler.Enabled {
				s := scheduler.New(svc, b, svc.Location(), a.cfg.Scheduler.Interval, a.log.With("component", "scheduler"))
				if err := s.Start(); err != nil {
					return err
				}
				defer s.Stop()
			}

			a.log.Info("bot starting", "driver", a.cfg.Database.Driver)
			return b.Start(ctx)
		},
	}
}
