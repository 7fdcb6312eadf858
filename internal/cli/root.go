// Package cli wires configuration, storage and the bot into cobra commands.
package cli

import (
	"context"

	"github.com/example/civicsbot/internal/config"
	"github.com/example/civicsbot/internal/database"
	"github.com/example/civicsbot/internal/logger"
	"github.com/example/civicsbot/internal/study"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type app struct {
	configDir string
	envFile   string
	cfg       *config.Config
	log       *logger.Logger
}

// NewRootCommand builds the civicsbot command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "civicsbot",
		Short:         "Civics test coach: spaced repetition and gamification over Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configDir, "config", "", "directory holding config.yaml")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
		newImportCommand(a),
		newPlanCommand(a),
		newReportCommand(a),
	)
	return root
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) init() error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return errors.Wrap(err, "failed to build logger")
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// open connects to the database and builds the study service over it
func (a *app) open(ctx context.Context) (*sqlx.DB, *study.Service, error) {
	db, err := database.Connect(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	svc := study.NewService(db, study.Config{
		DailyGoal:    a.cfg.Study.DailyGoal,
		TotalItems:   a.cfg.Study.TotalItems,
		HistoryLimit: a.cfg.Study.HistoryLimit,
		Location:     loc,
	}, a.log)
	return db, svc, nil
}
