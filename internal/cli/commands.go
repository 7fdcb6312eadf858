package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/example/civicsbot/internal/excel"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Connect applies the schema
			db, _, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			a.log.Info("schema is up to date", "driver", a.cfg.Database.Driver)
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Load the question bank from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrapf(err, "failed to open %s", args[0])
			}
			defer f.Close()

			result, err := svc.ImportQuestions(cmd.Context(), f, excel.FormatFromPath(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "processed %d, created %d, updated %d, skipped %d\n",
				result.TotalProcessed, result.Created, result.Updated, result.Skipped)
			for _, e := range result.Errors {
				fmt.Fprintln(out, "  "+e)
			}
			return nil
		},
	}
}

func newPlanCommand(a *app) *cobra.Command {
	var learnerID int64
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print today's study plan of a learner as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			plan, err := svc.Plan(cmd.Context(), learnerID)
			if err != nil {
				return err
			}
			return writeJSON(cmd, plan)
		},
	}
	cmd.Flags().Int64Var(&learnerID, "learner", 0, "learner ID")
	_ = cmd.MarkFlagRequired("learner")
	return cmd
}

func newReportCommand(a *app) *cobra.Command {
	var learnerID int64
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the progress report of a learner as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := svc.Report(cmd.Context(), learnerID)
			if err != nil {
				return err
			}
			return writeJSON(cmd, report)
		},
	}
	cmd.Flags().Int64Var(&learnerID, "learner", 0, "learner ID")
	_ = cmd.MarkFlagRequired("learner")
	return cmd
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "failed to encode output")
}
