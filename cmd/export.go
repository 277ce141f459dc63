package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexbench/taxeval/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a stored run's report to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		outPath, _ := cmd.Flags().GetString("out")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "export")
		}
		if run.Report == nil {
			return eris.Errorf("run %s has no report (status %s)", args[0], run.Status)
		}

		if err := export.WriteReport(outPath, run.Report); err != nil {
			return err
		}
		zap.L().Info("report exported",
			zap.String("run_id", run.ID),
			zap.String("path", outPath),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "report.xlsx", "output workbook path")
	rootCmd.AddCommand(exportCmd)
}
