package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexbench/taxeval/internal/model"
	"github.com/lexbench/taxeval/internal/report"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a prediction file against gold annotations",
	Long:  "Loads gold and prediction records, joins them by scenario, computes retrieval, extraction, and reasoning metrics, and prints the aggregate report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("evaluate"); err != nil {
			return err
		}

		goldPath, _ := cmd.Flags().GetString("gold")
		predsPath, _ := cmd.Flags().GetString("predictions")
		outPath, _ := cmd.Flags().GetString("out")
		format, _ := cmd.Flags().GetString("format")
		kValues, _ := cmd.Flags().GetIntSlice("k")
		bins, _ := cmd.Flags().GetInt("bins")
		workers, _ := cmd.Flags().GetInt("workers")
		save, _ := cmd.Flags().GetBool("save")

		params := report.Params{KValues: cfg.Eval.KValues, Bins: cfg.Eval.Bins, Workers: cfg.Eval.Workers}
		if len(kValues) > 0 {
			params.KValues = kValues
		}
		if bins > 0 {
			params.Bins = bins
		}
		if workers > 0 {
			params.Workers = workers
		}

		rep, err := runEvaluation(ctx, goldPath, predsPath, params)
		if save {
			if saveErr := persistRun(ctx, goldPath, predsPath, rep, err); saveErr != nil {
				zap.L().Error("persist run failed", zap.Error(saveErr))
			}
		}
		if err != nil {
			return err
		}

		formatReport(os.Stdout, rep)

		if outPath != "" {
			if err := report.Save(outPath, rep, report.Format(format)); err != nil {
				return err
			}
			zap.L().Info("report written", zap.String("path", outPath))
		}
		return nil
	},
}

func init() {
	evaluateCmd.Flags().String("gold", "", "path to gold records (JSON or JSONL)")
	evaluateCmd.Flags().String("predictions", "", "path to prediction records (JSON or JSONL)")
	evaluateCmd.Flags().String("out", "", "write the report to this file")
	evaluateCmd.Flags().String("format", "json", "output format for --out (json, yaml)")
	evaluateCmd.Flags().IntSlice("k", nil, "retrieval cutoffs (default from config)")
	evaluateCmd.Flags().Int("bins", 0, "calibration bin count (default from config)")
	evaluateCmd.Flags().Int("workers", 0, "parallel scoring workers (default from config)")
	evaluateCmd.Flags().Bool("save", false, "persist the run to the history store")
	_ = evaluateCmd.MarkFlagRequired("gold")
	_ = evaluateCmd.MarkFlagRequired("predictions")
	rootCmd.AddCommand(evaluateCmd)
}

// runEvaluation loads both collections and builds the report.
func runEvaluation(ctx context.Context, goldPath, predsPath string, params report.Params) (*model.EvaluationReport, error) {
	golds, err := report.LoadGold(goldPath)
	if err != nil {
		return nil, err
	}
	preds, err := report.LoadPredictions(predsPath)
	if err != nil {
		return nil, err
	}

	zap.L().Info("evaluating",
		zap.Int("gold_records", len(golds)),
		zap.Int("prediction_records", len(preds)),
	)
	return report.NewBuilder(params).Build(ctx, golds, preds)
}

// persistRun records the run in the history store. Failed evaluations are
// stored too, with the error message in place of a report.
func persistRun(ctx context.Context, goldPath, predsPath string, rep *model.EvaluationReport, evalErr error) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	run := model.Run{
		GoldPath:        goldPath,
		PredictionsPath: predsPath,
		Status:          model.RunStatusComplete,
		Report:          rep,
	}
	if evalErr != nil {
		run.Status = model.RunStatusFailed
		run.Error = evalErr.Error()
		run.Report = nil
	}

	saved, err := st.SaveRun(ctx, run)
	if err != nil {
		return eris.Wrap(err, "save run")
	}
	zap.L().Info("run saved", zap.String("run_id", saved.ID))
	return nil
}

// formatReport writes a tabular metric summary to w, one section per
// metric family, keys sorted.
func formatReport(out io.Writer, rep *model.EvaluationReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Scenarios:\t%d\n", rep.ScenarioCount)

	sections := []struct {
		name    string
		metrics model.Metrics
	}{
		{"Retrieval", rep.RetrievalMetrics},
		{"Extraction", rep.ExtractionMetrics},
		{"Reasoning", rep.ReasoningMetrics},
	}
	for _, sec := range sections {
		if len(sec.metrics) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n%s\t\n", sec.name)

		keys := make([]string, 0, len(sec.metrics))
		for k := range sec.metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "  %s\t%s\n", k, formatMetric(sec.metrics[k]))
		}
	}
	_ = w.Flush()
}

// formatMetric renders a metric value, keeping non-finite sentinels readable.
func formatMetric(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
