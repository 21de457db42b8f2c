package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ahrav/go-grader/infrastructure/middleware"
	"github.com/ahrav/go-grader/infrastructure/report"
	"github.com/ahrav/go-grader/internal/application"
)

// defaultTotalScore is used when neither metadata nor a flag gives a total.
const defaultTotalScore = 20

func newSynthesizeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Turn a file of test outcomes into a graded results file",
		Long: "Read test outcomes produced by an external harness, allocate fixed and " +
			"weighted points against the total score and write the results document. " +
			"When submission metadata is given its total points take precedence over --total-score.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSynthesize(cmd, v)
		},
	}

	f := cmd.Flags()
	f.String("outcomes", "", "JSON file of test outcomes (required)")
	f.String("metadata", "", "submission metadata JSON file")
	f.Float64("total-score", defaultTotalScore, "total score when no metadata is given")
	f.String("output", "", "write results JSON to this path instead of stdout")
	f.Bool("autograder", false, "default --metadata to "+report.DefaultMetadataPath+
		" and --output to "+report.DefaultResultsPath)
	f.Bool("summary", false, "print a text summary to stderr")
	f.String("metrics-file", "", "write Prometheus metrics in text format to this path")
	return cmd
}

func runSynthesize(cmd *cobra.Command, v *viper.Viper) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := newLogger(cmd.ErrOrStderr(), v.GetString("log-level"))
	if err != nil {
		return err
	}

	outcomesPath := v.GetString("outcomes")
	if outcomesPath == "" {
		return fmt.Errorf("--outcomes is required")
	}
	results, err := report.LoadOutcomes(outcomesPath)
	if err != nil {
		return err
	}

	metadataPath, outputPath := ioPaths(v)
	total := v.GetFloat64("total-score")
	req := application.GradeRequest{TotalScore: &total}
	if metadataPath != "" {
		meta, err := report.LoadMetadata(metadataPath)
		if err != nil {
			return err
		}
		req.Metadata = meta
	}

	reg := prometheus.NewRegistry()
	grader := application.NewGrader(application.GraderConfig{
		Logger:  logger,
		Metrics: middleware.NewPrometheusMetrics(reg),
	})

	r, err := grader.Synthesize(ctx, uuid.NewString(), results, req)
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}

	if outputPath != "" {
		if err := report.WriteFile(outputPath, r); err != nil {
			return err
		}
		logger.Info("results written", "path", outputPath)
	} else if err := report.WriteJSON(cmd.OutOrStdout(), r); err != nil {
		return err
	}

	if v.GetBool("summary") {
		if err := report.WriteSummary(cmd.ErrOrStderr(), r); err != nil {
			return err
		}
	}

	if path := v.GetString("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// ioPaths returns the metadata and output paths. Under --autograder, paths
// left unset fall back to the locations the grading platform uses.
func ioPaths(v *viper.Viper) (metadata, output string) {
	metadata, output = v.GetString("metadata"), v.GetString("output")
	if v.GetBool("autograder") {
		if metadata == "" {
			metadata = report.DefaultMetadataPath
		}
		if output == "" {
			output = report.DefaultResultsPath
		}
	}
	return metadata, output
}
