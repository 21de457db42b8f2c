package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ahrav/go-grader/internal/application"
)

func newCheckCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate problem files",
		Long: "Parse and validate problem files: schema, scoring fields and whether the " +
			"fixed points fit the declared total. Check and hook names are not resolved.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, v)
		},
	}
	cmd.Flags().StringSlice("config", nil, "problem file to validate (repeatable)")
	return cmd
}

func runCheck(cmd *cobra.Command, v *viper.Viper) error {
	paths := v.GetStringSlice("config")
	if len(paths) == 0 {
		return fmt.Errorf("at least one --config is required")
	}

	out := cmd.OutOrStdout()
	var errs []error
	for _, path := range paths {
		summary, err := checkFile(path)
		if err != nil {
			fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		fmt.Fprintf(out, "ok   %s: %s\n", path, summary)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d problem files invalid: %w", len(errs), len(paths), errors.Join(errs...))
	}
	return nil
}

func checkFile(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	defer f.Close()

	config, err := application.ValidateProblemConfig(f)
	if err != nil {
		return "", err
	}

	var fixed, weight float64
	for _, tc := range config.Tests {
		if tc.MaxScore != nil {
			fixed += *tc.MaxScore
		}
		if tc.Weight != nil {
			weight += *tc.Weight
		}
	}
	return fmt.Sprintf("%d tests, %d hooks, %g fixed points, total weight %g",
		len(config.Tests), len(config.Hooks), fixed, weight), nil
}
