package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-grader/infrastructure/report"
)

const outcomesJSON = `[
	{"name": "test_reverse", "display_name": "Reverse", "max_score": 8},
	{"name": "test_sort", "weight": 1, "errors": ["expected [1 2], got [2 1]"]},
	{"name": "test_secret", "weight": 1, "hidden": true}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func decodeScore(t *testing.T, data string) float64 {
	t.Helper()
	var doc struct {
		Score float64 `json:"score"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &doc))
	return doc.Score
}

func TestSynthesizeCmd(t *testing.T) {
	outcomes := writeFile(t, "outcomes.json", outcomesJSON)
	metadata := writeFile(t, "metadata.json", `{"id": 1, "assignment": {"total_points": "10.0"}}`)
	numericMetadata := writeFile(t, "numeric.json", `{"id": 2, "assignment": {"total_points": 10}}`)

	tests := []struct {
		name string
		args []string
		env  map[string]string
		want float64
	}{
		{name: "default total", args: nil, want: 14},
		{name: "explicit total", args: []string{"--total-score", "30"}, want: 19},
		{name: "total from environment", env: map[string]string{"GAPPER_TOTAL_SCORE": "30"}, want: 19},
		{name: "metadata wins over flag", args: []string{"--metadata", metadata, "--total-score", "30"}, want: 9},
		{name: "numeric total points", args: []string{"--metadata", numericMetadata}, want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := append([]string{"synthesize", "--outcomes", outcomes, "--log-level", "error"}, tt.args...)

			stdout, _, err := execute(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decodeScore(t, stdout))
		})
	}
}

func TestSynthesizeCmd_Outputs(t *testing.T) {
	outcomes := writeFile(t, "outcomes.json", outcomesJSON)
	dir := t.TempDir()
	results := filepath.Join(dir, "results.json")
	metrics := filepath.Join(dir, "grading.prom")

	stdout, stderr, err := execute(t, "synthesize",
		"--outcomes", outcomes,
		"--output", results,
		"--metrics-file", metrics,
		"--summary",
	)
	require.NoError(t, err)
	assert.Empty(t, stdout, "results go to the file when --output is set")
	assert.Contains(t, stderr, "Score: 14/20")

	data, err := os.ReadFile(results)
	require.NoError(t, err)
	assert.Equal(t, 14.0, decodeScore(t, string(data)))

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "grading_")
}

func TestIOPaths(t *testing.T) {
	tests := []struct {
		name         string
		set          map[string]any
		wantMetadata string
		wantOutput   string
	}{
		{name: "nothing set"},
		{
			name:         "explicit paths",
			set:          map[string]any{"metadata": "meta.json", "output": "out.json"},
			wantMetadata: "meta.json",
			wantOutput:   "out.json",
		},
		{
			name:         "autograder defaults",
			set:          map[string]any{"autograder": true},
			wantMetadata: report.DefaultMetadataPath,
			wantOutput:   report.DefaultResultsPath,
		},
		{
			name:         "autograder with explicit output",
			set:          map[string]any{"autograder": true, "output": "out.json"},
			wantMetadata: report.DefaultMetadataPath,
			wantOutput:   "out.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			metadata, output := ioPaths(v)
			assert.Equal(t, tt.wantMetadata, metadata)
			assert.Equal(t, tt.wantOutput, output)
		})
	}
}

func TestSynthesizeCmd_Errors(t *testing.T) {
	overAllocated := writeFile(t, "over.json", `[{"name": "a", "max_score": 25}]`)
	badStatus := writeFile(t, "status.json", `[{"name": "a", "status": "skipped"}]`)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing outcomes flag", args: []string{"synthesize"}, wantErr: "--outcomes is required"},
		{name: "missing file", args: []string{"synthesize", "--outcomes", "/nonexistent/outcomes.json"}, wantErr: "failed to open outcomes"},
		{name: "unknown status", args: []string{"synthesize", "--outcomes", badStatus}, wantErr: "unknown status"},
		{name: "over allocated", args: []string{"synthesize", "--outcomes", overAllocated}, wantErr: "synthesis failed"},
		{name: "bad log level", args: []string{"synthesize", "--outcomes", badStatus, "--log-level", "loud"}, wantErr: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckCmd(t *testing.T) {
	valid := writeFile(t, "lab1.yaml", `
version: "1.0.0"
metadata:
  name: "lab1"
total_score: 20
hooks:
  - name: compile
    kind: pre
    hook: compile
tests:
  - name: test_reverse
    check: reverse
    max_score: 8
  - name: test_sort
    check: sort
    weight: 1
`)
	overAllocated := writeFile(t, "lab2.yaml", `
version: "1.0.0"
metadata:
  name: "lab2"
total_score: 5
tests:
  - name: test_reverse
    check: reverse
    max_score: 8
`)

	t.Run("valid file", func(t *testing.T) {
		stdout, _, err := execute(t, "check", "--config", valid)
		require.NoError(t, err)
		assert.Contains(t, stdout, "ok")
		assert.Contains(t, stdout, "2 tests, 1 hooks, 8 fixed points, total weight 1")
	})

	t.Run("one invalid file fails the run", func(t *testing.T) {
		stdout, _, err := execute(t, "check", "--config", valid, "--config", overAllocated)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 problem files invalid")
		assert.Contains(t, stdout, "FAIL "+overAllocated)
	})

	t.Run("no files", func(t *testing.T) {
		_, _, err := execute(t, "check")
		assert.Error(t, err)
	})
}
