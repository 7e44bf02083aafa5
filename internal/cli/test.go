package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wmiq/internal/harness"
)

// TestOptions configures `wmiq test`.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string // glob over scenario file names, without extension
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult aggregates every scenario of a run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) record(sr ScenarioResult) {
	r.Scenarios = append(r.Scenarios, sr)
	if sr.Pass {
		r.Passed++
		return
	}
	r.Failed++
}

// NewTestCommand returns `wmiq test`.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run query scenarios",
		Long: `Run query scenarios against their fixtures.

Every scenario checks its own expectations. When <scenarios-dir>/golden
holds a file named after the scenario, the rendered results must also
match it byte for byte.

The exit status is 0 when every scenario passes, 1 when any scenario
fails and 2 when the directory or a flag is unusable.

  wmiq test ./scenarios
  wmiq test ./scenarios --filter "process-*"
  wmiq test ./scenarios --update
  wmiq test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files from the current results")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only scenarios whose name matches this glob")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if info, err := os.Stat(scenariosDir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	paths, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	out := newFormatter(cmd, opts.RootOptions)
	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(paths)), Total: len(paths)}
	for _, p := range paths {
		result.record(runScenario(p, opts, cmd))
	}

	if opts.Format == "json" {
		return outputTestJSON(out, result)
	}
	return outputTestText(cmd.OutOrStdout(), result)
}

// findScenarioFiles finds the YAML scenario files in dir. The golden
// directory is skipped.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(d.Name(), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenario loads, runs and golden-checks one scenario file, printing
// its line in text mode.
func runScenario(scenarioFile string, opts *TestOptions, cmd *cobra.Command) ScenarioResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	fail := func(name string, errs ...string) ScenarioResult {
		if text {
			fmt.Fprintf(w, "FAIL %s\n", name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return ScenarioResult{Name: name, Pass: false, Errors: errs}
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return fail(filepath.Base(scenarioFile), fmt.Sprintf("failed to load scenario: %v", err))
	}

	result, err := harness.Run(scenario, harness.WithLogger(opts.logger()))
	if err != nil {
		return fail(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}

	rendered, err := harness.Render(scenario.Name, result)
	if err != nil {
		return fail(scenario.Name, fmt.Sprintf("failed to render results: %v", err))
	}

	goldenPath := goldenFilePath(scenarioFile)
	if opts.Update {
		if err := updateGoldenFile(goldenPath, rendered); err != nil {
			return fail(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		if text {
			fmt.Fprintf(w, "ok   %s (golden updated)\n", scenario.Name)
		}
	} else {
		match, err := compareWithGolden(goldenPath, rendered)
		if err != nil {
			return fail(scenario.Name, fmt.Sprintf("golden comparison failed: %v", err))
		}
		if !match {
			return fail(scenario.Name, "results do not match golden file (run with --update to regenerate)")
		}
	}

	if !result.Pass {
		return fail(scenario.Name, result.Errors...)
	}
	if text && !opts.Update {
		fmt.Fprintf(w, "ok   %s\n", scenario.Name)
	}
	return ScenarioResult{Name: scenario.Name, Pass: true}
}

// goldenFilePath maps dir/x.yaml to dir/golden/x.golden.
func goldenFilePath(scenarioFile string) string {
	stem := strings.TrimSuffix(filepath.Base(scenarioFile), filepath.Ext(scenarioFile))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", stem+".golden")
}

func updateGoldenFile(goldenPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareWithGolden reports whether data matches the golden file. A
// missing golden file matches anything.
func compareWithGolden(goldenPath string, data []byte) (bool, error) {
	golden, err := os.ReadFile(goldenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	return bytes.Equal(golden, data), nil
}

func outputTestJSON(out *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}
	if err := out.encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func outputTestText(w io.Writer, result TestResult) error {
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "All scenarios passed")
	return nil
}
