package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prperemyshlev/film-service/internal/harness"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	BaseURL string
	Cases   string
	Timeout time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run lookup cases against a running service",
		Long: `Run lookup cases against a running film service.

Without --cases the built-in cases for the seeded catalog are used.

Example:
  filmcheck run --base-url http://localhost:8080
  filmcheck run --base-url http://localhost:8080 --cases cases.yaml --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCases(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "service address, e.g. http://localhost:8080 (required)")
	cmd.Flags().StringVar(&opts.Cases, "cases", "", "YAML file with case definitions")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "per-request timeout")
	_ = cmd.MarkFlagRequired("base-url")

	return cmd
}

func runCases(cmd *cobra.Command, opts *RunOptions) error {
	logger, err := opts.Logger()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize logger", err)
	}
	defer func() { _ = logger.Sync() }()

	cases := harness.DefaultCases()
	if opts.Cases != "" {
		cases, err = harness.LoadCases(opts.Cases)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load cases", err)
		}
	}

	client := harness.NewClient(opts.BaseURL,
		harness.WithTimeout(opts.Timeout),
		harness.WithLogger(logger),
	)

	logger.Debug("Running cases", zap.String("base_url", client.BaseURL()), zap.Int("cases", len(cases)))

	report, runErr := harness.NewRunner(client, logger).Run(cmd.Context(), cases)

	if err := writeReport(cmd.OutOrStdout(), opts.Format, report); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	if runErr != nil {
		return WrapExitError(ExitCommandError, "service unreachable", runErr)
	}

	if !report.OK() {
		return WrapExitError(ExitFailure, fmt.Sprintf("%d of %d cases failed", report.Failed, report.Total), nil)
	}
	return nil
}

func writeReport(w io.Writer, format string, report harness.Report) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, res := range report.Results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s  %-40s startsWith=%q  %s\n", status, res.Case.Name, res.Case.StartsWith, res.Duration.Round(time.Millisecond))
		for _, f := range res.Failures {
			fmt.Fprintf(w, "      - %s\n", strings.TrimSpace(f))
		}
	}
	_, err := fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", report.Passed, report.Failed, report.Total)
	return err
}
