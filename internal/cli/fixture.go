package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prperemyshlev/film-service/internal/harness"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewFixtureCommand creates the fixture command.
func NewFixtureCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fixture",
		Short: "Start the seeded PostgreSQL catalog and wait",
		Long: `Start a disposable PostgreSQL instance seeded with the film catalog,
print its connection URI and keep it running until interrupted.

FIXTURE_IMAGE, FIXTURE_DATABASE, FIXTURE_USERNAME, FIXTURE_PASSWORD and
FIXTURE_STARTUP_TIMEOUT override the defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixture(cmd, rootOpts)
		},
	}
}

func runFixture(cmd *cobra.Command, opts *RootOptions) error {
	logger, err := opts.Logger()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize logger", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := harness.LoadFixtureConfig(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid fixture configuration", err)
	}

	fixture, err := harness.StartFixture(ctx, cfg, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "fixture did not start", err)
	}
	defer func() {
		termCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := fixture.Terminate(termCtx); err != nil {
			logger.Error("Failed to terminate fixture", zap.Error(err))
		}
	}()

	if err := harness.CheckFixtureSetup(ctx, fixture, harness.FixtureExpectations{
		DatabaseName: cfg.Database,
		Username:     cfg.Username,
		FilmCount:    harness.TotalFixtureFilms,
	}); err != nil {
		return WrapExitError(ExitFailure, "fixture failed verification", err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		_ = json.NewEncoder(out).Encode(map[string]string{
			"uri":      fixture.ConnectionURI(),
			"database": fixture.DatabaseName(),
			"username": fixture.Username(),
		})
	} else {
		fmt.Fprintln(out, fixture.ConnectionURI())
		fmt.Fprintln(out, "Press Ctrl-C to stop.")
	}

	<-ctx.Done()
	logger.Info("Received shutdown signal")
	return nil
}
