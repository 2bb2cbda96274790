package harness

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/prperemyshlev/film-service/internal/config"
	"github.com/prperemyshlev/film-service/migrations"
	"github.com/prperemyshlev/film-service/pkg/database"
	"github.com/sethvargo/go-envconfig"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

//go:embed seed/films.sql
var seedFilmsSQL string

// FixtureConfig configures the disposable database.
type FixtureConfig struct {
	Image          string          `env:"IMAGE,default=postgres:16-alpine"`
	Database       string          `env:"DATABASE,default=testdb"`
	Username       string          `env:"USERNAME,default=testuser"`
	Password       string          `env:"PASSWORD,default=testpass"`
	StartupTimeout config.Duration `env:"STARTUP_TIMEOUT,default=60s"`
}

// LoadFixtureConfig reads FIXTURE_* environment variables.
func LoadFixtureConfig(ctx context.Context) (FixtureConfig, error) {
	var env struct {
		Fixture FixtureConfig `env:",prefix=FIXTURE_"`
	}

	if err := envconfig.Process(ctx, &env); err != nil {
		return FixtureConfig{}, fmt.Errorf("failed to load fixture configuration: %w", err)
	}

	if env.Fixture.StartupTimeout.Duration <= 0 {
		return FixtureConfig{}, fmt.Errorf("FIXTURE_STARTUP_TIMEOUT must be positive")
	}

	return env.Fixture, nil
}

// ExecResult is the outcome of a command run inside the fixture.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Instance is the view of a running fixture that checks need.
type Instance interface {
	IsRunning() bool
	DatabaseName() string
	Username() string
	ConnectionURI() string
	Exec(ctx context.Context, cmd []string) (ExecResult, error)
}

// Fixture is a disposable PostgreSQL instance seeded with the film catalog.
type Fixture struct {
	container *tcpostgres.PostgresContainer
	cfg       FixtureConfig
	uri       string
	logger    *zap.Logger
}

var _ Instance = (*Fixture)(nil)

// StartFixture starts the database and returns once it accepts connections
// and the catalog is loaded. Every failure is a *FixtureStartupError and
// leaves nothing running.
func StartFixture(ctx context.Context, cfg FixtureConfig, logger *zap.Logger) (*Fixture, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.StartupTimeout.Duration
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startupErr := func(stage string, err error) error {
		return &FixtureStartupError{Image: cfg.Image, Stage: stage, Timeout: timeout, Err: err}
	}

	logger.Info("Starting database fixture",
		zap.String("image", cfg.Image),
		zap.String("database", cfg.Database),
		zap.Duration("timeout", timeout),
	)
	started := time.Now()

	container, err := tcpostgres.Run(ctx, cfg.Image,
		tcpostgres.WithDatabase(cfg.Database),
		tcpostgres.WithUsername(cfg.Username),
		tcpostgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			// The server logs readiness twice: once for the init pass, once for real.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(timeout),
		),
	)
	if err != nil {
		if container != nil {
			_ = container.Terminate(context.Background())
		}
		return nil, startupErr("container", err)
	}

	f := &Fixture{container: container, cfg: cfg, logger: logger}

	uri, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		f.terminateQuietly()
		return nil, startupErr("connect", err)
	}
	f.uri = uri

	if stage, err := f.load(ctx); err != nil {
		f.terminateQuietly()
		return nil, startupErr(stage, err)
	}

	logger.Info("Database fixture ready",
		zap.String("uri", redactURI(uri)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return f, nil
}

// load migrates the schema and inserts the seed catalog.
func (f *Fixture) load(ctx context.Context) (string, error) {
	pg, err := database.NewPostgres(f.uri)
	if err != nil {
		return "connect", err
	}
	defer pg.Close()

	if err := pg.Migrate(migrations.FS); err != nil {
		return "migrate", err
	}

	if _, err := pg.DB.ExecContext(ctx, seedFilmsSQL); err != nil {
		return "seed", fmt.Errorf("failed to seed films: %w", err)
	}

	return "", nil
}

// IsRunning reports whether the database container is up.
func (f *Fixture) IsRunning() bool {
	return f.container != nil && f.container.IsRunning()
}

func (f *Fixture) DatabaseName() string {
	return f.cfg.Database
}

func (f *Fixture) Username() string {
	return f.cfg.Username
}

// ConnectionURI returns a postgres:// URI usable by lib/pq.
func (f *Fixture) ConnectionURI() string {
	return f.uri
}

// Exec runs cmd inside the database container and waits for it to finish.
// A non-zero exit returns the result together with an *ExecError.
func (f *Fixture) Exec(ctx context.Context, cmd []string) (ExecResult, error) {
	if f.container == nil {
		return ExecResult{}, errors.New("fixture is not started")
	}

	code, reader, err := f.container.Exec(ctx, cmd)
	if err != nil {
		return ExecResult{}, fmt.Errorf("failed to execute %q in fixture: %w", strings.Join(cmd, " "), err)
	}

	var stdout, stderr bytes.Buffer
	if reader != nil {
		if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
			return ExecResult{}, fmt.Errorf("failed to read output of %q: %w", strings.Join(cmd, " "), err)
		}
	}

	result := ExecResult{
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if code != 0 {
		return result, &ExecError{Cmd: cmd, ExitCode: code, Stderr: result.Stderr}
	}

	return result, nil
}

// QueryScalar runs sql through psql inside inst as username on database
// and returns the single unaligned value it prints. A non-zero psql exit
// is reported as *ExecError carrying its stderr.
func QueryScalar(ctx context.Context, inst Instance, username, database, sql string) (string, error) {
	cmd := PsqlCommand(username, database, sql)

	res, err := inst.Exec(ctx, cmd)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &ExecError{Cmd: cmd, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	return strings.TrimSpace(res.Stdout), nil
}

// Terminate stops and removes the database container.
func (f *Fixture) Terminate(ctx context.Context) error {
	if f.container == nil {
		return nil
	}

	if err := f.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate fixture: %w", err)
	}
	f.container = nil

	f.logger.Info("Database fixture terminated")
	return nil
}

func (f *Fixture) terminateQuietly() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := f.Terminate(ctx); err != nil {
		f.logger.Warn("failed to clean up fixture after startup error", zap.Error(err))
	}
}

// PsqlCommand builds a psql invocation printing bare tuples only.
func PsqlCommand(username, database, sql string) []string {
	return []string{"psql", "-U", username, "-d", database, "-t", "-A", "-c", sql}
}

// redactURI hides the password component of a connection URI for logging.
func redactURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	scheme := strings.Index(uri, "://")
	if at < 0 || scheme < 0 {
		return uri
	}
	creds := uri[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return uri[:scheme+3] + creds[:colon] + ":***" + uri[at:]
	}
	return uri
}
