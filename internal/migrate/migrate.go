// Package migrate applies Postgres migration files once each, tracking the
// applied keys in a table of the target database.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Environment variables the migrations lambda reads. Credentials never
// appear here: the Data API resolves them from the secret.
const (
	EnvClusterArn    = "pgClusterArn"
	EnvDatabase      = "pgClusterDbName"
	EnvSecretArn     = "pgClusterSecretArn"
	EnvTable         = "pgClusterMigrationsTableName"
	EnvMigrationsDir = "pgClusterMigrationsLambdaMigrationsDir"
)

const (
	// DefaultTable tracks applied migration keys.
	DefaultTable = "appstack_migrations"
	// DefaultDir is where migrations sit inside the lambda package.
	DefaultDir = "migrations"
)

// Migration is one SQL file. Key is the file stem.
type Migration struct {
	Key  string
	Path string
}

// Load returns the .sql files of dir in lexical order.
func Load(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}
	var migrations []Migration
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		migrations = append(migrations, Migration{
			Key:  strings.TrimSuffix(e.Name(), ".sql"),
			Path: filepath.Join(dir, e.Name()),
		})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Key < migrations[j].Key })
	return migrations, nil
}

// Store persists migrations and their keys.
type Store interface {
	// Ensure creates the tracking table if needed.
	Ensure(ctx context.Context) error
	// Applied returns the recorded keys.
	Applied(ctx context.Context) (map[string]bool, error)
	// Apply executes the migrations and records their keys atomically.
	Apply(ctx context.Context, migrations []Migration) error
}

// Result lists what a run did.
type Result struct {
	Applied []string
	Skipped []string
}

// Run applies the migrations whose keys are not recorded yet.
func Run(ctx context.Context, store Store, migrations []Migration, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := store.Ensure(ctx); err != nil {
		return Result{}, fmt.Errorf("ensuring migrations table: %w", err)
	}
	applied, err := store.Applied(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading applied migrations: %w", err)
	}

	var result Result
	var pending []Migration
	for _, m := range migrations {
		if applied[m.Key] {
			result.Skipped = append(result.Skipped, m.Key)
			continue
		}
		pending = append(pending, m)
		result.Applied = append(result.Applied, m.Key)
	}

	if len(pending) == 0 {
		logger.Info("migrations up to date", "skipped", len(result.Skipped))
		return result, nil
	}
	if err := store.Apply(ctx, pending); err != nil {
		return Result{}, err
	}
	logger.Info("applied migrations", "applied", result.Applied, "skipped", len(result.Skipped))
	return result, nil
}

// ErrMissingSetting is returned when a connection setting is not set.
var ErrMissingSetting = errors.New("missing connection setting")

// Settings locates the cluster and the migrations.
type Settings struct {
	ClusterArn string
	SecretArn  string
	Database   string
	Table      string
	Dir        string
}

// SettingsFromEnv reads the settings injected into the migrations lambda.
func SettingsFromEnv(getenv func(string) string) (Settings, error) {
	s := Settings{
		ClusterArn: getenv(EnvClusterArn),
		SecretArn:  getenv(EnvSecretArn),
		Database:   getenv(EnvDatabase),
		Table:      getenv(EnvTable),
		Dir:        getenv(EnvMigrationsDir),
	}
	if err := s.check(); err != nil {
		return Settings{}, err
	}
	if s.Table == "" {
		s.Table = DefaultTable
	}
	if s.Dir == "" {
		s.Dir = DefaultDir
	}
	return s, nil
}

func (s Settings) check() error {
	required := []struct{ key, value string }{
		{EnvClusterArn, s.ClusterArn},
		{EnvSecretArn, s.SecretArn},
		{EnvDatabase, s.Database},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, r.key)
		}
	}
	return nil
}
