package migrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/appstack-go/internal/logging"
)

type fakeStore struct {
	applied    map[string]bool
	ensured    bool
	batches    [][]string
	applyErr   error
	appliedErr error
}

func (f *fakeStore) Ensure(ctx context.Context) error {
	f.ensured = true
	return nil
}

func (f *fakeStore) Applied(ctx context.Context) (map[string]bool, error) {
	if f.appliedErr != nil {
		return nil, f.appliedErr
	}
	out := make(map[string]bool, len(f.applied))
	for k, v := range f.applied {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) Apply(ctx context.Context, migrations []Migration) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	var keys []string
	for _, m := range migrations {
		keys = append(keys, m.Key)
		if f.applied == nil {
			f.applied = make(map[string]bool)
		}
		f.applied[m.Key] = true
	}
	f.batches = append(f.batches, keys)
	return nil
}

func writeMigrations(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0644))
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeMigrations(t, "002_orders.sql", "001_init.sql", "README.md", "010_index.sql")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.sql"), 0755))

	migrations, err := Load(dir)
	require.NoError(t, err)

	var keys []string
	for _, m := range migrations {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"001_init", "002_orders", "010_index"}, keys)
	assert.Equal(t, filepath.Join(dir, "001_init.sql"), migrations[0].Path)
}

func TestLoad_MissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	migrations := []Migration{{Key: "001_init"}, {Key: "002_orders"}, {Key: "003_index"}}

	tests := []struct {
		name        string
		applied     map[string]bool
		wantApplied []string
		wantSkipped []string
		wantBatches int
	}{
		{
			name:        "fresh database",
			wantApplied: []string{"001_init", "002_orders", "003_index"},
			wantBatches: 1,
		},
		{
			name:        "partially applied",
			applied:     map[string]bool{"001_init": true},
			wantApplied: []string{"002_orders", "003_index"},
			wantSkipped: []string{"001_init"},
			wantBatches: 1,
		},
		{
			name:        "up to date",
			applied:     map[string]bool{"001_init": true, "002_orders": true, "003_index": true},
			wantSkipped: []string{"001_init", "002_orders", "003_index"},
			wantBatches: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{applied: tt.applied}
			result, err := Run(context.Background(), store, migrations, logging.Discard())
			require.NoError(t, err)

			assert.True(t, store.ensured)
			assert.Equal(t, tt.wantApplied, result.Applied)
			assert.Equal(t, tt.wantSkipped, result.Skipped)
			assert.Len(t, store.batches, tt.wantBatches)
		})
	}
}

func TestRun_SecondRunIsNoop(t *testing.T) {
	store := &fakeStore{}
	migrations := []Migration{{Key: "001_init"}}

	_, err := Run(context.Background(), store, migrations, logging.Discard())
	require.NoError(t, err)
	result, err := Run(context.Background(), store, migrations, logging.Discard())
	require.NoError(t, err)

	assert.Empty(t, result.Applied)
	assert.Equal(t, []string{"001_init"}, result.Skipped)
	assert.Len(t, store.batches, 1)
}

func TestRun_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := Run(context.Background(), &fakeStore{appliedErr: boom}, nil, logging.Discard())
	assert.ErrorIs(t, err, boom)

	_, err = Run(context.Background(), &fakeStore{applyErr: boom}, []Migration{{Key: "001"}}, logging.Discard())
	assert.ErrorIs(t, err, boom)
}

func TestSettingsFromEnv(t *testing.T) {
	env := map[string]string{
		EnvClusterArn: "arn:aws:rds:us-east-1:123456789012:cluster:app-dev-postgres-cluster",
		EnvSecretArn:  "arn:aws:secretsmanager:us-east-1:123456789012:secret:app",
		EnvDatabase:   "App",
	}
	s, err := SettingsFromEnv(func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, "App", s.Database)
	assert.Equal(t, DefaultTable, s.Table)
	assert.Equal(t, DefaultDir, s.Dir)

	delete(env, EnvSecretArn)
	_, err = SettingsFromEnv(func(k string) string { return env[k] })
	assert.ErrorIs(t, err, ErrMissingSetting)
	assert.Contains(t, err.Error(), EnvSecretArn)
}

func TestSQLStatements(t *testing.T) {
	store := &SQLStore{}
	table := store.table()
	assert.Equal(t, `"appstack_migrations"`, table)

	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "appstack_migrations" ("migrationKey" text PRIMARY KEY)`, createTableSQL(table))
	assert.Equal(t, `SELECT "migrationKey" FROM "appstack_migrations"`, selectKeysSQL(table))
	assert.Equal(t, `INSERT INTO "appstack_migrations" ("migrationKey") VALUES ($1)`, insertKeySQL(table))
	assert.Equal(t, `INSERT INTO "appstack_migrations" ("migrationKey") VALUES (:key)`, insertNamedKeySQL(table))

	custom := (&SQLStore{Table: `odd"name`}).table()
	assert.Equal(t, `"odd""name"`, custom)
}
