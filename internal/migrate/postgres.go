package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects through the pgx database/sql driver and checks the
// connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// SQLStore keeps migration keys in a Postgres table.
type SQLStore struct {
	DB    *sql.DB
	Table string
}

func (s *SQLStore) table() string {
	return quoteTable(s.Table)
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s ("migrationKey" text PRIMARY KEY)`, table)
}

func selectKeysSQL(table string) string {
	return fmt.Sprintf(`SELECT "migrationKey" FROM %s`, table)
}

func insertKeySQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s ("migrationKey") VALUES ($1)`, table)
}

// insertNamedKeySQL is insertKeySQL with the Data API's named parameter.
func insertNamedKeySQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s ("migrationKey") VALUES (:key)`, table)
}

func quoteTable(name string) string {
	if name == "" {
		name = DefaultTable
	}
	return pgx.Identifier{name}.Sanitize()
}

// Ensure creates the tracking table.
func (s *SQLStore) Ensure(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, createTableSQL(s.table()))
	return err
}

// Applied returns every recorded key.
func (s *SQLStore) Applied(ctx context.Context) (map[string]bool, error) {
	rows, err := s.DB.QueryContext(ctx, selectKeysSQL(s.table()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys[key] = true
	}
	return keys, rows.Err()
}

// Apply runs every migration and records its key in one transaction.
func (s *SQLStore) Apply(ctx context.Context, migrations []Migration) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	insert := insertKeySQL(s.table())
	for _, m := range migrations {
		body, err := os.ReadFile(m.Path)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", m.Key, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("applying migration %s: %w", m.Key, err)
		}
		if _, err := tx.ExecContext(ctx, insert, m.Key); err != nil {
			return fmt.Errorf("recording migration %s: %w", m.Key, err)
		}
	}
	return tx.Commit()
}
