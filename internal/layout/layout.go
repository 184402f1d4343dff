// Package layout locates the convention directories of a project tree.
//
// Every path is resolved against an explicit Root; nothing depends on the
// process working directory.
package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Default paths relative to the project root.
const (
	DefaultLambdasDir      = "src/lambdas"
	DefaultTablesDir       = "src/databases/dynamodb/tables"
	DefaultMigrationsDir   = "src/databases/postgres/migrations"
	DefaultSchemaFile      = "src/graphql/schema.graphql"
	DefaultResolversDir    = "src/graphql/resolvers"
	DefaultFunctionsSubdir = "functions"
)

// Layout describes where each resource family lives. Relative paths are
// resolved against Root.
type Layout struct {
	Root          string
	LambdasDir    string
	TablesDir     string
	MigrationsDir string
	SchemaFile    string
	ResolversDir  string
	FunctionsDir  string
}

// Overrides replaces individual paths of the default layout.
type Overrides struct {
	Lambdas    string `json:"lambdas,omitempty" yaml:"lambdas,omitempty"`
	Tables     string `json:"tables,omitempty" yaml:"tables,omitempty"`
	Migrations string `json:"migrations,omitempty" yaml:"migrations,omitempty"`
	Schema     string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Resolvers  string `json:"resolvers,omitempty" yaml:"resolvers,omitempty"`
	Functions  string `json:"functions,omitempty" yaml:"functions,omitempty"`
}

// New returns the default layout rooted at root.
func New(root string) Layout {
	return Layout{
		Root:          root,
		LambdasDir:    DefaultLambdasDir,
		TablesDir:     DefaultTablesDir,
		MigrationsDir: DefaultMigrationsDir,
		SchemaFile:    DefaultSchemaFile,
		ResolversDir:  DefaultResolversDir,
		FunctionsDir:  filepath.Join(DefaultResolversDir, DefaultFunctionsSubdir),
	}
}

// With applies non-empty overrides.
func (l Layout) With(o Overrides) Layout {
	if o.Lambdas != "" {
		l.LambdasDir = o.Lambdas
	}
	if o.Tables != "" {
		l.TablesDir = o.Tables
	}
	if o.Migrations != "" {
		l.MigrationsDir = o.Migrations
	}
	if o.Schema != "" {
		l.SchemaFile = o.Schema
	}
	if o.Resolvers != "" {
		l.ResolversDir = o.Resolvers
		if o.Functions == "" {
			l.FunctionsDir = filepath.Join(o.Resolvers, DefaultFunctionsSubdir)
		}
	}
	if o.Functions != "" {
		l.FunctionsDir = o.Functions
	}
	return l
}

// Path resolves p against the layout root.
func (l Layout) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.Root, p)
}

// Lambdas returns the sorted names of the lambda source folders.
func (l Layout) Lambdas() ([]string, error) {
	return l.list(l.LambdasDir, true, "")
}

// Tables returns the sorted table definition file names.
func (l Layout) Tables() ([]string, error) {
	return l.list(l.TablesDir, false, "")
}

// Migrations returns the sorted migration file names.
func (l Layout) Migrations() ([]string, error) {
	return l.list(l.MigrationsDir, false, ".sql")
}

// HasMigrations reports whether the migrations directory exists. Its presence
// enables the Postgres cluster even when it holds no files yet.
func (l Layout) HasMigrations() (bool, error) {
	return l.isDir(l.MigrationsDir)
}

// Resolvers returns the sorted resolver mapping file names. Subdirectories,
// including the functions directory, are skipped.
func (l Layout) Resolvers() ([]string, error) {
	return l.list(l.ResolversDir, false, "")
}

// Functions returns the sorted pipeline function mapping file names.
func (l Layout) Functions() ([]string, error) {
	return l.list(l.FunctionsDir, false, "")
}

// Schema reads the GraphQL schema. ok is false when the file does not exist.
func (l Layout) Schema() (schema string, ok bool, err error) {
	data, err := os.ReadFile(l.Path(l.SchemaFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading schema: %w", err)
	}
	return string(data), true, nil
}

// Watched returns the directories that affect synthesis, for file watching.
func (l Layout) Watched() []string {
	dirs := []string{
		l.LambdasDir,
		l.TablesDir,
		l.MigrationsDir,
		filepath.Dir(l.SchemaFile),
		l.ResolversDir,
		l.FunctionsDir,
	}
	seen := make(map[string]bool)
	var out []string
	for _, d := range dirs {
		p := l.Path(d)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func (l Layout) isDir(dir string) (bool, error) {
	info, err := os.Stat(l.Path(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// list returns entry names in dir. A missing directory yields no entries.
func (l Layout) list(dir string, dirs bool, ext string) ([]string, error) {
	entries, err := os.ReadDir(l.Path(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() != dirs {
			continue
		}
		if ext != "" && filepath.Ext(name) != ext {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
