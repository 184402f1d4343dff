package stack

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	appstack "github.com/lex00/appstack-go"
	"github.com/lex00/appstack-go/internal/asset"
	"github.com/lex00/appstack-go/internal/bundle"
	"github.com/lex00/appstack-go/internal/config"
	"github.com/lex00/appstack-go/internal/descriptor"
	"github.com/lex00/appstack-go/internal/layout"
)

// Options configures Assemble.
type Options struct {
	Layout layout.Layout
	Config *config.Config
	// Bundler builds lambda folders. Defaults to CommandBundler when the
	// config names a bundle command, CopyBundler otherwise.
	Bundler bundle.Bundler
	// Packager zips bundled lambdas. Defaults to a ZipPackager that only
	// hashes.
	Packager asset.Packager
	// BundleDir is the bundler scratch directory. A temporary directory is
	// used when empty.
	BundleDir string
	// MigrationsHandler is a prebuilt pg-migrations bootstrap binary packaged
	// with the migration files.
	MigrationsHandler string
	Logger            *slog.Logger
}

// project is the scanned and parsed project tree.
type project struct {
	lambdas    []string
	tables     []*descriptor.Table
	postgres   bool
	migrations []string
	schema     string
	hasSchema  bool
	resolvers  []*descriptor.Resolver
	functions  []*descriptor.Function
}

// assembler carries the handles registered so far.
type assembler struct {
	opts  Options
	cfg   *config.Config
	log   *slog.Logger
	stack *Stack
	proj  *project
	// assets holds the packaged lambdas by folder name.
	assets     map[string]asset.Asset
	migrations asset.Asset

	lambdas      map[string]*lambdaHandles
	tables       map[string]Handle
	cluster      *clusterHandles
	api          Handle
	schema       *Handle
	dataSources  map[string]Handle
	functions    map[string]Handle
	userPool     Handle
	client       Handle
	identityPool Handle

	outputs []map[string]any
}

// Assemble reads the project and returns the assembled stack. Any failure
// aborts the whole run.
func Assemble(ctx context.Context, opts Options) (*Stack, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: no configuration", config.ErrInvalid)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Packager == nil {
		opts.Packager = asset.ZipPackager{}
	}
	if opts.Bundler == nil {
		if cmd := opts.Config.Bundle.Command; cmd != "" {
			opts.Bundler = bundle.CommandBundler{Command: cmd}
		} else {
			opts.Bundler = bundle.CopyBundler{}
		}
	}

	a := &assembler{
		opts:        opts,
		cfg:         opts.Config,
		log:         opts.Logger.With("stack", opts.Config.ArtifactID()),
		stack:       New(opts.Config.ArtifactID()),
		assets:      make(map[string]asset.Asset),
		lambdas:     make(map[string]*lambdaHandles),
		tables:      make(map[string]Handle),
		dataSources: make(map[string]Handle),
		functions:   make(map[string]Handle),
	}

	proj, err := scan(opts.Layout)
	if err != nil {
		return nil, err
	}
	a.proj = proj
	a.log.Debug("scanned project",
		"lambdas", len(proj.lambdas),
		"tables", len(proj.tables),
		"postgres", proj.postgres,
		"migrations", len(proj.migrations),
		"resolvers", len(proj.resolvers),
		"functions", len(proj.functions),
		"schema", proj.hasSchema)

	if err := a.packageAssets(ctx); err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"lambdas", a.addLambdas},
		{"tables", a.addTables},
		{"postgres", a.addPostgres},
		{"api", a.addAPI},
		{"user pool", a.addUserPool},
		{"user pool client", a.addUserPoolClient},
		{"identity pool", a.addIdentityPool},
		{"identity roles", a.addIdentityRoles},
		{"lambda policies", a.addLambdaPolicies},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a.log.Debug("wiring", "step", step.name)
		if err := step.fn(); err != nil {
			return nil, err
		}
	}

	outputs, err := MergeOutputs(a.outputs...)
	if err != nil {
		return nil, err
	}
	a.stack.Outputs = outputs

	a.log.Info("assembled stack",
		"resources", len(a.stack.entries),
		"outputs", len(outputs),
		"assets", len(a.stack.Assets.Assets))
	return a.stack, nil
}

// scan lists the layout and parses every descriptor.
func scan(l layout.Layout) (*project, error) {
	p := &project{}
	var err error

	if p.lambdas, err = l.Lambdas(); err != nil {
		return nil, err
	}

	tableFiles, err := l.Tables()
	if err != nil {
		return nil, err
	}
	if p.tables, err = descriptor.ParseTables(l.Path(l.TablesDir), tableFiles); err != nil {
		return nil, err
	}

	if p.postgres, err = l.HasMigrations(); err != nil {
		return nil, err
	}
	if p.migrations, err = l.Migrations(); err != nil {
		return nil, err
	}

	if p.schema, p.hasSchema, err = l.Schema(); err != nil {
		return nil, err
	}

	resolverFiles, err := l.Resolvers()
	if err != nil {
		return nil, err
	}
	if p.resolvers, err = descriptor.ParseResolvers(l.Path(l.ResolversDir), resolverFiles); err != nil {
		return nil, err
	}

	functionFiles, err := l.Functions()
	if err != nil {
		return nil, err
	}
	if p.functions, err = descriptor.ParseFunctions(l.Path(l.FunctionsDir), functionFiles); err != nil {
		return nil, err
	}
	return p, nil
}

// packageAssets bundles every lambda concurrently, then packages the
// bundles and the migrations into hashed zips.
func (a *assembler) packageAssets(ctx context.Context) error {
	if len(a.proj.lambdas) > 0 {
		bundleDir := a.opts.BundleDir
		if bundleDir == "" {
			tmp, err := os.MkdirTemp("", "appstack-bundle-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(tmp)
			bundleDir = tmp
		}

		timeout, err := a.cfg.BundleTimeout()
		if err != nil {
			return err
		}
		reqs := bundle.Requests(a.opts.Layout.Path(a.opts.Layout.LambdasDir), bundleDir, a.proj.lambdas)
		results, err := bundle.BundleAll(ctx, a.opts.Bundler, reqs, timeout)
		if err != nil {
			return err
		}

		for _, res := range results {
			entries, err := asset.DirEntries(res.Dir, "")
			if err != nil {
				return fmt.Errorf("packaging %s: %w", res.Name, err)
			}
			pkg, err := a.addAsset(res.Name, entries)
			if err != nil {
				return err
			}
			a.assets[res.Name] = pkg
		}
	}

	if a.proj.postgres {
		dir := a.opts.Layout.Path(a.opts.Layout.MigrationsDir)
		entries := make([]asset.Entry, 0, len(a.proj.migrations)+1)
		for _, file := range a.proj.migrations {
			entries = append(entries, asset.Entry{
				Name:   "migrations/" + file,
				Source: filepath.Join(dir, file),
			})
		}
		if h := a.opts.MigrationsHandler; h != "" {
			entries = append(entries, asset.Entry{Name: "bootstrap", Source: h, Executable: true})
		} else {
			a.log.Warn("no migrations handler binary given, the migrations lambda package holds only SQL files")
		}
		pkg, err := a.addAsset("pg-migrations", entries)
		if err != nil {
			return err
		}
		a.migrations = pkg
	}

	if len(a.stack.Assets.Assets) > 0 {
		a.stack.Parameters[AssetBucket] = appstack.Parameter{
			Type:        "String",
			Description: "Bucket holding the lambda code assets",
		}
	}
	return nil
}

func (a *assembler) addAsset(name string, entries []asset.Entry) (asset.Asset, error) {
	pkg, err := a.opts.Packager.Package(name, entries)
	if err != nil {
		return asset.Asset{}, err
	}
	a.stack.Assets.Add(pkg)
	a.log.Debug("packaged asset", "name", name, "hash", pkg.Hash, "size", pkg.Size)
	return pkg, nil
}
