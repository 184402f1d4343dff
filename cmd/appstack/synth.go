package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	appstack "github.com/lex00/appstack-go"
	"github.com/lex00/appstack-go/internal/asset"
	"github.com/lex00/appstack-go/internal/config"
	"github.com/lex00/appstack-go/internal/layout"
	"github.com/lex00/appstack-go/internal/stack"
	"github.com/lex00/appstack-go/internal/template"
)

// projectFlags are the flags shared by every command that synthesizes.
type projectFlags struct {
	env           string
	namespace     string
	assetsDir     string
	migrationsBin string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.env, "env", "", "Environment name (default: $"+config.EnvVarEnv+" or the context file)")
	cmd.Flags().StringVar(&f.namespace, "namespace", "", "Namespace (default: $"+config.EnvVarNamespace+" or the context file)")
	cmd.Flags().StringVar(&f.assetsDir, "assets-dir", "", "Directory the lambda zips and "+asset.ManifestFile+" are written to")
	cmd.Flags().StringVar(&f.migrationsBin, "pg-migrations-bin", "", "Prebuilt pg-migrations bootstrap binary to package with the migrations")
}

// synthesis is the outcome of one synthesize call.
type synthesis struct {
	root     string
	config   *config.Config
	layout   layout.Layout
	stack    *stack.Stack
	template *appstack.Template
}

// rootArg returns the project root named by args, or ".".
func rootArg(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	return filepath.Abs(root)
}

// synthesize loads the configuration of root, assembles the stack and
// builds its template.
func synthesize(ctx context.Context, root string, f projectFlags) (*synthesis, error) {
	cfg, err := config.Load(config.Options{
		Root:      root,
		Env:       f.env,
		Namespace: f.namespace,
	})
	if err != nil {
		return nil, err
	}

	l := layout.New(root).With(cfg.Layout)

	s, err := stack.Assemble(ctx, stack.Options{
		Layout:            l,
		Config:            cfg,
		Packager:          asset.ZipPackager{OutDir: f.assetsDir},
		MigrationsHandler: f.migrationsBin,
		Logger:            slog.Default(),
	})
	if err != nil {
		return nil, err
	}

	tmpl, err := s.Template()
	if err != nil {
		return nil, err
	}

	return &synthesis{
		root:     root,
		config:   cfg,
		layout:   l,
		stack:    s,
		template: tmpl,
	}, nil
}

// encodeTemplate renders t as json or yaml.
func encodeTemplate(t *appstack.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return template.ToJSON(t)
	case "yaml":
		return template.ToYAML(t)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// layoutFor returns the layout of root, honouring the context's overrides
// when the context loads.
func layoutFor(root string, f projectFlags) layout.Layout {
	l := layout.New(root)
	cfg, err := config.Load(config.Options{Root: root, Env: f.env, Namespace: f.namespace})
	if err != nil {
		return l
	}
	return l.With(cfg.Layout)
}
