package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted when flags are empty.
const (
	EnvVarEnv       = "APPSTACK_ENV"
	EnvVarNamespace = "APPSTACK_NAMESPACE"
)

// ContextBase is the base name of the context files.
const ContextBase = "appstack"

var contextExts = []string{".json", ".yaml", ".yml"}

// Options controls Load.
type Options struct {
	// Root is the project root holding the context files.
	Root string
	// Env and Namespace take precedence over every other source.
	Env       string
	Namespace string
}

// Load reads, merges and validates the configuration context.
func Load(opts Options) (*Config, error) {
	if err := loadDotenv(filepath.Join(opts.Root, ".env")); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	base, _, err := readContext(opts.Root, ContextBase)
	if err != nil {
		return nil, err
	}

	env := firstNonEmpty(opts.Env, os.Getenv(EnvVarEnv), stringValue(base["env"]))
	namespace := firstNonEmpty(opts.Namespace, os.Getenv(EnvVarNamespace), stringValue(base["namespace"]))

	merged := base
	if env != "" {
		overlay, _, err := readContext(opts.Root, ContextBase+"."+env)
		if err != nil {
			return nil, err
		}
		merged = Merge(base, overlay)
	}

	if env != "" {
		merged["env"] = env
	}
	if namespace != "" {
		merged["namespace"] = namespace
	}

	cfg, err := Decode(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Files returns the context files Load would read for env, existing or not.
func Files(root, env string) []string {
	var files []string
	for _, ext := range contextExts {
		files = append(files, filepath.Join(root, ContextBase+ext))
	}
	if env != "" {
		for _, ext := range contextExts {
			files = append(files, filepath.Join(root, ContextBase+"."+env+ext))
		}
	}
	return append(files, filepath.Join(root, ".env"))
}

// Decode converts a merged context map into a Config.
func Decode(m map[string]any) (*Config, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &cfg, nil
}

// dotenvSet holds the variables loadDotenv set and the values it set them to.
var (
	dotenvMu  sync.Mutex
	dotenvSet = make(map[string]string)
)

// loadDotenv applies path to the process environment. Variables set
// elsewhere win. Variables an earlier call set are refreshed on every call
// and unset once they leave the file, so a long running watch sees edits.
func loadDotenv(path string) error {
	values, err := godotenv.Read(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	dotenvMu.Lock()
	defer dotenvMu.Unlock()

	for key, prev := range dotenvSet {
		if cur, ok := os.LookupEnv(key); !ok || cur != prev {
			// changed outside .env since
			delete(dotenvSet, key)
			continue
		}
		if _, keep := values[key]; !keep {
			if err := os.Unsetenv(key); err != nil {
				return err
			}
			delete(dotenvSet, key)
		}
	}

	for key, value := range values {
		if _, owned := dotenvSet[key]; !owned {
			if _, set := os.LookupEnv(key); set {
				continue
			}
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
		dotenvSet[key] = value
	}
	return nil
}

// Merge deep-merges overlay into a copy of base. Maps merge recursively;
// any other overlay value replaces the base value.
func Merge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		bm, bok := out[k].(map[string]any)
		om, ook := v.(map[string]any)
		if bok && ook {
			out[k] = Merge(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}

// readContext reads the first existing <name>.json|yaml|yml under root.
func readContext(root, name string) (map[string]any, string, error) {
	for _, ext := range contextExts {
		path := filepath.Join(root, name+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("reading %s: %w", path, err)
		}

		m := make(map[string]any)
		if strings.HasSuffix(path, ".json") {
			err = json.Unmarshal(data, &m)
		} else {
			err = yaml.Unmarshal(data, &m)
		}
		if err != nil {
			return nil, "", fmt.Errorf("parsing %s: %w", path, err)
		}
		if m == nil {
			m = make(map[string]any)
		}
		return m, path, nil
	}
	return make(map[string]any), "", nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
