package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0644))
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvVarEnv, "")
	t.Setenv(EnvVarNamespace, "")
}

func TestLoad_FromContextFile(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeFile(t, root, "appstack.json", `{
		"env": "dev",
		"namespace": "app",
		"auth": {"selfSignUpEnabled": true},
		"lambdas": {"hello": {"memorySize": 256}}
	}`)

	cfg, err := Load(Options{Root: root})
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "app", cfg.Namespace)
	assert.Equal(t, "AppDev", cfg.ArtifactID())
	assert.True(t, cfg.Auth.SelfSignUpEnabled)
	assert.Equal(t, 256, cfg.Lambdas["hello"].MemorySize)
	assert.Equal(t, UnresolvedError, cfg.UnresolvedDataSource())
}

func TestLoad_EnvOverlay(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeFile(t, root, "appstack.json", `{
		"namespace": "app",
		"auth": {"selfSignUpEnabled": true, "allowUnauthenticatedIdentities": false},
		"lambdas": {"hello": {"memorySize": 256, "timeout": 3}}
	}`)
	writeFile(t, root, "appstack.prod.yaml", `
auth:
  allowUnauthenticatedIdentities: true
lambdas:
  hello:
    memorySize: 1024
`)

	cfg, err := Load(Options{Root: root, Env: "prod"})
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.True(t, cfg.Auth.SelfSignUpEnabled, "base keys survive the overlay")
	assert.True(t, cfg.Auth.AllowUnauthenticatedIdentities)
	assert.Equal(t, 1024, cfg.Lambdas["hello"].MemorySize)
	assert.Equal(t, 3, cfg.Lambdas["hello"].Timeout)
}

func TestLoad_Precedence(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "appstack.yml", "env: dev\nnamespace: file\n")

	t.Setenv(EnvVarEnv, "")
	t.Setenv(EnvVarNamespace, "fromenv")

	cfg, err := Load(Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Namespace)

	cfg, err = Load(Options{Root: root, Namespace: "flag", Env: "qa"})
	require.NoError(t, err)
	assert.Equal(t, "flag", cfg.Namespace)
	assert.Equal(t, "qa", cfg.Env)
}

func TestLoad_DotEnv(t *testing.T) {
	resetDotenv(t, EnvVarEnv, EnvVarNamespace)
	root := t.TempDir()
	writeFile(t, root, ".env", "APPSTACK_ENV=staging\nAPPSTACK_NAMESPACE=shop\n")

	cfg, err := Load(Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, "shop", cfg.Namespace)
}

func resetDotenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		dotenvMu.Lock()
		defer dotenvMu.Unlock()
		dotenvSet = make(map[string]string)
	})
}

func TestLoadDotenv_Refresh(t *testing.T) {
	const owned, shell = "APPSTACK_TEST_DOTENV_OWNED", "APPSTACK_TEST_DOTENV_SHELL"
	resetDotenv(t, owned)
	t.Setenv(shell, "from-shell")
	root := t.TempDir()
	path := filepath.Join(root, ".env")

	writeFile(t, root, ".env", owned+"=one\n"+shell+"=from-file\n")
	require.NoError(t, loadDotenv(path))
	assert.Equal(t, "one", os.Getenv(owned))
	assert.Equal(t, "from-shell", os.Getenv(shell))

	writeFile(t, root, ".env", owned+"=two\n")
	require.NoError(t, loadDotenv(path))
	assert.Equal(t, "two", os.Getenv(owned))

	// a value changed outside .env is left alone
	os.Setenv(owned, "manual")
	writeFile(t, root, ".env", owned+"=three\n")
	require.NoError(t, loadDotenv(path))
	assert.Equal(t, "manual", os.Getenv(owned))

	os.Unsetenv(owned)
	require.NoError(t, loadDotenv(path))
	assert.Equal(t, "three", os.Getenv(owned))

	writeFile(t, root, ".env", shell+"=from-file\n")
	require.NoError(t, loadDotenv(path))
	_, ok := os.LookupEnv(owned)
	assert.False(t, ok, "removed keys are unset")

	require.NoError(t, os.Remove(path))
	assert.NoError(t, loadDotenv(path))
}

func TestLoad_DotEnvEditsApply(t *testing.T) {
	resetDotenv(t, EnvVarEnv, EnvVarNamespace)
	root := t.TempDir()

	writeFile(t, root, ".env", "APPSTACK_ENV=staging\nAPPSTACK_NAMESPACE=shop\n")
	cfg, err := Load(Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Env)

	writeFile(t, root, ".env", "APPSTACK_ENV=prod\nAPPSTACK_NAMESPACE=shop\n")
	cfg, err = Load(Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "ShopProd", cfg.ArtifactID())
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		context string
		wantErr error
	}{
		{"no env", `{"namespace": "app"}`, ErrMissingEnv},
		{"no namespace", `{"env": "dev"}`, ErrMissingNamespace},
		{"empty", `{}`, ErrMissingEnv},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			root := t.TempDir()
			writeFile(t, root, "appstack.json", tt.context)

			_, err := Load(Options{Root: root})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MalformedContext(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeFile(t, root, "appstack.json", `{"env": `)

	_, err := Load(Options{Root: root})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appstack.json")
}

func TestValidate(t *testing.T) {
	two, three := 2, 3

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name: "unknown custom attribute kind",
			mutate: func(c *Config) {
				c.Auth.CustomAttributes = map[string]CustomAttribute{"tenant": {Type: "Date"}}
			},
			wantErr: `auth.customAttributes.tenant: unknown type "Date"`,
		},
		{
			name: "bad resolution policy",
			mutate: func(c *Config) {
				c.Resolution.UnresolvedDataSource = "guess"
			},
			wantErr: "resolution.unresolvedDataSource",
		},
		{
			name: "email without address",
			mutate: func(c *Config) {
				c.Auth.EmailConfiguration = &EmailConfiguration{FromName: "App"}
			},
			wantErr: "fromAddress",
		},
		{
			name: "capacity inverted",
			mutate: func(c *Config) {
				c.Databases.Postgres.MinCapacity = 8
				c.Databases.Postgres.MaxCapacity = 2
			},
			wantErr: "minCapacity",
		},
		{
			name: "min above default max",
			mutate: func(c *Config) {
				c.Databases.Postgres.MinCapacity = 32
			},
			wantErr: "minCapacity 32 exceeds maxCapacity 16",
		},
		{
			name: "max below default min",
			mutate: func(c *Config) {
				c.Databases.Postgres.MaxCapacity = 1
			},
			wantErr: "minCapacity 2 exceeds maxCapacity 1",
		},
		{
			name: "min above default max with max raised",
			mutate: func(c *Config) {
				c.Databases.Postgres.MinCapacity = 32
				c.Databases.Postgres.MaxCapacity = 64
			},
		},
		{
			name: "negative capacity",
			mutate: func(c *Config) {
				c.Databases.Postgres.MaxCapacity = -4
			},
			wantErr: "must not be negative",
		},
		{
			name: "retry attempts in range",
			mutate: func(c *Config) {
				c.Lambdas = map[string]Lambda{"hello": {RetryAttempts: &two}}
			},
		},
		{
			name: "retry attempts out of range",
			mutate: func(c *Config) {
				c.Lambdas = map[string]Lambda{"hello": {RetryAttempts: &three}}
			},
			wantErr: "lambdas.hello.retryAttempts",
		},
		{
			name: "bad bundle timeout",
			mutate: func(c *Config) {
				c.Bundle.Timeout = "soon"
			},
			wantErr: "bundle.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Env: "dev", Namespace: "app"}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMerge(t *testing.T) {
	base := map[string]any{
		"auth": map[string]any{
			"selfSignUpEnabled": true,
			"signInAliases":     map[string]any{"email": true},
		},
		"list": []any{"a", "b"},
	}
	overlay := map[string]any{
		"auth": map[string]any{
			"signInAliases": map[string]any{"username": true},
		},
		"list": []any{"c"},
	}

	merged := Merge(base, overlay)

	auth := merged["auth"].(map[string]any)
	assert.Equal(t, true, auth["selfSignUpEnabled"])
	assert.Equal(t, map[string]any{"email": true, "username": true}, auth["signInAliases"])
	assert.Equal(t, []any{"c"}, merged["list"])

	_, touched := base["auth"].(map[string]any)["signInAliases"].(map[string]any)["username"]
	assert.False(t, touched, "base is not modified")
}

func TestBundleTimeout(t *testing.T) {
	cfg := &Config{Bundle: Bundle{Timeout: "90s"}}
	d, err := cfg.BundleTimeout()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	d, err = (&Config{}).BundleTimeout()
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestLambdaPermissions_Empty(t *testing.T) {
	assert.True(t, LambdaPermissions{}.Empty())
	assert.True(t, LambdaPermissions{Auth: []string{}}.Empty())
	assert.False(t, LambdaPermissions{Messaging: []string{"SendEmail"}}.Empty())
}

func TestFiles(t *testing.T) {
	files := Files("/p", "dev")
	assert.Contains(t, files, filepath.Join("/p", "appstack.json"))
	assert.Contains(t, files, filepath.Join("/p", "appstack.dev.yaml"))
	assert.Contains(t, files, filepath.Join("/p", ".env"))
}
