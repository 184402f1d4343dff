package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appstack "github.com/lex00/appstack-go"
	"github.com/lex00/appstack-go/internal/asset"
	"github.com/lex00/appstack-go/internal/differ"
	"github.com/lex00/appstack-go/internal/layout"
	"github.com/lex00/appstack-go/internal/migrate"
)

// writeProject creates a minimal project with one table, one lambda and
// one resolver.
func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"appstack.json": `{"namespace":"app"}`,
		"src/databases/dynamodb/tables/orders.json": `{"KeyAttributes":{"PartitionKey":{"AttributeName":"id","AttributeType":"S"}}}`,
		"src/lambdas/hello/index.js":                "exports.handler = async () => 'hello'",
		"src/graphql/resolvers/Query.hello.req..":   `{"version":"2018-05-29","payload":{}}`,
		"src/graphql/resolvers/Query.hello.res..":   `"hello"`,
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildCmd(t *testing.T) {
	root := writeProject(t)
	assetsDir := filepath.Join(t.TempDir(), "assets")
	output := filepath.Join(t.TempDir(), "template.json")

	_, err := execute(t, newBuildCmd(), root, "--env", "dev", "-o", output, "--assets-dir", assetsDir)
	require.NoError(t, err)

	tmpl, err := differ.LoadTemplate(output)
	require.NoError(t, err)
	assert.Contains(t, tmpl.Resources, "AppDevOrders")
	assert.Contains(t, tmpl.Resources, "AppDevHello")
	assert.Contains(t, tmpl.Resources, "QueryHello")
	assert.Contains(t, tmpl.Outputs, "apiGraphqlEndpoint")
	assert.Contains(t, tmpl.Outputs, "lambdaHelloArn")
	assert.Contains(t, tmpl.Parameters, "AssetBucket")

	m, err := asset.ReadManifest(filepath.Join(assetsDir, asset.ManifestFile))
	require.NoError(t, err)
	require.Len(t, m.Assets, 1)
	assert.Equal(t, "hello", m.Assets[0].Name)
	assert.FileExists(t, m.Assets[0].Path)
}

func TestBuildCmd_YAML(t *testing.T) {
	root := writeProject(t)

	out, err := execute(t, newBuildCmd(), root, "--env", "dev", "-f", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "AWSTemplateFormatVersion")
	assert.Contains(t, out, "AppDevOrders:")
}

func TestBuildCmd_Errors(t *testing.T) {
	root := writeProject(t)

	_, err := execute(t, newBuildCmd(), root, "--env", "dev", "-f", "xml")
	assert.ErrorContains(t, err, "unknown format")

	// no env anywhere
	_, err = execute(t, newBuildCmd(), root)
	assert.ErrorContains(t, err, "build failed")
}

func TestListCmd(t *testing.T) {
	root := writeProject(t)

	out, err := execute(t, newListCmd(), root, "--env", "dev", "--format", "json")
	require.NoError(t, err)

	var result appstack.ListResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotEmpty(t, result.Resources)

	names := make([]string, 0, len(result.Resources))
	for _, r := range result.Resources {
		names = append(names, r.Name)
	}
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, "AppDevOrders")
}

func TestOutputListResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, outputListResult(&buf, appstack.ListResult{}, "text"))
	assert.Equal(t, "No resources found.\n", buf.String())

	buf.Reset()
	result := appstack.ListResult{Resources: []appstack.ListResource{{Name: "AppDevOrders", Type: "AWS::DynamoDB::Table"}}}
	require.NoError(t, outputListResult(&buf, result, "text"))
	assert.Contains(t, buf.String(), "AppDevOrders: AWS::DynamoDB::Table")

	assert.Error(t, outputListResult(&buf, result, "xml"))
}

func TestGraphCmd(t *testing.T) {
	root := writeProject(t)

	out, err := execute(t, newGraphCmd(), root, "--env", "dev")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "AppDevOrders")

	_, err = execute(t, newGraphCmd(), root, "--env", "dev", "-f", "png")
	assert.ErrorContains(t, err, "unknown format")
}

func TestDiffCmd(t *testing.T) {
	root := writeProject(t)
	previous := filepath.Join(t.TempDir(), "previous.json")

	_, err := execute(t, newBuildCmd(), root, "--env", "dev", "-o", previous)
	require.NoError(t, err)

	out, err := execute(t, newDiffCmd(), previous, root, "--env", "dev")
	require.NoError(t, err)
	assert.Equal(t, "No changes.\n", out)

	require.NoError(t, os.WriteFile(
		filepath.Join(root, "src/databases/dynamodb/tables/invoices.json"),
		[]byte(`{"KeyAttributes":{"PartitionKey":{"AttributeName":"id","AttributeType":"S"}}}`), 0644))

	out, err = execute(t, newDiffCmd(), previous, root, "--env", "dev")
	require.NoError(t, err)
	assert.Contains(t, out, "+ AppDevInvoices (AWS::DynamoDB::Table)")
}

func TestNewDiffCmd(t *testing.T) {
	cmd := newDiffCmd()

	assert.Equal(t, "diff <old-template> [root]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotNil(t, cmd.Flags().Lookup("format"))
	assert.NotNil(t, cmd.Flags().Lookup("ignore-order"))
}

func TestOutputValidateResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, outputValidateResult(&buf, appstack.ValidateResult{Success: true, Resources: 3}, "text"))
	assert.Equal(t, "Validation passed: 3 resources OK\n", buf.String())

	buf.Reset()
	failed := appstack.ValidateResult{Errors: []string{"E3001: bad"}, Warnings: []string{"W1001: meh"}}
	require.NoError(t, outputValidateResult(&buf, failed, "text"))
	assert.Contains(t, buf.String(), "Validation FAILED:")
	assert.Contains(t, buf.String(), "ERROR: E3001: bad")
	assert.Contains(t, buf.String(), "WARNING: W1001: meh")
}

func TestNewWatchCmd(t *testing.T) {
	cmd := newWatchCmd()

	assert.Equal(t, "watch [root]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	require.NotNil(t, cmd.Flags().Lookup("debounce"))
	assert.Equal(t, "500ms", cmd.Flags().Lookup("debounce").DefValue)
	assert.NotNil(t, cmd.Flags().Lookup("env"))
}

func TestRelevant(t *testing.T) {
	dirs := layout.New("/proj").Watched()
	contextFiles := map[string]bool{"/proj/appstack.json": true, "/proj/.env": true}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"lambda source", fsnotify.Event{Name: "/proj/src/lambdas/hello/index.js", Op: fsnotify.Write}, true},
		{"removed resolver", fsnotify.Event{Name: "/proj/src/graphql/resolvers/Query.a.req..", Op: fsnotify.Remove}, true},
		{"context file", fsnotify.Event{Name: "/proj/appstack.json", Op: fsnotify.Write}, true},
		{"dotenv", fsnotify.Event{Name: "/proj/.env", Op: fsnotify.Write}, true},
		{"src created at root", fsnotify.Event{Name: "/proj/src", Op: fsnotify.Create}, true},
		{"graphql dir created", fsnotify.Event{Name: "/proj/src/graphql", Op: fsnotify.Create}, true},
		{"other root file", fsnotify.Event{Name: "/proj/README.md", Op: fsnotify.Write}, false},
		{"unrelated src file", fsnotify.Event{Name: "/proj/src/notes.txt", Op: fsnotify.Write}, false},
		{"hidden file", fsnotify.Event{Name: "/proj/src/lambdas/hello/.swp", Op: fsnotify.Write}, false},
		{"chmod", fsnotify.Event{Name: "/proj/src/lambdas/hello/index.js", Op: fsnotify.Chmod}, false},
		{"build output", fsnotify.Event{Name: "/proj/src/template.json", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.event, dirs, contextFiles, "/proj/src/template.json"))
		})
	}
}

func TestWatchDirs(t *testing.T) {
	root := writeProject(t)

	dirs := watchDirs(root, projectFlags{env: "dev"})
	assert.Contains(t, dirs, filepath.Join(root, "src/lambdas"))
	assert.Contains(t, dirs, filepath.Join(root, "src/graphql/resolvers"))
	// missing dirs are kept so their creation can be watched
	assert.Contains(t, dirs, filepath.Join(root, "src/databases/postgres/migrations"))
}

func TestNearestExistingAncestor(t *testing.T) {
	root := writeProject(t)

	tests := []struct {
		name string
		dir  string
		want string
	}{
		{"sibling family exists", "src/databases/postgres/migrations", "src/databases"},
		{"parent exists", "src/graphql/resolvers/functions", "src/graphql/resolvers"},
		{"nothing below root", "lib/handlers", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nearestExistingAncestor(filepath.Join(root, tt.dir), root)
			assert.Equal(t, filepath.Join(root, tt.want), got)
		})
	}
}

func TestAffectsWatches(t *testing.T) {
	root := writeProject(t)
	dirs := watchDirs(root, projectFlags{env: "dev"})
	newFile := filepath.Join(root, "src/lambdas/hello/util.js")
	require.NoError(t, os.WriteFile(newFile, []byte("module.exports = {}"), 0644))

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"new lambda folder", fsnotify.Event{Name: filepath.Join(root, "src/lambdas/hello"), Op: fsnotify.Create}, true},
		{"new src dir", fsnotify.Event{Name: filepath.Join(root, "src"), Op: fsnotify.Create}, true},
		{"removed family dir", fsnotify.Event{Name: filepath.Join(root, "src/databases/postgres"), Op: fsnotify.Remove}, true},
		{"new file", fsnotify.Event{Name: newFile, Op: fsnotify.Create}, false},
		{"write", fsnotify.Event{Name: filepath.Join(root, "src/lambdas"), Op: fsnotify.Write}, false},
		{"unrelated dir", fsnotify.Event{Name: root + "/docs", Op: fsnotify.Remove}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, affectsWatches(tt.event, dirs))
		})
	}
}

func TestSyncWatches_PicksUpLateDirs(t *testing.T) {
	root := writeProject(t)
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	dirs := watchDirs(root, projectFlags{env: "dev"})
	require.NoError(t, syncWatches(watcher, root, dirs))
	assert.Contains(t, watcher.WatchList(), filepath.Join(root, "src/lambdas/hello"))
	assert.Contains(t, watcher.WatchList(), filepath.Join(root, "src/databases"))

	migrations := filepath.Join(root, "src/databases/postgres/migrations")
	require.NoError(t, os.MkdirAll(migrations, 0755))
	require.NoError(t, syncWatches(watcher, root, dirs))
	assert.Contains(t, watcher.WatchList(), migrations)
}

func TestOptimizeCmd(t *testing.T) {
	root := writeProject(t)

	out, err := execute(t, newOptimizeCmd(), root, "--env", "dev", "--category", "reliability")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Reliability")
	assert.Contains(t, out, "OPT-DDB-001")
	assert.NotContains(t, out, "=== Security")

	_, err = execute(t, newOptimizeCmd(), root, "--env", "dev", "--category", "speed")
	assert.ErrorContains(t, err, "invalid category")
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Security", capitalize("security"))
	assert.Equal(t, "", capitalize(""))
}

func TestDataAPISettings(t *testing.T) {
	env := map[string]string{
		migrate.EnvClusterArn: "arn:env-cluster",
		migrate.EnvSecretArn:  "arn:env-secret",
		migrate.EnvDatabase:   "EnvDb",
	}
	getenv := func(key string) string { return env[key] }

	got, err := dataAPISettings(migrate.Settings{ClusterArn: "arn:flag-cluster", Table: "custom"}, getenv)
	require.NoError(t, err)
	assert.Equal(t, "arn:flag-cluster", got.ClusterArn)
	assert.Equal(t, "arn:env-secret", got.SecretArn)
	assert.Equal(t, "EnvDb", got.Database)
	assert.Equal(t, "custom", got.Table)

	delete(env, migrate.EnvSecretArn)
	_, err = dataAPISettings(migrate.Settings{}, getenv)
	assert.ErrorIs(t, err, migrate.ErrMissingSetting)
}
