package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qdash/qdash/internal/config"
	"github.com/qdash/qdash/internal/control"
	"github.com/qdash/qdash/internal/db"
	"github.com/qdash/qdash/internal/errors"
	"github.com/qdash/qdash/internal/publish"
	"github.com/qdash/qdash/internal/supervisor"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "dev stays bare", input: "dev", want: "dev"},
		{name: "empty stays empty", input: "", want: ""},
		{name: "bare version gets v prefix", input: "1.2.3", want: "v1.2.3"},
		{name: "v prefix preserved", input: "v1.2.3", want: "v1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatVersion(tt.input))
		})
	}
}

func TestSocketPath_FlagOverride(t *testing.T) {
	orig := socketFlag
	defer func() { socketFlag = orig }()

	socketFlag = "/tmp/custom.sock"
	assert.Equal(t, "/tmp/custom.sock", socketPath())

	socketFlag = ""
	assert.Contains(t, socketPath(), "dashboard")
	assert.True(t, filepath.IsAbs(socketPath()))
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qdash.yaml")

	require.NoError(t, initCommand(path, false))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "database:")
	assert.Contains(t, string(content), "{{limit}}")

	// Sample config must pass validation as written
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "bar", cfg.Show.Type)
}

func TestInitCommand_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("existing"), 0o644))

	err := initCommand(path, false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	// --force overwrites
	require.NoError(t, initCommand(path, true))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "database:")
}

func TestRenderOnce_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  url: ''\n"), 0o644))

	_, err := renderOnce(t.Context(), path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

const testDashboard = `
database:
  url: postgres://localhost:5432/metrics
query:
  sql: SELECT region, total FROM sales
show:
  type: table
  interval: 5s
`

func startDaemon(t *testing.T) (*control.Client, *supervisor.Supervisor, string) {
	t.Helper()
	dir := t.TempDir()

	sup := supervisor.New(supervisor.Options{
		Executor: func(ctx context.Context, dbType, url, query string) (*db.QueryResult, error) {
			return db.NewResult([]string{"region", "total"}, [][]string{{"us", "42"}}), nil
		},
		Publisher: publish.New(filepath.Join(dir, "dashboard")),
	})
	t.Cleanup(sup.StopAll)

	svc := control.NewService(filepath.Join(dir, control.SocketName), sup)
	require.NoError(t, svc.Start())
	t.Cleanup(func() { svc.Close() })

	return control.NewClient(svc.SocketPath()), sup, dir
}

func TestResolveTarget(t *testing.T) {
	c, sup, dir := startDaemon(t)

	// Explicit argument passes through untouched
	id, err := resolveTarget(c, []string{"some-id"})
	require.NoError(t, err)
	assert.Equal(t, "some-id", id)

	// Nothing running
	_, err = resolveTarget(c, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))

	first := filepath.Join(dir, "sales.yaml")
	require.NoError(t, os.WriteFile(first, []byte(testDashboard), 0o644))
	st, err := sup.Start(first)
	require.NoError(t, err)

	// Exactly one running: it is the default target
	id, err = resolveTarget(c, nil)
	require.NoError(t, err)
	assert.Equal(t, st.ID, id)

	second := filepath.Join(dir, "latency.yaml")
	require.NoError(t, os.WriteFile(second, []byte(testDashboard), 0o644))
	_, err = sup.Start(second)
	require.NoError(t, err)

	// Ambiguous with two running
	_, err = resolveTarget(c, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestCommandRegistration(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{
		"serve", "start", "stop", "restart", "list", "status",
		"vars", "sql", "render", "init", "version",
	} {
		assert.True(t, names[want], "missing command %q", want)
	}
}
