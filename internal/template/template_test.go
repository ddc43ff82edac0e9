package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qdash/qdash/internal/errors"
	"github.com/qdash/qdash/internal/vars"
)

func testStore(t *testing.T) *vars.Store {
	t.Helper()
	s, err := vars.NewStore([]vars.Decl{
		{Key: "limit", Type: "number", Default: "10"},
		{Key: "status", Type: "string", Default: "act've"},
		{Key: "regions", Type: "list", Default: "us,eu"},
		{Key: "active", Type: "boolean", Default: "yes"},
		{Key: "tags", Type: "map", Default: "tier=gold,region=us"},
	})
	require.NoError(t, err)
	return s
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "no placeholders",
			query: "SELECT 1",
			want:  nil,
		},
		{
			name:  "single",
			query: "SELECT * FROM t LIMIT {{limit}}",
			want:  []string{"limit"},
		},
		{
			name:  "duplicates collapsed in order",
			query: "SELECT {{a}}, {{b}}, {{a}}",
			want:  []string{"a", "b"},
		},
		{
			name:  "whitespace tolerated",
			query: "WHERE x = {{ status }}",
			want:  []string{"status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Placeholders(tt.query))
		})
	}
}

func TestResolve_SQL(t *testing.T) {
	store := testStore(t)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "number renders bare",
			query: "SELECT * FROM t LIMIT {{limit}}",
			want:  "SELECT * FROM t LIMIT 10",
		},
		{
			name:  "string quoted with doubling",
			query: "WHERE status = {{status}}",
			want:  "WHERE status = 'act''ve'",
		},
		{
			name:  "list becomes IN list",
			query: "WHERE region IN {{regions}}",
			want:  "WHERE region IN ('us', 'eu')",
		},
		{
			name:  "boolean renders bare",
			query: "WHERE active = {{active}}",
			want:  "WHERE active = TRUE",
		},
		{
			name:  "map renders as one quoted string",
			query: "WHERE meta = {{tags}}",
			want:  "WHERE meta = 'region=us,tier=gold'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.query, store, "postgres")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_UndeclaredVariable(t *testing.T) {
	store := testStore(t)

	_, err := Resolve("SELECT {{missing}}", store, "postgres")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestResolve_NeverLeavesPlaceholder(t *testing.T) {
	store := testStore(t)

	out, err := Resolve("SELECT {{limit}} -- {{limit}}", store, "mysql")
	require.NoError(t, err)
	assert.NotContains(t, out, "{{")
	assert.NotContains(t, out, "}}")
}

func TestResolve_UpdatedValueFlowsThrough(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Update("limit", "50"))

	out, err := Resolve("LIMIT {{limit}}", store, "postgres")
	require.NoError(t, err)
	assert.Equal(t, "LIMIT 50", out)
}

func TestResolve_RedisRaw(t *testing.T) {
	store := testStore(t)

	out, err := Resolve("GET user:{{limit}}", store, "redis")
	require.NoError(t, err)
	assert.Equal(t, "GET user:10", out)

	out, err = Resolve("GET {{status}}", store, "redis")
	require.NoError(t, err)
	assert.Equal(t, "GET act've", out)
}

func TestResolve_MongoJSON(t *testing.T) {
	store := testStore(t)

	out, err := Resolve(`{"filter": {"status": {{status}}}, "limit": {{limit}}}`, store, "mongodb")
	require.NoError(t, err)
	assert.Equal(t, `{"filter": {"status": "act've"}, "limit": 10}`, out)

	out, err = Resolve(`{"filter": {"region": {"$in": {{regions}}}}}`, store, "mongodb")
	require.NoError(t, err)
	assert.Equal(t, `{"filter": {"region": {"$in": ["us","eu"]}}}`, out)
}
