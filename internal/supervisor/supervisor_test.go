package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qdash/qdash/internal/db"
	"github.com/qdash/qdash/internal/errors"
	"github.com/qdash/qdash/internal/logger"
	"github.com/qdash/qdash/internal/publish"
)

const dashboardYAML = `
database:
  url: postgres://localhost:5432/metrics
query:
  sql: SELECT region, total FROM sales LIMIT {{limit}}
  args:
    - key: limit
      type: number
      default: "10"
show:
  type: table
  title: Sales
  interval: 5s
  show_countdown: true
`

type fakeExecutor struct {
	mu      sync.Mutex
	queries []string
	fail    error
	block   chan struct{}
}

func (f *fakeExecutor) exec(ctx context.Context, dbType, url, query string) (*db.QueryResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.queries = append(f.queries, query)
	fail := f.fail
	f.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return db.NewResult([]string{"region", "total"}, [][]string{{"us", "42"}}), nil
}

func (f *fakeExecutor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeExecutor) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeExecutor) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

type harness struct {
	sup   *Supervisor
	clock *FakeClock
	exec  *fakeExecutor
	pub   *publish.Publisher
	path  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	exec := &fakeExecutor{}
	pub := publish.New(filepath.Join(t.TempDir(), "dashboard"))

	path := filepath.Join(t.TempDir(), "sales.yaml")
	require.NoError(t, os.WriteFile(path, []byte(dashboardYAML), 0o644))

	sup := New(Options{
		Clock:     clock,
		Executor:  exec.exec,
		Publisher: pub,
		Logger:    logger.Noop(),
	})
	t.Cleanup(sup.StopAll)

	return &harness{sup: sup, clock: clock, exec: exec, pub: pub, path: path}
}

func (h *harness) waitRefreshes(t *testing.T, id string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		st, err := h.sup.Status(id)
		return err == nil && st.RefreshCount+st.ErrorCount >= n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStart_ImmediateRefresh(t *testing.T) {
	h := newHarness(t)

	st, err := h.sup.Start(h.path)
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, h.path, st.ConfigPath)

	h.waitRefreshes(t, st.ID, 1)

	status, err := h.sup.Status(st.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRunning, status.State)
	assert.Equal(t, 1, status.RefreshCount)

	content, err := os.ReadFile(status.ArtifactPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Sales")
	assert.Contains(t, string(content), "us")

	// Default substituted into the query
	assert.Contains(t, h.exec.lastQuery(), "LIMIT 10")
}

func TestStart_InvalidConfigLeavesNoInstance(t *testing.T) {
	h := newHarness(t)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("query:\n  sql: SELECT 1\n"), 0o644))

	_, err := h.sup.Start(bad)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Empty(t, h.sup.List())
}

func TestTimerDrivenRefresh(t *testing.T) {
	h := newHarness(t)

	st, err := h.sup.Start(h.path)
	require.NoError(t, err)
	h.waitRefreshes(t, st.ID, 1)

	require.Eventually(t, func() bool {
		h.clock.Advance(5 * time.Second)
		status, err := h.sup.Status(st.ID)
		return err == nil && status.RefreshCount >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCountdownDerivedFromClock(t *testing.T) {
	h := newHarness(t)

	st, err := h.sup.Start(h.path)
	require.NoError(t, err)
	h.waitRefreshes(t, st.ID, 1)

	status, err := h.sup.Status(st.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, status.CountdownSeconds)

	h.clock.Advance(2 * time.Second)
	status, err = h.sup.Status(st.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, status.CountdownSeconds)
	assert.Equal(t, status.NextRefreshAt.Sub(h.clock.Now()), 3*time.Second)
}

func TestRestart_RefreshesWithoutTick(t *testing.T) {
	h := newHarness(t)

	st, err := h.sup.Start(h.path)
	require.NoError(t, err)
	h.waitRefreshes(t, st.ID, 1)

	require.NoError(t, h.sup.Restart(st.ID))
	h.waitRefreshes(t, st.ID, 2)

	status, err := h.sup.Status(st.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, status.CountdownSeconds, "restart resets the countdown")
}

func TestRestart_CoalescesDuringRefresh(t *testing.T) {
	h := newHarness(t)
	h.exec.block = make(chan struct{})

	st, err := h.sup.Start(h.path)
	require.NoError(t, err)

	// Initial refresh is blocked inside the executor; pile up restarts.
	require.NoError(t, h.sup.Restart(st.ID))
	require.NoError(t, h.sup.Restart(st.ID))
	require.NoError(t, h.sup.Restart(st.ID))

	close(h.exec.block)
	h.waitRefreshes(t, st.ID, 2)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, h.exec.calls(),
		"restarts during an in-flight refresh coalesce into one follow-up")
}

func TestFailedRefreshIsRecoverable(t *testing.T) {
	h := newHarness(t)
	h.exec.setFail(errors.New(errors.ErrConn, "Cannot connect", "Check the server"))

	st, err := h.sup.Start(h.path)
	require.NoError(t, err)
	h.waitRefreshes(t, st.ID, 1)

	status, err := h.sup.Status(st.ID)
	require.NoError(t, err)
	assert.Equal(t, StateError, status.State)
	assert.Equal(t, 1, status.ErrorCount)
	assert.Contains(t, status.LastError, "Cannot connect")

	// Error artifact published in place of the chart
	content, err := os.ReadFile(status.ArtifactPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "✗")
	assert.Contains(t, string(content), "Cannot connect")

	// Next tick succeeds and the instance recovers
	h.exec.setFail(nil)
	require.Eventually(t, func() bool {
		h.clock.Advance(5 * time.Second)
		status, err := h.sup.Status(st.ID)
		return err == nil && status.State == StateRunning
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStop_RemovesArtifactAndInstance(t *testing.T) {
	h := newHarness(t)

	st, err := h.sup.Start(h.path)
	require.NoError(t, err)
	h.waitRefreshes(t, st.ID, 1)

	status, err := h.sup.Status(st.ID)
	require.NoError(t, err)
	require.FileExists(t, status.ArtifactPath)

	require.NoError(t, h.sup.Stop(st.ID))

	_, err = os.Stat(status.ArtifactPath)
	assert.True(t, os.IsNotExist(err), "artifact removed on stop")

	_, err = h.sup.Status(st.ID)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
	assert.Empty(t, h.sup.List())
}

func TestStop_UnknownID(t *testing.T) {
	h := newHarness(t)
	err := h.sup.Stop("nope")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
}

func TestStart_SamePathRestarts(t *testing.T) {
	h := newHarness(t)

	first, err := h.sup.Start(h.path)
	require.NoError(t, err)
	h.waitRefreshes(t, first.ID, 1)

	second, err := h.sup.Start(h.path)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	list := h.sup.List()
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestStart_ConcurrentSamePath(t *testing.T) {
	h := newHarness(t)

	_, err := h.sup.Start(h.path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.sup.Start(h.path)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Exactly one live instance, reachable both by id and by path
	h.sup.mu.RLock()
	byID, byPath := len(h.sup.byID), len(h.sup.byPath)
	h.sup.mu.RUnlock()
	assert.Equal(t, 1, byID)
	assert.Equal(t, 1, byPath)

	list := h.sup.List()
	require.Len(t, list, 1)
	st, err := h.sup.Status(h.path)
	require.NoError(t, err)
	assert.Equal(t, list[0].ID, st.ID)
}

func TestLookupByConfigPath(t *testing.T) {
	h := newHarness(t)

	st, err := h.sup.Start(h.path)
	require.NoError(t, err)

	byPath, err := h.sup.Status(h.path)
	require.NoError(t, err)
	assert.Equal(t, st.ID, byPath.ID)
}

func TestUpdateVariable(t *testing.T) {
	h := newHarness(t)

	st, err := h.sup.Start(h.path)
	require.NoError(t, err)
	h.waitRefreshes(t, st.ID, 1)

	require.NoError(t, h.sup.UpdateVariable(st.ID, "limit", "50"))
	h.waitRefreshes(t, st.ID, 2)
	assert.Contains(t, h.exec.lastQuery(), "LIMIT 50")

	sql, err := h.sup.ResolvedSQL(st.ID)
	require.NoError(t, err)
	assert.Contains(t, sql, "LIMIT 50")
}

func TestUpdateVariable_Errors(t *testing.T) {
	h := newHarness(t)

	st, err := h.sup.Start(h.path)
	require.NoError(t, err)
	h.waitRefreshes(t, st.ID, 1)

	err = h.sup.UpdateVariable(st.ID, "limit", "lots")
	assert.True(t, errors.IsCode(err, errors.ErrType))

	err = h.sup.UpdateVariable(st.ID, "nope", "1")
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))

	err = h.sup.UpdateVariable("ghost", "limit", "1")
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))

	// Failed update did not trigger a refresh
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, h.exec.calls())
}

func TestResetVariables(t *testing.T) {
	h := newHarness(t)

	st, err := h.sup.Start(h.path)
	require.NoError(t, err)
	h.waitRefreshes(t, st.ID, 1)

	require.NoError(t, h.sup.UpdateVariable(st.ID, "limit", "50"))
	h.waitRefreshes(t, st.ID, 2)

	require.NoError(t, h.sup.ResetVariables(st.ID))
	h.waitRefreshes(t, st.ID, 3)
	assert.Contains(t, h.exec.lastQuery(), "LIMIT 10")

	variables, err := h.sup.Variables(st.ID)
	require.NoError(t, err)
	require.Len(t, variables, 1)
	assert.Equal(t, "10", variables[0].Current.Display())
}

func TestList_OrderedByStartTime(t *testing.T) {
	h := newHarness(t)

	second := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(second, []byte(dashboardYAML), 0o644))

	first, err := h.sup.Start(h.path)
	require.NoError(t, err)
	h.clock.Advance(time.Second)
	other, err := h.sup.Start(second)
	require.NoError(t, err)

	list := h.sup.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, other.ID, list[1].ID)
}

func TestStopAll(t *testing.T) {
	h := newHarness(t)

	second := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(second, []byte(dashboardYAML), 0o644))

	_, err := h.sup.Start(h.path)
	require.NoError(t, err)
	_, err = h.sup.Start(second)
	require.NoError(t, err)

	h.sup.StopAll()
	assert.Empty(t, h.sup.List())
}

func TestArtifactNameFromConfigBasename(t *testing.T) {
	h := newHarness(t)

	st, err := h.sup.Start(h.path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(st.ArtifactPath, "sales.dashboard"))
}
