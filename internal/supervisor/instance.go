package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/qdash/qdash/internal/config"
	"github.com/qdash/qdash/internal/render"
	"github.com/qdash/qdash/internal/template"
	"github.com/qdash/qdash/internal/vars"
)

// State is an instance's lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateRunning    State = "running"
	StateRefreshing State = "refreshing"
	StateError      State = "error"
	StateStopped    State = "stopped"
)

// Status is the externally visible projection of an instance.
type Status struct {
	ID            string        `json:"id"`
	ConfigPath    string        `json:"config_path"`
	State         State         `json:"state"`
	DatabaseType  string        `json:"database_type"`
	ChartType     string        `json:"chart_type"`
	Interval      time.Duration `json:"interval"`
	ArtifactPath  string        `json:"artifact_path"`
	StartedAt     time.Time     `json:"started_at"`
	NextRefreshAt time.Time     `json:"next_refresh_at"`
	// CountdownSeconds is derived from NextRefreshAt at read time,
	// never stored.
	CountdownSeconds int    `json:"countdown_seconds"`
	RefreshCount     int    `json:"refresh_count"`
	ErrorCount       int    `json:"error_count"`
	LastError        string `json:"last_error,omitempty"`
}

// Instance is one running dashboard. A single goroutine owns the refresh
// loop; all shared state sits behind the mutex.
type Instance struct {
	id           string
	cfg          *config.Config
	store        *vars.Store
	artifactName string

	sup    *Supervisor
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	mu            sync.Mutex
	state         State
	startedAt     time.Time
	nextRefreshAt time.Time
	refreshCount  int
	errorCount    int
	lastError     string
}

// run is the per-instance loop: refresh immediately, then on every timer
// fire or wake signal. Wake signals coalesce through the buffered channel,
// so restarts during an in-flight refresh collapse into one follow-up.
func (in *Instance) run(ctx context.Context) {
	defer close(in.done)

	interval := in.cfg.Interval()
	in.refresh(ctx)

	timer := in.sup.clock.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C():
			in.refresh(ctx)
			timer.Reset(interval)
		case <-in.wake:
			in.refresh(ctx)
			if !timer.Stop() {
				select {
				case <-timer.C():
				default:
				}
			}
			timer.Reset(interval)
		}
	}
}

// refresh runs one full cycle: resolve the query, execute it, render, and
// publish. A failed cycle publishes an error artifact and moves the
// instance to Error; the loop keeps running either way.
func (in *Instance) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	interval := in.cfg.Interval()
	in.setState(StateRefreshing)

	text, err := in.produce(ctx)
	if ctx.Err() != nil {
		return
	}

	opts := in.renderOptions(interval)
	if err != nil {
		in.sup.log.Error("refresh failed for %s: %v", in.cfg.Path, err)
		text = render.ErrorArtifact(in.cfg, err, opts)
	}

	if _, pubErr := in.sup.publisher.Publish(in.artifactName, text); pubErr != nil {
		in.sup.log.Error("publish failed for %s: %v", in.cfg.Path, pubErr)
		if err == nil {
			err = pubErr
		}
	}

	in.mu.Lock()
	in.nextRefreshAt = in.sup.clock.Now().Add(interval)
	if err != nil {
		in.state = StateError
		in.errorCount++
		in.lastError = err.Error()
	} else {
		in.state = StateRunning
		in.refreshCount++
		in.lastError = ""
	}
	in.mu.Unlock()
}

// produce resolves and executes the query, then renders the chart.
func (in *Instance) produce(ctx context.Context) (string, error) {
	resolved, err := template.Resolve(in.cfg.Query.SQL, in.store, in.cfg.Database.Type)
	if err != nil {
		return "", err
	}

	queryCtx, cancel := context.WithTimeout(ctx, in.cfg.Timeout())
	defer cancel()

	result, err := in.sup.executor(queryCtx, in.cfg.Database.Type, in.cfg.Database.URL, resolved)
	if err != nil {
		return "", err
	}

	return render.Render(result, in.cfg, in.renderOptions(in.cfg.Interval()))
}

func (in *Instance) renderOptions(interval time.Duration) render.Options {
	opts := render.Options{CountdownSeconds: int(interval.Seconds())}
	if in.store.Len() > 0 {
		opts.Variables = in.store.Snapshot()
	}
	return opts
}

func (in *Instance) setState(s State) {
	in.mu.Lock()
	in.state = s
	in.mu.Unlock()
}

// status snapshots the instance; the countdown is computed from the clock.
func (in *Instance) status(now time.Time) Status {
	in.mu.Lock()
	defer in.mu.Unlock()

	countdown := 0
	if in.nextRefreshAt.After(now) {
		countdown = int(in.nextRefreshAt.Sub(now).Seconds())
	}

	return Status{
		ID:               in.id,
		ConfigPath:       in.cfg.Path,
		State:            in.state,
		DatabaseType:     in.cfg.Database.Type,
		ChartType:        in.cfg.Show.Type,
		Interval:         in.cfg.Interval(),
		ArtifactPath:     in.sup.publisher.Path(in.artifactName),
		StartedAt:        in.startedAt,
		NextRefreshAt:    in.nextRefreshAt,
		CountdownSeconds: countdown,
		RefreshCount:     in.refreshCount,
		ErrorCount:       in.errorCount,
		LastError:        in.lastError,
	}
}

// poke requests an immediate refresh without blocking. A pending poke
// absorbs any further ones.
func (in *Instance) poke() {
	select {
	case in.wake <- struct{}{}:
	default:
	}
}
