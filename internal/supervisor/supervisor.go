// Package supervisor owns the registry of running dashboard instances and
// drives their refresh loops.
package supervisor

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/qdash/qdash/internal/config"
	"github.com/qdash/qdash/internal/db"
	"github.com/qdash/qdash/internal/errors"
	"github.com/qdash/qdash/internal/logger"
	"github.com/qdash/qdash/internal/publish"
	"github.com/qdash/qdash/internal/template"
	"github.com/qdash/qdash/internal/vars"
)

// Options configures a Supervisor. Zero fields fall back to production
// defaults; tests inject a fake clock and an executor double.
type Options struct {
	Clock     Clock
	Executor  db.ExecuteFunc
	Publisher *publish.Publisher
	Logger    logger.Logger
}

// Supervisor manages dashboard instances keyed by normalized config path.
type Supervisor struct {
	clock     Clock
	executor  db.ExecuteFunc
	publisher *publish.Publisher
	log       logger.Logger

	mu     sync.RWMutex
	byPath map[string]*Instance
	byID   map[string]*Instance
}

// New creates a supervisor with the given options.
func New(opts Options) *Supervisor {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Executor == nil {
		opts.Executor = db.Execute
	}
	if opts.Publisher == nil {
		opts.Publisher = publish.New("")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewEnvLogger("[supervisor]")
	}
	return &Supervisor{
		clock:     opts.Clock,
		executor:  opts.Executor,
		publisher: opts.Publisher,
		log:       opts.Logger,
		byPath:    map[string]*Instance{},
		byID:      map[string]*Instance{},
	}
}

// Start loads and validates the config, creates an instance, and launches
// its refresh loop. A config that fails validation leaves no instance
// behind. Starting a path that is already running restarts it.
func (s *Supervisor) Start(configPath string) (Status, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}

	cfg, err := config.Load(abs)
	if err != nil {
		return Status{}, err
	}

	decls := make([]vars.Decl, len(cfg.Query.Args))
	for i, arg := range cfg.Query.Args {
		decls[i] = vars.Decl{
			Key:         arg.Key,
			Type:        arg.Type,
			Default:     arg.Default,
			Description: arg.Description,
		}
	}
	store, err := vars.NewStore(decls)
	if err != nil {
		return Status{}, err
	}

	// Restart semantics: an instance already running this config is
	// replaced, not duplicated. Stop releases the lock, so a concurrent
	// Start of the same path can slot in a fresh instance during the
	// window; re-check after every stop and keep going until the slot is
	// free while the lock is held. A NOTFOUND from Stop means another
	// caller already removed the instance.
	s.mu.Lock()
	for {
		old, ok := s.byPath[cfg.Path]
		if !ok {
			break
		}
		s.mu.Unlock()
		if err := s.Stop(old.id); err != nil && !errors.IsCode(err, errors.ErrNotFound) {
			return Status{}, err
		}
		s.mu.Lock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	in := &Instance{
		id:           uuid.NewString(),
		cfg:          cfg,
		store:        store,
		artifactName: config.ArtifactName(cfg.Path),
		sup:          s,
		cancel:       cancel,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		state:        StateIdle,
		startedAt:    s.clock.Now(),
	}
	s.byPath[cfg.Path] = in
	s.byID[in.id] = in
	s.mu.Unlock()

	s.log.Info("started dashboard %s (%s)", cfg.Path, in.id)
	go in.run(ctx)

	return in.status(s.clock.Now()), nil
}

// Restart triggers an immediate refresh and resets the countdown. A
// restart during an in-flight refresh coalesces into one follow-up.
func (s *Supervisor) Restart(id string) error {
	in, err := s.lookup(id)
	if err != nil {
		return err
	}
	in.poke()
	return nil
}

// Stop cancels the instance's loop, removes its artifact, and drops it
// from the registry. Stopped is terminal.
func (s *Supervisor) Stop(id string) error {
	in, err := s.lookup(id)
	if err != nil {
		return err
	}

	in.cancel()
	<-in.done
	in.setState(StateStopped)

	if err := s.publisher.Remove(in.artifactName); err != nil {
		s.log.Warn("cannot remove artifact for %s: %v", in.cfg.Path, err)
	}

	s.mu.Lock()
	delete(s.byID, in.id)
	if s.byPath[in.cfg.Path] == in {
		delete(s.byPath, in.cfg.Path)
	}
	s.mu.Unlock()

	s.log.Info("stopped dashboard %s (%s)", in.cfg.Path, in.id)
	return nil
}

// StopAll stops every instance. Used on daemon shutdown.
func (s *Supervisor) StopAll() {
	s.mu.RLock()
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		if err := s.Stop(id); err != nil {
			s.log.Warn("stop %s: %v", id, err)
		}
	}
}

// List returns the status of every instance, ordered by start time.
func (s *Supervisor) List() []Status {
	now := s.clock.Now()

	s.mu.RLock()
	statuses := make([]Status, 0, len(s.byID))
	for _, in := range s.byID {
		statuses = append(statuses, in.status(now))
	}
	s.mu.RUnlock()

	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].StartedAt.Equal(statuses[j].StartedAt) {
			return statuses[i].ID < statuses[j].ID
		}
		return statuses[i].StartedAt.Before(statuses[j].StartedAt)
	})
	return statuses
}

// Status returns the full projection of one instance.
func (s *Supervisor) Status(id string) (Status, error) {
	in, err := s.lookup(id)
	if err != nil {
		return Status{}, err
	}
	return in.status(s.clock.Now()), nil
}

// Variables returns the instance's variable snapshot.
func (s *Supervisor) Variables(id string) ([]vars.Variable, error) {
	in, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return in.store.Snapshot(), nil
}

// UpdateVariable sets one variable and refreshes immediately.
func (s *Supervisor) UpdateVariable(id, key, raw string) error {
	in, err := s.lookup(id)
	if err != nil {
		return err
	}
	if err := in.store.Update(key, raw); err != nil {
		return err
	}
	in.poke()
	return nil
}

// ResetVariables restores all variables to their defaults and refreshes
// immediately.
func (s *Supervisor) ResetVariables(id string) error {
	in, err := s.lookup(id)
	if err != nil {
		return err
	}
	in.store.Reset()
	in.poke()
	return nil
}

// ResolvedSQL returns the query with current variable values substituted.
// Display only; the result is never executed here.
func (s *Supervisor) ResolvedSQL(id string) (string, error) {
	in, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	return template.Resolve(in.cfg.Query.SQL, in.store, in.cfg.Database.Type)
}

// lookup resolves an instance by id, falling back to config path so the
// CLI can address dashboards either way.
func (s *Supervisor) lookup(id string) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if in, ok := s.byID[id]; ok {
		return in, nil
	}
	if abs, err := filepath.Abs(id); err == nil {
		if in, ok := s.byPath[abs]; ok {
			return in, nil
		}
	}
	return nil, errors.New(errors.ErrNotFound,
		fmt.Sprintf("No dashboard with id '%s'", id),
		"Run 'qdash list' to see running dashboards")
}
