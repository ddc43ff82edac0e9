package vars

import (
	"fmt"
	"sync"

	"github.com/qdash/qdash/internal/errors"
)

// Decl declares one variable: its key, type name, default text, and an
// optional human description.
type Decl struct {
	Key         string
	Type        string
	Default     string
	Description string
}

// Variable is one stored variable with its default and current values.
type Variable struct {
	Key         string `json:"key"`
	Kind        Kind   `json:"kind"`
	Default     Value  `json:"default"`
	Current     Value  `json:"current"`
	Description string `json:"description,omitempty"`
}

// Store holds a dashboard's variables. Updates are safe under concurrent
// readers and take effect on the next refresh.
type Store struct {
	mu    sync.RWMutex
	order []string
	byKey map[string]*Variable
}

// NewStore builds a store from declarations, parsing each default against
// its declared type. A default that does not parse is a TYPE error.
func NewStore(decls []Decl) (*Store, error) {
	s := &Store{byKey: make(map[string]*Variable, len(decls))}
	for _, d := range decls {
		kind, err := KindFromName(d.Type)
		if err != nil {
			return nil, err
		}
		def, err := Parse(kind, d.Default)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrType,
				fmt.Sprintf("Default for variable '%s' does not match type %s", d.Key, kind),
				"Fix the default under query.args")
		}
		s.order = append(s.order, d.Key)
		s.byKey[d.Key] = &Variable{
			Key:         d.Key,
			Kind:        kind,
			Default:     def,
			Current:     def,
			Description: d.Description,
		}
	}
	return s, nil
}

// clone returns a deep copy: mutating the result never touches store state.
func (v *Variable) clone() Variable {
	out := *v
	out.Default = v.Default.clone()
	out.Current = v.Current.clone()
	return out
}

// Get returns a copy of the named variable.
func (s *Store) Get(key string) (Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.byKey[key]
	if !ok {
		return Variable{}, s.notFound(key)
	}
	return v.clone(), nil
}

// Update parses raw against the variable's declared type and sets it as the
// current value. The stored value is untouched when parsing fails.
func (s *Store) Update(key, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.byKey[key]
	if !ok {
		return s.notFound(key)
	}
	parsed, err := Parse(v.Kind, raw)
	if err != nil {
		return err
	}
	v.Current = parsed
	return nil
}

// Reset restores every variable to its default.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.byKey {
		v.Current = v.Default
	}
}

// Snapshot returns copies of all variables in declaration order.
func (s *Store) Snapshot() []Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Variable, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key].clone())
	}
	return out
}

// Len returns the number of declared variables.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) notFound(key string) error {
	return errors.New(errors.ErrNotFound,
		fmt.Sprintf("No variable named '%s'", key),
		"Run 'qdash vars <id>' to list declared variables")
}
