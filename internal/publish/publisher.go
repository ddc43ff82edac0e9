// Package publish writes rendered dashboard artifacts to a well-known
// directory. Every publish is atomic: a reader following the artifact file
// never observes a partial write.
package publish

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/qdash/qdash/internal/errors"
)

// Extension is the artifact file suffix.
const Extension = ".dashboard"

// Publisher writes artifacts under a single directory, created on first use.
type Publisher struct {
	dir string
}

// New returns a publisher rooted at dir. An empty dir selects the default
// location under the system temp directory.
func New(dir string) *Publisher {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Publisher{dir: dir}
}

// DefaultDir is <temp>/dashboard, shared by the daemon and the CLI.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "dashboard")
}

// Dir returns the artifact directory.
func (p *Publisher) Dir() string {
	return p.dir
}

// Path returns the artifact path for a dashboard name.
func (p *Publisher) Path(name string) string {
	return filepath.Join(p.dir, name+Extension)
}

// Publish writes text to the named artifact: temp file in the same
// directory, fsync, then rename into place. The modification time advances
// on every call, even when the content is unchanged.
func (p *Publisher) Publish(name, text string) (string, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot create artifact directory "+p.dir,
			"Check permissions on the temp directory")
	}

	target := p.Path(name)
	tmp, err := os.CreateTemp(p.dir, name+".*.tmp")
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot create temp file in "+p.dir,
			"Check permissions on the artifact directory")
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot write artifact "+target, "")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot sync artifact "+target, "")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot close artifact "+target, "")
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot publish artifact "+target, "")
	}
	return target, nil
}

// Remove deletes the named artifact. Removing a missing artifact is not
// an error.
func (p *Publisher) Remove(name string) error {
	err := os.Remove(p.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Cannot remove artifact %s", p.Path(name)), "")
	}
	return nil
}
