// Package filestore persists the portal key/value entries as a single JSON
// document on local disk.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	portalerrors "github.com/jrsteele09/go-partner-portal/internal/errors"
	"github.com/jrsteele09/go-partner-portal/storage"
	"github.com/pkg/errors"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

var _ storage.Store = (*Store)(nil)

// Store keeps every entry in one file which is replaced atomically on each
// write, so readers never observe half a credential pair.
type Store struct {
	path   string
	mu     sync.Mutex
	values map[string]string // nil until first load
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return "", false, err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	next := cloneValues(s.values)
	for k, v := range entries {
		next[k] = v
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		// A corrupt document is replaced rather than left blocking sign-out.
		if !portalerrors.Is(err, portalerrors.ErrCorruptStore) {
			return err
		}
		s.values = map[string]string{}
	}
	next := cloneValues(s.values)
	for _, k := range keys {
		delete(next, k)
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

func (s *Store) load() error {
	if s.values != nil {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.values = map[string]string{}
		return nil
	}
	if err != nil {
		return portalerrors.Wrapf(portalerrors.ErrStoreUnavailable, "[filestore] read %s: %v", s.path, err)
	}
	values := map[string]string{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return portalerrors.Wrapf(portalerrors.ErrCorruptStore, "[filestore] decode %s", s.path)
		}
	}
	s.values = values
	return nil
}

func (s *Store) write(values map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return errors.Wrap(err, "[filestore] MkdirAll")
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[filestore] Marshal")
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return errors.Wrap(err, "[filestore] CreateTemp")
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op after a successful rename
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "[filestore] Write")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "[filestore] Sync")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[filestore] Close")
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		return errors.Wrap(err, "[filestore] Chmod")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, "[filestore] Rename")
	}
	return nil
}

func cloneValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
