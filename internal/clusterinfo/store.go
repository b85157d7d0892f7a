// Package clusterinfo persists the working-fleet record: the fleet name and
// the controller address that later commands resolve once per invocation.
package clusterinfo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
	"gopkg.in/yaml.v3"
)

// Record is the persisted working-fleet record.
type Record struct {
	FleetName  string     `yaml:"cluster_name"`
	Controller Controller `yaml:"controller"`
}

// Controller holds the controller's resolved address.
type Controller struct {
	IP string `yaml:"ip"`
}

// Store reads and writes the record file and owns the session directory.
type Store struct {
	path       string
	sessionDir string
}

// NewStore returns a store for the record at path and the given session
// directory.
func NewStore(path, sessionDir string) *Store {
	return &Store{path: path, sessionDir: sessionDir}
}

// Path returns the record file location.
func (s *Store) Path() string {
	return s.path
}

// SessionDir returns the session directory.
func (s *Store) SessionDir() string {
	return s.sessionDir
}

// Write replaces the record. Readers see either the previous or the new
// record, never a partial file.
func (s *Store) Write(fleetName, controllerAddress string) error {
	if fleetName == "" {
		return errors.New("fleet name is required")
	}

	data, err := yaml.Marshal(&Record{
		FleetName:  fleetName,
		Controller: Controller{IP: controllerAddress},
	})
	if err != nil {
		return fmt.Errorf("failed to encode fleet record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := atomicwriter.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write fleet record %s: %w", s.path, err)
	}
	return nil
}

// Read returns the record, or nil without error when none has been written.
func (s *Store) Read() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fleet record %s: %w", s.path, err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse fleet record %s: %w", s.path, err)
	}
	return &rec, nil
}

// Delete removes the record. A missing file is not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove fleet record %s: %w", s.path, err)
	}
	return nil
}

// EnsureSessionDir creates the session directory.
func (s *Store) EnsureSessionDir() error {
	if err := os.MkdirAll(s.sessionDir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory %s: %w", s.sessionDir, err)
	}
	return nil
}

// RemoveSession deletes the session directory and everything in it.
func (s *Store) RemoveSession() error {
	if err := os.RemoveAll(s.sessionDir); err != nil {
		return fmt.Errorf("failed to remove session directory %s: %w", s.sessionDir, err)
	}
	return nil
}
