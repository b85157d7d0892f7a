package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/fleetctl/internal/remote"
)

// errNoPlaybooks is returned by sync when no playbook directory is set.
var errNoPlaybooks = errors.New("sync needs playbooks.dir in the profile")

// files connects to the working fleet's shared volume.
func (s *session) files(needPlaybooks bool) (*remote.Files, error) {
	rec, err := s.controller()
	if err != nil {
		return nil, err
	}

	f := &remote.Files{
		Controller: rec.Controller.IP,
		Root:       s.cfg.SharedVolume.MountPath,
		Log:        s.log,
	}
	if needPlaybooks {
		if f.Playbooks = newPlaybookRunner(s.cfg, s.log); f.Playbooks == nil {
			return nil, errNoPlaybooks
		}
		if err := s.requireTools(true); err != nil {
			return nil, err
		}
	}

	shell, err := dialHost(s.cfg, rec.Controller.IP)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to controller %s: %w", rec.Controller.IP, err)
	}
	f.Shell = shell
	return f, nil
}

// List prints the long listing of a shared volume folder.
func List(ctx context.Context, g Globals, path string) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.close()

	f, err := s.files(false)
	if err != nil {
		return err
	}

	out, err := f.List(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, out)
	return nil
}

// Remove deletes a shared volume file or folder.
func Remove(ctx context.Context, g Globals, path string) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.close()

	f, err := s.files(false)
	if err != nil {
		return err
	}

	if err := f.Remove(ctx, path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Removed %s\n", f.Path(path))
	return nil
}

// SyncPut copies localDir into a shared volume folder.
func SyncPut(ctx context.Context, g Globals, localDir, remotePath string) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.close()

	f, err := s.files(true)
	if err != nil {
		return err
	}

	if err := f.Put(ctx, localDir, remotePath); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Synced %s to %s\n", localDir, f.Path(remotePath))
	return nil
}

// SyncGet copies a shared volume folder into localDir.
func SyncGet(ctx context.Context, g Globals, remotePath, localDir string) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.close()

	f, err := s.files(true)
	if err != nil {
		return err
	}

	if err := f.Get(ctx, localDir, remotePath); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Synced %s to %s\n", f.Path(remotePath), localDir)
	return nil
}
