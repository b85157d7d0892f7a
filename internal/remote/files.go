package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/go-logr/logr"

	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/platform/ansible"
	"github.com/imamik/fleetctl/internal/platform/ssh"
	"github.com/imamik/fleetctl/internal/provisioning"
)

// Sync playbooks.
const (
	SyncPutPlaybook = "file_sync_put.yml"
	SyncGetPlaybook = "file_sync_get.yml"
)

// Shell runs commands on the controller.
type Shell interface {
	Run(ctx context.Context, cmd string) (ssh.ExecResult, error)
}

// Files manages the shared volume mounted on the controller.
type Files struct {
	Shell      Shell
	Playbooks  provisioning.PlaybookRunner
	Controller string
	// Root is the shared volume mount path.
	Root string
	Log  logr.Logger
}

// Path resolves rel under the shared volume. It never leaves Root.
func (f *Files) Path(rel string) string {
	return path.Join(f.Root, path.Clean("/"+rel))
}

// List returns the long listing of a remote folder.
func (f *Files) List(ctx context.Context, rel string) (string, error) {
	p := f.Path(rel)
	res, err := f.Shell.Run(ctx, shellescape.QuoteCommand([]string{"ls", "-al", "--", p}))
	if err != nil {
		return "", fmt.Errorf("failed to list %s: %w", p, err)
	}
	if res.ExitStatus != 0 {
		if missing(res) {
			return "", fmt.Errorf("remote folder %s: %w", p, fleet.ErrResourceNotFound)
		}
		return "", fmt.Errorf("failed to list %s: %s", p, strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, nil
}

// Remove deletes a remote file or folder recursively.
func (f *Files) Remove(ctx context.Context, rel string) error {
	p := f.Path(rel)
	if p == path.Clean(f.Root) {
		return fmt.Errorf("refusing to remove the shared volume root %s", p)
	}
	if err := f.requireRemote(ctx, p, "-e"); err != nil {
		return err
	}

	res, err := f.Shell.Run(ctx, shellescape.QuoteCommand([]string{"rm", "-rf", "--", p}))
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}
	if res.ExitStatus != 0 {
		return fmt.Errorf("failed to remove %s: %s", p, strings.TrimSpace(res.Combined()))
	}
	f.Log.V(1).Info("Removed", "path", p)
	return nil
}

// Put copies a local folder to the shared volume.
func (f *Files) Put(ctx context.Context, localDir, rel string) error {
	src, err := requireLocalDir(localDir)
	if err != nil {
		return err
	}
	return f.sync(ctx, SyncPutPlaybook, src, f.Path(rel))
}

// Get copies a shared volume folder into a local folder.
func (f *Files) Get(ctx context.Context, localDir, rel string) error {
	dst, err := requireLocalDir(localDir)
	if err != nil {
		return err
	}
	src := f.Path(rel)
	if err := f.requireRemote(ctx, src, "-d"); err != nil {
		return err
	}
	return f.sync(ctx, SyncGetPlaybook, src, dst)
}

func (f *Files) sync(ctx context.Context, playbook, src, dst string) error {
	if f.Controller == "" {
		return fmt.Errorf("cannot sync: %w", fleet.ErrAddressUnresolved)
	}

	var inv ansible.Inventory
	inv.Add("controller", f.Controller)

	f.Log.V(1).Info("Syncing", "from", src, "to", dst)
	_, err := f.Playbooks.Run(ctx, ansible.Run{
		Playbook:  playbook,
		Inventory: inv,
		Vars:      map[string]any{"src_path": src, "dst_path": dst},
	})
	if err != nil {
		return fmt.Errorf("failed to sync %s to %s: %w", src, dst, err)
	}
	return nil
}

// requireRemote fails with fleet.ErrResourceNotFound unless `test flag p`
// succeeds on the controller.
func (f *Files) requireRemote(ctx context.Context, p, flag string) error {
	res, err := f.Shell.Run(ctx, shellescape.QuoteCommand([]string{"test", flag, p}))
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", p, err)
	}
	if res.ExitStatus != 0 {
		return fmt.Errorf("remote path %s: %w", p, fleet.ErrResourceNotFound)
	}
	return nil
}

func requireLocalDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return "", fmt.Errorf("local folder %s: %w", abs, fleet.ErrResourceNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to check %s: %w", abs, err)
	}
	return abs, nil
}

func missing(res ssh.ExecResult) bool {
	return strings.Contains(res.Stderr, "No such file") || strings.Contains(res.Stderr, "cannot access")
}
