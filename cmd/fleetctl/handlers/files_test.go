package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/platform/ansible"
	"github.com/imamik/fleetctl/internal/platform/ssh"
	"github.com/imamik/fleetctl/internal/provisioning"
	"github.com/imamik/fleetctl/internal/remote"
)

func TestList(t *testing.T) {
	h := newHarness(t)
	h.record(t, "demo", "203.0.113.10")
	h.shell.Handler = func(cmd string) (ssh.ExecResult, error) {
		return ssh.ExecResult{Stdout: "total 0\ndrwxr-xr-x 2 root root 40 results\n"}, nil
	}

	require.NoError(t, List(context.Background(), Globals{}, "runs"))

	assert.Equal(t, []string{"ls -al -- /home/data/runs"}, h.shell.Commands())
	assert.Contains(t, h.out.String(), "results")
	assert.Equal(t, []string{"203.0.113.10"}, h.dialed)
}

func TestRemove(t *testing.T) {
	h := newHarness(t)
	h.record(t, "demo", "203.0.113.10")

	require.NoError(t, Remove(context.Background(), Globals{}, "old run"))

	cmds := h.shell.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "rm -rf -- '/home/data/old run'", cmds[1])
	assert.Contains(t, h.out.String(), "Removed /home/data/old run")
}

func TestRemove_Missing(t *testing.T) {
	h := newHarness(t)
	h.record(t, "demo", "203.0.113.10")
	h.shell.Handler = func(cmd string) (ssh.ExecResult, error) {
		if strings.HasPrefix(cmd, "test ") {
			return ssh.ExecResult{ExitStatus: 1}, nil
		}
		return ssh.ExecResult{}, nil
	}

	err := Remove(context.Background(), Globals{}, "missing")
	require.ErrorIs(t, err, fleet.ErrResourceNotFound)
	assert.Len(t, h.shell.Commands(), 1)
}

func TestSyncPut(t *testing.T) {
	h := newHarness(t)
	h.record(t, "demo", "203.0.113.10")
	local := t.TempDir()
	h.playbooks.On("Run", mock.Anything, mock.MatchedBy(func(run ansible.Run) bool {
		return run.Playbook == remote.SyncPutPlaybook &&
			run.Vars["src_path"] == local &&
			run.Vars["dst_path"] == "/home/data/inputs"
	})).Return(ansible.Result{}, nil).Once()

	require.NoError(t, SyncPut(context.Background(), Globals{}, local, "inputs"))

	h.playbooks.AssertExpectations(t)
	assert.Contains(t, h.out.String(), "Synced")
}

func TestSyncGet(t *testing.T) {
	h := newHarness(t)
	h.record(t, "demo", "203.0.113.10")
	local := t.TempDir()
	h.playbooks.On("Run", mock.Anything, mock.MatchedBy(func(run ansible.Run) bool {
		return run.Playbook == remote.SyncGetPlaybook &&
			run.Vars["src_path"] == "/home/data/results" &&
			run.Vars["dst_path"] == local
	})).Return(ansible.Result{}, nil).Once()

	require.NoError(t, SyncGet(context.Background(), Globals{}, "results", local))

	h.playbooks.AssertExpectations(t)
	assert.Equal(t, []string{"test -d /home/data/results"}, h.shell.Commands())
}

func TestSyncGet_MissingLocalFolder(t *testing.T) {
	h := newHarness(t)
	h.record(t, "demo", "203.0.113.10")

	err := SyncGet(context.Background(), Globals{}, "results", "/does/not/exist")
	require.ErrorIs(t, err, fleet.ErrResourceNotFound)
	assert.Contains(t, err.Error(), "/does/not/exist")
	h.playbooks.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestSync_NoPlaybooks(t *testing.T) {
	h := newHarness(t)
	h.record(t, "demo", "203.0.113.10")
	newPlaybookRunner = func(_ *config.Config, _ logr.Logger) provisioning.PlaybookRunner { return nil }

	err := SyncPut(context.Background(), Globals{}, t.TempDir(), "inputs")
	require.ErrorIs(t, err, errNoPlaybooks)
	assert.Empty(t, h.dialed)
}
