package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/platform/ansible"
	"github.com/imamik/fleetctl/internal/provisioning"
	"github.com/imamik/fleetctl/internal/util/labels"
)

func stubDefinition(h *harness, workers int) {
	loadDefinition = func(_ string, _ *config.Config) (*config.Definition, error) {
		return &config.Definition{
			Name:       "demo",
			Controller: h.cfg.Controller,
			WorkerGroups: []config.WorkerGroup{
				{Label: "compute", ServerType: "cx32", Image: "ubuntu-24.04", Count: workers},
			},
		}, nil
	}
}

func TestInit(t *testing.T) {
	h := newHarness(t)
	t.Setenv("FLEETCTL_POLL_INTERVAL_LAUNCH", "1ms")
	h.cfg.Tunnel.Enabled = true
	stubDefinition(h, 2)
	h.playbooks.On("Run", mock.Anything, mock.Anything).Return(ansible.Result{}, nil)

	err := Init(context.Background(), Globals{}, "demo.yml")
	require.NoError(t, err)

	rec := h.storedRecord(t)
	require.NotNil(t, rec)
	assert.Equal(t, "demo", rec.FleetName)
	require.NotEmpty(t, rec.Controller.IP)

	require.Len(t, h.cloud.LaunchCalls, 2)
	assert.Equal(t, labels.RoleController, h.cloud.LaunchCalls[0].Tags[labels.KeyRole])
	assert.Len(t, h.cloud.LaunchCalls[1].Names, 2)

	h.playbooks.AssertNumberOfCalls(t, "Run", 2)

	var tunnelCreated bool
	for _, c := range h.runner.Calls() {
		if strings.Contains(c.Line(), "-L 8080:127.0.0.1:8080") && strings.Contains(c.Line(), "root@"+rec.Controller.IP) {
			tunnelCreated = true
		}
	}
	assert.True(t, tunnelCreated, "expected the marathon tunnel to be created")

	assert.Contains(t, h.out.String(), "Fleet demo is ready")
	assert.Contains(t, h.out.String(), "marathon: http://localhost:8080")
}

func TestInit_WithoutPlaybooksOrTunnel(t *testing.T) {
	h := newHarness(t)
	t.Setenv("FLEETCTL_POLL_INTERVAL_LAUNCH", "1ms")
	stubDefinition(h, 1)
	newPlaybookRunner = func(_ *config.Config, _ logr.Logger) provisioning.PlaybookRunner { return nil }

	err := Init(context.Background(), Globals{}, "demo.yml")
	require.NoError(t, err)

	assert.Empty(t, h.runner.Calls())
	require.NotNil(t, h.storedRecord(t))
}

func TestInit_LaunchFailure(t *testing.T) {
	h := newHarness(t)
	t.Setenv("FLEETCTL_POLL_INTERVAL_LAUNCH", "1ms")
	stubDefinition(h, 1)
	h.cloud.LaunchErr = map[string]error{"controller": errors.New("quota exceeded")}

	err := Init(context.Background(), Globals{}, "demo.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compute phase failed")
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Nil(t, h.storedRecord(t))
}

func TestInit_DefinitionError(t *testing.T) {
	newHarness(t)
	loadDefinition = func(_ string, _ *config.Config) (*config.Definition, error) {
		return nil, errors.New("fleet definition demo.yml: name is required")
	}

	err := Init(context.Background(), Globals{}, "demo.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}
