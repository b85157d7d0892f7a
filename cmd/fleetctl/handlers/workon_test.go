package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/util/labels"
)

func addController(h *harness, fleetName, address string) string {
	return h.cloud.AddInstance(fleet.Instance{
		Name:         fleetName + "-controller",
		InstanceType: "cx22",
		State:        fleet.StateRunning,
		Address:      address,
		Tags:         map[string]string{labels.KeyFleet: fleetName, labels.KeyRole: labels.RoleController},
	})
}

func TestWorkon(t *testing.T) {
	h := newHarness(t)
	addController(h, "demo", "203.0.113.10")
	h.cloud.AddInstance(fleet.Instance{
		State:   fleet.StateRunning,
		Address: "203.0.113.11",
		Tags:    map[string]string{labels.KeyFleet: "demo", labels.KeyRole: labels.RoleWorker},
	})

	err := Workon(context.Background(), Globals{}, "demo")
	require.NoError(t, err)

	rec := h.storedRecord(t)
	require.NotNil(t, rec)
	assert.Equal(t, "demo", rec.FleetName)
	assert.Equal(t, "203.0.113.10", rec.Controller.IP)
	assert.Contains(t, h.out.String(), "Switched to demo")
}

func TestWorkon_ReplacesPreviousRecord(t *testing.T) {
	h := newHarness(t)
	h.record(t, "old", "198.51.100.1")
	addController(h, "demo", "203.0.113.10")

	require.NoError(t, Workon(context.Background(), Globals{}, "demo"))

	rec := h.storedRecord(t)
	assert.Equal(t, "demo", rec.FleetName)
	assert.Equal(t, "203.0.113.10", rec.Controller.IP)
}

func TestWorkon_FleetMissing(t *testing.T) {
	h := newHarness(t)
	h.cloud.AddInstance(fleet.Instance{
		State: fleet.StateTerminated,
		Tags:  map[string]string{labels.KeyFleet: "ghost", labels.KeyRole: labels.RoleController},
	})

	err := Workon(context.Background(), Globals{}, "ghost")
	require.EqualError(t, err, "fleet ghost does not exist")
	assert.Nil(t, h.storedRecord(t))
}
