package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/platform/ssh"
	"github.com/imamik/fleetctl/internal/remote"
	"github.com/imamik/fleetctl/internal/util/labels"
)

const dfOutput = `Filesystem      Size  Used Avail Use% Mounted on
/dev/sda1        38G  4.1G   32G  12% /
/dev/sdb         20G  5.0G   14G  27% /home/data
`

func seedFleet(h *harness, launched time.Time) {
	h.cloud.AddInstance(fleet.Instance{
		InstanceType: "cx22",
		State:        fleet.StateRunning,
		Address:      "203.0.113.10",
		LaunchedAt:   launched,
		Tags:         map[string]string{labels.KeyFleet: "demo", labels.KeyRole: labels.RoleController},
	})
	for range 3 {
		h.cloud.AddInstance(fleet.Instance{
			InstanceType: "cx42",
			State:        fleet.StateRunning,
			Tags:         map[string]string{labels.KeyFleet: "demo", labels.KeyRole: labels.RoleWorker},
		})
	}
}

func TestInfo(t *testing.T) {
	h := newHarness(t)
	h.record(t, "demo", "203.0.113.10")
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	seedFleet(h, fixed.Add(-26*time.Hour-90*time.Second))
	h.shell.Handler = func(cmd string) (ssh.ExecResult, error) {
		return ssh.ExecResult{Stdout: dfOutput}, nil
	}

	err := Info(context.Background(), Globals{}, "")
	require.NoError(t, err)

	out := h.out.String()
	assert.Contains(t, out, "fleetctl info: demo")
	assert.Contains(t, out, "203.0.113.10")
	assert.Contains(t, out, "1d 02:01:30")
	assert.Contains(t, out, "cx42:")
	assert.Contains(t, out, "Total:")
	assert.Contains(t, out, "5.0G (27%)")
	assert.NotContains(t, out, "\x1b[", "plain output must not carry escape sequences")
	assert.Equal(t, []string{"df -h"}, h.shell.Commands())
}

func TestInfo_Sections(t *testing.T) {
	tests := []struct {
		section  string
		want     string
		notWant  string
		wantDial bool
	}{
		{InfoStatus, "Status", "Instances", false},
		{InfoInstances, "Instances", "Status", false},
		{InfoVolume, "Shared volume /home/data/", "Instances", true},
	}
	for _, tt := range tests {
		t.Run(tt.section, func(t *testing.T) {
			h := newHarness(t)
			h.record(t, "demo", "203.0.113.10")
			seedFleet(h, time.Now())

			require.NoError(t, Info(context.Background(), Globals{}, tt.section))
			assert.Contains(t, h.out.String(), tt.want)
			assert.NotContains(t, h.out.String(), tt.notWant)
			assert.Equal(t, tt.wantDial, len(h.dialed) == 1)
		})
	}
}

func TestInfo_UnknownSection(t *testing.T) {
	newHarness(t)
	err := Info(context.Background(), Globals{}, "pricing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown info section "pricing"`)
}

func TestInfo_FleetGone(t *testing.T) {
	h := newHarness(t)
	h.record(t, "demo", "203.0.113.10")

	err := Info(context.Background(), Globals{}, InfoStatus)
	require.EqualError(t, err, "fleet demo does not exist")
}

func TestRenderInfo_UnmountedVolume(t *testing.T) {
	out := renderInfo(infoReport{Fleet: "demo", Volume: &remote.VolumeUsage{}, MountPath: "/home/data/"}, true)
	assert.Contains(t, out, "not mounted")
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "unknown"},
		{59 * time.Second, "00:00:59"},
		{3*time.Hour + 4*time.Minute + 5*time.Second + 300*time.Millisecond, "03:04:05"},
		{49 * time.Hour, "2d 01:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.in), tt.in.String())
	}
}
