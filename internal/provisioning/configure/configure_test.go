package configure

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/platform/ansible"
	"github.com/imamik/fleetctl/internal/provisioning"
	fakes "github.com/imamik/fleetctl/internal/testing"
)

func testConfig() *config.Config {
	return &config.Config{
		SharedVolume: config.SharedVolumeConfig{MountPath: "/home/data/"},
		Bucket: config.BucketConfig{
			Name:      "astro-data",
			Endpoint:  "https://fsn1.your-objectstorage.com",
			Region:    "fsn1",
			AccessKey: "AK",
			SecretKey: "SK",
		},
	}
}

func TestController(t *testing.T) {
	runner := &fakes.MockPlaybookRunner{}
	runner.On("Run", mock.Anything, mock.MatchedBy(func(r ansible.Run) bool {
		return r.Playbook == ControllerPlaybook &&
			r.Inventory.Render() == "[controller]\n192.0.2.1\n" &&
			r.Vars["s3_bucket"] == "astro-data" &&
			r.Vars["shared_volume_path"] == "/home/data/"
	})).Return(ansible.Result{}, nil)

	c := &Configurator{Playbooks: runner, Config: testConfig(), Log: logr.Discard()}
	require.NoError(t, c.Controller(context.Background(), "192.0.2.1"))
	runner.AssertExpectations(t)
}

func TestController_NoBucketVars(t *testing.T) {
	cfg := testConfig()
	cfg.Bucket = config.BucketConfig{}
	c := &Configurator{Config: cfg}

	vars := c.ControllerVars()
	assert.NotContains(t, vars, "s3_bucket")
	assert.Equal(t, "docker-registry", vars["registry_s3_path"])
}

func TestController_Failure(t *testing.T) {
	runner := &fakes.MockPlaybookRunner{}
	runner.On("Run", mock.Anything, mock.Anything).Return(ansible.Result{}, &ansible.Error{Playbook: ControllerPlaybook, Output: "unreachable", Err: errors.New("exit status 4")})

	c := &Configurator{Playbooks: runner, Config: testConfig(), Log: logr.Discard()}
	err := c.Controller(context.Background(), "192.0.2.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "192.0.2.1")
	assert.Contains(t, err.Error(), "unreachable")
}

func TestController_RequiresAddress(t *testing.T) {
	runner := &fakes.MockPlaybookRunner{}
	c := &Configurator{Playbooks: runner, Config: testConfig(), Log: logr.Discard()}

	assert.Error(t, c.Controller(context.Background(), ""))
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestNodes(t *testing.T) {
	var got ansible.Run
	runner := &fakes.MockPlaybookRunner{}
	runner.On("Run", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(ansible.Run)
	}).Return(ansible.Result{}, nil)

	c := &Configurator{Playbooks: runner, Config: testConfig(), Log: logr.Discard()}
	err := c.Nodes(context.Background(), "192.0.2.1", map[string][]string{
		"gpu": {"192.0.2.20"},
		"cpu": {"192.0.2.10", "192.0.2.11"},
	})
	require.NoError(t, err)

	assert.Equal(t, NodesPlaybook, got.Playbook)
	assert.Equal(t, "[cpu]\n192.0.2.10\n192.0.2.11\n\n[gpu]\n192.0.2.20\n", got.Inventory.Render())
	assert.Equal(t, map[string]any{"controller_ip": "192.0.2.1"}, got.Vars)
}

func TestNodes_NoWorkers(t *testing.T) {
	runner := &fakes.MockPlaybookRunner{}
	c := &Configurator{Playbooks: runner, Config: testConfig(), Log: logr.Discard()}

	require.NoError(t, c.Nodes(context.Background(), "192.0.2.1", nil))
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestProvisioner(t *testing.T) {
	runner := &fakes.MockPlaybookRunner{}
	runner.On("Run", mock.Anything, mock.MatchedBy(func(r ansible.Run) bool { return r.Playbook == ControllerPlaybook })).Return(ansible.Result{}, nil).Once()
	runner.On("Run", mock.Anything, mock.MatchedBy(func(r ansible.Run) bool { return r.Playbook == NodesPlaybook })).Return(ansible.Result{}, nil).Once()

	ctx := provisioning.NewContext(context.Background(), testConfig(), &config.Definition{Name: "astro"}, fakes.NewFakeCloud())
	ctx.Playbooks = runner
	ctx.State.ControllerAddress = "192.0.2.1"
	ctx.State.WorkerAddresses["cpu"] = []string{"192.0.2.10"}

	p := NewProvisioner()
	assert.Equal(t, "configure", p.Name())
	require.NoError(t, p.Provision(ctx))
	runner.AssertExpectations(t)
}

func TestProvisioner_SkipsWithoutPlaybooks(t *testing.T) {
	ctx := provisioning.NewContext(context.Background(), testConfig(), &config.Definition{Name: "astro"}, fakes.NewFakeCloud())
	assert.NoError(t, NewProvisioner().Provision(ctx))
}
