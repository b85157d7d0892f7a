package provisioning

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/metrics"
)

func recordingPhase(name string, executed *[]string, err error) Phase {
	return PhaseFunc{PhaseName: name, Fn: func(_ *Context) error {
		*executed = append(*executed, name)
		return err
	}}
}

func TestNewPipeline(t *testing.T) {
	t.Parallel()
	var executed []string
	p := NewPipeline(recordingPhase("a", &executed, nil), recordingPhase("b", &executed, nil))

	require.Len(t, p.Phases, 2)
	assert.Equal(t, "a", p.Phases[0].Name())
	assert.Empty(t, NewPipeline().Phases)
}

func TestPipeline_Run_Success(t *testing.T) {
	t.Parallel()
	var executed []string
	ctx := &Context{Context: context.Background(), Log: logr.Discard(), Metrics: metrics.NewRecorder()}

	p := NewPipeline(
		recordingPhase("infrastructure", &executed, nil),
		recordingPhase("compute", &executed, nil),
		recordingPhase("configure", &executed, nil),
	)

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, []string{"infrastructure", "compute", "configure"}, executed)
}

func TestPipeline_Run_StopsOnError(t *testing.T) {
	t.Parallel()
	var executed []string
	boom := errors.New("boom")
	ctx := &Context{Context: context.Background(), Log: logr.Discard()}

	p := NewPipeline(
		recordingPhase("infrastructure", &executed, nil),
		recordingPhase("compute", &executed, boom),
		recordingPhase("configure", &executed, nil),
	)

	err := p.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "compute phase failed")
	assert.Equal(t, []string{"infrastructure", "compute"}, executed)
}

func TestNewContext(t *testing.T) {
	t.Parallel()
	def := &config.Definition{Name: "astro"}
	ctx := NewContext(context.Background(), &config.Config{}, def, nil)

	require.NotNil(t, ctx.State)
	assert.NotNil(t, ctx.State.WorkerAddresses)
	assert.NotNil(t, ctx.Timeouts)
	assert.Equal(t, "astro", ctx.FleetName())
	assert.Equal(t, "", (&Context{}).FleetName())
}

func TestState_Addresses(t *testing.T) {
	t.Parallel()
	s := NewState()
	assert.Empty(t, s.Addresses())

	s.ControllerAddress = "10.0.0.1"
	s.WorkerAddresses["cpu"] = []string{"10.0.0.2", "10.0.0.3"}

	got := s.Addresses()
	assert.Equal(t, "10.0.0.1", got[0])
	assert.ElementsMatch(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, got)
}
