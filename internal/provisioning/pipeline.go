package provisioning

import (
	"fmt"
	"time"
)

// Pipeline runs phases in order.
type Pipeline struct {
	Phases []Phase
}

// NewPipeline creates a pipeline of the given phases.
func NewPipeline(phases ...Phase) *Pipeline {
	return &Pipeline{Phases: phases}
}

// Run executes every phase sequentially and stops at the first failure.
func (p *Pipeline) Run(ctx *Context) error {
	start := time.Now()
	ctx.Log.Info("Starting provisioning", "phases", len(p.Phases), "fleet", ctx.FleetName())

	for i, phase := range p.Phases {
		phaseStart := time.Now()
		name := fmt.Sprintf("%s (%d/%d)", phase.Name(), i+1, len(p.Phases))

		ctx.Log.Info(fmt.Sprintf("[%s] starting", name))
		err := phase.Provision(ctx)
		ctx.Metrics.ObserveOperation("phase_"+phase.Name(), phaseStart, err)
		if err != nil {
			ctx.Log.Error(err, fmt.Sprintf("[%s] failed", name))
			return fmt.Errorf("%s phase failed: %w", phase.Name(), err)
		}

		ctx.Log.Info(fmt.Sprintf("[%s] completed", name), "duration", time.Since(phaseStart).Round(time.Millisecond))
	}

	ctx.Log.Info("Provisioning completed", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// PhaseFunc adapts a function to the Phase interface.
type PhaseFunc struct {
	PhaseName string
	Fn        func(ctx *Context) error
}

// Name implements Phase.
func (p PhaseFunc) Name() string { return p.PhaseName }

// Provision implements Phase.
func (p PhaseFunc) Provision(ctx *Context) error { return p.Fn(ctx) }
