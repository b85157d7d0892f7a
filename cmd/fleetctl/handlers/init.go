package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/fleetctl/internal/provisioning"
	"github.com/imamik/fleetctl/internal/provisioning/access"
	"github.com/imamik/fleetctl/internal/provisioning/compute"
	"github.com/imamik/fleetctl/internal/provisioning/configure"
	"github.com/imamik/fleetctl/internal/provisioning/infrastructure"
)

// Init provisions the fleet described by definitionPath and makes it the
// working fleet.
//
// Phases run in order: infrastructure (SSH key, bucket, security group),
// compute (controller, shared volume, worker groups), configure (remote
// playbooks) and access (fleet record and the optional persistent tunnel).
func Init(ctx context.Context, g Globals, definitionPath string) (err error) {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.close()

	def, err := loadDefinition(definitionPath, s.cfg)
	if err != nil {
		return err
	}
	if err := s.requireTools(false); err != nil {
		return err
	}

	start := time.Now()
	defer func() { s.metrics.ObserveOperation("init", start, err) }()

	pCtx := provisioning.NewContext(ctx, s.cfg, def, s.cloud())
	pCtx.Log = s.log
	pCtx.Metrics = s.metrics
	pCtx.Playbooks = newPlaybookRunner(s.cfg, s.log)
	if pCtx.Buckets, err = newBucketStore(ctx, s.cfg); err != nil {
		return fmt.Errorf("failed to create bucket client: %w", err)
	}

	if err := s.store.EnsureSessionDir(); err != nil {
		return err
	}

	s.log.Info("[Init] Provisioning fleet", "fleet", def.Name, "workers", def.TotalWorkers())

	pipeline := provisioning.NewPipeline(
		infrastructure.NewProvisioner(),
		compute.NewProvisioner(),
		configure.NewProvisioner(),
		access.NewProvisioner(s.store, s.tunnels()),
	)
	if err := pipeline.Run(pCtx); err != nil {
		return fmt.Errorf("failed to initialise fleet %s: %w", def.Name, err)
	}

	fmt.Fprintf(stdout, "Fleet %s is ready (controller %s, %d workers)\n",
		def.Name, pCtx.State.ControllerAddress, len(pCtx.State.WorkerIDs))
	if s.cfg.Tunnel.Enabled {
		fmt.Fprintf(stdout, "%s: http://localhost:%d\n", s.cfg.Tunnel.Prefix, s.cfg.Tunnel.LocalPort)
	}
	return nil
}
