package handlers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/provisioning"
	"github.com/imamik/fleetctl/internal/provisioning/destroy"
	"github.com/imamik/fleetctl/internal/tunnel"
)

// errAborted is returned when the operator declines the confirmation.
var errAborted = errors.New("destroy aborted")

var (
	// confirmDestroy asks the operator before anything is deleted.
	confirmDestroy = func(ctx context.Context, fleetName string) (bool, error) {
		var ok bool
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Destroy fleet %s?", fleetName)).
					Description("Every instance, the shared volume and the security group are deleted").
					Affirmative("Destroy").
					Negative("Cancel").
					Value(&ok),
			),
		).RunWithContext(ctx)
		return ok, err
	}

	// newDestroyProvisioner creates the teardown phase.
	newDestroyProvisioner = func(local destroy.LocalState, tunnels destroy.TunnelCloser, prefixes ...string) provisioning.Phase {
		return destroy.NewProvisioner(local).WithTunnels(tunnels, prefixes...)
	}
)

// Destroy tears down the working fleet.
//
// Every instance tagged with the fleet is terminated, then the shared
// volume and the security group are deleted, persistent tunnels are closed
// and the local record and session directory are removed. Steps that fail
// are reported together; the remaining steps still run.
func Destroy(ctx context.Context, g Globals, skipConfirm bool) (err error) {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.close()

	rec, err := s.record()
	if err != nil {
		return err
	}

	if !skipConfirm {
		ok, err := confirmDestroy(ctx, rec.FleetName)
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			return errAborted
		}
	}

	start := time.Now()
	defer func() { s.metrics.ObserveOperation("destroy", start, err) }()

	pCtx := provisioning.NewContext(ctx, s.cfg, &config.Definition{Name: rec.FleetName}, s.cloud())
	pCtx.Log = s.log
	pCtx.Metrics = s.metrics
	pCtx.State.ControllerAddress = rec.Controller.IP

	s.log.Info("[Destroy] Destroying fleet", "fleet", rec.FleetName)

	tunnels := s.tunnels()
	existing, err := tunnels.Prefixes()
	if err != nil {
		s.log.V(1).Info("Could not list tunnel sockets", "error", err.Error())
	}

	phase := newDestroyProvisioner(s.store, tunnels, tunnelPrefixes(s.cfg, existing...)...)
	if err := provisioning.NewPipeline(phase).Run(pCtx); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Fleet %s destroyed\n", rec.FleetName)
	return nil
}

// tunnelPrefixes lists the prefixes whose persistent tunnels belong to a
// fleet session: the known ones plus every prefix found on disk.
func tunnelPrefixes(cfg *config.Config, existing ...string) []string {
	prefixes := []string{tunnel.DefaultPrefix}
	if p := cfg.Tunnel.Prefix; p != "" && p != tunnel.DefaultPrefix {
		prefixes = append(prefixes, p)
	}
	prefixes = append(prefixes, nodeTunnelPrefix)
	for _, p := range existing {
		if !slices.Contains(prefixes, p) {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}
