package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/fleetctl/internal/util/prerequisites"
)

// nodeTunnelPrefix names the local half of a node tunnel.
const nodeTunnelPrefix = "node"

// waitForInterrupt blocks until ctx is cancelled.
var waitForInterrupt = func(ctx context.Context) {
	<-ctx.Done()
}

// TunnelCreate forwards localhost:localPort to remotePort on the working
// fleet's controller. A zero localPort uses remotePort.
func TunnelCreate(ctx context.Context, g Globals, remotePort, localPort int, prefix string) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.close()

	rec, err := s.controller()
	if err != nil {
		return err
	}
	if localPort == 0 {
		localPort = remotePort
	}
	if err := checkTools(prerequisites.SSH()); err != nil {
		return err
	}

	if err := s.tunnels().CreatePersistent(ctx, rec.Controller.IP, remotePort, localPort, prefix); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Tunnel open: localhost:%d -> %s:%d\n", localPort, rec.Controller.IP, remotePort)
	return nil
}

// TunnelDestroyAll closes every persistent tunnel under prefix.
func TunnelDestroyAll(ctx context.Context, g Globals, prefix string) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.close()

	rec, err := s.controller()
	if err != nil {
		return err
	}

	if err := s.tunnels().DestroyAllPersistent(ctx, rec.Controller.IP, prefix); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Tunnels closed")
	return nil
}

// NodeTunnel forwards localhost:localPort to remotePort on a fleet host
// that is only reachable from the controller. The controller forwards
// controlPort to the host and a persistent tunnel connects the local port
// to controlPort. Both halves are closed when ctx is cancelled. Zero ports
// default to remotePort.
func NodeTunnel(ctx context.Context, g Globals, host string, remotePort, localPort, controlPort int) (err error) {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.close()

	rec, err := s.controller()
	if err != nil {
		return err
	}
	if localPort == 0 {
		localPort = remotePort
	}
	if controlPort == 0 {
		controlPort = remotePort
	}
	if err := checkTools(prerequisites.SSH()); err != nil {
		return err
	}

	mgr := s.tunnels()
	handle, err := mgr.CreateEphemeral(ctx, rec.Controller.IP, host, controlPort, remotePort)
	if err != nil {
		return err
	}

	cleanup := context.WithoutCancel(ctx)
	defer func() {
		err = errors.Join(err, handle.Close(cleanup))
	}()

	if err := mgr.CreatePersistent(ctx, rec.Controller.IP, handle.ControlPort(), localPort, nodeTunnelPrefix); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, mgr.DestroyAllPersistent(cleanup, rec.Controller.IP, nodeTunnelPrefix))
	}()

	fmt.Fprintf(stdout, "Forwarding localhost:%d -> %s:%d, press Ctrl-C to stop\n", localPort, host, remotePort)
	waitForInterrupt(ctx)
	return nil
}
