package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/fleetctl/internal/remote"
)

// Workon makes an existing fleet the working fleet. The controller is
// looked up by its role tag and its address is recorded locally.
func Workon(ctx context.Context, g Globals, fleetName string) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.close()

	controller, err := remote.FindController(ctx, s.cloud(), fleetName)
	if err != nil {
		return err
	}

	if err := s.store.Write(fleetName, controller.Address); err != nil {
		return err
	}
	s.log.V(1).Info("[Workon] Recorded fleet", "fleet", fleetName, "controller", controller.Address)

	fmt.Fprintf(stdout, "Switched to %s\n", fleetName)
	return nil
}
