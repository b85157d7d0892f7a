package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/imamik/fleetctl/internal/remote"
)

// Info sections.
const (
	InfoStatus    = "status"
	InfoInstances = "instances"
	InfoVolume    = "volume"
)

// InfoSections lists the sections Info accepts.
var InfoSections = []string{InfoStatus, InfoInstances, InfoVolume}

var (
	// isTerminal reports whether stdout is a terminal.
	isTerminal = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	// now returns the current time.
	now = time.Now
)

// infoReport collects the requested sections.
type infoReport struct {
	Fleet     string
	Status    *remote.Status
	Instances map[string]int
	Volume    *remote.VolumeUsage
	MountPath string
}

// Info prints the working fleet's status, instance counts and shared
// volume usage. An empty section prints all three.
func Info(ctx context.Context, g Globals, section string) error {
	switch section {
	case "", InfoStatus, InfoInstances, InfoVolume:
	default:
		return fmt.Errorf("unknown info section %q (want one of %v)", section, InfoSections)
	}

	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.close()

	rec, err := s.record()
	if err != nil {
		return err
	}

	report := infoReport{Fleet: rec.FleetName, MountPath: s.cfg.SharedVolume.MountPath}
	cloud := s.cloud()
	want := func(name string) bool { return section == "" || section == name }

	if want(InfoStatus) {
		st, err := remote.FleetStatus(ctx, cloud, rec.FleetName, now())
		if err != nil {
			return err
		}
		report.Status = &st
	}

	if want(InfoInstances) {
		counts, err := remote.InstanceCounts(ctx, cloud, rec.FleetName)
		if err != nil {
			return err
		}
		report.Instances = counts
	}

	if want(InfoVolume) {
		ctl, err := s.controller()
		if err != nil {
			return err
		}
		shell, err := dialHost(s.cfg, ctl.Controller.IP)
		if err != nil {
			return fmt.Errorf("failed to connect to controller %s: %w", ctl.Controller.IP, err)
		}
		usage, err := remote.SharedVolumeUsage(ctx, shell, s.cfg.SharedVolume.MountPath)
		if err != nil {
			return err
		}
		report.Volume = &usage
	}

	fmt.Fprint(stdout, renderInfo(report, !isTerminal()))
	return nil
}
