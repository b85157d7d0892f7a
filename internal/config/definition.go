package config

import (
	"errors"
	"fmt"
	"regexp"
)

var fleetNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]{0,39}$`)

var groupLabelPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,29}$`)

// Definition describes one fleet.
type Definition struct {
	Name         string            `yaml:"name"`
	Controller   InstanceConfig    `yaml:"controller"`
	WorkerGroups []WorkerGroup     `yaml:"worker_groups"`
	Labels       map[string]string `yaml:"labels,omitempty"`
}

// WorkerGroup is a set of identical workers sharing a label.
type WorkerGroup struct {
	Label      string `yaml:"label"`
	ServerType string `yaml:"server_type"`
	Image      string `yaml:"image"`
	Count      int    `yaml:"count"`
}

// ApplyDefaults fills instance types and images from the profile.
func (d *Definition) ApplyDefaults(c *Config) {
	if d.Controller.ServerType == "" {
		d.Controller.ServerType = c.Controller.ServerType
	}
	if d.Controller.Image == "" {
		d.Controller.Image = c.Controller.Image
	}
	for i := range d.WorkerGroups {
		g := &d.WorkerGroups[i]
		if g.ServerType == "" {
			g.ServerType = c.Worker.ServerType
		}
		if g.Image == "" {
			g.Image = c.Worker.Image
		}
	}
}

// TotalWorkers returns the number of workers across all groups.
func (d *Definition) TotalWorkers() int {
	total := 0
	for _, g := range d.WorkerGroups {
		total += g.Count
	}
	return total
}

// Validate reports every problem in the definition.
func (d *Definition) Validate() error {
	var errs []error

	if d.Name == "" {
		errs = append(errs, errors.New("name is required"))
	} else if !fleetNamePattern.MatchString(d.Name) {
		errs = append(errs, fmt.Errorf("invalid fleet name %q: lowercase letters, digits and '-', starting with a letter", d.Name))
	}

	seen := make(map[string]bool)
	for i, g := range d.WorkerGroups {
		switch {
		case g.Label == "":
			errs = append(errs, fmt.Errorf("worker_groups[%d]: label is required", i))
		case !groupLabelPattern.MatchString(g.Label):
			errs = append(errs, fmt.Errorf("worker_groups[%d]: invalid label %q", i, g.Label))
		case seen[g.Label]:
			errs = append(errs, fmt.Errorf("worker_groups[%d]: duplicate label %q", i, g.Label))
		}
		seen[g.Label] = true

		if g.Count < 1 {
			errs = append(errs, fmt.Errorf("worker_groups[%d]: count must be at least 1, got %d", i, g.Count))
		}
	}

	return errors.Join(errs...)
}
