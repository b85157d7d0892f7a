// Package prerequisites checks for the local binaries fleetctl shells out
// to.
package prerequisites

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool is a binary that must be on PATH.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required tools fail the check when missing.
	Required bool

	// Purpose is shown when the tool is missing.
	Purpose string
}

// SSH is needed for every tunnel.
func SSH() Tool {
	return Tool{Name: "ssh", Required: true, Purpose: "tunnels to the controller"}
}

// Playbook returns the configuration runner binary. It is only required
// when playbooks are configured.
func Playbook(binary string, required bool) Tool {
	return Tool{Name: binary, Required: required, Purpose: "remote configuration and file sync"}
}

// Result is the outcome of one lookup.
type Result struct {
	Tool  Tool
	Found bool
	Path  string
}

// Results collects every lookup.
type Results struct {
	Results []Result
	Missing []Tool
}

// HasErrors reports whether a required tool is missing.
func (r *Results) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error lists the missing required tools, or returns nil.
func (r *Results) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.Purpose))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// Check looks every tool up on PATH.
func Check(tools ...Tool) *Results {
	results := &Results{}
	for _, tool := range tools {
		res := Result{Tool: tool}
		if p, err := lookPath(tool.Name); err == nil {
			res.Found = true
			res.Path = p
		} else {
			results.Missing = append(results.Missing, tool)
		}
		results.Results = append(results.Results, res)
	}
	return results
}
