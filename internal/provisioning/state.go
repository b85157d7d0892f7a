package provisioning

// State holds the results of completed phases.
type State struct {
	// Infrastructure results
	SecurityGroupID string
	SSHKeyName      string

	// Compute results
	ControllerID      string
	ControllerAddress string
	VolumeID          string
	// WorkerAddresses maps worker group label to instance addresses.
	WorkerAddresses map[string][]string
	WorkerIDs       []string
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{
		WorkerAddresses: make(map[string][]string),
	}
}

// Addresses returns the controller address followed by every worker
// address.
func (s *State) Addresses() []string {
	var out []string
	if s.ControllerAddress != "" {
		out = append(out, s.ControllerAddress)
	}
	for _, addrs := range s.WorkerAddresses {
		out = append(out, addrs...)
	}
	return out
}
