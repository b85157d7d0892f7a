// Package ansible runs remote configuration playbooks.
//
// Playbooks are opaque: the runner knows only the input contract (an
// inventory of grouped host addresses and a variable payload) and the
// output contract (success or failure plus captured output). Inventory and
// variable files are written to the session directory under unique names
// and removed after the run.
package ansible
