// Package configure runs the remote configuration procedures against a
// launched fleet: first the controller, then every worker group. Only the
// playbook runner's contract is assumed; playbook contents live outside
// this module.
package configure
