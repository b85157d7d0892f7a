// Package ssh runs commands on, and copies files to, fleet instances.
//
// A Client parses its private key once and opens a connection per call,
// retrying the dial with exponential backoff while an instance finishes
// booting. A refused key is reported as fleet.ErrAuthenticationFailed and is
// never retried.
//
// Host key verification is disabled by default: fleet instances are
// created and destroyed by this tool and their host keys are not known in
// advance.
package ssh
