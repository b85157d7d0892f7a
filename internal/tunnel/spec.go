package tunnel

import (
	"errors"
	"fmt"
	"strconv"
)

// ForwardHost is the destination address of every forward, as seen from
// the tunnel's SSH target.
const ForwardHost = "127.0.0.1"

// Spec describes one control-socket tunnel.
type Spec struct {
	// Host is the SSH target.
	Host    string
	User    string
	KeyPath string
	// Socket is the control socket path on the machine running ssh.
	Socket     string
	LocalPort  int
	RemotePort int
}

// Validate reports missing or out-of-range fields.
func (s Spec) Validate() error {
	var errs []error
	if s.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if s.Socket == "" {
		errs = append(errs, errors.New("socket path is required"))
	}
	if !validPort(s.LocalPort) {
		errs = append(errs, fmt.Errorf("invalid local port %d", s.LocalPort))
	}
	if !validPort(s.RemotePort) {
		errs = append(errs, fmt.Errorf("invalid remote port %d", s.RemotePort))
	}
	return errors.Join(errs...)
}

// Target returns user@host, or host alone when no user is set.
func (s Spec) Target() string {
	if s.User == "" {
		return s.Host
	}
	return s.User + "@" + s.Host
}

// Forward returns the -L argument value.
func (s Spec) Forward() string {
	return strconv.Itoa(s.LocalPort) + ":" + ForwardHost + ":" + strconv.Itoa(s.RemotePort)
}

// CreateArgs starts a backgrounded master that holds the forward open.
// ssh exits non-zero when the forward cannot be established.
func (s Spec) CreateArgs() []string {
	args := []string{}
	if s.KeyPath != "" {
		args = append(args, "-i", s.KeyPath)
	}
	return append(args,
		"-f", "-N", "-M",
		"-S", s.Socket,
		"-o", "ExitOnForwardFailure=yes",
		"-o", "StrictHostKeyChecking=no",
		s.Target(),
		"-L", s.Forward(),
	)
}

// ExitArgs asks the master behind the socket to exit.
func (s Spec) ExitArgs() []string {
	return s.controlArgs("exit")
}

// CheckArgs asks whether the master behind the socket is running.
func (s Spec) CheckArgs() []string {
	return s.controlArgs("check")
}

func (s Spec) controlArgs(op string) []string {
	return []string{"-S", s.Socket, "-O", op, s.Target()}
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
