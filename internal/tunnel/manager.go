package tunnel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/go-logr/logr"

	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/metrics"
	"github.com/imamik/fleetctl/internal/platform/ssh"
	"github.com/imamik/fleetctl/internal/util/poll"
	"github.com/imamik/fleetctl/internal/util/procexec"
)

// DefaultPrefix names persistent tunnel sockets when no prefix is given.
const DefaultPrefix = "fleetctl"

const (
	defaultBinary        = "ssh"
	defaultUser          = "root"
	defaultCheckTimeout  = 10 * time.Second
	defaultCheckInterval = 500 * time.Millisecond

	// Ephemeral tunnel state on the controller.
	remoteSocketDir = "/tmp"
	remoteKeyDir    = ".ssh"
	remoteKeyMode   = 0o600
)

// Shell runs commands on a remote host.
type Shell interface {
	Run(ctx context.Context, cmd string) (ssh.ExecResult, error)
	Upload(ctx context.Context, data []byte, remotePath string, mode os.FileMode) error
}

// DialFunc opens a shell on host.
type DialFunc func(host string) (Shell, error)

// Manager creates and destroys tunnels for one fleet session.
type Manager struct {
	sessionDir string
	keyPath    string
	user       string
	binary     string

	runner   procexec.Runner
	dial     DialFunc
	readFile func(string) ([]byte, error)

	checkTimeout  time.Duration
	checkInterval time.Duration

	log     logr.Logger
	metrics *metrics.Recorder
}

// Option configures a Manager.
type Option func(*Manager)

// WithRunner replaces the local process runner.
func WithRunner(r procexec.Runner) Option {
	return func(m *Manager) {
		m.runner = r
	}
}

// WithDialer sets how remote shells are opened for ephemeral tunnels.
func WithDialer(d DialFunc) Option {
	return func(m *Manager) {
		m.dial = d
	}
}

// WithBinary overrides the ssh executable.
func WithBinary(binary string) Option {
	return func(m *Manager) {
		m.binary = binary
	}
}

// WithCheck sets the deadline and interval for confirming a new
// persistent tunnel.
func WithCheck(timeout, interval time.Duration) Option {
	return func(m *Manager) {
		m.checkTimeout = timeout
		m.checkInterval = interval
	}
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Manager) {
		m.metrics = r
	}
}

// NewManager creates a manager that keeps persistent sockets in
// sessionDir and authenticates as user with the private key at keyPath.
func NewManager(sessionDir, keyPath, user string, opts ...Option) *Manager {
	if user == "" {
		user = defaultUser
	}
	m := &Manager{
		sessionDir:    sessionDir,
		keyPath:       keyPath,
		user:          user,
		binary:        defaultBinary,
		runner:        &procexec.OSRunner{},
		readFile:      os.ReadFile,
		checkTimeout:  defaultCheckTimeout,
		checkInterval: defaultCheckInterval,
		log:           logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SocketPath returns the control socket of the persistent tunnel on
// localPort.
func (m *Manager) SocketPath(prefix string, localPort int) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return filepath.Join(m.sessionDir, fmt.Sprintf("%s_tunnel_%d.sock", prefix, localPort))
}

// CreatePersistent forwards localhost:localPort to remotePort on the
// controller through a backgrounded ssh master. Any tunnel already on the
// same socket is closed first. It returns once the master answers a
// control check.
func (m *Manager) CreatePersistent(ctx context.Context, controller string, remotePort, localPort int, prefix string) (err error) {
	defer func() { m.metrics.TunnelOperation("create_persistent", err) }()

	if controller == "" {
		return fmt.Errorf("cannot create tunnel: %w", fleet.ErrAddressUnresolved)
	}
	if prefix, err = resolvePrefix(prefix); err != nil {
		return err
	}

	spec := Spec{
		Host:       controller,
		User:       m.user,
		KeyPath:    m.keyPath,
		Socket:     m.SocketPath(prefix, localPort),
		LocalPort:  localPort,
		RemotePort: remotePort,
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid tunnel: %w", err)
	}

	if err := os.MkdirAll(m.sessionDir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	if _, resetErr := m.runner.Run(ctx, m.binary, spec.ExitArgs()...); resetErr != nil {
		m.log.V(1).Info("No previous tunnel to close", "socket", spec.Socket, "result", resetErr.Error())
	}

	if _, err := m.runner.Run(ctx, m.binary, spec.CreateArgs()...); err != nil {
		return fmt.Errorf("failed to create tunnel localhost:%d -> %s:%d: %w", localPort, controller, remotePort, err)
	}

	if err := m.waitReady(ctx, spec); err != nil {
		return fmt.Errorf("tunnel localhost:%d -> %s:%d did not come up: %w", localPort, controller, remotePort, err)
	}

	m.log.Info("Tunnel created", "local", localPort, "controller", controller, "remote", remotePort, "socket", spec.Socket)
	return nil
}

// waitReady polls the control socket until the master answers.
func (m *Manager) waitReady(ctx context.Context, spec Spec) error {
	return poll.Expect(ctx, "tunnel check "+spec.Socket, m.checkInterval, m.checkTimeout, func(ctx context.Context) (bool, error) {
		m.metrics.PollEvaluated("tunnel_check")
		_, err := m.runner.Run(ctx, m.binary, spec.CheckArgs()...)
		if err == nil {
			return true, nil
		}
		if procexec.ExitCode(err) >= 0 {
			return false, nil
		}
		return false, err
	})
}

// DestroyAllPersistent closes every persistent tunnel under prefix. Each
// socket is attempted once; failures are collected and reported together.
func (m *Manager) DestroyAllPersistent(ctx context.Context, controller, prefix string) (err error) {
	defer func() { m.metrics.TunnelOperation("destroy_all", err) }()

	if controller == "" {
		return fmt.Errorf("cannot destroy tunnels: %w", fleet.ErrAddressUnresolved)
	}
	if prefix, err = resolvePrefix(prefix); err != nil {
		return err
	}

	sockets, err := filepath.Glob(filepath.Join(m.sessionDir, prefix+"_tunnel_*.sock"))
	if err != nil {
		return fmt.Errorf("failed to list tunnel sockets: %w", err)
	}

	var errs []error
	for _, socket := range sockets {
		spec := Spec{Host: controller, User: m.user, Socket: socket}
		if _, runErr := m.runner.Run(ctx, m.binary, spec.ExitArgs()...); runErr != nil {
			m.log.Info("Could not close tunnel", "socket", socket, "error", runErr.Error())
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(socket), runErr))
			continue
		}
		m.log.V(1).Info("Tunnel closed", "socket", socket)
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to close %d of %d tunnels: %w", len(errs), len(sockets), errors.Join(errs...))
	}
	return nil
}

// Prefixes returns the distinct prefixes of the persistent tunnel sockets
// present in the session directory, sorted.
func (m *Manager) Prefixes() ([]string, error) {
	sockets, err := filepath.Glob(filepath.Join(m.sessionDir, "*_tunnel_*.sock"))
	if err != nil {
		return nil, fmt.Errorf("failed to list tunnel sockets: %w", err)
	}
	var prefixes []string
	for _, socket := range sockets {
		name := filepath.Base(socket)
		prefix := name[:strings.LastIndex(name, "_tunnel_")]
		if prefix != "" && !slices.Contains(prefixes, prefix) {
			prefixes = append(prefixes, prefix)
		}
	}
	slices.Sort(prefixes)
	return prefixes, nil
}

// Handle is an ephemeral tunnel running on the controller.
type Handle struct {
	shell Shell
	spec  Spec
	log   logr.Logger
}

// Spec returns the tunnel description. Paths are on the controller.
func (h *Handle) Spec() Spec {
	return h.spec
}

// ControlPort is the controller port that forwards to the remote host.
func (h *Handle) ControlPort() int {
	return h.spec.LocalPort
}

// Close tears the tunnel down.
func (h *Handle) Close(ctx context.Context) error {
	res, err := h.shell.Run(ctx, remoteCommand(h.spec.ExitArgs()))
	if err != nil {
		return fmt.Errorf("failed to close tunnel to %s: %w", h.spec.Host, err)
	}
	if res.ExitStatus != 0 {
		return fmt.Errorf("failed to close tunnel to %s: exit status %d: %s", h.spec.Host, res.ExitStatus, strings.TrimSpace(res.Combined()))
	}
	h.log.V(1).Info("Ephemeral tunnel closed", "host", h.spec.Host, "port", h.spec.LocalPort)
	return nil
}

// CreateEphemeral opens a tunnel on the controller that forwards
// controlPort on the controller to remotePort on remoteHost. The fleet
// private key is copied to the controller first.
func (m *Manager) CreateEphemeral(ctx context.Context, controller, remoteHost string, controlPort, remotePort int) (_ *Handle, err error) {
	defer func() { m.metrics.TunnelOperation("create_ephemeral", err) }()

	if controller == "" {
		return nil, fmt.Errorf("cannot create tunnel: %w", fleet.ErrAddressUnresolved)
	}
	if m.dial == nil {
		return nil, errors.New("no remote shell configured for ephemeral tunnels")
	}

	remoteKey := path.Join(remoteKeyDir, filepath.Base(m.keyPath))
	spec := Spec{
		Host:       remoteHost,
		User:       m.user,
		KeyPath:    remoteKey,
		Socket:     path.Join(remoteSocketDir, fmt.Sprintf("%s_tunnel_%s_%d.sock", DefaultPrefix, socketName(remoteHost), controlPort)),
		LocalPort:  controlPort,
		RemotePort: remotePort,
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tunnel: %w", err)
	}

	key, err := m.readFile(m.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	shell, err := m.dial(controller)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to controller %s: %w", controller, err)
	}

	if err := shell.Upload(ctx, key, remoteKey, remoteKeyMode); err != nil {
		return nil, fmt.Errorf("failed to copy key to controller: %w", err)
	}

	if res, resetErr := shell.Run(ctx, remoteCommand(spec.ExitArgs())); resetErr != nil || res.ExitStatus != 0 {
		m.log.V(1).Info("No previous ephemeral tunnel to close", "socket", spec.Socket)
	}

	res, err := shell.Run(ctx, remoteCommand(spec.CreateArgs()))
	if err != nil {
		return nil, fmt.Errorf("failed to create tunnel %s:%d -> %s:%d: %w", controller, controlPort, remoteHost, remotePort, err)
	}
	if res.ExitStatus != 0 {
		return nil, fmt.Errorf("failed to create tunnel %s:%d -> %s:%d: exit status %d: %s",
			controller, controlPort, remoteHost, remotePort, res.ExitStatus, strings.TrimSpace(res.Combined()))
	}

	m.log.V(1).Info("Ephemeral tunnel created", "controller", controller, "port", controlPort, "host", remoteHost, "remote", remotePort)
	return &Handle{shell: shell, spec: spec, log: m.log}, nil
}

func remoteCommand(args []string) string {
	return shellescape.QuoteCommand(append([]string{defaultBinary}, args...))
}

// socketName maps a host to a single path element.
func socketName(host string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == ':':
			return r
		}
		return '_'
	}, host)
}

func resolvePrefix(prefix string) (string, error) {
	if prefix == "" {
		return DefaultPrefix, nil
	}
	if strings.ContainsAny(prefix, `/\*?[]`) {
		return "", fmt.Errorf("invalid tunnel prefix %q", prefix)
	}
	return prefix, nil
}
