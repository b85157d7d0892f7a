package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"golang.org/x/crypto/ssh"

	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	defaultMaxRetries  = 12
	defaultRetryDelay  = 5 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// Config holds SSH client configuration.
type Config struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// DialTimeout bounds the TCP connect. Zero uses defaultDialTimeout.
	DialTimeout time.Duration

	// MaxRetries bounds dial retries. Zero uses defaultMaxRetries.
	MaxRetries int

	// RetryDelay is the first delay between dial attempts. Zero uses
	// defaultRetryDelay.
	RetryDelay time.Duration

	// HostKeyCallback verifies the host key. Nil accepts any key.
	HostKeyCallback ssh.HostKeyCallback
}

// ExecResult is the outcome of a remote command.
type ExecResult struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// Combined returns stdout followed by stderr.
func (r ExecResult) Combined() string {
	return r.Stdout + r.Stderr
}

// CommandError reports a remote command that exited non-zero.
type CommandError struct {
	Host       string
	Command    string
	ExitStatus int
	Output     string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command failed on %s: exit status %d\nCommand: %s\nOutput: %s",
		e.Host, e.ExitStatus, e.Command, strings.TrimSpace(e.Output))
}

// Client executes commands on a remote host.
type Client struct {
	config *Config
	signer ssh.Signer
}

// NewClient validates cfg and parses the private key.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Host == "" {
		return nil, fleet.ErrAddressUnresolved
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	configCopy := *cfg
	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.MaxRetries == 0 {
		configCopy.MaxRetries = defaultMaxRetries
	}
	if configCopy.RetryDelay == 0 {
		configCopy.RetryDelay = defaultRetryDelay
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // fleet hosts are ephemeral
	}

	signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Client{
		config: &configCopy,
		signer: signer,
	}, nil
}

// Host returns the remote address.
func (c *Client) Host() string {
	return c.config.Host
}

// Run executes command and returns its output and exit status. A non-zero
// exit status is not an error; transport failures are.
func (c *Client) Run(ctx context.Context, command string) (ExecResult, error) {
	var res ExecResult
	err := c.withSession(ctx, func(session *ssh.Session) error {
		var stdout, stderr bytes.Buffer
		session.Stdout = &stdout
		session.Stderr = &stderr

		err := c.wait(ctx, session, func() error { return session.Run(command) })
		res = ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}

		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			res.ExitStatus = exitErr.ExitStatus()
			return nil
		}
		return err
	})
	if err != nil {
		return res, fmt.Errorf("command failed on %s: %w", c.config.Host, err)
	}
	return res, nil
}

// Execute runs command and returns its combined output. A non-zero exit
// status is returned as a *CommandError.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	res, err := c.Run(ctx, command)
	if err != nil {
		return res.Combined(), err
	}
	if res.ExitStatus != 0 {
		return res.Combined(), &CommandError{
			Host:       c.config.Host,
			Command:    command,
			ExitStatus: res.ExitStatus,
			Output:     res.Combined(),
		}
	}
	return res.Combined(), nil
}

// Upload writes data to remotePath and sets its permission bits.
func (c *Client) Upload(ctx context.Context, data []byte, remotePath string, mode os.FileMode) error {
	quoted := shellescape.Quote(remotePath)
	command := fmt.Sprintf("cat > %s && chmod %o %s", quoted, mode.Perm(), quoted)

	err := c.withSession(ctx, func(session *ssh.Session) error {
		session.Stdin = bytes.NewReader(data)
		var output bytes.Buffer
		session.Stdout = &output
		session.Stderr = &output

		if err := c.wait(ctx, session, func() error { return session.Run(command) }); err != nil {
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(output.String()))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to %s: %w", remotePath, c.config.Host, err)
	}
	return nil
}

func (c *Client) withSession(ctx context.Context, fn func(*ssh.Session) error) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create SSH session: %w", err)
	}
	defer func() { _ = session.Close() }()

	return fn(session)
}

// wait runs fn and closes the session if ctx ends first.
func (c *Client) wait(ctx context.Context, session *ssh.Session, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = session.Close()
		return ctx.Err()
	}
}

// connect dials with retry. Authentication failures stop the retry loop.
func (c *Client) connect(ctx context.Context) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(c.signer)},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	var client *ssh.Client

	err := retry.Do(ctx, func(context.Context) error {
		var dialErr error
		client, dialErr = ssh.Dial("tcp", addr, config)
		if isAuthFailure(dialErr) {
			return retry.Fatal(fmt.Errorf("%w: %s@%s: %v", fleet.ErrAuthenticationFailed, c.config.User, addr, dialErr))
		}
		return dialErr
	},
		retry.WithMaxRetries(c.config.MaxRetries),
		retry.WithInitialDelay(c.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s: %w", addr, err)
	}
	return client, nil
}

func isAuthFailure(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}

// Dialer creates clients for fleet hosts that share a user and key.
type Dialer struct {
	User       string
	PrivateKey []byte
	Port       int
	MaxRetries int
	RetryDelay time.Duration
}

// Dial returns a client for host.
func (d Dialer) Dial(host string) (*Client, error) {
	return NewClient(&Config{
		Host:       host,
		Port:       d.Port,
		User:       d.User,
		PrivateKey: d.PrivateKey,
		MaxRetries: d.MaxRetries,
		RetryDelay: d.RetryDelay,
	})
}
