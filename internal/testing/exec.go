package testing

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/imamik/fleetctl/internal/platform/ssh"
	"github.com/imamik/fleetctl/internal/util/procexec"
)

// Invocation is one recorded process run.
type Invocation struct {
	Name string
	Args []string
}

// Line returns the invocation joined with spaces, for assertions only.
func (i Invocation) Line() string {
	return strings.Join(append([]string{i.Name}, i.Args...), " ")
}

// FakeRunner is a recording procexec.Runner.
type FakeRunner struct {
	mu    sync.Mutex
	calls []Invocation

	// Handler produces the outcome of each run. Nil means success with
	// empty output.
	Handler func(name string, args []string) (procexec.Result, error)
}

// Run implements procexec.Runner.
func (r *FakeRunner) Run(_ context.Context, name string, args ...string) (procexec.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Invocation{Name: name, Args: slices.Clone(args)})
	h := r.Handler
	r.mu.Unlock()

	if h == nil {
		return procexec.Result{}, nil
	}
	return h(name, args)
}

// Calls returns every recorded invocation in order.
func (r *FakeRunner) Calls() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Upload is one recorded file transfer.
type Upload struct {
	Path string
	Data []byte
	Mode os.FileMode
}

// FakeShell is a recording remote shell.
type FakeShell struct {
	mu       sync.Mutex
	commands []string
	uploads  []Upload

	// Handler produces the outcome of each command. Nil means exit 0 with
	// empty output.
	Handler func(cmd string) (ssh.ExecResult, error)
	// UploadErr fails every upload.
	UploadErr error
}

// Run records cmd and returns the scripted result.
func (s *FakeShell) Run(_ context.Context, cmd string) (ssh.ExecResult, error) {
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	h := s.Handler
	s.mu.Unlock()

	if h == nil {
		return ssh.ExecResult{}, nil
	}
	return h(cmd)
}

// Execute records cmd and fails on a non-zero exit status.
func (s *FakeShell) Execute(ctx context.Context, cmd string) (string, error) {
	res, err := s.Run(ctx, cmd)
	if err != nil {
		return res.Combined(), err
	}
	if res.ExitStatus != 0 {
		return res.Combined(), &ssh.CommandError{Host: "fake", Command: cmd, ExitStatus: res.ExitStatus, Output: res.Combined()}
	}
	return res.Combined(), nil
}

// Upload records the transfer.
func (s *FakeShell) Upload(_ context.Context, data []byte, remotePath string, mode os.FileMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, Upload{Path: remotePath, Data: slices.Clone(data), Mode: mode})
	return s.UploadErr
}

// Commands returns every command run so far.
func (s *FakeShell) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.commands)
}

// Uploads returns every upload so far.
func (s *FakeShell) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.uploads)
}
