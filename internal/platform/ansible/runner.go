package ansible

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/imamik/fleetctl/internal/util/procexec"
)

// Run describes one playbook execution.
type Run struct {
	// Playbook is the file name, resolved against the runner's directory.
	Playbook  string
	Inventory Inventory
	Vars      map[string]any
}

// Result is the outcome of a successful run.
type Result struct {
	Output   string
	Duration time.Duration
}

// Error reports a failed playbook run with its captured output.
type Error struct {
	Playbook string
	Output   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("playbook %s failed: %v", e.Playbook, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\nOutput: " + out
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Runner executes playbooks with ansible-playbook.
type Runner struct {
	binary      string
	playbookDir string
	workDir     string
	keyFile     string
	user        string
	exec        procexec.Runner
	log         logr.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithExec replaces the process runner.
func WithExec(r procexec.Runner) Option {
	return func(rn *Runner) {
		rn.exec = r
	}
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(rn *Runner) {
		rn.log = l
	}
}

// NewRunner creates a runner. Generated files are written to workDir.
func NewRunner(binary, playbookDir, workDir, keyFile, user string, opts ...Option) *Runner {
	r := &Runner{
		binary:      binary,
		playbookDir: playbookDir,
		workDir:     workDir,
		keyFile:     keyFile,
		user:        user,
		exec:        &procexec.OSRunner{Env: []string{"ANSIBLE_HOST_KEY_CHECKING=False"}},
		log:         logr.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the playbook against the inventory.
func (r *Runner) Run(ctx context.Context, run Run) (Result, error) {
	if run.Playbook == "" {
		return Result{}, errors.New("playbook name is required")
	}
	if run.Inventory.Hosts() == 0 {
		return Result{}, fmt.Errorf("playbook %s: inventory has no hosts", run.Playbook)
	}

	if err := os.MkdirAll(r.workDir, 0o700); err != nil {
		return Result{}, fmt.Errorf("failed to create work directory: %w", err)
	}

	id := uuid.NewString()
	inventoryPath := filepath.Join(r.workDir, "inventory-"+id+".ini")
	varsPath := filepath.Join(r.workDir, "vars-"+id+".yml")
	defer func() {
		_ = os.Remove(inventoryPath)
		_ = os.Remove(varsPath)
	}()

	if err := os.WriteFile(inventoryPath, []byte(run.Inventory.Render()), 0o600); err != nil {
		return Result{}, fmt.Errorf("failed to write inventory: %w", err)
	}

	vars := run.Vars
	if vars == nil {
		vars = map[string]any{}
	}
	varsData, err := yaml.Marshal(vars)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode playbook variables: %w", err)
	}
	if err := os.WriteFile(varsPath, varsData, 0o600); err != nil {
		return Result{}, fmt.Errorf("failed to write playbook variables: %w", err)
	}

	args := []string{
		"-i", inventoryPath,
		"--private-key", r.keyFile,
		"-u", r.user,
		"-e", "@" + varsPath,
		filepath.Join(r.playbookDir, run.Playbook),
	}

	r.log.V(1).Info("Running playbook", "playbook", run.Playbook, "hosts", run.Inventory.Hosts(), "run", id)
	start := time.Now()
	res, err := r.exec.Run(ctx, r.binary, args...)
	if err != nil {
		return Result{Output: res.Combined()}, &Error{Playbook: run.Playbook, Output: res.Combined(), Err: err}
	}

	return Result{Output: res.Combined(), Duration: time.Since(start)}, nil
}
