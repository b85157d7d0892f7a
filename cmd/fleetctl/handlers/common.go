// Package handlers implements the business logic for CLI commands.
//
// Handlers are called by the command definitions in the commands package.
// Collaborators are created through package-level factory variables so
// tests can replace the provider, the remote shell and the process runner.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/imamik/fleetctl/internal/clusterinfo"
	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/metrics"
	"github.com/imamik/fleetctl/internal/platform/ansible"
	"github.com/imamik/fleetctl/internal/platform/hcloud"
	"github.com/imamik/fleetctl/internal/platform/s3"
	"github.com/imamik/fleetctl/internal/platform/ssh"
	"github.com/imamik/fleetctl/internal/provisioning"
	"github.com/imamik/fleetctl/internal/tunnel"
	"github.com/imamik/fleetctl/internal/util/prerequisites"
)

// EnvMetricsFile names the metrics textfile when --metrics-file is unset.
const EnvMetricsFile = "FLEETCTL_METRICS_FILE"

// Globals are the persistent flags shared by every command.
type Globals struct {
	ConfigPath  string
	Verbosity   int
	MetricsFile string
}

// Factory function variables - can be replaced in tests.
var (
	// loadProfile loads the operator profile.
	loadProfile = config.LoadFile

	// defaultProfilePath resolves ~/.fleetctl.yml.
	defaultProfilePath = config.DefaultProfilePath

	// loadDefinition loads a fleet definition.
	loadDefinition = config.LoadDefinition

	// newCloud creates the provider client.
	newCloud = func(cfg *config.Config, log logr.Logger) provisioning.Cloud {
		return hcloud.NewRealClient(cfg.Provider.Token, hcloud.WithLogger(log))
	}

	// newBucketStore creates the object-storage client. Nil when no bucket
	// is configured.
	newBucketStore = func(ctx context.Context, cfg *config.Config) (provisioning.BucketStore, error) {
		if cfg.Bucket.Name == "" {
			return nil, nil
		}
		client, err := s3.NewClient(ctx, cfg.Bucket)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	// newPlaybookRunner creates the playbook runner. Nil when no playbook
	// directory is configured.
	newPlaybookRunner = func(cfg *config.Config, log logr.Logger) provisioning.PlaybookRunner {
		if cfg.Playbooks.Dir == "" {
			return nil
		}
		return ansible.NewRunner(cfg.Playbooks.Binary, cfg.Playbooks.Dir, cfg.SessionDir(),
			cfg.SSH.KeyFile, cfg.SSH.User, ansible.WithLogger(log))
	}

	// dialHost opens a remote shell on a fleet host.
	dialHost = func(cfg *config.Config, host string) (tunnel.Shell, error) {
		// #nosec G304
		key, err := os.ReadFile(cfg.SSH.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		client, err := ssh.Dialer{User: cfg.SSH.User, PrivateKey: key}.Dial(host)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	// newTunnelManager creates the tunnel manager for the session.
	newTunnelManager = func(cfg *config.Config, log logr.Logger, rec *metrics.Recorder) *tunnel.Manager {
		timeouts := config.LoadTimeouts()
		return tunnel.NewManager(cfg.SessionDir(), cfg.SSH.KeyFile, cfg.SSH.User,
			tunnel.WithCheck(timeouts.TunnelCheck, timeouts.TunnelCheckPoll),
			tunnel.WithLogger(log),
			tunnel.WithMetrics(rec),
			tunnel.WithDialer(func(host string) (tunnel.Shell, error) {
				return dialHost(cfg, host)
			}),
		)
	}

	// checkTools fails when a required local binary is missing.
	checkTools = func(tools ...prerequisites.Tool) error {
		return prerequisites.Check(tools...).Error()
	}

	// stdout receives command output.
	stdout io.Writer = os.Stdout

	// stderr receives log output.
	stderr io.Writer = os.Stderr
)

// session holds what every command resolves once per invocation.
type session struct {
	cfg         *config.Config
	log         logr.Logger
	metrics     *metrics.Recorder
	store       *clusterinfo.Store
	metricsFile string
}

func newLogger(verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(stderr, args)
	}, funcr.Options{Verbosity: verbosity})
}

func openSession(g Globals) (*session, error) {
	path := g.ConfigPath
	if path == "" {
		p, err := defaultProfilePath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := loadProfile(path)
	if err != nil {
		return nil, err
	}

	metricsFile := g.MetricsFile
	if metricsFile == "" {
		metricsFile = os.Getenv(EnvMetricsFile)
	}

	return &session{
		cfg:         cfg,
		log:         newLogger(g.Verbosity),
		metrics:     metrics.NewRecorder(),
		store:       clusterinfo.NewStore(cfg.RecordPath(), cfg.SessionDir()),
		metricsFile: metricsFile,
	}, nil
}

// close flushes metrics. A flush failure is logged, never returned.
func (s *session) close() {
	if s.metricsFile == "" {
		return
	}
	if err := s.metrics.WriteTextfile(s.metricsFile); err != nil {
		s.log.Error(err, "Failed to write metrics", "path", s.metricsFile)
	}
}

// record returns the working fleet.
func (s *session) record() (*clusterinfo.Record, error) {
	rec, err := s.store.Read()
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.FleetName == "" {
		return nil, fleet.ErrNoWorkingFleet
	}
	return rec, nil
}

// controller returns the working fleet, failing when its controller
// address is unknown.
func (s *session) controller() (*clusterinfo.Record, error) {
	rec, err := s.record()
	if err != nil {
		return nil, err
	}
	if rec.Controller.IP == "" {
		return nil, fmt.Errorf("fleet %s: %w", rec.FleetName, fleet.ErrAddressUnresolved)
	}
	return rec, nil
}

func (s *session) cloud() provisioning.Cloud {
	return newCloud(s.cfg, s.log)
}

// requireTools checks for ssh and, when playbooks are configured, the
// playbook runner.
func (s *session) requireTools(needPlaybooks bool) error {
	tools := []prerequisites.Tool{prerequisites.SSH()}
	if s.cfg.Playbooks.Dir != "" || needPlaybooks {
		tools = append(tools, prerequisites.Playbook(s.cfg.Playbooks.Binary, true))
	}
	return checkTools(tools...)
}

func (s *session) tunnels() *tunnel.Manager {
	return newTunnelManager(s.cfg, s.log, s.metrics)
}
