package download

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"wavepipe/internal/config"
	"wavepipe/internal/engine"
	"wavepipe/internal/logging"
	"wavepipe/internal/metadata"
	"wavepipe/internal/workspace"
)

// BinaryResolver locates the engine executable.
type BinaryResolver interface {
	Resolve() (string, error)
}

// Option configures the service.
type Option func(*Service)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(runner engine.Runner) Option {
	return func(s *Service) {
		if runner != nil {
			s.runner = runner
		}
	}
}

// WithResolver replaces the engine lookup.
func WithResolver(resolver BinaryResolver) Option {
	return func(s *Service) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

// WithEnvironment overrides the host facts used to find the bundled engine.
func WithEnvironment(env engine.Environment) Option {
	return func(s *Service) {
		s.env = &env
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logging.NewComponentLogger(logger, "download")
	}
}

// Service runs the engine for metadata queries and downloads.
type Service struct {
	runner      engine.Runner
	resolver    BinaryResolver
	env         *engine.Environment
	credentials engine.Credentials
	workspaces  *workspace.Manager
	normalizer  metadata.Normalizer
	logger      *slog.Logger

	userAgent        string
	probeTimeout     time.Duration
	fetchTimeout     time.Duration
	infoTimeout      time.Duration
	maxMetadataBytes int64
	stderrLines      int
}

// New constructs a Service from configuration.
func New(cfg *config.Config, workspaces *workspace.Manager, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("download: config required")
	}
	if workspaces == nil {
		return nil, errors.New("download: workspace manager required")
	}
	svc := &Service{
		runner:     engine.ExecRunner{},
		workspaces: workspaces,
		credentials: engine.Credentials{
			CookiesFile: cfg.Engine.CookiesFile,
		},
		normalizer: metadata.Normalizer{
			DefaultAuthor:        cfg.Metadata.DefaultAuthor,
			PlaceholderThumbnail: cfg.Metadata.PlaceholderThumbnail,
		},
		logger:           logging.NewComponentLogger(nil, "download"),
		userAgent:        strings.TrimSpace(cfg.Engine.UserAgent),
		probeTimeout:     cfg.ProbeTimeout(),
		fetchTimeout:     cfg.FetchTimeout(),
		infoTimeout:      cfg.InfoTimeout(),
		maxMetadataBytes: cfg.Engine.MaxMetadataBytes,
		stderrLines:      cfg.Engine.StderrSummaryLines,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.resolver == nil {
		env := svc.env
		if env == nil {
			detected, err := engine.DefaultEnvironment()
			if err != nil {
				return nil, err
			}
			env = &detected
		}
		if cfg.Paths.WorkDir != "" {
			env.WorkDir = cfg.Paths.WorkDir
		}
		svc.resolver = engine.Resolver{Configured: cfg.Engine.Binary, Env: *env}
	}
	return svc, nil
}

// Workspaces exposes the manager that owns request temp files.
func (s *Service) Workspaces() *workspace.Manager {
	return s.workspaces
}

// CookiesPresent reports whether the next request would attach credentials.
func (s *Service) CookiesPresent() bool {
	return s.credentials.Present()
}

// baseArgs are shared by every invocation: client identity then credentials.
func (s *Service) baseArgs(cookies []string) []string {
	args := make([]string, 0, 4)
	if s.userAgent != "" {
		args = append(args, "--user-agent", s.userAgent)
	}
	return append(args, cookies...)
}

// Resolver returns the engine lookup Fetch and Describe use, for status checks.
func (s *Service) Resolver() BinaryResolver {
	return s.resolver
}
