// Package app provides the dependency injection container for the application.
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/runoshun/issue-harvest/internal/domain"
	"github.com/runoshun/issue-harvest/internal/infra/config"
	"github.com/runoshun/issue-harvest/internal/infra/jira"
	"github.com/runoshun/issue-harvest/internal/infra/jsonl"
	"github.com/runoshun/issue-harvest/internal/infra/jsonstore"
	"github.com/runoshun/issue-harvest/internal/infra/logging"
	"github.com/runoshun/issue-harvest/internal/infra/sqlitestore"
	"github.com/runoshun/issue-harvest/internal/usecase"
)

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
//
// Ports are bound by Load, after command line flags have been parsed.
type Container struct {
	// Ports (interfaces bound to implementations)
	Store         domain.CheckpointStore
	Source        domain.IssueSource
	RawLog        domain.RawLog
	Sink          domain.TransformedSink
	Sleeper       domain.Sleeper
	Clock         domain.Clock
	Logger        domain.Logger
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager

	// Runtime
	Console   *slog.Logger
	AppConfig *domain.Config
	Stderr    io.Writer

	closers []io.Closer

	// ConfigPath is the configuration file, bound to the --config flag.
	ConfigPath string
	loaded     bool
}

// New creates a new Container that reads its configuration from configPath.
func New(configPath string, stderr io.Writer) *Container {
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Container{
		ConfigPath: configPath,
		Stderr:     stderr,
		Clock:      domain.RealClock{},
		Sleeper:    domain.RealSleeper{},
	}
}

// Deps holds the ports injected by NewWithDeps.
type Deps struct {
	Store         domain.CheckpointStore
	Source        domain.IssueSource
	RawLog        domain.RawLog
	Sink          domain.TransformedSink
	Sleeper       domain.Sleeper
	Logger        domain.Logger
	ConfigManager domain.ConfigManager
}

// NewWithDeps creates a new Container with custom dependencies for testing.
// Load is a no-op on the returned container.
func NewWithDeps(cfg *domain.Config, deps Deps) *Container {
	logger := deps.Logger
	if logger == nil {
		logger = domain.NopLogger{}
	}
	sleeper := deps.Sleeper
	if sleeper == nil {
		sleeper = domain.RealSleeper{}
	}
	return &Container{
		Store:         deps.Store,
		Source:        deps.Source,
		RawLog:        deps.RawLog,
		Sink:          deps.Sink,
		Sleeper:       sleeper,
		Clock:         domain.RealClock{},
		Logger:        logger,
		ConfigManager: deps.ConfigManager,
		Console:       slog.New(slog.DiscardHandler),
		AppConfig:     cfg,
		Stderr:        io.Discard,
		ConfigPath:    domain.ConfigFileName,
		loaded:        true,
	}
}

// Manager returns the config file manager, which works without a valid config.
func (c *Container) Manager() domain.ConfigManager {
	if c.ConfigManager == nil {
		c.ConfigManager = config.NewManager(c.ConfigPath)
	}
	return c.ConfigManager
}

// Load reads the configuration and binds every port. It is safe to call
// more than once.
func (c *Container) Load() error {
	if c.loaded {
		return nil
	}

	if c.ConfigLoader == nil {
		c.ConfigLoader = config.NewLoader(c.ConfigPath)
	}
	cfg, err := c.ConfigLoader.Load()
	if err != nil {
		return err
	}

	level := logging.ParseLevel(cfg.Log.Level)
	console := logging.NewConsole(c.Stderr, level)
	logger := logging.New(cfg.Paths.DataDir, level, console)

	store, err := openStore(cfg, c.Clock)
	if err != nil {
		_ = logger.Close()
		return err
	}

	closers := []io.Closer{logger}
	if cl, ok := store.(io.Closer); ok {
		closers = append(closers, cl)
	}

	source, err := jira.NewClient(cfg.Source)
	if err != nil {
		_ = closeAll(closers...)
		return fmt.Errorf("create jira client: %w", err)
	}
	source.WithClock(c.Clock)

	c.AppConfig = cfg
	c.Console = console
	c.Logger = logger
	c.Store = store
	c.Source = source
	c.RawLog = jsonl.NewRawLog(cfg.Paths.DataDir)
	c.Sink = jsonl.NewSink(cfg.Paths.OutputDir)
	c.Manager()
	c.closers = closers
	c.loaded = true
	return nil
}

// Close releases the checkpoint database and log files.
func (c *Container) Close() error {
	err := closeAll(c.closers...)
	c.closers = nil
	return err
}

// openStore selects the checkpoint backend from the configuration.
func openStore(cfg *domain.Config, clock domain.Clock) (domain.CheckpointStore, error) {
	switch cfg.Checkpoint.Store {
	case domain.StoreSQLite:
		store, err := sqlitestore.Open(domain.CheckpointDBPath(cfg.Paths.DataDir), clock)
		if err != nil {
			return nil, fmt.Errorf("open checkpoint database: %w", err)
		}
		return store, nil
	case domain.StoreJSON, "":
		return jsonstore.New(domain.CheckpointPath(cfg.Paths.DataDir)), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStore, cfg.Checkpoint.Store)
	}
}

func closeAll(closers ...io.Closer) error {
	var errs []error
	for _, cl := range closers {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}

// UseCase factory methods

// FetchCollectionUseCase returns a new FetchCollection use case.
func (c *Container) FetchCollectionUseCase(progress domain.Progress) *usecase.FetchCollection {
	return usecase.NewFetchCollection(c.Source, c.RawLog, c.Store, c.Sleeper, c.Logger, progress, c.AppConfig.Fetch)
}

// HarvestUseCase returns a new Harvest use case.
func (c *Container) HarvestUseCase(progress domain.Progress) *usecase.Harvest {
	return usecase.NewHarvest(c.Store, c.FetchCollectionUseCase(progress), c.Logger, c.AppConfig.Fetch.Collections)
}

// TransformLogsUseCase returns a new TransformLogs use case.
func (c *Container) TransformLogsUseCase(progress domain.Progress) *usecase.TransformLogs {
	return usecase.NewTransformLogs(c.RawLog, c.Sink, c.Logger, progress, c.AppConfig.Transform.Workers)
}

// ShowStatusUseCase returns a new ShowStatus use case.
func (c *Container) ShowStatusUseCase() *usecase.ShowStatus {
	return usecase.NewShowStatus(c.Store, c.AppConfig.Fetch.Collections)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.Manager(), c.AppConfig)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.Manager())
}
