package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mangashelf/internal/config"
	"mangashelf/internal/document"
	"mangashelf/internal/history"
	"mangashelf/internal/ingestion"
	"mangashelf/internal/library"
	"mangashelf/internal/logging"
	"mangashelf/internal/notifications"
	"mangashelf/internal/reference"
	"mangashelf/internal/workflow"
	"mangashelf/internal/workpool"
)

// commandContext lazily builds shared dependencies for one invocation.
type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	storeOnce   sync.Once
	store       *library.Store
	storeErr    error
	storeClosed bool
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// log returns the invocation logger, writing to stderr and the log file.
// Logger setup failures fall back to a no-op logger.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) openStore() (*library.Store, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		c.store, c.storeErr = library.Open(cfg, library.WithLogger(c.log()))
	})
	return c.store, c.storeErr
}

func (c *commandContext) withStore(fn func(*library.Store) error) error {
	store, err := c.openStore()
	if err != nil {
		return err
	}
	return fn(store)
}

func (c *commandContext) withIngestion(fn func(*ingestion.Pipeline, *library.Store) error) error {
	return c.withStore(func(store *library.Store) error {
		cfg := c.config
		logger := c.log()
		pool := workpool.New("ingestion", cfg.Workflow.IngestWorkers, cfg.Workflow.QueueSize, logger)
		defer pool.Close()
		pipeline := ingestion.NewFromConfig(cfg, store, reference.NewFileSystem(), document.NewFitzIntrospector(), pool, logger)
		defer pipeline.Close()
		return fn(pipeline, store)
	})
}

func (c *commandContext) withWorkflow(ctx context.Context, fn func(*workflow.Manager) error) error {
	return c.withStore(func(store *library.Store) error {
		cfg := c.config
		if err := cfg.ValidateCredentials(); err != nil {
			return err
		}
		logger := c.log()
		engine, closeEngine, err := workflow.NewEngineFromConfig(ctx, cfg, logger)
		defer closeEngine() //nolint:errcheck
		if err != nil {
			return err
		}
		pool := workpool.New("recognition", cfg.Workflow.RecognitionWorkers, cfg.Workflow.QueueSize, logger)
		defer pool.Close()
		notifier := notifications.NewObserver(c.notifier(), cfg.Notifications.NotifyCompletions, logger)
		defer func() {
			// Bounded by the ntfy request timeout.
			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyDrainTimeout(cfg))
			defer cancel()
			notifier.Close(closeCtx)
		}()
		manager := workflow.New(engine, history.New(store),
			workflow.WithPool(pool),
			workflow.WithLogger(logger),
			workflow.WithObserver(notifier),
		)
		defer manager.Close()
		return fn(manager)
	})
}

// notifier returns the ntfy service, or a no-op one when no topic is set.
func (c *commandContext) notifier() notifications.Service {
	cfg, err := c.ensureConfig()
	if err != nil {
		return notifications.NewService(nil)
	}
	return notifications.NewService(cfg)
}

// notify sends best-effort library notifications; failures are logged only.
func (c *commandContext) notify(ctx context.Context, send func(context.Context, notifications.Service) error) {
	svc := c.notifier()
	if !notifications.Enabled(svc) {
		return
	}
	if err := send(ctx, svc); err != nil {
		logging.WarnWithContext(logging.NewComponentLogger(c.log(), "notifications"), "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
			logging.String(logging.FieldImpact, "library change was not pushed"),
		)
	}
}

func notifyDrainTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Notifications.RequestTimeoutSeconds)*time.Second + time.Second
}

// close releases the store. It is safe to call more than once.
func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
		c.storeClosed = true
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
