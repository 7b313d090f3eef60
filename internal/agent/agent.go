package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/goreview/internal/session"
	"github.com/mwantia/goreview/pkg/db/store"
	"github.com/mwantia/goreview/pkg/log"

	config "github.com/mwantia/goreview/internal/config/server"
)

type ReviewAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg     *config.BaseServerConfig
	sc      *container.ServiceContainer
	log     log.LoggerService
	session *session.Session
}

func NewAgent(cfg *config.BaseServerConfig) *ReviewAgent {
	return &ReviewAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("goreview", cfg.Log),
	}
}

func (ra *ReviewAgent) setupServices(ctx context.Context) error {
	sess, err := session.Open(ctx, ra.cfg, ra.log)
	if err != nil {
		return err
	}
	ra.session = sess

	errs := container.Errors{}

	ra.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](ra.sc,
		container.With[log.LoggerService](),
		container.WithInstance(ra.log)))

	ra.log.Debug("Registering 'MetadataStore'...")
	errs.Add(container.Register[store.SQLiteStore](ra.sc,
		container.With[store.MetadataStore](),
		container.WithInstance(sess.Store)))

	return errs.Errors()
}

func (ra *ReviewAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	ra.mutex.Lock()

	if err := ra.setupServices(ctx); err != nil {
		ra.mutex.Unlock()
		return err
	}

	if err := ra.session.Load(ctx); err != nil {
		ra.log.Warn("Failed to load campaign '%s': %v", ra.cfg.Campaign, err)
	} else {
		snap := ra.session.Client.Cache().Snapshot()
		ra.log.Info("Loaded campaign '%s' with %d command groups and %d annotations",
			ra.cfg.Campaign, len(snap.CommandGroups), len(snap.Annotations))
	}

	ra.mutex.Unlock()
	<-ctx.Done()

	timeout, err := time.ParseDuration(ra.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := ra.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	ra.wait.Wait()

	if err := ra.session.Close(); err != nil {
		return fmt.Errorf("failed to close metadata store: %w", err)
	}
	return nil
}
