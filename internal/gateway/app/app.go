package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"stylefit/internal/gateway/config"
	"stylefit/internal/gateway/handler/rpc"
	"stylefit/internal/gateway/server"
	"stylefit/internal/persona"
	"stylefit/internal/session"
)

type App struct {
	server    *server.Server
	store     *session.Store
	reg       *prometheus.Registry
	logger    *zap.Logger
	closers   []func() error
	stopSweep context.CancelFunc
	sweepDone chan struct{}
}

func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	bank, err := persona.DefaultBank()
	if err != nil {
		return nil, fmt.Errorf("failed to load persona bank: %w", err)
	}

	// Dependencies
	backends, err := initBackends(cfg, logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(backends.ranges.Collectors()...)

	store, err := session.NewStore(cfg.SessionMax, session.Deps{
		Bank:     bank,
		Catalog:  backends.catalog,
		Ranges:   backends.ranges,
		Checkout: backends.checkout,
		Metrics:  session.MustNewMetrics(reg),
		Logger:   logger.Named("session"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	sessionHandler := rpc.NewSessionHandler(store, logger.Named("rpc"))

	// Routing & Server
	mux := server.NewMux(sessionHandler, reg)
	srv := server.New(cfg.Port, mux, logger)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	a := &App{
		server:    srv,
		store:     store,
		reg:       reg,
		logger:    logger,
		closers:   backends.closers,
		stopSweep: stopSweep,
		sweepDone: make(chan struct{}),
	}
	go func() {
		defer close(a.sweepDone)
		store.SweepEvery(sweepCtx, sweepInterval(cfg.SessionIdle), cfg.SessionIdle)
	}()
	return a, nil
}

// sweepInterval checks a few times per idle window, at most once a second.
func sweepInterval(idle time.Duration) time.Duration {
	return max(idle/4, time.Second)
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.stopSweep()
	<-a.sweepDone
	err := a.server.Shutdown(ctx)
	for _, closeFn := range a.closers {
		err = errors.Join(err, closeFn())
	}
	a.logger.Info("gateway stopped", zap.Int("open_sessions", a.store.Len()))
	return err
}
