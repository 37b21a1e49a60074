package main

import (
	"context"
	"time"

	"github.com/UDDITwork/shipsarthi-sub007/config"
	"github.com/UDDITwork/shipsarthi-sub007/internal/broker"
	"github.com/UDDITwork/shipsarthi-sub007/internal/broker/kafka"
	"github.com/UDDITwork/shipsarthi-sub007/internal/cache/rediscache"
	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier"
	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier/delhiveryhttp"
	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier/fake"
	"github.com/UDDITwork/shipsarthi-sub007/internal/services/reconciler"
	"github.com/UDDITwork/shipsarthi-sub007/internal/storage/pgship"
)

type workerFactories struct {
	newStorage       func(cfg *config.Config) (reconciler.Repository, func(), error)
	newNotifier      func(cfg *config.Config) reconciler.Notifier
	newRateLimiter   func(cfg *config.Config) reconciler.RateLimiter
	newCarrierClient func(cfg *config.Config) carrier.Client
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (reconciler.Repository, func(), error) {
			st, err := pgship.New(cfg.Database.ConnString())
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newNotifier: func(cfg *config.Config) reconciler.Notifier {
			topic := cfg.Kafka.StatusChangedTopicName
			if topic == "" {
				topic = "shipment.status-changed"
			}
			return broker.NewStatusNotifier(kafka.NewProducer([]string{cfg.Kafka.Addr()}), topic)
		},
		newRateLimiter: func(cfg *config.Config) reconciler.RateLimiter {
			return rediscache.NewRateLimiter(cfg.Redis.Addr())
		},
		newCarrierClient: func(cfg *config.Config) carrier.Client {
			if cfg.ShipSarthi.CarrierMode == "fake" || cfg.ShipSarthi.DelhiveryBaseURL == "" {
				return fake.New()
			}
			return delhiveryhttp.New(cfg.ShipSarthi.DelhiveryBaseURL, cfg.ShipSarthi.DelhiveryToken)
		},
	}
}

func runReconcilerWorker(ctx context.Context, cfg *config.Config, f workerFactories) error {
	interval := time.Duration(cfg.ShipSarthi.ReconcileIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	delay := time.Duration(cfg.ShipSarthi.InterCallDelayMillis) * time.Millisecond
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	rlPerMin := int64(cfg.ShipSarthi.RateLimitPerMinute)

	repo, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	rec := reconciler.New(repo, f.newCarrierClient(cfg), f.newNotifier(cfg), f.newRateLimiter(cfg)).
		WithSettings(interval, delay, rlPerMin, cfg.ShipSarthi.RequirePickupRequest)

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr:   cfg.ShipSarthi.WorkerHTTPAddr,
			reconciler: rec,
			cfg:        cfg,
		})
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- rec.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-runErr:
		return err
	case err := <-httpErr:
		return err
	}
}
