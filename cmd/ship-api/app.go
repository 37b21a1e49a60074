package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/UDDITwork/shipsarthi-sub007/config"
	"github.com/UDDITwork/shipsarthi-sub007/internal/api/webhooks"
	"github.com/UDDITwork/shipsarthi-sub007/internal/broker"
	"github.com/UDDITwork/shipsarthi-sub007/internal/broker/kafka"
	"github.com/UDDITwork/shipsarthi-sub007/internal/broker/messages"
	"github.com/UDDITwork/shipsarthi-sub007/internal/cache/rediscache"
	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier"
	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier/delhiveryhttp"
	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier/fake"
	"github.com/UDDITwork/shipsarthi-sub007/internal/ratecard"
	"github.com/UDDITwork/shipsarthi-sub007/internal/services/webhookq"
	"github.com/UDDITwork/shipsarthi-sub007/internal/storage/pgship"
)

// clientNotifier is the boundary to whatever pushes status changes to
// connected dashboard clients. The default just logs; the real push transport
// lives behind this interface.
type clientNotifier interface {
	Notify(ctx context.Context, m messages.StatusChanged) error
}

type logNotifier struct{}

func (logNotifier) Notify(_ context.Context, m messages.StatusChanged) error {
	slog.Info("status change for client",
		"user_id", m.UserID, "waybill", m.Waybill,
		"status", m.Status, "old_status", m.OldStatus)
	return nil
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

// apiStorage is everything ship-api needs from the storage layer; pgship
// satisfies it, tests substitute fakes.
type apiStorage interface {
	webhookq.Store
	webhooks.EventStore
	ratecard.Source
	SeedRateCards(ctx context.Context, cards []*ratecard.Card) error
	Close()
}

type apiFactories struct {
	newStorage       func(cfg *config.Config) (apiStorage, error)
	newCarrierClient func(cfg *config.Config) carrier.Client
	newNotifier      func(cfg *config.Config, topic string) webhookq.Notifier
	newConsumer      func(cfg *config.Config, topic, group string) kafkaConsumer
	newRateSource    func(cfg *config.Config, st apiStorage) ratecard.Source
	newClientNotify  func(cfg *config.Config) clientNotifier

	onListen func(httpAddr string)
}

func defaultAPIFactories() apiFactories {
	return apiFactories{
		newStorage: func(cfg *config.Config) (apiStorage, error) {
			return pgship.New(cfg.Database.ConnString())
		},
		newCarrierClient: newCarrierClient,
		newNotifier: func(cfg *config.Config, topic string) webhookq.Notifier {
			return broker.NewStatusNotifier(kafka.NewProducer([]string{cfg.Kafka.Addr()}), topic)
		},
		newConsumer: func(cfg *config.Config, topic, group string) kafkaConsumer {
			return kafka.NewConsumer([]string{cfg.Kafka.Addr()}, topic, group)
		},
		newRateSource: func(cfg *config.Config, st apiStorage) ratecard.Source {
			ttl := time.Duration(cfg.ShipSarthi.RateCardCacheTTLSeconds) * time.Second
			return ratecard.NewCachedSource(st, rediscache.New(cfg.Redis.Addr()), ttl)
		},
		newClientNotify: func(cfg *config.Config) clientNotifier {
			return logNotifier{}
		},
	}
}

func newCarrierClient(cfg *config.Config) carrier.Client {
	if cfg.ShipSarthi.CarrierMode == "fake" || cfg.ShipSarthi.DelhiveryBaseURL == "" {
		return fake.New()
	}
	return delhiveryhttp.New(cfg.ShipSarthi.DelhiveryBaseURL, cfg.ShipSarthi.DelhiveryToken)
}

func runShipAPI(ctx context.Context, cfg *config.Config, f apiFactories) error {
	httpAddr := cfg.ShipSarthi.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.StatusChangedTopicName
	if topic == "" {
		topic = "shipment.status-changed"
	}
	group := cfg.ShipSarthi.KafkaConsumerGroup
	if group == "" {
		group = "ship-api"
	}
	capacity := cfg.ShipSarthi.QueueCapacity
	if capacity <= 0 {
		capacity = 1000
	}
	jobTimeout := time.Duration(cfg.ShipSarthi.JobTimeoutSeconds) * time.Second
	backoff := time.Duration(cfg.ShipSarthi.JobBackoffBaseMillis) * time.Millisecond

	st, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SeedRateCards(ctx, ratecard.DefaultCards()); err != nil {
		return err
	}

	notifier := f.newNotifier(cfg, topic)
	processor := webhookq.NewProcessor(st, notifier)
	queue := webhookq.NewQueue(processor, capacity).
		WithSettings(jobTimeout, cfg.ShipSarthi.JobMaxAttempts, backoff)

	go func() {
		if err := queue.Run(ctx); err != nil && err != context.Canceled {
			slog.Error("webhook queue stopped", "error", err.Error())
		}
	}()

	clients := f.newClientNotify(cfg)
	consumer := f.newConsumer(cfg, topic, group)
	go func() {
		slog.Info("kafka consumer started", "topic", topic, "group", group)
		_ = consumer.Consume(ctx, func(_ []byte, value []byte) error {
			var m messages.StatusChanged
			if err := json.Unmarshal(value, &m); err != nil {
				// A poison message must not wedge the consumer group.
				slog.Warn("malformed status-changed message", "error", err.Error())
				return nil
			}
			return clients.Notify(ctx, m)
		})
	}()

	api := webhooks.New(queue, st, f.newRateSource(cfg, st), f.newCarrierClient(cfg))

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})
	r.Get("/queue/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(queue.Stats())
	})
	api.Register(r)

	lis, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return err
	}
	if f.onListen != nil {
		f.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	slog.Info("ship-api listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
