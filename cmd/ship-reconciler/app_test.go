package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/UDDITwork/shipsarthi-sub007/config"
	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier/delhiveryhttp"
	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier/fake"
	"github.com/UDDITwork/shipsarthi-sub007/internal/models"
	"github.com/UDDITwork/shipsarthi-sub007/internal/services/reconciler"
	"github.com/UDDITwork/shipsarthi-sub007/internal/storage/pgship"
)

type fakeRepo struct{}

func (r *fakeRepo) ListActiveShipments(ctx context.Context, requirePickup bool) ([]*models.ShipmentTracking, error) {
	return nil, nil
}
func (r *fakeRepo) ListShipments(ctx context.Context) ([]*models.ShipmentTracking, error) {
	return nil, nil
}
func (r *fakeRepo) GetShipmentByWaybill(ctx context.Context, waybill string) (*models.ShipmentTracking, error) {
	return nil, pgship.ErrNotFound
}
func (r *fakeRepo) GetOrderByID(ctx context.Context, id uint64) (*models.Order, error) {
	return nil, pgship.ErrNotFound
}
func (r *fakeRepo) GetOrderByWaybill(ctx context.Context, waybill string) (*models.Order, error) {
	return nil, pgship.ErrNotFound
}
func (r *fakeRepo) SaveReconciled(ctx context.Context, sh *models.ShipmentTracking, ord *models.Order) error {
	return nil
}
func (r *fakeRepo) UpdateOrderStatus(ctx context.Context, ord *models.Order) error { return nil }

func TestDefaultWorkerFactories_SelectCarrierClient(t *testing.T) {
	f := defaultWorkerFactories()

	real := &config.Config{ShipSarthi: config.ShipSarthiConfig{
		DelhiveryBaseURL: "https://track.delhivery.com",
		DelhiveryToken:   "k",
	}}
	_, ok := f.newCarrierClient(real).(*delhiveryhttp.Client)
	require.True(t, ok)

	forced := &config.Config{ShipSarthi: config.ShipSarthiConfig{
		DelhiveryBaseURL: "https://track.delhivery.com",
		CarrierMode:      "fake",
	}}
	_, ok = f.newCarrierClient(forced).(*fake.Client)
	require.True(t, ok)

	noURL := &config.Config{}
	_, ok = f.newCarrierClient(noURL).(*fake.Client)
	require.True(t, ok)
}

func TestDefaultWorkerFactories_NotifierAndRateLimiter_NonNil(t *testing.T) {
	f := defaultWorkerFactories()
	cfg := &config.Config{
		Kafka: config.KafkaConfig{Host: "localhost", Port: 9092},
		Redis: config.RedisConfig{Host: "localhost", Port: 6379},
	}
	require.NotNil(t, f.newNotifier(cfg))
	require.NotNil(t, f.newRateLimiter(cfg))
}

func TestRunReconcilerWorker_ContextCanceled(t *testing.T) {
	calledClose := false
	f := workerFactories{
		newStorage: func(cfg *config.Config) (reconciler.Repository, func(), error) {
			return &fakeRepo{}, func() { calledClose = true }, nil
		},
		newNotifier:      func(cfg *config.Config) reconciler.Notifier { return nil },
		newRateLimiter:   func(cfg *config.Config) reconciler.RateLimiter { return nil },
		newCarrierClient: defaultWorkerFactories().newCarrierClient,
	}

	cfg := &config.Config{ShipSarthi: config.ShipSarthiConfig{
		WorkerHTTPAddr:           "127.0.0.1:0",
		ReconcileIntervalSeconds: 1,
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runReconcilerWorker(ctx, cfg, f)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, calledClose)
}

func TestWorkerHTTPServer_AdminEndpoints(t *testing.T) {
	rec := reconciler.New(&fakeRepo{}, fake.New(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr:   "127.0.0.1:0",
			onListen:   func(addr string) { addrCh <- addr },
			reconciler: rec,
			cfg:        &config.Config{},
		})
	}()
	addr := <-addrCh

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	resp, err = http.Get("http://" + addr + "/stats")
	require.NoError(t, err)
	var st reconciler.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	require.False(t, st.StartedAt.IsZero())

	resp, err = http.Post("http://"+addr+"/trigger", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	resp, err = http.Post("http://"+addr+"/resync", "application/json", nil)
	require.NoError(t, err)
	var synced map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&synced))
	resp.Body.Close()
	require.Zero(t, synced["synced"])

	resp, err = http.Post("http://"+addr+"/refresh-all", "application/json", nil)
	require.NoError(t, err)
	var rep reconciler.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rep))
	resp.Body.Close()
	require.Zero(t, rep.Total)

	// unknown waybill surfaces as an error
	resp, err = http.Post("http://"+addr+"/reconcile/NOPE", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting admin server to stop")
	}
}
