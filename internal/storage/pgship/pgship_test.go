package pgship

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/UDDITwork/shipsarthi-sub007/internal/models"
	"github.com/UDDITwork/shipsarthi-sub007/internal/ratecard"
	"github.com/UDDITwork/shipsarthi-sub007/internal/status"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "shipsarthi_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/shipsarthi_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestPGShip_ShipmentFlow(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	ord, err := st.CreateOrder(ctx, &models.Order{
		UserID: "u1", Waybill: "WB1", ReferenceID: "REF1",
		Status: status.New, HasPickupRequest: true,
	})
	require.NoError(t, err)
	require.NotZero(t, ord.ID)

	sh, err := st.UpsertShipmentFromOrder(ctx, ord)
	require.NoError(t, err)
	require.Equal(t, status.PickupsManifests, sh.CurrentStatus)
	require.True(t, sh.IsTrackingActive)

	// Upserting again returns the same record.
	again, err := st.UpsertShipmentFromOrder(ctx, ord)
	require.NoError(t, err)
	require.Equal(t, sh.ID, again.ID)

	active, err := st.ListActiveShipments(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)

	// Reconcile to delivered: shipment and order in one save.
	now := time.Now().UTC()
	sh.CurrentStatus = status.Delivered
	sh.APIStatus = "Delivered"
	sh.IsDelivered = true
	sh.IsTrackingActive = false
	sh.TrackingCount = 1
	sh.LastTrackedAt = &now
	sh.StatusHistory = append(sh.StatusHistory, models.StatusHistoryEntry{
		Status: status.Delivered, Timestamp: now, Source: "automated_tracking",
	})
	ord.Status = status.Delivered
	ord.DeliveredAt = &now
	require.NoError(t, st.SaveReconciled(ctx, sh, ord))

	got, err := st.GetShipmentByWaybill(ctx, "WB1")
	require.NoError(t, err)
	require.Equal(t, status.Delivered, got.CurrentStatus)
	require.False(t, got.IsTrackingActive)
	require.Len(t, got.StatusHistory, 1)

	gotOrd, err := st.GetOrderByID(ctx, ord.ID)
	require.NoError(t, err)
	require.Equal(t, status.Delivered, gotOrd.Status)
	require.NotNil(t, gotOrd.DeliveredAt)

	active, err = st.ListActiveShipments(ctx, true)
	require.NoError(t, err)
	require.Empty(t, active)

	_, err = st.GetShipmentByWaybill(ctx, "NOPE")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPGShip_ScanEventDedup(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	ord, err := st.CreateOrder(ctx, &models.Order{
		Waybill: "WB2", Status: status.OutForDelivery, HasPickupRequest: true,
	})
	require.NoError(t, err)
	sh, err := st.UpsertShipmentFromOrder(ctx, ord)
	require.NoError(t, err)

	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	ev := &models.TrackingEvent{
		Waybill: "WB2", Status: "Delivered", StatusAt: at, Processed: true,
		Payload: []byte(`{"Shipment":{"AWB":"WB2"}}`),
	}
	sh.CurrentStatus = status.Delivered
	sh.IsDelivered = true
	sh.IsTrackingActive = false
	ord.Status = status.Delivered
	require.NoError(t, st.ApplyScanEvent(ctx, ev, sh, ord))
	require.NotZero(t, ev.ID)

	// Identical redelivery aborts the transaction as a duplicate.
	dup := &models.TrackingEvent{Waybill: "WB2", Status: "Delivered", StatusAt: at}
	err = st.ApplyScanEvent(ctx, dup, sh, ord)
	require.ErrorIs(t, err, ErrDuplicateEvent)

	exists, err := st.EventExists(ctx, "WB2", "Delivered", at)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = st.EventExists(ctx, "WB2", "Delivered", at.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, exists)

	evs, err := st.ListTrackingEvents(ctx, "WB2", 10, 0)
	require.NoError(t, err)
	require.Len(t, evs, 1)
}

func TestPGShip_RateCards(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, st.SeedRateCards(ctx, ratecard.DefaultCards()))
	// Seeding twice never overwrites.
	require.NoError(t, st.SeedRateCards(ctx, ratecard.DefaultCards()))

	card, err := st.CardForTier(ctx, "  BASIC   user ")
	require.NoError(t, err)
	require.Equal(t, "Basic User", card.Tier)
	require.InDelta(t, 1.8, card.COD.Percent, 1e-9)

	_, err = st.CardForTier(ctx, "ghost tier")
	var cfgErr *ratecard.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	card.COD.Minimum = 60
	require.NoError(t, st.UpsertRateCard(ctx, card))
	card2, err := st.CardForTier(ctx, "Basic User")
	require.NoError(t, err)
	require.InDelta(t, 60, card2.COD.Minimum, 1e-9)
}

func TestPGShip_Documents(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{
		Waybill: "WB3", DocType: "epod",
		URL:     "/documents/WB3/epod",
		Content: []byte{0xFF, 0xD8, 0xFF},
	}
	created, err := st.UpsertDocument(ctx, doc)
	require.NoError(t, err)
	require.True(t, created)
	require.NotZero(t, doc.ID)

	created, err = st.UpsertDocument(ctx, &models.Document{
		Waybill: "WB3", DocType: "epod", URL: "/documents/WB3/epod",
	})
	require.NoError(t, err)
	require.False(t, created)

	docs, err := st.ListDocuments(ctx, "WB3")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, []byte{0xFF, 0xD8, 0xFF}, docs[0].Content)
}
