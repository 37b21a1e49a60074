package transition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/UDDITwork/shipsarthi-sub007/internal/models"
	"github.com/UDDITwork/shipsarthi-sub007/internal/status"
)

func newShipment(st string) *models.ShipmentTracking {
	return &models.ShipmentTracking{
		Waybill:          "WB100",
		CurrentStatus:    st,
		IsTrackingActive: true,
	}
}

func TestApply_StatusChange(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	sh := newShipment(status.PickupsManifests)
	ord := &models.Order{ID: 1, Status: status.PickupsManifests}

	res := Apply(sh, ord, Input{
		Status:    status.InTransit,
		RawStatus: "In Transit",
		At:        now.Add(-time.Hour),
		Location:  "Delhi Hub",
		Source:    SourceTracking,
	}, now)

	require.True(t, res.StatusChanged)
	require.True(t, res.OrderChanged)
	require.False(t, res.BecameTerminal)
	require.Equal(t, status.PickupsManifests, res.OldOrderStatus)

	require.Equal(t, status.InTransit, sh.CurrentStatus)
	require.Equal(t, "In Transit", sh.APIStatus)
	require.Equal(t, int32(1), sh.TrackingCount)
	require.NotNil(t, sh.LastTrackedAt)
	require.Len(t, sh.StatusHistory, 1)
	require.Equal(t, "Delhi Hub", sh.StatusHistory[0].Location)
	require.Equal(t, string(SourceTracking), sh.StatusHistory[0].Source)

	require.Equal(t, status.InTransit, ord.Status)
	require.Len(t, ord.StatusHistory, 1)
}

func TestApply_UnchangedStatusStillAppendsHistory(t *testing.T) {
	now := time.Now().UTC()
	sh := newShipment(status.InTransit)
	ord := &models.Order{Status: status.InTransit}

	res := Apply(sh, ord, Input{Status: status.InTransit, RawStatus: "In Transit", Source: SourceWebhook}, now)

	require.False(t, res.StatusChanged)
	require.False(t, res.OrderChanged)
	require.Len(t, sh.StatusHistory, 1)
	require.Empty(t, ord.StatusHistory)
}

func TestApply_TerminalShipmentOnlyRefreshesDiagnostics(t *testing.T) {
	now := time.Now().UTC()
	sh := newShipment(status.Delivered)
	sh.IsTrackingActive = false
	ord := &models.Order{Status: status.Delivered}

	res := Apply(sh, ord, Input{Status: status.InTransit, RawStatus: "In Transit", Source: SourceTracking}, now)

	require.Equal(t, Result{}, res)
	require.Equal(t, status.Delivered, sh.CurrentStatus)
	require.Empty(t, sh.StatusHistory)
	require.Equal(t, int32(1), sh.TrackingCount)
	require.NotNil(t, sh.LastTrackedAt)
	require.Equal(t, status.Delivered, ord.Status)
}

func TestApply_Delivered(t *testing.T) {
	now := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
	sh := newShipment(status.OutForDelivery)
	ord := &models.Order{Status: status.OutForDelivery}

	res := Apply(sh, ord, Input{
		Status:   status.Delivered,
		At:       now,
		Location: "Bengaluru",
		Source:   SourceWebhook,
	}, now)

	require.True(t, res.BecameTerminal)
	require.False(t, sh.IsTrackingActive)
	require.True(t, sh.IsDelivered)
	require.NotNil(t, ord.DeliveredAt)
	require.Equal(t, now, *ord.DeliveredAt)
	require.Equal(t, "Bengaluru", ord.DeliveredBy)
}

func TestApply_RTOAndCancelledTimestamps(t *testing.T) {
	now := time.Now().UTC()

	sh := newShipment(status.NDR)
	ord := &models.Order{Status: status.NDR}
	res := Apply(sh, ord, Input{Status: status.RTO, At: now, Source: SourceTracking}, now)
	require.True(t, res.BecameTerminal)
	require.NotNil(t, ord.RTOAt)
	require.False(t, sh.IsDelivered)

	sh = newShipment(status.New)
	ord = &models.Order{Status: status.New}
	Apply(sh, ord, Input{Status: status.Cancelled, At: now, Source: SourceWebhook}, now)
	require.NotNil(t, ord.CancelledAt)
	require.False(t, sh.IsTrackingActive)
}

func TestApply_ZeroTimeDefaultsToNow(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	sh := newShipment(status.New)

	Apply(sh, nil, Input{Status: status.InTransit, Source: SourceTracking}, now)

	require.Equal(t, now, sh.StatusHistory[0].Timestamp)
}

func TestSyncOrder(t *testing.T) {
	now := time.Now().UTC()

	sh := newShipment(status.InTransit)
	ord := &models.Order{Status: status.New}
	require.True(t, SyncOrder(sh, ord, now))
	require.Equal(t, status.InTransit, ord.Status)
	require.Len(t, ord.StatusHistory, 1)

	// already in sync
	require.False(t, SyncOrder(sh, ord, now))

	// a terminal order is not pulled back to an active status
	ord = &models.Order{Status: status.Delivered}
	require.False(t, SyncOrder(sh, ord, now))
	require.Equal(t, status.Delivered, ord.Status)

	// but a terminal tracking record does overwrite a stale terminal order
	sh = newShipment(status.RTO)
	ord = &models.Order{Status: status.Cancelled}
	require.True(t, SyncOrder(sh, ord, now))
	require.Equal(t, status.RTO, ord.Status)
	require.NotNil(t, ord.RTOAt)
}
