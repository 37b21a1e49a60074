package status

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_CaseAndSeparators(t *testing.T) {
	for _, raw := range []string{"IN TRANSIT", "in-transit", "In_Transit", "  in   transit "} {
		got, ok := Normalize(raw)
		require.True(t, ok, raw)
		require.Equal(t, InTransit, got, raw)
	}
}

func TestNormalize_Unknown(t *testing.T) {
	_, ok := Normalize("totally unknown string")
	require.False(t, ok)

	_, ok = Normalize("")
	require.False(t, ok)
}

func TestNormalize_Table(t *testing.T) {
	cases := map[string]string{
		"Delivered":          Delivered,
		"Manifested":         ReadyToShip,
		"Pickup Scheduled":   PickupsManifests,
		"Dispatched":         OutForDelivery,
		"Pending":            NDR,
		"RTO Initiated":      RTO,
		"In Transit for RTO": RTO,
		"Canceled":           Cancelled,
		"Shipment Lost":      Lost,
	}
	for raw, want := range cases {
		got, ok := Normalize(raw)
		require.True(t, ok, raw)
		require.Equal(t, want, got, raw)
	}
}

func TestNormalizeFallback(t *testing.T) {
	got, ok := NormalizeFallback("Shipment Out For Delivery At Hub")
	require.True(t, ok)
	require.Equal(t, OutForDelivery, got)

	got, ok = NormalizeFallback("will be delivered soon")
	require.True(t, ok)
	require.Equal(t, Delivered, got)

	got, ok = NormalizeFallback("Linehaul In-Transit Scan")
	require.True(t, ok)
	require.Equal(t, InTransit, got)

	_, ok = NormalizeFallback("gibberish")
	require.False(t, ok)
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []string{Delivered, Cancelled, RTO, Lost} {
		require.True(t, IsTerminal(s), s)
	}
	for _, s := range []string{New, ReadyToShip, PickupsManifests, InTransit, OutForDelivery, NDR} {
		require.False(t, IsTerminal(s), s)
	}
}

func TestCategoryOf(t *testing.T) {
	require.Equal(t, CategoryInTransit, CategoryOf(InTransit))
	require.Equal(t, CategoryInTransit, CategoryOf(OutForDelivery))
	require.Equal(t, CategoryReady, CategoryOf(PickupsManifests))
	require.Equal(t, CategoryDelivered, CategoryOf(Delivered))
	require.Equal(t, "", CategoryOf("nope"))
}
