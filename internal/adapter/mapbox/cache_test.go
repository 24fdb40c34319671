package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crash-data-etl/internal/domain"
	"github.com/couchcryptid/crash-data-etl/internal/observability"
)

type countingGeocoder struct {
	calls  int
	result domain.PlaceResult
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.PlaceResult, error) {
	m.calls++
	return m.result, m.err
}

func newCached(t *testing.T, inner domain.Geocoder, size int) (*CachedGeocoder, *observability.Metrics) {
	t.Helper()
	m := observability.NewMetricsForTesting()
	c, err := NewCachedGeocoder(inner, size, m)
	require.NoError(t, err)
	return c, m
}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: domain.PlaceResult{FormattedAddress: "Lambton Quay, Wellington", PlaceName: "Wellington"}}
	cached, m := newCached(t, inner, 10)

	r1, err := cached.ReverseGeocode(context.Background(), -41.284364, 174.776541)
	require.NoError(t, err)
	r2, err := cached.ReverseGeocode(context.Background(), -41.284364, 174.776541)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("miss")))
}

func TestCachedGeocoder_RoundsKey(t *testing.T) {
	inner := &countingGeocoder{result: domain.PlaceResult{FormattedAddress: "x"}}
	cached, _ := newCached(t, inner, 10)

	_, _ = cached.ReverseGeocode(context.Background(), -41.2843641, 174.7765411)
	_, _ = cached.ReverseGeocode(context.Background(), -41.2843642, 174.7765412)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_EmptyNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached, _ := newCached(t, inner, 10)

	_, _ = cached.ReverseGeocode(context.Background(), -44.0, -176.5)
	_, _ = cached.ReverseGeocode(context.Background(), -44.0, -176.5)
	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.Len())
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("boom"), result: domain.PlaceResult{FormattedAddress: "x"}}
	cached, _ := newCached(t, inner, 10)

	_, err := cached.ReverseGeocode(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Zero(t, cached.Len())
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{result: domain.PlaceResult{FormattedAddress: "x"}}
	cached, _ := newCached(t, inner, 2)

	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)
	_, _ = cached.ReverseGeocode(context.Background(), 2, 2)
	_, _ = cached.ReverseGeocode(context.Background(), 3, 3) // evicts 1,1
	assert.Equal(t, 2, cached.Len())

	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)
	assert.Equal(t, 4, inner.calls)
}

func TestNewCachedGeocoder_InvalidSize(t *testing.T) {
	_, err := NewCachedGeocoder(&countingGeocoder{}, 0, observability.NewMetricsForTesting())
	require.Error(t, err)
}
