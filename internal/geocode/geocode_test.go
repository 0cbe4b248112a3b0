package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-analysis/internal/weather"
)

func stubResolver(fn lookupFunc) *Resolver {
	r := NewResolver("test-key")
	r.lookup = fn
	return r
}

func TestResolve(t *testing.T) {
	var got geocoder.Address
	r := stubResolver(func(a geocoder.Address) (geocoder.Location, error) {
		got = a
		return geocoder.Location{Latitude: 48.8566, Longitude: 2.3522}, nil
	})

	loc, err := r.Resolve(context.Background(), " Paris ", "France")
	require.NoError(t, err)
	assert.Equal(t, weather.Location{Lat: 48.8566, Lon: 2.3522}, loc)
	assert.Equal(t, "Paris", got.City)
	assert.Equal(t, "France", got.Country)
	assert.Equal(t, "test-key", geocoder.ApiKey)
}

func TestResolveErrors(t *testing.T) {
	_, err := NewResolver("").Resolve(context.Background(), "Paris", "FR")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewResolver("k").Resolve(context.Background(), "  ", "FR")
	assert.ErrorIs(t, err, ErrNotFound)

	r := stubResolver(func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("ZERO_RESULTS")
	})
	_, err = r.Resolve(context.Background(), "Atlantis", "")
	assert.ErrorIs(t, err, ErrNotFound)

	r = stubResolver(func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("OVER_QUERY_LIMIT")
	})
	_, err = r.Resolve(context.Background(), "Paris", "")
	assert.ErrorIs(t, err, weather.ErrDataSourceUnavailable)

	r = stubResolver(func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{Latitude: 123, Longitude: 0}, nil
	})
	_, err = r.Resolve(context.Background(), "Nowhere", "")
	assert.ErrorIs(t, err, weather.ErrInvalidLocation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = stubResolver(nil).Resolve(ctx, "Paris", "")
	assert.ErrorIs(t, err, context.Canceled)
}
