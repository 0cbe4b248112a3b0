// Package geocode resolves city names to coordinates through the Google Geocoding API.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-analysis/internal/common"
	"github.com/i474232898/weather-analysis/internal/weather"
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("geocoding is not configured")
	// ErrNotFound is returned when the address matches no place.
	ErrNotFound = errors.New("location not found")
)

// The geocoder package keeps its key in a package variable, so lookups are serialized.
var keyMu sync.Mutex

type lookupFunc func(geocoder.Address) (geocoder.Location, error)

// Resolver turns a city and country into a weather.Location.
type Resolver struct {
	apiKey string
	lookup lookupFunc
}

func NewResolver(apiKey string) *Resolver {
	return &Resolver{apiKey: apiKey, lookup: geocoder.Geocoding}
}

// Resolve geocodes city, country. Country may be empty.
func (r *Resolver) Resolve(ctx context.Context, city, country string) (weather.Location, error) {
	city, country = strings.TrimSpace(city), strings.TrimSpace(country)
	if city == "" {
		return weather.Location{}, fmt.Errorf("%w: city is required", ErrNotFound)
	}
	if r.apiKey == "" {
		return weather.Location{}, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return weather.Location{}, err
	}

	keyMu.Lock()
	geocoder.ApiKey = r.apiKey
	found, err := r.lookup(geocoder.Address{City: city, Country: country})
	keyMu.Unlock()

	if err != nil {
		if common.HasAny(err.Error(), "ZERO_RESULTS", "not found", "no results") {
			return weather.Location{}, fmt.Errorf("%w: %s", ErrNotFound, city)
		}
		return weather.Location{}, fmt.Errorf("%w: geocoding: %v", weather.ErrDataSourceUnavailable, err)
	}

	loc := weather.Location{Lat: found.Latitude, Lon: found.Longitude}
	if err := weather.ValidateLocation(loc); err != nil {
		return weather.Location{}, err
	}
	return loc, nil
}
