package weather

import (
	"errors"
	"fmt"
	"math"
)

// Error kinds surfaced by the analysis pipeline. Components wrap one of these
// with fmt.Errorf("%w: ...") so callers classify with errors.Is.
var (
	ErrInvalidLocation       = errors.New("invalid location")
	ErrInvalidHorizon        = errors.New("invalid prediction horizon")
	ErrDataSourceUnavailable = errors.New("data source unavailable")
	ErrInsufficientData      = errors.New("insufficient data")
)

// ValidateLocation checks geographic ranges.
func ValidateLocation(loc Location) error {
	if math.IsNaN(loc.Lat) || loc.Lat < -90 || loc.Lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidLocation, loc.Lat)
	}
	if math.IsNaN(loc.Lon) || loc.Lon < -180 || loc.Lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidLocation, loc.Lon)
	}
	return nil
}

// ValidateHorizon checks that days is within 1..MaxHorizonDays.
func ValidateHorizon(days int) error {
	if days <= 0 || days > MaxHorizonDays {
		return fmt.Errorf("%w: %d days, supported range is 1-%d", ErrInvalidHorizon, days, MaxHorizonDays)
	}
	return nil
}
