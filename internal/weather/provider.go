package weather

import (
	"context"
	"time"
)

// HistorySource abstracts a historical daily climate provider (e.g. NASA POWER, Open-Meteo archive).
//
// FetchHistory returns one record per calendar day, ascending and unique by
// date, covering lookbackYears up to the provider's latest available day.
// Provider gaps are returned as records with missing measurements. Location
// errors wrap ErrInvalidLocation; every provider failure wraps ErrDataSourceUnavailable.
type HistorySource interface {
	Name() string
	FetchHistory(ctx context.Context, loc Location, lookbackYears int) ([]ObservationRecord, error)
}

// ResultStore keeps analysis snapshots for watched locations.
type ResultStore interface {
	Save(loc Location, result AnalysisResult)
	GetLatest(loc Location) (AnalysisResult, error)
	GetRange(loc Location, from, to time.Time) ([]AnalysisResult, error)
}
