package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-analysis/internal/weather"
)

var (
	// ErrNotFound is returned when no analysis is available for a given location.
	ErrNotFound = errors.New("no analysis for location")
)

// ResultHistory holds a time-ordered list of analyses for a location.
type ResultHistory struct {
	Results []weather.AnalysisResult
}

// MemoryStore is a concurrency-safe in-memory implementation of weather.ResultStore.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*ResultHistory

	// retention configuration
	maxHistory int           // max number of analyses per location
	maxAge     time.Duration // optional max age, measured from LastUpdated

	now func() time.Time
}

var _ weather.ResultStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory or maxAge is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ResultHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// cloneResult copies the slices, maps and pointers of an analysis so stored
// entries never alias caller memory.
func cloneResult(r weather.AnalysisResult) weather.AnalysisResult {
	out := r
	if r.Predictions != nil {
		out.Predictions = append([]weather.PredictionRecord(nil), r.Predictions...)
	}
	if r.SeasonalForecast != nil {
		out.SeasonalForecast = make(map[weather.Season]weather.SeasonalSummary, len(r.SeasonalForecast))
		for k, v := range r.SeasonalForecast {
			out.SeasonalForecast[k] = v
		}
	}
	out.UserAdvice = weather.AdviceSet{
		Immediate:   cloneStrings(r.UserAdvice.Immediate),
		Seasonal:    cloneStrings(r.UserAdvice.Seasonal),
		SpecificDay: cloneStrings(r.UserAdvice.SpecificDay),
	}
	if r.SpecificDay != nil {
		day := *r.SpecificDay
		out.SpecificDay = &day
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

// Save appends a copy of an analysis for a location and enforces retention.
func (s *MemoryStore) Save(loc weather.Location, result weather.AnalysisResult) {
	key := loc.Key()
	result = cloneResult(result)

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &ResultHistory{}
		s.data[key] = history
	}

	// Keep the slice ordered by LastUpdated even if a slow run finishes late.
	i := len(history.Results)
	for i > 0 && history.Results[i-1].LastUpdated.After(result.LastUpdated) {
		i--
	}
	history.Results = append(history.Results, weather.AnalysisResult{})
	copy(history.Results[i+1:], history.Results[i:])
	history.Results[i] = result

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Results) > s.maxHistory {
		over := len(history.Results) - s.maxHistory
		history.Results = history.Results[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Results); i++ {
			if !history.Results[i].LastUpdated.Before(cutoff) {
				break
			}
		}
		history.Results = history.Results[i:]
	}

	if len(history.Results) == 0 {
		delete(s.data, key)
	}
}

// GetLatest returns a copy of the most recent analysis for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.AnalysisResult, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Results) == 0 {
		return weather.AnalysisResult{}, ErrNotFound
	}
	return cloneResult(history.Results[len(history.Results)-1]), nil
}

// GetRange returns copies of all analyses for a location between from and to (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.AnalysisResult, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Results) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.AnalysisResult
	for _, r := range history.Results {
		if !r.LastUpdated.Before(from) && !r.LastUpdated.After(to) {
			result = append(result, cloneResult(r))
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
