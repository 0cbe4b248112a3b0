package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-analysis/internal/logger"
)

type fakeSource struct {
	name    string
	records []ObservationRecord
	err     error
	delay   time.Duration

	mu    sync.Mutex
	calls int
	years int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchHistory(ctx context.Context, loc Location, lookbackYears int) ([]ObservationRecord, error) {
	f.mu.Lock()
	f.calls++
	f.years = lookbackYears
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, errors.Join(ErrDataSourceUnavailable, ctx.Err())
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newTestService(sources ...HistorySource) *Service {
	svc := NewService(sources, Options{LookbackYears: 2, FetchTimeout: time.Second}, logger.Discard())
	svc.now = func() time.Time { return time.Date(2024, 1, 5, 12, 0, 0, 0, time.FixedZone("EST", -5*3600)) }
	return svc
}

func TestAnalyze_EndToEnd(t *testing.T) {
	src := &fakeSource{name: "fake", records: syntheticHistory(730)}
	svc := newTestService(src)

	res, err := svc.Analyze(context.Background(), AnalysisRequest{
		Location:       Location{Lat: 40.0, Lon: -75.0},
		UserType:       UserFarmer,
		PredictionDays: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, Location{Lat: 40.0, Lon: -75.0}, res.Location)
	assert.Equal(t, UserFarmer, res.UserType)
	assert.Equal(t, time.Date(2024, 1, 5, 17, 0, 0, 0, time.UTC), res.LastUpdated)
	assert.Equal(t, 2, src.years)

	require.Len(t, res.Predictions, 7)
	assert.Equal(t, "2024-01-01", res.Predictions[0].Date.String())
	assert.Equal(t, "2024-01-07", res.Predictions[6].Date.String())

	assert.GreaterOrEqual(t, res.ClimateNormals.PrecipitationDays, 0.0)
	assert.LessOrEqual(t, res.ClimateNormals.PrecipitationDays, 366.0)
	assert.Len(t, res.SeasonalForecast, 4)

	wet := false
	for _, p := range res.Predictions {
		assert.GreaterOrEqual(t, p.Precipitation, 0.0)
		if p.Precipitation > WetDayThreshold {
			wet = true
		}
	}
	if wet {
		assert.NotEmpty(t, res.UserAdvice.Immediate)
	}
	assert.NotNil(t, res.UserAdvice.Seasonal)
}

func TestAnalyze_UnknownUserTypeYieldsEmptyAdvice(t *testing.T) {
	svc := newTestService(&fakeSource{name: "fake", records: syntheticHistory(730)})

	res, err := svc.Analyze(context.Background(), AnalysisRequest{
		Location:       Location{Lat: 10, Lon: 10},
		UserType:       "astronaut",
		PredictionDays: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, AdviceSet{Immediate: []string{}, Seasonal: []string{}, SpecificDay: []string{}}, res.UserAdvice)
	assert.Len(t, res.Predictions, 3)
}

func TestAnalyze_InvalidLocationSkipsFetch(t *testing.T) {
	src := &fakeSource{name: "fake", records: syntheticHistory(730)}
	svc := newTestService(src)

	_, err := svc.Analyze(context.Background(), AnalysisRequest{
		Location:       Location{Lat: 95, Lon: 0},
		UserType:       UserDriver,
		PredictionDays: 7,
	})
	assert.ErrorIs(t, err, ErrInvalidLocation)
	assert.Zero(t, src.calls)
}

func TestAnalyze_InvalidHorizon(t *testing.T) {
	src := &fakeSource{name: "fake", records: syntheticHistory(730)}
	svc := newTestService(src)

	for _, days := range []int{0, MaxHorizonDays + 1} {
		_, err := svc.Analyze(context.Background(), AnalysisRequest{
			Location:       Location{Lat: 1, Lon: 1},
			UserType:       UserDriver,
			PredictionDays: days,
		})
		assert.ErrorIs(t, err, ErrInvalidHorizon)
	}
	assert.Zero(t, src.calls)
}

func TestAnalyze_InsufficientData(t *testing.T) {
	svc := newTestService(&fakeSource{name: "fake", records: syntheticHistory(20)})

	res, err := svc.Analyze(context.Background(), AnalysisRequest{
		Location:       Location{Lat: 1, Lon: 1},
		UserType:       UserFarmer,
		PredictionDays: 7,
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestAnalyze_SourceFailureAbortsRequest(t *testing.T) {
	boom := errors.Join(ErrDataSourceUnavailable, errors.New("rate limited"))
	svc := newTestService(&fakeSource{name: "down", err: boom})

	res, err := svc.Analyze(context.Background(), AnalysisRequest{
		Location:       Location{Lat: 1, Lon: 1},
		UserType:       UserFarmer,
		PredictionDays: 7,
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrDataSourceUnavailable)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAnalyze_TargetDate(t *testing.T) {
	history := syntheticHistory(730) // 2022-01-01 .. 2023-12-31
	svc := newTestService(&fakeSource{name: "fake", records: history})

	analyze := func(target string) *AnalysisResult {
		t.Helper()
		d, err := ParseDate(target)
		require.NoError(t, err)
		res, err := svc.Analyze(context.Background(), AnalysisRequest{
			Location:       Location{Lat: 40, Lon: -75},
			UserType:       UserDriver,
			PredictionDays: 7,
			TargetDate:     &d,
		})
		require.NoError(t, err)
		return res
	}

	past := analyze("2023-06-15")
	require.NotNil(t, past.SpecificDay)
	assert.Equal(t, DayHistorical, past.SpecificDay.Type)
	assert.False(t, past.SpecificDay.IsPrediction)
	assert.Equal(t, history[530].Temperature, past.SpecificDay.Temperature)
	assert.NotNil(t, past.UserAdvice.SpecificDay)

	// Beyond the requested week but inside the supported horizon.
	future := analyze("2024-01-20")
	require.NotNil(t, future.SpecificDay)
	assert.True(t, future.SpecificDay.IsPrediction)
	assert.Len(t, future.Predictions, 7)

	longer, err := Predict(history, 20)
	require.NoError(t, err)
	assert.Equal(t, longer[:7], future.Predictions)
	assert.Equal(t, Value(longer[19].Temperature), future.SpecificDay.Temperature)

	tooFar := analyze("2024-06-01")
	assert.Nil(t, tooFar.SpecificDay)
	assert.Empty(t, tooFar.UserAdvice.SpecificDay)

	beforeHistory := analyze("2010-01-01")
	assert.Nil(t, beforeHistory.SpecificDay)
}

func TestFetchHistory_FallsBackToNextSource(t *testing.T) {
	down := &fakeSource{name: "down", err: errors.New("connection refused")}
	up := &fakeSource{name: "up", records: syntheticHistory(10)}
	svc := newTestService(down, up)

	got, err := svc.FetchHistory(context.Background(), Location{Lat: 1, Lon: 2})
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, 1, down.calls)
	assert.Equal(t, 1, up.calls)
}

func TestFetchHistory_InvalidLocationFromSourceStops(t *testing.T) {
	first := &fakeSource{name: "first", err: ErrInvalidLocation}
	second := &fakeSource{name: "second", records: syntheticHistory(10)}
	svc := newTestService(first, second)

	_, err := svc.FetchHistory(context.Background(), Location{Lat: 1, Lon: 2})
	assert.ErrorIs(t, err, ErrInvalidLocation)
	assert.Zero(t, second.calls)
}

func TestFetchHistory_WrapsUnclassifiedErrors(t *testing.T) {
	svc := newTestService(&fakeSource{name: "odd", err: errors.New("boom")})

	_, err := svc.FetchHistory(context.Background(), Location{Lat: 1, Lon: 2})
	assert.ErrorIs(t, err, ErrDataSourceUnavailable)

	_, err = newTestService().FetchHistory(context.Background(), Location{Lat: 1, Lon: 2})
	assert.ErrorIs(t, err, ErrDataSourceUnavailable)
}

func TestFetchHistory_Timeout(t *testing.T) {
	slow := &fakeSource{name: "slow", delay: time.Minute}
	svc := NewService([]HistorySource{slow}, Options{FetchTimeout: 20 * time.Millisecond}, logger.Discard())

	start := time.Now()
	_, err := svc.FetchHistory(context.Background(), Location{Lat: 1, Lon: 2})
	assert.ErrorIs(t, err, ErrDataSourceUnavailable)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAnalyze_ConcurrentRequestsAreIndependent(t *testing.T) {
	svc := newTestService(&fakeSource{name: "fake", records: syntheticHistory(730)})

	var wg sync.WaitGroup
	results := make([]*AnalysisResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Analyze(context.Background(), AnalysisRequest{
				Location:       Location{Lat: 40, Lon: -75},
				UserType:       UserDriver,
				PredictionDays: 7,
			})
			if assert.NoError(t, err) {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Equal(t, results[0], r)
	}
}
