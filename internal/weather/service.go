package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-analysis/internal/logger"
)

// Options tunes the orchestrator.
type Options struct {
	LookbackYears int
	FetchTimeout  time.Duration
}

// Service sequences history retrieval, normals, prediction, seasonal
// aggregation and advice into one AnalysisResult. It holds no per-request state.
type Service struct {
	sources []HistorySource
	opts    Options
	log     logger.Logger
	now     func() time.Time
}

// NewService creates a new Service. Sources are tried in order.
func NewService(sources []HistorySource, opts Options, log logger.Logger) *Service {
	if opts.LookbackYears <= 0 {
		opts.LookbackYears = 3
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	return &Service{
		sources: sources,
		opts:    opts,
		log:     log.WithField("component", "analysis"),
		now:     time.Now,
	}
}

// Analyze runs the full pipeline. Any component failure aborts the analysis
// and is returned unchanged.
func (s *Service) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	log := s.log.WithFields(map[string]interface{}{
		"request_id": uuid.NewString(),
		"location":   req.Location.Key(),
		"user_type":  req.UserType,
		"days":       req.PredictionDays,
	})

	if err := ValidateLocation(req.Location); err != nil {
		return nil, err
	}
	if err := ValidateHorizon(req.PredictionDays); err != nil {
		return nil, err
	}
	if req.TargetDate != nil {
		log = log.WithField("target_date", req.TargetDate.String())
	}

	started := s.now()
	history, err := s.FetchHistory(ctx, req.Location)
	if err != nil {
		log.Warnf("history fetch failed: %v", err)
		return nil, err
	}
	log.Debugf("fetched %d history records", len(history))

	var (
		normals     ClimateNormals
		forecast    []PredictionRecord
		g           errgroup.Group
	)
	g.Go(func() error {
		var err error
		normals, err = ComputeNormals(history)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = Predict(history, forecastHorizon(history, req))
		return err
	})
	if err := g.Wait(); err != nil {
		log.Warnf("analysis failed: %v", err)
		return nil, err
	}

	predictions := forecast[:req.PredictionDays:req.PredictionDays]

	var day *DayWeather
	if req.TargetDate != nil {
		day = LookupDay(history, forecast, *req.TargetDate)
		if day == nil {
			log.Infof("target date %s is outside history and forecast", req.TargetDate.String())
		}
	}

	seasonal := SummarizeSeasons(history)
	advice := GenerateAdviceForDay(normals, predictions, seasonal, day, req.UserType)

	log.Infof("analysis completed in %s (%d predictions, %d seasons, %d advice lines)",
		s.now().Sub(started).Round(time.Millisecond), len(predictions), len(seasonal),
		len(advice.Immediate)+len(advice.Seasonal)+len(advice.SpecificDay))

	return &AnalysisResult{
		Location:         req.Location,
		LastUpdated:      s.now().UTC(),
		ClimateNormals:   normals,
		Predictions:      predictions,
		SeasonalForecast: seasonal,
		UserAdvice:       advice,
		UserType:         req.UserType,
		SpecificDay:      day,
	}, nil
}

// forecastHorizon extends the requested horizon so that a future target day
// within MaxHorizonDays of the last record is covered by the forecast.
func forecastHorizon(history []ObservationRecord, req AnalysisRequest) int {
	h := req.PredictionDays
	if req.TargetDate == nil {
		return h
	}
	last, ok := latestDate(history)
	if !ok {
		return h
	}
	if ahead := daysAfter(last, *req.TargetDate); ahead > h && ahead <= MaxHorizonDays {
		return ahead
	}
	return h
}

// FetchHistory asks each configured source in turn, bounded by FetchTimeout,
// and returns the first successful history.
func (s *Service) FetchHistory(ctx context.Context, loc Location) ([]ObservationRecord, error) {
	if err := ValidateLocation(loc); err != nil {
		return nil, err
	}
	if len(s.sources) == 0 {
		return nil, fmt.Errorf("%w: no history sources configured", ErrDataSourceUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	var lastErr error
	for _, src := range s.sources {
		records, err := src.FetchHistory(ctx, loc, s.opts.LookbackYears)
		if err == nil {
			return records, nil
		}
		if errors.Is(err, ErrInvalidLocation) {
			return nil, err
		}
		s.log.Warnf("source %s failed for %s: %v", src.Name(), loc.Key(), err)
		lastErr = err
	}

	if !errors.Is(lastErr, ErrDataSourceUnavailable) {
		lastErr = fmt.Errorf("%w: %v", ErrDataSourceUnavailable, lastErr)
	}
	return nil, lastErr
}
