package weather

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	// DefaultHorizonDays is used when a request does not name a horizon.
	DefaultHorizonDays = 7
	// MaxHorizonDays is the longest supported forecast.
	MaxHorizonDays = 30
	// MinTrainingSamples is the minimum number of usable rows per target.
	MinTrainingSamples = 60
	// TrailingWindow is the number of preceding days in the recent-regime regressor.
	TrailingWindow = 7
)

type target struct {
	name  string
	get   func(ObservationRecord) Measurement
	set   func(*PredictionRecord, float64)
	floor float64 // lower clamp; -Inf for none
	// optional targets are left missing instead of failing the forecast.
	optional bool
}

var predictionTargets = []target{
	{
		name:  "temperature",
		get:   func(r ObservationRecord) Measurement { return r.Temperature },
		set:   func(p *PredictionRecord, v float64) { p.Temperature = v },
		floor: math.Inf(-1),
	},
	{
		name:  "precipitation",
		get:   func(r ObservationRecord) Measurement { return r.Precipitation },
		set:   func(p *PredictionRecord, v float64) { p.Precipitation = v },
		floor: 0,
	},
	{
		name:     "wind speed",
		get:      func(r ObservationRecord) Measurement { return r.WindSpeed },
		set:      func(p *PredictionRecord, v float64) { p.WindSpeed = Value(v) },
		floor:    0,
		optional: true,
	},
}

// Predict fits one regression per target on the history and forecasts
// horizonDays days starting the day after the latest record. Features are the
// cyclic day-of-year (sin, cos) and the trailing mean of the previous
// TrailingWindow days. Models are built per call and discarded. Temperature
// and precipitation are required; wind speed is forecast when enough wind
// history exists and left missing otherwise.
func Predict(records []ObservationRecord, horizonDays int) ([]PredictionRecord, error) {
	if err := ValidateHorizon(horizonDays); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty history", ErrInsufficientData)
	}

	series := make([]ObservationRecord, len(records))
	copy(series, records)
	sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date.Time) })
	last := series[len(series)-1].Date

	out := make([]PredictionRecord, horizonDays)
	for h := range out {
		out[h].Date = last.AddDays(h + 1)
	}

	for _, t := range predictionTargets {
		values, err := forecastTarget(series, t, horizonDays)
		if err != nil {
			if t.optional && errors.Is(err, ErrInsufficientData) {
				continue
			}
			return nil, err
		}
		for h, v := range values {
			t.set(&out[h], v)
		}
	}
	return out, nil
}

func forecastTarget(series []ObservationRecord, t target, horizonDays int) ([]float64, error) {
	vals := make([]Measurement, len(series))
	for i, r := range series {
		vals[i] = t.get(r)
	}

	var (
		rows [][]float64
		ys   []float64
		all  fieldStats
	)
	for i, r := range series {
		all.add(vals[i])
		y, ok := vals[i].Get()
		if !ok {
			continue
		}
		tr, ok := trailingMean(vals[max(0, i-TrailingWindow):i])
		if !ok {
			continue
		}
		rows = append(rows, features(r.Date, tr))
		ys = append(ys, y)
	}
	if len(rows) < MinTrainingSamples {
		return nil, fmt.Errorf("%w: %d usable %s samples, need at least %d",
			ErrInsufficientData, len(rows), t.name, MinTrainingSamples)
	}

	model, err := fitLinear(rows, ys)
	if err != nil {
		return nil, fmt.Errorf("%w: %s model: %v", ErrInsufficientData, t.name, err)
	}

	// Seed the rolling window from the tail of the history.
	var window []float64
	for _, m := range vals[max(0, len(vals)-TrailingWindow):] {
		if v, ok := m.Get(); ok {
			window = append(window, v)
		}
	}
	if len(window) == 0 {
		window = append(window, all.mean())
	}

	last := series[len(series)-1].Date
	out := make([]float64, horizonDays)
	for h := range out {
		y := model.predict(features(last.AddDays(h+1), mean(window)))
		y = math.Max(y, t.floor)
		out[h] = y

		window = append(window, y)
		if len(window) > TrailingWindow {
			window = window[1:]
		}
	}
	return out, nil
}

func features(d Date, trailing float64) []float64 {
	angle := 2 * math.Pi * float64(d.YearDay()) / daysPerYear
	return []float64{1, math.Sin(angle), math.Cos(angle), trailing}
}

func trailingMean(window []Measurement) (float64, bool) {
	var s fieldStats
	for _, m := range window {
		s.add(m)
	}
	if s.n == 0 {
		return 0, false
	}
	return s.mean(), true
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
