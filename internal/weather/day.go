package weather

import "math"

// DaySource tells whether a looked-up day came from history or the forecast.
type DaySource string

const (
	DayHistorical DaySource = "historical"
	DayPredicted  DaySource = "prediction"
)

// DayWeather is the weather for one requested calendar day.
type DayWeather struct {
	Date          Date        `json:"date"`
	Type          DaySource   `json:"type"`
	IsPrediction  bool        `json:"is_prediction"`
	Temperature   Measurement `json:"temperature"`
	Precipitation Measurement `json:"precipitation"`
	WindSpeed     Measurement `json:"wind_speed"`
}

// LookupDay returns the history record for day if there is one, otherwise the
// matching forecast entry. It returns nil when neither covers day.
func LookupDay(history []ObservationRecord, forecast []PredictionRecord, day Date) *DayWeather {
	for _, r := range history {
		if r.Date == day {
			return &DayWeather{
				Date:          day,
				Type:          DayHistorical,
				Temperature:   r.Temperature,
				Precipitation: r.Precipitation,
				WindSpeed:     r.WindSpeed,
			}
		}
	}
	for _, p := range forecast {
		if p.Date == day {
			return &DayWeather{
				Date:          day,
				Type:          DayPredicted,
				IsPrediction:  true,
				Temperature:   Value(p.Temperature),
				Precipitation: Value(p.Precipitation),
				WindSpeed:     p.WindSpeed,
			}
		}
	}
	return nil
}

// daysAfter returns the number of calendar days from base to d.
func daysAfter(base, d Date) int {
	return int(math.Round(d.Sub(base.Time).Hours() / 24))
}

// latestDate returns the most recent record date.
func latestDate(records []ObservationRecord) (Date, bool) {
	var (
		last  Date
		found bool
	)
	for _, r := range records {
		if !found || r.Date.After(last.Time) {
			last, found = r.Date, true
		}
	}
	return last, found
}
