package weather

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Measurement is a single daily value that may be missing.
// A provider gap is a missing Measurement, never a zero reading.
type Measurement struct {
	value float64
	valid bool
}

// Value returns a present measurement.
func Value(v float64) Measurement {
	return Measurement{value: v, valid: true}
}

// Missing returns an absent measurement.
func Missing() Measurement {
	return Measurement{}
}

// Get returns the value and whether it is present.
func (m Measurement) Get() (float64, bool) {
	return m.value, m.valid
}

// Valid reports whether the measurement is present.
func (m Measurement) Valid() bool {
	return m.valid
}

// Exceeds reports whether the measurement is present and strictly above threshold.
func (m Measurement) Exceeds(threshold float64) bool {
	return m.valid && m.value > threshold
}

// Below reports whether the measurement is present and strictly below threshold.
func (m Measurement) Below(threshold float64) bool {
	return m.valid && m.value < threshold
}

// Within reports whether the measurement is present and inside [lo, hi].
func (m Measurement) Within(lo, hi float64) bool {
	return m.valid && m.value >= lo && m.value <= hi
}

func (m Measurement) MarshalJSON() ([]byte, error) {
	if !m.valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

func (m *Measurement) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Missing()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Value(v)
	return nil
}

// Date is a calendar day in UTC, serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// AddDays returns the day n days later.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Time.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ObservationRecord is one day of provider history for a location.
type ObservationRecord struct {
	Date          Date        `json:"date"`
	Temperature   Measurement `json:"temperature"`   // °C, daily mean
	Precipitation Measurement `json:"precipitation"` // mm/day
	WindSpeed     Measurement `json:"wind_speed"`    // m/s
}

// Location is the (lat, lon) key shared by every derived artifact.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f:%.4f", l.Lat, l.Lon)
}

// UserType selects the advisory rule set.
type UserType string

const (
	UserFarmer         UserType = "farmer"
	UserDriver         UserType = "driver"
	UserEventOrganizer UserType = "event_organizer"
)

// ParseUserType normalizes free-form input; unknown values are kept verbatim.
func ParseUserType(s string) UserType {
	return UserType(strings.ToLower(strings.TrimSpace(s)))
}

// ClimateNormals are long-run statistics of a history record set.
type ClimateNormals struct {
	AvgTemperature    float64 `json:"avg_temperature"`
	AvgPrecipitation  float64 `json:"avg_precipitation"`
	PrecipitationDays float64 `json:"precipitation_days"` // wet days per year
	AvgWindSpeed      float64 `json:"avg_wind_speed"`
}

// PredictionRecord is one forecast day. WindSpeed is missing when the
// history holds too little wind data to fit a model.
type PredictionRecord struct {
	Date          Date        `json:"date"`
	Temperature   float64     `json:"temperature"`
	Precipitation float64     `json:"precipitation"`
	WindSpeed     Measurement `json:"wind_speed"`
}

// Season is a fixed meteorological season.
type Season string

const (
	Winter Season = "Winter"
	Spring Season = "Spring"
	Summer Season = "Summer"
	Fall   Season = "Fall"
)

// Seasons lists all seasons in calendar order starting with Winter.
var Seasons = []Season{Winter, Spring, Summer, Fall}

// SeasonalSummary holds per-season statistics.
type SeasonalSummary struct {
	AvgTemperature     float64 `json:"avg_temperature"`
	TotalPrecipitation float64 `json:"total_precipitation"`
	DaysWithRain       int     `json:"days_with_rain"`
	MaxTemperature     float64 `json:"max_temperature"`
	MinTemperature     float64 `json:"min_temperature"`
	RecordCount        int     `json:"record_count"`
}

// AdviceSet is role-specific advisory text. SpecificDay is filled only when
// the request names a target date that history or the forecast covers.
type AdviceSet struct {
	Immediate   []string `json:"immediate"`
	Seasonal    []string `json:"seasonal"`
	SpecificDay []string `json:"specific_day"`
}

// AnalysisRequest is the input to Service.Analyze. TargetDate is optional.
type AnalysisRequest struct {
	Location       Location
	UserType       UserType
	PredictionDays int
	TargetDate     *Date
}

// AnalysisResult is the full response aggregate of one analysis.
type AnalysisResult struct {
	Location         Location                   `json:"location"`
	LastUpdated      time.Time                  `json:"last_updated"`
	ClimateNormals   ClimateNormals             `json:"climate_normals"`
	Predictions      []PredictionRecord         `json:"predictions"`
	SeasonalForecast map[Season]SeasonalSummary `json:"seasonal_forecast"`
	UserAdvice       AdviceSet                  `json:"user_advice"`
	UserType         UserType                   `json:"user_type"`
	SpecificDay      *DayWeather                `json:"specific_day,omitempty"`
}
