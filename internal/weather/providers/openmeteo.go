package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-analysis/internal/weather"
)

const openMeteoArchiveURL = "https://archive-api.open-meteo.com/v1/archive"

// OpenMeteoProvider implements weather.HistorySource for the Open-Meteo historical archive.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = openMeteoArchiveURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("openmeteo"),
		now:     time.Now,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Null entries in the daily arrays are provider gaps.
type openMeteoPayload struct {
	Daily struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m_mean"`
		Precipitation []*float64 `json:"precipitation_sum"`
		WindSpeed     []*float64 `json:"wind_speed_10m_mean"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) FetchHistory(ctx context.Context, loc weather.Location, lookbackYears int) ([]weather.ObservationRecord, error) {
	if err := weather.ValidateLocation(loc); err != nil {
		return nil, err
	}
	if lookbackYears <= 0 {
		lookbackYears = 1
	}

	start, end := historyWindow(weather.DateOf(p.now()).AddDays(-1), lookbackYears)

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%.4f", loc.Lon))
		values.Set("start_date", start.String())
		values.Set("end_date", end.String())
		values.Set("daily", "temperature_2m_mean,precipitation_sum,wind_speed_10m_mean")
		values.Set("wind_speed_unit", "ms")
		values.Set("timezone", "UTC")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload openMeteoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, unavailable(p.name, fmt.Errorf("decode response: %w", err))
	}

	records, err := parseOpenMeteo(payload)
	if err != nil {
		return nil, unavailable(p.name, err)
	}
	return records, nil
}

func parseOpenMeteo(payload openMeteoPayload) ([]weather.ObservationRecord, error) {
	daily := payload.Daily
	if len(daily.Time) == 0 {
		return nil, errEmptySeries
	}

	records := make([]weather.ObservationRecord, 0, len(daily.Time))
	for i, day := range daily.Time {
		d, err := weather.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("malformed date %q: %w", day, err)
		}
		records = append(records, weather.ObservationRecord{
			Date:          d,
			Temperature:   openMeteoMeasurement(daily.Temperature, i),
			Precipitation: openMeteoMeasurement(daily.Precipitation, i),
			WindSpeed:     openMeteoMeasurement(daily.WindSpeed, i),
		})
	}
	return normalizeSeries(records), nil
}

func openMeteoMeasurement(values []*float64, i int) weather.Measurement {
	if i >= len(values) || values[i] == nil {
		return weather.Missing()
	}
	return weather.Value(*values[i])
}
