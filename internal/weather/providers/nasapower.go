package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-analysis/internal/weather"
)

const (
	nasaPowerURL     = "https://power.larc.nasa.gov/api/temporal/daily/point"
	nasaDateLayout   = "20060102"
	nasaDefaultFill  = -999.0
	nasaTemperature  = "T2M"
	nasaPrecipCorr   = "PRECTOTCORR"
	nasaPrecip       = "PRECTOT"
	nasaWindSpeed2m  = "WS2M"
	nasaParameterSet = nasaTemperature + "," + nasaPrecipCorr + "," + nasaWindSpeed2m
)

// NASAPowerProvider implements weather.HistorySource for the NASA POWER daily point API.
type NASAPowerProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewNASAPowerProvider(client *http.Client, baseURL string) *NASAPowerProvider {
	if baseURL == "" {
		baseURL = nasaPowerURL
	}
	return &NASAPowerProvider{
		name:    "nasapower",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("nasapower"),
		now:     time.Now,
	}
}

func (p *NASAPowerProvider) Name() string {
	return p.name
}

type nasaPowerPayload struct {
	Header struct {
		FillValue *float64 `json:"fill_value"`
	} `json:"header"`
	Properties struct {
		Parameter map[string]map[string]*float64 `json:"parameter"`
	} `json:"properties"`
	Messages []string `json:"messages"`
}

func (p *NASAPowerProvider) FetchHistory(ctx context.Context, loc weather.Location, lookbackYears int) ([]weather.ObservationRecord, error) {
	if err := weather.ValidateLocation(loc); err != nil {
		return nil, err
	}
	if lookbackYears <= 0 {
		lookbackYears = 1
	}

	start, end := historyWindow(weather.DateOf(p.now()).AddDays(-1), lookbackYears)

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("parameters", nasaParameterSet)
		values.Set("community", "AG")
		values.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%.4f", loc.Lon))
		values.Set("start", start.Format(nasaDateLayout))
		values.Set("end", end.Format(nasaDateLayout))
		values.Set("format", "JSON")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload nasaPowerPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, unavailable(p.name, fmt.Errorf("decode response: %w", err))
	}

	records, err := parseNASAPower(payload)
	if err != nil {
		return nil, unavailable(p.name, err)
	}
	return records, nil
}

func parseNASAPower(payload nasaPowerPayload) ([]weather.ObservationRecord, error) {
	fill := nasaDefaultFill
	if payload.Header.FillValue != nil {
		fill = *payload.Header.FillValue
	}

	params := payload.Properties.Parameter
	temps := params[nasaTemperature]
	precip, ok := params[nasaPrecipCorr]
	if !ok {
		precip = params[nasaPrecip]
	}
	wind := params[nasaWindSpeed2m]

	days := make(map[string]struct{})
	for _, series := range []map[string]*float64{temps, precip, wind} {
		for k := range series {
			days[k] = struct{}{}
		}
	}
	if len(days) == 0 {
		if len(payload.Messages) > 0 {
			return nil, fmt.Errorf("%w: %s", errEmptySeries, payload.Messages[0])
		}
		return nil, errEmptySeries
	}

	records := make([]weather.ObservationRecord, 0, len(days))
	for key := range days {
		t, err := time.Parse(nasaDateLayout, key)
		if err != nil {
			return nil, fmt.Errorf("malformed date %q: %w", key, err)
		}
		records = append(records, weather.ObservationRecord{
			Date:          weather.DateOf(t),
			Temperature:   nasaMeasurement(temps, key, fill),
			Precipitation: nasaMeasurement(precip, key, fill),
			WindSpeed:     nasaMeasurement(wind, key, fill),
		})
	}
	return normalizeSeries(records), nil
}

// nasaMeasurement treats absent days, nulls and the fill value as gaps.
func nasaMeasurement(series map[string]*float64, key string, fill float64) weather.Measurement {
	v := series[key]
	if v == nil || *v == fill || math.IsNaN(*v) {
		return weather.Missing()
	}
	return weather.Value(*v)
}
