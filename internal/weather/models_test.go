package weather

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasurement(t *testing.T) {
	v, ok := Value(0).Get()
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	_, ok = Missing().Get()
	assert.False(t, ok)

	assert.True(t, Value(2).Exceeds(1))
	assert.False(t, Value(1).Exceeds(1))
	assert.False(t, Missing().Exceeds(-1000))
}

func TestMeasurementJSON(t *testing.T) {
	rec := ObservationRecord{
		Date:          DateOf(time.Date(2024, 2, 29, 15, 30, 0, 0, time.UTC)),
		Temperature:   Value(0),
		Precipitation: Missing(),
		WindSpeed:     Value(3.5),
	}

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-02-29","temperature":0,"precipitation":null,"wind_speed":3.5}`, string(b))

	var back ObservationRecord
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, rec, back)
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", d.AddDays(1).String())
	assert.Equal(t, d, DateOf(time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC)))

	_, err = ParseDate("31/12/2023")
	assert.Error(t, err)

	var bad Date
	assert.Error(t, json.Unmarshal([]byte(`"2023-13-01"`), &bad))
}

func TestAnalysisResultRoundTrip(t *testing.T) {
	history := syntheticHistory(730)
	normals, err := ComputeNormals(history)
	require.NoError(t, err)
	preds, err := Predict(history, 7)
	require.NoError(t, err)
	seasonal := SummarizeSeasons(history)

	result := AnalysisResult{
		Location:         Location{Lat: 40, Lon: -75},
		LastUpdated:      time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC),
		ClimateNormals:   normals,
		Predictions:      preds,
		SeasonalForecast: seasonal,
		UserType:         UserFarmer,
		SpecificDay:      LookupDay(history, preds, preds[2].Date),
	}
	result.UserAdvice = GenerateAdviceForDay(normals, preds, seasonal, result.SpecificDay, UserFarmer)

	b, err := json.Marshal(result)
	require.NoError(t, err)

	var back AnalysisResult
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, result, back)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &raw))
	for _, key := range []string{"location", "last_updated", "climate_normals", "predictions", "seasonal_forecast", "user_advice", "user_type", "specific_day"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "2024-01-02T03:04:05.000000006Z", raw["last_updated"])
}

func TestParseUserType(t *testing.T) {
	assert.Equal(t, UserFarmer, ParseUserType(" Farmer "))
	assert.Equal(t, UserEventOrganizer, ParseUserType("EVENT_ORGANIZER"))
	assert.Equal(t, UserType("pilot"), ParseUserType("pilot"))
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, "40.0000:-75.0000", Location{Lat: 40, Lon: -75}.Key())
}

func TestValidateLocation(t *testing.T) {
	valid := []Location{{0, 0}, {90, 180}, {-90, -180}, {40, -75}, {-33.9, 151.2}}
	for _, loc := range valid {
		assert.NoError(t, ValidateLocation(loc), loc.Key())
	}

	invalid := []Location{{90.0001, 0}, {-91, 0}, {0, 180.5}, {0, -181}, {200, 500}}
	for _, loc := range invalid {
		assert.ErrorIs(t, ValidateLocation(loc), ErrInvalidLocation, loc.Key())
	}
}

func TestValidateHorizon(t *testing.T) {
	assert.NoError(t, ValidateHorizon(1))
	assert.NoError(t, ValidateHorizon(MaxHorizonDays))
	assert.ErrorIs(t, ValidateHorizon(0), ErrInvalidHorizon)
	assert.ErrorIs(t, ValidateHorizon(MaxHorizonDays+1), ErrInvalidHorizon)
}
