package weather

import "fmt"

// MinNormalsSamples is the minimum number of valid entries each field needs.
const MinNormalsSamples = 30

const daysPerYear = 365.25

// ComputeNormals derives long-run averages from a history record set.
// Each field is averaged over its own valid entries, so a day missing
// temperature still contributes to precipitation and wind normals.
func ComputeNormals(records []ObservationRecord) (ClimateNormals, error) {
	var temp, precip, wind fieldStats
	precipDays := make(map[Date]struct{}, len(records))
	wet := 0

	for _, r := range records {
		temp.add(r.Temperature)
		precip.add(r.Precipitation)
		wind.add(r.WindSpeed)

		if r.Precipitation.Valid() {
			precipDays[r.Date] = struct{}{}
			if r.Precipitation.Exceeds(WetDayThreshold) {
				wet++
			}
		}
	}

	for _, f := range []struct {
		name  string
		stats fieldStats
	}{
		{"temperature", temp},
		{"precipitation", precip},
		{"wind speed", wind},
	} {
		if f.stats.n < MinNormalsSamples {
			return ClimateNormals{}, fmt.Errorf("%w: %d valid %s entries, need at least %d",
				ErrInsufficientData, f.stats.n, f.name, MinNormalsSamples)
		}
	}

	return ClimateNormals{
		AvgTemperature:    temp.mean(),
		AvgPrecipitation:  precip.mean(),
		PrecipitationDays: float64(wet) * (daysPerYear / float64(len(precipDays))),
		AvgWindSpeed:      wind.mean(),
	}, nil
}
