package weather

import "time"

// SeasonOf maps a calendar month to its meteorological season. Names follow
// the northern hemisphere regardless of latitude.
func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Fall
	}
}

// SummarizeSeasons buckets records by season and computes per-season
// statistics. A season without any valid temperature entry is omitted.
func SummarizeSeasons(records []ObservationRecord) map[Season]SeasonalSummary {
	buckets := make(map[Season][]ObservationRecord, len(Seasons))
	for _, r := range records {
		s := SeasonOf(r.Date.Month())
		buckets[s] = append(buckets[s], r)
	}

	out := make(map[Season]SeasonalSummary, len(buckets))
	for season, recs := range buckets {
		var temp, precip fieldStats
		for _, r := range recs {
			temp.add(r.Temperature)
			precip.add(r.Precipitation)
		}
		if temp.n == 0 {
			continue
		}

		out[season] = SeasonalSummary{
			AvgTemperature:     temp.mean(),
			TotalPrecipitation: precip.sum,
			DaysWithRain:       countWet(recs),
			MaxTemperature:     temp.max,
			MinTemperature:     temp.min,
			RecordCount:        len(recs),
		}
	}
	return out
}
