package weather

import (
	"math"
	"time"
)

var historyStart = DateOf(time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC))

// syntheticHistory builds a deterministic daily series with a seasonal
// temperature cycle, rain every third day and a gently varying wind.
func syntheticHistory(days int) []ObservationRecord {
	records := make([]ObservationRecord, days)
	for i := range records {
		d := historyStart.AddDays(i)
		doy := float64(d.YearDay())
		temp := 12 + 10*math.Sin(2*math.Pi*(doy-80)/365.25) + math.Sin(float64(i)*1.3)

		precip := 0.2
		if i%3 == 0 {
			precip = 4.0
		}

		records[i] = ObservationRecord{
			Date:          d,
			Temperature:   Value(temp),
			Precipitation: Value(precip),
			WindSpeed:     Value(3 + math.Cos(float64(i))),
		}
	}
	return records
}

func record(day string, temp, precip, wind Measurement) ObservationRecord {
	d, err := ParseDate(day)
	if err != nil {
		panic(err)
	}
	return ObservationRecord{Date: d, Temperature: temp, Precipitation: precip, WindSpeed: wind}
}
