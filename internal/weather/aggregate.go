package weather

import "math"

// WetDayThreshold is the daily precipitation (mm) above which a day counts as rainy.
const WetDayThreshold = 1.0

// fieldStats accumulates the present values of one field. Missing
// measurements are skipped, so every derived statistic is over valid entries only.
type fieldStats struct {
	n   int
	sum float64
	max float64
	min float64
}

func (s *fieldStats) add(m Measurement) {
	v, ok := m.Get()
	if !ok {
		return
	}
	if s.n == 0 {
		s.max, s.min = v, v
	} else {
		s.max = math.Max(s.max, v)
		s.min = math.Min(s.min, v)
	}
	s.n++
	s.sum += v
}

func (s *fieldStats) mean() float64 {
	if s.n == 0 {
		return math.NaN()
	}
	return s.sum / float64(s.n)
}

// countWet counts present precipitation entries above WetDayThreshold.
func countWet(records []ObservationRecord) int {
	n := 0
	for _, r := range records {
		if r.Precipitation.Exceeds(WetDayThreshold) {
			n++
		}
	}
	return n
}
