package weather

import (
	"fmt"
	"math"
	"strings"
)

// OutlookDays is how many leading prediction days immediate advice looks at.
const OutlookDays = 7

type adviceCategory int

const (
	immediateAdvice adviceCategory = iota
	seasonalAdvice
	specificDayAdvice
)

// outlook summarizes the first OutlookDays predictions.
type outlook struct {
	days            int
	avgTemp         float64
	totalRain       float64
	maxTemp         float64
	minTemp         float64
	maxWind         float64
	rainyDays       int
	dryDays         int
	comfortableDays int
}

type adviceInput struct {
	normals  ClimateNormals
	seasonal map[Season]SeasonalSummary
	week     outlook
	day      *DayWeather
}

// dataKind names where the specific day came from, for advice text.
func (in *adviceInput) dataKind() []interface{} {
	if in.day.IsPrediction {
		return []interface{}{"predicted"}
	}
	return []interface{}{"historical"}
}

// Farmer and event organizer day rules form a chain: only the first match fires.
func farmerFieldDay(d *DayWeather) bool {
	return d.Temperature.Exceeds(15) && d.Precipitation.Exceeds(5)
}

func farmerHeavyRain(d *DayWeather) bool {
	return !farmerFieldDay(d) && d.Precipitation.Exceeds(10)
}

func eventPerfectDay(d *DayWeather) bool {
	return d.Precipitation.Below(1) && d.Temperature.Within(15, 30)
}

func eventRainyDay(d *DayWeather) bool {
	return !eventPerfectDay(d) && d.Precipitation.Exceeds(5)
}

// adviceRule fires independently of other rules. Immediate rules are only
// evaluated when there is at least one prediction, specific day rules only
// when a target day was resolved.
type adviceRule struct {
	category adviceCategory
	when     func(in *adviceInput) bool
	template string
	args     func(in *adviceInput) []interface{}
}

var adviceRules = map[UserType][]adviceRule{
	UserFarmer: {
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.avgTemp > 15 && in.week.totalRain > 10 },
			template: "Good planting conditions this week",
		},
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.avgTemp < 10 },
			template: "Wait for warmer weather before planting",
		},
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.totalRain < 5 },
			template: "Consider irrigation due to low rainfall (%.1f mm expected over %d days)",
			args:     func(in *adviceInput) []interface{} { return []interface{}{in.week.totalRain, in.week.days} },
		},
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.rainyDays > 0 },
			template: "Rain expected on %d of the next %d days - plan field work around it",
			args:     func(in *adviceInput) []interface{} { return []interface{}{in.week.rainyDays, in.week.days} },
		},
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.rainyDays > 3 },
			template: "Good natural irrigation this week",
		},
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.maxTemp > 35 },
			template: "Extreme heat warning - protect crops",
		},
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.minTemp < 5 },
			template: "Frost risk - protect sensitive plants",
		},
		{
			category: seasonalAdvice,
			when:     func(in *adviceInput) bool { return len(frostSeasons(in.seasonal)) > 0 },
			template: "Frost has been recorded in %s - avoid planting frost-sensitive crops then",
			args:     func(in *adviceInput) []interface{} { return []interface{}{joinSeasons(frostSeasons(in.seasonal))} },
		},
		{
			category: seasonalAdvice,
			when:     func(in *adviceInput) bool { _, ok := wettestSeason(in.seasonal); return ok },
			template: "%s is historically the wettest season (%.0f mm on record) - plan drainage and harvest around it",
			args: func(in *adviceInput) []interface{} {
				s, _ := wettestSeason(in.seasonal)
				return []interface{}{s, in.seasonal[s].TotalPrecipitation}
			},
		},
		{
			category: seasonalAdvice,
			when:     func(in *adviceInput) bool { return in.normals.PrecipitationDays < 60 },
			template: "Dry climate with about %.0f wet days a year - favour drought-tolerant crops",
			args:     func(in *adviceInput) []interface{} { return []interface{}{in.normals.PrecipitationDays} },
		},
		{
			category: seasonalAdvice,
			when:     func(in *adviceInput) bool { return len(seasonsWhere(in.seasonal, avgAbove(25))) > 0 },
			template: "%s average above 25°C - schedule irrigation against heat stress",
			args: func(in *adviceInput) []interface{} {
				return []interface{}{joinSeasons(seasonsWhere(in.seasonal, avgAbove(25)))}
			},
		},
		{
			category: specificDayAdvice,
			when:     func(in *adviceInput) bool { return farmerFieldDay(in.day) },
			template: "Based on %s data: Good day for field work",
			args:     (*adviceInput).dataKind,
		},
		{
			category: specificDayAdvice,
			when:     func(in *adviceInput) bool { return farmerHeavyRain(in.day) },
			template: "Based on %s data: Heavy rain expected - postpone outdoor work",
			args:     (*adviceInput).dataKind,
		},
		{
			category: specificDayAdvice,
			when: func(in *adviceInput) bool {
				return !farmerFieldDay(in.day) && !farmerHeavyRain(in.day) && in.day.Temperature.Exceeds(35)
			},
			template: "Based on %s data: Extreme heat - protect crops and workers",
			args:     (*adviceInput).dataKind,
		},
	},
	UserDriver: {
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.rainyDays > 2 },
			template: "Expect wet roads - drive carefully",
		},
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.maxTemp > 35 },
			template: "Extreme heat expected - check vehicle cooling system",
		},
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.minTemp < 5 },
			template: "Risk of frost on roads and bridges",
		},
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.maxWind > 10 },
			template: "Windy conditions expected (up to %.1f m/s) - be cautious",
			args:     func(in *adviceInput) []interface{} { return []interface{}{in.week.maxWind} },
		},
		{
			category: seasonalAdvice,
			when:     func(in *adviceInput) bool { return len(frostSeasons(in.seasonal)) > 0 },
			template: "Icy roads are possible in %s - fit winter tyres beforehand",
			args:     func(in *adviceInput) []interface{} { return []interface{}{joinSeasons(frostSeasons(in.seasonal))} },
		},
		{
			category: seasonalAdvice,
			when:     func(in *adviceInput) bool { _, ok := wettestSeason(in.seasonal); return ok },
			template: "%s brings the most rain (%d wet days on record) - allow extra stopping distance",
			args: func(in *adviceInput) []interface{} {
				s, _ := wettestSeason(in.seasonal)
				return []interface{}{s, in.seasonal[s].DaysWithRain}
			},
		},
		{
			category: seasonalAdvice,
			when:     func(in *adviceInput) bool { return in.normals.AvgWindSpeed > 6 },
			template: "Windy location (average %.1f m/s) - watch for crosswinds on open roads",
			args:     func(in *adviceInput) []interface{} { return []interface{}{in.normals.AvgWindSpeed} },
		},
		{
			category: specificDayAdvice,
			when:     func(in *adviceInput) bool { return in.day.Precipitation.Exceeds(5) },
			template: "Based on %s data: Wet road conditions expected",
			args:     (*adviceInput).dataKind,
		},
		{
			category: specificDayAdvice,
			when:     func(in *adviceInput) bool { return in.day.Temperature.Exceeds(35) },
			template: "Based on %s data: Extreme heat - check vehicle fluids",
			args:     (*adviceInput).dataKind,
		},
		{
			category: specificDayAdvice,
			when:     func(in *adviceInput) bool { return in.day.WindSpeed.Exceeds(15) },
			template: "Based on %s data: Strong winds - be cautious on open roads",
			args:     (*adviceInput).dataKind,
		},
	},
	UserEventOrganizer: {
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.dryDays >= 5 },
			template: "Good week for outdoor events",
		},
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.dryDays < 5 },
			template: "Consider rain contingency plans",
		},
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.comfortableDays >= 4 },
			template: "Most days have comfortable temperatures",
		},
		{
			category: immediateAdvice,
			when:     func(in *adviceInput) bool { return in.week.maxTemp > 32 },
			template: "Hot weather expected - provide shade and water",
		},
		{
			category: seasonalAdvice,
			when:     func(in *adviceInput) bool { _, ok := bestEventSeason(in.seasonal); return ok },
			template: "%s is historically the best season for outdoor events",
			args: func(in *adviceInput) []interface{} {
				s, _ := bestEventSeason(in.seasonal)
				return []interface{}{s}
			},
		},
		{
			category: seasonalAdvice,
			when:     func(in *adviceInput) bool { return in.normals.PrecipitationDays > 150 },
			template: "Rain is frequent here (about %.0f wet days a year) - prefer covered venues",
			args:     func(in *adviceInput) []interface{} { return []interface{}{in.normals.PrecipitationDays} },
		},
		{
			category: seasonalAdvice,
			when:     func(in *adviceInput) bool { return len(seasonsWhere(in.seasonal, avgAbove(28))) > 0 },
			template: "%s can be very hot - plan events for mornings or evenings",
			args: func(in *adviceInput) []interface{} {
				return []interface{}{joinSeasons(seasonsWhere(in.seasonal, avgAbove(28)))}
			},
		},
		{
			category: specificDayAdvice,
			when:     func(in *adviceInput) bool { return eventPerfectDay(in.day) },
			template: "Based on %s data: Perfect weather for outdoor events",
			args:     (*adviceInput).dataKind,
		},
		{
			category: specificDayAdvice,
			when:     func(in *adviceInput) bool { return eventRainyDay(in.day) },
			template: "Based on %s data: Rain expected - consider indoor venue",
			args:     (*adviceInput).dataKind,
		},
		{
			category: specificDayAdvice,
			when: func(in *adviceInput) bool {
				return !eventPerfectDay(in.day) && !eventRainyDay(in.day) && in.day.Temperature.Exceeds(32)
			},
			template: "Based on %s data: Hot weather - provide shade and water",
			args:     (*adviceInput).dataKind,
		},
	},
}

// GenerateAdvice evaluates the rule table for userType without a target day.
func GenerateAdvice(normals ClimateNormals, predictions []PredictionRecord, seasonal map[Season]SeasonalSummary, userType UserType) AdviceSet {
	return GenerateAdviceForDay(normals, predictions, seasonal, nil, userType)
}

// GenerateAdviceForDay evaluates the rule table for userType. It performs no
// I/O and is deterministic. An unknown userType yields empty advice; a nil day
// yields no specific day advice.
func GenerateAdviceForDay(normals ClimateNormals, predictions []PredictionRecord, seasonal map[Season]SeasonalSummary, day *DayWeather, userType UserType) AdviceSet {
	advice := AdviceSet{Immediate: []string{}, Seasonal: []string{}, SpecificDay: []string{}}

	rules, ok := adviceRules[userType]
	if !ok {
		return advice
	}

	in := &adviceInput{
		normals:  normals,
		seasonal: seasonal,
		week:     summarizeOutlook(predictions),
		day:      day,
	}

	for _, r := range rules {
		if r.category == immediateAdvice && in.week.days == 0 {
			continue
		}
		if r.category == specificDayAdvice && in.day == nil {
			continue
		}
		if !r.when(in) {
			continue
		}
		msg := r.template
		if r.args != nil {
			msg = fmt.Sprintf(r.template, r.args(in)...)
		}
		switch r.category {
		case immediateAdvice:
			advice.Immediate = append(advice.Immediate, msg)
		case seasonalAdvice:
			advice.Seasonal = append(advice.Seasonal, msg)
		case specificDayAdvice:
			advice.SpecificDay = append(advice.SpecificDay, msg)
		}
	}
	return advice
}

func summarizeOutlook(predictions []PredictionRecord) outlook {
	if len(predictions) > OutlookDays {
		predictions = predictions[:OutlookDays]
	}
	o := outlook{days: len(predictions)}
	if o.days == 0 {
		return o
	}

	o.maxTemp, o.minTemp = math.Inf(-1), math.Inf(1)
	var sumTemp float64
	for _, p := range predictions {
		sumTemp += p.Temperature
		o.totalRain += p.Precipitation
		o.maxTemp = math.Max(o.maxTemp, p.Temperature)
		o.minTemp = math.Min(o.minTemp, p.Temperature)
		if w, ok := p.WindSpeed.Get(); ok {
			o.maxWind = math.Max(o.maxWind, w)
		}
		// A day at exactly the threshold is neither rainy nor dry.
		switch {
		case p.Precipitation > WetDayThreshold:
			o.rainyDays++
		case p.Precipitation < WetDayThreshold:
			o.dryDays++
		}
		if p.Temperature >= 15 && p.Temperature <= 30 {
			o.comfortableDays++
		}
	}
	o.avgTemp = sumTemp / float64(o.days)
	return o
}

func avgAbove(limit float64) func(SeasonalSummary) bool {
	return func(s SeasonalSummary) bool { return s.AvgTemperature > limit }
}

// seasonsWhere returns matching seasons in calendar order.
func seasonsWhere(seasonal map[Season]SeasonalSummary, pred func(SeasonalSummary) bool) []Season {
	var out []Season
	for _, s := range Seasons {
		if sum, ok := seasonal[s]; ok && pred(sum) {
			out = append(out, s)
		}
	}
	return out
}

func frostSeasons(seasonal map[Season]SeasonalSummary) []Season {
	return seasonsWhere(seasonal, func(s SeasonalSummary) bool { return s.MinTemperature < 0 })
}

// wettestSeason picks the season with the largest total precipitation; ties
// go to the earlier season. Seasons without rain never qualify.
func wettestSeason(seasonal map[Season]SeasonalSummary) (Season, bool) {
	var (
		best  Season
		found bool
	)
	for _, s := range Seasons {
		sum, ok := seasonal[s]
		if !ok || sum.TotalPrecipitation <= 0 {
			continue
		}
		if !found || sum.TotalPrecipitation > seasonal[best].TotalPrecipitation {
			best, found = s, true
		}
	}
	return best, found
}

// bestEventSeason picks the comfortable season (15-30°C average) with the
// lowest share of rainy days.
func bestEventSeason(seasonal map[Season]SeasonalSummary) (Season, bool) {
	var (
		best     Season
		bestRate float64
		found    bool
	)
	for _, s := range Seasons {
		sum, ok := seasonal[s]
		if !ok || sum.RecordCount == 0 || sum.AvgTemperature < 15 || sum.AvgTemperature > 30 {
			continue
		}
		rate := float64(sum.DaysWithRain) / float64(sum.RecordCount)
		if !found || rate < bestRate {
			best, bestRate, found = s, rate, true
		}
	}
	return best, found
}

func joinSeasons(seasons []Season) string {
	names := make([]string, len(seasons))
	for i, s := range seasons {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
