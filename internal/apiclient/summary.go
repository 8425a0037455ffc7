package apiclient

import (
	"sort"
	"strings"

	"github.com/i474232898/weather-favorites/internal/weather"
)

// Summary condenses an hourly forecast.
type Summary struct {
	Hours       int            `json:"hours"`
	AvgTempC    *float64       `json:"avgTempC"`
	AvgHumidity *int           `json:"avgHumidity"`
	MaxUV       *float64       `json:"maxUv"`
	Conditions  map[string]int `json:"conditions"`
}

// Summarize averages temperature (to 0.1) and humidity (to a whole percent) over the
// hours that report them, takes the maximum UV and counts lower-cased conditions.
func Summarize(hourly []weather.HourlyEntry) Summary {
	s := Summary{Hours: len(hourly), Conditions: map[string]int{}}

	var tempSum float64
	var tempN, humSum, humN int
	for _, h := range hourly {
		if h.TempC != nil {
			tempSum += *h.TempC
			tempN++
		}
		if h.Humidity != nil {
			humSum += *h.Humidity
			humN++
		}
		if h.UV != nil && (s.MaxUV == nil || *h.UV > *s.MaxUV) {
			uv := *h.UV
			s.MaxUV = &uv
		}
		cond := strings.ToLower(strings.TrimSpace(h.Condition))
		if cond == "" {
			cond = "unknown"
		}
		s.Conditions[cond]++
	}

	if tempN > 0 {
		avg := weather.RoundTo(tempSum/float64(tempN), 1)
		s.AvgTempC = &avg
	}
	if humN > 0 {
		avg := int(weather.RoundTo(float64(humSum)/float64(humN), 0))
		s.AvgHumidity = &avg
	}
	return s
}

// ConditionNames returns the condition labels, most frequent first.
func (s Summary) ConditionNames() []string {
	names := make([]string, 0, len(s.Conditions))
	for name := range s.Conditions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := s.Conditions[names[i]], s.Conditions[names[j]]
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	return names
}
