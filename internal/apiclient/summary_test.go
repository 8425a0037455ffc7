package apiclient

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-favorites/internal/weather"
)

func f(v float64) *float64 { return &v }
func n(v int) *int         { return &v }

func TestSummarize(t *testing.T) {
	s := Summarize([]weather.HourlyEntry{
		{Hour: 0, TempC: f(20), Humidity: n(60), UV: f(0), Condition: "Clear"},
		{Hour: 1, TempC: f(21), Humidity: n(61), UV: f(3.5), Condition: "clear"},
		{Hour: 2, TempC: f(22.2), UV: f(2), Condition: "Rain"},
		{Hour: 3, Condition: ""},
	})

	require.Equal(t, 4, s.Hours)
	require.Equal(t, 21.1, *s.AvgTempC)
	require.Equal(t, 61, *s.AvgHumidity) // 60.5 rounds up
	require.Equal(t, 3.5, *s.MaxUV)
	require.Equal(t, map[string]int{"clear": 2, "rain": 1, "unknown": 1}, s.Conditions)
	require.Equal(t, []string{"clear", "rain", "unknown"}, s.ConditionNames())
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	require.Zero(t, s.Hours)
	require.Nil(t, s.AvgTempC)
	require.Nil(t, s.AvgHumidity)
	require.Nil(t, s.MaxUV)
	require.Empty(t, s.Conditions)
}
