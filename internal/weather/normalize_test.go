package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEntryFromRecord(t *testing.T) {
	day := time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC)

	e := EntryFromRecord(WeatherRecord{Date: day, Hour: 13})
	require.Equal(t, time.Date(2025, 11, 19, 13, 0, 0, 0, time.UTC), e.Time)
	require.Equal(t, 13, e.Hour)
	require.Equal(t, "unknown", e.Condition)
}

func TestRecordFromEntryUsesUTCDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	e := HourlyEntry{Time: time.Date(2025, 11, 20, 2, 0, 0, 0, ist), Condition: "rain"}

	r := RecordFromEntry(4, e)
	require.Equal(t, uint(4), r.LocationID)
	require.Equal(t, time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC), r.Date)
	require.Equal(t, 20, r.Hour)
	require.Equal(t, "rain", *r.Condition)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-11-19")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2025-11-19T23:30:00-02:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("19/11/2025")
	require.Error(t, err)
}

func TestParseSourceMode(t *testing.T) {
	m, err := ParseSourceMode("external")
	require.NoError(t, err)
	require.Equal(t, SourceExternal, m)

	_, err = ParseSourceMode("")
	require.Error(t, err)
}

func TestRoundTo(t *testing.T) {
	require.Equal(t, 12.6, RoundTo(12.56, 1))
	require.Equal(t, 3.0, RoundTo(2.5, 0))
}
