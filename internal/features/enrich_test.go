package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarcast/solarcast/internal/nasapower"
)

func dateRange(start time.Time, days int) []time.Time {
	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestEnrichTemperatureFeatures(t *testing.T) {
	dates := dateRange(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 2)
	table := nasapower.NewTable(dates)
	require.NoError(t, table.AddColumn("T2M", []float64{25.0, 35.0}))
	require.NoError(t, table.AddColumn("T2M_MAX", []float64{30.0, 40.0}))
	require.NoError(t, table.AddColumn("T2M_MIN", []float64{20.0, 24.0}))

	out := Enrich(table)

	coeff, ok := out.Column("temp_coeff_effect")
	require.True(t, ok)
	assert.InDelta(t, 1.0, coeff[0], 1e-12, "25C is the reference temperature")
	assert.InDelta(t, 0.96, coeff[1], 1e-12)

	rng, ok := out.Column("temp_range")
	require.True(t, ok)
	assert.InDelta(t, 10.0, rng[0], 1e-12)
	assert.InDelta(t, 16.0, rng[1], 1e-12)

	avg, ok := out.Column("temp_avg")
	require.True(t, ok)
	assert.InDelta(t, 25.0, avg[0], 1e-12)
	assert.InDelta(t, 32.0, avg[1], 1e-12)
}

func TestEnrichRatiosAreClamped(t *testing.T) {
	dates := dateRange(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 3)
	table := nasapower.NewTable(dates)
	require.NoError(t, table.AddColumn("ALLSKY_SFC_SW_DWN", []float64{5.0, 5.0, 5.0}))
	require.NoError(t, table.AddColumn("CLRSKY_SFC_SW_DWN", []float64{10.0, 4.0, 5.0}))
	require.NoError(t, table.AddColumn("ALLSKY_SFC_SW_DIFF", []float64{2.5, 10.0, nasapower.Missing()}))
	require.NoError(t, table.AddColumn("ALLSKY_SFC_SW_DNI", []float64{12.0, 2.0, 5.0}))

	out := Enrich(table)

	clearness, ok := out.Column("clearness_index")
	require.True(t, ok)
	assert.InDelta(t, 0.5, clearness[0], 1e-12)
	assert.InDelta(t, 1.0, clearness[1], 1e-12, "ratio above 1 clamps to 1")

	diffuse, ok := out.Column("diffuse_fraction")
	require.True(t, ok)
	assert.InDelta(t, 0.5, diffuse[0], 1e-12)
	assert.InDelta(t, 1.0, diffuse[1], 1e-12)
	assert.True(t, nasapower.IsMissing(diffuse[2]), "missing input stays missing")

	dni, ok := out.Column("dni_ghi_ratio")
	require.True(t, ok)
	assert.InDelta(t, 2.0, dni[0], 1e-12, "dni/ghi clamps to 2")
	assert.InDelta(t, 0.4, dni[1], 1e-12)
}

func TestEnrichSeasonalEncodings(t *testing.T) {
	// June 1st of a non-leap year is day 152.
	dates := dateRange(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 1)
	out := Enrich(nasapower.NewTable(dates))

	doy, _ := out.Column("day_of_year")
	assert.Equal(t, 152.0, doy[0])

	month, _ := out.Column("month")
	assert.Equal(t, 6.0, month[0])

	season, _ := out.Column("season")
	assert.Equal(t, 2.0, season[0])

	summer, _ := out.Column("is_summer")
	assert.Equal(t, 1.0, summer[0])

	daySin, _ := out.Column("day_sin")
	dayCos, _ := out.Column("day_cos")
	assert.InDelta(t, math.Sin(2*math.Pi*152/365.25), daySin[0], 1e-12)
	assert.InDelta(t, math.Cos(2*math.Pi*152/365.25), dayCos[0], 1e-12)

	monthSin, _ := out.Column("month_sin")
	assert.InDelta(t, math.Sin(2*math.Pi*6/12), monthSin[0], 1e-12)

	decl, _ := out.Column("solar_declination")
	assert.InDelta(t, 23.45*math.Sin(math.Pi/180*360*(284+152)/365), decl[0], 1e-12)
}

func TestEnrichSkipsFeaturesWithAbsentInputs(t *testing.T) {
	dates := dateRange(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 2)
	table := nasapower.NewTable(dates)
	require.NoError(t, table.AddColumn("WS2M", []float64{3.0, 4.0}))

	out := Enrich(table)

	assert.False(t, out.HasColumn("temp_coeff_effect"))
	assert.False(t, out.HasColumn("diffuse_fraction"))
	assert.True(t, out.HasColumn("wind_cooling_factor"))

	// 1 input + wind_cooling_factor + 9 date-derived columns.
	assert.Equal(t, 11, out.NumColumns())
}

func TestEnrichRollingAveragesNeedSevenRows(t *testing.T) {
	short := nasapower.NewTable(dateRange(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 6))
	require.NoError(t, short.AddColumn("T2M", constant(20, 6)))
	assert.False(t, Enrich(short).HasColumn("T2M_7day_avg"))

	long := nasapower.NewTable(dateRange(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 10))
	require.NoError(t, long.AddColumn("T2M", []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}))
	out := Enrich(long)

	avg, ok := out.Column("T2M_7day_avg")
	require.True(t, ok)

	// Centered window at index 0 covers rows 0-3: mean(10,20,30,40) = 25.
	assert.InDelta(t, 25.0, avg[0], 1e-12)
	// Full window at index 4 covers rows 1-7: mean(20..80) = 50.
	assert.InDelta(t, 50.0, avg[4], 1e-12)
}

func TestEnrichRollingAverageMinPoints(t *testing.T) {
	table := nasapower.NewTable(dateRange(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 8))
	vals := []float64{
		nasapower.Missing(), nasapower.Missing(), 30, nasapower.Missing(),
		nasapower.Missing(), nasapower.Missing(), nasapower.Missing(), 80,
	}
	require.NoError(t, table.AddColumn("ALLSKY_KT", vals))

	out := Enrich(table)
	avg, ok := out.Column("ALLSKY_KT_7day_avg")
	require.True(t, ok)

	// Window around index 0 has a single valid point; below min_periods.
	assert.True(t, nasapower.IsMissing(avg[0]))
}

func TestEnrichIsPure(t *testing.T) {
	dates := dateRange(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 2)
	table := nasapower.NewTable(dates)
	require.NoError(t, table.AddColumn("T2M", []float64{25.0, 26.0}))

	before := table.NumColumns()
	_ = Enrich(table)
	assert.Equal(t, before, table.NumColumns(), "input table must not be mutated")
}
