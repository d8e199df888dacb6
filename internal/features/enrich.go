// Package features derives secondary PV-modeling columns from a raw
// weather table: temperature effects, irradiance ratios, seasonal
// encodings, and rolling averages. Every transformation is pure and each
// derived column is computed only when its inputs are present.
package features

import (
	"math"

	"github.com/solarcast/solarcast/internal/nasapower"
)

// rollingColumns get a centered 7-day rolling mean when enough rows exist.
var rollingColumns = []string{"ALLSKY_SFC_SW_DWN", "T2M", "ALLSKY_KT"}

const (
	rollingWindow    = 7
	rollingMinPoints = 3
)

// Enrich returns a copy of the table with derived feature columns appended.
// A missing input column silently skips its derived features; output column
// count = input count + number of successfully derived features.
func Enrich(t *nasapower.Table) *nasapower.Table {
	out := t.Clone()
	n := out.NumRows()

	t2m, hasT2M := out.Column("T2M")
	t2mMax, hasT2MMax := out.Column("T2M_MAX")
	t2mMin, hasT2MMin := out.Column("T2M_MIN")
	ghi, hasGHI := out.Column("ALLSKY_SFC_SW_DWN")
	clearGHI, hasClearGHI := out.Column("CLRSKY_SFC_SW_DWN")
	diff, hasDiff := out.Column("ALLSKY_SFC_SW_DIFF")
	dni, hasDNI := out.Column("ALLSKY_SFC_SW_DNI")
	rh, hasRH := out.Column("RH2M")
	ws, hasWS := out.Column("WS2M")

	// Temperature coefficient effect, assuming -0.4%/degC for silicon.
	if hasT2M {
		addDerived(out, "temp_coeff_effect", n, func(i int) float64 {
			return 1 - 0.004*(t2m[i]-25)
		})
	}

	if hasT2MMax && hasT2MMin {
		addDerived(out, "temp_range", n, func(i int) float64 {
			return t2mMax[i] - t2mMin[i]
		})
		addDerived(out, "temp_avg", n, func(i int) float64 {
			return (t2mMax[i] + t2mMin[i]) / 2
		})
	}

	if hasDiff && hasGHI {
		addDerived(out, "diffuse_fraction", n, func(i int) float64 {
			return clamp(diff[i]/ghi[i], 0, 1)
		})
	}

	if hasClearGHI && hasGHI {
		addDerived(out, "clearness_index", n, func(i int) float64 {
			return clamp(ghi[i]/clearGHI[i], 0, 1)
		})
	}

	if hasDNI && hasGHI {
		addDerived(out, "dni_ghi_ratio", n, func(i int) float64 {
			return clamp(dni[i]/ghi[i], 0, 2)
		})
	}

	// Approximate heat index effect; hot humid days derate output.
	if hasRH && hasT2M {
		addDerived(out, "heat_index_factor", n, func(i int) float64 {
			if t2m[i] > 26 && rh[i] > 40 {
				return 1 - 0.01*(rh[i]-40)*(t2m[i]-26)/100
			}
			return 1.0
		})
	}

	// Higher wind speeds help cool panels.
	if hasWS {
		addDerived(out, "wind_cooling_factor", n, func(i int) float64 {
			return 1 + 0.01*math.Log1p(ws[i])
		})
	}

	// Seasonal encodings from the date index.
	dates := out.Dates()
	addDerived(out, "day_of_year", n, func(i int) float64 {
		return float64(dates[i].YearDay())
	})
	addDerived(out, "month", n, func(i int) float64 {
		return float64(dates[i].Month())
	})
	addDerived(out, "season", n, func(i int) float64 {
		return float64((int(dates[i].Month())-1)/3 + 1)
	})
	addDerived(out, "is_summer", n, func(i int) float64 {
		season := (int(dates[i].Month())-1)/3 + 1
		if season == 2 || season == 3 {
			return 1
		}
		return 0
	})
	addDerived(out, "solar_declination", n, func(i int) float64 {
		doy := float64(dates[i].YearDay())
		return 23.45 * math.Sin(deg2rad(360*(284+doy)/365))
	})
	addDerived(out, "day_sin", n, func(i int) float64 {
		return math.Sin(2 * math.Pi * float64(dates[i].YearDay()) / 365.25)
	})
	addDerived(out, "day_cos", n, func(i int) float64 {
		return math.Cos(2 * math.Pi * float64(dates[i].YearDay()) / 365.25)
	})
	addDerived(out, "month_sin", n, func(i int) float64 {
		return math.Sin(2 * math.Pi * float64(dates[i].Month()) / 12)
	})
	addDerived(out, "month_cos", n, func(i int) float64 {
		return math.Cos(2 * math.Pi * float64(dates[i].Month()) / 12)
	})

	// Rolling averages for trend analysis.
	if n >= rollingWindow {
		for _, col := range rollingColumns {
			vals, ok := out.Column(col)
			if !ok {
				continue
			}
			out.AddColumn(col+"_7day_avg", rollingMean(vals, rollingWindow, rollingMinPoints))
		}
	}

	return out
}

func addDerived(t *nasapower.Table, name string, n int, f func(i int) float64) {
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = f(i)
	}
	t.AddColumn(name, values)
}

// clamp bounds v into [lo, hi]; missing values stay missing.
func clamp(v, lo, hi float64) float64 {
	if nasapower.IsMissing(v) {
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func deg2rad(d float64) float64 {
	return d * math.Pi / 180
}

// rollingMean computes a centered rolling mean with the given window size,
// requiring at least minPoints valid values; positions without enough valid
// neighbors become missing.
func rollingMean(values []float64, window, minPoints int) []float64 {
	half := window / 2
	out := make([]float64, len(values))
	for i := range values {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(values)-1 {
			hi = len(values) - 1
		}
		var sum float64
		var count int
		for j := lo; j <= hi; j++ {
			if nasapower.IsMissing(values[j]) {
				continue
			}
			sum += values[j]
			count++
		}
		if count < minPoints {
			out[i] = nasapower.Missing()
			continue
		}
		out[i] = sum / float64(count)
	}
	return out
}
