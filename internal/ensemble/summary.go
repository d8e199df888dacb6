package ensemble

import "math"

// FinancialSavings converts production estimates to currency savings by
// elementwise multiplication with the conversion rate.
func FinancialSavings(predictionsKWh []float64, madPerKWh float64) []float64 {
	out := make([]float64, len(predictionsKWh))
	for i, p := range predictionsKWh {
		out[i] = p * madPerKWh
	}
	return out
}

// Summary aggregates a batch of daily production predictions and their
// financial savings. Values are unrounded; presentation rounding is the
// caller's concern.
type Summary struct {
	TotalDays             int     `json:"total_days"`
	TotalProductionKWh    float64 `json:"total_production_kwh"`
	TotalSavingsMAD       float64 `json:"total_savings_mad"`
	AvgDailyProductionKWh float64 `json:"avg_daily_production_kwh"`
	AvgDailySavingsMAD    float64 `json:"avg_daily_savings_mad"`
	MinDailyProductionKWh float64 `json:"min_daily_production_kwh"`
	MaxDailyProductionKWh float64 `json:"max_daily_production_kwh"`
	StdDailyProductionKWh float64 `json:"std_daily_production_kwh"`
	ConversionRate        float64 `json:"conversion_rate_mad_per_kwh"`
}

// Summarize computes aggregate statistics over a prediction batch. The
// standard deviation is the population standard deviation.
func Summarize(predictionsKWh []float64, madPerKWh float64) Summary {
	s := Summary{
		TotalDays:      len(predictionsKWh),
		ConversionRate: madPerKWh,
	}
	if len(predictionsKWh) == 0 {
		return s
	}

	minV := predictionsKWh[0]
	maxV := predictionsKWh[0]
	var sum float64
	for _, p := range predictionsKWh {
		sum += p
		if p < minV {
			minV = p
		}
		if p > maxV {
			maxV = p
		}
	}
	n := float64(len(predictionsKWh))
	mean := sum / n

	var variance float64
	for _, p := range predictionsKWh {
		d := p - mean
		variance += d * d
	}
	variance /= n

	s.TotalProductionKWh = sum
	s.TotalSavingsMAD = sum * madPerKWh
	s.AvgDailyProductionKWh = mean
	s.AvgDailySavingsMAD = mean * madPerKWh
	s.MinDailyProductionKWh = minV
	s.MaxDailyProductionKWh = maxV
	s.StdDailyProductionKWh = math.Sqrt(variance)
	return s
}
