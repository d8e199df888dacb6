package nasapower

import (
	"context"
	"fmt"
)

// availabilityProbeParams is the minimal parameter pair used to test
// provider coverage for a location without committing to a full request.
var availabilityProbeParams = []string{"T2M", "ALLSKY_SFC_SW_DWN"}

// AvailabilityReport describes GEOS-IT coverage for a location.
type AvailabilityReport struct {
	Available   bool   `json:"available"`
	RecordCount int    `json:"test_records"`
	LatestDate  string `json:"latest_date,omitempty"`
	Quality     string `json:"data_quality"`
	Message     string `json:"message"`
}

// CheckAvailability probes a short recent window, offset back past the
// GEOS-IT reporting delay, to confirm the provider is reachable and covers
// the location. It never returns an error; every failure becomes an
// unavailable report with a message.
func (c *Client) CheckAvailability(ctx context.Context, lat, lon float64) AvailabilityReport {
	start := c.now().AddDate(0, 0, -10).Format(dateLayout)
	end := c.now().AddDate(0, 0, -5).Format(dateLayout)

	resp, err := c.Fetch(ctx, lat, lon, start, end, availabilityProbeParams)
	if err != nil {
		return AvailabilityReport{
			Available: false,
			Quality:   "N/A",
			Message:   fmt.Sprintf("GEOS-IT data not available: %v", err),
		}
	}

	table, err := ParseResponse(resp)
	if err != nil {
		return AvailabilityReport{
			Available: false,
			Quality:   "N/A",
			Message:   fmt.Sprintf("GEOS-IT data not available: %v", err),
		}
	}

	quality := "Good"
	if table.Completeness().MissingRecords > 0 {
		quality = "Some missing values"
	}

	latest := table.Dates()[table.NumRows()-1]

	return AvailabilityReport{
		Available:   true,
		RecordCount: table.NumRows(),
		LatestDate:  latest.Format("2006-01-02"),
		Quality:     quality,
		Message:     fmt.Sprintf("GEOS-IT data available with %d records", table.NumRows()),
	}
}
