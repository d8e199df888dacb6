package nasapower

import (
	"log"
	"sort"
	"time"
)

// ParseResponse converts the nested parameter→date→value payload into a
// Table. The -999 fill value becomes the missing marker, dates are sorted
// ascending, and columns follow sorted parameter-name order so the table
// layout is deterministic regardless of JSON map iteration.
func ParseResponse(resp *Response) (*Table, error) {
	if resp == nil || len(resp.Properties.Parameter) == 0 {
		return nil, &ParseError{Message: "response is missing properties.parameter"}
	}

	params := resp.Properties.Parameter

	// Union of date keys across all parameters.
	dateSet := make(map[string]time.Time)
	for _, series := range params {
		for key := range series {
			if _, seen := dateSet[key]; seen {
				continue
			}
			d, err := time.Parse(dateLayout, key)
			if err != nil {
				return nil, &ParseError{Message: "unparseable date key: " + key}
			}
			dateSet[key] = d
		}
	}
	if len(dateSet) == 0 {
		return nil, &ParseError{Message: "response contains no dated values"}
	}

	keys := make([]string, 0, len(dateSet))
	for k := range dateSet {
		keys = append(keys, k)
	}
	sort.Strings(keys) // YYYYMMDD sorts chronologically

	dates := make([]time.Time, len(keys))
	for i, k := range keys {
		dates[i] = dateSet[k]
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	table := NewTable(dates)
	for _, name := range names {
		series := params[name]
		values := make([]float64, len(keys))
		for i, k := range keys {
			v, ok := series[k]
			if !ok || v == fillValue {
				values[i] = Missing()
				continue
			}
			values[i] = v
		}
		if err := table.AddColumn(name, values); err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
	}

	if resp.Header.Source != "" {
		log.Printf("INFO: nasapower: parsed %d days x %d parameters from source %q",
			table.NumRows(), table.NumColumns(), resp.Header.Source)
	}

	return table, nil
}
