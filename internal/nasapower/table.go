package nasapower

import (
	"fmt"
	"math"
	"time"
)

// Missing returns the in-process marker for a missing observation.
// NASA POWER responses use -999 as the fill value; the parser converts
// it so downstream code only ever checks IsMissing.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether v is the missing-observation marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Table is a dated table of daily weather observations for one location.
// Dates are unique and sorted ascending; every column has exactly one
// value per date. Tables are built by the parser (or NewTable in tests)
// and treated as read-only afterward, except for AddColumn which the
// feature-enrichment step uses to append derived columns.
type Table struct {
	dates   []time.Time
	columns []string
	cells   map[string][]float64
}

// NewTable creates an empty table over the given dates.
func NewTable(dates []time.Time) *Table {
	ds := make([]time.Time, len(dates))
	copy(ds, dates)
	return &Table{
		dates: ds,
		cells: make(map[string][]float64),
	}
}

// Dates returns the table's dates in ascending order.
func (t *Table) Dates() []time.Time {
	return t.dates
}

// Columns returns column names in their stable table order.
func (t *Table) Columns() []string {
	return t.columns
}

// NumRows returns the number of dates in the table.
func (t *Table) NumRows() int {
	return len(t.dates)
}

// NumColumns returns the number of columns in the table.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cells[name]
	return ok
}

// Column returns the values of the named column, one per date.
func (t *Table) Column(name string) ([]float64, bool) {
	vals, ok := t.cells[name]
	return vals, ok
}

// AddColumn appends a new column. The value count must match the row count
// and the name must not collide with an existing column.
func (t *Table) AddColumn(name string, values []float64) error {
	if len(values) != len(t.dates) {
		return fmt.Errorf("column %s has %d values, table has %d rows", name, len(values), len(t.dates))
	}
	if _, exists := t.cells[name]; exists {
		return fmt.Errorf("column %s already exists", name)
	}
	vals := make([]float64, len(values))
	copy(vals, values)
	t.columns = append(t.columns, name)
	t.cells[name] = vals
	return nil
}

// Row returns one date's values keyed by column name.
func (t *Table) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(t.columns))
	for _, col := range t.columns {
		row[col] = t.cells[col][i]
	}
	return row
}

// Matrix returns the table as a row-major numeric matrix in column order.
func (t *Table) Matrix() [][]float64 {
	m := make([][]float64, len(t.dates))
	for i := range t.dates {
		row := make([]float64, len(t.columns))
		for j, col := range t.columns {
			row[j] = t.cells[col][i]
		}
		m[i] = row
	}
	return m
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := NewTable(t.dates)
	for _, col := range t.columns {
		vals := make([]float64, len(t.cells[col]))
		copy(vals, t.cells[col])
		c.columns = append(c.columns, col)
		c.cells[col] = vals
	}
	return c
}

// Completeness summarizes how many rows carry a full set of observations.
type Completeness struct {
	CompleteRecords int    `json:"complete_records"`
	MissingRecords  int    `json:"missing_records"`
	Completeness    string `json:"data_completeness"`
}

// Completeness computes data-quality counts over the table.
func (t *Table) Completeness() Completeness {
	if len(t.dates) == 0 {
		return Completeness{Completeness: "0.0%"}
	}
	complete := 0
	for i := range t.dates {
		rowComplete := true
		for _, col := range t.columns {
			if IsMissing(t.cells[col][i]) {
				rowComplete = false
				break
			}
		}
		if rowComplete {
			complete++
		}
	}
	pct := float64(complete) / float64(len(t.dates)) * 100
	return Completeness{
		CompleteRecords: complete,
		MissingRecords:  len(t.dates) - complete,
		Completeness:    fmt.Sprintf("%.1f%%", pct),
	}
}
