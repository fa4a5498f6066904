// Package csvtable reads comma-separated tables whose first row is a header
// and exposes typed columns addressed by header name.
package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a required header name is absent.
var ErrMissingColumn = errors.New("missing column")

// Table is a parsed CSV table. Rows exclude the header.
type Table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// Read parses a CSV table from r. The first record is the header.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV: no header row")
	}

	t := &Table{
		header: records[0],
		index:  make(map[string]int, len(records[0])),
		rows:   records[1:],
	}
	for i, name := range t.header {
		t.index[strings.TrimSpace(name)] = i
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Header returns the column names in file order.
func (t *Table) Header() []string {
	return append([]string(nil), t.header...)
}

// Has reports whether the table has the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Require returns an error naming every absent column.
func (t *Table) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

func (t *Table) column(name string) (int, error) {
	col, ok := t.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return col, nil
}

// Floats parses the named column as float64 values.
func (t *Table) Floats(name string) ([]float64, error) {
	col, err := t.column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(t.rows))
	for i, row := range t.rows {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			// +2: one for the header, one for 1-based line numbers
			return nil, fmt.Errorf("line %d column %s: %w", i+2, name, err)
		}
		out[i] = v
	}
	return out, nil
}

// Ints parses the named column as int values.
func (t *Table) Ints(name string) ([]int, error) {
	col, err := t.column(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(t.rows))
	for i, row := range t.rows {
		v, err := strconv.Atoi(strings.TrimSpace(row[col]))
		if err != nil {
			return nil, fmt.Errorf("line %d column %s: %w", i+2, name, err)
		}
		out[i] = v
	}
	return out, nil
}

// Uints parses the named column as uint64 values. TrackML particle ids
// exceed the int64 range.
func (t *Table) Uints(name string) ([]uint64, error) {
	col, err := t.column(name)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(t.rows))
	for i, row := range t.rows {
		v, err := strconv.ParseUint(strings.TrimSpace(row[col]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d column %s: %w", i+2, name, err)
		}
		out[i] = v
	}
	return out, nil
}
