package model

import (
	"fmt"
)

// Column is one fixed column of a tab. Header is the name written to the sheet, Aliases are the
// alternative spellings accepted when reading.
type Column struct {
	Header  string
	Aliases []string
}

// Layout is the fixed column order of a tab. Key is the index of the identifier column. Generated
// is set for tabs whose identifiers are assigned on insert.
type Layout struct {
	Columns   []Column
	Key       int
	Generated bool
}

// Record is one row as a mapping from column header to cell value. Known columns are keyed by
// their canonical Header, any other columns by their (trimmed) sheet header.
type Record map[string]string

type Table struct {
	Header  []string
	Records []Record
}

func (c Column) matches(header string) bool {
	k := Normalise(header)
	if k == Normalise(c.Header) {
		return true
	}

	for _, alias := range c.Aliases {
		if k == Normalise(alias) {
			return true
		}
	}

	return false
}

// Header returns the canonical header row for a tab.
func (l Layout) Header() []string {
	header := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		header[i] = c.Header
	}

	return header
}

// KeyHeader returns the canonical header of the identifier column.
func (l Layout) KeyHeader() string {
	return l.Columns[l.Key].Header
}

// Check verifies that a sheet header row matches the fixed column order. Extra trailing columns
// are allowed, missing or reordered columns are not.
func (l Layout) Check(header []string) error {
	if len(header) < len(l.Columns) {
		return fmt.Errorf("expected %v columns, got %v", len(l.Columns), len(header))
	}

	for i, c := range l.Columns {
		if !c.matches(header[i]) {
			return fmt.Errorf("column %v: expected '%v', got '%v'", i+1, c.Header, clean(header[i]))
		}
	}

	return nil
}

// Index maps each canonical header to the column it occupies in the sheet header row. Columns
// may be in any order.
func (l Layout) Index(header []string) (map[string]int, error) {
	return l.index(header, true)
}

func (l Layout) index(header []string, keyed bool) (map[string]int, error) {
	index := map[string]int{}
	seen := map[string]bool{}

	for i, v := range header {
		k := Normalise(v)
		if k == "" {
			continue
		}

		if seen[k] {
			return nil, fmt.Errorf("duplicate column name '%s'", clean(v))
		}

		seen[k] = true

		name := clean(v)
		for _, c := range l.Columns {
			if c.matches(v) {
				name = c.Header
				break
			}
		}

		index[name] = i
	}

	if _, ok := index[l.KeyHeader()]; keyed && !ok {
		return nil, fmt.Errorf("missing '%s' column", l.KeyHeader())
	}

	return index, nil
}

// MakeTable converts the rows of a tab (header first) into records. Rows with a blank identifier
// are skipped.
func (l Layout) MakeTable(rows [][]string) (*Table, error) {
	return l.makeTable(rows, false)
}

// ImportTable is MakeTable for rows that are about to be inserted. For layouts with generated
// identifiers the identifier column is optional and rows with a blank identifier are kept, so that
// they can be assigned one. Blank rows are always skipped.
func (l Layout) ImportTable(rows [][]string) (*Table, error) {
	return l.makeTable(rows, l.Generated)
}

func (l Layout) makeTable(rows [][]string, unkeyed bool) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty sheet")
	}

	index, err := l.index(rows[0], !unkeyed)
	if err != nil {
		return nil, err
	}

	header := []string{}
	for _, c := range l.Columns {
		if _, ok := index[c.Header]; ok {
			header = append(header, c.Header)
		}
	}

	for _, v := range rows[0] {
		if k := clean(v); k != "" {
			if _, ok := index[k]; ok && !l.known(k) {
				header = append(header, k)
			}
		}
	}

	key, keyed := index[l.KeyHeader()]
	records := []Record{}
	for _, row := range rows[1:] {
		blank := !keyed || key >= len(row) || clean(row[key]) == ""
		if blank && (!unkeyed || empty(row)) {
			continue
		}

		record := Record{}
		for _, h := range header {
			v := ""
			if ix, ok := index[h]; ok && ix < len(row) {
				v = row[ix]
			}

			record[h] = clean(v)
		}

		records = append(records, record)
	}

	return &Table{
		Header:  header,
		Records: records,
	}, nil
}

// Row lays out a record in the fixed column order.
func (l Layout) Row(record Record) []string {
	row := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		row[i] = record[c.Header]
	}

	return row
}

func (l Layout) known(header string) bool {
	for _, c := range l.Columns {
		if c.Header == header {
			return true
		}
	}

	return false
}

func empty(row []string) bool {
	for _, v := range row {
		if clean(v) != "" {
			return false
		}
	}

	return true
}
