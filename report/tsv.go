package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/uhppoted/uhppoted-app-tasks/model"
)

// WriteTSV writes the rows of a tab (header first) as a TSV file. Known columns are written first
// in the fixed column order, followed by any extra columns in the order they appear in the sheet.
// Rows with a blank identifier are skipped.
func WriteTSV(f io.Writer, layout model.Layout, rows [][]string) error {
	table, err := layout.MakeTable(rows)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(table.Header); err != nil {
		return err
	}

	for _, r := range table.Records {
		record := make([]string, 0, len(table.Header))
		for _, h := range table.Header {
			record = append(record, r[h])
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// ReadTSV reads the records of a TSV file. The header row may have the columns in any order. It
// must include the identifier column unless the layout generates identifiers, in which case rows
// without one are kept.
func ReadTSV(f io.Reader, layout model.Layout) ([]model.Record, error) {
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("TSV file is empty")
	}

	table, err := layout.ImportTable(rows)
	if err != nil {
		return nil, fmt.Errorf("invalid TSV file (%w)", err)
	}

	return table.Records, nil
}
