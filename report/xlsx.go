package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of an exported workbook.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string

	// Fills maps a column header to a function returning the background colour for a cell value,
	// or "" for no fill.
	Fills map[string]func(string) string
}

const SummarySheet = "Resumen"

// WriteXLSX writes the sheets plus a summary sheet as an XLSX workbook.
func WriteXLSX(w io.Writer, sheets []Sheet, summary Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return err
	}

	fills := map[string]int{}
	fill := func(colour string) (int, error) {
		if id, ok := fills[colour]; ok {
			return id, nil
		}

		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colour}},
		})
		if err != nil {
			return 0, err
		}

		fills[colour] = id

		return id, nil
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return err
		}

		if err := table(f, sheet.Name, sheet.Header, sheet.Rows, bold); err != nil {
			return err
		}

		for col, h := range sheet.Header {
			colour, ok := sheet.Fills[h]
			if !ok {
				continue
			}

			for row, values := range sheet.Rows {
				if col >= len(values) {
					continue
				}

				if c := colour(values[col]); c != "" {
					style, err := fill(c)
					if err != nil {
						return err
					}

					cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
					if err := f.SetCellStyle(sheet.Name, cell, cell, style); err != nil {
						return err
					}
				}
			}
		}
	}

	if len(sheets) == 0 {
		if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
			return err
		}
	} else if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}

	if err := summarySheet(f, summary, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	return f.Write(w)
}

func table(f *excelize.File, sheet string, header []string, rows [][]string, style int) error {
	if len(header) == 0 {
		return nil
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	last, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(sheet, "A1", fmt.Sprintf("%v1", last), style); err != nil {
		return err
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
		return err
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func summarySheet(f *excelize.File, summary Summary, style int) error {
	rows := [][]any{
		{"Tareas", summary.Total},
		{"Activas", summary.Active},
		{"Terminadas", summary.Done},
		{"Vencidas", summary.Overdue},
		{"Avance promedio (%)", summary.Progress},
	}

	section := func(title string, counts []Count) {
		rows = append(rows, []any{}, []any{title, "Tareas"})
		for _, c := range counts {
			rows = append(rows, []any{c.Name, c.Count})
		}
	}

	section("Estado", summary.ByStatus)
	section("Categoría", summary.ByCategory)
	section("Usuario Asignado", summary.ByAssignee)

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		values := row
		if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
			return err
		}

		if len(row) == 2 && row[1] == "Tareas" {
			if err := f.SetCellStyle(SummarySheet, cell, fmt.Sprintf("B%v", i+1), style); err != nil {
				return err
			}
		}
	}

	return f.SetColWidth(SummarySheet, "A", "A", 24)
}
