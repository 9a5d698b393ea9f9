package report

import (
	"context"
	"io"
	"time"

	"github.com/uhppoted/uhppoted-app-tasks/model"
	"github.com/uhppoted/uhppoted-app-tasks/store"
)

// TSV writes the live contents of an entity tab as a TSV file.
func TSV(ctx context.Context, s *store.Store, entity store.Entity, w io.Writer) error {
	layout, err := s.Layout(entity)
	if err != nil {
		return err
	}

	rows, err := s.Rows(ctx, entity)
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		rows = [][]string{layout.Header()}
	}

	return WriteTSV(w, layout, rows)
}

// Export writes every entity tab plus the task summary as an XLSX workbook. Task categories are
// filled with their category colour.
func Export(ctx context.Context, s *store.Store, w io.Writer, today time.Time) error {
	sheets := []Sheet{}

	for _, entity := range store.Entities {
		tab, err := s.Tab(entity)
		if err != nil {
			return err
		}

		layout, err := s.Layout(entity)
		if err != nil {
			return err
		}

		records, err := s.Records(ctx, entity)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, layout.Row(r))
		}

		sheets = append(sheets, Sheet{
			Name:   tab,
			Header: layout.Header(),
			Rows:   rows,
		})
	}

	categories, err := s.LoadCategories(ctx)
	if err != nil {
		return err
	}

	colours := model.CategoryColours(categories)
	sheets[0].Fills = map[string]func(string) string{
		"Categoría": func(v string) string {
			if c, ok := colours[v]; ok {
				return c
			}

			return ""
		},
	}

	tasks, err := s.LoadTasks(ctx)
	if err != nil {
		return err
	}

	return WriteXLSX(w, sheets, Summarise(tasks, today))
}
