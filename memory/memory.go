// Package memory implements an in-process workbook backend, used for tests and for running the
// dashboard without a spreadsheet.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/uhppoted/uhppoted-app-tasks/model"
	"github.com/uhppoted/uhppoted-app-tasks/store"
)

type Workbook struct {
	guard sync.RWMutex
	names []string
	tabs  map[string][][]string
}

// NewWorkbook creates a workbook with the given (empty) tabs.
func NewWorkbook(tabs ...string) *Workbook {
	w := Workbook{
		tabs: map[string][][]string{},
	}

	for _, tab := range tabs {
		w.AddTab(tab)
	}

	return &w
}

// AddTab creates a tab, optionally with initial rows. An existing tab is replaced.
func (w *Workbook) AddTab(name string, rows ...[]string) {
	w.guard.Lock()
	defer w.guard.Unlock()

	k := model.Normalise(name)
	if _, ok := w.tabs[k]; !ok {
		w.names = append(w.names, name)
	}

	w.tabs[k] = copyRows(rows)
}

// Tabs returns the tab names in creation order.
func (w *Workbook) Tabs() []string {
	w.guard.RLock()
	defer w.guard.RUnlock()

	return slices.Clone(w.names)
}

func (w *Workbook) Rows(ctx context.Context, tab string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.guard.RLock()
	defer w.guard.RUnlock()

	rows, err := w.get(tab)
	if err != nil {
		return nil, err
	}

	return copyRows(rows), nil
}

func (w *Workbook) Row(ctx context.Context, tab string, row int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.guard.RLock()
	defer w.guard.RUnlock()

	rows, err := w.get(tab)
	if err != nil {
		return nil, err
	}

	if row < 0 || row >= len(rows) {
		return []string{}, nil
	}

	return slices.Clone(rows[row]), nil
}

func (w *Workbook) Append(ctx context.Context, tab string, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.guard.Lock()
	defer w.guard.Unlock()

	rows, err := w.get(tab)
	if err != nil {
		return err
	}

	w.tabs[model.Normalise(tab)] = append(rows, slices.Clone(values))

	return nil
}

func (w *Workbook) Update(ctx context.Context, tab string, row int, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.guard.Lock()
	defer w.guard.Unlock()

	rows, err := w.get(tab)
	if err != nil {
		return err
	}

	if row < 0 || row >= len(rows) {
		return fmt.Errorf("row %v out of range", row+1)
	}

	updated := slices.Clone(rows[row])
	for len(updated) < len(values) {
		updated = append(updated, "")
	}

	copy(updated, values)
	rows[row] = updated

	return nil
}

func (w *Workbook) Delete(ctx context.Context, tab string, row int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.guard.Lock()
	defer w.guard.Unlock()

	rows, err := w.get(tab)
	if err != nil {
		return err
	}

	if row < 0 || row >= len(rows) {
		return fmt.Errorf("row %v out of range", row+1)
	}

	w.tabs[model.Normalise(tab)] = slices.Delete(rows, row, row+1)

	return nil
}

func (w *Workbook) get(tab string) ([][]string, error) {
	if rows, ok := w.tabs[model.Normalise(tab)]; ok {
		return rows, nil
	}

	return nil, fmt.Errorf("%w: '%v'", store.ErrTabNotFound, tab)
}

func copyRows(rows [][]string) [][]string {
	list := make([][]string, 0, len(rows))
	for _, row := range rows {
		list = append(list, slices.Clone(row))
	}

	return list
}
