// Package sqlite implements a local workbook backend on an SQLite database file. Each tab is a
// list of JSON encoded rows, so the dashboard can run offline against a copy of the spreadsheet.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/uhppoted/uhppoted-app-tasks/log"
	"github.com/uhppoted/uhppoted-app-tasks/model"
	"github.com/uhppoted/uhppoted-app-tasks/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS tabs (
    folded TEXT PRIMARY KEY,
    name   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cells (
    tab      TEXT    NOT NULL,
    position INTEGER NOT NULL,
    cells    TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS cells_tab_row ON cells(tab, position);
`

type Workbook struct {
	db *sql.DB
}

// Open opens (or creates) the database at 'path'. Tabs listed in 'tabs' that do not exist are
// created with the given header row.
func Open(ctx context.Context, path string, tabs map[string][]string) (*Workbook, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening %v (%w)", path, err)
	}

	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error opening %v (%w)", path, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating schema in %v (%w)", path, err)
	}

	w := Workbook{
		db: db,
	}

	for name, header := range tabs {
		if err := w.AddTab(ctx, name, header); err != nil {
			db.Close()
			return nil, err
		}
	}

	log.Debugf("sqlite", "opened %v", path)

	return &w, nil
}

func (w *Workbook) Close() error {
	return w.db.Close()
}

// AddTab creates a tab with an optional header row. An existing tab is left unchanged.
func (w *Workbook) AddTab(ctx context.Context, name string, header []string) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tabs (folded, name) VALUES (?, ?)`, model.Normalise(name), name)
	if err != nil {
		return fmt.Errorf("error creating tab '%v' (%w)", name, err)
	}

	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n > 0 && len(header) > 0 {
		if err := insert(ctx, tx, model.Normalise(name), 0, header); err != nil {
			return fmt.Errorf("error writing header to '%v' (%w)", name, err)
		}

		log.Infof("sqlite", "created tab '%v'", name)
	}

	return tx.Commit()
}

// Tabs returns the tab names in alphabetical order.
func (w *Workbook) Tabs(ctx context.Context) ([]string, error) {
	rs, err := w.db.QueryContext(ctx, `SELECT name FROM tabs ORDER BY name`)
	if err != nil {
		return nil, err
	}

	defer rs.Close()

	tabs := []string{}
	for rs.Next() {
		var name string
		if err := rs.Scan(&name); err != nil {
			return nil, err
		}

		tabs = append(tabs, name)
	}

	return tabs, rs.Err()
}

func (w *Workbook) Rows(ctx context.Context, tab string) ([][]string, error) {
	key, err := w.lookup(ctx, w.db, tab)
	if err != nil {
		return nil, err
	}

	rs, err := w.db.QueryContext(ctx, `SELECT cells FROM cells WHERE tab = ? ORDER BY position`, key)
	if err != nil {
		return nil, err
	}

	defer rs.Close()

	rows := [][]string{}
	for rs.Next() {
		var cells string
		if err := rs.Scan(&cells); err != nil {
			return nil, err
		}

		row, err := decode(cells)
		if err != nil {
			return nil, fmt.Errorf("invalid row %v in '%v' (%w)", len(rows)+1, tab, err)
		}

		rows = append(rows, row)
	}

	return rows, rs.Err()
}

func (w *Workbook) Row(ctx context.Context, tab string, row int) ([]string, error) {
	key, err := w.lookup(ctx, w.db, tab)
	if err != nil {
		return nil, err
	}

	var cells string
	if err := w.db.QueryRowContext(ctx, `SELECT cells FROM cells WHERE tab = ? AND position = ?`, key, row).Scan(&cells); errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	} else if err != nil {
		return nil, err
	}

	return decode(cells)
}

func (w *Workbook) Append(ctx context.Context, tab string, values []string) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	key, err := w.lookup(ctx, tx, tab)
	if err != nil {
		return err
	}

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position)+1, 0) FROM cells WHERE tab = ?`, key).Scan(&next); err != nil {
		return err
	}

	if err := insert(ctx, tx, key, next, values); err != nil {
		return err
	}

	return tx.Commit()
}

func (w *Workbook) Update(ctx context.Context, tab string, row int, values []string) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	key, err := w.lookup(ctx, tx, tab)
	if err != nil {
		return err
	}

	var cells string
	if err := tx.QueryRowContext(ctx, `SELECT cells FROM cells WHERE tab = ? AND position = ?`, key, row).Scan(&cells); errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("row %v out of range", row+1)
	} else if err != nil {
		return err
	}

	current, err := decode(cells)
	if err != nil {
		return err
	}

	for len(current) < len(values) {
		current = append(current, "")
	}

	copy(current, values)

	encoded, err := json.Marshal(current)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE cells SET cells = ? WHERE tab = ? AND position = ?`, string(encoded), key, row); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a row and shifts the rows below it up by one, the way deleting a spreadsheet row
// does.
func (w *Workbook) Delete(ctx context.Context, tab string, row int) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	key, err := w.lookup(ctx, tx, tab)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM cells WHERE tab = ? AND position = ?`, key, row)
	if err != nil {
		return err
	}

	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("row %v out of range", row+1)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE cells SET position = position - 1 WHERE tab = ? AND position > ?`, key, row); err != nil {
		return err
	}

	return tx.Commit()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (w *Workbook) lookup(ctx context.Context, q querier, tab string) (string, error) {
	key := model.Normalise(tab)

	var name string
	if err := q.QueryRowContext(ctx, `SELECT name FROM tabs WHERE folded = ?`, key).Scan(&name); errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: '%v'", store.ErrTabNotFound, tab)
	} else if err != nil {
		return "", err
	}

	return key, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, e execer, key string, row int, values []string) error {
	if values == nil {
		values = []string{}
	}

	encoded, err := json.Marshal(values)
	if err != nil {
		return err
	}

	_, err = e.ExecContext(ctx, `INSERT INTO cells (tab, position, cells) VALUES (?, ?, ?)`, key, row, string(encoded))

	return err
}

func decode(cells string) ([]string, error) {
	row := []string{}
	if err := json.Unmarshal([]byte(cells), &row); err != nil {
		return nil, err
	}

	return row, nil
}
