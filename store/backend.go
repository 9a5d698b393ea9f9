package store

import (
	"context"
	"errors"
	"time"
)

var ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
var ErrTabNotFound = errors.New("tab not found")
var ErrNotFound = errors.New("no matching row")
var ErrHeaderMismatch = errors.New("tab header does not match the expected columns")
var ErrConflict = errors.New("row changed while it was being updated")
var ErrInvalid = errors.New("invalid record")

// Backend is a spreadsheet-like workbook of named tabs. Rows are addressed by their index in the
// slice returned by Rows, i.e. the header row is row 0.
//
// Implementations resolve tab names tolerantly (see model.Normalise) and return an error wrapping
// ErrTabNotFound if a tab does not exist.
type Backend interface {
	Rows(ctx context.Context, tab string) ([][]string, error)
	Row(ctx context.Context, tab string, row int) ([]string, error)
	Append(ctx context.Context, tab string, values []string) error
	Update(ctx context.Context, tab string, row int, values []string) error
	Delete(ctx context.Context, tab string, row int) error
}

// Versioned is implemented by backends that can report the latest revision of the underlying
// spreadsheet.
type Versioned interface {
	Version(ctx context.Context) (*Version, error)
}

type Version struct {
	Revision string
	Modified time.Time
}
