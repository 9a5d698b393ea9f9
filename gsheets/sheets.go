// Package gsheets implements the workbook backend on a Google Sheets spreadsheet.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/uhppoted-app-tasks/log"
	"github.com/uhppoted/uhppoted-app-tasks/model"
	"github.com/uhppoted/uhppoted-app-tasks/store"
)

// Resource is a lazily connected spreadsheet. The first successful connection is kept for the
// lifetime of the process, a failed connection is retried on the next call.
type Resource struct {
	key     string
	options func(ctx context.Context) ([]option.ClientOption, error)

	guard       sync.Mutex
	sheets      *sheets.Service
	drive       *drive.Service
	spreadsheet *sheets.Spreadsheet
}

var spreadsheetURL = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)

// SpreadsheetKey extracts the spreadsheet key from a spreadsheet URL. Anything that is not a
// spreadsheet URL is returned as is.
func SpreadsheetKey(v string) (string, error) {
	s := strings.TrimSpace(v)

	if strings.HasPrefix(s, "https://") {
		match := spreadsheetURL.FindStringSubmatch(s)
		if len(match) < 2 || match[1] == "" {
			return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
		}

		return match[1], nil
	}

	if s == "" {
		return "", fmt.Errorf("missing spreadsheet key")
	}

	return s, nil
}

func NewResource(key string, credentials Credentials) *Resource {
	return &Resource{
		key: key,
		options: func(ctx context.Context) ([]option.ClientOption, error) {
			client, err := Client(ctx, credentials, SHEETS, DRIVE)
			if err != nil {
				return nil, err
			}

			return []option.ClientOption{option.WithHTTPClient(client)}, nil
		},
	}
}

// Title returns the spreadsheet title.
func (r *Resource) Title(ctx context.Context) (string, error) {
	if _, err := r.connect(ctx); err != nil {
		return "", err
	}

	r.guard.Lock()
	defer r.guard.Unlock()

	if r.spreadsheet.Properties != nil {
		return r.spreadsheet.Properties.Title, nil
	}

	return "", nil
}

// GetSheet returns the tab whose title matches 'tab', ignoring case, accents and whitespace. The
// spreadsheet metadata is refreshed once if the tab is not found, in case it has just been added.
func (r *Resource) GetSheet(ctx context.Context, tab string) (*sheets.Sheet, error) {
	service, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	r.guard.Lock()
	spreadsheet := r.spreadsheet
	r.guard.Unlock()

	if sheet := find(spreadsheet, tab); sheet != nil {
		return sheet, nil
	}

	spreadsheet, err = r.fetch(ctx, service)
	if err != nil {
		return nil, err
	}

	r.guard.Lock()
	r.spreadsheet = spreadsheet
	r.guard.Unlock()

	if sheet := find(spreadsheet, tab); sheet != nil {
		return sheet, nil
	}

	return nil, fmt.Errorf("%w: '%v'", store.ErrTabNotFound, tab)
}

func (r *Resource) Rows(ctx context.Context, tab string) ([][]string, error) {
	service, sheet, err := r.sheet(ctx, tab)
	if err != nil {
		return nil, err
	}

	response, err := service.Spreadsheets.Values.Get(r.key, quote(sheet.Properties.Title)).Context(ctx).Do()
	if err != nil {
		return nil, r.wrap(err)
	}

	return toStrings(response.Values), nil
}

func (r *Resource) Row(ctx context.Context, tab string, row int) ([]string, error) {
	service, sheet, err := r.sheet(ctx, tab)
	if err != nil {
		return nil, err
	}

	area := fmt.Sprintf("%v!%d:%d", quote(sheet.Properties.Title), row+1, row+1)
	response, err := service.Spreadsheets.Values.Get(r.key, area).Context(ctx).Do()
	if err != nil {
		return nil, r.wrap(err)
	}

	if rows := toStrings(response.Values); len(rows) > 0 {
		return rows[0], nil
	}

	return []string{}, nil
}

func (r *Resource) Append(ctx context.Context, tab string, values []string) error {
	service, sheet, err := r.sheet(ctx, tab)
	if err != nil {
		return err
	}

	rq := sheets.ValueRange{
		Values: [][]any{toValues(values)},
	}

	area := fmt.Sprintf("%v!A1", quote(sheet.Properties.Title))
	if _, err := service.Spreadsheets.Values.Append(r.key, area, &rq).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return r.wrap(err)
	}

	return nil
}

func (r *Resource) Update(ctx context.Context, tab string, row int, values []string) error {
	service, sheet, err := r.sheet(ctx, tab)
	if err != nil {
		return err
	}

	area := fmt.Sprintf("%v!A%d:%v%d", quote(sheet.Properties.Title), row+1, column(len(values)), row+1)
	rq := sheets.ValueRange{
		Range:  area,
		Values: [][]any{toValues(values)},
	}

	if _, err := service.Spreadsheets.Values.Update(r.key, area, &rq).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return r.wrap(err)
	}

	return nil
}

func (r *Resource) Delete(ctx context.Context, tab string, row int) error {
	service, sheet, err := r.sheet(ctx, tab)
	if err != nil {
		return err
	}

	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				DeleteDimension: &sheets.DeleteDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:         sheet.Properties.SheetId,
						Dimension:       "ROWS",
						StartIndex:      int64(row),
						EndIndex:        int64(row + 1),
						ForceSendFields: []string{"SheetId", "StartIndex"},
					},
				},
			},
		},
	}

	if _, err := service.Spreadsheets.BatchUpdate(r.key, &rq).Context(ctx).Do(); err != nil {
		return r.wrap(err)
	}

	return nil
}

// Version returns the most recent revision of the spreadsheet file.
func (r *Resource) Version(ctx context.Context) (*store.Version, error) {
	if _, err := r.connect(ctx); err != nil {
		return nil, err
	}

	r.guard.Lock()
	gdrive := r.drive
	r.guard.Unlock()

	page := ""
	latest := store.Version{}

	for {
		call := gdrive.Revisions.List(r.key).Fields("nextPageToken", "revisions(id,modifiedTime)").Context(ctx)
		if page != "" {
			call.PageToken(page)
		}

		revisions, err := call.Do()
		if err != nil {
			return nil, r.wrap(err)
		}

		for _, revision := range revisions.Revisions {
			datetime, err := time.Parse(time.RFC3339Nano, revision.ModifiedTime)
			if err != nil {
				return nil, err
			}

			if latest.Modified.Before(datetime) {
				latest.Revision = revision.Id
				latest.Modified = datetime
			}
		}

		if page = revisions.NextPageToken; page == "" {
			break
		}
	}

	if latest.Modified.IsZero() {
		return nil, fmt.Errorf("unable to identify latest revision for spreadsheet %s", r.key)
	}

	return &latest, nil
}

func (r *Resource) connect(ctx context.Context) (*sheets.Service, error) {
	r.guard.Lock()
	defer r.guard.Unlock()

	if r.sheets != nil {
		return r.sheets, nil
	}

	// NOTE: the client and services outlive the request that created them
	background := context.WithoutCancel(ctx)

	options, err := r.options(background)
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%w)", err)
	}

	service, err := sheets.NewService(background, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%v)", err)
	}

	gdrive, err := drive.NewService(background, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Drive client (%v)", err)
	}

	spreadsheet, err := r.fetch(ctx, service)
	if err != nil {
		return nil, err
	}

	r.sheets = service
	r.drive = gdrive
	r.spreadsheet = spreadsheet

	log.Infof("sheets", "connected to spreadsheet %v", r.key)

	return service, nil
}

func (r *Resource) fetch(ctx context.Context, service *sheets.Service) (*sheets.Spreadsheet, error) {
	spreadsheet, err := service.Spreadsheets.Get(r.key).Fields("spreadsheetId", "properties.title", "sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, r.wrap(err)
	}

	return spreadsheet, nil
}

func (r *Resource) sheet(ctx context.Context, tab string) (*sheets.Service, *sheets.Sheet, error) {
	sheet, err := r.GetSheet(ctx, tab)
	if err != nil {
		return nil, nil, err
	}

	r.guard.Lock()
	service := r.sheets
	r.guard.Unlock()

	return service, sheet, nil
}

func (r *Resource) wrap(err error) error {
	var e *googleapi.Error
	if errors.As(err, &e) && e.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %v (%v)", store.ErrSpreadsheetNotFound, r.key, e.Message)
	}

	return err
}

func find(spreadsheet *sheets.Spreadsheet, tab string) *sheets.Sheet {
	if spreadsheet == nil {
		return nil
	}

	key := model.Normalise(tab)
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && model.Normalise(sheet.Properties.Title) == key {
			return sheet
		}
	}

	return nil
}

// quote returns a tab title in the form used in A1 notation.
func quote(title string) string {
	return fmt.Sprintf("'%s'", strings.ReplaceAll(title, "'", "''"))
}

// column returns the A1 column letters for a 1-based column number.
func column(n int) string {
	if n < 1 {
		n = 1
	}

	letters := ""
	for n > 0 {
		n--
		letters = string(rune('A'+n%26)) + letters
		n /= 26
	}

	return letters
}

func toStrings(values [][]any) [][]string {
	rows := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			if v == nil {
				cells = append(cells, "")
			} else {
				cells = append(cells, fmt.Sprintf("%v", v))
			}
		}

		rows = append(rows, cells)
	}

	return rows
}

func toValues(values []string) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}

	return row
}
