// Package store is the spreadsheet access layer: typed load/append/update/delete operations for
// tasks, categories, users and comments over a Backend, with a TTL read cache in front of it.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/uhppoted/uhppoted-app-tasks/cache"
	"github.com/uhppoted/uhppoted-app-tasks/log"
	"github.com/uhppoted/uhppoted-app-tasks/model"
)

type Entity string

const (
	Tasks      Entity = "tasks"
	Categories Entity = "categories"
	Users      Entity = "users"
	Comments   Entity = "comments"
)

var Entities = []Entity{Tasks, Categories, Users, Comments}

// Tabs holds the spreadsheet tab name for each entity.
type Tabs struct {
	Tasks      string
	Categories string
	Users      string
	Comments   string
}

// TTL holds the cache expiry for each entity.
type TTL struct {
	Tasks      time.Duration
	Categories time.Duration
	Users      time.Duration
	Comments   time.Duration
}

var DefaultTabs = Tabs{
	Tasks:      "Tareas",
	Categories: "Categorias",
	Users:      "Usuarios",
	Comments:   "Comentarios",
}

var DefaultTTL = TTL{
	Tasks:      60 * time.Second,
	Categories: 300 * time.Second,
	Users:      300 * time.Second,
	Comments:   60 * time.Second,
}

type Store struct {
	backend Backend
	cache   *cache.Cache
	tables  map[Entity]table
	now     func() time.Time
	newID   func() string
	guard   sync.Mutex
}

type table struct {
	entity Entity
	tab    string
	layout model.Layout
	ttl    time.Duration
}

func New(backend Backend, c *cache.Cache, tabs Tabs, ttl TTL) *Store {
	if c == nil {
		c = cache.NewCache()
	}

	return &Store{
		backend: backend,
		cache:   c,
		tables: map[Entity]table{
			Tasks:      {Tasks, tabs.Tasks, model.TaskLayout, ttl.Tasks},
			Categories: {Categories, tabs.Categories, model.CategoryLayout, ttl.Categories},
			Users:      {Users, tabs.Users, model.UserLayout, ttl.Users},
			Comments:   {Comments, tabs.Comments, model.CommentLayout, ttl.Comments},
		},
		now:   time.Now,
		newID: newID,
	}
}

// WithClock replaces the time source used for comment timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now

	return s
}

// WithIDs replaces the generator used for new task and comment identifiers.
func (s *Store) WithIDs(generator func() string) *Store {
	s.newID = generator

	return s
}

// Tab returns the spreadsheet tab that holds an entity.
func (s *Store) Tab(entity Entity) (string, error) {
	t, err := s.table(entity)
	if err != nil {
		return "", err
	}

	return t.tab, nil
}

// Layout returns the fixed column layout of an entity.
func (s *Store) Layout(entity Entity) (model.Layout, error) {
	t, err := s.table(entity)
	if err != nil {
		return model.Layout{}, err
	}

	return t.layout, nil
}

// Records returns the rows of an entity tab as header->value mappings, via the cache.
func (s *Store) Records(ctx context.Context, entity Entity) ([]model.Record, error) {
	t, err := s.table(entity)
	if err != nil {
		return nil, err
	}

	return s.records(ctx, t)
}

// Rows returns the live rows of an entity tab, header first, bypassing the cache.
func (s *Store) Rows(ctx context.Context, entity Entity) ([][]string, error) {
	t, err := s.table(entity)
	if err != nil {
		return nil, err
	}

	rows, err := s.backend.Rows(ctx, t.tab)
	if err != nil {
		return nil, fmt.Errorf("error reading %v from '%v' (%w)", t.entity, t.tab, err)
	}

	return rows, nil
}

// Version returns the latest revision of the spreadsheet, or nil if the backend cannot tell.
func (s *Store) Version(ctx context.Context) (*Version, error) {
	if v, ok := s.backend.(Versioned); ok {
		return v.Version(ctx)
	}

	return nil, nil
}

// Invalidate clears the read cache for every entity.
func (s *Store) Invalidate() {
	s.cache.Clear()
}

func (s *Store) table(entity Entity) (table, error) {
	if t, ok := s.tables[entity]; ok {
		return t, nil
	}

	return table{}, fmt.Errorf("unknown entity '%v'", entity)
}

func (s *Store) records(ctx context.Context, t table) ([]model.Record, error) {
	return cache.Fetch(ctx, s.cache, string(t.entity), t.ttl, func(ctx context.Context) ([]model.Record, error) {
		rows, err := s.backend.Rows(ctx, t.tab)
		if err != nil {
			return nil, fmt.Errorf("error reading %v from '%v' (%w)", t.entity, t.tab, err)
		}

		if len(rows) == 0 {
			return []model.Record{}, nil
		}

		tbl, err := t.layout.MakeTable(rows)
		if err != nil {
			return nil, fmt.Errorf("error reading %v from '%v' (%w)", t.entity, t.tab, err)
		}

		log.Debugf("store", "loaded %v %v from '%v'", len(tbl.Records), t.entity, t.tab)

		return tbl.Records, nil
	})
}

// insert appends a row in the fixed column order, writing the header first if the tab is empty.
func (s *Store) insert(ctx context.Context, t table, record model.Record) error {
	s.guard.Lock()
	defer s.guard.Unlock()

	rows, err := s.backend.Rows(ctx, t.tab)
	if err != nil {
		return fmt.Errorf("error reading %v from '%v' (%w)", t.entity, t.tab, err)
	}

	if len(rows) == 0 {
		if err := s.backend.Append(ctx, t.tab, t.layout.Header()); err != nil {
			return fmt.Errorf("error writing header to '%v' (%w)", t.tab, err)
		}
	} else if err := t.layout.Check(rows[0]); err != nil {
		return fmt.Errorf("%w: '%v' %v", ErrHeaderMismatch, t.tab, err)
	}

	if err := s.backend.Append(ctx, t.tab, t.layout.Row(record)); err != nil {
		return fmt.Errorf("error appending to '%v' (%w)", t.tab, err)
	}

	s.cache.Clear()

	log.Infof("store", "added %v '%v' to '%v'", t.entity, record[t.layout.KeyHeader()], t.tab)

	return nil
}

// replace overwrites the first row whose identifier matches id. 'update' receives the stored
// record and returns the record to write.
func (s *Store) replace(ctx context.Context, t table, id string, update func(model.Record) model.Record) error {
	s.guard.Lock()
	defer s.guard.Unlock()

	row, current, err := s.locate(ctx, t, id)
	if err != nil {
		return err
	}

	record := update(current)

	if err := s.backend.Update(ctx, t.tab, row, t.layout.Row(record)); err != nil {
		return fmt.Errorf("error updating row %v of '%v' (%w)", row+1, t.tab, err)
	}

	s.cache.Clear()

	log.Infof("store", "updated %v '%v' (row %v of '%v')", t.entity, id, row+1, t.tab)

	return nil
}

// remove deletes the first row whose identifier matches id.
func (s *Store) remove(ctx context.Context, t table, id string) error {
	s.guard.Lock()
	defer s.guard.Unlock()

	row, _, err := s.locate(ctx, t, id)
	if err != nil {
		return err
	}

	if err := s.backend.Delete(ctx, t.tab, row); err != nil {
		return fmt.Errorf("error deleting row %v of '%v' (%w)", row+1, t.tab, err)
	}

	s.cache.Clear()

	log.Infof("store", "deleted %v '%v' (row %v of '%v')", t.entity, id, row+1, t.tab)

	return nil
}

// locate finds the first row matching id in the live sheet (not the cache) and re-reads it just
// before returning so that a row shifted by a concurrent edit is not overwritten. The lookup is
// rebuilt once if the row has moved.
func (s *Store) locate(ctx context.Context, t table, id string) (int, model.Record, error) {
	for attempt := 0; attempt < 2; attempt++ {
		rows, err := s.backend.Rows(ctx, t.tab)
		if err != nil {
			return 0, nil, fmt.Errorf("error reading %v from '%v' (%w)", t.entity, t.tab, err)
		}

		if len(rows) == 0 {
			return 0, nil, fmt.Errorf("%w: %v '%v'", ErrNotFound, t.entity, id)
		}

		if err := t.layout.Check(rows[0]); err != nil {
			return 0, nil, fmt.Errorf("%w: '%v' %v", ErrHeaderMismatch, t.tab, err)
		}

		index := s.index(t, rows)
		row, ok := index[id]
		if !ok {
			return 0, nil, fmt.Errorf("%w: %v '%v'", ErrNotFound, t.entity, id)
		}

		check, err := s.backend.Row(ctx, t.tab, row)
		if err != nil {
			return 0, nil, fmt.Errorf("error reading row %v of '%v' (%w)", row+1, t.tab, err)
		}

		if key(check, t.layout.Key) == id {
			return row, s.decode(t, rows[0], check), nil
		}

		log.Warnf("store", "row %v of '%v' changed during update of %v '%v'", row+1, t.tab, t.entity, id)
	}

	return 0, nil, fmt.Errorf("%w: %v '%v'", ErrConflict, t.entity, id)
}

// index maps identifiers to row numbers. Duplicate identifiers map to the first matching row.
func (s *Store) index(t table, rows [][]string) map[string]int {
	index := map[string]int{}
	for i, row := range rows {
		if i == 0 {
			continue
		}

		if k := key(row, t.layout.Key); k != "" {
			if _, ok := index[k]; !ok {
				index[k] = i
			}
		}
	}

	return index
}

func (s *Store) decode(t table, header []string, row []string) model.Record {
	tbl, err := t.layout.MakeTable([][]string{header, row})
	if err != nil || len(tbl.Records) == 0 {
		return model.Record{}
	}

	return tbl.Records[0]
}

func key(row []string, column int) string {
	if column < len(row) {
		return clean(row[column])
	}

	return ""
}
