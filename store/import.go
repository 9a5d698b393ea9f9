package store

import (
	"context"
	"fmt"
	"time"

	"github.com/uhppoted/uhppoted-app-tasks/log"
	"github.com/uhppoted/uhppoted-app-tasks/model"
)

// Import appends records to an entity tab, e.g. from a TSV file. Records are normalised through
// the entity type so that status, progress, dates and timestamps are written in the sheet format.
// Tasks and comments without an ID are given one. Returns the number of rows appended, which may
// be less than len(records) if a write fails part way through.
func (s *Store) Import(ctx context.Context, entity Entity, records []model.Record) (int, error) {
	t, err := s.table(entity)
	if err != nil {
		return 0, err
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		record, err := s.normalise(entity, r)
		if err != nil {
			return 0, err
		}

		rows = append(rows, t.layout.Row(record))
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	current, err := s.backend.Rows(ctx, t.tab)
	if err != nil {
		return 0, fmt.Errorf("error reading %v from '%v' (%w)", t.entity, t.tab, err)
	}

	if len(current) == 0 {
		if err := s.backend.Append(ctx, t.tab, t.layout.Header()); err != nil {
			return 0, fmt.Errorf("error writing header to '%v' (%w)", t.tab, err)
		}
	} else if err := t.layout.Check(current[0]); err != nil {
		return 0, fmt.Errorf("%w: '%v' %v", ErrHeaderMismatch, t.tab, err)
	}

	defer s.cache.Clear()

	for i, row := range rows {
		if err := s.backend.Append(ctx, t.tab, row); err != nil {
			return i, fmt.Errorf("error appending to '%v' (%w)", t.tab, err)
		}
	}

	log.Infof("store", "imported %v %v to '%v'", len(rows), t.entity, t.tab)

	return len(rows), nil
}

func (s *Store) normalise(entity Entity, r model.Record) (model.Record, error) {
	switch entity {
	case Tasks:
		task := model.DecodeTask(r)
		if clean(task.ID) == "" {
			task.ID = s.newID()
		}

		if task.Status == "" {
			task.Status = model.Pending
		}

		return task.Record(), nil

	case Comments:
		comment := model.DecodeComment(r)
		if clean(comment.ID) == "" {
			comment.ID = s.newID()
		}

		if comment.Timestamp.IsZero() {
			comment.Timestamp = s.now().Truncate(time.Second)
		}

		return comment.Record(), nil

	case Categories:
		category := model.DecodeCategory(r)
		if clean(category.Name) == "" {
			return nil, fmt.Errorf("%w: category name is required", ErrInvalid)
		}

		return category.Record(), nil

	case Users:
		user := model.DecodeUser(r)
		if clean(user.Name) == "" {
			return nil, fmt.Errorf("%w: user name is required", ErrInvalid)
		}

		return user.Record(), nil

	default:
		return nil, fmt.Errorf("unknown entity '%v'", entity)
	}
}

// Entity returns the entity stored in a tab, matching the tab name tolerantly.
func (s *Store) Entity(tab string) (Entity, error) {
	for _, e := range Entities {
		if t := s.tables[e]; model.Normalise(t.tab) == model.Normalise(tab) {
			return e, nil
		}
	}

	return "", fmt.Errorf("%w: '%v'", ErrTabNotFound, tab)
}
