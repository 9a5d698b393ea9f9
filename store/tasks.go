package store

import (
	"context"
	"fmt"

	"github.com/uhppoted/uhppoted-app-tasks/model"
)

// LoadTasks returns every task in the tasks tab, in row order.
func (s *Store) LoadTasks(ctx context.Context) ([]model.Task, error) {
	records, err := s.Records(ctx, Tasks)
	if err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, model.DecodeTask(r))
	}

	return tasks, nil
}

// GetTask returns the first task with the given ID.
func (s *Store) GetTask(ctx context.Context, id string) (*model.Task, error) {
	tasks, err := s.LoadTasks(ctx)
	if err != nil {
		return nil, err
	}

	for _, t := range tasks {
		if t.ID == id {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("%w: task '%v'", ErrNotFound, id)
}

// SaveNewTask appends a task, generating an ID if it does not have one. A blank status is
// saved as Pending.
func (s *Store) SaveNewTask(ctx context.Context, task model.Task) (model.Task, error) {
	t, err := s.table(Tasks)
	if err != nil {
		return task, err
	}

	if clean(task.Title) == "" {
		return task, fmt.Errorf("%w: task title is required", ErrInvalid)
	}

	if clean(task.ID) == "" {
		task.ID = s.newID()
	}

	if task.Status == "" {
		task.Status = model.Pending
	}

	task.Progress = clamp(task.Progress)

	if err := s.insert(ctx, t, task.Record()); err != nil {
		return task, err
	}

	return task, nil
}

// UpdateTask overwrites the first task row with the given ID. The ID itself is not changed and a
// blank status keeps the stored status.
func (s *Store) UpdateTask(ctx context.Context, id string, task model.Task) error {
	t, err := s.table(Tasks)
	if err != nil {
		return err
	}

	task.ID = id
	task.Progress = clamp(task.Progress)

	return s.replace(ctx, t, id, func(current model.Record) model.Record {
		if task.Status == "" {
			task.Status = model.ParseStatus(current["Estado"])
		}

		return task.Record()
	})
}

// DeleteTask removes the first task row with the given ID.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	t, err := s.table(Tasks)
	if err != nil {
		return err
	}

	return s.remove(ctx, t, id)
}

func clamp(progress int) int {
	switch {
	case progress < 0:
		return 0
	case progress > 100:
		return 100
	default:
		return progress
	}
}
