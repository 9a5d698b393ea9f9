package store

import (
	"context"
	"fmt"

	"github.com/uhppoted/uhppoted-app-tasks/model"
)

func (s *Store) LoadCategories(ctx context.Context) ([]model.Category, error) {
	records, err := s.Records(ctx, Categories)
	if err != nil {
		return nil, err
	}

	categories := make([]model.Category, 0, len(records))
	for _, r := range records {
		categories = append(categories, model.DecodeCategory(r))
	}

	return categories, nil
}

func (s *Store) SaveNewCategory(ctx context.Context, category model.Category) error {
	t, err := s.table(Categories)
	if err != nil {
		return err
	}

	category.Name = clean(category.Name)
	if category.Name == "" {
		return fmt.Errorf("%w: category name is required", ErrInvalid)
	}

	return s.insert(ctx, t, category.Record())
}

// UpdateCategory renames the first category called 'name'. Tasks referring to the old name are
// not updated.
func (s *Store) UpdateCategory(ctx context.Context, name string, category model.Category) error {
	t, err := s.table(Categories)
	if err != nil {
		return err
	}

	return s.replace(ctx, t, name, func(current model.Record) model.Record {
		if clean(category.Name) == "" {
			category.Name = name
		}

		return category.Record()
	})
}

func (s *Store) DeleteCategory(ctx context.Context, name string) error {
	t, err := s.table(Categories)
	if err != nil {
		return err
	}

	return s.remove(ctx, t, name)
}
