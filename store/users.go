package store

import (
	"context"
	"fmt"

	"github.com/uhppoted/uhppoted-app-tasks/model"
)

func (s *Store) LoadUsers(ctx context.Context) ([]model.User, error) {
	records, err := s.Records(ctx, Users)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(records))
	for _, r := range records {
		users = append(users, model.DecodeUser(r))
	}

	return users, nil
}

// SaveNewUser appends a user in the column order Nombre, Edad, URL_Foto_Perfil.
func (s *Store) SaveNewUser(ctx context.Context, user model.User) error {
	t, err := s.table(Users)
	if err != nil {
		return err
	}

	user.Name = clean(user.Name)
	if user.Name == "" {
		return fmt.Errorf("%w: user name is required", ErrInvalid)
	}

	return s.insert(ctx, t, user.Record())
}

// UpdateUser overwrites the first user called 'name'. A blank name in 'user' keeps the existing
// name.
func (s *Store) UpdateUser(ctx context.Context, name string, user model.User) error {
	t, err := s.table(Users)
	if err != nil {
		return err
	}

	return s.replace(ctx, t, name, func(current model.Record) model.Record {
		if clean(user.Name) == "" {
			user.Name = name
		}

		return user.Record()
	})
}

func (s *Store) DeleteUser(ctx context.Context, name string) error {
	t, err := s.table(Users)
	if err != nil {
		return err
	}

	return s.remove(ctx, t, name)
}
