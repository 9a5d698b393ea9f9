package store

import (
	"context"
	"fmt"
	"time"

	"github.com/uhppoted/uhppoted-app-tasks/model"
)

func (s *Store) LoadComments(ctx context.Context) ([]model.Comment, error) {
	records, err := s.Records(ctx, Comments)
	if err != nil {
		return nil, err
	}

	comments := make([]model.Comment, 0, len(records))
	for _, r := range records {
		comments = append(comments, model.DecodeComment(r))
	}

	return comments, nil
}

// CommentsByTask groups comments by task ID, preserving row order.
func (s *Store) CommentsByTask(ctx context.Context) (map[string][]model.Comment, error) {
	comments, err := s.LoadComments(ctx)
	if err != nil {
		return nil, err
	}

	grouped := map[string][]model.Comment{}
	for _, c := range comments {
		grouped[c.TaskID] = append(grouped[c.TaskID], c)
	}

	return grouped, nil
}

// SaveNewComment appends a comment, generating the ID and timestamp if they are not set.
func (s *Store) SaveNewComment(ctx context.Context, comment model.Comment) (model.Comment, error) {
	t, err := s.table(Comments)
	if err != nil {
		return comment, err
	}

	if clean(comment.TaskID) == "" {
		return comment, fmt.Errorf("%w: comment task is required", ErrInvalid)
	}

	if clean(comment.Text) == "" {
		return comment, fmt.Errorf("%w: comment text is required", ErrInvalid)
	}

	if clean(comment.ID) == "" {
		comment.ID = s.newID()
	}

	if comment.Timestamp.IsZero() {
		comment.Timestamp = s.now().Truncate(time.Second)
	}

	if err := s.insert(ctx, t, comment.Record()); err != nil {
		return comment, err
	}

	return comment, nil
}

// UpdateComment overwrites the first comment with the given ID. The ID is not changed.
func (s *Store) UpdateComment(ctx context.Context, id string, comment model.Comment) error {
	t, err := s.table(Comments)
	if err != nil {
		return err
	}

	comment.ID = id

	return s.replace(ctx, t, id, func(current model.Record) model.Record {
		if comment.Timestamp.IsZero() {
			comment.Timestamp = model.ParseTimestamp(current["Fecha"])
		}

		return comment.Record()
	})
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	t, err := s.table(Comments)
	if err != nil {
		return err
	}

	return s.remove(ctx, t, id)
}
