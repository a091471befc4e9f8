package services

import (
	"context"
	"fmt"
	"log/slog"

	"platito/internal/amqp"
	"platito/internal/core"
	"platito/internal/log"
	"platito/internal/ports"
)

type TagService struct {
	repo ports.Repository
	notifier
}

func NewTagService(repo ports.Repository, events EventPublisher) *TagService {
	return &TagService{repo: repo, notifier: notifier{events: events}}
}

func (s *TagService) Get(ctx context.Context, id int64) (core.Tag, error) {
	return s.repo.GetTag(ctx, id)
}

func (s *TagService) List(ctx context.Context) ([]core.Tag, error) {
	tags, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) Create(ctx context.Context, name string) (core.Tag, error) {
	t := core.Tag{Name: core.NormalizeName(name)}
	if t.Name == "" {
		return core.Tag{}, core.ErrEmptyName
	}

	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		if err := checkTagName(ctx, r, t.Name, 0); err != nil {
			return err
		}
		id, err := r.CreateTag(ctx, t)
		if err != nil {
			return fmt.Errorf("create tag: %w", err)
		}
		t.ID = id
		return nil
	})
	if err != nil {
		return core.Tag{}, err
	}

	slog.InfoContext(ctx, "Tag created", log.FieldComponent, log.ComponentLedger, "id", t.ID, "name", t.Name)
	s.notify(ctx, amqp.EntityTag, amqp.ActionCreated, t.ID)
	return t, nil
}

func (s *TagService) Rename(ctx context.Context, id int64, name string) (core.Tag, error) {
	t := core.Tag{ID: id, Name: core.NormalizeName(name)}
	if t.Name == "" {
		return core.Tag{}, core.ErrEmptyName
	}

	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		if _, err := r.GetTag(ctx, id); err != nil {
			return err
		}
		if err := checkTagName(ctx, r, t.Name, id); err != nil {
			return err
		}
		return r.UpdateTag(ctx, t)
	})
	if err != nil {
		return core.Tag{}, err
	}

	s.notify(ctx, amqp.EntityTag, amqp.ActionUpdated, id)
	return t, nil
}

// Delete removes the tag and detaches it from every transaction.
func (s *TagService) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		if _, err := r.GetTag(ctx, id); err != nil {
			return err
		}
		return r.DeleteTag(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Tag deleted", log.FieldComponent, log.ComponentLedger, "id", id)
	s.notify(ctx, amqp.EntityTag, amqp.ActionDeleted, id)
	return nil
}

func checkTagName(ctx context.Context, r ports.Repository, name string, exceptID int64) error {
	tags, err := r.ListTags(ctx)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}
	for _, t := range tags {
		if t.ID != exceptID && core.SameName(t.Name, name) {
			return fmt.Errorf("tag %q: %w", name, core.ErrDuplicateName)
		}
	}
	return nil
}
