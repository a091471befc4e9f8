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

type CategoryInput struct {
	Name  string               `json:"name"`
	Type  core.TransactionType `json:"type"`
	Color string               `json:"color"`
	Icon  string               `json:"icon"`
}

type CategoryPatch struct {
	Name  *string               `json:"name,omitempty"`
	Type  *core.TransactionType `json:"type,omitempty"`
	Color *string               `json:"color,omitempty"`
	Icon  *string               `json:"icon,omitempty"`
}

// CategoryService enforces per-type name uniqueness and protects default
// and in-use categories.
type CategoryService struct {
	repo ports.Repository
	notifier
}

func NewCategoryService(repo ports.Repository, events EventPublisher) *CategoryService {
	return &CategoryService{repo: repo, notifier: notifier{events: events}}
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// List returns the categories of typ, or all of them when typ is empty.
func (s *CategoryService) List(ctx context.Context, typ core.TransactionType) ([]core.Category, error) {
	if typ != "" && !typ.IsValid() {
		return nil, fmt.Errorf("category type %q: %w", typ, core.ErrInvalidType)
	}
	all, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if typ == "" {
		return all, nil
	}
	out := make([]core.Category, 0, len(all))
	for _, c := range all {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (core.Category, error) {
	c := core.Category{
		Name:  core.NormalizeName(in.Name),
		Type:  in.Type,
		Color: in.Color,
		Icon:  in.Icon,
	}
	if c.Icon == "" {
		c.Icon = core.DefaultCategoryIcon
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		if err := checkCategoryName(ctx, r, c.Name, c.Type, 0); err != nil {
			return err
		}
		id, err := r.CreateCategory(ctx, c)
		if err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		c.ID = id
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category created", log.FieldComponent, log.ComponentLedger, log.FieldCategoryID, c.ID, "name", c.Name, "type", c.Type)
	s.notify(ctx, amqp.EntityCategory, amqp.ActionCreated, c.ID)
	return c, nil
}

// Update merges patch into the stored category. The default flag is never
// changed, and the type of a category used by transactions is fixed.
func (s *CategoryService) Update(ctx context.Context, id int64, patch CategoryPatch) (core.Category, error) {
	var c core.Category
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		current, err := r.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		c = current
		if patch.Name != nil {
			c.Name = core.NormalizeName(*patch.Name)
		}
		if patch.Type != nil {
			c.Type = *patch.Type
		}
		if patch.Color != nil {
			c.Color = *patch.Color
		}
		if patch.Icon != nil {
			c.Icon = *patch.Icon
		}
		if c.Icon == "" {
			c.Icon = core.DefaultCategoryIcon
		}
		c.IsDefault = current.IsDefault

		if err := c.Validate(); err != nil {
			return err
		}
		if c.Type != current.Type {
			n, err := r.CountTransactions(ctx, ports.TransactionFilter{CategoryID: id})
			if err != nil {
				return fmt.Errorf("count category transactions: %w", err)
			}
			if n > 0 {
				return fmt.Errorf("change type of category %d used by %d transactions: %w", id, n, core.ErrInUse)
			}
		}
		if err := checkCategoryName(ctx, r, c.Name, c.Type, id); err != nil {
			return err
		}
		return r.UpdateCategory(ctx, c)
	})
	if err != nil {
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category updated", log.FieldComponent, log.ComponentLedger, log.FieldCategoryID, id, "name", c.Name)
	s.notify(ctx, amqp.EntityCategory, amqp.ActionUpdated, id)
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		c, err := r.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		if c.IsDefault {
			return fmt.Errorf("category %q is a default category: %w", c.Name, core.ErrProtectedEntity)
		}
		n, err := r.CountTransactions(ctx, ports.TransactionFilter{CategoryID: id})
		if err != nil {
			return fmt.Errorf("count category transactions: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("category %q is used by %d transactions: %w", c.Name, n, core.ErrInUse)
		}
		return r.DeleteCategory(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted", log.FieldComponent, log.ComponentLedger, log.FieldCategoryID, id)
	s.notify(ctx, amqp.EntityCategory, amqp.ActionDeleted, id)
	return nil
}

// EnsureDefaults upserts the seed categories. It is safe to call on every
// start.
func (s *CategoryService) EnsureDefaults(ctx context.Context) error {
	var created, updated int
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		var err error
		created, updated, err = ensureDefaultCategories(ctx, r)
		return err
	})
	if err != nil {
		return err
	}
	if created > 0 || updated > 0 {
		slog.InfoContext(ctx, "Default categories ensured", log.FieldComponent, log.ComponentLedger, "created", created, "updated", updated)
	}
	return nil
}

func ensureDefaultCategories(ctx context.Context, r ports.Repository) (created, updated int, err error) {
	existing, err := r.ListCategories(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list categories: %w", err)
	}

	for _, seed := range core.DefaultCategories() {
		match := -1
		for i, c := range existing {
			if c.Type == seed.Type && core.SameName(c.Name, seed.Name) {
				match = i
				break
			}
		}

		if match < 0 {
			if _, err := r.CreateCategory(ctx, seed); err != nil {
				return created, updated, fmt.Errorf("seed category %q: %w", seed.Name, err)
			}
			created++
			continue
		}

		c := existing[match]
		if c.Color == seed.Color && c.Icon == seed.Icon && c.IsDefault {
			continue
		}
		c.Color, c.Icon, c.IsDefault = seed.Color, seed.Icon, true
		if err := r.UpdateCategory(ctx, c); err != nil {
			return created, updated, fmt.Errorf("refresh category %q: %w", seed.Name, err)
		}
		updated++
	}
	return created, updated, nil
}

// checkCategoryName rejects name when another category of the same type
// already uses it. exceptID is skipped.
func checkCategoryName(ctx context.Context, r ports.Repository, name string, typ core.TransactionType, exceptID int64) error {
	all, err := r.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	for _, c := range all {
		if c.ID != exceptID && c.Type == typ && core.SameName(c.Name, name) {
			return fmt.Errorf("%s category %q: %w", typ, name, core.ErrDuplicateName)
		}
	}
	return nil
}
