package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/junnakarai/bankpocket/internal/store"
)

// defaultTags are seeded on first launch. Names already present are
// skipped, so the seeding call is idempotent.
var defaultTags = []struct {
	Name  string
	Color string
}{
	{"私", "#FF6B6B"},
	{"家族", "#4ECDC4"},
	{"仕事", "#45B7D1"},
	{"貯金", "#96CEB4"},
	{"投資", "#FECA57"},
	{"緊急時", "#FF9FF3"},
}

// CreateTag validates and inserts a new tag. Tag names are unique
// case-insensitively.
func (s *Service) CreateTag(ctx context.Context, name, color string) (*store.Tag, error) {
	if err := ValidateTag(name, color); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	color = strings.TrimSpace(color)

	dup, err := s.store.HasDuplicateTag(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if dup {
		return nil, ErrDuplicateTag
	}

	maxOrder, err := s.store.MaxTagSortOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("max sort order: %w", err)
	}

	now := s.now()
	tag := &store.Tag{
		ID:        uuid.New(),
		Name:      name,
		Color:     color,
		SortOrder: maxOrder + 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// UpdateTag applies a partial update with the same validation and
// duplicate rules as CreateTag, excluding the tag itself from the
// duplicate check.
func (s *Service) UpdateTag(ctx context.Context, id uuid.UUID, upd store.TagUpdate) (*store.Tag, error) {
	existing, err := s.store.GetTag(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	if existing == nil {
		return nil, ErrTagNotFound
	}

	merged := *existing
	if upd.Name != nil {
		merged.Name = strings.TrimSpace(*upd.Name)
		upd.Name = &merged.Name
	}
	if upd.Color != nil {
		merged.Color = strings.TrimSpace(*upd.Color)
		upd.Color = &merged.Color
	}

	if err := ValidateTag(merged.Name, merged.Color); err != nil {
		return nil, err
	}

	dup, err := s.store.HasDuplicateTag(ctx, merged.Name, &id)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if dup {
		return nil, ErrDuplicateTag
	}

	now := s.now()
	ok, err := s.store.UpdateTag(ctx, id, upd, now)
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	if !ok {
		return nil, ErrTagNotFound
	}
	merged.UpdatedAt = now
	return &merged, nil
}

// DeleteTag removes a tag; its associations are cascaded by the store.
func (s *Service) DeleteTag(ctx context.Context, id uuid.UUID) error {
	ok, err := s.store.DeleteTag(ctx, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if !ok {
		return ErrTagNotFound
	}
	return nil
}

// ListTags returns all tags in manual order.
func (s *Service) ListTags(ctx context.Context) ([]*store.Tag, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// TagAccountCount returns how many accounts carry the tag. The UI uses
// this for the "in use" marker and the delete confirmation.
func (s *Service) TagAccountCount(ctx context.Context, id uuid.UUID) (int, error) {
	tag, err := s.store.GetTag(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("get tag: %w", err)
	}
	if tag == nil {
		return 0, ErrTagNotFound
	}
	return s.store.TagAccountCount(ctx, id)
}

// TagAccountCounts returns the account count for every tag in a single
// store round trip, keyed by tag ID. Unused tags map to no entry.
func (s *Service) TagAccountCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	counts, err := s.store.TagAccountCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("tag account counts: %w", err)
	}
	return counts, nil
}

// SeedDefaultTags inserts the built-in tag set, skipping any name that
// already exists (case-insensitively). Safe to call on every startup.
// Returns the number of tags created.
func (s *Service) SeedDefaultTags(ctx context.Context) (int, error) {
	created := 0
	for _, dt := range defaultTags {
		dup, err := s.store.HasDuplicateTag(ctx, dt.Name, nil)
		if err != nil {
			return created, fmt.Errorf("duplicate check: %w", err)
		}
		if dup {
			continue
		}
		if _, err := s.CreateTag(ctx, dt.Name, dt.Color); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
