package core

// associations.go is the association manager: the only code allowed to
// create or destroy join records between accounts and tags. Keeping all
// membership mutation here is what preserves the bidirectional
// invariant (the tags reachable from an account always equal the
// accounts reachable from each of those tags, restricted to it).

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/junnakarai/bankpocket/internal/store"
)

// AddTag associates a tag with an account. A pair that is already
// associated is a no-op; the existing association keeps its creation
// time. Both sides must exist.
func (s *Service) AddTag(ctx context.Context, accountID, tagID uuid.UUID) error {
	if err := s.checkPair(ctx, accountID, tagID); err != nil {
		return err
	}

	exists, err := s.store.HasAssociation(ctx, accountID, tagID)
	if err != nil {
		return fmt.Errorf("association lookup: %w", err)
	}
	if exists {
		return nil
	}

	assoc := &store.Association{
		ID:        uuid.New(),
		AccountID: accountID,
		TagID:     tagID,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateAssociation(ctx, assoc); err != nil {
		return fmt.Errorf("create association: %w", err)
	}
	return nil
}

// RemoveTag dissociates a tag from an account. Every matching join
// record is removed; there should be at most one, but extras are
// cleaned up alike. Removing a pair that is not associated is a no-op.
func (s *Service) RemoveTag(ctx context.Context, accountID, tagID uuid.UUID) error {
	if err := s.checkPair(ctx, accountID, tagID); err != nil {
		return err
	}

	if _, err := s.store.DeleteAssociations(ctx, accountID, tagID); err != nil {
		return fmt.Errorf("delete associations: %w", err)
	}
	return nil
}

// ReplaceTags reconciles an account's tag set against desired. Tags no
// longer desired are dissociated, newly desired tags are associated,
// and pairs in both sets are left untouched so their association
// creation times survive. Calling it twice with the same set is a
// no-op the second time.
func (s *Service) ReplaceTags(ctx context.Context, accountID uuid.UUID, desired []uuid.UUID) error {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return ErrAccountNotFound
	}

	want := make(map[uuid.UUID]bool, len(desired))
	for _, tagID := range desired {
		tag, err := s.store.GetTag(ctx, tagID)
		if err != nil {
			return fmt.Errorf("get tag: %w", err)
		}
		if tag == nil {
			return ErrTagNotFound
		}
		want[tagID] = true
	}

	current, err := s.store.TagsForAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("current tags: %w", err)
	}
	have := make(map[uuid.UUID]bool, len(current))
	for _, t := range current {
		have[t.ID] = true
	}

	for _, t := range current {
		if !want[t.ID] {
			if _, err := s.store.DeleteAssociations(ctx, accountID, t.ID); err != nil {
				return fmt.Errorf("delete associations: %w", err)
			}
		}
	}

	for tagID := range want {
		if have[tagID] {
			continue
		}
		assoc := &store.Association{
			ID:        uuid.New(),
			AccountID: accountID,
			TagID:     tagID,
			CreatedAt: s.now(),
		}
		if err := s.store.CreateAssociation(ctx, assoc); err != nil {
			return fmt.Errorf("create association: %w", err)
		}
	}

	return nil
}

// AccountTags returns the tags currently associated with an account.
func (s *Service) AccountTags(ctx context.Context, accountID uuid.UUID) ([]*store.Tag, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return s.store.TagsForAccount(ctx, accountID)
}

// checkPair verifies both sides of an association exist, mapping a
// missing side to the matching dangling-reference error.
func (s *Service) checkPair(ctx context.Context, accountID, tagID uuid.UUID) error {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return ErrAccountNotFound
	}
	tag, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		return fmt.Errorf("get tag: %w", err)
	}
	if tag == nil {
		return ErrTagNotFound
	}
	return nil
}
