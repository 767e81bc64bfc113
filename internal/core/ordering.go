package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/junnakarai/bankpocket/internal/store"

	"github.com/google/uuid"
)

// MoveAccounts moves the accounts at fromPositions (indices into the
// current full list) so they end up ahead of toPosition, then rewrites
// every account's sort order as its position in the new list, producing
// a dense 0..N-1 assignment.
//
// The move is refused while any filter is active: positions in a
// filtered view do not map onto the global ordering, and reindexing a
// subset would silently corrupt it. Callers pass their current filter
// state so the core can enforce this rather than trusting the UI.
func (s *Service) MoveAccounts(ctx context.Context, filter FilterState, fromPositions []int, toPosition int) error {
	if filter.Active() {
		return ErrReorderFiltered
	}

	accounts, err := s.store.ListAccounts(ctx, "", nil)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	reordered, err := moveItems(accounts, fromPositions, toPosition)
	if err != nil {
		return err
	}

	orders := make(map[uuid.UUID]int, len(reordered))
	for i, a := range reordered {
		orders[a.ID] = i
	}
	if err := s.store.SetAccountSortOrders(ctx, orders, s.now()); err != nil {
		return fmt.Errorf("set sort orders: %w", err)
	}
	return nil
}

// moveItems removes the items at from (deduplicated, any order) and
// reinserts them before to, where to is an offset into the original
// slice. Offsets past the end append.
func moveItems(items []*store.Account, from []int, to int) ([]*store.Account, error) {
	n := len(items)
	if to < 0 || to > n {
		return nil, ErrInvalidMove
	}

	sorted := append([]int(nil), from...)
	sort.Ints(sorted)

	seen := make(map[int]bool, len(sorted))
	var offsets []int
	var moved []*store.Account
	for _, off := range sorted {
		if off < 0 || off >= n {
			return nil, ErrInvalidMove
		}
		if seen[off] {
			continue
		}
		seen[off] = true
		offsets = append(offsets, off)
		moved = append(moved, items[off])
	}
	if len(moved) == 0 {
		return items, nil
	}

	// The insertion point shifts left by one for every removed item
	// that sat before it.
	insert := to
	for _, off := range offsets {
		if off < to {
			insert--
		}
	}

	remaining := make([]*store.Account, 0, n-len(moved))
	for i, it := range items {
		if !seen[i] {
			remaining = append(remaining, it)
		}
	}

	result := make([]*store.Account, 0, n)
	result = append(result, remaining[:insert]...)
	result = append(result, moved...)
	result = append(result, remaining[insert:]...)
	return result, nil
}
