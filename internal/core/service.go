package core

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/junnakarai/bankpocket/internal/store"
)

// Service is the single entry point for all mutations of account, tag,
// and association state. Associations in particular are created and
// destroyed only here (or by store-level cascade on delete), never by
// callers poking at the join table directly.
type Service struct {
	store *store.Store
	now   func() time.Time
}

// NewService creates a Service backed by the given store.
func NewService(st *store.Store) *Service {
	return &Service{
		store: st,
		now:   time.Now,
	}
}

// Store exposes the underlying store for collaborators that only read
// (the CSV engine shares it for staging queries).
func (s *Service) Store() *store.Store { return s.store }

// FilterState is the list view's current filter. While any part of it
// is active, reordering is refused (see MoveAccounts).
type FilterState struct {
	SearchText string
	TagID      *uuid.UUID
}

// Active reports whether any filter is in effect.
func (f FilterState) Active() bool {
	return strings.TrimSpace(f.SearchText) != "" || f.TagID != nil
}
