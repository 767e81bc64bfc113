package store

import (
	"time"

	"github.com/google/uuid"
)

// Account is a single bank account record.
//
// BranchName, BranchNumber and AccountNumber are optional and stored as
// empty strings when absent. SortOrder is a display ordering hint; the
// ordering layer keeps it dense (0..N-1) after every reorder, ties are
// broken by bank name.
type Account struct {
	ID            uuid.UUID
	BankName      string
	BranchName    string
	BranchNumber  string
	AccountNumber string
	SortOrder     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Tag is a user-defined label with a display color (#RRGGBB).
type Tag struct {
	ID        uuid.UUID
	Name      string
	Color     string
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Association is the join record linking one Account to one Tag.
// At most one Association exists per (account, tag) pair.
type Association struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	TagID     uuid.UUID
	CreatedAt time.Time
}

// AccountUpdate carries a partial update for an Account. Nil fields are
// left unchanged; UpdatedAt is refreshed on any successful mutation.
type AccountUpdate struct {
	BankName      *string
	BranchName    *string
	BranchNumber  *string
	AccountNumber *string
}

// TagUpdate carries a partial update for a Tag.
type TagUpdate struct {
	Name  *string
	Color *string
}

// StagedAccount is one import row that survived validation and duplicate
// checks, waiting for the batch commit. TagIDs reference existing tags.
type StagedAccount struct {
	Account Account
	TagIDs  []uuid.UUID
}
