package core

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/junnakarai/bankpocket/internal/store"
)

// CreateAccount validates and inserts a new account. The account is
// appended at the end of the manual ordering. Duplicate detection only
// applies when both branch number and account number are present.
func (s *Service) CreateAccount(ctx context.Context, bankName, branchName, branchNumber, accountNumber string) (*store.Account, error) {
	if err := ValidateAccount(bankName, branchName, branchNumber, accountNumber); err != nil {
		return nil, err
	}

	bankName = strings.TrimSpace(bankName)
	branchName = strings.TrimSpace(branchName)
	branchNumber = strings.TrimSpace(branchNumber)
	accountNumber = strings.TrimSpace(accountNumber)

	dup, err := s.store.HasDuplicateAccount(ctx, bankName, branchNumber, accountNumber, nil)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if dup {
		return nil, ErrDuplicateAccount
	}

	maxOrder, err := s.store.MaxAccountSortOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("max sort order: %w", err)
	}

	now := s.now()
	account := &store.Account{
		ID:            uuid.New(),
		BankName:      bankName,
		BranchName:    branchName,
		BranchNumber:  branchNumber,
		AccountNumber: accountNumber,
		SortOrder:     maxOrder + 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// UpdateAccount applies a partial update. Provided fields are trimmed,
// the merged result is re-validated, and the duplicate check excludes
// the account itself.
func (s *Service) UpdateAccount(ctx context.Context, id uuid.UUID, upd store.AccountUpdate) (*store.Account, error) {
	existing, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if existing == nil {
		return nil, ErrAccountNotFound
	}

	merged := *existing
	if upd.BankName != nil {
		merged.BankName = strings.TrimSpace(*upd.BankName)
		upd.BankName = &merged.BankName
	}
	if upd.BranchName != nil {
		merged.BranchName = strings.TrimSpace(*upd.BranchName)
		upd.BranchName = &merged.BranchName
	}
	if upd.BranchNumber != nil {
		merged.BranchNumber = strings.TrimSpace(*upd.BranchNumber)
		upd.BranchNumber = &merged.BranchNumber
	}
	if upd.AccountNumber != nil {
		merged.AccountNumber = strings.TrimSpace(*upd.AccountNumber)
		upd.AccountNumber = &merged.AccountNumber
	}

	if err := ValidateAccount(merged.BankName, merged.BranchName, merged.BranchNumber, merged.AccountNumber); err != nil {
		return nil, err
	}

	dup, err := s.store.HasDuplicateAccount(ctx, merged.BankName, merged.BranchNumber, merged.AccountNumber, &id)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if dup {
		return nil, ErrDuplicateAccount
	}

	now := s.now()
	ok, err := s.store.UpdateAccount(ctx, id, upd, now)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	if !ok {
		return nil, ErrAccountNotFound
	}
	merged.UpdatedAt = now
	return &merged, nil
}

// DeleteAccount removes an account; its associations are cascaded by
// the store in the same transaction.
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	ok, err := s.store.DeleteAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if !ok {
		return ErrAccountNotFound
	}
	return nil
}

// GetAccount fetches a single account.
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*store.Account, error) {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if a == nil {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

// ListAccounts returns accounts matching the filter, in manual order
// with bank-name tie break. Search text longer than MaxSearchLen runes
// is rejected.
func (s *Service) ListAccounts(ctx context.Context, filter FilterState) ([]*store.Account, error) {
	search := strings.TrimSpace(filter.SearchText)
	if utf8.RuneCountInString(search) > MaxSearchLen {
		return nil, ErrSearchQueryTooLong
	}
	accounts, err := s.store.ListAccounts(ctx, search, filter.TagID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}
