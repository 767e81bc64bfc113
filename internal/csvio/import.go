package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/junnakarai/bankpocket/internal/core"
	"github.com/junnakarai/bankpocket/internal/store"
)

// dupKey identifies an account for duplicate detection. Only accounts
// with both a branch number and an account number participate.
type dupKey struct {
	bank    string
	branch  string
	account string
}

// Import reconciles CSV text from r against the store.
//
// The first line is the header and is discarded without inspection.
// Each data row is parsed with standard CSV quoting, trimmed, validated,
// and checked for duplicates against existing accounts plus the rows
// already accepted in this run. Tag names in the fifth column resolve
// against existing tags by exact name; unknown names are skipped
// silently. A row failure is recorded as 行N (N counts the header as
// line 1) and never stops the run.
//
// Rows that survive are committed in one transaction, and only when at
// least one row succeeded. A commit failure leaves the store untouched
// and is returned as an error distinct from the per-row ones.
func (e *Engine) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import source: %w", err)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	if len(strings.Split(content, "\n")) < 2 {
		return nil, ErrInvalidFormat
	}

	cr := csv.NewReader(strings.NewReader(content))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(records) == 0 {
		return nil, ErrInvalidFormat
	}
	rows := records[1:]

	seen, err := e.existingDupKeys(ctx)
	if err != nil {
		return nil, err
	}
	tagsByName, err := e.existingTagsByName(ctx)
	if err != nil {
		return nil, err
	}
	maxOrder, err := e.store.MaxAccountSortOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("max sort order: %w", err)
	}

	result := &ImportResult{}
	var staged []store.StagedAccount
	now := e.now()

	for i, row := range rows {
		rowNum := i + 2 // header is line 1

		if len(row) < 4 {
			result.Errors = append(result.Errors, fmt.Sprintf("行%d: %s", rowNum, ErrInvalidRowFormat.Error()))
			result.ErrorCount++
			continue
		}

		bankName := strings.TrimSpace(row[0])
		branchName := strings.TrimSpace(row[1])
		branchNumber := strings.TrimSpace(row[2])
		accountNumber := strings.TrimSpace(row[3])
		tagNames := ""
		if len(row) > 4 {
			tagNames = strings.TrimSpace(row[4])
		}

		if err := core.ValidateAccount(bankName, branchName, branchNumber, accountNumber); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("行%d: %s", rowNum, err.Error()))
			result.ErrorCount++
			continue
		}

		if branchNumber != "" && accountNumber != "" {
			key := dupKey{bankName, branchNumber, accountNumber}
			if seen[key] {
				result.Errors = append(result.Errors, fmt.Sprintf("行%d: %s", rowNum, errDuplicateRow))
				result.ErrorCount++
				continue
			}
			seen[key] = true
		}

		account := store.Account{
			ID:            uuid.New(),
			BankName:      bankName,
			BranchName:    branchName,
			BranchNumber:  branchNumber,
			AccountNumber: accountNumber,
			SortOrder:     maxOrder + 1 + len(staged),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		staged = append(staged, store.StagedAccount{
			Account: account,
			TagIDs:  resolveTagIDs(tagNames, tagsByName),
		})
		result.SuccessCount++
	}

	if result.SuccessCount > 0 {
		if err := e.store.ImportAccounts(ctx, staged); err != nil {
			return nil, fmt.Errorf("import commit: %w", err)
		}
	}

	return result, nil
}

// existingDupKeys builds the duplicate-detection set from accounts
// already in the store.
func (e *Engine) existingDupKeys(ctx context.Context) (map[dupKey]bool, error) {
	accounts, err := e.store.ListAccounts(ctx, "", nil)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	seen := make(map[dupKey]bool, len(accounts))
	for _, a := range accounts {
		if a.BranchNumber == "" || a.AccountNumber == "" {
			continue
		}
		seen[dupKey{a.BankName, a.BranchNumber, a.AccountNumber}] = true
	}
	return seen, nil
}

// existingTagsByName indexes the current tags by exact name.
func (e *Engine) existingTagsByName(ctx context.Context) (map[string]uuid.UUID, error) {
	tags, err := e.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	byName := make(map[string]uuid.UUID, len(tags))
	for _, t := range tags {
		byName[t.Name] = t.ID
	}
	return byName, nil
}

// resolveTagIDs maps a ;-joined tag name list onto existing tag IDs.
// Names that match no tag are dropped without error, and repeated names
// produce one association.
func resolveTagIDs(tagNames string, byName map[string]uuid.UUID) []uuid.UUID {
	if tagNames == "" {
		return nil
	}
	var ids []uuid.UUID
	added := make(map[uuid.UUID]bool)
	for _, name := range strings.Split(tagNames, ";") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, ok := byName[name]
		if !ok || added[id] {
			continue
		}
		added[id] = true
		ids = append(ids, id)
	}
	return ids
}
