package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

const accountColumns = `id, bank_name, branch_name, branch_number, account_number, sort_order, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	var id string
	var created, updated int64
	err := row.Scan(&id, &a.BankName, &a.BranchName, &a.BranchNumber, &a.AccountNumber,
		&a.SortOrder, &created, &updated)
	if err != nil {
		return nil, err
	}
	a.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	a.CreatedAt = fromUnix(created)
	a.UpdatedAt = fromUnix(updated)
	return &a, nil
}

// CreateAccount inserts a new account.
func (s *Store) CreateAccount(ctx context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID.String(), a.BankName, a.BranchName, a.BranchNumber, a.AccountNumber,
		a.SortOrder, unix(a.CreatedAt), unix(a.UpdatedAt))
	return err
}

// GetAccount retrieves an account by ID. Returns (nil, nil) when absent.
func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = ?
	`, id.String())
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// UpdateAccount applies a partial field update. Only non-nil fields
// change; updated_at is always refreshed. Returns (false, nil) when the
// account does not exist.
func (s *Store) UpdateAccount(ctx context.Context, id uuid.UUID, upd AccountUpdate, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets := []string{"updated_at = ?"}
	args := []any{unix(now)}
	if upd.BankName != nil {
		sets = append(sets, "bank_name = ?")
		args = append(args, *upd.BankName)
	}
	if upd.BranchName != nil {
		sets = append(sets, "branch_name = ?")
		args = append(args, *upd.BranchName)
	}
	if upd.BranchNumber != nil {
		sets = append(sets, "branch_number = ?")
		args = append(args, *upd.BranchNumber)
	}
	if upd.AccountNumber != nil {
		sets = append(sets, "account_number = ?")
		args = append(args, *upd.AccountNumber)
	}
	args = append(args, id.String())

	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteAccount removes an account and cascades its associations in one
// transaction. Returns (false, nil) when the account does not exist.
func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id.String())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		_, err = tx.ExecContext(ctx, `DELETE FROM associations WHERE account_id = ?`, id.String())
		return err
	})
	return deleted, err
}

// ListAccounts returns accounts filtered by an optional case-insensitive
// search over bank name, branch name and account number, and an optional
// tag. Results are ordered by sort_order, ties broken by bank name.
func (s *Store) ListAccounts(ctx context.Context, search string, tagID *uuid.UUID) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + prefixColumns("a", accountColumns) + ` FROM accounts a`
	var conds []string
	var args []any

	if tagID != nil {
		query += ` JOIN associations ass ON ass.account_id = a.id`
		conds = append(conds, `ass.tag_id = ?`)
		args = append(args, tagID.String())
	}
	if search != "" {
		pat := "%" + escapeLike(search) + "%"
		conds = append(conds, `(a.bank_name LIKE ? ESCAPE '\' OR a.branch_name LIKE ? ESCAPE '\' OR a.account_number LIKE ? ESCAPE '\')`)
		args = append(args, pat, pat, pat)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY a.sort_order, a.bank_name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// HasDuplicateAccount reports whether an account with the same bank name,
// branch number and account number already exists. Accounts missing
// either optional number are never considered duplicates. excludeID
// skips the account being updated, if any.
func (s *Store) HasDuplicateAccount(ctx context.Context, bankName, branchNumber, accountNumber string, excludeID *uuid.UUID) (bool, error) {
	if branchNumber == "" || accountNumber == "" {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT COUNT(*) FROM accounts
		WHERE bank_name = ? AND branch_number = ? AND account_number = ?`
	args := []any{bankName, branchNumber, accountNumber}
	if excludeID != nil {
		query += ` AND id != ?`
		args = append(args, excludeID.String())
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// MaxAccountSortOrder returns the highest sort_order among accounts, or
// -1 when the store holds none.
func (s *Store) MaxAccountSortOrder(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM accounts`).Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

// SetAccountSortOrders assigns sort orders in one transaction. The map
// key is the account ID, the value its new order.
func (s *Store) SetAccountSortOrders(ctx context.Context, orders map[uuid.UUID]int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE accounts SET sort_order = ?, updated_at = ? WHERE id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for id, order := range orders {
			if _, err := stmt.ExecContext(ctx, order, unix(now), id.String()); err != nil {
				return err
			}
		}
		return nil
	})
}

// ImportAccounts commits a batch of staged accounts and their tag
// associations in a single transaction. Either the whole batch becomes
// visible or none of it does.
func (s *Store) ImportAccounts(ctx context.Context, staged []StagedAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		accStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO accounts (`+accountColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer accStmt.Close()

		assStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO associations (id, account_id, tag_id, created_at)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer assStmt.Close()

		for _, st := range staged {
			a := st.Account
			_, err := accStmt.ExecContext(ctx, a.ID.String(), a.BankName, a.BranchName,
				a.BranchNumber, a.AccountNumber, a.SortOrder, unix(a.CreatedAt), unix(a.UpdatedAt))
			if err != nil {
				return err
			}
			for _, tagID := range st.TagIDs {
				_, err := assStmt.ExecContext(ctx, uuid.New().String(), a.ID.String(),
					tagID.String(), unix(a.CreatedAt))
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// prefixColumns qualifies a comma-separated column list with a table
// alias for use in joined queries.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

// escapeLike escapes LIKE wildcards in user-provided search text.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
