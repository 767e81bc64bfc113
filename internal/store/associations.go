package store

import (
	"context"

	"github.com/google/uuid"
)

const associationColumns = `id, account_id, tag_id, created_at`

// CreateAssociation inserts a join record for an (account, tag) pair.
// The unique index rejects a second record for the same pair.
func (s *Store) CreateAssociation(ctx context.Context, a *Association) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO associations (`+associationColumns+`)
		VALUES (?, ?, ?, ?)
	`, a.ID.String(), a.AccountID.String(), a.TagID.String(), unix(a.CreatedAt))
	return err
}

// DeleteAssociations removes every association for the given pair and
// returns how many were removed. There should be at most one; more are
// handled all the same.
func (s *Store) DeleteAssociations(ctx context.Context, accountID, tagID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM associations WHERE account_id = ? AND tag_id = ?`,
		accountID.String(), tagID.String())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// HasAssociation reports whether a join record exists for the pair.
func (s *Store) HasAssociation(ctx context.Context, accountID, tagID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM associations WHERE account_id = ? AND tag_id = ?`,
		accountID.String(), tagID.String()).Scan(&n)
	return n > 0, err
}

// TagsForAccount returns the tags associated with an account, ordered by
// tag sort_order then name.
func (s *Store) TagsForAccount(ctx context.Context, accountID uuid.UUID) ([]*Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixColumns("t", tagColumns)+`
		FROM tags t
		JOIN associations a ON a.tag_id = t.id
		WHERE a.account_id = ?
		ORDER BY t.sort_order, t.name
	`, accountID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// AccountsForTag returns the accounts associated with a tag, ordered by
// account sort_order then bank name.
func (s *Store) AccountsForTag(ctx context.Context, tagID uuid.UUID) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixColumns("a", accountColumns)+`
		FROM accounts a
		JOIN associations ass ON ass.account_id = a.id
		WHERE ass.tag_id = ?
		ORDER BY a.sort_order, a.bank_name
	`, tagID.String())
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

// AssociationsForAccount returns the raw join records for an account.
func (s *Store) AssociationsForAccount(ctx context.Context, accountID uuid.UUID) ([]*Association, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+associationColumns+` FROM associations WHERE account_id = ?
	`, accountID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Association
	for rows.Next() {
		var a Association
		var id, accID, tagID string
		var created int64
		if err := rows.Scan(&id, &accID, &tagID, &created); err != nil {
			return nil, err
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if a.AccountID, err = uuid.Parse(accID); err != nil {
			return nil, err
		}
		if a.TagID, err = uuid.Parse(tagID); err != nil {
			return nil, err
		}
		a.CreatedAt = fromUnix(created)
		out = append(out, &a)
	}
	return out, rows.Err()
}
