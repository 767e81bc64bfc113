package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

const tagColumns = `id, name, color, sort_order, created_at, updated_at`

func scanTag(row interface{ Scan(...any) error }) (*Tag, error) {
	var t Tag
	var id string
	var created, updated int64
	err := row.Scan(&id, &t.Name, &t.Color, &t.SortOrder, &created, &updated)
	if err != nil {
		return nil, err
	}
	t.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = fromUnix(created)
	t.UpdatedAt = fromUnix(updated)
	return &t, nil
}

// CreateTag inserts a new tag.
func (s *Store) CreateTag(ctx context.Context, t *Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (`+tagColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID.String(), t.Name, t.Color, t.SortOrder, unix(t.CreatedAt), unix(t.UpdatedAt))
	return err
}

// GetTag retrieves a tag by ID. Returns (nil, nil) when absent.
func (s *Store) GetTag(ctx context.Context, id uuid.UUID) (*Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = ?`, id.String())
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// ListTags returns all tags ordered by sort_order, ties broken by name.
func (s *Store) ListTags(ctx context.Context) ([]*Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY sort_order, name`)
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

// UpdateTag applies a partial field update; updated_at is always
// refreshed. Returns (false, nil) when the tag does not exist.
func (s *Store) UpdateTag(ctx context.Context, id uuid.UUID, upd TagUpdate, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets := []string{"updated_at = ?"}
	args := []any{unix(now)}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *upd.Color)
	}
	args = append(args, id.String())

	res, err := s.db.ExecContext(ctx,
		`UPDATE tags SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteTag removes a tag and cascades its associations in one
// transaction. Returns (false, nil) when the tag does not exist.
func (s *Store) DeleteTag(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id.String())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		_, err = tx.ExecContext(ctx, `DELETE FROM associations WHERE tag_id = ?`, id.String())
		return err
	})
	return deleted, err
}

// HasDuplicateTag reports whether a tag with the given name exists,
// compared case-insensitively. The comparison happens in Go because
// SQLite's LOWER folds ASCII only. excludeID skips the tag being
// updated.
func (s *Store) HasDuplicateTag(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT name FROM tags`
	var args []any
	if excludeID != nil {
		query += ` WHERE id != ?`
		args = append(args, excludeID.String())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var existing string
		if err := rows.Scan(&existing); err != nil {
			return false, err
		}
		if strings.EqualFold(existing, name) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// MaxTagSortOrder returns the highest sort_order among tags, or -1 when
// the store holds none.
func (s *Store) MaxTagSortOrder(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM tags`).Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

// TagAccountCount returns the number of accounts associated with a tag.
func (s *Store) TagAccountCount(ctx context.Context, id uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM associations WHERE tag_id = ?`, id.String()).Scan(&n)
	return n, err
}

// TagAccountCounts returns the association count per tag in one query.
// Tags with no associations are absent from the map.
func (s *Store) TagAccountCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT tag_id, COUNT(*) FROM associations GROUP BY tag_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var raw string
		var n int
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
