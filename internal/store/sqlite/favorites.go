package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/edubase4teachers/edubase-server/internal/store"
)

// AddFavorite bookmarks a material for a user. Idempotent: favoriting the
// same material twice is not an error.
func (s *Store) AddFavorite(ctx context.Context, userID, materialID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, material_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, material_id) DO NOTHING`,
		userID, materialID, formatTime(time.Now()))
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return store.ErrNotFound
	}
	return err
}

// RemoveFavorite removes a bookmark. Idempotent: removing a bookmark that
// does not exist is not an error.
func (s *Store) RemoveFavorite(ctx context.Context, userID, materialID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND material_id = ?`,
		userID, materialID)
	return err
}

// IsFavorite reports whether the user has bookmarked the material.
func (s *Store) IsFavorite(ctx context.Context, userID, materialID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = ? AND material_id = ?`,
		userID, materialID).Scan(&n)
	return n > 0, err
}

// ListFavoriteIDs returns the IDs of all materials the user has bookmarked,
// newest bookmark first.
func (s *Store) ListFavoriteIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT material_id FROM favorites WHERE user_id = ? ORDER BY datetime(created_at) DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
