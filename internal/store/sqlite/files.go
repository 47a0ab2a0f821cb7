package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/store"
)

const fileColumns = `id, material_id, file_url, file_name, is_main, size, mime_type, blur_hash, created_at`

func scanMaterialFile(scanner interface{ Scan(dest ...any) error }) (*domain.MaterialFile, error) {
	var (
		f         domain.MaterialFile
		isMain    int
		size      sql.NullInt64
		mimeType  sql.NullString
		blurHash  sql.NullString
		createdAt string
	)

	err := scanner.Scan(
		&f.ID,
		&f.MaterialID,
		&f.FileURL,
		&f.FileName,
		&isMain,
		&size,
		&mimeType,
		&blurHash,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	f.IsMain = isMain != 0
	if size.Valid {
		f.Size = size.Int64
	}
	f.MimeType = stringOrEmpty(mimeType)
	f.BlurHash = stringOrEmpty(blurHash)

	f.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// AddMaterialFile inserts an attachment row and returns its ID.
func (s *Store) AddMaterialFile(ctx context.Context, f *domain.MaterialFile) (int64, error) {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO material_files (material_id, file_url, file_name, is_main, size, mime_type, blur_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.MaterialID,
		f.FileURL,
		f.FileName,
		boolToInt(f.IsMain),
		f.Size,
		nullString(f.MimeType),
		nullString(f.BlurHash),
		formatTime(f.CreatedAt),
	)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	f.ID = id
	return id, nil
}

// GetMaterialFile retrieves an attachment by ID.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetMaterialFile(ctx context.Context, id int64) (*domain.MaterialFile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM material_files WHERE id = ?`, id)

	f, err := scanMaterialFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListFilesByMaterialIDs loads attachments for a batch of materials in one
// query, grouped by material ID. Used to enrich listing pages without an
// N+1 query per row.
func (s *Store) ListFilesByMaterialIDs(ctx context.Context, materialIDs []int64) (map[int64][]*domain.MaterialFile, error) {
	grouped := make(map[int64][]*domain.MaterialFile)
	if len(materialIDs) == 0 {
		return grouped, nil
	}

	placeholders := strings.Repeat("?,", len(materialIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(materialIDs))
	for i, id := range materialIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM material_files
		WHERE material_id IN (`+placeholders+`)
		ORDER BY is_main DESC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanMaterialFile(rows)
		if err != nil {
			return nil, err
		}
		grouped[f.MaterialID] = append(grouped[f.MaterialID], f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grouped, nil
}

// DeleteMaterialFile removes an attachment row.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) DeleteMaterialFile(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM material_files WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CountMaterialFiles returns the number of attachments on a material.
func (s *Store) CountMaterialFiles(ctx context.Context, materialID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM material_files WHERE material_id = ?`, materialID).Scan(&n)
	return n, err
}

// MarkMainFile flags one attachment as the material's main file and clears
// the flag on its siblings, atomically.
// Returns store.ErrNotFound if the file does not belong to the material.
func (s *Store) MarkMainFile(ctx context.Context, materialID, fileID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE material_files SET is_main = 1 WHERE id = ? AND material_id = ?`,
		fileID, materialID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE material_files SET is_main = 0 WHERE material_id = ? AND id != ?`,
		materialID, fileID); err != nil {
		return err
	}

	return tx.Commit()
}
