package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/store"
)

// materialColumns is the ordered list of material columns, joined with the
// author row. Must match the scan order in scanMaterial.
const materialColumns = `m.id, m.user_id, u.name, m.title, m.subject, m.grade, m.type,
	m.description, m.link, m.file_url, m.file_name, m.size, m.mime_type,
	m.views, m.downloads, m.created_at`

const materialFromClause = ` FROM materials m JOIN users u ON u.id = m.user_id`

// scanMaterial scans one joined material row into a domain.Material.
func scanMaterial(scanner interface{ Scan(dest ...any) error }) (*domain.Material, error) {
	var (
		m           domain.Material
		description sql.NullString
		link        sql.NullString
		fileURL     sql.NullString
		fileName    sql.NullString
		size        sql.NullInt64
		mimeType    sql.NullString
		createdAt   string
	)

	err := scanner.Scan(
		&m.ID,
		&m.AuthorID,
		&m.AuthorName,
		&m.Title,
		&m.Subject,
		&m.Grade,
		&m.Type,
		&description,
		&link,
		&fileURL,
		&fileName,
		&size,
		&mimeType,
		&m.Views,
		&m.Downloads,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	m.Description = stringOrEmpty(description)
	m.Link = stringOrEmpty(link)
	m.FileURL = stringOrEmpty(fileURL)
	m.FileName = stringOrEmpty(fileName)
	if size.Valid {
		m.Size = size.Int64
	}
	m.MimeType = stringOrEmpty(mimeType)

	m.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// CreateMaterial inserts a new material and returns the assigned ID.
// The FTS index picks it up via trigger.
func (s *Store) CreateMaterial(ctx context.Context, m *domain.Material) (int64, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO materials (user_id, title, subject, grade, type, description, link,
			file_url, file_name, size, mime_type, views, downloads, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?)`,
		m.AuthorID,
		m.Title,
		m.Subject,
		m.Grade,
		m.Type,
		nullString(m.Description),
		nullString(m.Link),
		nullString(m.FileURL),
		nullString(m.FileName),
		m.Size,
		nullString(m.MimeType),
		formatTime(m.CreatedAt),
	)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	m.ID = id
	return id, nil
}

// GetMaterial retrieves a material by ID with author info attached.
// Returns store.ErrNotFound if the material does not exist.
func (s *Store) GetMaterial(ctx context.Context, id int64) (*domain.Material, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+materialColumns+materialFromClause+` WHERE m.id = ?`, id)

	m, err := scanMaterial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMaterial updates the editable fields of an existing material.
// Counters and ownership are not touched. The FTS index follows via trigger.
// Returns store.ErrNotFound if the material does not exist.
func (s *Store) UpdateMaterial(ctx context.Context, m *domain.Material) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE materials SET
			title = ?,
			subject = ?,
			grade = ?,
			type = ?,
			description = ?,
			link = ?,
			file_url = ?,
			file_name = ?,
			size = ?,
			mime_type = ?
		WHERE id = ?`,
		m.Title,
		m.Subject,
		m.Grade,
		m.Type,
		nullString(m.Description),
		nullString(m.Link),
		nullString(m.FileURL),
		nullString(m.FileName),
		m.Size,
		nullString(m.MimeType),
		m.ID,
	)
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

// DeleteMaterial removes a material. Attachments and favorites cascade,
// and the FTS entry is removed by trigger.
// Returns store.ErrNotFound if the material does not exist.
func (s *Store) DeleteMaterial(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id)
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

// IncrementViews bumps the view counter by one.
func (s *Store) IncrementViews(ctx context.Context, id int64) error {
	return s.incrementCounter(ctx, "views", id)
}

// IncrementDownloads bumps the download counter by one.
func (s *Store) IncrementDownloads(ctx context.Context, id int64) error {
	return s.incrementCounter(ctx, "downloads", id)
}

func (s *Store) incrementCounter(ctx context.Context, column string, id int64) error {
	// column is one of two compile-time constants, never user input.
	result, err := s.db.ExecContext(ctx,
		`UPDATE materials SET `+column+` = `+column+` + 1 WHERE id = ?`, id)
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
