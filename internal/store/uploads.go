package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Upload is a stored-file record. Filename is the on-disk (uuid) name,
// Original the client-supplied one.
type Upload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Filename  string    `json:"filename"`
	Original  string    `json:"original"`
	MIMEType  string    `json:"mimeType"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

const uploadColumns = "id, user_id, filename, original, mime_type, size_bytes, created_at"

func scanUpload(row interface{ Scan(...any) error }) (*Upload, error) {
	var u Upload
	err := row.Scan(&u.ID, &u.UserID, &u.Filename, &u.Original, &u.MIMEType, &u.SizeBytes, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUpload inserts an upload record.
func (s *Store) CreateUpload(ctx context.Context, u *Upload) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (`+uploadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.UserID, u.Filename, u.Original, u.MIMEType, u.SizeBytes, u.CreatedAt)
	return err
}

// GetUpload returns an upload record by id.
func (s *Store) GetUpload(ctx context.Context, id string) (*Upload, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE id = ?`, id)
	return scanUpload(row)
}

// DeleteUpload removes an upload record.
func (s *Store) DeleteUpload(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListUploadFilenames returns the on-disk names of every stored upload.
func (s *Store) ListUploadFilenames(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename FROM uploads`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}

// ListUploads returns a page of upload records plus the total count.
func (s *Store) ListUploads(ctx context.Context, page, limit int) ([]*Upload, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uploads`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+uploadColumns+` FROM uploads ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	uploads := []*Upload{}
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, 0, err
		}
		uploads = append(uploads, u)
	}
	return uploads, total, rows.Err()
}
