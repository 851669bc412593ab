package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Service is an offered-service row.
type Service struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	PriceHint   string    `json:"priceHint"`
	Active      bool      `json:"active"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const serviceColumns = "id, user_id, title, slug, description, icon, price_hint, active, sort_order, created_at, updated_at"

func scanService(row interface{ Scan(...any) error }) (*Service, error) {
	var sv Service
	err := row.Scan(&sv.ID, &sv.UserID, &sv.Title, &sv.Slug, &sv.Description, &sv.Icon,
		&sv.PriceHint, &sv.Active, &sv.SortOrder, &sv.CreatedAt, &sv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sv, nil
}

// CreateService inserts a service row.
func (s *Store) CreateService(ctx context.Context, sv *Service) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO services (`+serviceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sv.ID, sv.UserID, sv.Title, sv.Slug, sv.Description, sv.Icon,
		sv.PriceHint, sv.Active, sv.SortOrder, sv.CreatedAt, sv.UpdatedAt)
	return err
}

// GetService returns a service by id.
func (s *Store) GetService(ctx context.Context, id string) (*Service, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)
	return scanService(row)
}

// GetServiceBySlug returns a service by its unique slug.
func (s *Store) GetServiceBySlug(ctx context.Context, slug string) (*Service, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE slug = ?`, slug)
	return scanService(row)
}

// UpdateService persists all mutable fields.
func (s *Store) UpdateService(ctx context.Context, sv *Service) error {
	sv.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE services SET title = ?, slug = ?, description = ?, icon = ?, price_hint = ?,
		 active = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		sv.Title, sv.Slug, sv.Description, sv.Icon, sv.PriceHint,
		sv.Active, sv.SortOrder, sv.UpdatedAt, sv.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteService removes a service row.
func (s *Store) DeleteService(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListServices returns a page of services plus the total count. When
// activeOnly is set, inactive services are excluded (public listing).
func (s *Store) ListServices(ctx context.Context, page, limit int, activeOnly bool) ([]*Service, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE active = 1"
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM services`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services`+where+` ORDER BY sort_order ASC, created_at DESC LIMIT ? OFFSET ?`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	services := []*Service{}
	for rows.Next() {
		sv, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		services = append(services, sv)
	}
	return services, total, rows.Err()
}
