package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Testimonial is a client quote row.
type Testimonial struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Author    string    `json:"author"`
	Company   string    `json:"company"`
	Quote     string    `json:"quote"`
	Rating    int       `json:"rating"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const testimonialColumns = "id, user_id, author, company, quote, rating, approved, created_at, updated_at"

func scanTestimonial(row interface{ Scan(...any) error }) (*Testimonial, error) {
	var t Testimonial
	err := row.Scan(&t.ID, &t.UserID, &t.Author, &t.Company, &t.Quote,
		&t.Rating, &t.Approved, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTestimonial inserts a testimonial row.
func (s *Store) CreateTestimonial(ctx context.Context, t *Testimonial) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO testimonials (`+testimonialColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Author, t.Company, t.Quote, t.Rating, t.Approved, t.CreatedAt, t.UpdatedAt)
	return err
}

// GetTestimonial returns a testimonial by id.
func (s *Store) GetTestimonial(ctx context.Context, id string) (*Testimonial, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+testimonialColumns+` FROM testimonials WHERE id = ?`, id)
	return scanTestimonial(row)
}

// UpdateTestimonial persists all mutable fields.
func (s *Store) UpdateTestimonial(ctx context.Context, t *Testimonial) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE testimonials SET author = ?, company = ?, quote = ?, rating = ?, approved = ?, updated_at = ? WHERE id = ?`,
		t.Author, t.Company, t.Quote, t.Rating, t.Approved, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteTestimonial removes a testimonial row.
func (s *Store) DeleteTestimonial(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM testimonials WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListTestimonials returns a page of testimonials plus the total count.
// When approvedOnly is set, unapproved quotes are excluded (public listing).
func (s *Store) ListTestimonials(ctx context.Context, page, limit int, approvedOnly bool) ([]*Testimonial, int, error) {
	where := ""
	if approvedOnly {
		where = " WHERE approved = 1"
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM testimonials`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+testimonialColumns+` FROM testimonials`+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	testimonials := []*Testimonial{}
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, 0, err
		}
		testimonials = append(testimonials, t)
	}
	return testimonials, total, rows.Err()
}
