package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Project is a portfolio project row. Tags are stored comma-joined.
type Project struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Summary   string    `json:"summary"`
	Body      string    `json:"body"`
	CoverID   string    `json:"coverId"`
	Tags      []string  `json:"tags"`
	Published bool      `json:"published"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const projectColumns = "id, user_id, title, slug, summary, body, cover_id, tags, published, sort_order, created_at, updated_at"

func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	var p Project
	var tags string
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Slug, &p.Summary, &p.Body, &p.CoverID,
		&tags, &p.Published, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Tags = splitTags(tags)
	return &p, nil
}

// CreateProject inserts a project row.
func (s *Store) CreateProject(ctx context.Context, p *Project) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Title, p.Slug, p.Summary, p.Body, p.CoverID,
		joinTags(p.Tags), p.Published, p.SortOrder, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetProject returns a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// GetProjectBySlug returns a project by its unique slug.
func (s *Store) GetProjectBySlug(ctx context.Context, slug string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug = ?`, slug)
	return scanProject(row)
}

// UpdateProject persists all mutable fields.
func (s *Store) UpdateProject(ctx context.Context, p *Project) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET title = ?, slug = ?, summary = ?, body = ?, cover_id = ?,
		 tags = ?, published = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		p.Title, p.Slug, p.Summary, p.Body, p.CoverID,
		joinTags(p.Tags), p.Published, p.SortOrder, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteProject removes a project row.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListProjects returns a page of projects plus the total count. When
// publishedOnly is set, drafts are excluded (public listing).
func (s *Store) ListProjects(ctx context.Context, page, limit int, publishedOnly bool) ([]*Project, int, error) {
	where := ""
	if publishedOnly {
		where = " WHERE published = 1"
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects`+where+` ORDER BY sort_order ASC, created_at DESC LIMIT ? OFFSET ?`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, p)
	}
	return projects, total, rows.Err()
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
