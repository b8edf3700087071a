// Package comic manages comic records and their stored page images.
package comic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Comic represents a published comic: metadata plus the ordered page images.
// ImageURLs holds the display order; ImageKeys holds the matching store keys
// (empty slice entries never occur — placeholder URLs carry no key and the
// keys column simply has fewer entries in degraded mode).
type Comic struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"authorId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        string    `json:"tags"`
	ImageURLs   []string  `json:"imageUrls"`
	ImageKeys   []string  `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ErrNotFound is returned when a comic does not exist.
var ErrNotFound = errors.New("comic not found")

const comicColumns = `id, author_id, title, description, tags, image_urls, image_keys, created_at, updated_at`

// Repository handles all comic database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanComic(row pgx.Row) (*Comic, error) {
	c := &Comic{}
	err := row.Scan(&c.ID, &c.AuthorID, &c.Title, &c.Description, &c.Tags,
		&c.ImageURLs, &c.ImageKeys, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new comic and returns the created record.
func (r *Repository) Create(ctx context.Context, authorID, title, description, tags string, imageURLs, imageKeys []string) (*Comic, error) {
	c, err := scanComic(r.db.QueryRow(ctx,
		`INSERT INTO comics (author_id, title, description, tags, image_urls, image_keys)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+comicColumns,
		authorID, title, description, tags, imageURLs, imageKeys,
	))
	if err != nil {
		return nil, fmt.Errorf("create comic: %w", err)
	}
	return c, nil
}

// GetByID fetches a comic by its UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Comic, error) {
	c, err := scanComic(r.db.QueryRow(ctx,
		`SELECT `+comicColumns+` FROM comics WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get comic by id: %w", err)
	}
	return c, err
}

// List returns a page of comics, newest first, with the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Comic, int, error) {
	return r.query(ctx,
		`SELECT `+comicColumns+` FROM comics ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		`SELECT count(*) FROM comics`,
		[]any{limit, offset}, nil)
}

// ListByAuthor returns a page of one author's comics, newest first.
func (r *Repository) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]Comic, int, error) {
	return r.query(ctx,
		`SELECT `+comicColumns+` FROM comics WHERE author_id = $3 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		`SELECT count(*) FROM comics WHERE author_id = $1`,
		[]any{limit, offset, authorID}, []any{authorID})
}

// Search returns comics whose title, description, or tags match q,
// case-insensitive, newest first.
func (r *Repository) Search(ctx context.Context, q string, limit, offset int) ([]Comic, int, error) {
	pattern := "%" + q + "%"
	return r.query(ctx,
		`SELECT `+comicColumns+` FROM comics
		 WHERE title ILIKE $3 OR description ILIKE $3 OR tags ILIKE $3
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		`SELECT count(*) FROM comics WHERE title ILIKE $1 OR description ILIKE $1 OR tags ILIKE $1`,
		[]any{limit, offset, pattern}, []any{pattern})
}

func (r *Repository) query(ctx context.Context, listSQL, countSQL string, listArgs, countArgs []any) ([]Comic, int, error) {
	rows, err := r.db.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list comics: %w", err)
	}
	defer rows.Close()

	comics := []Comic{}
	for rows.Next() {
		c := Comic{}
		if err := rows.Scan(&c.ID, &c.AuthorID, &c.Title, &c.Description, &c.Tags,
			&c.ImageURLs, &c.ImageKeys, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan comic: %w", err)
		}
		comics = append(comics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate comics: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comics: %w", err)
	}
	return comics, total, nil
}

// Delete removes a comic row. The caller releases the stored objects.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comics WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comic: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
