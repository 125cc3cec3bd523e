package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cdr-tool/internal/content"
	"cdr-tool/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ContentStore loads and publishes content documents kept in the contents table.
type ContentStore struct {
	pool *pgxpool.Pool
}

func NewContentStore(pool *pgxpool.Pool) *ContentStore {
	return &ContentStore{pool: pool}
}

// LoadContent implements content.Loader.
func (s *ContentStore) LoadContent(ctx context.Context, edition string) (*domain.Content, error) {
	data, err := s.Source(ctx, edition)
	if err != nil {
		return nil, err
	}
	return content.Parse(edition, data)
}

// Source returns the published document of an edition.
func (s *ContentStore) Source(ctx context.Context, edition string) ([]byte, error) {
	var raw string
	err := s.pool.QueryRow(ctx, `SELECT data FROM contents WHERE id=$1`, edition).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", domain.ErrContentNotFound, edition)
	}
	if err != nil {
		return nil, fmt.Errorf("load content %s: %w", edition, err)
	}
	return []byte(raw), nil
}

// Publish stores a document under an edition, replacing any earlier version.
func (s *ContentStore) Publish(ctx context.Context, edition string, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contents (id, data, published_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, published_at = EXCLUDED.published_at`,
		edition, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("publish content %s: %w", edition, err)
	}
	return nil
}

// Editions lists published edition keys.
func (s *ContentStore) Editions(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM contents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
