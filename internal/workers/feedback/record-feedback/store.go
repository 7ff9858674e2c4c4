package recordfeedback

import (
	"context"
	"database/sql"
	"fmt"

	"health-assistant/internal/models"

	"github.com/lib/pq"
)

// DB hands out the shared connection pool, opening it on first use.
type DB interface {
	Get(ctx context.Context) (*sql.DB, error)
}

// PostgresStore persists feedback rows. Errors from DB.Get are returned
// wrapped in ErrConnection so callers can tell them from write failures.
type PostgresStore struct {
	db    DB
	table string
}

func NewPostgresStore(db DB, table string) *PostgresStore {
	return &PostgresStore{db: db, table: pq.QuoteIdentifier(table)}
}

func (s *PostgresStore) Insert(ctx context.Context, feedback *models.Feedback) error {
	db, err := s.db.Get(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (id, rate, feedback, schema_version, created_at) VALUES ($1, $2, $3, $4, $5)`,
		s.table,
	)
	_, err = db.ExecContext(ctx, query,
		feedback.ID,
		feedback.Rate,
		feedback.Feedback,
		feedback.SchemaVersion,
		feedback.CreatedAt,
	)
	return err
}

func (s *PostgresStore) CountByRate(ctx context.Context) (map[int]int64, error) {
	db, err := s.db.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT rate, COUNT(*) FROM %s GROUP BY rate`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var rate int
		var n int64
		if err := rows.Scan(&rate, &n); err != nil {
			return nil, err
		}
		counts[rate] = n
	}
	return counts, rows.Err()
}
