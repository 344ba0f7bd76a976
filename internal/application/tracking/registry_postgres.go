package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "schemeflow/pkg/domain"
	"schemeflow/pkg/platform/sentinel"
	"schemeflow/pkg/requestcontext"
)

const uniqueViolation = "23505"

// PostgresRegistry reserves references in the tracking_references table, whose
// primary key makes reservation atomic across server instances.
type PostgresRegistry struct {
	db *sql.DB
}

func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

func (r *PostgresRegistry) Reserve(ctx context.Context, ref id.TrackingReference) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tracking_references (reference, reserved_at) VALUES ($1, $2)`,
		string(ref), requestcontext.Now(ctx))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("reserve tracking reference: %w", err)
	}
	return nil
}
