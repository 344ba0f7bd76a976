package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"schemeflow/internal/application/models"
	schememodels "schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	"schemeflow/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

const selectColumns = `id, scheme_id, session_id, current_step, total_steps, responses, status,
	tracking_reference, created_at, updated_at, submitted_at`

// PostgresStore persists applications in the applications table.
// Execute takes a row lock with SELECT ... FOR UPDATE so validate and mutate see
// the row exactly as it is committed.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	responses, err := encodeResponses(app.Responses)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(app.ID), string(app.SchemeID), uuid.UUID(app.SessionID),
		app.CurrentStep, app.TotalSteps, string(responses), string(app.Status),
		nullableRef(app.TrackingReference), app.CreatedAt, app.UpdatedAt, app.SubmittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM applications WHERE id = $1`, uuid.UUID(appID))
	app, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) FindByTrackingReference(ctx context.Context, ref id.TrackingReference) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM applications WHERE tracking_reference = $1`, string(ref))
	app, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("find application by tracking reference: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin application update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM applications WHERE id = $1 FOR UPDATE`, uuid.UUID(appID))
	app, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("lock application: %w", err)
	}
	if err := validate(app); err != nil {
		return nil, err
	}
	mutate(app)

	responses, err := encodeResponses(app.Responses)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE applications
		SET current_step = $2, responses = $3, status = $4, tracking_reference = $5,
			updated_at = $6, submitted_at = $7
		WHERE id = $1`,
		uuid.UUID(app.ID), app.CurrentStep, string(responses), string(app.Status),
		nullableRef(app.TrackingReference), app.UpdatedAt, app.SubmittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrAlreadyUsed
		}
		return nil, fmt.Errorf("update application: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit application update: %w", err)
	}
	return app, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app         models.Application
		appID       uuid.UUID
		sessionID   uuid.UUID
		schemeID    string
		status      string
		responses   []byte
		ref         sql.NullString
		submittedAt sql.NullTime
	)
	err := row.Scan(&appID, &schemeID, &sessionID, &app.CurrentStep, &app.TotalSteps, &responses,
		&status, &ref, &app.CreatedAt, &app.UpdatedAt, &submittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	app.ID = id.ApplicationID(appID)
	app.SessionID = id.SessionID(sessionID)
	app.SchemeID = id.SchemeID(schemeID)
	app.Status = models.Status(status)
	if ref.Valid {
		app.TrackingReference = id.TrackingReference(ref.String)
	}
	if submittedAt.Valid {
		t := submittedAt.Time.UTC()
		app.SubmittedAt = &t
	}
	app.CreatedAt = app.CreatedAt.UTC()
	app.UpdatedAt = app.UpdatedAt.UTC()
	if app.Responses, err = decodeResponses(responses); err != nil {
		return nil, err
	}
	return &app, nil
}

// Responses are stored as a jsonb object keyed by the decimal step number. lib/pq
// sends []byte as bytea, so callers pass the encoded form as a string.
func encodeResponses(responses map[int]schememodels.Value) ([]byte, error) {
	out := make(map[string]schememodels.Value, len(responses))
	for n, v := range responses {
		out[strconv.Itoa(n)] = v
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode responses: %w", err)
	}
	return b, nil
}

func decodeResponses(b []byte) (map[int]schememodels.Value, error) {
	raw := map[string]schememodels.Value{}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("decode responses: %w", err)
		}
	}
	out := make(map[int]schememodels.Value, len(raw))
	for k, v := range raw {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("decode responses: step key %q: %w", k, err)
		}
		out[n] = v
	}
	return out, nil
}

func nullableRef(ref id.TrackingReference) sql.NullString {
	return sql.NullString{String: string(ref), Valid: ref != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
