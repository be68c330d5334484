package consent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"consentledger/pkg/platform/sentinel"
)

// PostgresStore persists consent records in PostgreSQL. Scopes live in a
// text[] column; revocation is an UPDATE of revoked_at only, never a DELETE,
// so the grant history stays queryable.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed consent store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const consentColumns = `id, patient_ref, scopes, granted_at, expires_at, created_at, updated_at, revoked_at`

func (s *PostgresStore) Save(ctx context.Context, consent *Consent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consents (`+consentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		consent.ID,
		consent.PatientRef,
		pq.Array(consent.Scopes),
		consent.GrantedAt,
		consent.ExpiresAt,
		consent.CreatedAt,
		consent.UpdatedAt,
		nullTime(consent.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("insert consent: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Consent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+consentColumns+`
		FROM consents
		WHERE id = $1
	`, id)
	return scanConsent(row)
}

func (s *PostgresStore) ListByPatientRef(ctx context.Context, patientRef string) ([]*Consent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+consentColumns+`
		FROM consents
		WHERE patient_ref = $1
		ORDER BY granted_at DESC, id ASC
	`, patientRef)
	if err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	defer rows.Close()

	var out []*Consent
	for rows.Next() {
		c, err := scanConsent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindActiveByPatientRefAndScope(ctx context.Context, patientRef string, scope Scope, asOf time.Time) (*Consent, error) {
	// Validity is strict: asOf < expires_at, and a revoked grant stops
	// qualifying from its revocation instant onward.
	row := s.db.QueryRowContext(ctx, `
		SELECT `+consentColumns+`
		FROM consents
		WHERE patient_ref = $1
		  AND $2 = ANY(scopes)
		  AND expires_at > $3
		  AND (revoked_at IS NULL OR revoked_at > $3)
		ORDER BY granted_at DESC, id ASC
		LIMIT 1
	`, patientRef, scope, asOf)
	return scanConsent(row)
}

func (s *PostgresStore) MarkRevoked(ctx context.Context, id uuid.UUID, revokedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE consents
		SET revoked_at = $2, updated_at = GREATEST(updated_at, $2)
		WHERE id = $1 AND revoked_at IS NULL
	`, id, revokedAt.UTC())
	if err != nil {
		return fmt.Errorf("revoke consent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke consent: %w", err)
	}
	if n == 0 {
		// Distinguish missing from already-revoked so the service can stay
		// idempotent about the error it reports.
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM consents WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("revoke consent: %w", err)
		}
		if exists {
			return sentinel.ErrInvalidState
		}
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsent(row rowScanner) (*Consent, error) {
	var c Consent
	var scopes pq.StringArray
	var revokedAt sql.NullTime
	err := row.Scan(
		&c.ID,
		&c.PatientRef,
		&scopes,
		&c.GrantedAt,
		&c.ExpiresAt,
		&c.CreatedAt,
		&c.UpdatedAt,
		&revokedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan consent: %w", err)
	}
	c.Scopes = []Scope(scopes)
	if revokedAt.Valid {
		at := revokedAt.Time.UTC()
		c.RevokedAt = &at
	}
	return &c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
