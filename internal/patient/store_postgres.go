package patient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"consentledger/pkg/platform/sentinel"
)

// PostgresStore persists patient directory records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed patient store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, p *Patient) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patients (
			id, reference_id, name, date_of_birth, phone,
			emergency_contact_name, emergency_contact_phone,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (reference_id) DO UPDATE SET
			name = EXCLUDED.name,
			date_of_birth = EXCLUDED.date_of_birth,
			phone = EXCLUDED.phone,
			emergency_contact_name = EXCLUDED.emergency_contact_name,
			emergency_contact_phone = EXCLUDED.emergency_contact_phone,
			updated_at = EXCLUDED.updated_at
	`,
		p.ID,
		p.ReferenceID,
		p.Name,
		p.DateOfBirth,
		p.Phone,
		p.EmergencyContactName,
		p.EmergencyContactPhone,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save patient: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByReferenceID(ctx context.Context, referenceID string) (*Patient, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, reference_id, name, date_of_birth, phone,
		       emergency_contact_name, emergency_contact_phone,
		       created_at, updated_at
		FROM patients
		WHERE reference_id = $1
	`, referenceID)

	var p Patient
	err := row.Scan(
		&p.ID,
		&p.ReferenceID,
		&p.Name,
		&p.DateOfBirth,
		&p.Phone,
		&p.EmergencyContactName,
		&p.EmergencyContactPhone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) DeleteByReferenceID(ctx context.Context, referenceID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM patients WHERE reference_id = $1`, referenceID)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
