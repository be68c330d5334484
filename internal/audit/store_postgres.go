package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists ledger records in an append-only PostgreSQL table.
// This type contains no UPDATE or DELETE statement; the schema additionally
// revokes those privileges from the service role (see migrations).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const auditColumns = `id, timestamp, event_type, patient_ref, details, user_id, correlation_id`

func (s *PostgresStore) Append(ctx context.Context, record Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_records (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		record.ID,
		record.Timestamp,
		string(record.EventType),
		record.PatientRef,
		record.Details,
		nullString(record.UserID),
		nullString(record.CorrelationID),
	)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByPatientRef(ctx context.Context, patientRef string) ([]Record, error) {
	return s.query(ctx, `
		SELECT `+auditColumns+`
		FROM audit_records
		WHERE patient_ref = $1
		ORDER BY timestamp ASC, id ASC
	`, patientRef)
}

func (s *PostgresStore) FindByEventType(ctx context.Context, eventType EventType) ([]Record, error) {
	return s.query(ctx, `
		SELECT `+auditColumns+`
		FROM audit_records
		WHERE event_type = $1
		ORDER BY timestamp ASC, id ASC
	`, string(eventType))
}

func (s *PostgresStore) FindByTimestampRange(ctx context.Context, start, end time.Time) ([]Record, error) {
	return s.query(ctx, `
		SELECT `+auditColumns+`
		FROM audit_records
		WHERE timestamp BETWEEN $1 AND $2
		ORDER BY timestamp ASC, id ASC
	`, start, end)
}

func (s *PostgresStore) FindByPatientRefAndEventType(ctx context.Context, patientRef string, eventType EventType) ([]Record, error) {
	return s.query(ctx, `
		SELECT `+auditColumns+`
		FROM audit_records
		WHERE patient_ref = $1 AND event_type = $2
		ORDER BY timestamp ASC, id ASC
	`, patientRef, string(eventType))
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var r Record
		var eventType string
		var userID, correlationID sql.NullString
		if err := rows.Scan(
			&r.ID,
			&r.Timestamp,
			&eventType,
			&r.PatientRef,
			&r.Details,
			&userID,
			&correlationID,
		); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		r.EventType = EventType(eventType)
		r.UserID = userID.String
		r.CorrelationID = correlationID.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
