package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "consentledger/pkg/domain-errors"
)

// Patient is a directory record. ReferenceID is the opaque identifier that
// flows into logs and audit records; every other identifying field is PHI and
// stays inside this struct. No call path hands them to a logger or to the
// audit ledger.
type Patient struct {
	ID                    uuid.UUID
	ReferenceID           string
	Name                  string
	DateOfBirth           time.Time
	Phone                 string
	EmergencyContactName  string
	EmergencyContactPhone string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewPatient validates and constructs a directory record.
func NewPatient(referenceID, name string, dateOfBirth time.Time, now time.Time) (*Patient, error) {
	if strings.TrimSpace(referenceID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "patient reference is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "patient name is required")
	}
	now = now.UTC()
	return &Patient{
		ID:          uuid.New(),
		ReferenceID: referenceID,
		Name:        name,
		DateOfBirth: dateOfBirth,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
