package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"consentledger/internal/audit"
	dErrors "consentledger/pkg/domain-errors"
	"consentledger/pkg/requestcontext"
)

type appendRecordRequest struct {
	EventType  string `json:"event_type"`
	PatientRef string `json:"patient_ref"`
	Details    string `json:"details"`
}

type auditRecordResponse struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	PatientRef    string    `json:"patient_ref"`
	Details       string    `json:"details"`
	UserID        string    `json:"user_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

func toAuditResponse(r audit.Record) auditRecordResponse {
	return auditRecordResponse{
		ID:            r.ID.String(),
		Timestamp:     r.Timestamp,
		EventType:     string(r.EventType),
		PatientRef:    r.PatientRef,
		Details:       r.Details,
		UserID:        r.UserID,
		CorrelationID: r.CorrelationID,
	}
}

// handleAppendRecord is the outward record() interface for orchestrating
// services. Timestamps and IDs are assigned by the ledger; anything the
// caller supplies for them is ignored by construction. Attribution comes from
// the request context (bearer token subject, correlation header).
func (h *Handler) handleAppendRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req appendRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.EventType == "" || req.PatientRef == "" {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "event_type and patient_ref are required"))
		return
	}

	record, err := h.ledger.Append(ctx, audit.EventType(req.EventType), req.PatientRef, req.Details)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toAuditResponse(record))
}

// handleQueryRecords dispatches on query parameters:
//
//	patient_ref + event_type  -> combined filter
//	patient_ref               -> by patient
//	event_type                -> by event type
//	start + end (RFC 3339)    -> by time range
//
// All variants return records ordered by timestamp ascending.
func (h *Handler) handleQueryRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	patientRef := q.Get("patient_ref")
	eventType := q.Get("event_type")
	startRaw := q.Get("start")
	endRaw := q.Get("end")

	var (
		records []audit.Record
		err     error
	)
	switch {
	case patientRef != "" && eventType != "":
		records, err = h.ledger.QueryByPatientAndEventType(ctx, patientRef, audit.EventType(eventType))
	case patientRef != "":
		records, err = h.ledger.QueryByPatient(ctx, patientRef)
	case eventType != "":
		records, err = h.ledger.QueryByEventType(ctx, audit.EventType(eventType))
	case startRaw != "" && endRaw != "":
		var start, end time.Time
		start, err = time.Parse(time.RFC3339, startRaw)
		if err == nil {
			end, err = time.Parse(time.RFC3339, endRaw)
		}
		if err != nil {
			WriteError(w, dErrors.New(dErrors.CodeBadRequest, "start and end must be RFC 3339 timestamps"))
			return
		}
		records, err = h.ledger.QueryByTimeRange(ctx, start, end)
	default:
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "provide patient_ref, event_type, or a start/end range"))
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]auditRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toAuditResponse(rec))
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"records": out,
		"as_of":   requestcontext.Now(ctx),
		"count":   len(out),
	})
}
