package httptransport

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"consentledger/internal/audit"
	"consentledger/internal/consent"
	dErrors "consentledger/pkg/domain-errors"
	"consentledger/pkg/requestcontext"
)

type grantConsentRequest struct {
	PatientRef string    `json:"patient_ref"`
	Scopes     []string  `json:"scopes"`
	GrantedAt  time.Time `json:"granted_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type consentResponse struct {
	ID         string     `json:"id"`
	PatientRef string     `json:"patient_ref"`
	Scopes     []string   `json:"scopes"`
	GrantedAt  time.Time  `json:"granted_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	Status     string     `json:"status"`
}

type authorizeRequest struct {
	PatientRef string `json:"patient_ref"`
	Scope      string `json:"scope"`
}

func toConsentResponse(c *consent.Consent, now time.Time) consentResponse {
	status := "active"
	if !c.IsValidAt(now) {
		status = "inactive"
	}
	return consentResponse{
		ID:         c.ID.String(),
		PatientRef: c.PatientRef,
		Scopes:     c.Scopes,
		GrantedAt:  c.GrantedAt,
		ExpiresAt:  c.ExpiresAt,
		RevokedAt:  c.RevokedAt,
		Status:     status,
	}
}

// handleGrantConsent creates a new grant and records CONSENT_GRANTED before
// responding. An audit failure after the grant is reported as a failure: the
// grant exists, but the operation is not considered complete without a trail.
func (h *Handler) handleGrantConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req grantConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.authority.Grant(ctx, req.PatientRef, req.Scopes, req.GrantedAt, req.ExpiresAt)
	if err != nil {
		h.logger.WarnContext(ctx, "consent grant rejected", "error", err)
		WriteError(w, err)
		return
	}

	if _, err := h.ledger.Append(ctx, audit.EventConsentGranted, record.PatientRef, "Consent granted for scopes: "+strings.Join(record.Scopes, ", ")); err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toConsentResponse(record, requestcontext.Now(ctx)))
}

// handleRevokeConsent revokes a grant and records CONSENT_REVOKED before the
// 204 goes out.
func (h *Handler) handleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	consentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid consent id"))
		return
	}

	record, err := h.authority.FindByID(ctx, consentID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.authority.Revoke(ctx, consentID); err != nil {
		WriteError(w, err)
		return
	}

	if _, err := h.ledger.Append(ctx, audit.EventConsentRevoked, record.PatientRef, "Consent revoked"); err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListConsents returns every grant for a patient reference, revoked and
// expired included. Consent metadata is not PHI, so the listing is not gated.
func (h *Handler) handleListConsents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	patientRef := r.URL.Query().Get("patient_ref")
	if patientRef == "" {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "patient_ref is required"))
		return
	}

	records, err := h.authority.List(ctx, patientRef)
	if err != nil {
		WriteError(w, err)
		return
	}

	now := requestcontext.Now(ctx)
	out := make([]consentResponse, 0, len(records))
	for _, c := range records {
		out = append(out, toConsentResponse(c, now))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"consents": out})
}

// handleFindActive returns the active grant for a patient/scope pair, or 404
// when none is valid at the request instant.
func (h *Handler) handleFindActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	patientRef := r.URL.Query().Get("patient_ref")
	scope := r.URL.Query().Get("scope")
	if patientRef == "" || scope == "" {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "patient_ref and scope are required"))
		return
	}

	now := requestcontext.Now(ctx)
	record, err := h.authority.FindActive(ctx, patientRef, scope, now)
	if err != nil {
		WriteError(w, err)
		return
	}
	if record == nil {
		WriteError(w, dErrors.New(dErrors.CodeNotFound, "no active consent"))
		return
	}
	WriteJSON(w, http.StatusOK, toConsentResponse(record, now))
}

// handleAuthorize is the outward enforcement endpoint. The decision is in the
// ledger (CONSENT_VALIDATED or CONSENT_DENIED) before the response is written.
func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.PatientRef == "" || req.Scope == "" {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "patient_ref and scope are required"))
		return
	}

	now := requestcontext.Now(ctx)
	record, err := h.authority.Authorize(ctx, req.PatientRef, req.Scope, now)
	if dErrors.HasCode(err, dErrors.CodeConsentDenied) {
		if _, aerr := h.ledger.Append(ctx, audit.EventConsentDenied, req.PatientRef, "Consent denied for scope: "+req.Scope); aerr != nil {
			WriteError(w, aerr)
			return
		}
		WriteError(w, err)
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	if _, aerr := h.ledger.Append(ctx, audit.EventConsentValidated, req.PatientRef, "Consent valid for scope: "+req.Scope); aerr != nil {
		WriteError(w, aerr)
		return
	}
	WriteJSON(w, http.StatusOK, toConsentResponse(record, now))
}
