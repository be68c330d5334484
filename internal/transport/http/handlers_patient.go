package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"consentledger/internal/patient"
	dErrors "consentledger/pkg/domain-errors"
	"consentledger/pkg/requestcontext"
)

type patientRequest struct {
	ReferenceID           string    `json:"reference_id"`
	Name                  string    `json:"name"`
	DateOfBirth           time.Time `json:"date_of_birth"`
	Phone                 string    `json:"phone"`
	EmergencyContactName  string    `json:"emergency_contact_name"`
	EmergencyContactPhone string    `json:"emergency_contact_phone"`
}

type patientResponse struct {
	ID                    string    `json:"id"`
	ReferenceID           string    `json:"reference_id"`
	Name                  string    `json:"name"`
	DateOfBirth           time.Time `json:"date_of_birth"`
	Phone                 string    `json:"phone,omitempty"`
	EmergencyContactName  string    `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string    `json:"emergency_contact_phone,omitempty"`
}

type notifyRequest struct {
	Message string `json:"message"`
}

func toPatientResponse(p *patient.Patient) patientResponse {
	return patientResponse{
		ID:                    p.ID.String(),
		ReferenceID:           p.ReferenceID,
		Name:                  p.Name,
		DateOfBirth:           p.DateOfBirth,
		Phone:                 p.Phone,
		EmergencyContactName:  p.EmergencyContactName,
		EmergencyContactPhone: p.EmergencyContactPhone,
	}
}

func (h *Handler) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	p, err := patient.NewPatient(req.ReferenceID, req.Name, req.DateOfBirth, requestcontext.Now(ctx))
	if err != nil {
		WriteError(w, err)
		return
	}
	p.Phone = req.Phone
	p.EmergencyContactName = req.EmergencyContactName
	p.EmergencyContactPhone = req.EmergencyContactPhone

	if err := h.directory.Create(ctx, p); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toPatientResponse(p))
}

func (h *Handler) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.directory.Get(ctx, chi.URLParam(r, "referenceID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toPatientResponse(p))
}

func (h *Handler) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	referenceID := chi.URLParam(r, "referenceID")

	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	p, err := patient.NewPatient(referenceID, req.Name, req.DateOfBirth, requestcontext.Now(ctx))
	if err != nil {
		WriteError(w, err)
		return
	}
	p.Phone = req.Phone
	p.EmergencyContactName = req.EmergencyContactName
	p.EmergencyContactPhone = req.EmergencyContactPhone

	if err := h.directory.Update(ctx, p); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toPatientResponse(p))
}

func (h *Handler) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.Delete(r.Context(), chi.URLParam(r, "referenceID")); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleNotifyEmergencyContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Message == "" {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "message is required"))
		return
	}

	if err := h.directory.NotifyEmergencyContact(ctx, chi.URLParam(r, "referenceID"), req.Message); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
