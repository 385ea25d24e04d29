package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"smartkyc/internal/domain"
	dErrors "smartkyc/pkg/domainerrors"
)

type recordResponse struct {
	OwnerID           string  `json:"ownerId"`
	FirstName         string  `json:"firstName,omitempty"`
	LastName          string  `json:"lastName,omitempty"`
	FatherName        string  `json:"fatherName,omitempty"`
	Gender            string  `json:"gender,omitempty"`
	Address           string  `json:"address,omitempty"`
	Email             string  `json:"email,omitempty"`
	PhoneNumber       string  `json:"phoneNumber,omitempty"`
	CitizenshipNumber string  `json:"citizenshipNumber,omitempty"`
	LicenseNumber     string  `json:"licenseNumber,omitempty"`
	DOB               string  `json:"dob,omitempty"`
	IDIssueDate       string  `json:"idIssueDate,omitempty"`
	IDExpiryDate      string  `json:"idExpiryDate,omitempty"`
	EmailVerified     bool    `json:"isEmailVerified"`
	DocumentVerified  bool    `json:"isDocumentVerified"`
	SelfieVerified    bool    `json:"isSelfieVerified"`
	LivenessVerified  bool    `json:"isLivenessVerified"`
	CreatedAt         string  `json:"createdAt,omitempty"`
	UpdatedAt         string  `json:"updatedAt,omitempty"`
	Progress          float64 `json:"progress"`
}

func toRecordResponse(r domain.VerificationRecord) recordResponse {
	resp := recordResponse{
		OwnerID:           r.OwnerID,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		FatherName:        r.FatherName,
		Gender:            r.Gender,
		Address:           r.Address,
		Email:             r.Email,
		PhoneNumber:       r.PhoneNumber,
		CitizenshipNumber: r.CitizenshipNumber,
		LicenseNumber:     r.LicenseNumber,
		DOB:               r.DOB,
		IDIssueDate:       r.IDIssueDate,
		IDExpiryDate:      r.IDExpiryDate,
		EmailVerified:     r.EmailVerified,
		DocumentVerified:  r.DocumentVerified,
		SelfieVerified:    r.SelfieVerified,
		LivenessVerified:  r.LivenessVerified,
		Progress:          domain.Progress(r),
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !r.UpdatedAt.IsZero() {
		resp.UpdatedAt = r.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (h *Handler) handleListDirectory(w http.ResponseWriter, r *http.Request) {
	records := h.directory.Latest()
	out := make([]recordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toRecordResponse(record))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	record, ok := h.directory.Get(ownerID)
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "record not found"))
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(record))
}

func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.mutator.UpdateRecord(r.Context(), ownerID, fields); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type flagRequest struct {
	Verified bool `json:"verified"`
}

func (h *Handler) handleSetFlag(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	flag := chi.URLParam(r, "flag")
	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.mutator.SetVerificationFlag(r.Context(), ownerID, flag, req.Verified); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	if err := h.mutator.DeleteRecord(r.Context(), ownerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListEvidence(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	category := domain.Category(chi.URLParam(r, "category"))
	refs, err := h.evidence.Get(r.Context(), ownerID, category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := domain.ComputeStats(h.directory.Latest())
	writeJSON(w, http.StatusOK, map[string]int{
		"totalUsers":       stats.TotalUsers,
		"fullyVerified":    stats.FullyVerified,
		"emailVerified":    stats.EmailVerified,
		"documentVerified": stats.DocumentVerified,
		"selfieVerified":   stats.SelfieVerified,
		"livenessVerified": stats.LivenessVerified,
	})
}
