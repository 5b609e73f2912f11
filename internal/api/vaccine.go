package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tikasheba/vaccine-ai/internal/knowledge"
)

// VaccineStorer ingests one vaccine into the knowledge base.
// Satisfied by *knowledge.Ingestor.
type VaccineStorer interface {
	StoreVaccine(ctx context.Context, v knowledge.Vaccine) ([]string, error)
}

type vaccineHandler struct {
	store  VaccineStorer
	logger *slog.Logger
}

type storeVaccineRequest struct {
	VaccineName            string `json:"vaccine_name"`
	FullName               string `json:"full_name"`
	Category               string `json:"category"`
	Details                string `json:"details"`
	PreservationGuidelines string `json:"preservation_guidelines"`
}

type storeVaccineResponse struct {
	Status    string   `json:"status"`
	StoredIDs []string `json:"stored_ids"`
}

// storeVaccine handles POST /store-vaccine.
func (h *vaccineHandler) storeVaccine(w http.ResponseWriter, r *http.Request) {
	var req storeVaccineRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ids, err := h.store.StoreVaccine(r.Context(), knowledge.Vaccine{
		Name:         req.VaccineName,
		FullName:     req.FullName,
		Category:     req.Category,
		Details:      req.Details,
		Preservation: req.PreservationGuidelines,
	})
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, storeVaccineResponse{Status: "success", StoredIDs: ids})
}
