package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/storyarc/storyarc/internal/api/respond"
	"github.com/storyarc/storyarc/internal/model"
	"github.com/storyarc/storyarc/internal/services"
)

type BiographyHandler struct {
	svc *services.BiographyService
}

func NewBiographyHandler(svc *services.BiographyService) *BiographyHandler {
	return &BiographyHandler{svc: svc}
}

// SubmitBiography handles POST /api/biographies. It enqueues a generation
// job and returns 202 with the job snapshot for status polling.
func (h *BiographyHandler) SubmitBiography(w http.ResponseWriter, r *http.Request) {
	var req model.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}

	job, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusAccepted, job)
}

// GetJob handles GET /api/jobs/{jobId}.
func (h *BiographyHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]
	if jobID == "" {
		respond.WriteBadRequest(w, "jobId required")
		return
	}
	job, err := h.svc.JobStatus(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, job)
}

// GetBiography handles GET /api/users/{userId}/biographies/{biographyId}.
func (h *BiographyHandler) GetBiography(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, bioID := vars["userId"], vars["biographyId"]
	if userID == "" || bioID == "" {
		respond.WriteBadRequest(w, "userId and biographyId required")
		return
	}
	bio, err := h.svc.GetBiography(r.Context(), userID, bioID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, bio)
}

// ListBiographies handles GET /api/users/{userId}/biographies.
func (h *BiographyHandler) ListBiographies(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if userID == "" {
		respond.WriteBadRequest(w, "userId required")
		return
	}
	bios, err := h.svc.ListBiographies(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if bios == nil {
		bios = []*model.Biography{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"biographies": bios,
		"count":       len(bios),
	})
}
