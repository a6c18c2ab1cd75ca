package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/storyarc/storyarc/internal/api/respond"
	"github.com/storyarc/storyarc/internal/model"
	"github.com/storyarc/storyarc/internal/services"
)

type MoodHandler struct {
	svc *services.MoodService
}

func NewMoodHandler(svc *services.MoodService) *MoodHandler { return &MoodHandler{svc: svc} }

// GetMoodTimeline handles GET /api/users/{userId}/mood?period=daily|weekly|monthly.
func (h *MoodHandler) GetMoodTimeline(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	period := model.MoodPeriod(r.URL.Query().Get("period"))

	tl, err := h.svc.MoodTimeline(r.Context(), userID, period)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, tl)
}
