package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/internal/services"
	log "github.com/sirupsen/logrus"
)

// ProfileHandler handles HTTP requests related to life-stage profiles.
type ProfileHandler struct {
	Service *services.ProfileService
}

// NewProfileHandler creates a new instance of ProfileHandler.
func NewProfileHandler(service *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{Service: service}
}

// GetProfileHandler returns the authenticated user's profile.
func (h *ProfileHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.Service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			http.Error(w, "Profile not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to fetch profile")
		http.Error(w, "Failed to fetch profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpsertProfileHandler creates or updates the authenticated user's
// profile.
func (h *ProfileHandler) UpsertProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var profile models.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		log.WithError(err).Warn("Invalid request payload during profile upsert")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	profile.UserID = userID

	updated, err := h.Service.UpsertProfile(r.Context(), &profile)
	if err != nil {
		log.WithError(err).Error("Failed to upsert profile")
		http.Error(w, "Failed to save profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
