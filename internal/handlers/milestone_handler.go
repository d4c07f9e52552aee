package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/internal/services"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MilestoneHandler handles HTTP requests for legacy timeline milestones.
type MilestoneHandler struct {
	Service *services.MilestoneService
}

// NewMilestoneHandler creates a new instance of MilestoneHandler.
func NewMilestoneHandler(service *services.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{Service: service}
}

// CreateMilestoneHandler creates a milestone for the authenticated user.
func (h *MilestoneHandler) CreateMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var m models.Milestone
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	m.UserID = userID

	created, err := h.Service.CreateMilestone(r.Context(), &m)
	if err != nil {
		log.WithError(err).Warn("Failed to create milestone")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListMilestonesHandler returns the authenticated user's milestones.
func (h *MilestoneHandler) ListMilestonesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	milestones, err := h.Service.ListMilestones(r.Context(), userID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch milestones")
		http.Error(w, "Failed to fetch milestones", http.StatusInternalServerError)
		return
	}
	if milestones == nil {
		milestones = []models.Milestone{}
	}
	writeJSON(w, http.StatusOK, milestones)
}

func milestoneID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid milestone ID", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}

// UpdateMilestoneHandler applies a partial update to one milestone.
func (h *MilestoneHandler) UpdateMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := milestoneID(w, r)
	if !ok {
		return
	}

	var m models.Milestone
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.Service.UpdateMilestone(r.Context(), id, userID, &m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "Milestone not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to update milestone")
		http.Error(w, "Failed to update milestone", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CompleteMilestoneHandler marks a milestone done or not done.
func (h *MilestoneHandler) CompleteMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := milestoneID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.Service.SetCompleted(r.Context(), id, userID, payload.Completed); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "Milestone not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to complete milestone")
		http.Error(w, "Failed to complete milestone", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteMilestoneHandler removes one milestone.
func (h *MilestoneHandler) DeleteMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := milestoneID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteMilestone(r.Context(), id, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "Milestone not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to delete milestone")
		http.Error(w, "Failed to delete milestone", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
