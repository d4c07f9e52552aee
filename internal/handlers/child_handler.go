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

// ChildHandler handles HTTP requests related to child records.
type ChildHandler struct {
	Service *services.ChildService
}

// NewChildHandler creates a new instance of ChildHandler.
func NewChildHandler(service *services.ChildService) *ChildHandler {
	return &ChildHandler{Service: service}
}

// AddChildHandler creates a child record for the authenticated user.
func (h *ChildHandler) AddChildHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var child models.Child
	if err := json.NewDecoder(r.Body).Decode(&child); err != nil {
		log.WithError(err).Warn("Invalid request payload during child creation")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	child.UserID = userID

	created, err := h.Service.AddChild(r.Context(), &child)
	if err != nil {
		log.WithError(err).Warn("Failed to add child")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListChildrenHandler returns the authenticated user's children.
func (h *ChildHandler) ListChildrenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	children, err := h.Service.ListChildren(r.Context(), userID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch children")
		http.Error(w, "Failed to fetch children", http.StatusInternalServerError)
		return
	}
	if children == nil {
		children = []models.Child{}
	}
	writeJSON(w, http.StatusOK, children)
}

// UpdateChildHandler applies a partial update to one child.
func (h *ChildHandler) UpdateChildHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	childID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid child ID", http.StatusBadRequest)
		return
	}

	var child models.Child
	if err := json.NewDecoder(r.Body).Decode(&child); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.Service.UpdateChild(r.Context(), childID, userID, &child); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "Child not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Warn("Failed to update child")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// RemoveChildHandler deletes one child.
func (h *ChildHandler) RemoveChildHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	childID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid child ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.RemoveChild(r.Context(), childID, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "Child not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to delete child")
		http.Error(w, "Failed to delete child", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
