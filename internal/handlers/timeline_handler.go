package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/internal/services"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TimelineHandler handles HTTP requests for the materialized feed.
type TimelineHandler struct {
	Service *services.TimelineService
}

// NewTimelineHandler creates a new instance of TimelineHandler.
func NewTimelineHandler(service *services.TimelineService) *TimelineHandler {
	return &TimelineHandler{Service: service}
}

// GetFeedHandler returns the user's feed, generating it on demand when
// empty.
func (h *TimelineHandler) GetFeedHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	events, err := h.Service.ListFeed(r.Context(), userID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch timeline feed")
		http.Error(w, "Failed to fetch feed", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []models.TimelineEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GenerateHandler regenerates the user's feed on demand. An optional
// {"reset": true} body deletes all existing events first, for use after
// a profile change.
func (h *TimelineHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Reset bool `json:"reset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err != io.EOF {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	created, err := h.Service.GenerateForUser(r.Context(), userID, payload.Reset, true)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			http.Error(w, "Profile not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to generate timeline events")
		http.Error(w, "Failed to generate events", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"created": created,
	})
}

func (h *TimelineHandler) eventID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}

// MarkReadHandler flags one event as read.
func (h *TimelineHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}

	if err := h.Service.MarkRead(r.Context(), eventID, userID); err != nil {
		h.writeEventError(w, err, "Failed to mark event read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DismissHandler removes one event from the feed.
func (h *TimelineHandler) DismissHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Dismiss(r.Context(), eventID, userID); err != nil {
		h.writeEventError(w, err, "Failed to dismiss event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// BookmarkHandler toggles an event's bookmark flag.
func (h *TimelineHandler) BookmarkHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Bookmarked bool `json:"bookmarked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.Service.SetBookmarked(r.Context(), eventID, userID, payload.Bookmarked); err != nil {
		h.writeEventError(w, err, "Failed to bookmark event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *TimelineHandler) writeEventError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	log.WithError(err).Error(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}
