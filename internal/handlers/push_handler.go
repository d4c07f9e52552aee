package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/internal/repository"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PushHandler handles push subscription registration and the in-app
// notification inbox.
type PushHandler struct {
	Subscriptions *repository.SubscriptionRepository
	Notifications *repository.NotificationRepository
}

// NewPushHandler creates a new instance of PushHandler.
func NewPushHandler(subs *repository.SubscriptionRepository, notifs *repository.NotificationRepository) *PushHandler {
	return &PushHandler{
		Subscriptions: subs,
		Notifications: notifs,
	}
}

// SubscribeHandler registers a device push endpoint. The payload mirrors
// the browser PushSubscription JSON shape.
func (h *PushHandler) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.Endpoint == "" || payload.Keys.P256dh == "" || payload.Keys.Auth == "" {
		http.Error(w, "Missing subscription fields", http.StatusBadRequest)
		return
	}

	sub := &models.PushSubscription{
		UserID:   userID,
		Endpoint: payload.Endpoint,
		P256dh:   payload.Keys.P256dh,
		Auth:     payload.Keys.Auth,
	}
	if err := h.Subscriptions.Upsert(r.Context(), sub); err != nil {
		log.WithError(err).Error("Failed to save push subscription")
		http.Error(w, "Failed to save subscription", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

// UnsubscribeHandler removes a device endpoint, the user opt-out path.
func (h *PushHandler) UnsubscribeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Endpoint == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.Subscriptions.DeleteByEndpoint(r.Context(), userID, payload.Endpoint); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "Subscription not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to delete push subscription")
		http.Error(w, "Failed to delete subscription", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListNotificationsHandler returns the user's unexpired in-app
// notifications.
func (h *PushHandler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	notifications, err := h.Notifications.ListByUser(r.Context(), userID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch notifications")
		http.Error(w, "Failed to fetch notifications", http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

// MarkNotificationReadHandler marks one in-app notification as read.
func (h *PushHandler) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.Notifications.MarkAsRead(r.Context(), id, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "Notification not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to mark notification read")
		http.Error(w, "Failed to mark notification read", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
