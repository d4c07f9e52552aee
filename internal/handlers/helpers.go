package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/yerin5822/Maternote_Server/pkg/middleware"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// requireUserID extracts the authenticated user's id from the request
// context, writing a 401 when the request carries no valid claims.
func requireUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		log.Warn("Unauthorized access attempt")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to convert user ID")
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return primitive.NilObjectID, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
