package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/yerin5822/Maternote_Server/internal/jobs"
	"github.com/yerin5822/Maternote_Server/internal/services"
	log "github.com/sirupsen/logrus"
)

// CronHandler exposes the sweep triggers invoked by an external
// scheduler with a shared-secret bearer credential. Responses are terse
// summaries; internal errors are never echoed back.
type CronHandler struct {
	Notifier        *jobs.DdayNotifier
	TimelineService *services.TimelineService
	Secret          string
}

// NewCronHandler creates a new instance of CronHandler.
func NewCronHandler(notifier *jobs.DdayNotifier, timelineService *services.TimelineService, secret string) *CronHandler {
	return &CronHandler{
		Notifier:        notifier,
		TimelineService: timelineService,
		Secret:          secret,
	}
}

func (h *CronHandler) authorized(r *http.Request) bool {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.Secret)) == 1
}

// NotificationSweepHandler runs one D-day notification sweep.
func (h *CronHandler) NotificationSweepHandler(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		log.Warn("Unauthorized cron trigger attempt")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.Notifier.Run(r.Context())
	if err != nil {
		log.WithError(err).Error("Notification sweep failed")
		writeJSON(w, http.StatusInternalServerError, map[string]bool{"success": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":                 true,
		"timelines_checked":       result.TimelinesChecked,
		"timeline_events_checked": result.TimelineEventsChecked,
		"notifications_sent":      result.NotificationsSent,
		"skipped":                 result.Skipped,
		"new_content_users":       result.NewContentUsers,
	})
}

// GenerateSweepHandler runs the batch content materialization over all
// onboarded profiles.
func (h *CronHandler) GenerateSweepHandler(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		log.Warn("Unauthorized cron trigger attempt")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.TimelineService.GenerateForAll(r.Context())
	if err != nil {
		log.WithError(err).Error("Batch content generation failed")
		writeJSON(w, http.StatusInternalServerError, map[string]bool{"success": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"users_processed": result.UsersProcessed,
		"events_created":  result.EventsCreated,
	})
}
