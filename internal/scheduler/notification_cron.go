package cron

import (
	"context"

	"github.com/yerin5822/Maternote_Server/internal/jobs"
	"github.com/yerin5822/Maternote_Server/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartNotificationCronJobs runs the daily sweeps in-process. This is an
// optional deployment mode; the usual trigger is an external scheduler
// hitting the /cron endpoints.
func StartNotificationCronJobs(notifier *jobs.DdayNotifier, timelineService *services.TimelineService, specDday, specGenerate string) *cron.Cron {
	c := cron.New()

	// D-day notification sweep
	c.AddFunc(specDday, func() {
		if _, err := notifier.Run(context.Background()); err != nil {
			logrus.WithError(err).Error("D-day sweep failed")
		}
	})

	// Batch content materialization for all onboarded profiles
	c.AddFunc(specGenerate, func() {
		if _, err := timelineService.GenerateForAll(context.Background()); err != nil {
			logrus.WithError(err).Error("Batch content generation failed")
		}
	})

	c.Start()
	logrus.Info("Internal cron jobs started")
	return c
}
