package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/yerin5822/Maternote_Server/internal/config"
	"github.com/yerin5822/Maternote_Server/internal/database"
	"github.com/yerin5822/Maternote_Server/internal/handlers"
	"github.com/yerin5822/Maternote_Server/internal/jobs"
	"github.com/yerin5822/Maternote_Server/internal/repository"
	cronjobs "github.com/yerin5822/Maternote_Server/internal/scheduler"
	"github.com/yerin5822/Maternote_Server/internal/services"
	"github.com/yerin5822/Maternote_Server/pkg/logger"
	"github.com/yerin5822/Maternote_Server/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	childRepo := repository.NewChildRepository(db)
	contentRepo := repository.NewContentRepository(db)
	eventRepo := repository.NewTimelineEventRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// --- Services ---
	userService := services.NewUserService(userRepo)
	profileService := services.NewProfileService(profileRepo, childRepo)
	childService := services.NewChildService(childRepo, profileService)
	matcherService := services.NewMatcherService(contentRepo)
	timelineService := services.NewTimelineService(eventRepo, profileRepo, childRepo, matcherService)
	milestoneService := services.NewMilestoneService(milestoneRepo)
	pushTransport := services.NewWebPushTransport(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
	pushService := services.NewPushService(subscriptionRepo, notificationRepo, pushTransport)

	// --- Jobs ---
	notifier := jobs.NewDdayNotifier(eventRepo, milestoneRepo, profileRepo, childRepo, contentRepo, notificationRepo, pushService)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, cfg)
	profileHandler := handlers.NewProfileHandler(profileService)
	childHandler := handlers.NewChildHandler(childService)
	timelineHandler := handlers.NewTimelineHandler(timelineService)
	milestoneHandler := handlers.NewMilestoneHandler(milestoneService)
	pushHandler := handlers.NewPushHandler(subscriptionRepo, notificationRepo)
	cronHandler := handlers.NewCronHandler(notifier, timelineService, cfg.CronSecret)

	router := mux.NewRouter()

	// Public user routes
	router.HandleFunc("/users/register", userHandler.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/users/login", userHandler.LoginUserHandler).Methods("POST")

	// Profile routes
	profileRoutes := router.PathPrefix("/profile").Subrouter()
	profileRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	profileRoutes.HandleFunc("", profileHandler.GetProfileHandler).Methods("GET")
	profileRoutes.HandleFunc("", profileHandler.UpsertProfileHandler).Methods("PUT")

	// Child routes
	childRoutes := router.PathPrefix("/children").Subrouter()
	childRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	childRoutes.HandleFunc("", childHandler.AddChildHandler).Methods("POST")
	childRoutes.HandleFunc("", childHandler.ListChildrenHandler).Methods("GET")
	childRoutes.HandleFunc("/{id}", childHandler.UpdateChildHandler).Methods("PUT")
	childRoutes.HandleFunc("/{id}", childHandler.RemoveChildHandler).Methods("DELETE")

	// Timeline feed routes
	timelineRoutes := router.PathPrefix("/timeline").Subrouter()
	timelineRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	timelineRoutes.HandleFunc("/events", timelineHandler.GetFeedHandler).Methods("GET")
	timelineRoutes.HandleFunc("/events/generate", timelineHandler.GenerateHandler).Methods("POST")
	timelineRoutes.HandleFunc("/events/{id}/read", timelineHandler.MarkReadHandler).Methods("PATCH")
	timelineRoutes.HandleFunc("/events/{id}/dismiss", timelineHandler.DismissHandler).Methods("PATCH")
	timelineRoutes.HandleFunc("/events/{id}/bookmark", timelineHandler.BookmarkHandler).Methods("PATCH")

	// Legacy milestone routes
	milestoneRoutes := router.PathPrefix("/timelines").Subrouter()
	milestoneRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	milestoneRoutes.HandleFunc("", milestoneHandler.CreateMilestoneHandler).Methods("POST")
	milestoneRoutes.HandleFunc("", milestoneHandler.ListMilestonesHandler).Methods("GET")
	milestoneRoutes.HandleFunc("/{id}", milestoneHandler.UpdateMilestoneHandler).Methods("PUT")
	milestoneRoutes.HandleFunc("/{id}", milestoneHandler.DeleteMilestoneHandler).Methods("DELETE")
	milestoneRoutes.HandleFunc("/{id}/complete", milestoneHandler.CompleteMilestoneHandler).Methods("PATCH")

	// Push subscription and in-app notification routes
	pushRoutes := router.PathPrefix("/push").Subrouter()
	pushRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	pushRoutes.HandleFunc("/subscribe", pushHandler.SubscribeHandler).Methods("POST")
	pushRoutes.HandleFunc("/subscribe", pushHandler.UnsubscribeHandler).Methods("DELETE")

	notificationRoutes := router.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	notificationRoutes.HandleFunc("", pushHandler.ListNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("/{id}/read", pushHandler.MarkNotificationReadHandler).Methods("PATCH")

	// Cron trigger routes, guarded by the shared scheduler secret
	router.HandleFunc("/cron/notifications", cronHandler.NotificationSweepHandler).Methods("POST")
	router.HandleFunc("/cron/generate", cronHandler.GenerateSweepHandler).Methods("POST")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	// Optional in-process scheduling for deployments without an
	// external cron service
	if cfg.EnableInternalCron {
		cronjobs.StartNotificationCronJobs(notifier, timelineService, cfg.CronSpecDday, cfg.CronSpecGenerate)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // adjust to frontend origin
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
