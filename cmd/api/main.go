package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"seatime-backend/internal/alerts"
	"seatime-backend/internal/config"
	"seatime-backend/internal/cron"
	"seatime-backend/internal/database"
	"seatime-backend/internal/handlers"
	"seatime-backend/internal/middleware"
	"seatime-backend/internal/storage"
)

func main() {
	// 1. Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect to PostgreSQL (schema is applied on connect)
	db := database.New(&cfg.DB)
	defer db.Close()

	// 3. Initialize file storage: R2 when credentials are present, local disk otherwise
	fileStore, err := newFileStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// 4. Alert publisher: MQTT when a broker is configured
	publisher := newPublisher(cfg)
	defer publisher.Close()

	// 5. Set up router with global middleware
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 6. Initialize handlers with their dependencies
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	vesselHandler := handlers.NewVesselHandler(db)
	stateLogHandler := handlers.NewStateLogHandler(db)
	seaServiceHandler := handlers.NewSeaServiceHandler(db)
	visaHandler := handlers.NewVisaHandler(db)
	uploadHandler := handlers.NewUploadHandler(fileStore, db, cfg.Upload.Dir)
	notificationHandler := handlers.NewNotificationHandler(db)
	activityHandler := handlers.NewActivityHandler(db)
	userManagementHandler := handlers.NewUserManagementHandler(db)

	// Start background cron jobs
	cronCtx, stopCron := context.WithCancel(context.Background())
	defer stopCron()
	cron.StartNotifier(cronCtx, db, publisher, cfg.GapReminderDays)

	// 7. Public routes (no authentication required)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Sea Time & Visa Compliance API"))
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(db.Health())
	})

	// Auth routes: public, rate limited per client IP
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(rate.Every(12*time.Second), 5))
		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
	})

	// Uploaded files (local disk, or a redirect to the public bucket URL)
	r.Get("/api/files/*", uploadHandler.ServeFile)

	// 8. Protected routes (require valid JWT)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		// Current user profile
		r.Get("/api/auth/me", authHandler.GetMe)

		// Vessels and their day-by-day state logs
		r.Get("/api/vessels", vesselHandler.List)
		r.Post("/api/vessels", vesselHandler.Create)
		r.Route("/api/vessels/{id}", func(r chi.Router) {
			r.Get("/", vesselHandler.GetByID)
			r.Get("/logs", stateLogHandler.List)
			r.Put("/logs/{date}", stateLogHandler.Upsert)
			r.Delete("/logs/{date}", stateLogHandler.Delete)
			r.Get("/sea-service", seaServiceHandler.ByVessel)
			r.Get("/gaps", seaServiceHandler.Gaps)
			r.Post("/gaps/fill", seaServiceHandler.FillGaps)
		})
		r.Get("/api/sea-service", seaServiceHandler.Totals)

		// Visa areas and recorded days
		r.Get("/api/visa/presets", visaHandler.Presets)
		r.Get("/api/visa/areas", visaHandler.ListAreas)
		r.Post("/api/visa/areas", visaHandler.CreateArea)
		r.Route("/api/visa/areas/{id}", func(r chi.Router) {
			r.Delete("/", visaHandler.DeleteArea)
			r.Get("/entries", visaHandler.ListEntries)
			r.Post("/entries", visaHandler.CreateEntry)
			r.Delete("/entries/{date}", visaHandler.DeleteEntry)
			r.Get("/compliance", visaHandler.Compliance)
			r.Post("/check", visaHandler.Check)
		})

		// Testimonial upload
		r.Post("/api/upload", uploadHandler.Upload)

		// Notifications (user-scoped)
		r.Get("/api/notifications", notificationHandler.List)
		r.Get("/api/notifications/count", notificationHandler.UnreadCount)
		r.Patch("/api/notifications/read-all", notificationHandler.MarkAllRead)
		r.Patch("/api/notifications/{id}/read", notificationHandler.MarkRead)

		// Administration restricted to admin role
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("admin"))

			r.Get("/api/admin/activity", activityHandler.List)
			r.Get("/api/admin/users", userManagementHandler.List)
			r.Patch("/api/admin/users/{id}/role", userManagementHandler.UpdateRole)
			r.Delete("/api/admin/users/{id}", userManagementHandler.Delete)
		})
	})

	// 9. Start server with graceful shutdown
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server started on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-done
	log.Println("Server stopped")
	stopCron()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}

func newFileStore(cfg *config.Config) (storage.Store, error) {
	if cfg.R2.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("[storage] using R2 bucket %s", cfg.R2.Bucket)
		return storage.NewR2Store(ctx, storage.R2Options{
			AccountID: cfg.R2.AccountID,
			AccessKey: cfg.R2.AccessKey,
			SecretKey: cfg.R2.SecretKey,
			Bucket:    cfg.R2.Bucket,
			PublicURL: cfg.R2.PublicURL,
		})
	}
	log.Printf("[storage] using local directory %s", cfg.Upload.Dir)
	return storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
}

func newPublisher(cfg *config.Config) alerts.Publisher {
	if cfg.MQTT.Broker == "" {
		log.Println("[alerts] no MQTT broker configured, alerts stay in-app only")
		return alerts.NopPublisher{}
	}
	pub, err := alerts.NewMQTTPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	if err != nil {
		log.Printf("[alerts] MQTT unavailable (%v), alerts stay in-app only", err)
		return alerts.NopPublisher{}
	}
	log.Printf("[alerts] publishing to %s", cfg.MQTT.Broker)
	return pub
}
