package handlers

import (
	"DriveKeeper/internal/config"
	"DriveKeeper/internal/middleware"
	"DriveKeeper/internal/service"
	"context"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// Pinger проверяет доступность хранилища.
type Pinger func(ctx context.Context) error

// NewHandler разводящий для хендлеров
func NewHandler(
	driveRegistry *service.DriveRegistry,
	destinationMemory *service.DestinationMemory,
	logger *zap.SugaredLogger,
	config *config.Config,
	ping Pinger,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithIdentity)

	driveHandler := NewDriveHandler(driveRegistry, logger, config)
	destinationHandler := NewDestinationHandler(destinationMemory, logger, config)
	healthHandler := &HealthHandler{Ping: ping, Logger: logger}

	r.Get("/healthz", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireUser)

		// Drive routes
		r.Post("/drives", driveHandler.Register)
		r.Post("/drives/batch", driveHandler.RegisterBatch)
		r.Get("/drives", driveHandler.List)
		r.Get("/drives/client", driveHandler.ListClient)
		r.Get("/drives/cloud", driveHandler.ListCloud)
		r.Get("/drives/lookup", driveHandler.Lookup)
		r.Get("/drives/by-identifier/{identifier}", driveHandler.Match)
		r.Put("/drives/by-identifier/{identifier}/availability", driveHandler.SetAvailability)
		r.Get("/drives/{id}", driveHandler.Get)
		r.Post("/clients/offline", driveHandler.ClientOffline)

		// Destination routes
		r.Post("/destinations", destinationHandler.Add)
		r.Get("/destinations", destinationHandler.List)
		r.Get("/destinations/client", destinationHandler.ListClient)
		r.Get("/destinations/analytics", destinationHandler.Analytics)
		r.Get("/destinations/category", destinationHandler.Category)
		r.Post("/destinations/capture", destinationHandler.Capture)
		r.Get("/destinations/{id}", destinationHandler.Get)
		r.Delete("/destinations/{id}", destinationHandler.Remove)
		r.Post("/destinations/{id}/usage", destinationHandler.RecordUsage)
		r.Get("/destinations/{id}/usage", destinationHandler.UsageHistory)
	})

	return &Handler{Router: r}
}
