package handlers

import (
	"DriveKeeper/internal/config"
	"DriveKeeper/internal/model"
	"DriveKeeper/internal/service"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DestinationHandler — HTTP-доступ к памяти папок назначения.
type DestinationHandler struct {
	Destinations *service.DestinationMemory
	Logger       *zap.SugaredLogger
	Config       *config.Config
}

// NewDestinationHandler создаёт хендлер папок назначения
func NewDestinationHandler(destinations *service.DestinationMemory, logger *zap.SugaredLogger, cfg *config.Config) *DestinationHandler {
	return &DestinationHandler{Destinations: destinations, Logger: logger, Config: cfg}
}

type AddDestinationRequest struct {
	Path     string  `json:"path"`
	Category string  `json:"category,omitempty"`
	DriveID  *string `json:"drive_id,omitempty"`
}

type UsageRequest struct {
	FileCount     int    `json:"file_count"`
	OperationType string `json:"operation_type"`
}

type CaptureRequest struct {
	Operations []model.CompletedOperation `json:"operations"`
}

func (h *DestinationHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddDestinationRequest
	if !decodeJSON(w, r, h.Logger, "AddDestination", &req) {
		return
	}
	d, err := h.Destinations.AddDestination(r.Context(), userID(r), req.Path, req.Category, req.DriveID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// List возвращает активные папки; с ?category= только папки этой категории.
func (h *DestinationHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		list []model.Destination
		err  error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		list, err = h.Destinations.GetDestinationsByCategory(r.Context(), userID(r), category)
	} else {
		list, err = h.Destinations.GetDestinations(r.Context(), userID(r))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *DestinationHandler) ListClient(w http.ResponseWriter, r *http.Request) {
	client, ok := clientID(w, r)
	if !ok {
		return
	}
	list, err := h.Destinations.GetDestinationsForClient(r.Context(), userID(r), client)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *DestinationHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.Destinations.GetUsageAnalytics(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Category — подсказка категории для пути, ничего не сохраняет.
func (h *DestinationHandler) Category(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	writeJSON(w, http.StatusOK, map[string]string{
		"path":     p,
		"category": service.ExtractCategoryFromPath(p),
	})
}

func (h *DestinationHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if !decodeJSON(w, r, h.Logger, "AutoCaptureDestinations", &req) {
		return
	}
	captured, err := h.Destinations.AutoCaptureDestinations(r.Context(), userID(r), req.Operations)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, captured)
}

func (h *DestinationHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.Destinations.GetDestination(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DestinationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Destinations.RemoveDestination(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

// RecordUsage учитывает использование папки. Папка должна принадлежать пользователю.
func (h *DestinationHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UsageRequest
	if !decodeJSON(w, r, h.Logger, "UpdateUsage", &req) {
		return
	}
	// UpdateUsage работает по id без пользователя: владение проверяем здесь
	if _, err := h.Destinations.GetDestination(r.Context(), userID(r), id); err != nil {
		writeError(w, err)
		return
	}
	ok, err := h.Destinations.UpdateUsage(r.Context(), id, req.FileCount, req.OperationType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": ok})
}

func (h *DestinationHandler) UsageHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.Logger.Warnw("GetUsageHistory: invalid limit", "value", raw)
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = v
	}
	events, err := h.Destinations.GetUsageHistory(r.Context(), userID(r), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
