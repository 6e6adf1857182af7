package handlers

import (
	"DriveKeeper/internal/config"
	"DriveKeeper/internal/model"
	"DriveKeeper/internal/service"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DriveHandler — HTTP-доступ к реестру носителей.
type DriveHandler struct {
	Drives *service.DriveRegistry
	Logger *zap.SugaredLogger
	Config *config.Config
}

// NewDriveHandler создаёт хендлер носителей
func NewDriveHandler(drives *service.DriveRegistry, logger *zap.SugaredLogger, cfg *config.Config) *DriveHandler {
	return &DriveHandler{Drives: drives, Logger: logger, Config: cfg}
}

// AvailabilityRequest — тело PUT .../availability.
type AvailabilityRequest struct {
	Available *bool `json:"available"`
}

// Register регистрирует носитель, о котором сообщил клиент.
func (h *DriveHandler) Register(w http.ResponseWriter, r *http.Request) {
	client, ok := clientID(w, r)
	if !ok {
		return
	}
	var info model.DriveInfo
	if !decodeJSON(w, r, h.Logger, "RegisterDrive", &info) {
		return
	}
	d, err := h.Drives.RegisterDrive(r.Context(), userID(r), client, info)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// RegisterBatch регистрирует пачку носителей: все или ни одного.
func (h *DriveHandler) RegisterBatch(w http.ResponseWriter, r *http.Request) {
	client, ok := clientID(w, r)
	if !ok {
		return
	}
	var infos []model.DriveInfo
	if !decodeJSON(w, r, h.Logger, "RegisterDrivesBatch", &infos) {
		return
	}
	drives, err := h.Drives.RegisterDrivesBatch(r.Context(), userID(r), client, infos)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drives)
}

func (h *DriveHandler) List(w http.ResponseWriter, r *http.Request) {
	drives, err := h.Drives.GetDrives(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drives)
}

func (h *DriveHandler) ListClient(w http.ResponseWriter, r *http.Request) {
	client, ok := clientID(w, r)
	if !ok {
		return
	}
	drives, err := h.Drives.GetClientDrives(r.Context(), userID(r), client)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drives)
}

func (h *DriveHandler) ListCloud(w http.ResponseWriter, r *http.Request) {
	drives, err := h.Drives.GetSharedCloudDrives(r.Context(), userID(r), r.URL.Query().Get("provider"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drives)
}

// Lookup ищет носитель клиента, на котором лежит путь.
func (h *DriveHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	client, ok := clientID(w, r)
	if !ok {
		return
	}
	d, err := h.Drives.GetDriveForPath(r.Context(), userID(r), r.URL.Query().Get("path"), client)
	if err != nil {
		writeError(w, err)
		return
	}
	if d == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DriveHandler) Match(w http.ResponseWriter, r *http.Request) {
	d, err := h.Drives.MatchDriveByIdentifier(r.Context(), userID(r), identifierParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if d == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DriveHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.Drives.GetDrive(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// SetAvailability меняет доступность носителя на клиенте из X-Client-ID.
func (h *DriveHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	client, ok := clientID(w, r)
	if !ok {
		return
	}
	var req AvailabilityRequest
	if !decodeJSON(w, r, h.Logger, "UpdateDriveAvailability", &req) {
		return
	}
	if req.Available == nil {
		h.Logger.Warnw("UpdateDriveAvailability: missing available", "client_id", client)
		http.Error(w, "missing available", http.StatusBadRequest)
		return
	}
	d, err := h.Drives.UpdateDriveAvailability(r.Context(), userID(r), identifierParam(r), *req.Available, client)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ClientOffline помечает недоступными все носители клиента.
func (h *DriveHandler) ClientOffline(w http.ResponseWriter, r *http.Request) {
	client, ok := clientID(w, r)
	if !ok {
		return
	}
	n, err := h.Drives.MarkClientOffline(r.Context(), userID(r), client)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// identifierParam: идентификатор может содержать экранированные символы (например "/").
func identifierParam(r *http.Request) string {
	raw := chi.URLParam(r, "identifier")
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
