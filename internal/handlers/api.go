package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"placement-crm/backend/internal/auth"
	"placement-crm/backend/internal/db"
	"placement-crm/backend/internal/dsr"
	"placement-crm/backend/internal/llm/contract"
	"placement-crm/backend/internal/realtime"
	"placement-crm/backend/internal/whatsapp"
)

type API struct {
	Store      *db.Store
	Auth       *auth.Service
	Hub        *realtime.Hub
	Provider   whatsapp.Provider
	Ingestor   *whatsapp.Ingestor
	DSRService *dsr.Service
	DSRLimiter *dsr.Limiter
	DSRQueue   *dsr.Queue
	Summarizer contract.Generator
	DSRSecret  string
}

func NewAPI(store *db.Store, authService *auth.Service, hub *realtime.Hub) *API {
	return &API{Store: store, Auth: authService, Hub: hub}
}

func (a *API) currentUser(r *http.Request) (auth.User, bool) {
	return auth.UserFromContext(r.Context())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func ParseID(pathPart string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(pathPart), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parsePagination(r *http.Request) (int, int) {
	page := 1
	limit := 20
	if value := r.URL.Query().Get("page"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	return page, limit
}

func stringPtr(value string) *string {
	return &value
}
