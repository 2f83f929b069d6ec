package router

import (
	"net/http"
	"strconv"
	"strings"

	"placement-crm/backend/internal/auth"
	"placement-crm/backend/internal/handlers"
	"placement-crm/backend/internal/middleware"
	"placement-crm/backend/internal/realtime"
)

type Router struct {
	api     *handlers.API
	auth    *auth.Service
	limiter *middleware.RateLimiter
	origin  string
	hub     *realtime.Hub
}

func New(api *handlers.API, authService *auth.Service, limiter *middleware.RateLimiter, origin string, hub *realtime.Hub) *Router {
	return &Router{api: api, auth: authService, limiter: limiter, origin: origin, hub: hub}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if middleware.HandleCORS(w, r, rt.origin) {
		return
	}
	middleware.SecurityHeaders(w)

	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "" {
		path = "/"
	}

	required := handlers.RequiredRole(path, r.Method)
	if required != "" {
		user, err := middleware.Authenticate(r, rt.auth)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("{\"error\":\"unauthorized\"}"))
			return
		}
		if rt.limiter != nil {
			key := "user:" + strconv.FormatInt(user.ID, 10)
			if !rt.limiter.Allow(key) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte("{\"error\":\"rate limit exceeded\"}"))
				return
			}
		}
		if err := middleware.ValidateCSRF(r, user); err != nil {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("{\"error\":\"invalid csrf token\"}"))
			return
		}
		r = r.WithContext(auth.WithUser(r.Context(), user))
		if !rt.api.Authorize(r, required) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("{\"error\":\"forbidden\"}"))
			return
		}
	} else if rt.limiter != nil {
		key := middleware.ClientKey(r)
		if !rt.limiter.Allow(key) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("{\"error\":\"rate limit exceeded\"}"))
			return
		}
	}

	switch {
	case path == "/api/auth/signup":
		if r.Method == http.MethodPost {
			rt.api.Signup(w, r)
			return
		}
	case path == "/api/auth/login":
		if r.Method == http.MethodPost {
			rt.api.Login(w, r)
			return
		}
	case path == "/api/auth/me":
		if r.Method == http.MethodGet {
			rt.api.Me(w, r)
			return
		}
	case path == "/api/ws":
		if r.Method == http.MethodGet && rt.hub != nil {
			if user, ok := auth.UserFromContext(r.Context()); ok {
				realtime.ServeWS(w, r, rt.hub, user.ID)
				return
			}
		}
	case path == "/api/stats":
		if r.Method == http.MethodGet {
			rt.api.Stats(w, r)
			return
		}
	case path == "/api/users":
		if r.Method == http.MethodGet {
			rt.api.ListUsers(w, r)
			return
		}
	case path == "/api/users/profile":
		if r.Method == http.MethodPut {
			rt.api.UpdateProfile(w, r)
			return
		}
	case path == "/api/users/consent":
		if r.Method == http.MethodPut {
			rt.api.UpdateConsent(w, r)
			return
		}
	case strings.HasPrefix(path, "/api/users/"):
		if id, ok := handlers.ParseID(strings.TrimPrefix(path, "/api/users/")); ok {
			if r.Method == http.MethodPut || r.Method == http.MethodPatch {
				rt.api.UpdateUser(w, r, id)
				return
			}
		}
	case path == "/api/teams":
		switch r.Method {
		case http.MethodGet:
			rt.api.ListTeams(w, r)
			return
		case http.MethodPost:
			rt.api.CreateTeam(w, r)
			return
		}
	case strings.HasPrefix(path, "/api/teams/"):
		if id, ok := handlers.ParseID(strings.TrimPrefix(path, "/api/teams/")); ok {
			switch r.Method {
			case http.MethodPut, http.MethodPatch:
				rt.api.UpdateTeam(w, r, id)
				return
			case http.MethodDelete:
				rt.api.DeleteTeam(w, r, id)
				return
			}
		}
	case path == "/api/tasks":
		switch r.Method {
		case http.MethodGet:
			rt.api.ListTasks(w, r)
			return
		case http.MethodPost:
			rt.api.CreateTask(w, r)
			return
		}
	case strings.HasPrefix(path, "/api/tasks/"):
		if id, ok := handlers.ParseID(strings.TrimPrefix(path, "/api/tasks/")); ok {
			switch r.Method {
			case http.MethodPut, http.MethodPatch:
				rt.api.UpdateTask(w, r, id)
				return
			case http.MethodDelete:
				rt.api.DeleteTask(w, r, id)
				return
			}
		}
	case path == "/api/calendar":
		switch r.Method {
		case http.MethodGet:
			rt.api.ListEvents(w, r)
			return
		case http.MethodPost:
			rt.api.CreateEvent(w, r)
			return
		}
	case strings.HasPrefix(path, "/api/calendar/"):
		if id, ok := handlers.ParseID(strings.TrimPrefix(path, "/api/calendar/")); ok {
			switch r.Method {
			case http.MethodPut, http.MethodPatch:
				rt.api.UpdateEvent(w, r, id)
				return
			case http.MethodDelete:
				rt.api.DeleteEvent(w, r, id)
				return
			}
		}
	case path == "/api/notes":
		switch r.Method {
		case http.MethodGet:
			rt.api.ListNotes(w, r)
			return
		case http.MethodPost:
			rt.api.UpsertNote(w, r)
			return
		}
	case strings.HasPrefix(path, "/api/notes/"):
		if id, ok := handlers.ParseID(strings.TrimPrefix(path, "/api/notes/")); ok {
			if r.Method == http.MethodDelete {
				rt.api.DeleteNote(w, r, id)
				return
			}
		}
	case path == "/api/notifications":
		if r.Method == http.MethodGet {
			rt.api.ListNotifications(w, r)
			return
		}
	case path == "/api/notifications/pending":
		if r.Method == http.MethodGet {
			rt.api.PendingWork(w, r)
			return
		}
	case path == "/api/notifications/read-all":
		if r.Method == http.MethodPost {
			rt.api.MarkAllNotificationsRead(w, r)
			return
		}
	case strings.HasPrefix(path, "/api/notifications/"):
		segments := strings.Split(strings.TrimPrefix(path, "/api/notifications/"), "/")
		if len(segments) == 2 && segments[1] == "read" && r.Method == http.MethodPost {
			if id, ok := handlers.ParseID(segments[0]); ok {
				rt.api.MarkNotificationRead(w, r, id)
				return
			}
		}
	case path == "/api/conversations":
		if r.Method == http.MethodGet {
			rt.api.ListConversations(w, r)
			return
		}
	case strings.HasPrefix(path, "/api/conversations/"):
		segments := strings.Split(strings.TrimPrefix(path, "/api/conversations/"), "/")
		if len(segments) == 2 {
			if id, ok := handlers.ParseID(segments[0]); ok {
				switch {
				case segments[1] == "messages" && r.Method == http.MethodGet:
					rt.api.ListMessages(w, r, id)
					return
				case segments[1] == "summarize" && r.Method == http.MethodPost:
					rt.api.SummarizeConversation(w, r, id)
					return
				}
			}
		}
	case path == "/api/messages/send":
		if r.Method == http.MethodPost {
			rt.api.SendMessage(w, r)
			return
		}
	case path == "/api/chat-summaries":
		if r.Method == http.MethodGet {
			rt.api.ListChatSummaries(w, r)
			return
		}
	case path == "/api/upload-chat":
		if r.Method == http.MethodPost {
			rt.api.UploadChat(w, r)
			return
		}
	case path == "/api/dsrs":
		if r.Method == http.MethodGet {
			rt.api.ListDSRs(w, r)
			return
		}
	case strings.HasPrefix(path, "/api/dsrs/"):
		if id, ok := handlers.ParseID(strings.TrimPrefix(path, "/api/dsrs/")); ok {
			if r.Method == http.MethodGet {
				rt.api.GetDSR(w, r, id)
				return
			}
		}
	case path == "/api/generate-dsr":
		if r.Method == http.MethodPost {
			rt.api.GenerateDSR(w, r)
			return
		}
	case path == "/api/audit-logs":
		if r.Method == http.MethodGet {
			rt.api.ListAuditLogs(w, r)
			return
		}
	case path == "/api/webhook/whatsapp":
		switch r.Method {
		case http.MethodGet:
			rt.api.VerifyWebhook(w, r)
			return
		case http.MethodPost:
			rt.api.ReceiveWebhook(w, r)
			return
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("{\"error\":\"not found\"}"))
}
