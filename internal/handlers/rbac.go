package handlers

import (
	"net/http"
	"strings"
)

const (
	roleAdmin  = "ADMIN"
	roleLeader = "LEADER"
	roleMember = "MEMBER"
)

var roleRank = map[string]int{
	roleAdmin:  3,
	roleLeader: 2,
	roleMember: 1,
}

func (a *API) Authorize(r *http.Request, requiredRole string) bool {
	if requiredRole == "" {
		return true
	}
	user, ok := a.currentUser(r)
	if !ok {
		return false
	}
	return roleRank[strings.ToUpper(user.Role)] >= roleRank[strings.ToUpper(requiredRole)]
}

// RequiredRole maps a route to the minimum role that may call it. Empty
// string means public (or pre-role checks only, like the DSR secret header
// and webhook verification).
func RequiredRole(path, method string) string {
	switch {
	case path == "/api/auth/login", path == "/api/auth/signup":
		return ""
	case path == "/api/webhook/whatsapp":
		return ""
	case path == "/api/generate-dsr":
		return ""
	case path == "/api/ws":
		return roleMember
	case path == "/api/auth/me":
		return roleMember
	case path == "/api/stats":
		return roleMember
	case path == "/api/users":
		if method == http.MethodGet {
			return roleMember
		}
		return roleAdmin
	case path == "/api/users/profile", path == "/api/users/consent":
		return roleMember
	case strings.HasPrefix(path, "/api/users/"):
		return roleAdmin
	case path == "/api/teams":
		if method == http.MethodGet {
			return roleMember
		}
		return roleAdmin
	case strings.HasPrefix(path, "/api/teams/"):
		return roleAdmin
	case path == "/api/tasks":
		return roleMember
	case strings.HasPrefix(path, "/api/tasks/"):
		if method == http.MethodDelete {
			return roleAdmin
		}
		return roleMember
	case path == "/api/calendar":
		return roleMember
	case strings.HasPrefix(path, "/api/calendar/"):
		return roleMember
	case path == "/api/notes":
		return roleMember
	case strings.HasPrefix(path, "/api/notes/"):
		return roleMember
	case path == "/api/notifications", path == "/api/notifications/pending":
		return roleMember
	case strings.HasPrefix(path, "/api/notifications/"):
		return roleMember
	case path == "/api/conversations":
		return roleMember
	case strings.HasPrefix(path, "/api/conversations/") && strings.HasSuffix(path, "/messages"):
		return roleMember
	case strings.HasPrefix(path, "/api/conversations/") && strings.HasSuffix(path, "/summarize"):
		return roleLeader
	case path == "/api/messages/send":
		return roleMember
	case path == "/api/chat-summaries":
		return roleMember
	case path == "/api/upload-chat":
		return roleMember
	case path == "/api/dsrs":
		return roleMember
	case strings.HasPrefix(path, "/api/dsrs/"):
		return roleMember
	case path == "/api/audit-logs":
		return roleAdmin
	default:
		if strings.HasPrefix(path, "/api/") {
			return roleMember
		}
	}
	return ""
}
