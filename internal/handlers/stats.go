package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"placement-crm/backend/internal/models"
)

// Stats backs the dashboard header cards.
func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)

	stats := map[string]int64{}
	counts := []struct {
		key   string
		query string
		args  []any
	}{
		{"openTasks", `SELECT COUNT(*) FROM tasks t WHERE t.status IN ('OPEN', 'IN_PROGRESS', 'BLOCKED') AND ` + scopeForCount(user.Role), []any{user.ID}},
		{"completedTasks", `SELECT COUNT(*) FROM tasks t WHERE t.status='DONE' AND ` + scopeForCount(user.Role), []any{user.ID}},
		{"overdueTasks", `SELECT COUNT(*) FROM tasks t WHERE t.status IN ('OPEN', 'IN_PROGRESS', 'BLOCKED') AND t.due_date < $2 AND ` + scopeForCount(user.Role), []any{user.ID, today}},
		{"todayEvents", `SELECT COUNT(*) FROM calendar_events WHERE user_id=$1 AND start_time >= $2 AND start_time < $3`, []any{user.ID, today, tomorrow}},
		{"unreadNotifications", `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read=FALSE`, []any{user.ID}},
		{"activeConversations", `SELECT COUNT(*) FROM whatsapp_conversations conv JOIN whatsapp_contacts ct ON ct.id=conv.contact_id WHERE ct.user_id=$1 AND conv.is_archived=FALSE`, []any{user.ID}},
		{"activeConversations7d", `SELECT COUNT(*) FROM whatsapp_conversations conv JOIN whatsapp_contacts ct ON ct.id=conv.contact_id WHERE ct.user_id=$1 AND conv.is_archived=FALSE AND conv.last_message_at >= $2`, []any{user.ID, today.AddDate(0, 0, -7)}},
		{"publishedDSRs", `SELECT COUNT(*) FROM dsrs WHERE user_id=$1 AND status='published'`, []any{user.ID}},
	}

	for _, c := range counts {
		var value int64
		if err := a.Store.Pool.QueryRow(ctx, c.query, c.args...).Scan(&value); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
		stats[c.key] = value
	}

	payload := map[string]any{"data": stats}

	if strings.ToUpper(user.Role) == roleAdmin {
		var users, teams int64
		_ = a.Store.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
		_ = a.Store.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM teams`).Scan(&teams)
		stats["totalUsers"] = users
		stats["totalTeams"] = teams
		if recent, err := a.recentActivity(ctx, 5); err == nil {
			payload["recentActivity"] = recent
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

func (a *API) recentActivity(ctx context.Context, limit int) ([]models.AuditLog, error) {
	rows, err := a.Store.Pool.Query(ctx, `
		SELECT id, user_id, action, resource, resource_id, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditLog{}
	for rows.Next() {
		var entry models.AuditLog
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Resource, &entry.ResourceID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scopeForCount(role string) string {
	switch strings.ToUpper(role) {
	case roleAdmin:
		// still binds $1 so every branch shares the same parameter list
		return "($1::BIGINT IS NOT NULL)"
	case roleLeader:
		return `(t.assigned_to_id=$1 OR t.assigned_by_id=$1 OR t.assigned_to_id IN (
			SELECT u.id FROM users u JOIN teams tm ON tm.id=u.team_id WHERE tm.leader_id=$1))`
	default:
		return "(t.assigned_to_id=$1 OR t.assigned_by_id=$1)"
	}
}
