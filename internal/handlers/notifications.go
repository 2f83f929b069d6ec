package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"placement-crm/backend/internal/models"
)

func (a *API) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, limit := parsePagination(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	rows, err := a.Store.Pool.Query(ctx, `
		SELECT id, user_id, type, title, message, payload, read, read_at, created_at
		FROM notifications
		WHERE user_id=$1 AND ($2=FALSE OR read=FALSE)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, user.ID, unreadOnly, limit, (page-1)*limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}
	defer rows.Close()

	items := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.PayloadJSON, &n.Read, &n.ReadAt, &n.CreatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load notifications")
			return
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}

	var unread int
	_ = a.Store.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read=FALSE`, user.ID).Scan(&unread)

	writeJSON(w, http.StatusOK, map[string]any{"data": items, "unread_count": unread})
}

func (a *API) MarkNotificationRead(w http.ResponseWriter, r *http.Request, notificationID int64) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := a.Store.Pool.Exec(ctx, `
		UPDATE notifications SET read=TRUE, read_at=NOW()
		WHERE id=$1 AND user_id=$2`, notificationID, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	if tag.RowsAffected() == 0 {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "read"})
}

func (a *API) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := a.Store.Pool.Exec(ctx, `
		UPDATE notifications SET read=TRUE, read_at=NOW()
		WHERE user_id=$1 AND read=FALSE`, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "read"})
}

// PendingWork scans for overdue tasks, tasks due today, and today's events,
// raising a notification per bucket that has entries.
func (a *API) PendingWork(w http.ResponseWriter, r *http.Request) {
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

	overdue, err := a.queryTaskTitles(ctx, `
		SELECT id, title FROM tasks
		WHERE assigned_to_id=$1 AND status IN ('OPEN', 'IN_PROGRESS', 'BLOCKED') AND due_date < $2`,
		user.ID, today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check pending work")
		return
	}
	dueToday, err := a.queryTaskTitles(ctx, `
		SELECT id, title FROM tasks
		WHERE assigned_to_id=$1 AND status IN ('OPEN', 'IN_PROGRESS', 'BLOCKED') AND due_date >= $2 AND due_date < $3`,
		user.ID, today, tomorrow)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check pending work")
		return
	}
	events, err := a.queryTaskTitles(ctx, `
		SELECT id, title FROM calendar_events
		WHERE user_id=$1 AND status IN ('SCHEDULED', 'CONFIRMED') AND start_time >= $2 AND start_time < $3
		ORDER BY start_time`, user.ID, now, tomorrow)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check pending work")
		return
	}

	if len(overdue) > 0 {
		a.notify(ctx, user.ID, "overdue_tasks",
			fmt.Sprintf("%d Overdue Task%s", len(overdue), plural(len(overdue))),
			fmt.Sprintf("You have %d overdue task(s): %s", len(overdue), joinTitles(overdue)),
			map[string]any{"taskIds": ids(overdue)})
	}
	if len(dueToday) > 0 {
		a.notify(ctx, user.ID, "today_tasks",
			fmt.Sprintf("%d Task%s Due Today", len(dueToday), plural(len(dueToday))),
			"Tasks due today: "+joinTitles(dueToday),
			map[string]any{"taskIds": ids(dueToday)})
	}
	if len(events) > 0 {
		a.notify(ctx, user.ID, "today_events",
			fmt.Sprintf("%d Event%s Today", len(events), plural(len(events))),
			"Upcoming events: "+joinTitles(events),
			map[string]any{"eventIds": ids(events)})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary": map[string]int{
			"overdueTasks": len(overdue),
			"todayTasks":   len(dueToday),
			"todayEvents":  len(events),
		},
		"tasks":  map[string]any{"overdue": overdue, "today": dueToday},
		"events": events,
	})
}

type titledRow struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func (a *API) queryTaskTitles(ctx context.Context, query string, args ...any) ([]titledRow, error) {
	rows, err := a.Store.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []titledRow{}
	for rows.Next() {
		var item titledRow
		if err := rows.Scan(&item.ID, &item.Title); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

func joinTitles(items []titledRow) string {
	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	return strings.Join(titles, ", ")
}

func ids(items []titledRow) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
