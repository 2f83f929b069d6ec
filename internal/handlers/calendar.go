package handlers

import (
	"context"
	"net/http"
	"time"

	"placement-crm/backend/internal/models"
)

type eventRequest struct {
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	AllDay          bool    `json:"all_day"`
	Location        *string `json:"location"`
	Color           *string `json:"color"`
	EventType       string  `json:"event_type"`
	Reminder        bool    `json:"reminder"`
	ReminderMinutes int     `json:"reminder_minutes"`
}

func (a *API) ListEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := r.URL.Query()
	var start, end *time.Time
	if value := query.Get("start"); value != "" {
		if parsed, err := time.Parse("2006-01-02", value); err == nil {
			start = &parsed
		}
	}
	if value := query.Get("end"); value != "" {
		if parsed, err := time.Parse("2006-01-02", value); err == nil {
			v := parsed.Add(24 * time.Hour)
			end = &v
		}
	}

	rows, err := a.Store.Pool.Query(ctx, `
		SELECT id, user_id, title, description, start_time, end_time, all_day, location, color, event_type, status, reminder, reminder_minutes, created_at
		FROM calendar_events
		WHERE user_id=$1
		  AND ($2::TIMESTAMPTZ IS NULL OR end_time >= $2)
		  AND ($3::TIMESTAMPTZ IS NULL OR start_time < $3)
		ORDER BY start_time`, user.ID, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	defer rows.Close()

	events := []models.CalendarEvent{}
	for rows.Next() {
		var e models.CalendarEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.AllDay, &e.Location, &e.Color, &e.EventType, &e.Status, &e.Reminder, &e.ReminderMinutes, &e.CreatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load events")
			return
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": events})
}

func (a *API) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req eventRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Title == "" || req.StartTime == "" || req.EndTime == "" {
		writeError(w, http.StatusBadRequest, "title, start_time, and end_time are required")
		return
	}
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time")
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil || endTime.Before(startTime) {
		writeError(w, http.StatusBadRequest, "invalid end_time")
		return
	}
	eventType := req.EventType
	if eventType == "" {
		eventType = "MEETING"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var event models.CalendarEvent
	err = a.Store.Pool.QueryRow(ctx, `
		INSERT INTO calendar_events (user_id, title, description, start_time, end_time, all_day, location, color, event_type, status, reminder, reminder_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'CONFIRMED', $10, $11, NOW())
		RETURNING id, user_id, title, description, start_time, end_time, all_day, location, color, event_type, status, reminder, reminder_minutes, created_at`,
		user.ID, req.Title, req.Description, startTime, endTime, req.AllDay, req.Location, req.Color, eventType, req.Reminder, req.ReminderMinutes).Scan(
		&event.ID, &event.UserID, &event.Title, &event.Description, &event.StartTime, &event.EndTime, &event.AllDay, &event.Location, &event.Color, &event.EventType, &event.Status, &event.Reminder, &event.ReminderMinutes, &event.CreatedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	a.logAudit(ctx, r, &user.ID, "event_created", "calendar_event", &event.ID, nil)
	writeJSON(w, http.StatusCreated, map[string]any{"data": event})
}

func (a *API) UpdateEvent(w http.ResponseWriter, r *http.Request, eventID int64) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req eventRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var startTime, endTime *time.Time
	if req.StartTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_time")
			return
		}
		startTime = &parsed
	}
	if req.EndTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_time")
			return
		}
		endTime = &parsed
	}
	if startTime != nil && endTime != nil && endTime.Before(*startTime) {
		writeError(w, http.StatusBadRequest, "invalid end_time")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var event models.CalendarEvent
	err := a.Store.Pool.QueryRow(ctx, `
		UPDATE calendar_events
		SET title=COALESCE(NULLIF($3, ''), title),
		    description=COALESCE($4, description),
		    start_time=COALESCE($5, start_time),
		    end_time=COALESCE($6, end_time),
		    location=COALESCE($7, location),
		    color=COALESCE($8, color),
		    event_type=COALESCE(NULLIF($9, ''), event_type),
		    reminder=$10,
		    reminder_minutes=$11
		WHERE id=$1 AND user_id=$2
		RETURNING id, user_id, title, description, start_time, end_time, all_day, location, color, event_type, status, reminder, reminder_minutes, created_at`,
		eventID, user.ID, req.Title, req.Description, startTime, endTime, req.Location, req.Color, req.EventType, req.Reminder, req.ReminderMinutes).Scan(
		&event.ID, &event.UserID, &event.Title, &event.Description, &event.StartTime, &event.EndTime, &event.AllDay, &event.Location, &event.Color, &event.EventType, &event.Status, &event.Reminder, &event.ReminderMinutes, &event.CreatedAt)
	if err != nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	a.logAudit(ctx, r, &user.ID, "event_updated", "calendar_event", &event.ID, nil)
	writeJSON(w, http.StatusOK, map[string]any{"data": event})
}

func (a *API) DeleteEvent(w http.ResponseWriter, r *http.Request, eventID int64) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := a.Store.Pool.Exec(ctx,
		`DELETE FROM calendar_events WHERE id=$1 AND user_id=$2`, eventID, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}
	if tag.RowsAffected() == 0 {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	a.logAudit(ctx, r, &user.ID, "event_deleted", "calendar_event", &eventID, nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
