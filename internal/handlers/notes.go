package handlers

import (
	"context"
	"net/http"
	"time"

	"placement-crm/backend/internal/models"
)

type noteRequest struct {
	Date      string   `json:"date"`
	Title     *string  `json:"title"`
	Content   string   `json:"content"`
	Mood      string   `json:"mood"`
	Tags      []string `json:"tags"`
	IsPrivate bool     `json:"is_private"`
}

func (a *API) ListNotes(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, limit := parsePagination(r)
	rows, err := a.Store.Pool.Query(ctx, `
		SELECT id, user_id, date, title, content, mood, tags, is_private, created_at, updated_at
		FROM daily_notes
		WHERE user_id=$1
		ORDER BY date DESC
		LIMIT $2 OFFSET $3`, user.ID, limit, (page-1)*limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notes")
		return
	}
	defer rows.Close()

	notes := []models.DailyNote{}
	for rows.Next() {
		var n models.DailyNote
		if err := rows.Scan(&n.ID, &n.UserID, &n.Date, &n.Title, &n.Content, &n.Mood, &n.TagsJSON, &n.IsPrivate, &n.CreatedAt, &n.UpdatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load notes")
			return
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": notes, "page": page, "limit": limit})
}

// UpsertNote writes the note for (user, date); one note per user per day.
func (a *API) UpsertNote(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req noteRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	mood := req.Mood
	if mood == "" {
		mood = "NEUTRAL"
	}
	tags := marshalOptional(req.Tags)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var note models.DailyNote
	err = a.Store.Pool.QueryRow(ctx, `
		INSERT INTO daily_notes (user_id, date, title, content, mood, tags, is_private, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (user_id, date) DO UPDATE SET
			title=EXCLUDED.title,
			content=EXCLUDED.content,
			mood=EXCLUDED.mood,
			tags=EXCLUDED.tags,
			is_private=EXCLUDED.is_private,
			updated_at=NOW()
		RETURNING id, user_id, date, title, content, mood, tags, is_private, created_at, updated_at`,
		user.ID, day, req.Title, req.Content, mood, tags, req.IsPrivate).Scan(
		&note.ID, &note.UserID, &note.Date, &note.Title, &note.Content, &note.Mood, &note.TagsJSON, &note.IsPrivate, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save note")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": note})
}

func (a *API) DeleteNote(w http.ResponseWriter, r *http.Request, noteID int64) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := a.Store.Pool.Exec(ctx,
		`DELETE FROM daily_notes WHERE id=$1 AND user_id=$2`, noteID, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete note")
		return
	}
	if tag.RowsAffected() == 0 {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
