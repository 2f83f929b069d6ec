package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"placement-crm/backend/internal/dsr"
	"placement-crm/backend/internal/models"
)

func (a *API) ListDSRs(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	var requested *int64
	if value := r.URL.Query().Get("userId"); value != "" {
		id, ok := ParseID(value)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid userId")
			return
		}
		requested = &id
	}
	filter := dsrScopeFilter(user.Role, user.ID, requested)

	page, limit := parsePagination(r)
	rows, err := a.Store.Pool.Query(ctx, `
		SELECT id, user_id, date, summary, llm_model, status, error_message, created_at, updated_at
		FROM dsrs
		WHERE ($1::BIGINT IS NULL OR user_id=$1)
		ORDER BY date DESC
		LIMIT $2 OFFSET $3`, filter, limit, (page-1)*limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load reports")
		return
	}
	defer rows.Close()

	items := []models.DSR{}
	for rows.Next() {
		var d models.DSR
		if err := rows.Scan(&d.ID, &d.UserID, &d.Date, &d.Summary, &d.LLMModel, &d.Status, &d.ErrorMessage, &d.CreatedAt, &d.UpdatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load reports")
			return
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load reports")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items, "page": page, "limit": limit})
}

// dsrScopeFilter resolves whose reports the caller may list. Members are
// pinned to their own; LEADER and up see everyone and may narrow the list
// with a userId filter.
func dsrScopeFilter(role string, userID int64, requested *int64) *int64 {
	if roleRank[strings.ToUpper(role)] < roleRank[roleLeader] {
		return &userID
	}
	return requested
}

func (a *API) GetDSR(w http.ResponseWriter, r *http.Request, dsrID int64) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var d models.DSR
	err := a.Store.Pool.QueryRow(ctx, `
		SELECT id, user_id, date, summary, llm_model, status, error_message, created_at, updated_at
		FROM dsrs
		WHERE id=$1`, dsrID).Scan(
		&d.ID, &d.UserID, &d.Date, &d.Summary, &d.LLMModel, &d.Status, &d.ErrorMessage, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if d.UserID != user.ID && roleRank[strings.ToUpper(user.Role)] < roleRank[roleLeader] {
		writeError(w, http.StatusForbidden, "not allowed to view this report")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": d})
}

type generateDSRRequest struct {
	UserID          *int64 `json:"userId"`
	Date            string `json:"date"`
	ForceRegenerate bool   `json:"forceRegenerate"`
}

// GenerateDSR is the scheduled-job entry point, authenticated by a shared
// secret header rather than a user session. One user runs inline; omitting
// userId fans the run out to every user through the queue.
func (a *API) GenerateDSR(w http.ResponseWriter, r *http.Request) {
	if a.DSRSecret == "" || r.Header.Get("X-DSR-Secret") != a.DSRSecret {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if a.DSRService == nil {
		writeError(w, http.StatusServiceUnavailable, "report generation not configured")
		return
	}

	var req generateDSRRequest
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	date := req.Date
	if date == "" {
		date = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	if a.DSRLimiter != nil && !a.DSRLimiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":     "Rate limit exceeded",
			"remaining": a.DSRLimiter.Remaining(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	if req.UserID != nil {
		generated, result := a.DSRService.GenerateForUser(ctx, *req.UserID, date, req.ForceRegenerate)
		if generated != nil {
			a.finishDSR(ctx, r, generated, result)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "completed",
			"date":           date,
			"processedUsers": 1,
			"results":        []dsr.UserResult{result},
		})
		return
	}

	userIDs, err := a.allUserIDs(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	if len(userIDs) == 0 {
		writeError(w, http.StatusNotFound, "no users found")
		return
	}

	if a.DSRQueue != nil {
		queued := 0
		for _, id := range userIDs {
			job := dsr.Job{UserID: id, Date: date, Force: req.ForceRegenerate, CreatedAt: time.Now()}
			if err := a.DSRQueue.Enqueue(ctx, job); err == nil {
				queued++
			}
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status": "queued",
			"date":   date,
			"queued": queued,
		})
		return
	}

	// no queue configured; run inline
	results := make([]dsr.UserResult, 0, len(userIDs))
	for _, id := range userIDs {
		generated, result := a.DSRService.GenerateForUser(ctx, id, date, req.ForceRegenerate)
		if generated != nil {
			a.finishDSR(ctx, r, generated, result)
		}
		results = append(results, result)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "completed",
		"date":           date,
		"processedUsers": len(results),
		"results":        results,
	})
}

func (a *API) finishDSR(ctx context.Context, r *http.Request, generated *models.DSR, result dsr.UserResult) {
	a.logAudit(ctx, r, &generated.UserID, "dsr_generated", "dsr", &generated.ID, map[string]any{
		"date":       generated.Date.Format("2006-01-02"),
		"llmSuccess": result.LLMSuccess,
		"model":      generated.LLMModel,
	})
	if a.Hub != nil {
		a.Hub.SendToUser(generated.UserID, map[string]any{
			"type":   "dsr.ready",
			"dsr_id": generated.ID,
			"date":   generated.Date.Format("2006-01-02"),
		})
	}
}

func (a *API) allUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := a.Store.Pool.Query(ctx,
		`SELECT id FROM users WHERE role IN ('ADMIN', 'LEADER', 'MEMBER') ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
