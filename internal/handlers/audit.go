package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"placement-crm/backend/internal/auth"
	"placement-crm/backend/internal/models"
)

func (a *API) logAudit(ctx context.Context, r *http.Request, userID *int64, action, resource string, resourceID *int64, metadata any) {
	metadataJSON := marshalOptional(metadata)
	var ip *string
	if r != nil {
		ip = stringPtr(clientIP(r))
	}

	_, _ = a.Store.Pool.Exec(ctx, `
		INSERT INTO audit_logs (user_id, action, resource, resource_id, metadata, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, action, resource, resourceID, metadataJSON, ip, time.Now().UTC())
}

func (a *API) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, limit := parsePagination(r)

	var userID *int64
	if value := query.Get("userId"); value != "" {
		if id, ok := ParseID(value); ok {
			userID = &id
		}
	}
	var action *string
	if value := query.Get("action"); value != "" {
		action = &value
	}
	var resource *string
	if value := query.Get("resource"); value != "" {
		resource = &value
	}
	var start *time.Time
	if value := query.Get("startDate"); value != "" {
		if parsed, err := time.Parse("2006-01-02", value); err == nil {
			start = &parsed
		}
	}
	var end *time.Time
	if value := query.Get("endDate"); value != "" {
		if parsed, err := time.Parse("2006-01-02", value); err == nil {
			v := parsed.Add(24 * time.Hour)
			end = &v
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items := []models.AuditLog{}
	rows, err := a.Store.Pool.Query(ctx, `
		SELECT id, user_id, action, resource, resource_id, metadata, ip_address, created_at
		FROM audit_logs
		WHERE ($1::BIGINT IS NULL OR user_id = $1)
		  AND ($2::TEXT IS NULL OR action = $2)
		  AND ($3::TEXT IS NULL OR resource = $3)
		  AND ($4::TIMESTAMPTZ IS NULL OR created_at >= $4)
		  AND ($5::TIMESTAMPTZ IS NULL OR created_at < $5)
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7`, userID, action, resource, start, end, limit, (page-1)*limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load audit logs")
		return
	}
	defer rows.Close()
	for rows.Next() {
		var item models.AuditLog
		if err := rows.Scan(&item.ID, &item.UserID, &item.Action, &item.Resource, &item.ResourceID, &item.MetadataJSON, &item.IPAddress, &item.CreatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load audit logs")
			return
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load audit logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": items, "page": page, "limit": limit})
}

func marshalOptional(value any) *string {
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	text := string(raw)
	return &text
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func authUserIDPtr(r *http.Request) *int64 {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return &user.ID
	}
	return nil
}
