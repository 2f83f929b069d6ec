package handlers

import (
	"context"
	"net/http"
	"time"

	"placement-crm/backend/internal/models"
)

func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := a.Store.Pool.Query(ctx, `
		SELECT id, name, email, role, team_id, phone, opt_in, opt_in_date, created_at, updated_at
		FROM users
		ORDER BY name`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.TeamID, &u.Phone, &u.OptIn, &u.OptInDate, &u.CreatedAt, &u.UpdatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load users")
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": users})
}

type adminUserUpdate struct {
	Role   *string `json:"role"`
	TeamID *int64  `json:"team_id"`
}

// UpdateUser lets an admin change role and team membership.
func (a *API) UpdateUser(w http.ResponseWriter, r *http.Request, userID int64) {
	admin, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req adminUserUpdate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Role != nil {
		if _, ok := roleRank[*req.Role]; !ok {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := a.Store.Pool.QueryRow(ctx, `
		UPDATE users
		SET role=COALESCE($2, role), team_id=COALESCE($3, team_id), updated_at=NOW()
		WHERE id=$1
		RETURNING id, name, email, role, team_id, phone, opt_in, opt_in_date, created_at, updated_at`,
		userID, req.Role, req.TeamID).Scan(
		&user.ID, &user.Name, &user.Email, &user.Role, &user.TeamID, &user.Phone, &user.OptIn, &user.OptInDate, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	a.logAudit(ctx, r, &admin.ID, "user_updated", "user", &userID, map[string]any{"role": user.Role})
	writeJSON(w, http.StatusOK, map[string]any{"data": user})
}

type profileUpdate struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

func (a *API) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sessionUser, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req profileUpdate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := a.Store.Pool.QueryRow(ctx, `
		UPDATE users
		SET name=COALESCE($2, name), phone=COALESCE($3, phone), updated_at=NOW()
		WHERE id=$1
		RETURNING id, name, email, role, team_id, phone, opt_in, opt_in_date, created_at, updated_at`,
		sessionUser.ID, req.Name, req.Phone).Scan(
		&user.ID, &user.Name, &user.Email, &user.Role, &user.TeamID, &user.Phone, &user.OptIn, &user.OptInDate, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": user})
}

type consentRequest struct {
	OptIn bool `json:"opt_in"`
}

// UpdateConsent flips the user's WhatsApp reporting opt-in. Granting sets
// the consent timestamp; revoking clears it. Consent gates whether the
// user's conversation data feeds DSRs and chat imports.
func (a *API) UpdateConsent(w http.ResponseWriter, r *http.Request) {
	sessionUser, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req consentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := a.Store.Pool.QueryRow(ctx, `
		UPDATE users
		SET opt_in=$2,
		    opt_in_date=CASE WHEN $2 THEN NOW() ELSE NULL END,
		    updated_at=NOW()
		WHERE id=$1
		RETURNING id, name, email, role, team_id, phone, opt_in, opt_in_date, created_at, updated_at`,
		sessionUser.ID, req.OptIn).Scan(
		&user.ID, &user.Name, &user.Email, &user.Role, &user.TeamID, &user.Phone, &user.OptIn, &user.OptInDate, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update consent")
		return
	}

	action := "consent_revoked"
	if req.OptIn {
		action = "consent_granted"
	}
	a.logAudit(ctx, r, &sessionUser.ID, action, "user", &sessionUser.ID, nil)

	writeJSON(w, http.StatusOK, map[string]any{"data": user})
}
