package handlers

import (
	"context"
	"net/http"
	"time"

	"placement-crm/backend/internal/models"
)

type teamRequest struct {
	Name     string `json:"name"`
	LeaderID *int64 `json:"leader_id"`
}

func (a *API) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := a.Store.Pool.Query(ctx, `
		SELECT t.id, t.name, t.leader_id, t.created_at,
		       (SELECT COUNT(*) FROM users u WHERE u.team_id=t.id)
		FROM teams t
		ORDER BY t.name`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load teams")
		return
	}
	defer rows.Close()

	type teamWithCount struct {
		models.Team
		MemberCount int `json:"member_count"`
	}
	teams := []teamWithCount{}
	for rows.Next() {
		var t teamWithCount
		if err := rows.Scan(&t.ID, &t.Name, &t.LeaderID, &t.CreatedAt, &t.MemberCount); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load teams")
			return
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load teams")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": teams})
}

func (a *API) CreateTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req teamRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !a.validTeamLeader(ctx, req.LeaderID) {
		writeError(w, http.StatusBadRequest, "leader must hold the LEADER or ADMIN role")
		return
	}

	var team models.Team
	err := a.Store.Pool.QueryRow(ctx, `
		INSERT INTO teams (name, leader_id, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, name, leader_id, created_at`, req.Name, req.LeaderID).Scan(
		&team.ID, &team.Name, &team.LeaderID, &team.CreatedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create team")
		return
	}

	a.logAudit(ctx, r, &user.ID, "team_created", "team", &team.ID, map[string]any{"name": team.Name})
	writeJSON(w, http.StatusCreated, map[string]any{"data": team})
}

func (a *API) UpdateTeam(w http.ResponseWriter, r *http.Request, teamID int64) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req teamRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !a.validTeamLeader(ctx, req.LeaderID) {
		writeError(w, http.StatusBadRequest, "leader must hold the LEADER or ADMIN role")
		return
	}

	var team models.Team
	err := a.Store.Pool.QueryRow(ctx, `
		UPDATE teams
		SET name=COALESCE(NULLIF($2, ''), name), leader_id=COALESCE($3, leader_id)
		WHERE id=$1
		RETURNING id, name, leader_id, created_at`, teamID, req.Name, req.LeaderID).Scan(
		&team.ID, &team.Name, &team.LeaderID, &team.CreatedAt)
	if err != nil {
		writeError(w, http.StatusNotFound, "team not found")
		return
	}

	a.logAudit(ctx, r, &user.ID, "team_updated", "team", &team.ID, nil)
	writeJSON(w, http.StatusOK, map[string]any{"data": team})
}

func (a *API) validTeamLeader(ctx context.Context, leaderID *int64) bool {
	if leaderID == nil {
		return true
	}
	var count int
	err := a.Store.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE id=$1 AND role IN ('LEADER', 'ADMIN')`,
		*leaderID).Scan(&count)
	return err == nil && count > 0
}

func (a *API) DeleteTeam(w http.ResponseWriter, r *http.Request, teamID int64) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := a.Store.Pool.Exec(ctx, `DELETE FROM teams WHERE id=$1`, teamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete team")
		return
	}
	if tag.RowsAffected() == 0 {
		writeError(w, http.StatusNotFound, "team not found")
		return
	}

	a.logAudit(ctx, r, &user.ID, "team_deleted", "team", &teamID, nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
