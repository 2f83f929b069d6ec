package handlers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"placement-crm/backend/internal/auth"
	"placement-crm/backend/internal/models"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email, and password are required")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var phone *string
	if req.Phone != "" {
		phone = &req.Phone
	}

	var user models.User
	query := `
		INSERT INTO users (name, email, password_hash, role, phone, opt_in, created_at, updated_at)
		VALUES ($1, $2, $3, 'MEMBER', $4, FALSE, NOW(), NOW())
		RETURNING id, name, email, role, team_id, phone, opt_in, opt_in_date, created_at, updated_at`
	if err := a.Store.Pool.QueryRow(ctx, query, req.Name, req.Email, string(passwordHash), phone).Scan(
		&user.ID, &user.Name, &user.Email, &user.Role, &user.TeamID, &user.Phone, &user.OptIn, &user.OptInDate, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		writeError(w, http.StatusConflict, "failed to register user")
		return
	}

	a.logAudit(ctx, r, &user.ID, "user_signup", "user", &user.ID, nil)
	a.issueSession(w, user)
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	query := `
		SELECT id, name, email, password_hash, role, team_id, phone, opt_in, opt_in_date, created_at, updated_at
		FROM users
		WHERE email=$1`
	if err := a.Store.Pool.QueryRow(ctx, query, req.Email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.TeamID, &user.Phone, &user.OptIn, &user.OptInDate, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	a.logAudit(ctx, r, &user.ID, "user_login", "user", &user.ID, nil)
	a.issueSession(w, user)
}

func (a *API) issueSession(w http.ResponseWriter, user models.User) {
	csrf, err := auth.GenerateCSRFToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	token, err := a.Auth.GenerateToken(user, csrf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"csrf_token": csrf,
		"user":       user,
	})
}

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	sessionUser, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	query := `
		SELECT id, name, email, role, team_id, phone, opt_in, opt_in_date, created_at, updated_at
		FROM users
		WHERE id=$1`
	if err := a.Store.Pool.QueryRow(ctx, query, sessionUser.ID).Scan(
		&user.ID, &user.Name, &user.Email, &user.Role, &user.TeamID, &user.Phone, &user.OptIn, &user.OptInDate, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
