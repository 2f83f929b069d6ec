package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"placement-crm/backend/internal/auth"
	"placement-crm/backend/internal/models"
)

type taskRequest struct {
	Title        string  `json:"title"`
	Description  *string `json:"description"`
	Status       *string `json:"status"`
	Priority     *string `json:"priority"`
	AssignedToID *int64  `json:"assigned_to_id"`
	DueDate      *string `json:"due_date"`
}

// taskScope restricts queries by role: members see tasks they own or
// assigned, leaders additionally see their team's tasks, admins see all.
func taskScopeClause(user auth.User, args []any) (string, []any) {
	switch strings.ToUpper(user.Role) {
	case roleAdmin:
		return "TRUE", args
	case roleLeader:
		args = append(args, user.ID)
		n := len(args)
		return `(t.assigned_to_id=$` + strconv.Itoa(n) + ` OR t.assigned_by_id=$` + strconv.Itoa(n) + ` OR t.assigned_to_id IN (
			SELECT u.id FROM users u JOIN teams tm ON tm.id=u.team_id WHERE tm.leader_id=$` + strconv.Itoa(n) + `))`, args
	default:
		args = append(args, user.ID)
		n := len(args)
		return "(t.assigned_to_id=$" + strconv.Itoa(n) + " OR t.assigned_by_id=$" + strconv.Itoa(n) + ")", args
	}
}

func (a *API) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	page, limit := parsePagination(r)
	args := []any{}
	scope, args := taskScopeClause(user, args)

	filter := ""
	if status := r.URL.Query().Get("status"); status != "" {
		args = append(args, status)
		filter = " AND t.status=$" + strconv.Itoa(len(args))
	}

	args = append(args, limit, (page-1)*limit)
	query := `
		SELECT t.id, t.title, t.description, t.status, t.priority, t.assigned_to_id, t.assigned_by_id, t.due_date, t.created_at, t.updated_at
		FROM tasks t
		WHERE ` + scope + filter + `
		ORDER BY t.created_at DESC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := a.Store.Pool.Query(ctx, query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load tasks")
		return
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.AssignedToID, &t.AssignedByID, &t.DueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load tasks")
			return
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load tasks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": tasks, "page": page, "limit": limit})
}

func (a *API) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req taskRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	status := "OPEN"
	if req.Status != nil && *req.Status != "" {
		status = *req.Status
	}
	priority := "MEDIUM"
	if req.Priority != nil && *req.Priority != "" {
		priority = *req.Priority
	}
	assignedTo := user.ID
	if req.AssignedToID != nil {
		assignedTo = *req.AssignedToID
	}
	dueDate, ok := parseOptionalDate(req.DueDate)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid due_date")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var task models.Task
	err := a.Store.Pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, status, priority, assigned_to_id, assigned_by_id, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, title, description, status, priority, assigned_to_id, assigned_by_id, due_date, created_at, updated_at`,
		req.Title, req.Description, status, priority, assignedTo, user.ID, dueDate).Scan(
		&task.ID, &task.Title, &task.Description, &task.Status, &task.Priority, &task.AssignedToID, &task.AssignedByID, &task.DueDate, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	if assignedTo != user.ID {
		a.notify(ctx, assignedTo, "TASK_ASSIGNED", "New Task Assigned",
			user.Name+" assigned you a task: "+task.Title,
			map[string]any{"taskId": task.ID})
	}
	a.logAudit(ctx, r, &user.ID, "task_created", "task", &task.ID, map[string]any{"title": task.Title})

	writeJSON(w, http.StatusCreated, map[string]any{"data": task})
}

func (a *API) UpdateTask(w http.ResponseWriter, r *http.Request, taskID int64) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req taskRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var existing models.Task
	err := a.Store.Pool.QueryRow(ctx, `
		SELECT id, title, description, status, priority, assigned_to_id, assigned_by_id, due_date, created_at, updated_at
		FROM tasks WHERE id=$1`, taskID).Scan(
		&existing.ID, &existing.Title, &existing.Description, &existing.Status, &existing.Priority, &existing.AssignedToID, &existing.AssignedByID, &existing.DueDate, &existing.CreatedAt, &existing.UpdatedAt)
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if !a.canTouchTask(ctx, user, existing) {
		writeError(w, http.StatusForbidden, "not allowed to modify this task")
		return
	}

	title := existing.Title
	if req.Title != "" {
		title = req.Title
	}
	description := existing.Description
	if req.Description != nil {
		description = req.Description
	}
	status := existing.Status
	if req.Status != nil && *req.Status != "" {
		status = *req.Status
	}
	priority := existing.Priority
	if req.Priority != nil && *req.Priority != "" {
		priority = *req.Priority
	}
	assignedTo := existing.AssignedToID
	if req.AssignedToID != nil {
		assignedTo = req.AssignedToID
	}
	dueDate := existing.DueDate
	if req.DueDate != nil {
		parsed, ok := parseOptionalDate(req.DueDate)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid due_date")
			return
		}
		dueDate = parsed
	}

	var task models.Task
	err = a.Store.Pool.QueryRow(ctx, `
		UPDATE tasks
		SET title=$2, description=$3, status=$4, priority=$5, assigned_to_id=$6, due_date=$7, updated_at=NOW()
		WHERE id=$1
		RETURNING id, title, description, status, priority, assigned_to_id, assigned_by_id, due_date, created_at, updated_at`,
		taskID, title, description, status, priority, assignedTo, dueDate).Scan(
		&task.ID, &task.Title, &task.Description, &task.Status, &task.Priority, &task.AssignedToID, &task.AssignedByID, &task.DueDate, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	if task.AssignedToID != nil && *task.AssignedToID != user.ID {
		a.notify(ctx, *task.AssignedToID, "TASK_UPDATED", "Task Updated",
			user.Name+" updated task: "+task.Title,
			map[string]any{"taskId": task.ID, "status": task.Status})
	}
	if task.Status == "DONE" && existing.Status != "DONE" &&
		task.AssignedByID != nil && *task.AssignedByID != user.ID {
		a.notify(ctx, *task.AssignedByID, "TASK_UPDATED", "Task Completed",
			user.Name+" completed task: "+task.Title,
			map[string]any{"taskId": task.ID, "status": task.Status})
	}
	a.logAudit(ctx, r, &user.ID, "task_updated", "task", &task.ID, map[string]any{"status": task.Status})

	writeJSON(w, http.StatusOK, map[string]any{"data": task})
}

func (a *API) DeleteTask(w http.ResponseWriter, r *http.Request, taskID int64) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := a.Store.Pool.Exec(ctx, `DELETE FROM tasks WHERE id=$1`, taskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	if tag.RowsAffected() == 0 {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	a.logAudit(ctx, r, &user.ID, "task_deleted", "task", &taskID, nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (a *API) canTouchTask(ctx context.Context, user auth.User, task models.Task) bool {
	switch strings.ToUpper(user.Role) {
	case roleAdmin:
		return true
	case roleLeader:
		if taskBelongsTo(task, user.ID) {
			return true
		}
		if task.AssignedToID == nil {
			return false
		}
		var count int
		err := a.Store.Pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM users u
			JOIN teams tm ON tm.id=u.team_id
			WHERE u.id=$1 AND tm.leader_id=$2`, *task.AssignedToID, user.ID).Scan(&count)
		return err == nil && count > 0
	default:
		return taskBelongsTo(task, user.ID)
	}
}

func taskBelongsTo(task models.Task, userID int64) bool {
	if task.AssignedToID != nil && *task.AssignedToID == userID {
		return true
	}
	if task.AssignedByID != nil && *task.AssignedByID == userID {
		return true
	}
	return false
}

func parseOptionalDate(value *string) (*time.Time, bool) {
	if value == nil || *value == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, *value); err == nil {
			return &parsed, true
		}
	}
	return nil, false
}

func (a *API) notify(ctx context.Context, userID int64, kind, title, message string, payload any) {
	payloadJSON := marshalOptional(payload)
	var notificationID int64
	err := a.Store.Pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, message, payload, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
		RETURNING id`, userID, kind, title, message, payloadJSON).Scan(&notificationID)
	if err != nil {
		return
	}
	if a.Hub != nil {
		a.Hub.SendToUser(userID, map[string]any{
			"type":            "notification.created",
			"notification_id": notificationID,
			"kind":            kind,
			"title":           title,
		})
	}
}
