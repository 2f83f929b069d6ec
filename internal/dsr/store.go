package dsr

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"placement-crm/backend/internal/crypto"
	"placement-crm/backend/internal/db"
	"placement-crm/backend/internal/models"
)

// Store gathers report inputs and persists generated reports. Raw inputs are
// sealed with the master key before they reach the database since they can
// contain message text.
type Store struct {
	DB        *db.Store
	MasterKey string
}

func NewStore(store *db.Store, masterKey string) *Store {
	return &Store{DB: store, MasterKey: masterKey}
}

// GatherInput snapshots a user's tasks and opted-in conversation activity
// for the given date (YYYY-MM-DD, local day boundaries). Contacts without
// consent are excluded by the query itself.
func (s *Store) GatherInput(ctx context.Context, userID int64, date string) (*ReportInput, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, err
	}
	dayStart := day
	dayEnd := day.AddDate(0, 0, 1)

	var userName string
	var userOptIn bool
	err = s.DB.Pool.QueryRow(ctx,
		`SELECT name, opt_in FROM users WHERE id=$1`, userID).Scan(&userName, &userOptIn)
	if err != nil {
		return nil, err
	}

	input := &ReportInput{
		UserID:        userID,
		UserName:      userName,
		Date:          date,
		Tasks:         []TaskLine{},
		Conversations: []ConversationDigest{},
	}

	rows, err := s.DB.Pool.Query(ctx, `
		SELECT title, status, COALESCE(description, '')
		FROM tasks
		WHERE assigned_to_id=$1
		  AND ((created_at >= $2 AND created_at < $3) OR (updated_at >= $2 AND updated_at < $3))
		ORDER BY id`, userID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t TaskLine
		if err := rows.Scan(&t.Title, &t.Status, &t.Description); err != nil {
			return nil, err
		}
		input.Tasks = append(input.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !userOptIn {
		return input, nil
	}

	convRows, err := s.DB.Pool.Query(ctx, `
		SELECT COALESCE(NULLIF(ct.name, ''), ct.phone_number),
		       COUNT(m.id),
		       (array_agg(COALESCE(NULLIF(m.text, ''), 'Media message') ORDER BY m.timestamp DESC))[1],
		       MAX(m.timestamp)
		FROM whatsapp_conversations conv
		JOIN whatsapp_contacts ct ON ct.id = conv.contact_id
		JOIN whatsapp_messages m ON m.conversation_id = conv.id
		WHERE ct.user_id=$1 AND ct.opt_in=TRUE
		  AND m.timestamp >= $2 AND m.timestamp < $3
		GROUP BY conv.id, ct.name, ct.phone_number
		ORDER BY MAX(m.timestamp) DESC`, userID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer convRows.Close()
	for convRows.Next() {
		var d ConversationDigest
		var lastAt time.Time
		if err := convRows.Scan(&d.ContactName, &d.MessageCount, &d.LastMessage, &lastAt); err != nil {
			return nil, err
		}
		d.LastMessageTime = lastAt.Local().Format("15:04")
		input.Conversations = append(input.Conversations, d)
	}
	if err := convRows.Err(); err != nil {
		return nil, err
	}

	return input, nil
}

// Existing returns the DSR id for (userID, date) or 0 when none is stored.
func (s *Store) Existing(ctx context.Context, userID int64, date string) (int64, error) {
	var id int64
	err := s.DB.Pool.QueryRow(ctx,
		`SELECT id FROM dsrs WHERE user_id=$1 AND date=$2`, userID, date).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return id, nil
}

// Save upserts the report for (userID, date) and returns the stored row.
func (s *Store) Save(ctx context.Context, input *ReportInput, result ReportResult) (*models.DSR, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	sealed := string(raw)
	if s.MasterKey != "" {
		sealed, err = crypto.Encrypt(s.MasterKey, sealed)
		if err != nil {
			return nil, err
		}
	}

	status := "draft"
	if result.Succeeded {
		status = "published"
	}
	var errDetail *string
	if result.ErrorDetail != "" {
		errDetail = &result.ErrorDetail
	}

	day, err := time.ParseInLocation("2006-01-02", input.Date, time.Local)
	if err != nil {
		return nil, err
	}
	dsr := &models.DSR{
		UserID:        input.UserID,
		Date:          day,
		RawInputsJSON: sealed,
		Summary:       result.Summary,
		LLMModel:      result.Model,
		Status:        status,
		ErrorMessage:  errDetail,
	}
	err = s.DB.Pool.QueryRow(ctx, `
		INSERT INTO dsrs (user_id, date, raw_inputs, summary, llm_model, status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (user_id, date) DO UPDATE SET
			raw_inputs=EXCLUDED.raw_inputs,
			summary=EXCLUDED.summary,
			llm_model=EXCLUDED.llm_model,
			status=EXCLUDED.status,
			error_message=EXCLUDED.error_message,
			updated_at=NOW()
		RETURNING id, created_at, updated_at`,
		dsr.UserID, dsr.Date, dsr.RawInputsJSON, dsr.Summary, dsr.LLMModel, dsr.Status, errDetail).
		Scan(&dsr.ID, &dsr.CreatedAt, &dsr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return dsr, nil
}

// NotifyReady records a dsr_ready notification for the report's owner.
func (s *Store) NotifyReady(ctx context.Context, dsr *models.DSR) error {
	payload, _ := json.Marshal(map[string]int64{"dsrId": dsr.ID})
	_, err := s.DB.Pool.Exec(ctx, `
		INSERT INTO notifications (user_id, type, title, message, payload, read, created_at)
		VALUES ($1, 'dsr_ready', 'Daily Status Report Ready', $2, $3, FALSE, NOW())`,
		dsr.UserID, "Your DSR for "+dsr.Date.Format("2006-01-02")+" has been generated.", string(payload))
	return err
}
