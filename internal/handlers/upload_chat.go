package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"placement-crm/backend/internal/whatsapp"
)

const maxChatUploadBytes = 10 << 20

// UploadChat imports a WhatsApp chat export for an opted-in user. Without
// confirm=true the request only returns a preview of what would be imported.
func (a *API) UploadChat(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxChatUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	userID, ok := ParseID(r.FormValue("userId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	phoneNumber := r.FormValue("phoneNumber")
	if phoneNumber == "" {
		writeError(w, http.StatusBadRequest, "phoneNumber is required")
		return
	}
	confirm := r.FormValue("confirm") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	var userName string
	var optIn bool
	err = a.Store.Pool.QueryRow(ctx,
		`SELECT name, opt_in FROM users WHERE id=$1`, userID).Scan(&userName, &optIn)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if !optIn {
		writeError(w, http.StatusForbidden, "User must opt-in before uploading personal chats")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, maxChatUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	messages := whatsapp.ParseExport(string(raw))
	if len(messages) == 0 {
		writeError(w, http.StatusBadRequest, "No parseable messages found in the file")
		return
	}

	if !confirm {
		sample := messages
		if len(sample) > 5 {
			sample = sample[:5]
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"preview":      true,
			"messageCount": len(messages),
			"dateRange": map[string]string{
				"start": messages[0].Timestamp.Format("2006-01-02"),
				"end":   messages[len(messages)-1].Timestamp.Format("2006-01-02"),
			},
			"sampleMessages": sample,
			"instructions":   "Review the preview and resubmit with confirm=true to import.",
		})
		return
	}

	var conversationID int64
	var imported int
	err = a.Store.WithTx(ctx, func(tx pgx.Tx) error {
		var contactID int64
		var contactUserID *int64
		err := tx.QueryRow(ctx,
			`SELECT id, user_id FROM whatsapp_contacts WHERE phone_number=$1`,
			phoneNumber).Scan(&contactID, &contactUserID)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			if err := tx.QueryRow(ctx, `
				INSERT INTO whatsapp_contacts (phone_number, name, opt_in, opt_in_date, user_id, created_at, updated_at)
				VALUES ($1, $2, TRUE, NOW(), $3, NOW(), NOW())
				RETURNING id`, phoneNumber, userName, userID).Scan(&contactID); err != nil {
				return err
			}
		case err != nil:
			return err
		case contactUserID == nil:
			if _, err := tx.Exec(ctx,
				`UPDATE whatsapp_contacts SET user_id=$1, updated_at=NOW() WHERE id=$2`,
				userID, contactID); err != nil {
				return err
			}
		}

		lastAt := messages[len(messages)-1].Timestamp
		if err := tx.QueryRow(ctx, `
			INSERT INTO whatsapp_conversations (contact_id, last_message_at, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			RETURNING id`, contactID, lastAt).Scan(&conversationID); err != nil {
			return err
		}

		metadata, _ := json.Marshal(map[string]string{
			"source":   "upload",
			"filename": header.Filename,
		})
		rows := make([][]any, 0, len(messages))
		for _, m := range messages {
			direction := "IN"
			fromNumber := phoneNumber
			toNumber := "self"
			if m.Sender == "You" {
				direction = "OUT"
				fromNumber = "self"
				toNumber = phoneNumber
			}
			var mediaType *string
			if m.MediaType != "" {
				mediaType = stringPtr(m.MediaType)
			}
			messageID := fmt.Sprintf("imported_%d_%s", conversationID, uuid.NewString())
			rows = append(rows, []any{
				conversationID, fromNumber, toNumber, m.Text, nil, mediaType,
				messageID, m.Timestamp, direction, "DELIVERED", string(metadata), time.Now().UTC(),
			})
		}

		count, err := tx.CopyFrom(ctx,
			pgx.Identifier{"whatsapp_messages"},
			[]string{"conversation_id", "from_number", "to_number", "text", "media_url", "media_type",
				"message_id", "timestamp", "direction", "status", "metadata", "created_at"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return err
		}
		imported = int(count)
		return nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to import chat")
		return
	}

	a.logAudit(ctx, r, &actor.ID, "chat_imported", "whatsapp_conversation", &conversationID, map[string]any{
		"userId":       userID,
		"phoneNumber":  phoneNumber,
		"messageCount": imported,
		"filename":     header.Filename,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "imported",
		"conversationId": conversationID,
		"messageCount":   imported,
	})
}
