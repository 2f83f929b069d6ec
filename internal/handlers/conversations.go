package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"placement-crm/backend/internal/models"
	"placement-crm/backend/internal/whatsapp"
)

type conversationSummary struct {
	models.Conversation
	ContactPhone string  `json:"contact_phone"`
	ContactName  *string `json:"contact_name"`
	MessageCount int     `json:"message_count"`
	LastMessage  *string `json:"last_message"`
}

// ListConversations scopes to the caller's linked contacts unless the
// caller is an admin.
func (a *API) ListConversations(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	scope := "ct.user_id=$1"
	if strings.ToUpper(user.Role) == roleAdmin {
		scope = "($1::BIGINT IS NOT NULL)"
	}

	rows, err := a.Store.Pool.Query(ctx, `
		SELECT conv.id, conv.contact_id, conv.last_message_at, conv.is_archived, conv.created_at,
		       ct.phone_number, ct.name,
		       (SELECT COUNT(*) FROM whatsapp_messages m WHERE m.conversation_id=conv.id),
		       (SELECT m.text FROM whatsapp_messages m WHERE m.conversation_id=conv.id ORDER BY m.timestamp DESC LIMIT 1)
		FROM whatsapp_conversations conv
		JOIN whatsapp_contacts ct ON ct.id=conv.contact_id
		WHERE `+scope+` AND conv.is_archived=FALSE
		ORDER BY conv.last_message_at DESC`, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load conversations")
		return
	}
	defer rows.Close()

	items := []conversationSummary{}
	for rows.Next() {
		var c conversationSummary
		if err := rows.Scan(&c.ID, &c.ContactID, &c.LastMessageAt, &c.IsArchived, &c.CreatedAt,
			&c.ContactPhone, &c.ContactName, &c.MessageCount, &c.LastMessage); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load conversations")
			return
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load conversations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (a *API) ListMessages(w http.ResponseWriter, r *http.Request, conversationID int64) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	if !a.canSeeConversation(ctx, user.ID, user.Role, conversationID) {
		writeError(w, http.StatusForbidden, "not allowed to view this conversation")
		return
	}

	page, limit := parsePagination(r)
	rows, err := a.Store.Pool.Query(ctx, `
		SELECT id, conversation_id, from_number, to_number, text, media_url, media_type, message_id, timestamp, direction, status, metadata, created_at
		FROM whatsapp_messages
		WHERE conversation_id=$1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3`, conversationID, limit, (page-1)*limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.FromNumber, &m.ToNumber, &m.Text, &m.MediaURL, &m.MediaType, &m.MessageID, &m.Timestamp, &m.Direction, &m.Status, &m.MetadataJSON, &m.CreatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load messages")
			return
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": messages, "page": page, "limit": limit})
}

type sendMessageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// SendMessage relays an outbound message through the configured provider
// and records it against the contact's conversation.
func (a *API) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if a.Provider == nil {
		writeError(w, http.StatusServiceUnavailable, "messaging provider not configured")
		return
	}

	var req sendMessageRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.To == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "to and text are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	providerMessageID, err := a.Provider.SendMessage(ctx, whatsapp.OutgoingMessage{To: req.To, Text: req.Text})
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to send message")
		return
	}

	now := time.Now()
	var conversationID, messageRowID int64
	err = a.Store.WithTx(ctx, func(tx pgx.Tx) error {
		var contactID int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO whatsapp_contacts (phone_number, opt_in, created_at, updated_at)
			VALUES ($1, FALSE, NOW(), NOW())
			ON CONFLICT (phone_number) DO UPDATE SET updated_at=NOW()
			RETURNING id`, req.To).Scan(&contactID); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `
			SELECT id FROM whatsapp_conversations
			WHERE contact_id=$1
			ORDER BY last_message_at DESC
			LIMIT 1`, contactID).Scan(&conversationID)
		if errors.Is(err, pgx.ErrNoRows) {
			if err := tx.QueryRow(ctx, `
				INSERT INTO whatsapp_conversations (contact_id, last_message_at, created_at, updated_at)
				VALUES ($1, $2, NOW(), NOW())
				RETURNING id`, contactID, now).Scan(&conversationID); err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else {
			if _, err := tx.Exec(ctx, `
				UPDATE whatsapp_conversations SET last_message_at=GREATEST(last_message_at, $2), updated_at=NOW()
				WHERE id=$1`, conversationID, now); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, `
			INSERT INTO whatsapp_messages (conversation_id, from_number, to_number, text, message_id, timestamp, direction, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'OUT', 'SENT', NOW())
			RETURNING id`, conversationID, a.Provider.FromAddress(), req.To, req.Text, providerMessageID, now).Scan(&messageRowID)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "message sent but not recorded")
		return
	}

	a.logAudit(ctx, r, &user.ID, "message_sent", "whatsapp", &messageRowID, map[string]any{"to": req.To})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "sent",
		"message_id":      messageRowID,
		"provider_id":     providerMessageID,
		"conversation_id": conversationID,
	})
}

func (a *API) canSeeConversation(ctx context.Context, userID int64, role string, conversationID int64) bool {
	if strings.ToUpper(role) == roleAdmin {
		return true
	}
	var count int
	err := a.Store.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM whatsapp_conversations conv
		JOIN whatsapp_contacts ct ON ct.id=conv.contact_id
		WHERE conv.id=$1 AND ct.user_id=$2`, conversationID, userID).Scan(&count)
	return err == nil && count > 0
}
