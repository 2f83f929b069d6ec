package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"placement-crm/backend/internal/db"
)

// IngestResult reports what one webhook delivery produced. Duplicate means
// the provider redelivered a message id already on file; nothing was
// written and no notification was raised.
type IngestResult struct {
	MessageID      int64
	ContactID      int64
	ConversationID int64
	NotifiedUserID int64
	NotificationID int64
	Duplicate      bool
}

// Ingestor persists normalized inbound messages. All writes for one message
// run in a single transaction so a crash cannot leave an orphaned contact
// or conversation behind.
type Ingestor struct {
	DB *db.Store
}

func NewIngestor(store *db.Store) *Ingestor {
	return &Ingestor{DB: store}
}

func (ing *Ingestor) Ingest(ctx context.Context, msg *IncomingMessage) (*IngestResult, error) {
	result := &IngestResult{}
	err := ing.DB.WithTx(ctx, func(tx pgx.Tx) error {
		return ingestTx(ctx, tx, msg, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// advanceConversation reports whether an incoming timestamp may move
// last_message_at forward. Out-of-order redelivery must not move it
// backward.
func advanceConversation(lastMessageAt, incoming time.Time) bool {
	return incoming.After(lastMessageAt)
}

func ingestTx(ctx context.Context, tx pgx.Tx, msg *IncomingMessage, result *IngestResult) error {
	var contactOptIn bool
	var contactUserID *int64
	err := tx.QueryRow(ctx, `
		INSERT INTO whatsapp_contacts (phone_number, opt_in, created_at, updated_at)
		VALUES ($1, FALSE, NOW(), NOW())
		ON CONFLICT (phone_number) DO UPDATE SET updated_at=NOW()
		RETURNING id, opt_in, user_id`, msg.From).
		Scan(&result.ContactID, &contactOptIn, &contactUserID)
	if err != nil {
		return err
	}

	var lastMessageAt time.Time
	err = tx.QueryRow(ctx, `
		SELECT id, last_message_at FROM whatsapp_conversations
		WHERE contact_id=$1
		ORDER BY last_message_at DESC
		LIMIT 1`, result.ContactID).Scan(&result.ConversationID, &lastMessageAt)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.QueryRow(ctx, `
			INSERT INTO whatsapp_conversations (contact_id, last_message_at, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			RETURNING id`, result.ContactID, msg.Timestamp).Scan(&result.ConversationID)
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	} else if advanceConversation(lastMessageAt, msg.Timestamp) {
		_, err = tx.Exec(ctx, `
			UPDATE whatsapp_conversations SET last_message_at=$2, updated_at=NOW()
			WHERE id=$1`, result.ConversationID, msg.Timestamp)
		if err != nil {
			return err
		}
	}

	metadata, _ := json.Marshal(msg.Metadata)
	err = tx.QueryRow(ctx, `
		INSERT INTO whatsapp_messages (conversation_id, from_number, to_number, text, media_url, media_type, message_id, timestamp, direction, status, metadata, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, 'IN', 'DELIVERED', $9, NOW())
		ON CONFLICT (message_id) DO NOTHING
		RETURNING id`,
		result.ConversationID, msg.From, msg.To, msg.Text, msg.MediaURL, msg.MediaType,
		msg.MessageID, msg.Timestamp, string(metadata)).Scan(&result.MessageID)
	if errors.Is(err, pgx.ErrNoRows) {
		result.Duplicate = true
		return nil
	}
	if err != nil {
		return err
	}

	if contactOptIn && contactUserID != nil {
		body := msg.Text
		if body == "" {
			body = "Media message received"
		}
		payload, _ := json.Marshal(map[string]any{
			"messageId":      result.MessageID,
			"conversationId": result.ConversationID,
			"from":           msg.From,
		})
		err = tx.QueryRow(ctx, `
			INSERT INTO notifications (user_id, type, title, message, payload, read, created_at)
			VALUES ($1, 'message_received', 'New WhatsApp Message', $2, $3, FALSE, NOW())
			RETURNING id`, *contactUserID, body, string(payload)).Scan(&result.NotificationID)
		if err != nil {
			return err
		}
		result.NotifiedUserID = *contactUserID
	}
	return nil
}
