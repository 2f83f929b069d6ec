package whatsapp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestAdvanceConversation(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	cases := []struct {
		name     string
		incoming time.Time
		want     bool
	}{
		{"older", base.Add(-time.Minute), false},
		{"equal", base, false},
		{"newer", base.Add(time.Minute), true},
	}
	for _, tc := range cases {
		if got := advanceConversation(base, tc.incoming); got != tc.want {
			t.Errorf("%s: advanceConversation = %v, want %v", tc.name, got, tc.want)
		}
	}
}

type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

// scriptedTx answers QueryRow/Exec by statement shape so ingestTx can run
// without a database. Everything else on pgx.Tx stays unimplemented.
type scriptedTx struct {
	pgx.Tx

	contactID     int64
	contactOptIn  bool
	contactUserID *int64

	conversationID int64
	lastMessageAt  time.Time
	hasConv        bool

	duplicateMessage bool

	queries []string
	execs   []string
}

func (tx *scriptedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	tx.queries = append(tx.queries, sql)
	switch {
	case strings.Contains(sql, "INSERT INTO whatsapp_contacts"):
		return scanFunc(func(dest ...any) error {
			*(dest[0].(*int64)) = tx.contactID
			*(dest[1].(*bool)) = tx.contactOptIn
			*(dest[2].(**int64)) = tx.contactUserID
			return nil
		})
	case strings.Contains(sql, "SELECT id, last_message_at"):
		return scanFunc(func(dest ...any) error {
			if !tx.hasConv {
				return pgx.ErrNoRows
			}
			*(dest[0].(*int64)) = tx.conversationID
			*(dest[1].(*time.Time)) = tx.lastMessageAt
			return nil
		})
	case strings.Contains(sql, "INSERT INTO whatsapp_conversations"):
		return scanFunc(func(dest ...any) error {
			*(dest[0].(*int64)) = tx.conversationID
			return nil
		})
	case strings.Contains(sql, "INSERT INTO whatsapp_messages"):
		return scanFunc(func(dest ...any) error {
			if tx.duplicateMessage {
				return pgx.ErrNoRows
			}
			*(dest[0].(*int64)) = 77
			return nil
		})
	case strings.Contains(sql, "INSERT INTO notifications"):
		return scanFunc(func(dest ...any) error {
			*(dest[0].(*int64)) = 88
			return nil
		})
	default:
		return scanFunc(func(dest ...any) error { return pgx.ErrNoRows })
	}
}

func (tx *scriptedTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.execs = append(tx.execs, sql)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (tx *scriptedTx) updatedConversation() bool {
	for _, sql := range tx.execs {
		if strings.Contains(sql, "UPDATE whatsapp_conversations") {
			return true
		}
	}
	return false
}

func linkedUser(id int64) *int64 { return &id }

func TestIngestTxOlderRedeliveryKeepsTimestamp(t *testing.T) {
	lastAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	tx := &scriptedTx{
		contactID:     10,
		contactOptIn:  true,
		contactUserID: linkedUser(4),

		conversationID: 20,
		lastMessageAt:  lastAt,
		hasConv:        true,
	}

	msg := &IncomingMessage{
		MessageID: "wamid.1",
		From:      "+15550001111",
		To:        "1065123456",
		Text:      "hello again",
		Timestamp: lastAt.Add(-time.Hour),
	}
	result := &IngestResult{}
	if err := ingestTx(context.Background(), tx, msg, result); err != nil {
		t.Fatal(err)
	}

	if tx.updatedConversation() {
		t.Error("older message moved last_message_at")
	}
	if result.Duplicate {
		t.Error("older message flagged as duplicate")
	}
	if result.ConversationID != 20 || result.MessageID != 77 {
		t.Errorf("result = %+v", result)
	}
}

func TestIngestTxNewerMessageAdvancesTimestamp(t *testing.T) {
	lastAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	tx := &scriptedTx{
		contactID:      10,
		conversationID: 20,
		lastMessageAt:  lastAt,
		hasConv:        true,
	}

	msg := &IncomingMessage{
		MessageID: "wamid.2",
		From:      "+15550001111",
		Text:      "newer",
		Timestamp: lastAt.Add(time.Hour),
	}
	if err := ingestTx(context.Background(), tx, msg, &IngestResult{}); err != nil {
		t.Fatal(err)
	}

	if !tx.updatedConversation() {
		t.Error("newer message did not advance last_message_at")
	}
}

func TestIngestTxDuplicateMessageID(t *testing.T) {
	tx := &scriptedTx{
		contactID:     10,
		contactOptIn:  true,
		contactUserID: linkedUser(4),

		conversationID:   20,
		lastMessageAt:    time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		hasConv:          true,
		duplicateMessage: true,
	}

	msg := &IncomingMessage{
		MessageID: "wamid.3",
		From:      "+15550001111",
		Text:      "redelivered",
		Timestamp: time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC),
	}
	result := &IngestResult{}
	if err := ingestTx(context.Background(), tx, msg, result); err != nil {
		t.Fatal(err)
	}

	if !result.Duplicate {
		t.Fatal("redelivered message id not flagged as duplicate")
	}
	if result.NotifiedUserID != 0 || result.NotificationID != 0 {
		t.Errorf("duplicate raised a notification: %+v", result)
	}
	for _, sql := range tx.queries {
		if strings.Contains(sql, "INSERT INTO notifications") {
			t.Error("duplicate reached the notification insert")
		}
	}
}

func TestIngestTxNoConsentNoNotification(t *testing.T) {
	tx := &scriptedTx{
		contactID:     10,
		contactOptIn:  false,
		contactUserID: linkedUser(4),

		conversationID: 20,
		hasConv:        false,
	}

	msg := &IncomingMessage{
		MessageID: "wamid.4",
		From:      "+15550001111",
		Text:      "hi",
		Timestamp: time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC),
	}
	result := &IngestResult{}
	if err := ingestTx(context.Background(), tx, msg, result); err != nil {
		t.Fatal(err)
	}

	if result.NotifiedUserID != 0 {
		t.Errorf("non-consenting contact raised a notification: %+v", result)
	}
}
