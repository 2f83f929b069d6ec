package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"placement-crm/backend/internal/llm"
	"placement-crm/backend/internal/models"
)

type summaryPayload struct {
	Summary        string   `json:"summary"`
	KeyTopics      []string `json:"keyTopics"`
	SentimentScore float64  `json:"sentimentScore"`
	ActionItems    []string `json:"actionItems"`
}

func (a *API) ListChatSummaries(w http.ResponseWriter, r *http.Request) {
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

	page, limit := parsePagination(r)
	rows, err := a.Store.Pool.Query(ctx, `
		SELECT s.id, s.conversation_id, s.contact_name, s.contact_phone,
		       s.start_date, s.end_date, s.message_count, s.summary,
		       s.key_topics_json, s.sentiment_score, s.action_items_json,
		       s.llm_model, s.generated_at
		FROM chat_summaries s
		JOIN whatsapp_conversations cv ON cv.id = s.conversation_id
		JOIN whatsapp_contacts ct ON ct.id = cv.contact_id
		WHERE `+scope+`
		ORDER BY s.generated_at DESC
		LIMIT $2 OFFSET $3`, user.ID, limit, (page-1)*limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load summaries")
		return
	}
	defer rows.Close()

	items := []models.ChatSummary{}
	for rows.Next() {
		var s models.ChatSummary
		if err := rows.Scan(&s.ID, &s.ConversationID, &s.ContactName, &s.ContactPhone,
			&s.StartDate, &s.EndDate, &s.MessageCount, &s.Summary,
			&s.KeyTopicsJSON, &s.SentimentScore, &s.ActionItemsJSON,
			&s.LLMModel, &s.GeneratedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load summaries")
			return
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load summaries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items, "page": page, "limit": limit})
}

// SummarizeConversation generates (or regenerates) the summary row for a
// conversation. Model failures and unparsable output degrade to a
// template summary instead of an error response.
func (a *API) SummarizeConversation(w http.ResponseWriter, r *http.Request, conversationID int64) {
	user, ok := a.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	if !a.canSeeConversation(ctx, user.ID, user.Role, conversationID) {
		writeError(w, http.StatusForbidden, "not allowed to view this conversation")
		return
	}

	var contactName, contactPhone string
	err := a.Store.Pool.QueryRow(ctx, `
		SELECT COALESCE(NULLIF(ct.name, ''), ct.phone_number), ct.phone_number
		FROM whatsapp_conversations cv
		JOIN whatsapp_contacts ct ON ct.id = cv.contact_id
		WHERE cv.id=$1`, conversationID).Scan(&contactName, &contactPhone)
	if err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	rows, err := a.Store.Pool.Query(ctx, `
		SELECT direction, COALESCE(NULLIF(text, ''), '[media]'), timestamp
		FROM whatsapp_messages
		WHERE conversation_id=$1
		ORDER BY timestamp ASC
		LIMIT 500`, conversationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	defer rows.Close()

	type line struct {
		direction string
		text      string
		at        time.Time
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.direction, &l.text, &l.at); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load messages")
			return
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	if len(lines) == 0 {
		writeError(w, http.StatusBadRequest, "conversation has no messages")
		return
	}

	transcript := &strings.Builder{}
	for _, l := range lines {
		speaker := contactName
		if l.direction == "OUT" {
			speaker = "Coordinator"
		}
		fmt.Fprintf(transcript, "[%s] %s: %s\n", l.at.Format("02/01 15:04"), speaker, l.text)
	}

	payload, model := a.summarizeTranscript(ctx, contactName, transcript.String())
	if payload.Summary == "" {
		payload = fallbackChatSummary(contactName, len(lines))
		model = "fallback"
	}

	topicsJSON, _ := json.Marshal(payload.KeyTopics)
	actionsJSON, _ := json.Marshal(payload.ActionItems)

	var summary models.ChatSummary
	err = a.Store.Pool.QueryRow(ctx, `
		INSERT INTO chat_summaries
			(conversation_id, contact_name, contact_phone, start_date, end_date,
			 message_count, summary, key_topics_json, sentiment_score,
			 action_items_json, llm_model, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (conversation_id) DO UPDATE SET
			contact_name=EXCLUDED.contact_name,
			contact_phone=EXCLUDED.contact_phone,
			start_date=EXCLUDED.start_date,
			end_date=EXCLUDED.end_date,
			message_count=EXCLUDED.message_count,
			summary=EXCLUDED.summary,
			key_topics_json=EXCLUDED.key_topics_json,
			sentiment_score=EXCLUDED.sentiment_score,
			action_items_json=EXCLUDED.action_items_json,
			llm_model=EXCLUDED.llm_model,
			generated_at=NOW()
		RETURNING id, conversation_id, contact_name, contact_phone, start_date,
			end_date, message_count, summary, key_topics_json, sentiment_score,
			action_items_json, llm_model, generated_at`,
		conversationID, contactName, contactPhone, lines[0].at, lines[len(lines)-1].at,
		len(lines), payload.Summary, string(topicsJSON), payload.SentimentScore,
		string(actionsJSON), model).Scan(
		&summary.ID, &summary.ConversationID, &summary.ContactName, &summary.ContactPhone,
		&summary.StartDate, &summary.EndDate, &summary.MessageCount, &summary.Summary,
		&summary.KeyTopicsJSON, &summary.SentimentScore, &summary.ActionItemsJSON,
		&summary.LLMModel, &summary.GeneratedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save summary")
		return
	}

	a.logAudit(ctx, r, authUserIDPtr(r), "summary_generated", "chat_summary", &summary.ID, map[string]any{
		"conversationId": conversationID,
		"model":          model,
	})
	writeJSON(w, http.StatusOK, map[string]any{"data": summary})
}

func (a *API) summarizeTranscript(ctx context.Context, contactName, transcript string) (summaryPayload, string) {
	if a.Summarizer == nil {
		return summaryPayload{}, ""
	}

	prompt := fmt.Sprintf(`You are analyzing a WhatsApp conversation between a college placement coordinator and %s.

Conversation transcript:
%s

Respond with a JSON object only, no prose around it:
{"summary": "2-3 sentence summary", "keyTopics": ["topic", ...], "sentimentScore": 0.0, "actionItems": ["item", ...]}

sentimentScore ranges from -1.0 (negative) to 1.0 (positive).`, contactName, transcript)

	raw, err := a.Summarizer.Generate(ctx, prompt)
	if err != nil {
		return summaryPayload{}, ""
	}
	var payload summaryPayload
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &payload); err != nil {
		return summaryPayload{}, ""
	}
	return payload, a.Summarizer.Model()
}

func fallbackChatSummary(contactName string, messageCount int) summaryPayload {
	return summaryPayload{
		Summary: fmt.Sprintf("Conversation with %s containing %d message(s). Automated summarization was unavailable.",
			contactName, messageCount),
		KeyTopics:      []string{},
		SentimentScore: 0,
		ActionItems:    []string{},
	}
}
