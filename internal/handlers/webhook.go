package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"placement-crm/backend/internal/whatsapp"
)

// VerifyWebhook answers the provider's subscribe handshake. Success echoes
// the challenge verbatim; anything else is a 403.
func (a *API) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	if a.Provider == nil {
		writeError(w, http.StatusInternalServerError, "messaging provider not configured")
		return
	}

	query := r.URL.Query()
	params := whatsapp.VerificationParams{
		Mode:      query.Get("hub.mode"),
		Token:     query.Get("hub.verify_token"),
		Challenge: query.Get("hub.challenge"),
	}

	challenge := a.Provider.VerifyWebhook(params)
	if challenge == "" {
		writeError(w, http.StatusForbidden, "verification failed")
		return
	}

	a.logAudit(r.Context(), r, nil, "webhook_verified", "whatsapp", nil, map[string]any{"mode": params.Mode})
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// ReceiveWebhook ingests a provider delivery. The acknowledgement is
// unconditional for parseable-but-empty payloads so the provider does not
// retry status callbacks forever.
func (a *API) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	if a.Provider == nil || a.Ingestor == nil {
		writeError(w, http.StatusInternalServerError, "messaging provider not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	incoming := a.Provider.ParseIncoming(r)
	if incoming == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	result, err := a.Ingestor.Ingest(ctx, incoming)
	if err != nil {
		log.Printf("webhook: ingest failed for %s: %v", incoming.MessageID, err)
		a.logAudit(ctx, r, nil, "webhook_error", "whatsapp", nil, map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	if result.Duplicate {
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	if result.NotifiedUserID != 0 && a.Hub != nil {
		a.Hub.SendToUser(result.NotifiedUserID, map[string]any{
			"type":            "notification.created",
			"notification_id": result.NotificationID,
			"kind":            "message_received",
			"conversation_id": result.ConversationID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"messageId": result.MessageID,
	})
}
