package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"placement-crm/backend/internal/config"
)

// IncomingMessage is the provider-neutral shape every webhook payload is
// normalized into before ingestion.
type IncomingMessage struct {
	MessageID string
	From      string
	To        string
	Text      string
	MediaURL  string
	MediaType string
	Timestamp time.Time
	Metadata  map[string]any
}

type OutgoingMessage struct {
	To        string
	Text      string
	MediaURL  string
	MediaType string
}

type VerificationParams struct {
	Mode      string
	Token     string
	Challenge string
}

// Provider abstracts the messaging backend. ParseIncoming returns nil for
// any payload that carries no user message (status callbacks, malformed
// bodies); callers acknowledge those without processing. VerifyWebhook
// returns the challenge to echo, or empty on rejection.
type Provider interface {
	Name() string
	FromAddress() string
	SendMessage(ctx context.Context, msg OutgoingMessage) (string, error)
	ParseIncoming(r *http.Request) *IncomingMessage
	VerifyWebhook(params VerificationParams) string
}

// NewProvider selects the configured backend. Selection happens once at
// startup; call sites never branch on provider identity.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.WhatsAppProvider {
	case "meta", "":
		return NewMetaProvider(cfg.MetaAccessToken, cfg.MetaPhoneNumberID, cfg.WhatsAppVerifyToken), nil
	case "twilio":
		return NewTwilioProvider(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber), nil
	default:
		return nil, fmt.Errorf("unknown whatsapp provider %q", cfg.WhatsAppProvider)
	}
}
