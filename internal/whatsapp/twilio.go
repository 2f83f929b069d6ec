package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioProvider talks to the Twilio WhatsApp gateway (flat form-encoded
// webhooks).
type TwilioProvider struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

func NewTwilioProvider(accountSID, authToken, fromNumber string) *TwilioProvider {
	return &TwilioProvider{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    twilioBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) FromAddress() string { return p.fromNumber }

func (p *TwilioProvider) SendMessage(ctx context.Context, msg OutgoingMessage) (string, error) {
	form := url.Values{}
	form.Set("From", "whatsapp:"+p.fromNumber)
	form.Set("To", "whatsapp:"+msg.To)
	form.Set("Body", msg.Text)
	if msg.MediaURL != "" {
		form.Set("MediaUrl", msg.MediaURL)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", p.baseURL, p.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("twilio send failed: %s: %s", resp.Status, data)
	}

	var result struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.SID, nil
}

func (p *TwilioProvider) ParseIncoming(r *http.Request) *IncomingMessage {
	if err := r.ParseForm(); err != nil {
		log.Printf("whatsapp: malformed twilio webhook: %v", err)
		return nil
	}
	return p.parseForm(r.PostForm)
}

func (p *TwilioProvider) parseForm(form url.Values) *IncomingMessage {
	messageID := form.Get("MessageSid")
	if messageID == "" {
		return nil
	}

	incoming := &IncomingMessage{
		MessageID: messageID,
		From:      strings.TrimPrefix(form.Get("From"), "whatsapp:"),
		To:        strings.TrimPrefix(form.Get("To"), "whatsapp:"),
		Text:      form.Get("Body"),
		Timestamp: time.Now(),
		Metadata:  map[string]any{"provider": "twilio"},
	}
	if mediaURL := form.Get("MediaUrl0"); mediaURL != "" {
		incoming.MediaURL = mediaURL
		if contentType := form.Get("MediaContentType0"); contentType != "" {
			incoming.MediaType = strings.SplitN(contentType, "/", 2)[0]
		}
	}
	return incoming
}

// VerifyWebhook always rejects: Twilio authenticates deliveries with
// request signatures, not a subscribe handshake.
func (p *TwilioProvider) VerifyWebhook(params VerificationParams) string {
	return ""
}
