package whatsapp

import (
	"net/url"
	"testing"
	"time"

	"placement-crm/backend/internal/config"
)

const metaDelivery = `{
	"entry": [{
		"changes": [{
			"value": {
				"metadata": {"phone_number_id": "1065123456"},
				"messages": [{
					"from": "919876543210",
					"id": "wamid.ABC123",
					"timestamp": "1705314645",
					"type": "text",
					"text": {"body": "Hello there"}
				}]
			}
		}]
	}]
}`

func TestMetaParseTextMessage(t *testing.T) {
	p := NewMetaProvider("token", "1065123456", "verify-secret")
	msg := p.parsePayload([]byte(metaDelivery))
	if msg == nil {
		t.Fatal("expected a parsed message")
	}
	if msg.MessageID != "wamid.ABC123" {
		t.Errorf("message id = %q", msg.MessageID)
	}
	if msg.From != "919876543210" || msg.To != "1065123456" {
		t.Errorf("from/to = %q/%q", msg.From, msg.To)
	}
	if msg.Text != "Hello there" {
		t.Errorf("text = %q", msg.Text)
	}
	if !msg.Timestamp.Equal(time.Unix(1705314645, 0)) {
		t.Errorf("timestamp = %v", msg.Timestamp)
	}
}

func TestMetaParseMediaMessage(t *testing.T) {
	payload := `{
		"entry": [{"changes": [{"value": {
			"metadata": {"phone_number_id": "1065123456"},
			"messages": [{
				"from": "919876543210",
				"id": "wamid.IMG1",
				"timestamp": "1705314645",
				"type": "image",
				"image": {"id": "media-789"}
			}]
		}}]}]
	}`
	p := NewMetaProvider("token", "1065123456", "verify-secret")
	msg := p.parsePayload([]byte(payload))
	if msg == nil {
		t.Fatal("expected a parsed message")
	}
	if msg.MediaType != "image" || msg.MediaURL != "media-789" {
		t.Errorf("media = %q/%q", msg.MediaType, msg.MediaURL)
	}
	if msg.Text != "" {
		t.Errorf("text = %q, want empty", msg.Text)
	}
}

func TestMetaParseStatusOnlyReturnsNil(t *testing.T) {
	p := NewMetaProvider("token", "1065123456", "verify-secret")
	cases := []string{
		`{"entry": [{"changes": [{"value": {"statuses": [{"id": "wamid.X", "status": "delivered"}]}}]}]}`,
		`{"entry": []}`,
		`{}`,
		`not json at all`,
	}
	for _, payload := range cases {
		if msg := p.parsePayload([]byte(payload)); msg != nil {
			t.Errorf("payload %q: expected nil, got %+v", payload, msg)
		}
	}
}

func TestMetaVerifyWebhook(t *testing.T) {
	p := NewMetaProvider("token", "1065123456", "verify-secret")
	cases := []struct {
		params VerificationParams
		want   string
	}{
		{VerificationParams{Mode: "subscribe", Token: "verify-secret", Challenge: "12345"}, "12345"},
		{VerificationParams{Mode: "subscribe", Token: "wrong", Challenge: "12345"}, ""},
		{VerificationParams{Mode: "unsubscribe", Token: "verify-secret", Challenge: "12345"}, ""},
		{VerificationParams{}, ""},
	}
	for _, tc := range cases {
		if got := p.VerifyWebhook(tc.params); got != tc.want {
			t.Errorf("VerifyWebhook(%+v) = %q, want %q", tc.params, got, tc.want)
		}
	}
}

func TestTwilioParseForm(t *testing.T) {
	p := NewTwilioProvider("AC123", "authtoken", "+14155238886")
	form := url.Values{}
	form.Set("MessageSid", "SM123")
	form.Set("From", "whatsapp:+919876543210")
	form.Set("To", "whatsapp:+14155238886")
	form.Set("Body", "Hello from Twilio")
	form.Set("MediaUrl0", "https://api.twilio.com/media/ME1")
	form.Set("MediaContentType0", "image/jpeg")

	msg := p.parseForm(form)
	if msg == nil {
		t.Fatal("expected a parsed message")
	}
	if msg.From != "+919876543210" || msg.To != "+14155238886" {
		t.Errorf("from/to = %q/%q", msg.From, msg.To)
	}
	if msg.Text != "Hello from Twilio" {
		t.Errorf("text = %q", msg.Text)
	}
	if msg.MediaType != "image" {
		t.Errorf("media type = %q, want image", msg.MediaType)
	}
}

func TestTwilioParseFormWithoutSidReturnsNil(t *testing.T) {
	p := NewTwilioProvider("AC123", "authtoken", "+14155238886")
	if msg := p.parseForm(url.Values{"Body": {"hi"}}); msg != nil {
		t.Errorf("expected nil, got %+v", msg)
	}
}

func TestNewProviderSelection(t *testing.T) {
	meta, err := NewProvider(&config.Config{WhatsAppProvider: "meta"})
	if err != nil || meta.Name() != "meta" {
		t.Errorf("meta: got %v, %v", meta, err)
	}
	twilio, err := NewProvider(&config.Config{WhatsAppProvider: "twilio"})
	if err != nil || twilio.Name() != "twilio" {
		t.Errorf("twilio: got %v, %v", twilio, err)
	}
	if _, err := NewProvider(&config.Config{WhatsAppProvider: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
