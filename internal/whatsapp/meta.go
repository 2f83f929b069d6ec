package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

const metaBaseURL = "https://graph.facebook.com/v18.0"

// MetaProvider talks to the WhatsApp Cloud API (graph-style webhooks).
type MetaProvider struct {
	accessToken   string
	phoneNumberID string
	verifyToken   string
	baseURL       string
	httpClient    *http.Client
}

func NewMetaProvider(accessToken, phoneNumberID, verifyToken string) *MetaProvider {
	return &MetaProvider{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		verifyToken:   verifyToken,
		baseURL:       metaBaseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *MetaProvider) Name() string { return "meta" }

func (p *MetaProvider) FromAddress() string { return p.phoneNumberID }

func (p *MetaProvider) SendMessage(ctx context.Context, msg OutgoingMessage) (string, error) {
	body := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                msg.To,
	}
	if msg.Text != "" {
		body["type"] = "text"
		body["text"] = map[string]string{"body": msg.Text}
	} else if msg.MediaURL != "" && msg.MediaType != "" {
		body["type"] = msg.MediaType
		body[msg.MediaType] = map[string]string{"link": msg.MediaURL}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/%s/messages", p.baseURL, p.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("meta send failed: %s: %s", resp.Status, data)
	}

	var result struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Messages) == 0 {
		return "", fmt.Errorf("meta send returned no message id")
	}
	return result.Messages[0].ID, nil
}

// metaWebhook mirrors the Cloud API delivery shape. Status-only callbacks
// carry no messages entry.
type metaWebhook struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []metaMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type metaMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image    *metaMedia `json:"image"`
	Video    *metaMedia `json:"video"`
	Audio    *metaMedia `json:"audio"`
	Document *metaMedia `json:"document"`
}

type metaMedia struct {
	Link string `json:"link"`
	ID   string `json:"id"`
}

func (p *MetaProvider) ParseIncoming(r *http.Request) *IncomingMessage {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("whatsapp: reading meta webhook body: %v", err)
		return nil
	}
	return p.parsePayload(body)
}

func (p *MetaProvider) parsePayload(body []byte) *IncomingMessage {
	var payload metaWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("whatsapp: malformed meta webhook: %v", err)
		return nil
	}
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return nil
	}
	value := payload.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return nil
	}
	msg := value.Messages[0]

	seconds, err := strconv.ParseInt(msg.Timestamp, 10, 64)
	if err != nil {
		log.Printf("whatsapp: bad meta timestamp %q: %v", msg.Timestamp, err)
		return nil
	}

	incoming := &IncomingMessage{
		MessageID: msg.ID,
		From:      msg.From,
		To:        value.Metadata.PhoneNumberID,
		Timestamp: time.Unix(seconds, 0),
		Metadata:  map[string]any{"provider": "meta", "type": msg.Type},
	}

	switch msg.Type {
	case "text":
		if msg.Text != nil {
			incoming.Text = msg.Text.Body
		}
	case "image", "video", "audio", "document":
		incoming.MediaType = msg.Type
		var media *metaMedia
		switch msg.Type {
		case "image":
			media = msg.Image
		case "video":
			media = msg.Video
		case "audio":
			media = msg.Audio
		case "document":
			media = msg.Document
		}
		if media != nil {
			if media.Link != "" {
				incoming.MediaURL = media.Link
			} else {
				incoming.MediaURL = media.ID
			}
		}
	}
	return incoming
}

func (p *MetaProvider) VerifyWebhook(params VerificationParams) string {
	if params.Mode == "subscribe" && params.Token == p.verifyToken {
		return params.Challenge
	}
	return ""
}
