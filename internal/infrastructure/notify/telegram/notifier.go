// Package telegram delivers alert notifications through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tickwatch/internal/application/port"
)

const defaultBaseURL = "https://api.telegram.org"

type Notifier struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

func New(token, chatID string) *Notifier {
	return &Notifier{
		baseURL: defaultBaseURL,
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageReq struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResp struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts one message to the configured chat.
func (n *Notifier) Send(ctx context.Context, message string) error {
	body, err := json.Marshal(sendMessageReq{ChatID: n.chatID, Text: message})
	if err != nil {
		return err
	}

	endpoint := n.baseURL + "/bot" + n.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var out sendMessageResp
	if err := json.Unmarshal(b, &out); err != nil || !out.OK {
		return fmt.Errorf("telegram sendMessage: status %d: %s", resp.StatusCode, out.Description)
	}
	return nil
}

var _ port.Notifier = (*Notifier)(nil)
