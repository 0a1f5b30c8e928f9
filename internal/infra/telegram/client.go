// Package telegram sends order summaries to a chat through the Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/infra"
)

const DefaultBaseURL = "https://api.telegram.org"

type Client struct {
	baseURL    string
	token      string
	chatID     string
	httpClient *http.Client
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

var _ infra.MessageSender = (*Client)(nil)

func NewClient(baseURL, token, chatID string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether both the bot token and the chat are configured.
func (c *Client) Enabled() bool {
	return c.token != "" && c.chatID != ""
}

func (c *Client) SendMessage(ctx context.Context, text string) error {
	if !c.Enabled() {
		return nil
	}

	payload, err := json.Marshal(sendMessageRequest{ChatID: c.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the URL carries the token; keep it out of logs
		return fmt.Errorf("failed to send request to messaging endpoint")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var out sendMessageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("messaging endpoint returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		return fmt.Errorf("messaging endpoint rejected message (status %d): %s", resp.StatusCode, out.Description)
	}
	return nil
}
