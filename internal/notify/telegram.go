package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dstepanov-dev/medslot/pkg/logging"
)

const defaultTimeout = 10 * time.Second

// TelegramSender delivers messages through the Telegram Bot API, the user's
// chat channel.
type TelegramSender struct {
	apiURL     string
	token      string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTelegramSender creates a sender for the given bot token.
func NewTelegramSender(apiURL, token string, logger *logging.Logger) *TelegramSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TelegramSender{
		apiURL: apiURL,
		token:  token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers one message to a chat. Callers treat delivery as
// fire-and-forget: a returned error is logged, never propagated.
func (s *TelegramSender) Send(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return fmt.Errorf("notify: marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("notify: read response: %w", err)
	}

	var out sendMessageResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return fmt.Errorf("notify: status %d: unmarshal response: %w", resp.StatusCode, err)
	}
	if !out.OK {
		return fmt.Errorf("notify: telegram rejected message: %s", out.Description)
	}
	return nil
}
