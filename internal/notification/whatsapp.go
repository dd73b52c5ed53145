package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/civic-kit/complaint-service/internal/config"
)

// WhatsAppSender delivers messages through the WhatsApp Cloud API.
type WhatsAppSender struct {
	apiURL      string
	accessToken string
	client      *http.Client
	logger      *zap.Logger
}

// NewWhatsAppSender builds a sender from notification config. Missing
// credentials produce a sender that reports failure instead of sending.
func NewWhatsAppSender(cfg config.NotificationConfig, logger *zap.Logger) *WhatsAppSender {
	apiURL := ""
	if cfg.WAPhoneNumberID != "" {
		apiURL = fmt.Sprintf("%s/%s/messages", cfg.WAAPIBaseURL, cfg.WAPhoneNumberID)
	}
	timeout := cfg.SendTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhatsAppSender{
		apiURL:      apiURL,
		accessToken: cfg.WAAccessToken,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type waTextBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type waMessageRequest struct {
	MessagingProduct string     `json:"messaging_product"`
	RecipientType    string     `json:"recipient_type"`
	To               string     `json:"to"`
	Type             string     `json:"type"`
	Text             waTextBody `json:"text"`
}

type waMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send posts a text message. It never returns an error; failures come back
// inside the Result.
func (s *WhatsAppSender) Send(ctx context.Context, to, body string) Result {
	if s.apiURL == "" || s.accessToken == "" {
		s.logger.Warn("whatsapp credentials not configured; skipping send")
		return Result{Success: false, Error: "whatsapp credentials not set"}
	}

	payload, err := json.Marshal(waMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             waTextBody{PreviewURL: false, Body: body},
	})
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("whatsapp send failed", zap.String("to", to), zap.Error(err))
		return Result{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	var parsed waMessageResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{Success: false, Error: fmt.Sprintf("decode response: %v", err)}
	}

	if resp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("status %d", resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			errMsg = parsed.Error.Message
		}
		s.logger.Error("whatsapp send rejected", zap.String("to", to), zap.String("error", errMsg))
		return Result{Success: false, Error: errMsg}
	}

	messageID := ""
	if len(parsed.Messages) > 0 {
		messageID = parsed.Messages[0].ID
	}
	s.logger.Info("whatsapp message sent", zap.String("to", to), zap.String("message_id", messageID))
	return Result{Success: true, MessageID: messageID}
}
