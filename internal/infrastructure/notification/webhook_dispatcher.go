package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appdunning "github.com/liyaqa/backend/internal/application/dunning"
	"go.uber.org/zap"
)

// WebhookDispatcherConfig holds configuration for the notification webhook
type WebhookDispatcherConfig struct {
	// EndpointURL is where notification events are posted. The downstream
	// messaging service renders the template and delivers it to the member.
	EndpointURL string `json:"endpoint_url" mapstructure:"endpoint_url"`

	// SigningSecret signs the payload so the receiver can verify origin
	SigningSecret string `json:"signing_secret" mapstructure:"signing_secret"`

	// Timeout bounds a single dispatch call
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Validate validates the dispatcher configuration
func (c *WebhookDispatcherConfig) Validate() error {
	if c.EndpointURL == "" {
		return fmt.Errorf("notification: endpoint URL is required")
	}
	return nil
}

// WebhookDispatcher delivers dunning notifications by posting them to the
// configured messaging endpoint
type WebhookDispatcher struct {
	config *WebhookDispatcherConfig
	client *http.Client
	logger *zap.Logger
}

// NewWebhookDispatcher creates a new webhook notification dispatcher
func NewWebhookDispatcher(config *WebhookDispatcherConfig, logger *zap.Logger) (*WebhookDispatcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebhookDispatcher{
		config: config,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// Dispatch posts one notification event to the messaging endpoint
func (d *WebhookDispatcher) Dispatch(ctx context.Context, n appdunning.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notification: failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notification: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.config.SigningSecret != "" {
		req.Header.Set("X-Signature", d.sign(body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification: dispatch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification: endpoint returned status %d", resp.StatusCode)
	}

	d.logger.Debug("Notification dispatched",
		zap.String("member_id", n.MemberID.String()),
		zap.String("template", n.Template))

	return nil
}

// sign computes the hex HMAC-SHA256 of the payload
func (d *WebhookDispatcher) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(d.config.SigningSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

var _ appdunning.NotificationDispatcher = (*WebhookDispatcher)(nil)
