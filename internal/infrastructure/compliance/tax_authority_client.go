package compliance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appcompliance "github.com/liyaqa/backend/internal/application/compliance"
	"go.uber.org/zap"
)

// TaxAuthorityConfig holds configuration for the tax authority gateway
type TaxAuthorityConfig struct {
	// BaseURL is the root URL of the authority's submission API
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey authenticates the tenant platform with the authority
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// Timeout bounds a single submission call
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Validate validates the tax authority configuration
func (c *TaxAuthorityConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("tax authority: base URL is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("tax authority: API key is required")
	}
	return nil
}

// HTTPTaxAuthorityClient submits invoices to the tax authority over HTTP.
// A 4xx response is a definitive verdict; 5xx and transport failures surface
// as errors so the caller schedules a retry.
type HTTPTaxAuthorityClient struct {
	config *TaxAuthorityConfig
	client *http.Client
	logger *zap.Logger
}

// NewHTTPTaxAuthorityClient creates a new HTTP tax authority client
func NewHTTPTaxAuthorityClient(config *TaxAuthorityConfig, logger *zap.Logger) (*HTTPTaxAuthorityClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTaxAuthorityClient{
		config: config,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// authorityResponse is the wire shape of the authority's verdict
type authorityResponse struct {
	Accepted bool   `json:"accepted"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// SubmitInvoice pushes one invoice submission to the authority
func (c *HTTPTaxAuthorityClient) SubmitInvoice(ctx context.Context, req appcompliance.TaxAuthorityRequest) (*appcompliance.TaxAuthorityResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("tax authority: failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/invoices/submissions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tax authority: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	// The hash doubles as the authority-side idempotency key
	httpReq.Header.Set("Idempotency-Key", req.SubmissionHash)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tax authority: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("tax authority: failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("tax authority: server error %d", resp.StatusCode)
	}

	var verdict authorityResponse
	if err := json.Unmarshal(respBody, &verdict); err != nil {
		if resp.StatusCode >= 400 {
			// Malformed rejection body still carries a definitive verdict
			return &appcompliance.TaxAuthorityResponse{
				Accepted: false,
				Code:     fmt.Sprintf("%d", resp.StatusCode),
				Message:  string(respBody),
			}, nil
		}
		return nil, fmt.Errorf("tax authority: failed to decode response: %w", err)
	}

	c.logger.Debug("Tax authority responded",
		zap.String("invoice_number", req.InvoiceNumber),
		zap.Int("status", resp.StatusCode),
		zap.Bool("accepted", verdict.Accepted),
		zap.String("code", verdict.Code))

	return &appcompliance.TaxAuthorityResponse{
		Accepted: verdict.Accepted,
		Code:     verdict.Code,
		Message:  verdict.Message,
	}, nil
}

var _ appcompliance.TaxAuthorityClient = (*HTTPTaxAuthorityClient)(nil)
