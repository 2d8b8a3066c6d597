package billing

import (
	"fmt"

	"github.com/stripe/stripe-go/v81"
)

// StripeConfig carries the Stripe credentials and plan-to-price mapping
// for platform plan billing (clubs paying for the platform itself, as
// opposed to members paying their clubs).
type StripeConfig struct {
	// SecretKey is sk_test_xxx or sk_live_xxx.
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`

	PublishableKey string `json:"publishable_key" mapstructure:"publishable_key"`

	// WebhookSecret verifies webhook signatures.
	WebhookSecret string `json:"webhook_secret" mapstructure:"webhook_secret"`

	IsTestMode bool `json:"is_test_mode" mapstructure:"is_test_mode"`

	// DefaultCurrency is a lowercase ISO code, e.g. "sar".
	DefaultCurrency string `json:"default_currency" mapstructure:"default_currency"`

	// PriceIDs maps plan tier names to Stripe Price IDs.
	PriceIDs map[string]string `json:"price_ids" mapstructure:"price_ids"`

	SuccessURL string `json:"success_url" mapstructure:"success_url"`
	CancelURL  string `json:"cancel_url" mapstructure:"cancel_url"`

	BillingPortalReturnURL string `json:"billing_portal_return_url" mapstructure:"billing_portal_return_url"`
}

// DefaultStripeConfig is the development baseline; the price IDs are
// placeholders until real ones are provisioned in the Stripe dashboard.
func DefaultStripeConfig() *StripeConfig {
	return &StripeConfig{
		IsTestMode:      true,
		DefaultCurrency: "sar",
		PriceIDs: map[string]string{
			"free":       "", // the free tier has no Stripe price
			"basic":      "price_basic_monthly",
			"pro":        "price_pro_monthly",
			"enterprise": "price_ent_monthly",
		},
	}
}

// Validate catches the classic misconfiguration of a live key in test
// mode or vice versa before any API call is made.
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}

	if c.IsTestMode {
		if len(c.SecretKey) > 7 && c.SecretKey[:7] != "sk_test" {
			return fmt.Errorf("stripe: test mode enabled but secret key is not a test key")
		}
	} else {
		if len(c.SecretKey) > 7 && c.SecretKey[:7] != "sk_live" {
			return fmt.Errorf("stripe: live mode enabled but secret key is not a live key")
		}
	}

	if c.DefaultCurrency == "" {
		return fmt.Errorf("stripe: default currency is required")
	}

	return nil
}

func (c *StripeConfig) GetPriceID(plan string) (string, error) {
	priceID, exists := c.PriceIDs[plan]
	if !exists {
		return "", fmt.Errorf("stripe: no price ID configured for plan: %s", plan)
	}
	if priceID == "" && plan != "free" {
		return "", fmt.Errorf("stripe: price ID not set for plan: %s", plan)
	}
	return priceID, nil
}

// InitStripeClient sets the package-global API key the stripe-go SDK
// reads.
func (c *StripeConfig) InitStripeClient() {
	stripe.Key = c.SecretKey
}
