package payment

import (
	"context"
	"errors"
	"fmt"

	appdunning "github.com/liyaqa/backend/internal/application/dunning"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"
)

// StripeGatewayConfig holds configuration for the Stripe charge gateway
type StripeGatewayConfig struct {
	// SecretKey is the Stripe secret API key
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`

	// StatementDescriptor appears on the member's card statement
	StatementDescriptor string `json:"statement_descriptor" mapstructure:"statement_descriptor"`
}

// Validate validates the gateway configuration
func (c *StripeGatewayConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe gateway: secret key is required")
	}
	return nil
}

// StripeGateway charges a member's stored card through Stripe. Members are
// located by the member_id metadata stamped on the Stripe customer at
// payment-method setup time.
type StripeGateway struct {
	config *StripeGatewayConfig
	logger *zap.Logger
}

// NewStripeGateway creates a new Stripe charge gateway
func NewStripeGateway(config *StripeGatewayConfig, logger *zap.Logger) (*StripeGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	stripe.Key = config.SecretKey
	return &StripeGateway{config: config, logger: logger}, nil
}

// Charge collects the requested amount from the member's default payment
// method as an off-session payment. A Stripe card decline is reported as a
// result with Succeeded=false; anything else is an incomplete call.
func (g *StripeGateway) Charge(ctx context.Context, req appdunning.ChargeRequest) (*appdunning.ChargeResult, error) {
	cust, err := g.findCustomer(ctx, req)
	if err != nil {
		return nil, err
	}
	if cust == nil {
		return &appdunning.ChargeResult{
			Succeeded: false,
			Error:     "no stored payment profile for member",
		}, nil
	}

	paymentMethodID := ""
	if cust.InvoiceSettings != nil && cust.InvoiceSettings.DefaultPaymentMethod != nil {
		paymentMethodID = cust.InvoiceSettings.DefaultPaymentMethod.ID
	}
	if paymentMethodID == "" {
		return &appdunning.ChargeResult{
			Succeeded: false,
			Error:     "member has no default payment method",
		}, nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toMinorUnits(req.Amount)),
		Currency:      stripe.String(req.Currency),
		Customer:      stripe.String(cust.ID),
		PaymentMethod: stripe.String(paymentMethodID),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
		Description:   stripe.String(req.Reference),
	}
	if g.config.StatementDescriptor != "" {
		params.StatementDescriptorSuffix = stripe.String(g.config.StatementDescriptor)
	}
	params.Metadata = map[string]string{
		"tenant_id":  req.TenantID.String(),
		"member_id":  req.MemberID.String(),
		"invoice_id": req.InvoiceID.String(),
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			g.logger.Info("Stripe charge declined",
				zap.String("member_id", req.MemberID.String()),
				zap.String("invoice_id", req.InvoiceID.String()),
				zap.String("decline_code", string(stripeErr.Code)))
			return &appdunning.ChargeResult{
				Succeeded: false,
				Error:     stripeErr.Msg,
			}, nil
		}
		return nil, fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return &appdunning.ChargeResult{
			Succeeded: false,
			Reference: intent.ID,
			Error:     fmt.Sprintf("payment intent ended in status %s", intent.Status),
		}, nil
	}

	g.logger.Info("Stripe charge succeeded",
		zap.String("member_id", req.MemberID.String()),
		zap.String("invoice_id", req.InvoiceID.String()),
		zap.String("payment_intent_id", intent.ID))

	return &appdunning.ChargeResult{
		Succeeded: true,
		Reference: intent.ID,
	}, nil
}

// findCustomer locates the Stripe customer carrying the member's metadata
func (g *StripeGateway) findCustomer(ctx context.Context, req appdunning.ChargeRequest) (*stripe.Customer, error) {
	searchParams := &stripe.CustomerSearchParams{
		SearchParams: stripe.SearchParams{
			Query:   fmt.Sprintf("metadata['member_id']:'%s' AND metadata['tenant_id']:'%s'", req.MemberID, req.TenantID),
			Limit:   stripe.Int64(1),
			Context: ctx,
		},
	}
	iter := customer.Search(searchParams)
	for iter.Next() {
		return iter.Customer(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe: customer search failed: %w", err)
	}
	return nil, nil
}

// toMinorUnits converts a decimal amount to the currency's minor units
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

var _ appdunning.PaymentGateway = (*StripeGateway)(nil)
