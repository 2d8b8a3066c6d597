package billing

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/subscription"
	"go.uber.org/zap"
)

// StripeAdapter wraps the stripe-go SDK for platform plan billing: each
// club tenant is a Stripe customer, its plan tier a Stripe subscription.
type StripeAdapter struct {
	config *StripeConfig
	logger *zap.Logger
}

func NewStripeAdapter(config *StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.InitStripeClient()

	return &StripeAdapter{
		config: config,
		logger: logger,
	}, nil
}

// CreateCustomer registers the tenant in Stripe; the tenant_id metadata
// key is how webhook handlers find their way back to the club.
func (a *StripeAdapter) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*CreateCustomerOutput, error) {
	a.logger.Debug("creating stripe customer",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("email", input.Email))

	params := &stripe.CustomerParams{
		Email:       stripe.String(input.Email),
		Name:        stripe.String(input.Name),
		Description: stripe.String(input.Description),
	}

	if input.Phone != "" {
		params.Phone = stripe.String(input.Phone)
	}

	if input.PreferredLocale != "" {
		params.PreferredLocales = stripe.StringSlice([]string{input.PreferredLocale})
	}

	if input.TaxExempt {
		params.TaxExempt = stripe.String("exempt")
	}

	params.Metadata = map[string]string{
		"tenant_id": input.TenantID.String(),
	}
	maps.Copy(params.Metadata, input.Metadata)

	cust, err := customer.New(params)
	if err != nil {
		a.logger.Error("failed to create stripe customer",
			zap.String("tenant_id", input.TenantID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create customer: %w", err)
	}

	a.logger.Info("created stripe customer",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("customer_id", cust.ID))

	return &CreateCustomerOutput{
		CustomerID: cust.ID,
		Email:      cust.Email,
		Name:       cust.Name,
		CreatedAt:  time.Unix(cust.Created, 0),
	}, nil
}

func (a *StripeAdapter) GetCustomer(ctx context.Context, customerID string) (*CreateCustomerOutput, error) {
	a.logger.Debug("getting stripe customer", zap.String("customer_id", customerID))

	cust, err := customer.Get(customerID, nil)
	if err != nil {
		a.logger.Error("failed to get stripe customer",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to get customer: %w", err)
	}

	return &CreateCustomerOutput{
		CustomerID: cust.ID,
		Email:      cust.Email,
		Name:       cust.Name,
		CreatedAt:  time.Unix(cust.Created, 0),
	}, nil
}

func (a *StripeAdapter) UpdateCustomer(ctx context.Context, customerID string, input CreateCustomerInput) (*CreateCustomerOutput, error) {
	a.logger.Debug("updating stripe customer",
		zap.String("customer_id", customerID),
		zap.String("email", input.Email))

	params := &stripe.CustomerParams{
		Email:       stripe.String(input.Email),
		Name:        stripe.String(input.Name),
		Description: stripe.String(input.Description),
	}

	if input.Phone != "" {
		params.Phone = stripe.String(input.Phone)
	}

	if len(input.Metadata) > 0 {
		params.Metadata = input.Metadata
	}

	cust, err := customer.Update(customerID, params)
	if err != nil {
		a.logger.Error("failed to update stripe customer",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to update customer: %w", err)
	}

	return &CreateCustomerOutput{
		CustomerID: cust.ID,
		Email:      cust.Email,
		Name:       cust.Name,
		CreatedAt:  time.Unix(cust.Created, 0),
	}, nil
}

func (a *StripeAdapter) DeleteCustomer(ctx context.Context, customerID string) error {
	a.logger.Debug("deleting stripe customer", zap.String("customer_id", customerID))

	_, err := customer.Del(customerID, nil)
	if err != nil {
		a.logger.Error("failed to delete stripe customer",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return fmt.Errorf("stripe: failed to delete customer: %w", err)
	}

	a.logger.Info("deleted stripe customer", zap.String("customer_id", customerID))
	return nil
}

// CreateSubscription puts the tenant on a paid plan. The free tier
// short-circuits: it has no Stripe price, so no subscription is created.
func (a *StripeAdapter) CreateSubscription(ctx context.Context, input CreateSubscriptionInput) (*CreateSubscriptionOutput, error) {
	a.logger.Debug("creating stripe subscription",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("customer_id", input.CustomerID),
		zap.String("plan_id", input.PlanID))

	priceID := input.PriceID
	if priceID == "" {
		var err error
		priceID, err = a.config.GetPriceID(input.PlanID)
		if err != nil {
			return nil, err
		}
	}

	if priceID == "" && input.PlanID == "free" {
		return &CreateSubscriptionOutput{
			SubscriptionID: "",
			CustomerID:     input.CustomerID,
			Status:         SubscriptionStatusActive,
		}, nil
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(input.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{
				Price: stripe.String(priceID),
			},
		},
	}

	if input.TrialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(int64(input.TrialDays))
	}

	// default_incomplete lets the frontend confirm the first payment via
	// the expanded payment intent's client secret.
	params.PaymentBehavior = stripe.String("default_incomplete")
	params.AddExpand("latest_invoice.payment_intent")

	if input.CollectionMethod != "" {
		params.CollectionMethod = stripe.String(input.CollectionMethod)
	}
	if input.PaymentMethod != "" {
		params.DefaultPaymentMethod = stripe.String(input.PaymentMethod)
	}

	params.Metadata = map[string]string{
		"tenant_id": input.TenantID.String(),
		"plan_id":   input.PlanID,
	}
	for k, v := range input.Metadata {
		params.Metadata[k] = v
	}

	sub, err := subscription.New(params)
	if err != nil {
		a.logger.Error("failed to create stripe subscription",
			zap.String("tenant_id", input.TenantID.String()),
			zap.String("customer_id", input.CustomerID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create subscription: %w", err)
	}

	a.logger.Info("created stripe subscription",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)))

	output := &CreateSubscriptionOutput{
		SubscriptionID:     sub.ID,
		CustomerID:         sub.Customer.ID,
		Status:             mapStripeSubscriptionStatus(sub.Status),
		CurrentPeriodStart: time.Unix(sub.CurrentPeriodStart, 0),
		CurrentPeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}

	if sub.TrialStart > 0 {
		t := time.Unix(sub.TrialStart, 0)
		output.TrialStart = &t
	}
	if sub.TrialEnd > 0 {
		t := time.Unix(sub.TrialEnd, 0)
		output.TrialEnd = &t
	}

	if sub.LatestInvoice != nil {
		output.LatestInvoiceID = sub.LatestInvoice.ID
		if sub.LatestInvoice.PaymentIntent != nil {
			output.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
		}
	}

	return output, nil
}

// UpdateSubscription swaps the price on the subscription's single item,
// which is how plan up- and downgrades work. Prorations are created
// unless the caller overrides ProrationBehavior.
func (a *StripeAdapter) UpdateSubscription(ctx context.Context, input UpdateSubscriptionInput) (*UpdateSubscriptionOutput, error) {
	a.logger.Debug("updating stripe subscription",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("subscription_id", input.SubscriptionID),
		zap.String("new_plan_id", input.NewPlanID))

	sub, err := subscription.Get(input.SubscriptionID, nil)
	if err != nil {
		a.logger.Error("failed to get stripe subscription",
			zap.String("subscription_id", input.SubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to get subscription: %w", err)
	}

	if len(sub.Items.Data) == 0 {
		return nil, fmt.Errorf("stripe: subscription has no items")
	}
	itemID := sub.Items.Data[0].ID
	previousPriceID := sub.Items.Data[0].Price.ID

	newPriceID := input.NewPriceID
	if newPriceID == "" && input.NewPlanID != "" {
		newPriceID, err = a.config.GetPriceID(input.NewPlanID)
		if err != nil {
			return nil, err
		}
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(itemID),
				Price: stripe.String(newPriceID),
			},
		},
		CancelAtPeriodEnd: stripe.Bool(input.CancelAtPeriodEnd),
	}

	if input.ProrationBehavior != "" {
		params.ProrationBehavior = stripe.String(input.ProrationBehavior)
	} else {
		params.ProrationBehavior = stripe.String("create_prorations")
	}

	if len(input.Metadata) > 0 {
		params.Metadata = input.Metadata
	}
	if input.NewPlanID != "" {
		if params.Metadata == nil {
			params.Metadata = make(map[string]string)
		}
		params.Metadata["plan_id"] = input.NewPlanID
	}

	updatedSub, err := subscription.Update(input.SubscriptionID, params)
	if err != nil {
		a.logger.Error("failed to update stripe subscription",
			zap.String("subscription_id", input.SubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to update subscription: %w", err)
	}

	a.logger.Info("updated stripe subscription",
		zap.String("subscription_id", updatedSub.ID),
		zap.String("previous_price", previousPriceID),
		zap.String("new_price", newPriceID))

	return &UpdateSubscriptionOutput{
		SubscriptionID:     updatedSub.ID,
		Status:             mapStripeSubscriptionStatus(updatedSub.Status),
		CurrentPeriodStart: time.Unix(updatedSub.CurrentPeriodStart, 0),
		CurrentPeriodEnd:   time.Unix(updatedSub.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd:  updatedSub.CancelAtPeriodEnd,
		PreviousPriceID:    previousPriceID,
		NewPriceID:         newPriceID,
	}, nil
}

// CancelSubscription ends the plan either at period end (an update) or
// immediately (a cancel call); Stripe models these as different
// operations.
func (a *StripeAdapter) CancelSubscription(ctx context.Context, input CancelSubscriptionInput) (*CancelSubscriptionOutput, error) {
	a.logger.Debug("canceling stripe subscription",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("subscription_id", input.SubscriptionID),
		zap.Bool("cancel_at_period_end", input.CancelAtPeriodEnd))

	var sub *stripe.Subscription
	var err error

	if input.CancelAtPeriodEnd {
		params := &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		}
		if input.Reason != "" {
			params.CancellationDetails = &stripe.SubscriptionCancellationDetailsParams{
				Comment: stripe.String(input.Reason),
			}
		}
		sub, err = subscription.Update(input.SubscriptionID, params)
	} else {
		params := &stripe.SubscriptionCancelParams{}
		if input.Reason != "" {
			params.CancellationDetails = &stripe.SubscriptionCancelCancellationDetailsParams{
				Comment: stripe.String(input.Reason),
			}
		}
		sub, err = subscription.Cancel(input.SubscriptionID, params)
	}

	if err != nil {
		a.logger.Error("failed to cancel stripe subscription",
			zap.String("subscription_id", input.SubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to cancel subscription: %w", err)
	}

	a.logger.Info("canceled stripe subscription",
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)),
		zap.Bool("cancel_at_period_end", sub.CancelAtPeriodEnd))

	output := &CancelSubscriptionOutput{
		SubscriptionID:    sub.ID,
		Status:            mapStripeSubscriptionStatus(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0),
	}

	if sub.CanceledAt > 0 {
		t := time.Unix(sub.CanceledAt, 0)
		output.CanceledAt = &t
	}

	return output, nil
}

func (a *StripeAdapter) GetSubscriptionStatus(ctx context.Context, input GetSubscriptionStatusInput) (*GetSubscriptionStatusOutput, error) {
	a.logger.Debug("getting stripe subscription status",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("subscription_id", input.SubscriptionID))

	params := &stripe.SubscriptionParams{}
	params.AddExpand("default_payment_method")
	params.AddExpand("latest_invoice")

	sub, err := subscription.Get(input.SubscriptionID, params)
	if err != nil {
		a.logger.Error("failed to get stripe subscription",
			zap.String("subscription_id", input.SubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to get subscription: %w", err)
	}

	output := &GetSubscriptionStatusOutput{
		SubscriptionID:     sub.ID,
		CustomerID:         sub.Customer.ID,
		Status:             mapStripeSubscriptionStatus(sub.Status),
		CurrentPeriodStart: time.Unix(sub.CurrentPeriodStart, 0),
		CurrentPeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		StartDate:          time.Unix(sub.StartDate, 0),
		DaysUntilDue:       int(sub.DaysUntilDue),
	}

	if len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		output.PriceID = item.Price.ID
		if item.Price.Product != nil {
			output.ProductID = item.Price.Product.ID
		}
	}

	if sub.TrialStart > 0 {
		t := time.Unix(sub.TrialStart, 0)
		output.TrialStart = &t
	}
	if sub.TrialEnd > 0 {
		t := time.Unix(sub.TrialEnd, 0)
		output.TrialEnd = &t
	}

	if sub.CancelAt > 0 {
		t := time.Unix(sub.CancelAt, 0)
		output.CancelAt = &t
	}
	if sub.CanceledAt > 0 {
		t := time.Unix(sub.CanceledAt, 0)
		output.CanceledAt = &t
	}
	if sub.EndedAt > 0 {
		t := time.Unix(sub.EndedAt, 0)
		output.EndedAt = &t
	}

	if sub.LatestInvoice != nil {
		output.LatestInvoiceID = sub.LatestInvoice.ID
	}
	if sub.DefaultPaymentMethod != nil {
		output.DefaultPaymentMethod = sub.DefaultPaymentMethod.ID
	}

	return output, nil
}

func (a *StripeAdapter) ListSubscriptions(ctx context.Context, customerID string) ([]*GetSubscriptionStatusOutput, error) {
	a.logger.Debug("listing stripe subscriptions", zap.String("customer_id", customerID))

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
	}
	params.AddExpand("data.default_payment_method")

	var subscriptions []*GetSubscriptionStatusOutput
	iter := subscription.List(params)
	for iter.Next() {
		sub := iter.Subscription()
		output := &GetSubscriptionStatusOutput{
			SubscriptionID:     sub.ID,
			CustomerID:         sub.Customer.ID,
			Status:             mapStripeSubscriptionStatus(sub.Status),
			CurrentPeriodStart: time.Unix(sub.CurrentPeriodStart, 0),
			CurrentPeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0),
			CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
			StartDate:          time.Unix(sub.StartDate, 0),
		}

		if len(sub.Items.Data) > 0 {
			output.PriceID = sub.Items.Data[0].Price.ID
		}

		subscriptions = append(subscriptions, output)
	}

	if err := iter.Err(); err != nil {
		a.logger.Error("failed to list stripe subscriptions",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to list subscriptions: %w", err)
	}

	return subscriptions, nil
}

// ResumeSubscription clears cancel-at-period-end before the period
// actually ends.
func (a *StripeAdapter) ResumeSubscription(ctx context.Context, tenantID uuid.UUID, subscriptionID string) (*GetSubscriptionStatusOutput, error) {
	a.logger.Debug("resuming stripe subscription",
		zap.String("tenant_id", tenantID.String()),
		zap.String("subscription_id", subscriptionID))

	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	}

	sub, err := subscription.Update(subscriptionID, params)
	if err != nil {
		a.logger.Error("failed to resume stripe subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to resume subscription: %w", err)
	}

	a.logger.Info("resumed stripe subscription",
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)))

	return &GetSubscriptionStatusOutput{
		SubscriptionID:     sub.ID,
		CustomerID:         sub.Customer.ID,
		Status:             mapStripeSubscriptionStatus(sub.Status),
		CurrentPeriodStart: time.Unix(sub.CurrentPeriodStart, 0),
		CurrentPeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}, nil
}

// mapStripeSubscriptionStatus passes unknown statuses through verbatim so
// a new Stripe status degrades gracefully instead of being swallowed.
func mapStripeSubscriptionStatus(status stripe.SubscriptionStatus) SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return SubscriptionStatusActive
	case stripe.SubscriptionStatusPastDue:
		return SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return SubscriptionStatusCanceled
	case stripe.SubscriptionStatusIncomplete:
		return SubscriptionStatusIncomplete
	case stripe.SubscriptionStatusIncompleteExpired:
		return SubscriptionStatusIncompleteExpired
	case stripe.SubscriptionStatusTrialing:
		return SubscriptionStatusTrialing
	case stripe.SubscriptionStatusUnpaid:
		return SubscriptionStatusUnpaid
	case stripe.SubscriptionStatusPaused:
		return SubscriptionStatusPaused
	default:
		return SubscriptionStatus(status)
	}
}
