package event

import (
	"github.com/liyaqa/backend/internal/domain/billing"
	"github.com/liyaqa/backend/internal/domain/compliance"
	"github.com/liyaqa/backend/internal/domain/dunning"
	"github.com/liyaqa/backend/internal/domain/membership"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	// Membership domain - Subscription events
	serializer.Register("SubscriptionCreated", &membership.SubscriptionCreatedEvent{})
	serializer.Register("SubscriptionActivated", &membership.SubscriptionActivatedEvent{})
	serializer.Register("SubscriptionFrozen", &membership.SubscriptionFrozenEvent{})
	serializer.Register("SubscriptionUnfrozen", &membership.SubscriptionUnfrozenEvent{})
	serializer.Register("SubscriptionCancelled", &membership.SubscriptionCancelledEvent{})
	serializer.Register("SubscriptionCancellationScheduled", &membership.SubscriptionCancellationScheduledEvent{})
	serializer.Register("SubscriptionReactivated", &membership.SubscriptionReactivatedEvent{})
	serializer.Register("SubscriptionTransferred", &membership.SubscriptionTransferredEvent{})
	serializer.Register("SubscriptionRenewed", &membership.SubscriptionRenewedEvent{})
	serializer.Register("SubscriptionExpired", &membership.SubscriptionExpiredEvent{})

	// Membership domain - Contract events
	serializer.Register("ContractCreated", &membership.ContractCreatedEvent{})
	serializer.Register("ContractSigned", &membership.ContractSignedEvent{})
	serializer.Register("ContractActivated", &membership.ContractActivatedEvent{})
	serializer.Register("ContractRenewed", &membership.ContractRenewedEvent{})
	serializer.Register("ContractTerminated", &membership.ContractTerminatedEvent{})

	// Billing domain - Invoice events
	serializer.Register("InvoiceCreated", &billing.InvoiceCreatedEvent{})
	serializer.Register("InvoiceIssued", &billing.InvoiceIssuedEvent{})
	serializer.Register("InvoicePaid", &billing.InvoicePaidEvent{})
	serializer.Register("InvoicePartiallyPaid", &billing.InvoicePartiallyPaidEvent{})
	serializer.Register("InvoiceOverdue", &billing.InvoiceOverdueEvent{})
	serializer.Register("InvoiceCancelled", &billing.InvoiceCancelledEvent{})

	// Compliance domain - Tax submission events
	serializer.Register("TaxSubmissionCreated", &compliance.TaxSubmissionCreatedEvent{})
	serializer.Register("TaxSubmissionAccepted", &compliance.TaxSubmissionAcceptedEvent{})
	serializer.Register("TaxSubmissionRejected", &compliance.TaxSubmissionRejectedEvent{})
	serializer.Register("TaxSubmissionFailed", &compliance.TaxSubmissionFailedEvent{})
	serializer.Register("TaxSubmissionRetried", &compliance.TaxSubmissionRetriedEvent{})

	// Dunning domain - Sequence events
	serializer.Register("DunningStarted", &dunning.DunningStartedEvent{})
	serializer.Register("DunningStepExecuted", &dunning.DunningStepExecutedEvent{})
	serializer.Register("DunningRecovered", &dunning.DunningRecoveredEvent{})
	serializer.Register("DunningEscalated", &dunning.DunningEscalatedEvent{})
	serializer.Register("DunningExhausted", &dunning.DunningExhaustedEvent{})
	serializer.Register("DunningPaused", &dunning.DunningPausedEvent{})
	serializer.Register("DunningResumed", &dunning.DunningResumedEvent{})
	serializer.Register("DunningCancelled", &dunning.DunningCancelledEvent{})
}
