// Package billing provides domain models for member invoicing and tenant usage metering.
//
// The invoicing side owns the Invoice aggregate and its issue/payment/cancellation
// lifecycle. The metering side is responsible for:
//   - Recording usage events (API calls, storage, active members, invoices issued, etc.)
//   - Aggregating usage data by tenant and time period
//   - Defining and enforcing usage quotas per subscription plan
//
// Key Aggregates:
//   - Invoice: Member-facing invoice with line items, VAT, and payment tracking
//   - UsageRecord: Immutable record of a single usage event
//   - UsageQuota: Defines usage limits for a specific usage type and plan
//
// Value Objects:
//   - UsageMeter: Aggregated usage statistics for a tenant over a time period
//   - UsageType: Enumeration of measurable usage types
//
// The billing domain integrates with:
//   - Identity domain: For tenant and subscription plan information
//   - All other domains: As sources of usage events
package billing
