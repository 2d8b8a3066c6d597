package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/liyaqa/backend/internal/domain/identity"
	infra "github.com/liyaqa/backend/internal/infrastructure/printing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// statusToText converts status code to display text
func statusToText(status string) string {
	statusMap := map[string]string{
		"DRAFT":          "Draft",
		"ISSUED":         "Issued",
		"PAID":           "Paid",
		"PARTIALLY_PAID": "Partially Paid",
		"OVERDUE":        "Overdue",
		"CANCELLED":      "Cancelled",
		"SENT":           "Sent",
		"SIGNED":         "Signed",
		"ACTIVE":         "Active",
		"EXPIRED":        "Expired",
		"TERMINATED":     "Terminated",
		"PENDING":        "Pending",
		"SUBMITTED":      "Submitted",
		"ACCEPTED":       "Accepted",
		"REJECTED":       "Rejected",
		"FAILED":         "Failed",
		"PAUSED":         "Paused",
		"ESCALATED":      "Escalated",
		"RECOVERED":      "Recovered",
		"EXHAUSTED":      "Exhausted",
	}
	if text, ok := statusMap[status]; ok {
		return text
	}
	return status
}

// paymentMethodText converts a payment method code to display text
func paymentMethodText(method string) string {
	methodMap := map[string]string{
		"CASH":          "Cash",
		"CARD":          "Card",
		"BANK_TRANSFER": "Bank Transfer",
		"DIRECT_DEBIT":  "Direct Debit",
		"OTHER":         "Other",
	}
	if text, ok := methodMap[method]; ok {
		return text
	}
	return method
}

// loadMemberInfo resolves a member's contact details from the user repository
func loadMemberInfo(ctx context.Context, userRepo identity.UserRepository, memberID uuid.UUID) (infra.MemberInfo, error) {
	member, err := userRepo.FindByID(ctx, memberID)
	if err != nil {
		return infra.MemberInfo{}, fmt.Errorf("failed to load member: %w", err)
	}
	name := member.DisplayName
	if name == "" {
		name = member.Username
	}
	return infra.MemberInfo{
		ID:    member.ID,
		Name:  name,
		Phone: member.Phone,
		Email: member.Email,
	}, nil
}

// formatOptionalDate formats a nullable time as a date string
func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// formatPeriod formats a date range; empty when either bound is missing
func formatPeriod(start, end *time.Time) string {
	if start == nil || end == nil {
		return ""
	}
	return start.Format("2006-01-02") + " — " + end.Format("2006-01-02")
}

// formatTaxRate renders a fractional tax rate as a percentage, e.g. 0.15 -> "15%"
func formatTaxRate(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).String() + "%"
}
