package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func createTestInvoice(t *testing.T) *Invoice {
	inv, err := NewInvoice(uuid.New(), "INV-2026-00001", uuid.New(), nil)
	require.NoError(t, err)
	return inv
}

func createIssuedInvoice(t *testing.T, now time.Time, termsDays int) *Invoice {
	inv := createTestInvoice(t)
	_, err := inv.AddLineItem("Monthly membership", 1, valueobject.NewMoneySARFromFloat(1000.00), decimal.Zero, LineItemTypeSubscription)
	require.NoError(t, err)
	require.NoError(t, inv.Issue(now, termsDays))
	return inv
}

// ============================================
// InvoiceStatus Tests
// ============================================

func TestInvoiceStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  InvoiceStatus
		isValid bool
	}{
		{InvoiceStatusDraft, true},
		{InvoiceStatusIssued, true},
		{InvoiceStatusPaid, true},
		{InvoiceStatusPartiallyPaid, true},
		{InvoiceStatusOverdue, true},
		{InvoiceStatusCancelled, true},
		{InvoiceStatus("INVALID"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestInvoiceStatus_CanRecordPayment(t *testing.T) {
	assert.True(t, InvoiceStatusIssued.CanRecordPayment())
	assert.True(t, InvoiceStatusPartiallyPaid.CanRecordPayment())
	assert.True(t, InvoiceStatusOverdue.CanRecordPayment())
	assert.False(t, InvoiceStatusDraft.CanRecordPayment())
	assert.False(t, InvoiceStatusPaid.CanRecordPayment())
	assert.False(t, InvoiceStatusCancelled.CanRecordPayment())
}

// ============================================
// Line Item Tests
// ============================================

func TestInvoice_AddLineItem(t *testing.T) {
	inv := createTestInvoice(t)

	id, err := inv.AddLineItem("Monthly membership", 1, valueobject.NewMoneySARFromFloat(200.00), valueobject.DefaultVATRate, LineItemTypeSubscription)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, valueobject.SAR, inv.Currency)
}

func TestInvoice_AddLineItem_Validation(t *testing.T) {
	inv := createTestInvoice(t)

	t.Run("empty description", func(t *testing.T) {
		_, err := inv.AddLineItem("", 1, valueobject.NewMoneySARFromFloat(10), decimal.Zero, LineItemTypeOther)
		assert.Error(t, err)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := inv.AddLineItem("item", 0, valueobject.NewMoneySARFromFloat(10), decimal.Zero, LineItemTypeOther)
		assert.Error(t, err)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := inv.AddLineItem("item", 1, valueobject.NewMoneySARFromFloat(10), decimal.Zero, LineItemType("BOGUS"))
		assert.Error(t, err)
	})
}

func TestInvoice_RemoveLineItem(t *testing.T) {
	inv := createTestInvoice(t)
	id1, _ := inv.AddLineItem("first", 1, valueobject.NewMoneySARFromFloat(10), decimal.Zero, LineItemTypeOther)
	id2, _ := inv.AddLineItem("second", 1, valueobject.NewMoneySARFromFloat(20), decimal.Zero, LineItemTypeOther)

	require.NoError(t, inv.RemoveLineItem(id1))
	require.Len(t, inv.Items, 1)
	assert.Equal(t, id2, inv.Items[0].ID)
	assert.Equal(t, 0, inv.Items[0].SortOrder)

	err := inv.RemoveLineItem(uuid.New())
	assert.Error(t, err)
}

func TestInvoice_LineItemsImmutableAfterIssue(t *testing.T) {
	inv := createIssuedInvoice(t, time.Now(), 14)

	_, err := inv.AddLineItem("late addition", 1, valueobject.NewMoneySARFromFloat(10), decimal.Zero, LineItemTypeOther)
	assert.Error(t, err)

	err = inv.RemoveLineItem(inv.Items[0].ID)
	assert.Error(t, err)
}

// ============================================
// Issue Tests
// ============================================

func TestInvoice_Issue(t *testing.T) {
	inv := createTestInvoice(t)
	_, err := inv.AddLineItem("Monthly membership", 1, valueobject.NewMoneySARFromFloat(200.00), valueobject.DefaultVATRate, LineItemTypeSubscription)
	require.NoError(t, err)
	_, err = inv.AddLineItem("Join fee", 1, valueobject.NewMoneySARFromFloat(100.00), valueobject.DefaultVATRate, LineItemTypeJoinFee)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, inv.Issue(now, 14))

	assert.Equal(t, InvoiceStatusIssued, inv.Status)
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(300)), "got %s", inv.Subtotal)
	assert.True(t, inv.VATAmount.Equal(decimal.NewFromInt(45)), "got %s", inv.VATAmount)
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(345)), "got %s", inv.TotalAmount)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, now.AddDate(0, 0, 14), *inv.DueDate)
	assert.NotEmpty(t, inv.SubmissionHash)
}

func TestInvoice_Issue_Rejections(t *testing.T) {
	t.Run("no line items", func(t *testing.T) {
		inv := createTestInvoice(t)
		err := inv.Issue(time.Now(), 14)
		assert.Error(t, err)
	})

	t.Run("double issue", func(t *testing.T) {
		inv := createIssuedInvoice(t, time.Now(), 14)
		err := inv.Issue(time.Now(), 14)
		assert.Error(t, err)
	})
}

func TestInvoice_SubmissionHash_Stable(t *testing.T) {
	now := time.Now()
	inv := createIssuedInvoice(t, now, 14)

	assert.Equal(t, inv.SubmissionHash, inv.computeSubmissionHash())
}

// ============================================
// Payment Tests
// ============================================

func TestInvoice_RecordPayment_Full(t *testing.T) {
	now := time.Now()
	inv := createIssuedInvoice(t, now, 14)

	err := inv.RecordPayment(valueobject.NewMoneySARFromFloat(1000.00), "card", "txn-1", now)
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.RemainingBalance().IsZero())
	assert.NotNil(t, inv.PaidAt)
	require.Len(t, inv.PaymentRecords, 1)
	assert.Equal(t, "card", inv.PaymentRecords[0].Method)
}

func TestInvoice_RecordPayment_Partial(t *testing.T) {
	now := time.Now()
	inv := createIssuedInvoice(t, now, 14)

	require.NoError(t, inv.RecordPayment(valueobject.NewMoneySARFromFloat(400.00), "card", "txn-1", now))
	assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
	assert.True(t, inv.RemainingBalance().Equal(decimal.NewFromInt(600)))

	require.NoError(t, inv.RecordPayment(valueobject.NewMoneySARFromFloat(600.00), "cash", "txn-2", now))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.Len(t, inv.PaymentRecords, 2)
}

func TestInvoice_RecordPayment_Overpayment(t *testing.T) {
	now := time.Now()
	inv := createIssuedInvoice(t, now, 14)
	require.NoError(t, inv.RecordPayment(valueobject.NewMoneySARFromFloat(400.00), "card", "txn-1", now))

	err := inv.RecordPayment(valueobject.NewMoneySARFromFloat(700.00), "card", "txn-2", now)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "OVERPAYMENT", domainErr.Code)
	// Nothing was recorded.
	assert.Len(t, inv.PaymentRecords, 1)
	assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
}

func TestInvoice_RecordPayment_OnDraft(t *testing.T) {
	inv := createTestInvoice(t)

	err := inv.RecordPayment(valueobject.NewMoneySARFromFloat(10), "card", "", time.Now())
	assert.Error(t, err)
}

func TestInvoice_RecordPayment_OnOverdue(t *testing.T) {
	issued := time.Now().AddDate(0, 0, -20)
	inv := createIssuedInvoice(t, issued, 14)
	now := time.Now()
	require.True(t, inv.IsOverdue(now))
	inv.RefreshStatus(now)
	require.Equal(t, InvoiceStatusOverdue, inv.Status)

	require.NoError(t, inv.RecordPayment(valueobject.NewMoneySARFromFloat(1000.00), "card", "txn-1", now))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
}

// ============================================
// Cancel Tests
// ============================================

func TestInvoice_Cancel_Draft(t *testing.T) {
	inv := createTestInvoice(t)

	require.NoError(t, inv.Cancel("created in error"))
	assert.Equal(t, InvoiceStatusCancelled, inv.Status)
	assert.NotNil(t, inv.CancelledAt)
}

func TestInvoice_Cancel_IssuedWithoutPayments(t *testing.T) {
	inv := createIssuedInvoice(t, time.Now(), 14)

	require.NoError(t, inv.Cancel("duplicate"))
	assert.Equal(t, InvoiceStatusCancelled, inv.Status)
}

func TestInvoice_Cancel_PaymentsExist(t *testing.T) {
	now := time.Now()
	inv := createIssuedInvoice(t, now, 14)
	require.NoError(t, inv.RecordPayment(valueobject.NewMoneySARFromFloat(100.00), "card", "txn-1", now))

	err := inv.Cancel("change of mind")
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "PAYMENTS_EXIST", domainErr.Code)
	assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
}

// ============================================
// Overdue Derivation Tests
// ============================================

func TestInvoice_OverdueDerivation(t *testing.T) {
	// Issued 2026-01-01 with 14-day terms: due 2026-01-15.
	issued := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	inv := createIssuedInvoice(t, issued, 14)

	t.Run("not overdue before due date", func(t *testing.T) {
		now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
		assert.False(t, inv.IsOverdue(now))
		assert.Equal(t, InvoiceStatusIssued, inv.EffectiveStatus(now))
	})

	t.Run("overdue after due date with balance", func(t *testing.T) {
		now := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)
		assert.True(t, inv.IsOverdue(now))
		// Derived read reports OVERDUE even though the stored status never changed.
		assert.Equal(t, InvoiceStatusIssued, inv.Status)
		assert.Equal(t, InvoiceStatusOverdue, inv.EffectiveStatus(now))
		assert.Equal(t, 5, inv.DaysOverdue(now))
	})

	t.Run("not overdue once paid", func(t *testing.T) {
		now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
		require.NoError(t, inv.RecordPayment(valueobject.NewMoneySARFromFloat(1000.00), "card", "txn-1", now))
		assert.False(t, inv.IsOverdue(now.AddDate(0, 0, 30)))
		assert.Equal(t, InvoiceStatusPaid, inv.EffectiveStatus(now.AddDate(0, 0, 30)))
	})
}

func TestInvoice_RefreshStatus(t *testing.T) {
	issued := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	inv := createIssuedInvoice(t, issued, 14)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	changed := inv.RefreshStatus(now)
	assert.True(t, changed)
	assert.Equal(t, InvoiceStatusOverdue, inv.Status)

	// Second sweep is a no-op.
	assert.False(t, inv.RefreshStatus(now))
}

// ============================================
// JSONB Round-Trip Tests
// ============================================

func TestLineItems_ScanValue(t *testing.T) {
	items := LineItems{
		{ID: uuid.New(), Description: "Monthly membership", Quantity: 1, UnitPrice: decimal.NewFromInt(200), TaxRate: valueobject.DefaultVATRate, ItemType: LineItemTypeSubscription},
	}

	val, err := items.Value()
	require.NoError(t, err)

	var scanned LineItems
	require.NoError(t, scanned.Scan(val))
	require.Len(t, scanned, 1)
	assert.True(t, scanned[0].UnitPrice.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, LineItemTypeSubscription, scanned[0].ItemType)
}
