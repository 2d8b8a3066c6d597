package membership

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func createTestSubscription(t *testing.T) *Subscription {
	tenantID := uuid.New()
	memberID := uuid.New()
	planID := uuid.New()
	start := time.Now().Truncate(24 * time.Hour)
	end := start.AddDate(0, 12, 0)

	sub, err := NewSubscription(tenantID, memberID, planID, start, end, 30, 2, nil, true)
	require.NoError(t, err)
	return sub
}

func createActiveSubscription(t *testing.T) *Subscription {
	sub := createTestSubscription(t)
	err := sub.Activate(valueobject.NewMoneySARFromFloat(2500.00), uuid.New())
	require.NoError(t, err)
	return sub
}

// ============================================
// SubscriptionStatus Tests
// ============================================

func TestSubscriptionStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  SubscriptionStatus
		isValid bool
	}{
		{SubscriptionStatusPending, true},
		{SubscriptionStatusPendingPayment, true},
		{SubscriptionStatusActive, true},
		{SubscriptionStatusFrozen, true},
		{SubscriptionStatusCancelled, true},
		{SubscriptionStatusExpired, true},
		{SubscriptionStatus("INVALID"), false},
		{SubscriptionStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestSubscriptionStatus_IsTerminal(t *testing.T) {
	assert.False(t, SubscriptionStatusActive.IsTerminal())
	assert.False(t, SubscriptionStatusFrozen.IsTerminal())
	assert.False(t, SubscriptionStatusPendingPayment.IsTerminal())
	assert.True(t, SubscriptionStatusCancelled.IsTerminal())
	assert.True(t, SubscriptionStatusExpired.IsTerminal())
}

func TestSubscriptionStatus_CanRenew(t *testing.T) {
	assert.True(t, SubscriptionStatusActive.CanRenew())
	assert.True(t, SubscriptionStatusExpired.CanRenew())
	assert.True(t, SubscriptionStatusCancelled.CanRenew())
	assert.False(t, SubscriptionStatusFrozen.CanRenew())
	assert.False(t, SubscriptionStatusPendingPayment.CanRenew())
}

// ============================================
// Construction Tests
// ============================================

func TestNewSubscription(t *testing.T) {
	sub := createTestSubscription(t)

	assert.Equal(t, SubscriptionStatusPendingPayment, sub.Status)
	assert.Equal(t, 30, sub.FreezeDaysAllowed)
	assert.Equal(t, 0, sub.FreezeDaysUsed)
	assert.Equal(t, 2, sub.GuestPassesRemaining)
	assert.Nil(t, sub.ClassesRemaining)
	assert.True(t, sub.AutoRenew)
	assert.Equal(t, valueobject.SAR, sub.Currency)
	assert.Len(t, sub.GetDomainEvents(), 1)
}

func TestNewSubscription_Validation(t *testing.T) {
	tenantID := uuid.New()
	start := time.Now()

	t.Run("empty member", func(t *testing.T) {
		_, err := NewSubscription(tenantID, uuid.Nil, uuid.New(), start, start.AddDate(0, 1, 0), 0, 0, nil, false)
		assert.Error(t, err)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := NewSubscription(tenantID, uuid.New(), uuid.New(), start, start.AddDate(0, 0, -1), 0, 0, nil, false)
		assert.Error(t, err)
	})

	t.Run("negative freeze allowance", func(t *testing.T) {
		_, err := NewSubscription(tenantID, uuid.New(), uuid.New(), start, start.AddDate(0, 1, 0), -1, 0, nil, false)
		assert.Error(t, err)
	})
}

// ============================================
// Activate Tests
// ============================================

func TestSubscription_Activate(t *testing.T) {
	sub := createTestSubscription(t)
	actor := uuid.New()

	err := sub.Activate(valueobject.NewMoneySARFromFloat(2500.00), actor)
	require.NoError(t, err)

	assert.Equal(t, SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.PaidAmount.Equal(valueobject.NewMoneySARFromFloat(2500.00).Amount()))
	require.Len(t, sub.History, 1)
	assert.Equal(t, "activate", sub.History[0].Operation)
	assert.Equal(t, SubscriptionStatusPendingPayment, sub.History[0].FromStatus)
	assert.Equal(t, SubscriptionStatusActive, sub.History[0].ToStatus)
	assert.Equal(t, actor, sub.History[0].ActorID)
}

func TestSubscription_Activate_InvalidState(t *testing.T) {
	sub := createActiveSubscription(t)

	err := sub.Activate(valueobject.NewMoneySARFromFloat(100), uuid.New())
	assert.Error(t, err)
}

// ============================================
// Freeze / Unfreeze Tests
// ============================================

func TestSubscription_Freeze_ConsumesAllowance(t *testing.T) {
	sub := createActiveSubscription(t)
	actor := uuid.New()

	err := sub.Freeze(5, "travel", FreezePolicy{}, actor)
	require.NoError(t, err)

	assert.Equal(t, SubscriptionStatusFrozen, sub.Status)
	assert.Equal(t, 5, sub.FreezeDaysUsed)
	assert.Equal(t, 25, sub.FreezeDaysRemaining())
	assert.NotNil(t, sub.FrozenAt)
}

func TestSubscription_Freeze_ExceedsAllowance(t *testing.T) {
	sub := createActiveSubscription(t)

	err := sub.Freeze(31, "travel", FreezePolicy{}, uuid.New())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INSUFFICIENT_BALANCE", domainErr.Code)
	assert.Equal(t, SubscriptionStatusActive, sub.Status)
	assert.Equal(t, 0, sub.FreezeDaysUsed)
}

func TestSubscription_Freeze_CumulativeAllowance(t *testing.T) {
	sub := createActiveSubscription(t)
	actor := uuid.New()

	require.NoError(t, sub.Freeze(20, "travel", FreezePolicy{}, actor))
	require.NoError(t, sub.Unfreeze(actor))
	require.NoError(t, sub.Freeze(10, "injury", FreezePolicy{}, actor))
	require.NoError(t, sub.Unfreeze(actor))

	assert.Equal(t, 30, sub.FreezeDaysUsed)

	err := sub.Freeze(1, "again", FreezePolicy{}, actor)
	assert.Error(t, err)
}

func TestSubscription_FreezeUnfreeze_ExtendOnFreeze(t *testing.T) {
	sub := createActiveSubscription(t)
	actor := uuid.New()
	originalEnd := sub.EndDate

	require.NoError(t, sub.Freeze(5, "travel", FreezePolicy{ExtendOnFreeze: true}, actor))
	assert.Equal(t, originalEnd.AddDate(0, 0, 5), sub.EndDate)

	require.NoError(t, sub.Unfreeze(actor))
	assert.Equal(t, SubscriptionStatusActive, sub.Status)
	// Unfreeze performs no further date adjustment.
	assert.Equal(t, originalEnd.AddDate(0, 0, 5), sub.EndDate)
}

func TestSubscription_FreezeUnfreeze_NoExtension(t *testing.T) {
	sub := createActiveSubscription(t)
	actor := uuid.New()
	originalEnd := sub.EndDate

	require.NoError(t, sub.Freeze(5, "travel", FreezePolicy{ExtendOnFreeze: false}, actor))
	require.NoError(t, sub.Unfreeze(actor))

	assert.Equal(t, originalEnd, sub.EndDate)
	assert.Equal(t, 5, sub.FreezeDaysUsed)
}

func TestSubscription_Unfreeze_NotFrozen(t *testing.T) {
	sub := createActiveSubscription(t)

	err := sub.Unfreeze(uuid.New())
	assert.Error(t, err)
}

// ============================================
// Cancel Tests
// ============================================

func TestSubscription_Cancel_Immediate(t *testing.T) {
	sub := createActiveSubscription(t)
	actor := uuid.New()

	err := sub.Cancel("moving abroad", true, actor)
	require.NoError(t, err)

	assert.Equal(t, SubscriptionStatusCancelled, sub.Status)
	assert.NotNil(t, sub.CancelledAt)
	assert.Nil(t, sub.CancellationEffectiveAt)
	assert.Equal(t, "moving abroad", sub.CancelReason)
}

func TestSubscription_Cancel_Deferred(t *testing.T) {
	sub := createActiveSubscription(t)
	actor := uuid.New()

	err := sub.Cancel("not renewing", false, actor)
	require.NoError(t, err)

	// Status stays ACTIVE; the cancellation is data, not a new state.
	assert.Equal(t, SubscriptionStatusActive, sub.Status)
	assert.False(t, sub.AutoRenew)
	require.NotNil(t, sub.CancellationEffectiveAt)
	assert.Equal(t, sub.EndDate, *sub.CancellationEffectiveAt)
	assert.True(t, sub.HasPendingCancellation())
}

func TestSubscription_EffectiveEndDate(t *testing.T) {
	sub := createActiveSubscription(t)
	assert.Equal(t, sub.EndDate, sub.EffectiveEndDate())

	// An earlier scheduled cancellation caps the period.
	earlier := sub.EndDate.AddDate(0, 0, -10)
	sub.CancellationEffectiveAt = &earlier
	assert.Equal(t, earlier, sub.EffectiveEndDate())
	assert.Equal(t, 10, sub.DaysRemaining(earlier.AddDate(0, 0, -10)))
}

func TestSubscription_Cancel_RequiresReason(t *testing.T) {
	sub := createActiveSubscription(t)

	err := sub.Cancel("", true, uuid.New())
	assert.Error(t, err)
}

func TestSubscription_Cancel_FromFrozen(t *testing.T) {
	sub := createActiveSubscription(t)
	require.NoError(t, sub.Freeze(5, "travel", FreezePolicy{}, uuid.New()))

	err := sub.Cancel("cancelled while frozen", true, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, SubscriptionStatusCancelled, sub.Status)
}

func TestSubscription_CompleteScheduledCancellation(t *testing.T) {
	sub := createActiveSubscription(t)
	actor := uuid.New()
	require.NoError(t, sub.Cancel("not renewing", false, actor))

	t.Run("before effective date is a no-op", func(t *testing.T) {
		err := sub.CompleteScheduledCancellation(sub.EndDate.AddDate(0, 0, -1), actor)
		require.NoError(t, err)
		assert.Equal(t, SubscriptionStatusActive, sub.Status)
	})

	t.Run("after effective date cancels", func(t *testing.T) {
		err := sub.CompleteScheduledCancellation(sub.EndDate.AddDate(0, 0, 1), actor)
		require.NoError(t, err)
		assert.Equal(t, SubscriptionStatusCancelled, sub.Status)
	})

	t.Run("idempotent once terminal", func(t *testing.T) {
		version := sub.Version
		err := sub.CompleteScheduledCancellation(sub.EndDate.AddDate(0, 0, 2), actor)
		require.NoError(t, err)
		assert.Equal(t, version, sub.Version)
	})
}

// ============================================
// Dunning Feedback Tests
// ============================================

func TestSubscription_ReactivateFromDunning(t *testing.T) {
	sub := createActiveSubscription(t)
	actor := uuid.New()
	require.NoError(t, sub.Cancel("non-payment", false, actor))
	require.True(t, sub.HasPendingCancellation())

	err := sub.ReactivateFromDunning(actor)
	require.NoError(t, err)

	assert.False(t, sub.HasPendingCancellation())
	assert.Empty(t, sub.CancelReason)
	assert.Equal(t, SubscriptionStatusActive, sub.Status)
}

func TestSubscription_ReactivateFromDunning_Terminal(t *testing.T) {
	sub := createActiveSubscription(t)
	require.NoError(t, sub.Cancel("gone", true, uuid.New()))

	err := sub.ReactivateFromDunning(uuid.New())
	assert.Error(t, err)
}

func TestSubscription_ReactivateFromDunning_NothingPending(t *testing.T) {
	sub := createActiveSubscription(t)
	version := sub.Version

	err := sub.ReactivateFromDunning(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, version, sub.Version)
}

// ============================================
// Transfer Tests
// ============================================

func TestSubscription_TransferTo(t *testing.T) {
	sub := createActiveSubscription(t)
	target := uuid.New()
	originalEnd := sub.EndDate

	err := sub.TransferTo(target, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, target, sub.MemberID)
	assert.Equal(t, originalEnd, sub.EndDate)
}

func TestSubscription_TransferTo_SameMember(t *testing.T) {
	sub := createActiveSubscription(t)

	err := sub.TransferTo(sub.MemberID, uuid.New())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "SAME_MEMBER", domainErr.Code)
}

func TestSubscription_TransferTo_InvalidState(t *testing.T) {
	sub := createTestSubscription(t)

	err := sub.TransferTo(uuid.New(), uuid.New())
	assert.Error(t, err)
}

// ============================================
// Renew / Expire Tests
// ============================================

func TestSubscription_Renew_FromExpired(t *testing.T) {
	sub := createActiveSubscription(t)
	require.NoError(t, sub.MarkExpired(sub.EndDate.AddDate(0, 0, 1), uuid.New()))
	require.Equal(t, SubscriptionStatusExpired, sub.Status)

	newEnd := sub.EndDate.AddDate(0, 12, 0)
	err := sub.Renew(newEnd, valueobject.NewMoneySARFromFloat(2500.00), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, SubscriptionStatusActive, sub.Status)
	assert.Equal(t, newEnd, sub.EndDate)
}

func TestSubscription_Renew_FromCancelled(t *testing.T) {
	sub := createActiveSubscription(t)
	require.NoError(t, sub.Cancel("left", true, uuid.New()))

	err := sub.Renew(time.Now().AddDate(0, 12, 0), valueobject.NewMoneySARFromFloat(2500.00), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, SubscriptionStatusActive, sub.Status)
	assert.Nil(t, sub.CancelledAt)
	assert.Empty(t, sub.CancelReason)
}

func TestSubscription_Renew_ActiveRequiresLaterEndDate(t *testing.T) {
	sub := createActiveSubscription(t)

	err := sub.Renew(sub.EndDate.AddDate(0, 0, -30), valueobject.NewMoneySARFromFloat(2500.00), uuid.New())
	assert.Error(t, err)
}

func TestSubscription_MarkExpired(t *testing.T) {
	sub := createActiveSubscription(t)

	t.Run("before end date is a no-op", func(t *testing.T) {
		require.NoError(t, sub.MarkExpired(sub.EndDate.AddDate(0, 0, -1), uuid.New()))
		assert.Equal(t, SubscriptionStatusActive, sub.Status)
	})

	t.Run("after end date expires", func(t *testing.T) {
		require.NoError(t, sub.MarkExpired(sub.EndDate.AddDate(0, 0, 1), uuid.New()))
		assert.Equal(t, SubscriptionStatusExpired, sub.Status)
	})

	t.Run("idempotent", func(t *testing.T) {
		version := sub.Version
		require.NoError(t, sub.MarkExpired(sub.EndDate.AddDate(0, 0, 2), uuid.New()))
		assert.Equal(t, version, sub.Version)
	})
}

// ============================================
// Entitlement Tests
// ============================================

func TestSubscription_UseClass(t *testing.T) {
	tenantID := uuid.New()
	classes := 2
	start := time.Now()
	sub, err := NewSubscription(tenantID, uuid.New(), uuid.New(), start, start.AddDate(0, 1, 0), 0, 0, &classes, false)
	require.NoError(t, err)
	require.NoError(t, sub.Activate(valueobject.NewMoneySARFromFloat(300), uuid.New()))

	require.NoError(t, sub.UseClass())
	require.NoError(t, sub.UseClass())
	assert.False(t, sub.HasClassesAvailable())

	err = sub.UseClass()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INSUFFICIENT_BALANCE", domainErr.Code)
}

func TestSubscription_UseClass_Unlimited(t *testing.T) {
	sub := createActiveSubscription(t)

	require.NoError(t, sub.UseClass())
	assert.True(t, sub.HasClassesAvailable())
}

func TestSubscription_UseGuestPass(t *testing.T) {
	sub := createActiveSubscription(t)

	require.NoError(t, sub.UseGuestPass())
	require.NoError(t, sub.UseGuestPass())
	assert.Equal(t, 0, sub.GuestPassesRemaining)

	err := sub.UseGuestPass()
	assert.Error(t, err)
}

// ============================================
// History Tests
// ============================================

func TestSubscription_HistoryIsAppendOnly(t *testing.T) {
	sub := createTestSubscription(t)
	actor := uuid.New()

	require.NoError(t, sub.Activate(valueobject.NewMoneySARFromFloat(2500.00), actor))
	require.NoError(t, sub.Freeze(5, "travel", FreezePolicy{}, actor))
	require.NoError(t, sub.Unfreeze(actor))
	require.NoError(t, sub.Cancel("leaving", true, actor))

	require.Len(t, sub.History, 4)
	ops := []string{}
	for _, h := range sub.History {
		ops = append(ops, h.Operation)
	}
	assert.Equal(t, []string{"activate", "freeze", "unfreeze", "cancel"}, ops)

	// Each record links from-status to to-status contiguously.
	for i := 1; i < len(sub.History); i++ {
		assert.Equal(t, sub.History[i-1].ToStatus, sub.History[i].FromStatus)
	}
}

func TestStatusChanges_ScanValue(t *testing.T) {
	changes := StatusChanges{
		{ID: uuid.New(), Operation: "activate", FromStatus: SubscriptionStatusPendingPayment, ToStatus: SubscriptionStatusActive, ActorID: uuid.New(), At: time.Now()},
	}

	val, err := changes.Value()
	require.NoError(t, err)

	var scanned StatusChanges
	require.NoError(t, scanned.Scan(val))
	require.Len(t, scanned, 1)
	assert.Equal(t, changes[0].Operation, scanned[0].Operation)
}
