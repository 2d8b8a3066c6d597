package compliance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func createTestSubmission(t *testing.T) *TaxSubmission {
	ts, err := NewTaxSubmission(uuid.New(), uuid.New(), "INV-2026-00001", "a1b2c3d4")
	require.NoError(t, err)
	return ts
}

func createSubmittedSubmission(t *testing.T) *TaxSubmission {
	ts := createTestSubmission(t)
	require.NoError(t, ts.MarkSubmitted(time.Now()))
	return ts
}

// ============================================
// SubmissionStatus Tests
// ============================================

func TestSubmissionStatus_IsTerminal(t *testing.T) {
	assert.False(t, SubmissionStatusPending.IsTerminal())
	assert.False(t, SubmissionStatusSubmitted.IsTerminal())
	assert.False(t, SubmissionStatusFailed.IsTerminal())
	assert.True(t, SubmissionStatusAccepted.IsTerminal())
	assert.True(t, SubmissionStatusRejected.IsTerminal())
}

// ============================================
// Construction Tests
// ============================================

func TestNewTaxSubmission(t *testing.T) {
	ts := createTestSubmission(t)

	assert.Equal(t, SubmissionStatusPending, ts.Status)
	assert.Equal(t, 0, ts.RetryCount)
	assert.Empty(t, ts.Attempts)
}

func TestNewTaxSubmission_RequiresHash(t *testing.T) {
	_, err := NewTaxSubmission(uuid.New(), uuid.New(), "INV-2026-00001", "")
	assert.Error(t, err)
}

// ============================================
// Transition Tests
// ============================================

func TestTaxSubmission_HappyPath(t *testing.T) {
	ts := createTestSubmission(t)
	now := time.Now()

	require.NoError(t, ts.MarkSubmitted(now))
	assert.Equal(t, SubmissionStatusSubmitted, ts.Status)
	assert.NotNil(t, ts.SubmittedAt)

	require.NoError(t, ts.MarkAccepted("200", "cleared"))
	assert.Equal(t, SubmissionStatusAccepted, ts.Status)
	assert.Equal(t, "200", ts.ResponseCode)
	assert.True(t, ts.IsResolved())
	assert.Equal(t, 2, ts.AttemptCount())
}

func TestTaxSubmission_Rejected_IsTerminal(t *testing.T) {
	ts := createSubmittedSubmission(t)

	require.NoError(t, ts.MarkRejected("VAT-400", "invalid buyer identification"))
	assert.Equal(t, SubmissionStatusRejected, ts.Status)

	// A rejection closes this lineage; neither retry nor resubmit is legal.
	assert.Error(t, ts.Retry(time.Now()))
	assert.Error(t, ts.MarkSubmitted(time.Now()))
	assert.Error(t, ts.MarkFailed("late transport error"))
}

func TestTaxSubmission_MarkFailed_FromPendingAndSubmitted(t *testing.T) {
	t.Run("from pending", func(t *testing.T) {
		ts := createTestSubmission(t)
		require.NoError(t, ts.MarkFailed("connection refused"))
		assert.Equal(t, SubmissionStatusFailed, ts.Status)
		// Failure alone never consumes the retry budget.
		assert.Equal(t, 0, ts.RetryCount)
	})

	t.Run("from submitted", func(t *testing.T) {
		ts := createSubmittedSubmission(t)
		require.NoError(t, ts.MarkFailed("timeout awaiting clearance"))
		assert.Equal(t, SubmissionStatusFailed, ts.Status)
	})

	t.Run("not from accepted", func(t *testing.T) {
		ts := createSubmittedSubmission(t)
		require.NoError(t, ts.MarkAccepted("200", ""))
		assert.Error(t, ts.MarkFailed("late error"))
	})
}

func TestTaxSubmission_Retry(t *testing.T) {
	ts := createTestSubmission(t)
	require.NoError(t, ts.MarkFailed("connection refused"))

	now := time.Now()
	require.NoError(t, ts.Retry(now))

	assert.Equal(t, SubmissionStatusPending, ts.Status)
	assert.Equal(t, 1, ts.RetryCount)
	require.NotNil(t, ts.LastRetryAt)
	assert.Empty(t, ts.ResponseMessage)
}

func TestTaxSubmission_Retry_RequiresFailed(t *testing.T) {
	ts := createTestSubmission(t)
	assert.Error(t, ts.Retry(time.Now()))
}

func TestTaxSubmission_RetryCountMonotonic(t *testing.T) {
	ts := createTestSubmission(t)

	for i := 1; i <= 3; i++ {
		require.NoError(t, ts.MarkFailed("transient"))
		require.NoError(t, ts.Retry(time.Now()))
		assert.Equal(t, i, ts.RetryCount)
	}
}

// ============================================
// Attempt Log Tests
// ============================================

func TestTaxSubmission_AttemptLogSurvivesRetries(t *testing.T) {
	ts := createTestSubmission(t)

	require.NoError(t, ts.MarkSubmitted(time.Now()))
	require.NoError(t, ts.MarkFailed("timeout"))
	require.NoError(t, ts.Retry(time.Now()))
	require.NoError(t, ts.MarkSubmitted(time.Now()))
	require.NoError(t, ts.MarkAccepted("200", "cleared"))

	// submitted, failed, submitted, accepted
	require.Len(t, ts.Attempts, 4)
	assert.Equal(t, SubmissionStatusFailed, ts.Attempts[1].Status)
	assert.Equal(t, "timeout", ts.Attempts[1].ResponseMessage)
	assert.Equal(t, SubmissionStatusAccepted, ts.Attempts[3].Status)
	// Attempt numbers track the retry generation.
	assert.Equal(t, 1, ts.Attempts[0].Attempt)
	assert.Equal(t, 2, ts.Attempts[3].Attempt)
}

func TestSubmissionAttempts_ScanValue(t *testing.T) {
	attempts := SubmissionAttempts{
		{Attempt: 1, At: time.Now(), Status: SubmissionStatusFailed, ResponseMessage: "timeout"},
	}

	val, err := attempts.Value()
	require.NoError(t, err)

	var scanned SubmissionAttempts
	require.NoError(t, scanned.Scan(val))
	require.Len(t, scanned, 1)
	assert.Equal(t, "timeout", scanned[0].ResponseMessage)
}

// ============================================
// Backoff Tests
// ============================================

func TestTaxSubmission_NextRetryAt(t *testing.T) {
	base := 1 * time.Minute
	maxDelay := 30 * time.Minute

	tests := []struct {
		retryCount int
		expected   time.Duration
	}{
		{0, 1 * time.Minute},
		{1, 2 * time.Minute},
		{2, 4 * time.Minute},
		{3, 8 * time.Minute},
	}

	for _, tt := range tests {
		ts := createTestSubmission(t)
		require.NoError(t, ts.MarkFailed("transient"))
		ts.RetryCount = tt.retryCount

		delay := ts.NextRetryAt(base, maxDelay).Sub(ts.UpdatedAt)
		assert.Equal(t, tt.expected, delay, "retryCount=%d", tt.retryCount)
	}
}

func TestTaxSubmission_NextRetryAt_Capped(t *testing.T) {
	ts := createTestSubmission(t)
	ts.RetryCount = 20
	require.NoError(t, ts.MarkFailed("transient"))

	base := 1 * time.Minute
	maxDelay := 30 * time.Minute
	next := ts.NextRetryAt(base, maxDelay)
	assert.Equal(t, maxDelay, next.Sub(ts.UpdatedAt))
}
