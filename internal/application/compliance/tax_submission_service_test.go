package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/billing"
	"github.com/liyaqa/backend/internal/domain/compliance"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockTaxSubmissionRepository is a mock implementation of compliance.TaxSubmissionRepository
type MockTaxSubmissionRepository struct {
	mock.Mock
}

func (m *MockTaxSubmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*compliance.TaxSubmission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compliance.TaxSubmission), args.Error(1)
}

func (m *MockTaxSubmissionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*compliance.TaxSubmission, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compliance.TaxSubmission), args.Error(1)
}

func (m *MockTaxSubmissionRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]compliance.TaxSubmission, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Get(0).([]compliance.TaxSubmission), args.Error(1)
}

func (m *MockTaxSubmissionRepository) FindPending(ctx context.Context, limit int) ([]compliance.TaxSubmission, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]compliance.TaxSubmission), args.Error(1)
}

func (m *MockTaxSubmissionRepository) FindRetryable(ctx context.Context, now time.Time, maxRetries int, limit int) ([]compliance.TaxSubmission, error) {
	args := m.Called(ctx, now, maxRetries, limit)
	return args.Get(0).([]compliance.TaxSubmission), args.Error(1)
}

func (m *MockTaxSubmissionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter compliance.TaxSubmissionFilter) ([]compliance.TaxSubmission, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]compliance.TaxSubmission), args.Error(1)
}

func (m *MockTaxSubmissionRepository) Save(ctx context.Context, submission *compliance.TaxSubmission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockTaxSubmissionRepository) SaveWithLock(ctx context.Context, submission *compliance.TaxSubmission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByMember(ctx context.Context, tenantID, memberID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, memberID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindBySubscriptionAndPeriod(ctx context.Context, tenantID, subscriptionID uuid.UUID, periodStart time.Time) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, subscriptionID, periodStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOverdueCandidates(ctx context.Context, now time.Time, limit int) ([]billing.Invoice, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) NextInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockTaxAuthorityClient is a mock implementation of TaxAuthorityClient
type MockTaxAuthorityClient struct {
	mock.Mock
}

func (m *MockTaxAuthorityClient) SubmitInvoice(ctx context.Context, req TaxAuthorityRequest) (*TaxAuthorityResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TaxAuthorityResponse), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockOutboxRepository is a mock implementation of shared.OutboxRepository
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, before, limit)
	return args.Get(0).([]*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]*shared.OutboxEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[shared.OutboxStatus]int64), args.Error(1)
}

// Test helpers

type submissionServiceMocks struct {
	submissionRepo *MockTaxSubmissionRepository
	invoiceRepo    *MockInvoiceRepository
	client         *MockTaxAuthorityClient
	idempotency    *MockIdempotencyStore
	outboxRepo     *MockOutboxRepository
}

func newSubmissionService() (*TaxSubmissionService, *submissionServiceMocks) {
	mocks := &submissionServiceMocks{
		submissionRepo: new(MockTaxSubmissionRepository),
		invoiceRepo:    new(MockInvoiceRepository),
		client:         new(MockTaxAuthorityClient),
		idempotency:    new(MockIdempotencyStore),
		outboxRepo:     new(MockOutboxRepository),
	}
	service := NewTaxSubmissionService(
		mocks.submissionRepo, mocks.invoiceRepo, mocks.client, mocks.idempotency, mocks.outboxRepo,
		TaxSubmissionConfig{BaseDelay: time.Minute, MaxDelay: 30 * time.Minute, MaxRetries: 5},
		zap.NewNop(),
	)
	return service, mocks
}

func newPendingSubmission(t *testing.T, tenantID uuid.UUID) *compliance.TaxSubmission {
	t.Helper()
	sub, err := compliance.NewTaxSubmission(tenantID, uuid.New(), "INV-2026-00021", "f0e1d2c3")
	require.NoError(t, err)
	sub.ClearDomainEvents()
	return sub
}

func TestTaxSubmissionService_SubmitPending_Accepted(t *testing.T) {
	service, mocks := newSubmissionService()
	ctx := context.Background()
	sub := newPendingSubmission(t, uuid.New())

	mocks.submissionRepo.On("FindPending", ctx, 50).Return([]compliance.TaxSubmission{*sub}, nil)
	mocks.idempotency.On("MarkProcessed", ctx, mock.AnythingOfType("string"), 10*time.Minute).Return(true, nil)
	mocks.submissionRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*compliance.TaxSubmission")).Return(nil)
	mocks.client.On("SubmitInvoice", ctx, mock.MatchedBy(func(req TaxAuthorityRequest) bool {
		return req.InvoiceNumber == "INV-2026-00021" && req.SubmissionHash == "f0e1d2c3"
	})).Return(&TaxAuthorityResponse{Accepted: true, Code: "200", Message: "cleared"}, nil)
	mocks.outboxRepo.On("Save", ctx, mock.Anything).Return(nil)

	attempted, err := service.SubmitPending(ctx, 50)

	require.NoError(t, err)
	assert.Equal(t, 1, attempted)
	mocks.client.AssertExpectations(t)
}

func TestTaxSubmissionService_SubmitPending_Rejected(t *testing.T) {
	service, mocks := newSubmissionService()
	ctx := context.Background()
	sub := newPendingSubmission(t, uuid.New())

	var saved *compliance.TaxSubmission
	mocks.submissionRepo.On("FindPending", ctx, 50).Return([]compliance.TaxSubmission{*sub}, nil)
	mocks.idempotency.On("MarkProcessed", ctx, mock.AnythingOfType("string"), 10*time.Minute).Return(true, nil)
	mocks.submissionRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*compliance.TaxSubmission")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*compliance.TaxSubmission)
	}).Return(nil)
	mocks.client.On("SubmitInvoice", ctx, mock.Anything).Return(&TaxAuthorityResponse{Accepted: false, Code: "400", Message: "schema violation"}, nil)
	mocks.outboxRepo.On("Save", ctx, mock.Anything).Return(nil)

	attempted, err := service.SubmitPending(ctx, 50)

	require.NoError(t, err)
	assert.Equal(t, 1, attempted)
	require.NotNil(t, saved)
	assert.Equal(t, compliance.SubmissionStatusRejected, saved.Status)
	assert.Equal(t, "400", saved.ResponseCode)
}

func TestTaxSubmissionService_SubmitPending_TransientFailure(t *testing.T) {
	service, mocks := newSubmissionService()
	ctx := context.Background()
	sub := newPendingSubmission(t, uuid.New())

	var saved *compliance.TaxSubmission
	mocks.submissionRepo.On("FindPending", ctx, 50).Return([]compliance.TaxSubmission{*sub}, nil)
	mocks.idempotency.On("MarkProcessed", ctx, mock.AnythingOfType("string"), 10*time.Minute).Return(true, nil)
	mocks.submissionRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*compliance.TaxSubmission")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*compliance.TaxSubmission)
	}).Return(nil)
	mocks.client.On("SubmitInvoice", ctx, mock.Anything).Return(nil, errors.New("connect timeout"))
	mocks.outboxRepo.On("Save", ctx, mock.Anything).Return(nil)

	attempted, err := service.SubmitPending(ctx, 50)

	require.NoError(t, err)
	assert.Equal(t, 0, attempted)
	require.NotNil(t, saved)
	assert.Equal(t, compliance.SubmissionStatusFailed, saved.Status)
}

func TestTaxSubmissionService_SubmitPending_DuplicateFlightSkipped(t *testing.T) {
	service, mocks := newSubmissionService()
	ctx := context.Background()
	sub := newPendingSubmission(t, uuid.New())

	mocks.submissionRepo.On("FindPending", ctx, 50).Return([]compliance.TaxSubmission{*sub}, nil)
	mocks.idempotency.On("MarkProcessed", ctx, mock.AnythingOfType("string"), 10*time.Minute).Return(false, nil)

	attempted, err := service.SubmitPending(ctx, 50)

	require.NoError(t, err)
	assert.Equal(t, 1, attempted)
	mocks.client.AssertNotCalled(t, "SubmitInvoice", mock.Anything, mock.Anything)
	mocks.submissionRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestTaxSubmissionService_RetrySweep_RetriesAfterBackoff(t *testing.T) {
	service, mocks := newSubmissionService()
	ctx := context.Background()
	sub := newPendingSubmission(t, uuid.New())
	require.NoError(t, sub.MarkSubmitted(time.Now().Add(-time.Hour)))
	require.NoError(t, sub.MarkFailed("gateway timeout"))
	sub.UpdatedAt = time.Now().Add(-time.Hour)
	sub.ClearDomainEvents()

	now := time.Now()

	mocks.submissionRepo.On("FindRetryable", ctx, now, 5, 50).Return([]compliance.TaxSubmission{*sub}, nil)
	mocks.submissionRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*compliance.TaxSubmission")).Return(nil)
	mocks.outboxRepo.On("Save", ctx, mock.Anything).Return(nil)
	mocks.idempotency.On("MarkProcessed", ctx, mock.AnythingOfType("string"), 10*time.Minute).Return(true, nil)
	mocks.client.On("SubmitInvoice", ctx, mock.Anything).Return(&TaxAuthorityResponse{Accepted: true, Code: "200"}, nil)

	retried, err := service.RetrySweep(ctx, now, 50)

	require.NoError(t, err)
	assert.Equal(t, 1, retried)
	mocks.client.AssertExpectations(t)
}

func TestTaxSubmissionService_RetrySweep_RespectsBackoffWindow(t *testing.T) {
	service, mocks := newSubmissionService()
	ctx := context.Background()
	sub := newPendingSubmission(t, uuid.New())
	require.NoError(t, sub.MarkSubmitted(time.Now()))
	require.NoError(t, sub.MarkFailed("gateway timeout"))
	sub.ClearDomainEvents()

	// Failure just happened, so the one minute base delay has not elapsed.
	now := time.Now()

	mocks.submissionRepo.On("FindRetryable", ctx, now, 5, 50).Return([]compliance.TaxSubmission{*sub}, nil)

	retried, err := service.RetrySweep(ctx, now, 50)

	require.NoError(t, err)
	assert.Equal(t, 0, retried)
	mocks.client.AssertNotCalled(t, "SubmitInvoice", mock.Anything, mock.Anything)
}

func TestTaxSubmissionService_Resubmit_AfterRejection(t *testing.T) {
	service, mocks := newSubmissionService()
	ctx := context.Background()
	tenantID := uuid.New()

	inv, err := billing.NewInvoice(tenantID, "INV-2026-00030", uuid.New(), nil)
	require.NoError(t, err)
	price, err := valueobject.NewMoney(decimal.NewFromInt(150), valueobject.SAR)
	require.NoError(t, err)
	_, err = inv.AddLineItem("Admin fee", 1, price, decimal.NewFromFloat(0.15), billing.LineItemTypeAdminFee)
	require.NoError(t, err)
	require.NoError(t, inv.Issue(time.Now(), 14))
	inv.ClearDomainEvents()

	rejected, err := compliance.NewTaxSubmission(tenantID, inv.ID, inv.InvoiceNumber, inv.SubmissionHash)
	require.NoError(t, err)
	require.NoError(t, rejected.MarkSubmitted(time.Now()))
	require.NoError(t, rejected.MarkRejected("400", "schema violation"))
	rejected.ClearDomainEvents()

	mocks.invoiceRepo.On("FindByIDForTenant", ctx, tenantID, inv.ID).Return(inv, nil)
	mocks.submissionRepo.On("FindByInvoice", ctx, tenantID, inv.ID).Return([]compliance.TaxSubmission{*rejected}, nil)
	mocks.submissionRepo.On("Save", ctx, mock.AnythingOfType("*compliance.TaxSubmission")).Return(nil)
	mocks.outboxRepo.On("Save", ctx, mock.Anything).Return(nil)

	resp, err := service.Resubmit(ctx, tenantID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, inv.SubmissionHash, resp.SubmissionHash)
	assert.NotEqual(t, rejected.ID, resp.ID)
}

func TestTaxSubmissionService_Resubmit_BlockedByUnresolved(t *testing.T) {
	service, mocks := newSubmissionService()
	ctx := context.Background()
	tenantID := uuid.New()

	inv, err := billing.NewInvoice(tenantID, "INV-2026-00031", uuid.New(), nil)
	require.NoError(t, err)
	price, err := valueobject.NewMoney(decimal.NewFromInt(150), valueobject.SAR)
	require.NoError(t, err)
	_, err = inv.AddLineItem("Admin fee", 1, price, decimal.NewFromFloat(0.15), billing.LineItemTypeAdminFee)
	require.NoError(t, err)
	require.NoError(t, inv.Issue(time.Now(), 14))
	inv.ClearDomainEvents()

	open, err := compliance.NewTaxSubmission(tenantID, inv.ID, inv.InvoiceNumber, inv.SubmissionHash)
	require.NoError(t, err)
	open.ClearDomainEvents()

	mocks.invoiceRepo.On("FindByIDForTenant", ctx, tenantID, inv.ID).Return(inv, nil)
	mocks.submissionRepo.On("FindByInvoice", ctx, tenantID, inv.ID).Return([]compliance.TaxSubmission{*open}, nil)

	_, err = service.Resubmit(ctx, tenantID, inv.ID)

	assert.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_ACTIVE", domainErr.Code)
	mocks.submissionRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTaxSubmissionService_Resubmit_UnissuedInvoice(t *testing.T) {
	service, mocks := newSubmissionService()
	ctx := context.Background()
	tenantID := uuid.New()

	inv, err := billing.NewInvoice(tenantID, "INV-2026-00032", uuid.New(), nil)
	require.NoError(t, err)
	inv.ClearDomainEvents()

	mocks.invoiceRepo.On("FindByIDForTenant", ctx, tenantID, inv.ID).Return(inv, nil)

	_, err = service.Resubmit(ctx, tenantID, inv.ID)

	assert.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}
