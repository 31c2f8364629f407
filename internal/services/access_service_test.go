package services

import (
	"context"
	"testing"
	"time"

	"signalgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) RecordPayment(ctx context.Context, payment *models.PaymentRecord) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) LatestExpiry(ctx context.Context, subscriberID int64) (time.Time, bool, error) {
	args := m.Called(ctx, subscriberID)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func (m *MockPaymentRepository) ForceExpire(ctx context.Context, subscriberID int64) error {
	args := m.Called(ctx, subscriberID)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListRecent(ctx context.Context, limit int) ([]*models.PaymentRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) ListNewlyExpired(ctx context.Context, now time.Time) ([]*models.PaymentRecord, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) MarkExpiryProcessed(ctx context.Context, subscriberID int64) error {
	args := m.Called(ctx, subscriberID)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByToken(ctx context.Context, token string) (*models.PaymentRecord, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRecord), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetLatestExpiry(ctx context.Context, subscriberID int64) (time.Time, bool, error) {
	args := m.Called(ctx, subscriberID)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func (m *MockCacheService) SetLatestExpiry(ctx context.Context, subscriberID int64, expiry time.Time, ttl time.Duration) error {
	args := m.Called(ctx, subscriberID, expiry, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateSubscriber(ctx context.Context, subscriberID int64) error {
	args := m.Called(ctx, subscriberID)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type AccessServiceTestSuite struct {
	suite.Suite
	mockRepo  *MockPaymentRepository
	mockCache *MockCacheService
	service   AccessService
	ctx       context.Context
}

func (suite *AccessServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockPaymentRepository{}
	suite.mockCache = &MockCacheService{}
	suite.service = NewAccessService(suite.mockRepo, suite.mockCache)
	suite.ctx = context.Background()

	suite.mockRepo.Test(suite.T())
	suite.mockCache.Test(suite.T())
}

func (suite *AccessServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestAccessServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccessServiceTestSuite))
}

func (suite *AccessServiceTestSuite) TestIsActive_NeverPaid() {
	suite.mockCache.On("GetLatestExpiry", suite.ctx, int64(7)).Return(time.Time{}, false, nil)
	suite.mockRepo.On("LatestExpiry", suite.ctx, int64(7)).Return(time.Time{}, false, nil)

	active, err := suite.service.IsActive(suite.ctx, 7, time.Unix(1000, 0).UTC())
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), active)
}

func (suite *AccessServiceTestSuite) TestIsActive_WindowBoundaries() {
	// Paid at t=1000 with a 10-day window: expiry is t=865000. Active
	// strictly before expiry, inactive at and after it.
	expiry := time.Unix(865000, 0).UTC()

	suite.mockCache.On("GetLatestExpiry", suite.ctx, int64(42)).Return(time.Time{}, false, nil)
	suite.mockRepo.On("LatestExpiry", suite.ctx, int64(42)).Return(expiry, true, nil)
	suite.mockCache.On("SetLatestExpiry", suite.ctx, int64(42), expiry, expiryCacheTTL).Return(nil)

	active, err := suite.service.IsActive(suite.ctx, 42, time.Unix(864999, 0).UTC())
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), active)

	active, err = suite.service.IsActive(suite.ctx, 42, time.Unix(865000, 0).UTC())
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), active)

	active, err = suite.service.IsActive(suite.ctx, 42, time.Unix(865001, 0).UTC())
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), active)
}

func (suite *AccessServiceTestSuite) TestIsActive_CacheHitSkipsRepo() {
	expiry := time.Unix(865000, 0).UTC()

	suite.mockCache.On("GetLatestExpiry", suite.ctx, int64(42)).Return(expiry, true, nil)

	active, err := suite.service.IsActive(suite.ctx, 42, time.Unix(1000, 0).UTC())
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), active)
	suite.mockRepo.AssertNotCalled(suite.T(), "LatestExpiry", mock.Anything, mock.Anything)
}

func (suite *AccessServiceTestSuite) TestIsActive_SentinelExpiryIsInactive() {
	suite.mockCache.On("GetLatestExpiry", suite.ctx, int64(42)).Return(time.Time{}, false, nil)
	suite.mockRepo.On("LatestExpiry", suite.ctx, int64(42)).Return(models.SentinelExpiry, true, nil)
	suite.mockCache.On("SetLatestExpiry", suite.ctx, int64(42), models.SentinelExpiry, expiryCacheTTL).Return(nil)

	active, err := suite.service.IsActive(suite.ctx, 42, time.Unix(1000, 0).UTC())
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), active)
}

func (suite *AccessServiceTestSuite) TestStatus_ExpiredButPaid() {
	expiry := time.Unix(865000, 0).UTC()

	suite.mockCache.On("GetLatestExpiry", suite.ctx, int64(42)).Return(expiry, true, nil)

	status, err := suite.service.Status(suite.ctx, 42, time.Unix(900000, 0).UTC())
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), status.Active)
	assert.True(suite.T(), status.Paid)
	assert.Equal(suite.T(), expiry, status.Expiry)
}
