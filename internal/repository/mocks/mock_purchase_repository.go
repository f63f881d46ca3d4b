package mocks

import (
	"context"

	"docpay/internal/model"
	"docpay/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) Create(ctx context.Context, p *model.Purchase) (*model.Purchase, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) FindByID(ctx context.Context, id string) (*model.Purchase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) FindCompleted(ctx context.Context, documentID, customerEmail string) (*model.Purchase, error) {
	args := m.Called(ctx, documentID, customerEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) MarkCompleted(ctx context.Context, id, paymentRef string) (*model.Purchase, error) {
	args := m.Called(ctx, id, paymentRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) MarkFailed(ctx context.Context, id string) (*model.Purchase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) ListByCreator(ctx context.Context, creatorID string, pq repository.PageQuery) (*repository.PageResult[model.Purchase], error) {
	args := m.Called(ctx, creatorID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Purchase]), args.Error(1)
}

func (m *MockPurchaseRepository) ListRecentCompleted(ctx context.Context, creatorID string, limit int) ([]model.Purchase, error) {
	args := m.Called(ctx, creatorID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(int64), args.Error(1)
}
