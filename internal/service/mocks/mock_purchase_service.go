package mocks

import (
	"context"

	"docpay/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockPurchaseService struct {
	mock.Mock
}

func (m *MockPurchaseService) Purchase(ctx context.Context, req service.PurchaseRequest) (*service.PurchaseResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PurchaseResult), args.Error(1)
}

func (m *MockPurchaseService) CheckEntitlement(ctx context.Context, documentID, customerEmail string) (bool, error) {
	args := m.Called(ctx, documentID, customerEmail)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseService) ListSales(ctx context.Context, creatorID string, limit, offset int) (*service.SalesListResult, error) {
	args := m.Called(ctx, creatorID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SalesListResult), args.Error(1)
}
