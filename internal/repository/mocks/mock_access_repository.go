package mocks

import (
	"context"

	"docpay/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockAccessGrantRepository struct {
	mock.Mock
}

func (m *MockAccessGrantRepository) Create(ctx context.Context, g *model.AccessGrant) (*model.AccessGrant, error) {
	args := m.Called(ctx, g)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessGrant), args.Error(1)
}

func (m *MockAccessGrantRepository) FindByDocumentAndEmail(ctx context.Context, documentID, customerEmail string) (*model.AccessGrant, error) {
	args := m.Called(ctx, documentID, customerEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessGrant), args.Error(1)
}

func (m *MockAccessGrantRepository) ListByEmail(ctx context.Context, customerEmail string) ([]model.AccessGrant, error) {
	args := m.Called(ctx, customerEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AccessGrant), args.Error(1)
}
