package mocks

import (
	"context"

	"docpay/internal/model"
	"docpay/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByShareID(ctx context.Context, shareID string, activeOnly bool) (*model.Document, error) {
	args := m.Called(ctx, shareID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByCreator(ctx context.Context, creatorID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	args := m.Called(ctx, creatorID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Document]), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) IncrementViews(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) ApplySale(ctx context.Context, id string, earningsCents int64) error {
	args := m.Called(ctx, id, earningsCents)
	return args.Error(0)
}

func (m *MockDocumentRepository) RecomputeAggregates(ctx context.Context, id string) (int64, int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockDocumentRepository) SetAggregates(ctx context.Context, id string, sales, revenueCents int64) error {
	args := m.Called(ctx, id, sales, revenueCents)
	return args.Error(0)
}
