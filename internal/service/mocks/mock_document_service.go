package mocks

import (
	"context"
	"io"

	"docpay/internal/model"
	"docpay/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Create(ctx context.Context, req service.CreateDocumentRequest) (*model.Document, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, creatorID, id string) (*model.Document, error) {
	args := m.Called(ctx, creatorID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, creatorID string, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, creatorID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, creatorID, id string, req service.UpdateDocumentRequest) (*model.Document, error) {
	args := m.Called(ctx, creatorID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, creatorID, id string) error {
	args := m.Called(ctx, creatorID, id)
	return args.Error(0)
}

func (m *MockDocumentService) UploadCover(ctx context.Context, creatorID, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, error) {
	args := m.Called(ctx, creatorID, id, r, originalFilename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) GetListing(ctx context.Context, shareID string) (*model.Listing, error) {
	args := m.Called(ctx, shareID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockDocumentService) FindActiveByShareID(ctx context.Context, shareID string) (*model.Document, error) {
	args := m.Called(ctx, shareID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Analytics(ctx context.Context, creatorID string) (*service.AnalyticsResult, error) {
	args := m.Called(ctx, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalyticsResult), args.Error(1)
}

func (m *MockDocumentService) Reconcile(ctx context.Context, creatorID, id string) (*model.Document, error) {
	args := m.Called(ctx, creatorID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}
