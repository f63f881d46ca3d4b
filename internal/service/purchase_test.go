package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"docpay/internal/model"
	"docpay/internal/payment"
	payMocks "docpay/internal/payment/mocks"
	"docpay/internal/repository"
	repoMocks "docpay/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const (
	testDocID     = "0b5fca41-7d5a-4f20-9c43-9c9a3de2f9b1"
	testCreatorID = "creator-1"
	testEmail     = "buyer@example.com"
)

func activeDoc(priceCents int64) *model.Document {
	return &model.Document{
		ID:          testDocID,
		ShareID:     "f2a1f9e0-0c8d-4d56-9a4f-2b7f6a0d5c11",
		CreatorID:   testCreatorID,
		CreatorName: "Alice",
		Title:       "Go Patterns",
		PriceCents:  priceCents,
		IsActive:    true,
	}
}

func TestPurchaseService_Purchase(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		req        PurchaseRequest
		setupMocks func(mDocs *repoMocks.MockDocumentRepository, mPurch *repoMocks.MockPurchaseRepository, mGrants *repoMocks.MockAccessGrantRepository, mGW *payMocks.MockGateway)
		wantStatus PurchaseOutcome
		wantErr    error
		wantErrMsg string
		check      func(t *testing.T, res *PurchaseResult)
	}{
		{
			name: "happy path splits the fee and grants access",
			req:  PurchaseRequest{DocumentID: testDocID, CustomerEmail: testEmail, CustomerName: "Bob"},
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mPurch *repoMocks.MockPurchaseRepository, mGrants *repoMocks.MockAccessGrantRepository, mGW *payMocks.MockGateway) {
				mDocs.On("FindByID", ctx, testDocID).Return(activeDoc(2999), nil)
				mPurch.On("FindCompleted", ctx, testDocID, testEmail).Return(nil, sql.ErrNoRows)
				mPurch.On("Create", ctx, mock.MatchedBy(func(p *model.Purchase) bool {
					return p.DocumentID == testDocID &&
						p.CreatorID == testCreatorID &&
						p.CustomerEmail == testEmail &&
						p.CustomerName == "Bob" &&
						p.AmountCents == 2999 &&
						p.PlatformFeeCents == 150 &&
						p.CreatorEarningsCents == 2849 &&
						p.Status == model.PurchasePending
				})).Return(&model.Purchase{
					ID: "purchase-1", DocumentID: testDocID, CustomerEmail: testEmail,
					AmountCents: 2999, PlatformFeeCents: 150, CreatorEarningsCents: 2849,
					Status: model.PurchasePending,
				}, nil)
				mGW.On("Charge", ctx, payment.ChargeRequest{
					AmountCents: 2999, Currency: "USD", DocumentID: testDocID,
					CustomerEmail: testEmail, IdempotencyKey: "purchase-1",
				}).Return(&payment.ChargeResult{Reference: "pay_abc"}, nil)
				mPurch.On("MarkCompleted", ctx, "purchase-1", "pay_abc").Return(&model.Purchase{
					ID: "purchase-1", DocumentID: testDocID, CustomerEmail: testEmail,
					AmountCents: 2999, PlatformFeeCents: 150, CreatorEarningsCents: 2849,
					Status: model.PurchaseCompleted, PaymentRef: "pay_abc",
				}, nil)
				mGrants.On("Create", ctx, mock.MatchedBy(func(g *model.AccessGrant) bool {
					return g.DocumentID == testDocID && g.PurchaseID == "purchase-1" &&
						g.CustomerEmail == testEmail && g.AccessLevel == model.AccessLevelEdit
				})).Return(&model.AccessGrant{ID: "grant-1", DocumentID: testDocID, PurchaseID: "purchase-1"}, nil)
				mDocs.On("ApplySale", ctx, testDocID, int64(2849)).Return(nil)
			},
			wantStatus: OutcomeCompleted,
			check: func(t *testing.T, res *PurchaseResult) {
				assert.Equal(t, int64(150), res.Purchase.PlatformFeeCents)
				assert.Equal(t, int64(2849), res.Purchase.CreatorEarningsCents)
				assert.NotNil(t, res.Grant)
			},
		},
		{
			name: "email is normalized and name defaults to local part",
			req:  PurchaseRequest{DocumentID: testDocID, CustomerEmail: "  Buyer@Example.COM "},
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mPurch *repoMocks.MockPurchaseRepository, mGrants *repoMocks.MockAccessGrantRepository, mGW *payMocks.MockGateway) {
				mDocs.On("FindByID", ctx, testDocID).Return(activeDoc(99), nil)
				mPurch.On("FindCompleted", ctx, testDocID, testEmail).Return(nil, sql.ErrNoRows)
				mPurch.On("Create", ctx, mock.MatchedBy(func(p *model.Purchase) bool {
					return p.CustomerEmail == testEmail && p.CustomerName == "buyer"
				})).Return(&model.Purchase{ID: "purchase-2", DocumentID: testDocID, CustomerEmail: testEmail, AmountCents: 99, CreatorEarningsCents: 94, Status: model.PurchasePending}, nil)
				mGW.On("Charge", ctx, mock.MatchedBy(func(r payment.ChargeRequest) bool {
					return r.CustomerEmail == testEmail
				})).Return(&payment.ChargeResult{Reference: "pay_def"}, nil)
				mPurch.On("MarkCompleted", ctx, "purchase-2", "pay_def").Return(&model.Purchase{
					ID: "purchase-2", DocumentID: testDocID, CustomerEmail: testEmail,
					AmountCents: 99, CreatorEarningsCents: 94, Status: model.PurchaseCompleted,
				}, nil)
				mGrants.On("Create", ctx, mock.Anything).Return(&model.AccessGrant{ID: "grant-2"}, nil)
				mDocs.On("ApplySale", ctx, testDocID, int64(94)).Return(nil)
			},
			wantStatus: OutcomeCompleted,
		},
		{
			name: "repeat purchase returns existing entitlement without charging",
			req:  PurchaseRequest{DocumentID: testDocID, CustomerEmail: testEmail},
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mPurch *repoMocks.MockPurchaseRepository, mGrants *repoMocks.MockAccessGrantRepository, mGW *payMocks.MockGateway) {
				mDocs.On("FindByID", ctx, testDocID).Return(activeDoc(2999), nil)
				mPurch.On("FindCompleted", ctx, testDocID, testEmail).Return(&model.Purchase{
					ID: "purchase-old", DocumentID: testDocID, CustomerEmail: testEmail,
					Status: model.PurchaseCompleted,
				}, nil)
				mGrants.On("Create", ctx, mock.MatchedBy(func(g *model.AccessGrant) bool {
					return g.PurchaseID == "purchase-old"
				})).Return(&model.AccessGrant{ID: "grant-old", PurchaseID: "purchase-old"}, nil)
			},
			wantStatus: OutcomeAlreadyPurchased,
			check: func(t *testing.T, res *PurchaseResult) {
				assert.Equal(t, "purchase-old", res.Purchase.ID)
				assert.Equal(t, "grant-old", res.Grant.ID)
			},
		},
		{
			name: "gateway decline marks the purchase failed and grants nothing",
			req:  PurchaseRequest{DocumentID: testDocID, CustomerEmail: testEmail},
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mPurch *repoMocks.MockPurchaseRepository, mGrants *repoMocks.MockAccessGrantRepository, mGW *payMocks.MockGateway) {
				mDocs.On("FindByID", ctx, testDocID).Return(activeDoc(2999), nil)
				mPurch.On("FindCompleted", ctx, testDocID, testEmail).Return(nil, sql.ErrNoRows)
				mPurch.On("Create", ctx, mock.Anything).Return(&model.Purchase{
					ID: "purchase-3", DocumentID: testDocID, CustomerEmail: testEmail,
					AmountCents: 2999, Status: model.PurchasePending,
				}, nil)
				mGW.On("Charge", ctx, mock.Anything).Return(nil, &payment.DeclinedError{Reason: "insufficient_funds"})
				mPurch.On("MarkFailed", ctx, "purchase-3").Return(&model.Purchase{
					ID: "purchase-3", Status: model.PurchaseFailed,
				}, nil)
			},
			wantStatus: OutcomeDeclined,
			check: func(t *testing.T, res *PurchaseResult) {
				assert.Equal(t, "insufficient_funds", res.DeclineReason)
				assert.Nil(t, res.Grant)
				assert.Equal(t, model.PurchaseFailed, res.Purchase.Status)
			},
		},
		{
			name: "losing a completion race surfaces the winner",
			req:  PurchaseRequest{DocumentID: testDocID, CustomerEmail: testEmail},
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mPurch *repoMocks.MockPurchaseRepository, mGrants *repoMocks.MockAccessGrantRepository, mGW *payMocks.MockGateway) {
				mDocs.On("FindByID", ctx, testDocID).Return(activeDoc(2999), nil)
				mPurch.On("FindCompleted", ctx, testDocID, testEmail).Return(nil, sql.ErrNoRows).Once()
				mPurch.On("Create", ctx, mock.Anything).Return(&model.Purchase{
					ID: "purchase-loser", DocumentID: testDocID, CustomerEmail: testEmail,
					Status: model.PurchasePending,
				}, nil)
				mGW.On("Charge", ctx, mock.Anything).Return(&payment.ChargeResult{Reference: "pay_ghi"}, nil)
				mPurch.On("MarkCompleted", ctx, "purchase-loser", "pay_ghi").
					Return(nil, repository.ErrAlreadyCompleted)
				mPurch.On("MarkFailed", ctx, "purchase-loser").Return(&model.Purchase{
					ID: "purchase-loser", Status: model.PurchaseFailed,
				}, nil)
				mPurch.On("FindCompleted", ctx, testDocID, testEmail).Return(&model.Purchase{
					ID: "purchase-winner", DocumentID: testDocID, CustomerEmail: testEmail,
					Status: model.PurchaseCompleted,
				}, nil).Once()
				mGrants.On("Create", ctx, mock.MatchedBy(func(g *model.AccessGrant) bool {
					return g.PurchaseID == "purchase-winner"
				})).Return(&model.AccessGrant{ID: "grant-winner"}, nil)
			},
			wantStatus: OutcomeAlreadyPurchased,
			check: func(t *testing.T, res *PurchaseResult) {
				assert.Equal(t, "purchase-winner", res.Purchase.ID)
			},
		},
		{
			name: "invalid email",
			req:  PurchaseRequest{DocumentID: testDocID, CustomerEmail: "not-an-email"},
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mPurch *repoMocks.MockPurchaseRepository, mGrants *repoMocks.MockAccessGrantRepository, mGW *payMocks.MockGateway) {
			},
			wantErr: ErrInvalidRequest,
		},
		{
			name: "document not found",
			req:  PurchaseRequest{DocumentID: testDocID, CustomerEmail: testEmail},
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mPurch *repoMocks.MockPurchaseRepository, mGrants *repoMocks.MockAccessGrantRepository, mGW *payMocks.MockGateway) {
				mDocs.On("FindByID", ctx, testDocID).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "inactive document cannot be purchased",
			req:  PurchaseRequest{DocumentID: testDocID, CustomerEmail: testEmail},
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mPurch *repoMocks.MockPurchaseRepository, mGrants *repoMocks.MockAccessGrantRepository, mGW *payMocks.MockGateway) {
				doc := activeDoc(2999)
				doc.IsActive = false
				mDocs.On("FindByID", ctx, testDocID).Return(doc, nil)
			},
			wantErr: ErrDocumentInactive,
		},
		{
			name: "gateway infrastructure fault leaves the purchase pending",
			req:  PurchaseRequest{DocumentID: testDocID, CustomerEmail: testEmail},
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mPurch *repoMocks.MockPurchaseRepository, mGrants *repoMocks.MockAccessGrantRepository, mGW *payMocks.MockGateway) {
				mDocs.On("FindByID", ctx, testDocID).Return(activeDoc(2999), nil)
				mPurch.On("FindCompleted", ctx, testDocID, testEmail).Return(nil, sql.ErrNoRows)
				mPurch.On("Create", ctx, mock.Anything).Return(&model.Purchase{
					ID: "purchase-4", Status: model.PurchasePending,
				}, nil)
				mGW.On("Charge", ctx, mock.Anything).Return(nil, errors.New("gateway timeout"))
			},
			wantErrMsg: "charge: gateway timeout",
		},
		{
			name: "aggregate bump failure does not fail a completed purchase",
			req:  PurchaseRequest{DocumentID: testDocID, CustomerEmail: testEmail},
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository, mPurch *repoMocks.MockPurchaseRepository, mGrants *repoMocks.MockAccessGrantRepository, mGW *payMocks.MockGateway) {
				mDocs.On("FindByID", ctx, testDocID).Return(activeDoc(2999), nil)
				mPurch.On("FindCompleted", ctx, testDocID, testEmail).Return(nil, sql.ErrNoRows)
				mPurch.On("Create", ctx, mock.Anything).Return(&model.Purchase{
					ID: "purchase-5", DocumentID: testDocID, Status: model.PurchasePending,
				}, nil)
				mGW.On("Charge", ctx, mock.Anything).Return(&payment.ChargeResult{Reference: "pay_jkl"}, nil)
				mPurch.On("MarkCompleted", ctx, "purchase-5", "pay_jkl").Return(&model.Purchase{
					ID: "purchase-5", DocumentID: testDocID, CreatorEarningsCents: 2849,
					Status: model.PurchaseCompleted,
				}, nil)
				mGrants.On("Create", ctx, mock.Anything).Return(&model.AccessGrant{ID: "grant-5"}, nil)
				mDocs.On("ApplySale", ctx, testDocID, int64(2849)).Return(errors.New("db down"))
			},
			wantStatus: OutcomeCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mDocs := new(repoMocks.MockDocumentRepository)
			mPurch := new(repoMocks.MockPurchaseRepository)
			mGrants := new(repoMocks.MockAccessGrantRepository)
			mGW := new(payMocks.MockGateway)
			tt.setupMocks(mDocs, mPurch, mGrants, mGW)

			svc := NewPurchaseService(mDocs, mPurch, mGrants, mGW, "USD", nil)
			res, err := svc.Purchase(ctx, tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else if tt.wantErrMsg != "" {
				assert.EqualError(t, err, tt.wantErrMsg)
				assert.Nil(t, res)
			} else {
				assert.NoError(t, err)
				if assert.NotNil(t, res) {
					assert.Equal(t, tt.wantStatus, res.Status)
					if tt.check != nil {
						tt.check(t, res)
					}
				}
			}

			mDocs.AssertExpectations(t)
			mPurch.AssertExpectations(t)
			mGrants.AssertExpectations(t)
			mGW.AssertExpectations(t)
		})
	}
}

func TestPurchaseService_CheckEntitlement(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		documentID string
		email      string
		setupMocks func(mGrants *repoMocks.MockAccessGrantRepository)
		want       bool
		wantErr    error
	}{
		{
			name:       "grant exists",
			documentID: testDocID,
			email:      testEmail,
			setupMocks: func(mGrants *repoMocks.MockAccessGrantRepository) {
				mGrants.On("FindByDocumentAndEmail", ctx, testDocID, testEmail).
					Return(&model.AccessGrant{ID: "grant-1"}, nil)
			},
			want: true,
		},
		{
			name:       "no grant",
			documentID: testDocID,
			email:      testEmail,
			setupMocks: func(mGrants *repoMocks.MockAccessGrantRepository) {
				mGrants.On("FindByDocumentAndEmail", ctx, testDocID, testEmail).
					Return(nil, sql.ErrNoRows)
			},
			want: false,
		},
		{
			name:       "lookup uses the normalized email",
			documentID: testDocID,
			email:      "Buyer@Example.com",
			setupMocks: func(mGrants *repoMocks.MockAccessGrantRepository) {
				mGrants.On("FindByDocumentAndEmail", ctx, testDocID, testEmail).
					Return(&model.AccessGrant{ID: "grant-1"}, nil)
			},
			want: true,
		},
		{
			name:       "missing document id",
			email:      testEmail,
			setupMocks: func(mGrants *repoMocks.MockAccessGrantRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name:       "invalid email",
			documentID: testDocID,
			email:      "nope",
			setupMocks: func(mGrants *repoMocks.MockAccessGrantRepository) {},
			wantErr:    ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mGrants := new(repoMocks.MockAccessGrantRepository)
			tt.setupMocks(mGrants)

			svc := NewPurchaseService(nil, nil, mGrants, nil, "USD", nil)
			got, err := svc.CheckEntitlement(ctx, tt.documentID, tt.email)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			mGrants.AssertExpectations(t)
		})
	}
}

func TestPurchaseService_ListSales(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults pagination", func(t *testing.T) {
		mPurch := new(repoMocks.MockPurchaseRepository)
		mPurch.On("ListByCreator", ctx, testCreatorID, repository.PageQuery{Limit: 10, Offset: 0}).
			Return(&repository.PageResult[model.Purchase]{
				Items: []model.Purchase{{ID: "purchase-1"}},
				Total: 1,
			}, nil)

		svc := NewPurchaseService(nil, mPurch, nil, nil, "USD", nil)
		res, err := svc.ListSales(ctx, testCreatorID, 0, -5)

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
		mPurch.AssertExpectations(t)
	})

	t.Run("missing creator id", func(t *testing.T) {
		svc := NewPurchaseService(nil, nil, nil, nil, "USD", nil)
		_, err := svc.ListSales(ctx, "", 10, 0)
		assert.ErrorIs(t, err, ErrIDRequired)
	})
}
