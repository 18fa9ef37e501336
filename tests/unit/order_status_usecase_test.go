package unit

import (
	"context"
	"testing"

	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newStatusUC(tm *TxManagerMock, audit *ProdAuditRepoMock) *usecase.OrderStatusUsecase {
	return usecase.NewOrderStatusUsecase(tm, audit, nil, nil)
}

// 本人キャンセル：履歴追記の前に全明細の在庫が戻る
func TestOrderStatusUsecase_CancelByOwner_Restocks(t *testing.T) {
	ctx := context.Background()
	tm := newTxManagerMock()
	r := tm.Repos
	audit := new(ProdAuditRepoMock)

	userID := int64(1)
	orderID := int64(77)

	r.OrderRepo.On("FindByID", mock.Anything, orderID).Return(model.Order{ID: orderID, UserID: userID}, nil)
	r.StatusHistoryRepo.On("Latest", mock.Anything, orderID).Return(model.OrderStatusHistory{OrderID: orderID, Status: model.OrderStatusPending}, nil)

	r.OrderItemRepo.On("ListByOrderID", mock.Anything, orderID).Return([]model.OrderItem{
		{ProductID: 100, Quantity: 2},
		{ProductID: 200, Quantity: 1},
	}, nil)

	r.InventoryRepo.On("Credit", mock.Anything, int64(100), int64(2)).Return(nil)
	r.InventoryRepo.On("Credit", mock.Anything, int64(200), int64(1)).Return(nil)

	r.StatusHistoryRepo.On("Append", mock.Anything, mock.MatchedBy(func(h model.OrderStatusHistory) bool {
		return h.OrderID == orderID && h.Status == model.OrderStatusCancelled && h.UpdatedBy != nil && *h.UpdatedBy == userID
	})).Return(model.OrderStatusHistory{ID: 2, OrderID: orderID, Status: model.OrderStatusCancelled}, nil)

	uc := newStatusUC(tm, audit)

	out, err := uc.UpdateStatus(ctx, userID, string(model.RoleUser), orderID, usecase.UpdateOrderStatusInput{
		Status: "CANCELLED",
	})
	assert.NoError(t, err)
	assert.Equal(t, "CANCELLED", out.Status)

	//一般ユーザー操作は監査ログに残さない
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	r.AssertExpectations(t)
}

// 二重キャンセル：CANCELLED→CANCELLEDは拒否、在庫は二重に戻らない
func TestOrderStatusUsecase_DoubleCancel_Rejected(t *testing.T) {
	ctx := context.Background()
	tm := newTxManagerMock()
	r := tm.Repos

	userID := int64(1)
	orderID := int64(77)

	r.OrderRepo.On("FindByID", mock.Anything, orderID).Return(model.Order{ID: orderID, UserID: userID}, nil)
	r.StatusHistoryRepo.On("Latest", mock.Anything, orderID).Return(model.OrderStatusHistory{OrderID: orderID, Status: model.OrderStatusCancelled}, nil)

	uc := newStatusUC(tm, new(ProdAuditRepoMock))

	_, err := uc.UpdateStatus(ctx, userID, string(model.RoleUser), orderID, usecase.UpdateOrderStatusInput{
		Status: "CANCELLED",
	})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 422, he.Status)

	r.InventoryRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
	r.StatusHistoryRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

// 許可されていない遷移（DELIVERED→PREPARING等）=> 422
func TestOrderStatusUsecase_InvalidTransition(t *testing.T) {
	ctx := context.Background()
	tm := newTxManagerMock()
	r := tm.Repos

	adminID := int64(9)
	orderID := int64(77)

	r.OrderRepo.On("FindByID", mock.Anything, orderID).Return(model.Order{ID: orderID, UserID: 1}, nil)
	r.StatusHistoryRepo.On("Latest", mock.Anything, orderID).Return(model.OrderStatusHistory{OrderID: orderID, Status: model.OrderStatusDelivered}, nil)

	uc := newStatusUC(tm, new(ProdAuditRepoMock))

	_, err := uc.UpdateStatus(ctx, adminID, string(model.RoleAdmin), orderID, usecase.UpdateOrderStatusInput{
		Status: "PREPARING",
	})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 422, he.Status)
	assertErrContains(t, err, "cannot transit")
}

// 未知のステータス文字列 => 422
func TestOrderStatusUsecase_UnknownStatus(t *testing.T) {
	tm := newTxManagerMock()
	uc := newStatusUC(tm, new(ProdAuditRepoMock))

	_, err := uc.UpdateStatus(context.Background(), 9, string(model.RoleAdmin), 77, usecase.UpdateOrderStatusInput{
		Status: "SHIPPED",
	})
	assertErrContains(t, err, "invalid status")
}

// 本人はキャンセル以外できない
func TestOrderStatusUsecase_OwnerCannotAdvance(t *testing.T) {
	ctx := context.Background()
	tm := newTxManagerMock()
	r := tm.Repos

	userID := int64(1)
	orderID := int64(77)

	r.OrderRepo.On("FindByID", mock.Anything, orderID).Return(model.Order{ID: orderID, UserID: userID}, nil)

	uc := newStatusUC(tm, new(ProdAuditRepoMock))

	_, err := uc.UpdateStatus(ctx, userID, string(model.RoleUser), orderID, usecase.UpdateOrderStatusInput{
		Status: "PREPARING",
	})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 403, he.Status)
}

// 他人の注文は存在しない扱い
func TestOrderStatusUsecase_OtherUsersOrder_NotFound(t *testing.T) {
	ctx := context.Background()
	tm := newTxManagerMock()
	r := tm.Repos

	r.OrderRepo.On("FindByID", mock.Anything, int64(77)).Return(model.Order{ID: 77, UserID: 2}, nil)

	uc := newStatusUC(tm, new(ProdAuditRepoMock))

	_, err := uc.UpdateStatus(ctx, 1, string(model.RoleUser), 77, usecase.UpdateOrderStatusInput{
		Status: "CANCELLED",
	})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 404, he.Status)
}

// 管理者遷移は監査ログに before/after が残る
func TestOrderStatusUsecase_AdminTransition_Audited(t *testing.T) {
	ctx := context.Background()
	tm := newTxManagerMock()
	r := tm.Repos
	audit := new(ProdAuditRepoMock)

	adminID := int64(9)
	orderID := int64(77)

	r.OrderRepo.On("FindByID", mock.Anything, orderID).Return(model.Order{ID: orderID, UserID: 1}, nil)
	r.StatusHistoryRepo.On("Latest", mock.Anything, orderID).Return(model.OrderStatusHistory{OrderID: orderID, Status: model.OrderStatusPreparing}, nil)

	r.StatusHistoryRepo.On("Append", mock.Anything, mock.MatchedBy(func(h model.OrderStatusHistory) bool {
		return h.Status == model.OrderStatusShippedFromWarehouse && h.UpdatedBy != nil && *h.UpdatedBy == adminID
	})).Return(model.OrderStatusHistory{ID: 3, OrderID: orderID, Status: model.OrderStatusShippedFromWarehouse}, nil)

	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorUserID == adminID &&
			l.Action == model.AuditActionUpdateOrderStatus &&
			l.ResourceType == model.AuditResourceOrder &&
			l.ResourceID == orderID &&
			l.BeforeJSON == `{"status":"PREPARING"}` &&
			l.AfterJSON == `{"status":"SHIPPED_FROM_WAREHOUSE"}`
	})).Return(nil)

	uc := newStatusUC(tm, audit)

	out, err := uc.UpdateStatus(ctx, adminID, string(model.RoleAdmin), orderID, usecase.UpdateOrderStatusInput{
		Status: "SHIPPED_FROM_WAREHOUSE",
	})
	assert.NoError(t, err)
	assert.Equal(t, "SHIPPED_FROM_WAREHOUSE", out.Status)

	r.AssertExpectations(t)
	audit.AssertExpectations(t)
}
