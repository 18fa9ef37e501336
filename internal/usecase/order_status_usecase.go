package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/notification"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

// 注文ステータス台帳。
// 履歴への追記と遷移ガード、CANCELLED時の在庫戻しを担当する。
type OrderStatusUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
	notifier  notification.Notifier
	log       *zap.Logger
	now       func() time.Time
}

func NewOrderStatusUsecase(
	tx repo.TransactionManager,
	auditRepo repo.AuditLogRepository,
	notifier notification.Notifier,
	log *zap.Logger,
) *OrderStatusUsecase {
	return &OrderStatusUsecase{
		tx:        tx,
		auditRepo: auditRepo,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

type UpdateOrderStatusInput struct {
	Status string
	Notes  string
}

// ステータスを1段進める（履歴に追記する）。
// 管理者は許可された任意の遷移、本人は自分の注文のCANCELLEDのみ。
// CANCELLEDのときは履歴を書く前に全明細の在庫を戻す。
// 在庫戻しと追記は同じTxなので、途中で失敗すれば何も残らない。
func (u *OrderStatusUsecase) UpdateStatus(ctx context.Context, actorUserID int64, actorRole string, orderID int64, in UpdateOrderStatusInput) (OrderStatusHistoryOutput, error) {
	if actorUserID <= 0 {
		return OrderStatusHistoryOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderStatusHistoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	if !model.IsValidOrderStatus(newStatus) {
		return OrderStatusHistoryOutput{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid status")
	}

	isAdmin := actorRole == string(model.RoleAdmin)

	var out OrderStatusHistoryOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//本人はキャンセルだけ、他人の注文は存在しない扱い
		if !isAdmin {
			if o.UserID != actorUserID {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			if newStatus != model.OrderStatusCancelled {
				return NewHTTPError(http.StatusForbidden, "forbidden")
			}
		}

		//現在ステータス＝履歴の最新行
		latest, err := r.StatusHistory().Latest(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, "status history missing")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//遷移ガード
		if !model.CanTransitOrderStatus(latest.Status, newStatus) {
			return NewHTTPError(http.StatusUnprocessableEntity,
				fmt.Sprintf("cannot transit from %s to %s", latest.Status, newStatus))
		}

		//CANCELLEDは履歴を書く前に在庫を戻す（部分キャンセルは作らない）
		if newStatus == model.OrderStatusCancelled {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			for _, it := range items {
				if err := r.Inventory().Credit(ctx, it.ProductID, it.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "restock failed")
				}
			}
		}

		notes := strings.TrimSpace(in.Notes)
		h, err := r.StatusHistory().Append(ctx, model.OrderStatusHistory{
			OrderID:   orderID,
			Status:    newStatus,
			UpdatedBy: &actorUserID,
			Notes:     notes,
			CreatedAt: u.now(),
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//管理者操作は監査ログに残す
		if isAdmin {
			beforeJSON := `{"status":"` + string(latest.Status) + `"}`
			afterJSON := `{"status":"` + string(newStatus) + `"}`
			if err := u.auditRepo.Create(ctx, model.AuditLog{
				ActorUserID:  actorUserID,
				Action:       model.AuditActionUpdateOrderStatus,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   orderID,
				BeforeJSON:   beforeJSON,
				AfterJSON:    afterJSON,
				CreatedAt:    u.now(),
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		out = OrderStatusHistoryOutput{
			ID:        h.ID,
			Status:    string(h.Status),
			UpdatedBy: h.UpdatedBy,
			Notes:     h.Notes,
			CreatedAt: h.CreatedAt,
		}
		return nil
	})

	if err != nil {
		return OrderStatusHistoryOutput{}, err
	}

	if u.notifier != nil {
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := u.notifier.Publish(nctx, notification.Event{
				Type:    notification.EventOrderStatusChanged,
				OrderID: orderID,
				Detail:  string(newStatus),
			}); err != nil && u.log != nil {
				u.log.Warn("notification publish failed",
					zap.Int64("order_id", orderID),
					zap.Error(err))
			}
		}()
	}

	return out, nil
}
