package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/notification"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 支払い処理。外部決済ゲートウェイは持たず、確定コールバック相当を担当する。
type PaymentUsecase struct {
	tx       repo.TransactionManager
	notifier notification.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewPaymentUsecase(tx repo.TransactionManager, notifier notification.Notifier, log *zap.Logger) *PaymentUsecase {
	return &PaymentUsecase{
		tx:       tx,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

type CreatePaymentInput struct {
	OrderID int64
	Amount  int64
	Method  string
}

type UpdatePaymentStatusInput struct {
	Status        string
	TransactionID string
}

type PaymentOutput struct {
	ID            int64     `json:"id"`
	OrderID       int64     `json:"order_id"`
	UserID        int64     `json:"user_id"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	Method        string    `json:"payment_method"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// 支払いを作成してPENDINGで保存し、注文に紐付ける。
func (u *PaymentUsecase) CreatePayment(ctx context.Context, userID int64, in CreatePaymentInput) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.OrderID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}
	if in.Amount < 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "amount must be >= 0")
	}

	method := model.PaymentMethod(strings.TrimSpace(in.Method))
	if !model.IsValidPaymentMethod(method) {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, in.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//他人の注文は存在しない扱い
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		now := u.now()
		p := model.Payment{
			OrderID:   in.OrderID,
			UserID:    userID,
			Amount:    in.Amount,
			Status:    model.PaymentStatusPending,
			Method:    method,
			CreatedAt: now,
			UpdatedAt: now,
		}

		paymentID, err := r.Payments().Create(ctx, p)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//注文側に最新の支払いを記録
		if err := r.Orders().SetPaymentID(ctx, in.OrderID, paymentID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		p.ID = paymentID
		out = toPaymentOutput(p)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

// 支払いを確定させる（決済確認コールバック相当）。
// PENDINGのときだけ成功させ、2回目は409で履歴も増やさない。
func (u *PaymentUsecase) ProcessPayment(ctx context.Context, userID int64, paymentID int64) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if paymentID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := u.findOwnedPayment(ctx, r, userID, paymentID)
		if err != nil {
			return err
		}

		if p.Status != model.PaymentStatusPending {
			return NewHTTPError(http.StatusConflict, "payment already processed")
		}

		updated, err := u.markPaymentSucceeded(ctx, r, p, nil)
		if err != nil {
			return err
		}

		out = toPaymentOutput(updated)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}

	u.notifyPaymentAsync(out)
	return out, nil
}

// 汎用のステータス更新。SUCCESSへの遷移はProcessPaymentと同じ内部処理を通す。
func (u *PaymentUsecase) UpdatePaymentStatus(ctx context.Context, userID int64, paymentID int64, in UpdatePaymentStatusInput) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if paymentID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.PaymentStatus(strings.TrimSpace(in.Status))
	if !model.IsValidPaymentStatus(newStatus) {
		return PaymentOutput{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid status")
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := u.findOwnedPayment(ctx, r, userID, paymentID)
		if err != nil {
			return err
		}

		switch newStatus {
		case model.PaymentStatusSuccess:
			if p.Status != model.PaymentStatusPending {
				return NewHTTPError(http.StatusConflict, "payment already processed")
			}

			var txID *string
			if s := strings.TrimSpace(in.TransactionID); s != "" {
				txID = &s
			}

			updated, err := u.markPaymentSucceeded(ctx, r, p, txID)
			if err != nil {
				return err
			}
			out = toPaymentOutput(updated)
			return nil

		case model.PaymentStatusFailed:
			if p.Status != model.PaymentStatusPending {
				return NewHTTPError(http.StatusConflict, "payment already processed")
			}
			if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusFailed, nil); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			p.Status = model.PaymentStatusFailed
			out = toPaymentOutput(p)
			return nil

		case model.PaymentStatusRefunded:
			//返金はSUCCESSからのみ
			if p.Status != model.PaymentStatusSuccess {
				return NewHTTPError(http.StatusConflict, "payment is not refundable")
			}
			if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusRefunded, nil); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			p.Status = model.PaymentStatusRefunded
			out = toPaymentOutput(p)
			return nil

		default:
			//PENDINGへ戻すことはできない
			return NewHTTPError(http.StatusUnprocessableEntity, "invalid status")
		}
	})

	if err != nil {
		return PaymentOutput{}, err
	}

	if out.Status == string(model.PaymentStatusSuccess) {
		u.notifyPaymentAsync(out)
	}
	return out, nil
}

func (u *PaymentUsecase) GetPayment(ctx context.Context, userID int64, paymentID int64) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if paymentID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out PaymentOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := u.findOwnedPayment(ctx, r, userID, paymentID)
		if err != nil {
			return err
		}
		out = toPaymentOutput(p)
		return nil
	})
	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

// 所有チェック込みで支払いを取得。他人の支払いは存在しない扱い。
func (u *PaymentUsecase) findOwnedPayment(ctx context.Context, r repo.TxRepos, userID int64, paymentID int64) (model.Payment, error) {
	p, err := r.Payments().FindByID(ctx, paymentID)
	if err == repo.ErrNotFound {
		return model.Payment{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Payment{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.UserID != userID {
		return model.Payment{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

// SUCCESSへの遷移はここ1か所。
// transaction_idを採番し、注文をPREPARINGへ進める履歴を追記する。
// ProcessPaymentとUpdatePaymentStatusの両方がこれを通る。
func (u *PaymentUsecase) markPaymentSucceeded(ctx context.Context, r repo.TxRepos, p model.Payment, transactionID *string) (model.Payment, error) {
	if transactionID == nil {
		generated := uuid.NewString()
		transactionID = &generated
	}

	if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusSuccess, transactionID); err != nil {
		return model.Payment{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//注文の現在ステータスを確認してからPREPARINGへ
	latest, err := r.StatusHistory().Latest(ctx, p.OrderID)
	if err == repo.ErrNotFound {
		return model.Payment{}, NewHTTPError(http.StatusInternalServerError, "status history missing")
	}
	if err != nil {
		return model.Payment{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !model.CanTransitOrderStatus(latest.Status, model.OrderStatusPreparing) {
		//キャンセル済みなどは決済を確定させない
		return model.Payment{}, NewHTTPError(http.StatusConflict, "order is not payable")
	}

	//システムによる遷移なのでupdated_byはNULL
	if _, err := r.StatusHistory().Append(ctx, model.OrderStatusHistory{
		OrderID:   p.OrderID,
		Status:    model.OrderStatusPreparing,
		UpdatedBy: nil,
		Notes:     "Payment successful, preparing order",
		CreatedAt: u.now(),
	}); err != nil {
		return model.Payment{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p.Status = model.PaymentStatusSuccess
	p.TransactionID = transactionID
	return p, nil
}

func (u *PaymentUsecase) notifyPaymentAsync(out PaymentOutput) {
	if u.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := u.notifier.Publish(ctx, notification.Event{
			Type:    notification.EventPaymentSucceeded,
			UserID:  out.UserID,
			OrderID: out.OrderID,
		}); err != nil && u.log != nil {
			u.log.Warn("notification publish failed",
				zap.Int64("payment_id", out.ID),
				zap.Error(err))
		}
	}()
}

func toPaymentOutput(p model.Payment) PaymentOutput {
	return PaymentOutput{
		ID:            p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		Status:        string(p.Status),
		Method:        string(p.Method),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
	}
}
