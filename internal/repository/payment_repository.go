package repository

import (
	"context"

	"app/internal/domain/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (int64, error)
	FindByID(ctx context.Context, paymentID int64) (model.Payment, error)

	//ステータスと（あれば）transaction_idを更新
	UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus, transactionID *string) error
}
