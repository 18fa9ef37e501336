package repository

import (
	"context"

	"app/internal/domain/model"
)

// 注文ステータス履歴（追記のみ）。
type OrderStatusHistoryRepository interface {
	//履歴を1行追加して、採番済みの行を返す
	Append(ctx context.Context, h model.OrderStatusHistory) (model.OrderStatusHistory, error)

	//注文の最新行（現在ステータス）。履歴が無ければErrNotFound。
	Latest(ctx context.Context, orderID int64) (model.OrderStatusHistory, error)

	//注文の全履歴を古い順に返す
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error)
}
