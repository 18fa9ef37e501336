package repository

import (
	"app/internal/domain/model"
	"context"
)

// 在庫台帳。stockの増減は必ずこの経路を通す。
type InventoryRepository interface {
	// 在庫が足りるときだけ減算（1回の条件付きUPDATE）。足りなければfalse。
	Debit(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル・補償）
	Credit(ctx context.Context, productID int64, qty int64) error

	// 在庫の現在値を設定（管理者の棚卸し）
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
