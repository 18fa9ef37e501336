package model

import "time"

type OrderStatus string

const (
	OrderStatusPending              OrderStatus = "PENDING"
	OrderStatusPreparing            OrderStatus = "PREPARING"
	OrderStatusShippedFromWarehouse OrderStatus = "SHIPPED_FROM_WAREHOUSE"
	OrderStatusInTransit            OrderStatus = "IN_TRANSIT"
	OrderStatusDelivered            OrderStatus = "DELIVERED"
	OrderStatusCancelled            OrderStatus = "CANCELLED"
)

// 許可する遷移。ここに無い組み合わせは拒否する。
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:              {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:            {OrderStatusShippedFromWarehouse, OrderStatusCancelled},
	OrderStatusShippedFromWarehouse: {OrderStatusInTransit},
	OrderStatusInTransit:            {OrderStatusDelivered},
	//DELIVERED / CANCELLED は終端
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// 6種のいずれかどうか
func IsValidOrderStatus(s OrderStatus) bool {
	_, ok := orderStatusTransitions[s]
	return ok
}

// from→toが許可された遷移かどうか
func CanTransitOrderStatus(from OrderStatus, to OrderStatus) bool {
	for _, next := range orderStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// 終端かどうか
func IsTerminalOrderStatus(s OrderStatus) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// 注文ステータスの履歴（追記のみ、更新・削除しない）。
// 「現在のステータス」は注文ごとの最新行（idが最大の行）。
type OrderStatusHistory struct {
	ID      int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64       `gorm:"not null;index" json:"order_id"`
	Status  OrderStatus `gorm:"type:varchar(30);not null" json:"status"`

	//操作したユーザー（NULLはシステムによる遷移）
	UpdatedBy *int64 `gorm:"index" json:"updated_by,omitempty"`

	Notes     string    `gorm:"type:varchar(255)" json:"notes"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
