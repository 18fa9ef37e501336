package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

func IsValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "CARD"
	PaymentMethodWallet         PaymentMethod = "WALLET"
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

func IsValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCard, PaymentMethodWallet, PaymentMethodCashOnDelivery:
		return true
	default:
		return false
	}
}

// 支払い。注文1件につき有効なのは最新の1件（orders.payment_idが指す）。
type Payment struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`
	UserID  int64 `gorm:"not null;index" json:"user_id"`
	Amount  int64 `gorm:"not null" json:"amount"`

	Status PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Method PaymentMethod `gorm:"type:varchar(30);not null" json:"payment_method"`

	//決済成功時に採番（未決済はNULL）
	TransactionID *string `gorm:"type:varchar(64);uniqueIndex" json:"transaction_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
