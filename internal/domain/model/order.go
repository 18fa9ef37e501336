package model

import "time"

// 配送先のスナップショット（注文作成時にコピーして以後変更しない）
type ShippingAddress struct {
	Address    string `gorm:"type:varchar(255);not null;column:shipping_address" json:"address"`
	City       string `gorm:"type:varchar(255);not null;column:shipping_city" json:"city"`
	PostalCode string `gorm:"type:varchar(20);not null;column:shipping_postal_code" json:"postal_code"`
	Country    string `gorm:"type:varchar(100);not null;column:shipping_country" json:"country"`
}

// 注文。明細・金額は作成時点のスナップショットで、作成後は変更しない。
// ステータスはordersには持たせず、order_status_historiesの最新行が現在値。
type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//割引を適用したフェスティバル（注文につき1つ、無ければNULL）
	FestivalID *int64 `gorm:"index" json:"festival_id,omitempty"`

	//最新の支払いへの参照
	PaymentID *int64 `gorm:"index" json:"payment_id,omitempty"`

	TotalPrice         int64 `gorm:"not null" json:"total_price"`
	TotalDiscountPrice int64 `gorm:"not null" json:"total_discount_price"`

	ShippingAddress ShippingAddress `gorm:"embedded" json:"shipping_address"`

	//二重送信防止キー
	IdempotencyKey string `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
