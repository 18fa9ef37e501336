package model

import "time"

type FestivalStatus string

const (
	FestivalStatusInactive FestivalStatus = "INACTIVE"
	FestivalStatusActive   FestivalStatus = "ACTIVE"
	FestivalStatusExpired  FestivalStatus = "EXPIRED"
)

// 期間限定の割引キャンペーン。
// statusは保存のたびに現在時刻から再計算する（バックグラウンド更新はしない）。
type Festival struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	//0〜100
	DiscountPercentage int64 `gorm:"not null" json:"discount_percentage"`

	StartDate time.Time      `gorm:"not null;index" json:"start_date"`
	EndDate   time.Time      `gorm:"not null;index" json:"end_date"`
	Status    FestivalStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// フェスティバル対象商品（多対多の中間行）
type FestivalProduct struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	FestivalID int64 `gorm:"not null;index:idx_festival_product,unique" json:"festival_id"`
	ProductID  int64 `gorm:"not null;index:idx_festival_product,unique" json:"product_id"`
}

// 現在時刻からstatusを求める
func ComputeFestivalStatus(start time.Time, end time.Time, now time.Time) FestivalStatus {
	if now.Before(start) {
		return FestivalStatusInactive
	}
	if now.After(end) {
		return FestivalStatusExpired
	}
	return FestivalStatusActive
}
