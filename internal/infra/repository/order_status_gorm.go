package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type OrderStatusGormRepository struct {
	db *gorm.DB
}

func NewOrderStatusGormRepository(db *gorm.DB) *OrderStatusGormRepository {
	return &OrderStatusGormRepository{db: db}
}

// 履歴を1行追加（UPDATEはしない）
func (r *OrderStatusGormRepository) Append(ctx context.Context, h model.OrderStatusHistory) (model.OrderStatusHistory, error) {
	if err := r.db.WithContext(ctx).Create(&h).Error; err != nil {
		return model.OrderStatusHistory{}, err
	}
	return h, nil
}

// 最新行＝現在ステータス。
// created_atの同時刻はあり得るので、単調増加のidで並べる。
func (r *OrderStatusGormRepository) Latest(ctx context.Context, orderID int64) (model.OrderStatusHistory, error) {
	var h model.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id desc").
		First(&h).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.OrderStatusHistory{}, repo.ErrNotFound
	}
	if err != nil {
		return model.OrderStatusHistory{}, err
	}
	return h, nil
}

// 全履歴を古い順で
func (r *OrderStatusGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error) {
	var rows []model.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return []model.OrderStatusHistory{}, err
	}
	return rows, nil
}
