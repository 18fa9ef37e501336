package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type FestivalGormRepository struct {
	db *gorm.DB
}

func NewFestivalGormRepository(db *gorm.DB) *FestivalGormRepository {
	return &FestivalGormRepository{db: db}
}

func (r *FestivalGormRepository) Create(ctx context.Context, f model.Festival) (model.Festival, error) {
	if err := r.db.WithContext(ctx).Create(&f).Error; err != nil {
		return model.Festival{}, err
	}
	return f, nil
}

func (r *FestivalGormRepository) Update(ctx context.Context, f model.Festival) error {
	res := r.db.WithContext(ctx).Model(&model.Festival{}).
		Where("id = ?", f.ID).
		Updates(map[string]interface{}{
			"name":                f.Name,
			"discount_percentage": f.DiscountPercentage,
			"start_date":          f.StartDate,
			"end_date":            f.EndDate,
			"status":              f.Status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *FestivalGormRepository) FindByID(ctx context.Context, festivalID int64) (model.Festival, error) {
	var f model.Festival
	err := r.db.WithContext(ctx).Where("id = ?", festivalID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Festival{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Festival{}, err
	}
	return f, nil
}

func (r *FestivalGormRepository) List(ctx context.Context, page int, limit int) ([]model.Festival, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Festival{}).Count(&total).Error; err != nil {
		return []model.Festival{}, 0, err
	}

	var items []model.Festival
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Festival{}, 0, err
	}
	return items, total, nil
}

// 対象商品を全置換
func (r *FestivalGormRepository) ReplaceProducts(ctx context.Context, festivalID int64, productIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("festival_id = ?", festivalID).Delete(&model.FestivalProduct{}).Error; err != nil {
			return err
		}

		if len(productIDs) == 0 {
			return nil
		}

		rows := make([]model.FestivalProduct, 0, len(productIDs))
		for _, pid := range productIDs {
			rows = append(rows, model.FestivalProduct{
				FestivalID: festivalID,
				ProductID:  pid,
			})
		}
		return tx.Create(&rows).Error
	})
}

func (r *FestivalGormRepository) ListProductIDs(ctx context.Context, festivalID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.FestivalProduct{}).
		Where("festival_id = ?", festivalID).
		Order("product_id asc").
		Pluck("product_id", &ids).Error
	if err != nil {
		return []int64{}, err
	}
	return ids, nil
}

// 商品に効いているACTIVEなフェスティバルを優先順で返す。
// 「最初にマッチしたもの勝ち」だと保存順に依存するので、
// 割引率の高い順→作成の新しい順で決定的に並べる。
func (r *FestivalGormRepository) ActiveForProduct(ctx context.Context, productID int64, at time.Time) ([]model.Festival, error) {
	var items []model.Festival

	err := r.db.WithContext(ctx).
		Model(&model.Festival{}).
		Joins("join festival_products on festival_products.festival_id = festivals.id").
		Where("festival_products.product_id = ?", productID).
		Where("festivals.status = ?", model.FestivalStatusActive).
		Where("festivals.start_date <= ? AND festivals.end_date >= ?", at, at).
		Order("festivals.discount_percentage desc").
		Order("festivals.created_at desc").
		Find(&items).Error
	if err != nil {
		return []model.Festival{}, err
	}
	return items, nil
}
