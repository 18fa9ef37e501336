package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type FestivalRepository interface {
	Create(ctx context.Context, f model.Festival) (model.Festival, error)
	Update(ctx context.Context, f model.Festival) error
	FindByID(ctx context.Context, festivalID int64) (model.Festival, error)
	List(ctx context.Context, page int, limit int) ([]model.Festival, int64, error)

	//対象商品の付け替え（全置換）
	ReplaceProducts(ctx context.Context, festivalID int64, productIDs []int64) error
	//対象商品ID一覧
	ListProductIDs(ctx context.Context, festivalID int64) ([]int64, error)

	//商品に効いているACTIVEなフェスティバルを優先順で返す。
	//割引率の高い順、同率なら作成の新しい順。
	ActiveForProduct(ctx context.Context, productID int64, at time.Time) ([]model.Festival, error)
}
