package usecase

import (
	"context"
	"time"

	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// フェスティバル割引の解決。
// 参照のみで副作用は無い。
type DiscountResolver struct {
	festivalRepo repo.FestivalRepository
}

func NewDiscountResolver(festivalRepo repo.FestivalRepository) *DiscountResolver {
	return &DiscountResolver{festivalRepo: festivalRepo}
}

type ResolvedPrice struct {
	//割引後価格（割引が無ければbasePriceそのまま）
	Price int64
	//適用したフェスティバル（無ければnil）
	FestivalID *int64
}

// atTime時点で商品に効いているフェスティバルを探し、割引後価格を返す。
// 候補はrepo側で割引率の高い順に並ぶので、先頭を採用する。
func (d *DiscountResolver) ResolvePrice(ctx context.Context, productID int64, basePrice int64, at time.Time) (ResolvedPrice, error) {
	festivals, err := d.festivalRepo.ActiveForProduct(ctx, productID, at)
	if err != nil {
		return ResolvedPrice{}, err
	}

	if len(festivals) == 0 {
		return ResolvedPrice{Price: basePrice}, nil
	}

	f := festivals[0]

	//price * (100 - pct) / 100 を誤差なしで計算して整数に切り捨てる
	discounted := decimal.NewFromInt(basePrice).
		Mul(decimal.NewFromInt(100 - f.DiscountPercentage)).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()

	festivalID := f.ID
	return ResolvedPrice{Price: discounted, FestivalID: &festivalID}, nil
}
