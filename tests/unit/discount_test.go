package unit

import (
	"context"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// 20%オフ：1000 → 800
func TestDiscountResolver_ApplyFestival(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	fRepo := new(TxFestivalRepoMock)
	fRepo.On("ActiveForProduct", mock.Anything, int64(100), now).Return([]model.Festival{
		{ID: 5, Name: "Summer Sale", DiscountPercentage: 20},
	}, nil)

	d := usecase.NewDiscountResolver(fRepo)

	resolved, err := d.ResolvePrice(ctx, 100, 1000, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(800), resolved.Price)
	assert.NotNil(t, resolved.FestivalID)
	assert.Equal(t, int64(5), *resolved.FestivalID)
}

// 割り切れないときは切り捨て：999の15%オフ → 849.15 → 849
func TestDiscountResolver_FloorsFraction(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	fRepo := new(TxFestivalRepoMock)
	fRepo.On("ActiveForProduct", mock.Anything, int64(100), now).Return([]model.Festival{
		{ID: 5, DiscountPercentage: 15},
	}, nil)

	d := usecase.NewDiscountResolver(fRepo)

	resolved, err := d.ResolvePrice(ctx, 100, 999, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(849), resolved.Price)
}

// フェスティバルが無ければ元の価格のまま
func TestDiscountResolver_NoActiveFestival(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	fRepo := new(TxFestivalRepoMock)
	fRepo.On("ActiveForProduct", mock.Anything, int64(100), now).Return([]model.Festival{}, nil)

	d := usecase.NewDiscountResolver(fRepo)

	resolved, err := d.ResolvePrice(ctx, 100, 1000, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), resolved.Price)
	assert.Nil(t, resolved.FestivalID)
}

// 複数ヒット時はrepoが返した先頭（割引率の高い方）を採用する
func TestDiscountResolver_PicksFirstCandidate(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	fRepo := new(TxFestivalRepoMock)
	fRepo.On("ActiveForProduct", mock.Anything, int64(100), now).Return([]model.Festival{
		{ID: 7, DiscountPercentage: 30},
		{ID: 5, DiscountPercentage: 20},
	}, nil)

	d := usecase.NewDiscountResolver(fRepo)

	resolved, err := d.ResolvePrice(ctx, 100, 1000, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(700), resolved.Price)
	assert.Equal(t, int64(7), *resolved.FestivalID)
}

// 100%オフは0円
func TestDiscountResolver_FullDiscount(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	fRepo := new(TxFestivalRepoMock)
	fRepo.On("ActiveForProduct", mock.Anything, int64(100), now).Return([]model.Festival{
		{ID: 5, DiscountPercentage: 100},
	}, nil)

	d := usecase.NewDiscountResolver(fRepo)

	resolved, err := d.ResolvePrice(ctx, 100, 1000, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), resolved.Price)
}
