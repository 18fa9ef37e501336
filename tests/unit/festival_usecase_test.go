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

// 作成：期間内ならACTIVEで保存され、対象商品が付け替わり、監査ログが残る
func TestFestivalUsecase_AdminCreateFestival_Success(t *testing.T) {
	ctx := context.Background()

	fRepo := new(TxFestivalRepoMock)
	pRepo := new(TxProductRepoMock)
	audit := new(ProdAuditRepoMock)

	adminID := int64(9)
	now := time.Now()
	start := now.Add(-1 * time.Hour)
	end := now.Add(24 * time.Hour)

	pRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, IsActive: true}, nil)
	pRepo.On("FindByID", mock.Anything, int64(200)).Return(model.Product{ID: 200, IsActive: true}, nil)

	fRepo.On("Create", mock.Anything, mock.MatchedBy(func(f model.Festival) bool {
		return f.Name == "Summer Sale" &&
			f.DiscountPercentage == 20 &&
			f.Status == model.FestivalStatusActive
	})).Return(model.Festival{
		ID:                 5,
		Name:               "Summer Sale",
		DiscountPercentage: 20,
		StartDate:          start,
		EndDate:            end,
		Status:             model.FestivalStatusActive,
	}, nil)

	fRepo.On("ReplaceProducts", mock.Anything, int64(5), []int64{100, 200}).Return(nil)

	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorUserID == adminID &&
			l.Action == model.AuditActionCreateFestival &&
			l.ResourceType == model.AuditResourceFestival &&
			l.ResourceID == 5 &&
			l.BeforeJSON == "{}"
	})).Return(nil)

	uc := usecase.NewFestivalUsecase(fRepo, pRepo, audit)

	out, err := uc.AdminCreateFestival(ctx, adminID, usecase.FestivalInput{
		Name:               "Summer Sale",
		DiscountPercentage: 20,
		StartDate:          start,
		EndDate:            end,
		ProductIDs:         []int64{100, 200},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(5), out.ID)
	assert.Equal(t, "ACTIVE", out.Status)
	assert.Equal(t, []int64{100, 200}, out.ProductIDs)

	fRepo.AssertExpectations(t)
	pRepo.AssertExpectations(t)
	audit.AssertExpectations(t)
}

// 割引率の範囲チェック
func TestFestivalUsecase_AdminCreateFestival_InvalidPercentage(t *testing.T) {
	uc := usecase.NewFestivalUsecase(new(TxFestivalRepoMock), new(TxProductRepoMock), new(ProdAuditRepoMock))

	now := time.Now()
	_, err := uc.AdminCreateFestival(context.Background(), 9, usecase.FestivalInput{
		Name:               "Bad",
		DiscountPercentage: 101,
		StartDate:          now,
		EndDate:            now.Add(time.Hour),
	})
	assertErrContains(t, err, "discount_percentage must be between 0 and 100")
}

// 開始が終了より後は拒否
func TestFestivalUsecase_AdminCreateFestival_InvertedRange(t *testing.T) {
	uc := usecase.NewFestivalUsecase(new(TxFestivalRepoMock), new(TxProductRepoMock), new(ProdAuditRepoMock))

	now := time.Now()
	_, err := uc.AdminCreateFestival(context.Background(), 9, usecase.FestivalInput{
		Name:               "Bad",
		DiscountPercentage: 10,
		StartDate:          now.Add(time.Hour),
		EndDate:            now,
	})
	assertErrContains(t, err, "start_date must be before end_date")
}

// 対象商品の重複は拒否
func TestFestivalUsecase_AdminCreateFestival_DuplicateProduct(t *testing.T) {
	pRepo := new(TxProductRepoMock)
	pRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, IsActive: true}, nil)

	uc := usecase.NewFestivalUsecase(new(TxFestivalRepoMock), pRepo, new(ProdAuditRepoMock))

	now := time.Now()
	_, err := uc.AdminCreateFestival(context.Background(), 9, usecase.FestivalInput{
		Name:               "Dup",
		DiscountPercentage: 10,
		StartDate:          now,
		EndDate:            now.Add(time.Hour),
		ProductIDs:         []int64{100, 100},
	})
	assertErrContains(t, err, "duplicate product id 100")
}

// 削除済み（非アクティブ）商品は対象にできない
func TestFestivalUsecase_AdminCreateFestival_InactiveProduct(t *testing.T) {
	pRepo := new(TxProductRepoMock)
	pRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, IsActive: false}, nil)

	uc := usecase.NewFestivalUsecase(new(TxFestivalRepoMock), pRepo, new(ProdAuditRepoMock))

	now := time.Now()
	_, err := uc.AdminCreateFestival(context.Background(), 9, usecase.FestivalInput{
		Name:               "Gone",
		DiscountPercentage: 10,
		StartDate:          now,
		EndDate:            now.Add(time.Hour),
		ProductIDs:         []int64{100},
	})
	assertErrContains(t, err, "product 100 is not active")
}

// 更新：期間が過去になればEXPIREDで保存し直す
func TestFestivalUsecase_AdminUpdateFestival_RecomputesStatus(t *testing.T) {
	ctx := context.Background()

	fRepo := new(TxFestivalRepoMock)
	audit := new(ProdAuditRepoMock)

	now := time.Now()
	start := now.Add(-48 * time.Hour)
	end := now.Add(-24 * time.Hour)

	fRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Festival{
		ID:                 5,
		Name:               "Summer Sale",
		DiscountPercentage: 20,
		Status:             model.FestivalStatusActive,
	}, nil)

	fRepo.On("Update", mock.Anything, mock.MatchedBy(func(f model.Festival) bool {
		return f.ID == 5 && f.Status == model.FestivalStatusExpired
	})).Return(nil)

	fRepo.On("ReplaceProducts", mock.Anything, int64(5), []int64(nil)).Return(nil)

	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateFestival && l.ResourceID == 5
	})).Return(nil)

	uc := usecase.NewFestivalUsecase(fRepo, new(TxProductRepoMock), audit)

	out, err := uc.AdminUpdateFestival(ctx, 9, 5, usecase.FestivalInput{
		Name:               "Summer Sale",
		DiscountPercentage: 20,
		StartDate:          start,
		EndDate:            end,
	})
	assert.NoError(t, err)
	assert.Equal(t, "EXPIRED", out.Status)

	fRepo.AssertExpectations(t)
	audit.AssertExpectations(t)
}

// 公開取得：対象商品IDつきで返す
func TestFestivalUsecase_GetFestival(t *testing.T) {
	fRepo := new(TxFestivalRepoMock)
	fRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Festival{
		ID:                 5,
		Name:               "Summer Sale",
		DiscountPercentage: 20,
		Status:             model.FestivalStatusActive,
	}, nil)
	fRepo.On("ListProductIDs", mock.Anything, int64(5)).Return([]int64{100, 200}, nil)

	uc := usecase.NewFestivalUsecase(fRepo, new(TxProductRepoMock), new(ProdAuditRepoMock))

	out, err := uc.GetFestival(context.Background(), 5)
	assert.NoError(t, err)
	assert.Equal(t, "Summer Sale", out.Name)
	assert.Equal(t, []int64{100, 200}, out.ProductIDs)

	fRepo.AssertExpectations(t)
}
