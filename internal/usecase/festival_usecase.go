package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// フェスティバル（期間限定割引）の管理と公開参照。
type FestivalUsecase struct {
	festivalRepo repo.FestivalRepository
	productRepo  repo.ProductRepository
	auditRepo    repo.AuditLogRepository
	now          func() time.Time
}

func NewFestivalUsecase(festivalRepo repo.FestivalRepository, productRepo repo.ProductRepository, auditRepo repo.AuditLogRepository) *FestivalUsecase {
	return &FestivalUsecase{
		festivalRepo: festivalRepo,
		productRepo:  productRepo,
		auditRepo:    auditRepo,
		now:          time.Now,
	}
}

type FestivalInput struct {
	Name               string
	DiscountPercentage int64
	StartDate          time.Time
	EndDate            time.Time
	ProductIDs         []int64
}

type FestivalOutput struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	DiscountPercentage int64     `json:"discount_percentage"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	Status             string    `json:"status"`
	ProductIDs         []int64   `json:"product_ids"`
	CreatedAt          time.Time `json:"created_at"`
}

type FestivalListOutput struct {
	Festivals []FestivalOutput `json:"festivals"`
	Total     int64            `json:"total"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
}

func (u *FestivalUsecase) validateInput(in FestivalInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.DiscountPercentage < 0 || in.DiscountPercentage > 100 {
		return NewHTTPError(http.StatusBadRequest, "discount_percentage must be between 0 and 100")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return NewHTTPError(http.StatusBadRequest, "start_date and end_date required")
	}
	if !in.StartDate.Before(in.EndDate) {
		return NewHTTPError(http.StatusBadRequest, "start_date must be before end_date")
	}
	return nil
}

// 対象商品がすべて実在するか確認する。削除済み商品は対象にできない。
func (u *FestivalUsecase) validateProducts(ctx context.Context, productIDs []int64) error {
	seen := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		if id <= 0 {
			return NewHTTPError(http.StatusBadRequest, "invalid product id")
		}
		if seen[id] {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("duplicate product id %d", id))
		}
		seen[id] = true

		p, err := u.productRepo.FindByID(ctx, id)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("product %d not found", id))
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("product %d is not active", id))
		}
	}
	return nil
}

func (u *FestivalUsecase) AdminCreateFestival(ctx context.Context, adminUserID int64, in FestivalInput) (FestivalOutput, error) {
	if adminUserID <= 0 {
		return FestivalOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validateInput(in); err != nil {
		return FestivalOutput{}, err
	}
	if err := u.validateProducts(ctx, in.ProductIDs); err != nil {
		return FestivalOutput{}, err
	}

	now := u.now()
	f := model.Festival{
		Name:               strings.TrimSpace(in.Name),
		DiscountPercentage: in.DiscountPercentage,
		StartDate:          in.StartDate,
		EndDate:            in.EndDate,
		//保存時点の時刻で判定する
		Status:    model.ComputeFestivalStatus(in.StartDate, in.EndDate, now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := u.festivalRepo.Create(ctx, f)
	if err != nil {
		return FestivalOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.festivalRepo.ReplaceProducts(ctx, created.ID, in.ProductIDs); err != nil {
		return FestivalOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//監査ログ（作成）
	afterJSON := fmt.Sprintf(`{"name":%q,"discount_percentage":%d,"status":%q}`,
		created.Name, created.DiscountPercentage, created.Status)
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionCreateFestival,
		ResourceType: model.AuditResourceFestival,
		ResourceID:   created.ID,
		BeforeJSON:   "{}",
		AfterJSON:    afterJSON,
		CreatedAt:    u.now(),
	}); err != nil {
		return FestivalOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toFestivalOutput(created, in.ProductIDs), nil
}

func (u *FestivalUsecase) AdminUpdateFestival(ctx context.Context, adminUserID int64, festivalID int64, in FestivalInput) (FestivalOutput, error) {
	if adminUserID <= 0 {
		return FestivalOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if festivalID <= 0 {
		return FestivalOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := u.validateInput(in); err != nil {
		return FestivalOutput{}, err
	}
	if err := u.validateProducts(ctx, in.ProductIDs); err != nil {
		return FestivalOutput{}, err
	}

	before, err := u.festivalRepo.FindByID(ctx, festivalID)
	if err == repo.ErrNotFound {
		return FestivalOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return FestivalOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	now := u.now()
	updated := before
	updated.Name = strings.TrimSpace(in.Name)
	updated.DiscountPercentage = in.DiscountPercentage
	updated.StartDate = in.StartDate
	updated.EndDate = in.EndDate
	updated.Status = model.ComputeFestivalStatus(in.StartDate, in.EndDate, now)
	updated.UpdatedAt = now

	if err := u.festivalRepo.Update(ctx, updated); err != nil {
		if err == repo.ErrNotFound {
			return FestivalOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return FestivalOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.festivalRepo.ReplaceProducts(ctx, festivalID, in.ProductIDs); err != nil {
		return FestivalOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//監査ログ（変更前後の差分）
	beforeJSON := fmt.Sprintf(`{"name":%q,"discount_percentage":%d,"status":%q}`,
		before.Name, before.DiscountPercentage, before.Status)
	afterJSON := fmt.Sprintf(`{"name":%q,"discount_percentage":%d,"status":%q}`,
		updated.Name, updated.DiscountPercentage, updated.Status)
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateFestival,
		ResourceType: model.AuditResourceFestival,
		ResourceID:   festivalID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    u.now(),
	}); err != nil {
		return FestivalOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toFestivalOutput(updated, in.ProductIDs), nil
}

func (u *FestivalUsecase) GetFestival(ctx context.Context, festivalID int64) (FestivalOutput, error) {
	if festivalID <= 0 {
		return FestivalOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	f, err := u.festivalRepo.FindByID(ctx, festivalID)
	if err == repo.ErrNotFound {
		return FestivalOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return FestivalOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	productIDs, err := u.festivalRepo.ListProductIDs(ctx, festivalID)
	if err != nil {
		return FestivalOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toFestivalOutput(f, productIDs), nil
}

func (u *FestivalUsecase) ListFestivals(ctx context.Context, page int, limit int) (FestivalListOutput, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	festivals, total, err := u.festivalRepo.List(ctx, page, limit)
	if err != nil {
		return FestivalListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := FestivalListOutput{
		Festivals: make([]FestivalOutput, 0, len(festivals)),
		Total:     total,
		Page:      page,
		Limit:     limit,
	}
	for _, f := range festivals {
		productIDs, err := u.festivalRepo.ListProductIDs(ctx, f.ID)
		if err != nil {
			return FestivalListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.Festivals = append(out.Festivals, toFestivalOutput(f, productIDs))
	}
	return out, nil
}

func toFestivalOutput(f model.Festival, productIDs []int64) FestivalOutput {
	if productIDs == nil {
		productIDs = []int64{}
	}
	return FestivalOutput{
		ID:                 f.ID,
		Name:               f.Name,
		DiscountPercentage: f.DiscountPercentage,
		StartDate:          f.StartDate,
		EndDate:            f.EndDate,
		Status:             string(f.Status),
		ProductIDs:         productIDs,
		CreatedAt:          f.CreatedAt,
	}
}
