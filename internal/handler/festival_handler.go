package handler

import (
	"net/http"
	"strconv"
	"time"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type FestivalHandler struct {
	uc *usecase.FestivalUsecase
}

func NewFestivalHandler(uc *usecase.FestivalUsecase) *FestivalHandler {
	return &FestivalHandler{uc: uc}
}

type FestivalRequest struct {
	Name               string    `json:"name"`
	DiscountPercentage int64     `json:"discount_percentage"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	ProductIDs         []int64   `json:"product_ids"`
}

func (h *FestivalHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	//公開側は誰でも見られる
	e.GET("/festivals", h.list)
	e.GET("/festivals/:id", h.detail)

	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("/festivals", h.create)
	admin.PUT("/festivals/:id", h.update)
	admin.GET("/festivals", h.list)
	admin.GET("/festivals/:id", h.detail)
}

func (h *FestivalHandler) list(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "invalid page")
		}
		page = p
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "invalid limit")
		}
		limit = l
	}

	out, err := h.uc.ListFestivals(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, out)
}

func (h *FestivalHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid id")
	}

	out, err := h.uc.GetFestival(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, out)
}

func (h *FestivalHandler) create(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req FestivalRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.AdminCreateFestival(c.Request().Context(), adminID, usecase.FestivalInput{
		Name:               req.Name,
		DiscountPercentage: req.DiscountPercentage,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		ProductIDs:         req.ProductIDs,
	})
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusCreated, out)
}

func (h *FestivalHandler) update(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid id")
	}

	var req FestivalRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.AdminUpdateFestival(c.Request().Context(), adminID, id, usecase.FestivalInput{
		Name:               req.Name,
		DiscountPercentage: req.DiscountPercentage,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		ProductIDs:         req.ProductIDs,
	})
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, out)
}
