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

// 管理者向けの注文参照と配送ステータスの更新。
type AdminOrderHandler struct {
	uc       *usecase.OrderUsecase
	statusUC *usecase.OrderStatusUsecase
}

func NewAdminOrderHandler(uc *usecase.OrderUsecase, statusUC *usecase.OrderStatusUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, statusUC: statusUC}
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/orders", h.list)
	admin.PUT("/orders/:id/status", h.updateStatus)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "invalid page")
		}
		page = p
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "invalid limit")
		}
		limit = l
	}

	var userID *int64
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "invalid user_id")
		}
		userID = &id
	}

	var fromPtr *time.Time
	if v := c.QueryParam("from"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "invalid from")
		}
		fromPtr = &tm
	}

	var toPtr *time.Time
	if v := c.QueryParam("to"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "invalid to")
		}
		toPtr = &tm
	}

	out, err := h.uc.ListAdmin(c.Request().Context(), repository.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		UserID: userID,
		From:   fromPtr,
		To:     toPtr,
	})
	if err != nil {
		return writeError(c, err)
	}

	return respond(c, http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid id")
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}

	//監査ログに残すため操作した管理者IDを取得
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	}
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)

	out, err := h.statusUC.UpdateStatus(c.Request().Context(), adminID, role, orderID, usecase.UpdateOrderStatusInput{
		Status: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}

	return respond(c, http.StatusOK, out)
}
