package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type PaymentCreateRequest struct {
	OrderID int64  `json:"order_id"`
	Amount  int64  `json:"amount"`
	Method  string `json:"payment_method"`
}

type PaymentStatusUpdateRequest struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/payments")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("", h.create)
	g.GET("/:id", h.detail)
	g.POST("/:id/process", h.process)
	g.PUT("/:id/status", h.updateStatus)
}

func (h *PaymentHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req PaymentCreateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.CreatePayment(c.Request().Context(), userID, usecase.CreatePaymentInput{
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Method:  req.Method,
	})
	if err != nil {
		return writeError(c, err)
	}

	return respond(c, http.StatusCreated, out)
}

func (h *PaymentHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid id")
	}

	out, err := h.uc.GetPayment(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, out)
}

func (h *PaymentHandler) process(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid id")
	}

	out, err := h.uc.ProcessPayment(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, out)
}

func (h *PaymentHandler) updateStatus(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid id")
	}

	var req PaymentStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.UpdatePaymentStatus(c.Request().Context(), userID, id, usecase.UpdatePaymentStatusInput{
		Status:        req.Status,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, out)
}
