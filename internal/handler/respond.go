package handler

import (
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 全エンドポイント共通のレスポンス形式。
// 正常時は data にペイロード、エラー時は meta だけを返す。
type Meta struct {
	HasError bool   `json:"has_error"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
}

type Envelope struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data,omitempty"`
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{
		Meta: Meta{HasError: false, Message: "success", Status: status},
		Data: data,
	})
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{
		Meta: Meta{HasError: true, Message: message, Status: status},
	})
}

// usecase層のエラーをHTTPステータスへ割り当てる。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if se, ok := usecase.AsInsufficientStockError(err); ok {
		he := se.ToHTTPError()
		return respondError(c, he.Status, he.Message)
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return respondError(c, he.Status, he.Message)
	}

	//500
	return respondError(c, http.StatusInternalServerError, "internal error")
}
