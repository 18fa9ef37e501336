package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 在庫不足。どの商品で足りなかったかを持つ。
type InsufficientStockError struct {
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

// handlerのwriteErrorが409に割り当てられるようHTTPErrorへ変換する
func (e *InsufficientStockError) ToHTTPError() *HTTPError {
	return &HTTPError{Status: http.StatusConflict, Message: e.Error()}
}

func AsInsufficientStockError(err error) (*InsufficientStockError, bool) {
	var se *InsufficientStockError
	ok := errors.As(err, &se)
	return se, ok
}
