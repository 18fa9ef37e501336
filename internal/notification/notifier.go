package notification

import (
	"context"

	"go.uber.org/zap"
)

type EventType string

const (
	EventOrderCreated       EventType = "ORDER_CREATED"
	EventOrderStatusChanged EventType = "ORDER_STATUS_CHANGED"
	EventPaymentSucceeded   EventType = "PAYMENT_SUCCEEDED"
)

// 注文まわりのイベント通知。ユースケースからfire-and-forgetで呼ばれる。
type Event struct {
	Type    EventType `json:"type"`
	UserID  int64     `json:"user_id"`
	OrderID int64     `json:"order_id"`
	Detail  string    `json:"detail,omitempty"`
}

type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// Kafka未設定の環境向け。ログに出すだけで常に成功する。
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Publish(_ context.Context, ev Event) error {
	n.log.Info("event published",
		zap.String("type", string(ev.Type)),
		zap.Int64("user_id", ev.UserID),
		zap.Int64("order_id", ev.OrderID),
		zap.String("detail", ev.Detail))
	return nil
}
