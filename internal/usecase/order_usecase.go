package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/notification"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx       repo.TransactionManager
	notifier notification.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewOrderUsecase(tx repo.TransactionManager, notifier notification.Notifier, log *zap.Logger) *OrderUsecase {
	return &OrderUsecase{
		tx:       tx,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

type ShippingAddressInput struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type PlaceOrderInput struct {
	ShippingAddress ShippingAddressInput
	IdempotencyKey  string
}

type OrderItemOutput struct {
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	DiscountPrice int64  `json:"discount_price"`
	Quantity      int64  `json:"quantity"`
}

type OrderStatusHistoryOutput struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	UpdatedBy *int64    `json:"updated_by,omitempty"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderOutput struct {
	ID                 int64                      `json:"id"`
	UserID             int64                      `json:"user_id"`
	Status             string                     `json:"status"`
	FestivalID         *int64                     `json:"festival_id,omitempty"`
	PaymentID          *int64                     `json:"payment_id,omitempty"`
	TotalPrice         int64                      `json:"total_price"`
	TotalDiscountPrice int64                      `json:"total_discount_price"`
	ShippingAddress    model.ShippingAddress      `json:"shipping_address"`
	CreatedAt          time.Time                  `json:"created_at"`
	Items              []OrderItemOutput          `json:"items"`
	StatusHistory      []OrderStatusHistoryOutput `json:"status_history,omitempty"`
}

// カートを確定して注文を作る。
// 在庫確認→割引解決→在庫減算→注文保存→カートクリア→PENDING履歴まで
// を1トランザクションで行い、途中で失敗したら全部ロールバックする。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateShippingAddress(in.ShippingAddress); err != nil {
		return OrderOutput{}, err
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			o, err := u.loadOrderOutput(ctx, r, existing, false)
			if err != nil {
				return err
			}
			out = o
			return nil
		}

		//ACTIVEカート取得
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//カート明細取得
		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		//先に全明細を検証してから在庫に触る
		products := make(map[int64]model.Product, len(cartItems))
		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, "invalid")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "invalid")
			}
			if p.Stock < ci.Quantity {
				return &InsufficientStockError{ProductID: ci.ProductID}
			}
			products[ci.ProductID] = p
		}

		now := u.now()
		resolver := NewDiscountResolver(r.Festivals())

		shipping := model.ShippingAddress{
			Address:    strings.TrimSpace(in.ShippingAddress.Address),
			City:       strings.TrimSpace(in.ShippingAddress.City),
			PostalCode: strings.TrimSpace(in.ShippingAddress.PostalCode),
			Country:    strings.TrimSpace(in.ShippingAddress.Country),
		}

		//割引解決。注文に記録するフェスティバルは最初にヒットした1件。
		var orderFestivalID *int64
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		var total int64 = 0
		var totalDiscount int64 = 0

		for _, ci := range cartItems {
			p := products[ci.ProductID]

			resolved, err := resolver.ResolvePrice(ctx, ci.ProductID, ci.UnitPriceSnapshot, now)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			discountPrice := ci.DiscountPriceSnapshot
			if resolved.FestivalID != nil {
				discountPrice = resolved.Price
				if orderFestivalID == nil {
					orderFestivalID = resolved.FestivalID
				}
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:             ci.ProductID,
				ProductNameSnapshot:   p.Name,
				UnitPriceSnapshot:     ci.UnitPriceSnapshot,
				DiscountPriceSnapshot: discountPrice,
				Quantity:              ci.Quantity,
				CreatedAt:             now,
			})

			total += ci.UnitPriceSnapshot * ci.Quantity
			totalDiscount += discountPrice * ci.Quantity
		}

		//在庫減算（足りないなら false）。失敗したらTxごと巻き戻る。
		for _, ci := range cartItems {
			ok, err := r.Inventory().Debit(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return &InsufficientStockError{ProductID: ci.ProductID}
			}
		}

		// 注文作成
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:             userID,
			FestivalID:         orderFestivalID,
			TotalPrice:         total,
			TotalDiscountPrice: totalDiscount,
			ShippingAddress:    shipping,
			IdempotencyKey:     key,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			//競合（同時で同じキーが入った等）はもう一回検索して同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err2 == nil && found2 {
				o, err3 := u.loadOrderOutput(ctx, r, ex2, false)
				if err3 != nil {
					return err3
				}
				out = o
				return nil
			}
			return NewHTTPError(http.StatusBadRequest, "idempotency conflict")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//カートをCHECKED_OUTにして、明細をクリア（再注文防止）
		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//初期ステータス（履歴の1行目）
		if _, err := r.StatusHistory().Append(ctx, model.OrderStatusHistory{
			OrderID:   orderID,
			Status:    model.OrderStatusPending,
			UpdatedBy: &userID,
			Notes:     "Order created",
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = OrderOutput{
			ID:                 orderID,
			UserID:             userID,
			Status:             string(model.OrderStatusPending),
			FestivalID:         orderFestivalID,
			TotalPrice:         total,
			TotalDiscountPrice: totalDiscount,
			ShippingAddress:    shipping,
			CreatedAt:          now,
			Items:              toOrderItemOutputs(orderItems),
		}
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	//通知は投げっぱなし。失敗してもログに残すだけで注文は成立させる。
	u.notifyAsync(notification.Event{
		Type:    notification.EventOrderCreated,
		UserID:  out.UserID,
		OrderID: out.ID,
	})

	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//ページングはまずは固定で取る
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			out, err := u.loadOrderOutput(ctx, r, o, false)
			if err != nil {
				return err
			}
			outs = append(outs, out)
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 注文詳細（全履歴つき）
func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		out, err = u.loadOrderOutput(ctx, r, o, true)
		return err
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 管理者向け注文一覧
func (u *OrderUsecase) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			out, err := u.loadOrderOutput(ctx, r, o, false)
			if err != nil {
				return err
			}
			outs = append(outs, out)
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 明細と履歴を合わせてOrderOutputを作る。
// withHistory=trueのときは全履歴、falseのときは現在ステータスだけ。
func (u *OrderUsecase) loadOrderOutput(ctx context.Context, r repo.TxRepos, o model.Order, withHistory bool) (OrderOutput, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := OrderOutput{
		ID:                 o.ID,
		UserID:             o.UserID,
		FestivalID:         o.FestivalID,
		PaymentID:          o.PaymentID,
		TotalPrice:         o.TotalPrice,
		TotalDiscountPrice: o.TotalDiscountPrice,
		ShippingAddress:    o.ShippingAddress,
		CreatedAt:          o.CreatedAt,
		Items:              toOrderItemOutputs(items),
	}

	latest, err := r.StatusHistory().Latest(ctx, o.ID)
	if err != nil && err != repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err == nil {
		out.Status = string(latest.Status)
	}

	if withHistory {
		rows, err := r.StatusHistory().ListByOrderID(ctx, o.ID)
		if err != nil {
			return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.StatusHistory = make([]OrderStatusHistoryOutput, 0, len(rows))
		for _, h := range rows {
			out.StatusHistory = append(out.StatusHistory, OrderStatusHistoryOutput{
				ID:        h.ID,
				Status:    string(h.Status),
				UpdatedBy: h.UpdatedBy,
				Notes:     h.Notes,
				CreatedAt: h.CreatedAt,
			})
		}
	}

	return out, nil
}

func (u *OrderUsecase) notifyAsync(ev notification.Event) {
	if u.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := u.notifier.Publish(ctx, ev); err != nil && u.log != nil {
			u.log.Warn("notification publish failed",
				zap.String("event", string(ev.Type)),
				zap.Int64("order_id", ev.OrderID),
				zap.Error(err))
		}
	}()
}

func toOrderItemOutputs(items []model.OrderItem) []OrderItemOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:     it.ProductID,
			Name:          it.ProductNameSnapshot,
			Price:         it.UnitPriceSnapshot,
			DiscountPrice: it.DiscountPriceSnapshot,
			Quantity:      it.Quantity,
		})
	}
	return outItems
}

func validateShippingAddress(a ShippingAddressInput) error {
	if strings.TrimSpace(a.Address) == "" {
		return NewHTTPError(http.StatusBadRequest, "address required")
	}
	if strings.TrimSpace(a.City) == "" {
		return NewHTTPError(http.StatusBadRequest, "city required")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return NewHTTPError(http.StatusBadRequest, "postal_code required")
	}
	if strings.TrimSpace(a.Country) == "" {
		return NewHTTPError(http.StatusBadRequest, "country required")
	}
	return nil
}
