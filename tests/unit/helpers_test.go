package unit

import (
	"context"
	"strings"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/mock"
)

// エラーメッセージの部分一致を確認する
func assertErrContains(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error containing %q, got %q", want, err.Error())
	}
}

// =====================
// Tx配下のrepositoryモック群
// =====================

type TxOrderRepoMock struct{ mock.Mock }

func (m *TxOrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *TxOrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *TxOrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TxOrderRepoMock) SetPaymentID(ctx context.Context, orderID int64, paymentID int64) error {
	args := m.Called(ctx, orderID, paymentID)
	return args.Error(0)
}

func (m *TxOrderRepoMock) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *TxOrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type TxOrderItemRepoMock struct{ mock.Mock }

func (m *TxOrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *TxOrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type TxStatusHistoryRepoMock struct{ mock.Mock }

func (m *TxStatusHistoryRepoMock) Append(ctx context.Context, h model.OrderStatusHistory) (model.OrderStatusHistory, error) {
	args := m.Called(ctx, h)
	row, _ := args.Get(0).(model.OrderStatusHistory)
	return row, args.Error(1)
}

func (m *TxStatusHistoryRepoMock) Latest(ctx context.Context, orderID int64) (model.OrderStatusHistory, error) {
	args := m.Called(ctx, orderID)
	row, _ := args.Get(0).(model.OrderStatusHistory)
	return row, args.Error(1)
}

func (m *TxStatusHistoryRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error) {
	args := m.Called(ctx, orderID)
	rows, _ := args.Get(0).([]model.OrderStatusHistory)
	return rows, args.Error(1)
}

type TxPaymentRepoMock struct{ mock.Mock }

func (m *TxPaymentRepoMock) Create(ctx context.Context, p model.Payment) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TxPaymentRepoMock) FindByID(ctx context.Context, paymentID int64) (model.Payment, error) {
	args := m.Called(ctx, paymentID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

func (m *TxPaymentRepoMock) UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus, transactionID *string) error {
	args := m.Called(ctx, paymentID, status, transactionID)
	return args.Error(0)
}

type TxCartRepoMock struct{ mock.Mock }

func (m *TxCartRepoMock) GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *TxCartRepoMock) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *TxCartRepoMock) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	args := m.Called(ctx, cartID, status)
	return args.Error(0)
}

func (m *TxCartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type TxCartItemRepoMock struct{ mock.Mock }

func (m *TxCartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *TxCartItemRepoMock) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, unitPriceSnapshot int64, discountPriceSnapshot int64) error {
	args := m.Called(ctx, cartID, productID, addQty, unitPriceSnapshot, discountPriceSnapshot)
	return args.Error(0)
}

func (m *TxCartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *TxCartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *TxCartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *TxCartItemRepoMock) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	args := m.Called(ctx, cartItemID, userID)
	return args.Bool(0), args.Error(1)
}

type TxInventoryRepoMock struct{ mock.Mock }

func (m *TxInventoryRepoMock) Debit(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *TxInventoryRepoMock) Credit(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *TxInventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	args := m.Called(ctx, productID, newStock)
	return args.Error(0)
}

func (m *TxInventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type TxProductRepoMock struct{ mock.Mock }

func (m *TxProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *TxProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *TxProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *TxProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *TxProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type TxFestivalRepoMock struct{ mock.Mock }

func (m *TxFestivalRepoMock) Create(ctx context.Context, f model.Festival) (model.Festival, error) {
	args := m.Called(ctx, f)
	created, _ := args.Get(0).(model.Festival)
	return created, args.Error(1)
}

func (m *TxFestivalRepoMock) Update(ctx context.Context, f model.Festival) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *TxFestivalRepoMock) FindByID(ctx context.Context, festivalID int64) (model.Festival, error) {
	args := m.Called(ctx, festivalID)
	f, _ := args.Get(0).(model.Festival)
	return f, args.Error(1)
}

func (m *TxFestivalRepoMock) List(ctx context.Context, page int, limit int) ([]model.Festival, int64, error) {
	args := m.Called(ctx, page, limit)
	fs, _ := args.Get(0).([]model.Festival)
	return fs, args.Get(1).(int64), args.Error(2)
}

func (m *TxFestivalRepoMock) ReplaceProducts(ctx context.Context, festivalID int64, productIDs []int64) error {
	args := m.Called(ctx, festivalID, productIDs)
	return args.Error(0)
}

func (m *TxFestivalRepoMock) ListProductIDs(ctx context.Context, festivalID int64) ([]int64, error) {
	args := m.Called(ctx, festivalID)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *TxFestivalRepoMock) ActiveForProduct(ctx context.Context, productID int64, at time.Time) ([]model.Festival, error) {
	args := m.Called(ctx, productID, at)
	fs, _ := args.Get(0).([]model.Festival)
	return fs, args.Error(1)
}

// =====================
// TxRepos / TransactionManager モック
// =====================

// Tx配下のrepo束。使うものだけ埋めればいい。
type TxReposMock struct {
	OrderRepo         *TxOrderRepoMock
	OrderItemRepo     *TxOrderItemRepoMock
	StatusHistoryRepo *TxStatusHistoryRepoMock
	PaymentRepo       *TxPaymentRepoMock
	CartRepo          *TxCartRepoMock
	CartItemRepo      *TxCartItemRepoMock
	InventoryRepo     *TxInventoryRepoMock
	ProductRepo       *TxProductRepoMock
	FestivalRepo      *TxFestivalRepoMock
}

func newTxReposMock() *TxReposMock {
	return &TxReposMock{
		OrderRepo:         new(TxOrderRepoMock),
		OrderItemRepo:     new(TxOrderItemRepoMock),
		StatusHistoryRepo: new(TxStatusHistoryRepoMock),
		PaymentRepo:       new(TxPaymentRepoMock),
		CartRepo:          new(TxCartRepoMock),
		CartItemRepo:      new(TxCartItemRepoMock),
		InventoryRepo:     new(TxInventoryRepoMock),
		ProductRepo:       new(TxProductRepoMock),
		FestivalRepo:      new(TxFestivalRepoMock),
	}
}

func (m *TxReposMock) Orders() repo.OrderRepository                    { return m.OrderRepo }
func (m *TxReposMock) OrderItems() repo.OrderItemRepository            { return m.OrderItemRepo }
func (m *TxReposMock) StatusHistory() repo.OrderStatusHistoryRepository { return m.StatusHistoryRepo }
func (m *TxReposMock) Payments() repo.PaymentRepository                { return m.PaymentRepo }
func (m *TxReposMock) Carts() repo.CartRepository                      { return m.CartRepo }
func (m *TxReposMock) CartItems() repo.CartItemRepository              { return m.CartItemRepo }
func (m *TxReposMock) Inventory() repo.InventoryRepository             { return m.InventoryRepo }
func (m *TxReposMock) Products() repo.ProductRepository                { return m.ProductRepo }
func (m *TxReposMock) Festivals() repo.FestivalRepository              { return m.FestivalRepo }

func (m *TxReposMock) AssertExpectations(t *testing.T) {
	t.Helper()
	m.OrderRepo.AssertExpectations(t)
	m.OrderItemRepo.AssertExpectations(t)
	m.StatusHistoryRepo.AssertExpectations(t)
	m.PaymentRepo.AssertExpectations(t)
	m.CartRepo.AssertExpectations(t)
	m.CartItemRepo.AssertExpectations(t)
	m.InventoryRepo.AssertExpectations(t)
	m.ProductRepo.AssertExpectations(t)
	m.FestivalRepo.AssertExpectations(t)
}

// commit/rollbackはせず、渡されたfnをそのまま実行する。
// fnがerrorを返せばロールバック相当（そのerrorを返す）。
type TxManagerMock struct {
	Repos *TxReposMock
}

func newTxManagerMock() *TxManagerMock {
	return &TxManagerMock{Repos: newTxReposMock()}
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.Repos)
}
