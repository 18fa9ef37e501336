package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	statusHistory repo.OrderStatusHistoryRepository
	payments      repo.PaymentRepository
	carts         repo.CartRepository
	cartItems     repo.CartItemRepository
	inventory     repo.InventoryRepository
	products      repo.ProductRepository
	festivals     repo.FestivalRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository                      { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository              { return r.orderItems }
func (r *txReposGorm) StatusHistory() repo.OrderStatusHistoryRepository  { return r.statusHistory }
func (r *txReposGorm) Payments() repo.PaymentRepository                  { return r.payments }
func (r *txReposGorm) Carts() repo.CartRepository                        { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository                { return r.cartItems }
func (r *txReposGorm) Inventory() repo.InventoryRepository               { return r.inventory }
func (r *txReposGorm) Products() repo.ProductRepository                  { return r.products }
func (r *txReposGorm) Festivals() repo.FestivalRepository                { return r.festivals }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:        NewOrderGormRepository(tx),
			orderItems:    NewOrderItemGormRepository(tx),
			statusHistory: NewOrderStatusGormRepository(tx),
			payments:      NewPaymentGormRepository(tx),
			carts:         NewCartGormRepository(tx),
			cartItems:     NewCartGormRepository(tx),
			inventory:     NewInventoryGormRepository(tx),
			products:      NewProductGormRepository(tx),
			festivals:     NewFestivalGormRepository(tx),
		}
		return fn(r)
	})
}
