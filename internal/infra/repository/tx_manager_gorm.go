package repository

import (
	"context"

	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	sequences  repo.OrderSequenceRepository
	carts      repo.CartRepository
	catalog    repo.CatalogRepository
	movements  repo.InventoryMovementRepository
	auditLogs  repo.AuditLogRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository                 { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository         { return r.orderItems }
func (r *txReposGorm) OrderSequences() repo.OrderSequenceRepository { return r.sequences }
func (r *txReposGorm) Carts() repo.CartRepository                   { return r.carts }
func (r *txReposGorm) Catalog() repo.CatalogRepository              { return r.catalog }
func (r *txReposGorm) Movements() repo.InventoryMovementRepository  { return r.movements }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository           { return r.auditLogs }

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
			orders:     NewOrderGormRepository(tx),
			orderItems: NewOrderItemGormRepository(tx),
			sequences:  NewOrderSequenceGormRepository(tx),
			carts:      NewCartGormRepository(tx),
			catalog:    NewCatalogGormRepository(tx),
			movements:  NewInventoryMovementGormRepository(tx),
			auditLogs:  NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}
