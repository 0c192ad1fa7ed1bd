package repository

import (
	"context"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 車両・部品どちらも同じ書き方で扱う（テーブルはモデルから決まる）
type CatalogGormRepository struct {
	db *gorm.DB
}

func NewCatalogGormRepository(db *gorm.DB) *CatalogGormRepository {
	return &CatalogGormRepository{db: db}
}

func (r *CatalogGormRepository) FindItem(ctx context.Context, ref model.ItemRef) (model.StockableItem, error) {
	return r.findItem(r.db.WithContext(ctx), ref)
}

// SELECT ... FOR UPDATE
func (r *CatalogGormRepository) FindItemForUpdate(ctx context.Context, ref model.ItemRef) (model.StockableItem, error) {
	return r.findItem(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), ref)
}

func (r *CatalogGormRepository) findItem(q *gorm.DB, ref model.ItemRef) (model.StockableItem, error) {
	item, err := model.NewStockableItem(ref.Kind)
	if err != nil {
		return nil, repo.ErrNotFound
	}

	err = q.Where("id = ?", ref.ID).First(item).Error
	if isNotFound(err) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// 販売中かつ在庫が足りるときだけ減らす
func (r *CatalogGormRepository) DecreaseStockIfEnough(ctx context.Context, ref model.ItemRef, qty int64) (bool, error) {
	item, err := model.NewStockableItem(ref.Kind)
	if err != nil {
		return false, nil
	}

	res := r.db.WithContext(ctx).
		Model(item).
		Where("id = ? AND is_available = ? AND stock >= ?", ref.ID, true, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 在庫戻し（キャンセル）
func (r *CatalogGormRepository) IncreaseStock(ctx context.Context, ref model.ItemRef, qty int64) error {
	item, err := model.NewStockableItem(ref.Kind)
	if err != nil {
		return repo.ErrNotFound
	}

	res := r.db.WithContext(ctx).
		Model(item).
		Where("id = ?", ref.ID).
		Update("stock", gorm.Expr("stock + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 在庫の現在値を設定
func (r *CatalogGormRepository) SetStock(ctx context.Context, ref model.ItemRef, newStock int64) error {
	item, err := model.NewStockableItem(ref.Kind)
	if err != nil {
		return repo.ErrNotFound
	}

	res := r.db.WithContext(ctx).
		Model(item).
		Where("id = ?", ref.ID).
		Update("stock", newStock)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
