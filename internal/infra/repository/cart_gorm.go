package repository

import (
	"context"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

// 同一商品は数量加算（ux_cart_items_line で upsert）
func (r *CartGormRepository) AddQuantity(ctx context.Context, userID int64, ref model.ItemRef, addQty int64) error {
	now := time.Now()
	item := model.CartItem{
		UserID:    userID,
		ItemKind:  ref.Kind,
		ItemID:    ref.ID,
		Quantity:  addQty,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "item_kind"}, {Name: "item_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
				"updated_at": now,
			}),
		}).
		Create(&item).Error
}

func (r *CartGormRepository) UpdateQuantity(ctx context.Context, userID int64, ref model.ItemRef, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("user_id = ? AND item_kind = ? AND item_id = ?", userID, ref.Kind, ref.ID).
		Updates(map[string]any{"quantity": qty, "updated_at": time.Now()})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartGormRepository) Delete(ctx context.Context, userID int64, ref model.ItemRef) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND item_kind = ? AND item_id = ?", userID, ref.Kind, ref.ID).
		Delete(&model.CartItem{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 注文した明細だけ消す（注文中に追加された別の商品は残す）
func (r *CartGormRepository) Clear(ctx context.Context, userID int64, refs []model.ItemRef) error {
	if len(refs) == 0 {
		return nil
	}

	pairs := make([][]any, 0, len(refs))
	for _, ref := range refs {
		pairs = append(pairs, []any{ref.Kind, ref.ID})
	}

	return r.db.WithContext(ctx).
		Where("user_id = ? AND (item_kind, item_id) IN ?", userID, pairs).
		Delete(&model.CartItem{}).Error
}
