package repository

import (
	"context"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"

	"gorm.io/gorm"
)

type InventoryMovementGormRepository struct {
	db *gorm.DB
}

func NewInventoryMovementGormRepository(db *gorm.DB) *InventoryMovementGormRepository {
	return &InventoryMovementGormRepository{db: db}
}

func (r *InventoryMovementGormRepository) Create(ctx context.Context, m model.InventoryMovement) error {
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *InventoryMovementGormRepository) ListByItem(ctx context.Context, ref model.ItemRef) ([]model.InventoryMovement, error) {
	var ms []model.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("item_kind = ? AND item_id = ?", ref.Kind, ref.ID).
		Order("id asc").
		Find(&ms).Error
	if err != nil {
		return []model.InventoryMovement{}, err
	}
	return ms, nil
}
