package repository

import (
	"context"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
)

// 在庫変動履歴
type InventoryMovementRepository interface {
	Create(ctx context.Context, m model.InventoryMovement) error
	ListByItem(ctx context.Context, ref model.ItemRef) ([]model.InventoryMovement, error)
}
