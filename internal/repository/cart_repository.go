package repository

import (
	"context"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
)

type CartRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 同一商品はプラス
	AddQuantity(ctx context.Context, userID int64, ref model.ItemRef, addQty int64) error
	UpdateQuantity(ctx context.Context, userID int64, ref model.ItemRef, qty int64) error
	Delete(ctx context.Context, userID int64, ref model.ItemRef) error
	// 指定した商品の明細だけ消す（チェックアウト後）
	Clear(ctx context.Context, userID int64, refs []model.ItemRef) error
}
