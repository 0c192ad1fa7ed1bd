package repository

import (
	"context"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
)

// 車両・部品の在庫と価格を扱う窓口。
// 種類ごとの違いは実装側で吸収する。
type CatalogRepository interface {
	// 商品を1件取得（無ければErrNotFound）
	FindItem(ctx context.Context, ref model.ItemRef) (model.StockableItem, error)

	// 行ロックを取って取得（上書き前の値を読むとき用）
	FindItemForUpdate(ctx context.Context, ref model.ItemRef) (model.StockableItem, error)

	// 販売中かつ在庫が足りるときだけ減算（1回の条件付きUPDATE）
	DecreaseStockIfEnough(ctx context.Context, ref model.ItemRef, qty int64) (bool, error)

	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, ref model.ItemRef, qty int64) error

	// 在庫の現在値を設定
	SetStock(ctx context.Context, ref model.ItemRef, newStock int64) error
}
