package model

import (
	"errors"
	"fmt"
	"strings"
)

// 在庫を持つ商品の種類
type ItemKind string

const (
	ItemKindVehicle ItemKind = "VEHICLE"
	ItemKindPart    ItemKind = "PART"
)

var ErrUnknownItemKind = errors.New("unknown item kind")

// 在庫がマイナスになる調整
var ErrNegativeStock = errors.New("stock would become negative")

// 大文字小文字は区別しない（"vehicle" / "PART" どちらも可）
func ParseItemKind(s string) (ItemKind, error) {
	k := ItemKind(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := catalogFactories[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownItemKind, s)
	}
	return k, nil
}

// 商品の参照（種類 + ID）
type ItemRef struct {
	Kind ItemKind `json:"kind"`
	ID   int64    `json:"id"`
}

func (r ItemRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// StockableItem は値段と在庫を持つカタログ商品。
// 車両も部品もこれを満たすので、注文処理側は種類で分岐しない。
type StockableItem interface {
	Ref() ItemRef
	DisplayName() string
	UnitPrice() int64
	Available() bool
	StockQuantity() int64
	// 在庫をdelta分動かす（マイナスになるならErrNegativeStock）
	AdjustStock(delta int64) error
	Clone() StockableItem
}

// 種類→空モデルの対応表。保存層はここだけを見る。
var catalogFactories = map[ItemKind]func() StockableItem{
	ItemKindVehicle: func() StockableItem { return &Vehicle{} },
	ItemKindPart:    func() StockableItem { return &Part{} },
}

// 種類に対応する空のモデル（ポインタ）を返す
func NewStockableItem(kind ItemKind) (StockableItem, error) {
	f, ok := catalogFactories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItemKind, kind)
	}
	return f(), nil
}

func adjustStock(stock *int64, delta int64) error {
	if *stock+delta < 0 {
		return ErrNegativeStock
	}
	*stock += delta
	return nil
}
