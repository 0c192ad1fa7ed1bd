package model

import "time"

// カートの明細
// (user_id, item_kind, item_id) で一意。同じ商品は数量を加算する。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:ux_cart_items_line" json:"user_id"`
	ItemKind  ItemKind  `gorm:"type:varchar(20);not null;uniqueIndex:ux_cart_items_line" json:"item_kind"`
	ItemID    int64     `gorm:"not null;uniqueIndex:ux_cart_items_line" json:"item_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (c CartItem) Ref() ItemRef {
	return ItemRef{Kind: c.ItemKind, ID: c.ItemID}
}
