package model

import "time"

type MovementReason string

const (
	//注文で確保
	MovementReserve MovementReason = "RESERVE"
	//キャンセル・削除で戻す
	MovementRelease MovementReason = "RELEASE"
	//管理者の棚卸し調整
	MovementAdjust MovementReason = "ADJUST"
)

// 在庫変動の履歴（追記のみ）
type InventoryMovement struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemKind    ItemKind       `gorm:"type:varchar(20);not null;index:ix_inventory_movements_item" json:"item_kind"`
	ItemID      int64          `gorm:"not null;index:ix_inventory_movements_item" json:"item_id"`
	OrderID     *int64         `gorm:"index" json:"order_id,omitempty"`
	ActorUserID *int64         `json:"actor_user_id,omitempty"`
	Delta       int64          `gorm:"not null" json:"delta"`
	Reason      MovementReason `gorm:"type:varchar(20);not null" json:"reason"`
	Note        string         `gorm:"type:varchar(255)" json:"note"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (m InventoryMovement) Ref() ItemRef {
	return ItemRef{Kind: m.ItemKind, ID: m.ItemID}
}
