package model

import "time"

// 注文明細。作成後は変更しない。
// UnitPriceSnapshot は注文確定時の価格で、カタログを再参照しない。
type OrderItem struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID           int64     `gorm:"not null;index" json:"order_id"`
	ItemKind          ItemKind  `gorm:"type:varchar(20);not null" json:"item_kind"`
	ItemID            int64     `gorm:"not null" json:"item_id"`
	ItemNameSnapshot  string    `gorm:"type:varchar(255);not null" json:"item_name_snapshot"`
	UnitPriceSnapshot int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity          int64     `gorm:"not null" json:"quantity"`
	TotalPrice        int64     `gorm:"not null" json:"total_price"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (i OrderItem) Ref() ItemRef {
	return ItemRef{Kind: i.ItemKind, ID: i.ItemID}
}

// 明細を作る（total = 単価 × 数量）。桁あふれはErrAmountOutOfRange。
func NewOrderItem(item StockableItem, qty int64) (OrderItem, error) {
	total, err := MulAmount(item.UnitPrice(), qty)
	if err != nil {
		return OrderItem{}, err
	}
	ref := item.Ref()
	return OrderItem{
		ItemKind:          ref.Kind,
		ItemID:            ref.ID,
		ItemNameSnapshot:  item.DisplayName(),
		UnitPriceSnapshot: item.UnitPrice(),
		Quantity:          qty,
		TotalPrice:        total,
	}, nil
}
