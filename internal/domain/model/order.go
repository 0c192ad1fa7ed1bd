package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// DELIVERED / CANCELLED からは動かない
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// キャンセルできるのは PENDING / CONFIRMED だけ
func (s OrderStatus) IsCancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

func (s OrderStatus) String() string { return string(s) }

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) String() string { return string(s) }

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodFinancing    PaymentMethod = "FINANCING"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodFinancing:
		return true
	}
	return false
}

// 注文。TotalAmount は常に明細の TotalPrice の合計。
// 送料・税は別カラムで持つ。
type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber     string          `gorm:"type:varchar(32);not null;uniqueIndex" json:"order_number"`
	UserID          int64           `gorm:"not null;index" json:"user_id"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	ContactEmail    string          `gorm:"type:varchar(255)" json:"contact_email"`
	Notes           string          `gorm:"type:text" json:"notes"`
	// 二重送信防止キー（空なら重複チェックしない）
	IdempotencyKey string     `gorm:"type:varchar(255);not null;default:''" json:"-"`
	TotalAmount    int64      `gorm:"not null" json:"total_amount"`
	ShippingFee    int64      `gorm:"not null" json:"shipping_fee"`
	TaxAmount      int64      `gorm:"not null" json:"tax_amount"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	ProcessingAt   *time.Time `json:"processing_at,omitempty"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

// 支払総額（小計 + 送料 + 税）
func (o Order) GrandTotal() int64 {
	return o.TotalAmount + o.ShippingFee + o.TaxAmount
}

// ステータスを変えて、対応する時刻を記録する
func (o *Order) MoveTo(status OrderStatus, at time.Time) {
	o.Status = status
	o.UpdatedAt = at
	t := at
	switch status {
	case OrderStatusConfirmed:
		o.ConfirmedAt = &t
	case OrderStatusProcessing:
		o.ProcessingAt = &t
	case OrderStatusShipped:
		o.ShippedAt = &t
	case OrderStatusDelivered:
		o.DeliveredAt = &t
	case OrderStatusCancelled:
		o.CancelledAt = &t
	}
}
