package notification

import (
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"

	"github.com/google/uuid"
)

type EventType string

const (
	EventOrderCreated         EventType = "ORDER_CREATED"
	EventOrderStatusChanged   EventType = "ORDER_STATUS_CHANGED"
	EventPaymentStatusChanged EventType = "PAYMENT_STATUS_CHANGED"
)

// 注文のライフサイクルイベント。宛先はRecipient（注文時の連絡先メール）。
type Event struct {
	ID             string              `json:"id"`
	Type           EventType           `json:"type"`
	OrderID        int64               `json:"order_id"`
	OrderNumber    string              `json:"order_number"`
	UserID         int64               `json:"user_id"`
	Recipient      string              `json:"recipient"`
	Status         model.OrderStatus   `json:"status"`
	PreviousStatus model.OrderStatus   `json:"previous_status,omitempty"`
	PaymentStatus  model.PaymentStatus `json:"payment_status"`
	TotalAmount    int64               `json:"total_amount"`
	GrandTotal     int64               `json:"grand_total"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

func newEvent(t EventType, o model.Order, at time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          t,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Recipient:     o.ContactEmail,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		GrandTotal:    o.GrandTotal(),
		OccurredAt:    at,
	}
}

func OrderCreated(o model.Order, at time.Time) Event {
	return newEvent(EventOrderCreated, o, at)
}

func OrderStatusChanged(o model.Order, previous model.OrderStatus, at time.Time) Event {
	ev := newEvent(EventOrderStatusChanged, o, at)
	ev.PreviousStatus = previous
	return ev
}

func PaymentStatusChanged(o model.Order, at time.Time) Event {
	return newEvent(EventPaymentStatusChanged, o, at)
}
