package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/notification"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"

	"github.com/rs/zerolog/log"
)

type CheckoutUsecase struct {
	tx       repo.TransactionManager
	pricing  Pricing
	notifier notification.Gateway
	now      func() time.Time
}

func NewCheckoutUsecase(tx repo.TransactionManager, pricing Pricing, notifier notification.Gateway) *CheckoutUsecase {
	if notifier == nil {
		notifier = notification.NopGateway{}
	}
	return &CheckoutUsecase{tx: tx, pricing: pricing, notifier: notifier, now: time.Now}
}

type CheckoutInput struct {
	ShippingAddress model.ShippingAddress
	PaymentMethod   model.PaymentMethod
	ContactEmail    string
	Notes           string
	// 同じキーの再送には最初の注文を返す（空ならチェックしない）
	IdempotencyKey string
}

// 例: ORD-202610-0007
func FormatOrderNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("ORD-%04d%02d-%04d", at.Year(), int(at.Month()), seq)
}

func orderPeriod(at time.Time) string {
	return fmt.Sprintf("%04d%02d", at.Year(), int(at.Month()))
}

func (in CheckoutInput) validate() error {
	if !in.ShippingAddress.IsComplete() {
		return validationError("shipping address incomplete")
	}
	if !in.PaymentMethod.IsValid() {
		return validationError("invalid payment method")
	}
	if len(in.Notes) > 1000 {
		return validationError("notes too long")
	}
	if len(in.IdempotencyKey) > 255 {
		return validationError("invalid idempotency key")
	}
	return nil
}

// Checkout はカートを注文に変える。
// 注文作成・在庫確保・カート削除は1トランザクションで、失敗時は何も残らない。
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, unauthorized()
	}
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	in.Notes = strings.TrimSpace(in.Notes)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if err := in.validate(); err != nil {
		return OrderOutput{}, err
	}

	var created model.Order
	var lines []model.OrderItem
	var replayed bool

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		if in.IdempotencyKey != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, in.IdempotencyKey)
			if err != nil {
				return persistenceFailure(err)
			}
			if found {
				items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
				if err != nil {
					return persistenceFailure(err)
				}
				created, lines, replayed = existing, items, true
				return nil
			}
		}

		cartLines, err := r.Carts().ListByUserID(ctx, userID)
		if err != nil {
			return persistenceFailure(err)
		}
		if len(cartLines) == 0 {
			return validationError("cart empty")
		}

		//行ごとに現在の商品を読んで、価格を確定する
		lines = make([]model.OrderItem, 0, len(cartLines))
		refs := make([]model.ItemRef, 0, len(cartLines))
		for _, cl := range cartLines {
			if cl.Quantity <= 0 {
				return validationError("invalid quantity")
			}

			item, err := r.Catalog().FindItem(ctx, cl.Ref())
			if errors.Is(err, repo.ErrNotFound) {
				return itemUnavailable(cl.Ref(), ReasonNotFound)
			}
			if err != nil {
				return persistenceFailure(err)
			}
			if !item.Available() {
				return itemUnavailable(cl.Ref(), ReasonUnavailable)
			}
			if item.StockQuantity() < cl.Quantity {
				return itemUnavailable(cl.Ref(), ReasonInsufficient)
			}

			line, err := model.NewOrderItem(item, cl.Quantity)
			if err != nil {
				return validationError("amount out of range")
			}
			lines = append(lines, line)
			refs = append(refs, cl.Ref())
		}

		quote, err := u.pricing.Quote(lines)
		if err != nil {
			return validationError("amount out of range")
		}

		now := u.now()

		//採番（月ごとのカウンタ、Txと一緒にロールバック）
		seq, err := r.OrderSequences().Next(ctx, orderPeriod(now))
		if err != nil {
			return persistenceFailure(err)
		}

		order := model.Order{
			OrderNumber:     FormatOrderNumber(now, seq),
			UserID:          userID,
			Status:          model.OrderStatusPending,
			PaymentStatus:   model.PaymentStatusPending,
			PaymentMethod:   in.PaymentMethod,
			ShippingAddress: in.ShippingAddress,
			ContactEmail:    in.ContactEmail,
			Notes:           in.Notes,
			IdempotencyKey:  in.IdempotencyKey,
			TotalAmount:     quote.Subtotal,
			ShippingFee:     quote.ShippingFee,
			TaxAmount:       quote.Tax,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		orderID, err := r.Orders().Create(ctx, order)
		//同時に同じキーが入った場合もここ。再試行すれば既存注文が返る
		if errors.Is(err, repo.ErrConflict) {
			return concurrencyConflict("order number or idempotency key already taken", nil, err)
		}
		if err != nil {
			return persistenceFailure(err)
		}
		order.ID = orderID

		for i := range lines {
			lines[i].OrderID = orderID
			lines[i].CreatedAt = now
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, lines); err != nil {
			return persistenceFailure(err)
		}

		//在庫確保（読んだ後に他の注文に取られたら競合）
		ledger := LedgerFor(r)
		for _, l := range lines {
			err := ledger.Reserve(ctx, l.Ref(), l.Quantity, orderID)
			if err == nil {
				continue
			}
			var se *StockError
			if errors.As(err, &se) {
				ref := se.Item
				return &OrderError{
					Kind:    KindConcurrencyConflict,
					Message: "stock taken by another order",
					Item:    &ref,
					Reason:  se.Reason,
					Err:     err,
				}
			}
			return wrapPersistence(err)
		}

		if err := r.Carts().Clear(ctx, userID, refs); err != nil {
			return persistenceFailure(err)
		}

		created = order
		return nil
	})
	if err != nil {
		logCheckoutFailure(userID, err)
		return OrderOutput{}, err
	}

	if replayed {
		log.Info().
			Int64("user_id", userID).
			Int64("order_id", created.ID).
			Str("order_number", created.OrderNumber).
			Msg("checkout: idempotent replay")
		return toOrderOutput(created, lines), nil
	}

	log.Info().
		Int64("user_id", userID).
		Int64("order_id", created.ID).
		Str("order_number", created.OrderNumber).
		Int64("total_amount", created.TotalAmount).
		Int("lines", len(lines)).
		Msg("checkout: order created")

	u.notifier.Notify(ctx, notification.OrderCreated(created, created.CreatedAt))

	return toOrderOutput(created, lines), nil
}

func logCheckoutFailure(userID int64, err error) {
	oe, ok := AsOrderError(err)
	if ok && !oe.Retryable() {
		log.Info().Int64("user_id", userID).Str("kind", string(oe.Kind)).Msg("checkout: rejected")
		return
	}
	log.Error().Err(err).Int64("user_id", userID).Msg("checkout: failed")
}
