package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/notification"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// 操作する人。Admin=false なら本人の注文しか触れない。
type Actor struct {
	UserID int64
	Admin  bool
}

// キャンセル・削除（在庫戻しを伴う）の再試行設定
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxTries: 5, InitialInterval: 100 * time.Millisecond, MaxInterval: 2 * time.Second}
}

// 前進のみ。数字が大きいほど先。
var statusRank = map[model.OrderStatus]int{
	model.OrderStatusPending:    0,
	model.OrderStatusConfirmed:  1,
	model.OrderStatusProcessing: 2,
	model.OrderStatusShipped:    3,
	model.OrderStatusDelivered:  4,
}

type OrderLifecycleUsecase struct {
	tx       repo.TransactionManager
	notifier notification.Gateway
	retry    RetryPolicy
	now      func() time.Time
}

func NewOrderLifecycleUsecase(tx repo.TransactionManager, notifier notification.Gateway, retry RetryPolicy) *OrderLifecycleUsecase {
	if notifier == nil {
		notifier = notification.NopGateway{}
	}
	if retry.MaxTries == 0 {
		retry = DefaultRetryPolicy()
	}
	return &OrderLifecycleUsecase{tx: tx, notifier: notifier, retry: retry, now: time.Now}
}

func (u *OrderLifecycleUsecase) Confirm(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	return u.advance(ctx, actor, orderID, model.OrderStatusConfirmed)
}

func (u *OrderLifecycleUsecase) StartProcessing(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	return u.advance(ctx, actor, orderID, model.OrderStatusProcessing)
}

func (u *OrderLifecycleUsecase) Ship(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	return u.advance(ctx, actor, orderID, model.OrderStatusShipped)
}

func (u *OrderLifecycleUsecase) Deliver(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	return u.advance(ctx, actor, orderID, model.OrderStatusDelivered)
}

// 状態を前に進めるだけ（在庫は触らない）
func (u *OrderLifecycleUsecase) advance(ctx context.Context, actor Actor, orderID int64, target model.OrderStatus) (OrderOutput, error) {
	if err := requireAdmin(actor); err != nil {
		return OrderOutput{}, err
	}
	if orderID <= 0 {
		return OrderOutput{}, validationError("invalid id")
	}

	var out OrderOutput
	var changed model.Order
	var prev model.OrderStatus

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, items, err := loadForUpdate(ctx, r, orderID)
		if err != nil {
			return err
		}

		// すでに同じなら何もしない
		if o.Status == target {
			out = toOrderOutput(o, items)
			return nil
		}
		if o.Status.IsTerminal() || statusRank[target] < statusRank[o.Status] {
			return &OrderError{
				Kind:    KindInvalidTransition,
				Message: fmt.Sprintf("cannot move order from %s to %s", o.Status, target),
			}
		}

		prev = o.Status
		o.MoveTo(target, u.now())
		if err := r.Orders().Update(ctx, o); err != nil {
			return updateError(err)
		}
		if err := u.audit(ctx, r, actor, model.AuditActionUpdateOrderStatus, o.ID,
			statusJSON(prev), statusJSON(o.Status)); err != nil {
			return err
		}

		changed = o
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if changed.ID != 0 {
		u.statusChanged(ctx, actor, changed, prev)
	}
	return out, nil
}

// Cancel はPENDING/CONFIRMEDの注文を取り消し、明細分の在庫を戻す。
// 状態変更と在庫戻しは同じTxで、DB障害ならTxごと再試行する。
func (u *OrderLifecycleUsecase) Cancel(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	if actor.UserID <= 0 {
		return OrderOutput{}, unauthorized()
	}
	if orderID <= 0 {
		return OrderOutput{}, validationError("invalid id")
	}

	var out OrderOutput
	var changed model.Order
	var prev model.OrderStatus
	// 前の試行がコミット直前まで進んでいて、結果が分からない
	mayHaveCommitted := false

	err := u.withRetry(ctx, "cancel", orderID, func() error {
		changed = model.Order{}
		wrote := false

		err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			o, items, err := loadForUpdate(ctx, r, orderID)
			if err != nil {
				return err
			}
			if !actor.Admin && o.UserID != actor.UserID {
				return orderNotFound()
			}

			// 自分の前回の試行がコミット済みだった
			if o.Status == model.OrderStatusCancelled && mayHaveCommitted {
				out = toOrderOutput(o, items)
				return nil
			}
			if !o.Status.IsCancellable() {
				return &OrderError{
					Kind:    KindNotCancellable,
					Message: fmt.Sprintf("order in status %s cannot be cancelled", o.Status),
				}
			}

			prev = o.Status
			o.MoveTo(model.OrderStatusCancelled, u.now())
			if err := r.Orders().Update(ctx, o); err != nil {
				return updateError(err)
			}

			//在庫戻し（キャンセル）
			if err := releaseLines(ctx, r, o.ID, items, "order cancelled"); err != nil {
				return err
			}

			if err := u.audit(ctx, r, actor, model.AuditActionUpdateOrderStatus, o.ID,
				statusJSON(prev), statusJSON(o.Status)); err != nil {
				return err
			}

			changed = o
			out = toOrderOutput(o, items)
			wrote = true
			return nil
		})
		if err != nil && wrote {
			mayHaveCommitted = true
		}
		return err
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if changed.ID != 0 {
		u.statusChanged(ctx, actor, changed, prev)
	}
	return out, nil
}

// Delete は管理者による削除。キャンセル済みでなければ先に在庫を戻す。
func (u *OrderLifecycleUsecase) Delete(ctx context.Context, actor Actor, orderID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if orderID <= 0 {
		return validationError("invalid id")
	}

	mayHaveCommitted := false
	return u.withRetry(ctx, "delete", orderID, func() error {
		wrote := false

		err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			o, items, err := loadForUpdate(ctx, r, orderID)
			if err != nil {
				// 自分の前回の試行で消えている
				if mayHaveCommitted && IsKind(err, KindOrderNotFound) {
					return nil
				}
				return err
			}

			if o.Status != model.OrderStatusCancelled {
				if err := releaseLines(ctx, r, o.ID, items, "order deleted"); err != nil {
					return err
				}
			}

			if err := r.OrderItems().DeleteByOrderID(ctx, o.ID); err != nil {
				return persistenceFailure(err)
			}
			if err := r.Orders().Delete(ctx, o.ID); err != nil {
				return updateError(err)
			}

			before := fmt.Sprintf(`{"order_number":%q,"status":%q,"total_amount":%d}`, o.OrderNumber, o.Status, o.TotalAmount)
			if err := u.audit(ctx, r, actor, model.AuditActionDeleteOrder, o.ID, before, `{}`); err != nil {
				return err
			}

			log.Info().
				Int64("order_id", o.ID).
				Str("order_number", o.OrderNumber).
				Int64("actor_user_id", actor.UserID).
				Msg("order: deleted")
			wrote = true
			return nil
		})
		if err != nil && wrote {
			mayHaveCommitted = true
		}
		return err
	})
}

func (u *OrderLifecycleUsecase) MarkPaid(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	return u.setPayment(ctx, actor, orderID, model.PaymentStatusPaid)
}

func (u *OrderLifecycleUsecase) MarkFailed(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	return u.setPayment(ctx, actor, orderID, model.PaymentStatusFailed)
}

func (u *OrderLifecycleUsecase) MarkRefunded(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	return u.setPayment(ctx, actor, orderID, model.PaymentStatusRefunded)
}

// 支払状態は注文状態と連動させない
func (u *OrderLifecycleUsecase) setPayment(ctx context.Context, actor Actor, orderID int64, target model.PaymentStatus) (OrderOutput, error) {
	if err := requireAdmin(actor); err != nil {
		return OrderOutput{}, err
	}
	if orderID <= 0 {
		return OrderOutput{}, validationError("invalid id")
	}

	var out OrderOutput
	var changed model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, items, err := loadForUpdate(ctx, r, orderID)
		if err != nil {
			return err
		}
		if o.PaymentStatus == target {
			out = toOrderOutput(o, items)
			return nil
		}

		before := o.PaymentStatus
		o.PaymentStatus = target
		o.UpdatedAt = u.now()
		if err := r.Orders().Update(ctx, o); err != nil {
			return updateError(err)
		}
		if err := u.audit(ctx, r, actor, model.AuditActionUpdatePaymentStatus, o.ID,
			paymentJSON(before), paymentJSON(target)); err != nil {
			return err
		}

		changed = o
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if changed.ID != 0 {
		log.Info().
			Int64("order_id", changed.ID).
			Str("order_number", changed.OrderNumber).
			Str("payment_status", string(target)).
			Msg("order: payment status changed")
		u.notifier.Notify(ctx, notification.PaymentStatusChanged(changed, changed.UpdatedAt))
	}
	return out, nil
}

// 型付きエラー（業務上の失敗）は再試行しない。それ以外はDB障害として指数バックオフで再試行。
func (u *OrderLifecycleUsecase) withRetry(ctx context.Context, op string, orderID int64, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = u.retry.InitialInterval
	b.MaxInterval = u.retry.MaxInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn()
		if err == nil {
			return struct{}{}, nil
		}
		if oe, ok := AsOrderError(err); ok && !oe.Retryable() {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(u.retry.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().
				Err(err).
				Str("op", op).
				Int64("order_id", orderID).
				Dur("retry_in", next).
				Msg("order: transient failure, retrying")
		}),
	)
	// 最終試行のPermanentはそのまま返ってくる
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	if err != nil {
		if oe, ok := AsOrderError(err); !ok || oe.Retryable() {
			log.Error().Err(err).Str("op", op).Int64("order_id", orderID).Msg("order: gave up after retries")
		}
		return wrapPersistence(err)
	}
	return nil
}

func (u *OrderLifecycleUsecase) audit(ctx context.Context, r repo.TxRepos, actor Actor, action model.AuditAction, orderID int64, before, after string) error {
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actor.UserID,
		Action:       action,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   before,
		AfterJSON:    after,
		CreatedAt:    u.now(),
	}); err != nil {
		return persistenceFailure(err)
	}
	return nil
}

func (u *OrderLifecycleUsecase) statusChanged(ctx context.Context, actor Actor, o model.Order, prev model.OrderStatus) {
	log.Info().
		Int64("order_id", o.ID).
		Str("order_number", o.OrderNumber).
		Str("from", string(prev)).
		Str("to", string(o.Status)).
		Int64("actor_user_id", actor.UserID).
		Msg("order: status changed")
	u.notifier.Notify(ctx, notification.OrderStatusChanged(o, prev, o.UpdatedAt))
}

func requireAdmin(actor Actor) error {
	if actor.UserID <= 0 {
		return unauthorized()
	}
	if !actor.Admin {
		return newError(KindForbidden, "forbidden")
	}
	return nil
}

func loadForUpdate(ctx context.Context, r repo.TxRepos, orderID int64) (model.Order, []model.OrderItem, error) {
	o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, nil, orderNotFound()
	}
	if err != nil {
		return model.Order{}, nil, persistenceFailure(err)
	}
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return model.Order{}, nil, persistenceFailure(err)
	}
	return o, items, nil
}

func releaseLines(ctx context.Context, r repo.TxRepos, orderID int64, items []model.OrderItem, note string) error {
	ledger := LedgerFor(r)
	for _, it := range items {
		if err := ledger.Release(ctx, it.Ref(), it.Quantity, orderID, note); err != nil {
			return wrapPersistence(err)
		}
	}
	return nil
}

func updateError(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return orderNotFound()
	}
	return persistenceFailure(err)
}

func statusJSON(s model.OrderStatus) string {
	return fmt.Sprintf(`{"status":%q}`, s)
}

func paymentJSON(s model.PaymentStatus) string {
	return fmt.Sprintf(`{"payment_status":%q}`, s)
}
