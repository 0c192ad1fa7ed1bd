package usecase

import (
	"errors"
	"fmt"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
)

// 失敗の種類。handlerはこれを見てHTTPステータスを決める。
type ErrorKind string

const (
	KindValidation          ErrorKind = "VALIDATION"
	KindUnauthorized        ErrorKind = "UNAUTHORIZED"
	KindForbidden           ErrorKind = "FORBIDDEN"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindItemUnavailable     ErrorKind = "ITEM_UNAVAILABLE"
	KindOrderNotFound       ErrorKind = "ORDER_NOT_FOUND"
	KindNotCancellable      ErrorKind = "NOT_CANCELLABLE"
	KindInvalidTransition   ErrorKind = "INVALID_TRANSITION"
	KindConcurrencyConflict ErrorKind = "CONCURRENCY_CONFLICT"
	KindPersistenceFailure  ErrorKind = "PERSISTENCE_FAILURE"
)

// OrderError はusecaseが返す型付きの失敗。
// ItemUnavailable / ConcurrencyConflict では原因の商品をItemに入れる。
type OrderError struct {
	Kind    ErrorKind
	Message string
	Item    *model.ItemRef
	Reason  StockFailureReason
	Err     error
}

func (e *OrderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Item != nil {
		msg += " (" + e.Item.String() + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OrderError) Unwrap() error { return e.Err }

// 同じ入力でもう一度呼べば成功しうるか
func (e *OrderError) Retryable() bool {
	return e.Kind == KindConcurrencyConflict || e.Kind == KindPersistenceFailure
}

func AsOrderError(err error) (*OrderError, bool) {
	var oe *OrderError
	ok := errors.As(err, &oe)
	return oe, ok
}

// errがこの種類のOrderErrorか
func IsKind(err error, kind ErrorKind) bool {
	oe, ok := AsOrderError(err)
	return ok && oe.Kind == kind
}

func newError(kind ErrorKind, message string) *OrderError {
	return &OrderError{Kind: kind, Message: message}
}

func validationError(message string) error { return newError(KindValidation, message) }

func unauthorized() error { return newError(KindUnauthorized, "unauthorized") }

func orderNotFound() error { return newError(KindOrderNotFound, "order not found") }

func persistenceFailure(err error) error {
	return &OrderError{Kind: KindPersistenceFailure, Message: "db error", Err: err}
}

func itemUnavailable(ref model.ItemRef, reason StockFailureReason) error {
	r := ref
	return &OrderError{
		Kind:    KindItemUnavailable,
		Message: "item unavailable: " + string(reason),
		Item:    &r,
		Reason:  reason,
	}
}

func concurrencyConflict(message string, ref *model.ItemRef, err error) error {
	return &OrderError{Kind: KindConcurrencyConflict, Message: message, Item: ref, Err: err}
}

// すでにOrderErrorならそのまま、そうでなければDB障害として包む
func wrapPersistence(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsOrderError(err); ok {
		return err
	}
	return persistenceFailure(err)
}
