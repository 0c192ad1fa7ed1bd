package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"

	"github.com/rs/zerolog/log"
)

// 確保に失敗した理由
type StockFailureReason string

const (
	ReasonNotFound     StockFailureReason = "NOT_FOUND"
	ReasonUnavailable  StockFailureReason = "UNAVAILABLE"
	ReasonInsufficient StockFailureReason = "INSUFFICIENT"
)

// 在庫確保の失敗はすべてこれにerrors.Isで一致する
var ErrInsufficientStock = errors.New("insufficient stock")

type StockError struct {
	Item      model.ItemRef
	Reason    StockFailureReason
	Requested int64
	// 失敗時に見えた在庫（NOT_FOUNDなら0）
	Available int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock: %s %s (requested %d, available %d)",
		e.Item, e.Reason, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// InventoryLedger は在庫を動かす唯一の場所。
// 減算は条件付きUPDATE1回で行い、読んでから書くことはしない。
type InventoryLedger struct {
	catalog   repo.CatalogRepository
	movements repo.InventoryMovementRepository
}

func NewInventoryLedger(catalog repo.CatalogRepository, movements repo.InventoryMovementRepository) *InventoryLedger {
	return &InventoryLedger{catalog: catalog, movements: movements}
}

// トランザクション内のreposに載せ替える
func LedgerFor(r repo.TxRepos) *InventoryLedger {
	return NewInventoryLedger(r.Catalog(), r.Movements())
}

func (l *InventoryLedger) Reserve(ctx context.Context, ref model.ItemRef, qty int64, orderID int64) error {
	if qty <= 0 {
		return validationError("quantity must be > 0")
	}

	ok, err := l.catalog.DecreaseStockIfEnough(ctx, ref, qty)
	if err != nil {
		return fmt.Errorf("decrease stock %s: %w", ref, err)
	}
	if !ok {
		return l.classify(ctx, ref, qty)
	}

	return l.record(ctx, ref, -qty, model.MovementReserve, orderID, "")
}

// 在庫戻し。商品が消えていたら何もしない（警告ログのみ）。
func (l *InventoryLedger) Release(ctx context.Context, ref model.ItemRef, qty int64, orderID int64, note string) error {
	if qty <= 0 {
		return validationError("quantity must be > 0")
	}

	err := l.catalog.IncreaseStock(ctx, ref, qty)
	if errors.Is(err, repo.ErrNotFound) {
		log.Warn().
			Str("item", ref.String()).
			Int64("quantity", qty).
			Int64("order_id", orderID).
			Msg("inventory: release skipped, item no longer exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("increase stock %s: %w", ref, err)
	}

	return l.record(ctx, ref, qty, model.MovementRelease, orderID, note)
}

// 減算できなかった理由を読み直して分類するだけ（判定には使わない）
func (l *InventoryLedger) classify(ctx context.Context, ref model.ItemRef, qty int64) error {
	se := &StockError{Item: ref, Requested: qty}

	item, err := l.catalog.FindItem(ctx, ref)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		se.Reason = ReasonNotFound
	case err != nil:
		return fmt.Errorf("find item %s: %w", ref, err)
	case !item.Available():
		se.Reason = ReasonUnavailable
		se.Available = item.StockQuantity()
	default:
		se.Reason = ReasonInsufficient
		se.Available = item.StockQuantity()
	}
	return se
}

func (l *InventoryLedger) record(ctx context.Context, ref model.ItemRef, delta int64, reason model.MovementReason, orderID int64, note string) error {
	m := model.InventoryMovement{
		ItemKind:  ref.Kind,
		ItemID:    ref.ID,
		Delta:     delta,
		Reason:    reason,
		Note:      note,
		CreatedAt: time.Now(),
	}
	if orderID > 0 {
		id := orderID
		m.OrderID = &id
	}
	if err := l.movements.Create(ctx, m); err != nil {
		return fmt.Errorf("record movement %s: %w", ref, err)
	}
	return nil
}
