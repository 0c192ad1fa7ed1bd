package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"

	"github.com/rs/zerolog/log"
)

type CatalogUsecase struct {
	tx          repo.TransactionManager
	catalogRepo repo.CatalogRepository
}

// DI
func NewCatalogUsecase(tx repo.TransactionManager, catalogRepo repo.CatalogRepository) *CatalogUsecase {
	return &CatalogUsecase{tx: tx, catalogRepo: catalogRepo}
}

// 公開中の商品1件（非公開は404扱い）
func (u *CatalogUsecase) GetItem(ctx context.Context, ref model.ItemRef) (model.StockableItem, error) {
	if ref.ID <= 0 {
		return nil, validationError("invalid item id")
	}

	item, err := u.catalogRepo.FindItem(ctx, ref)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, newError(KindNotFound, "not found")
	}
	if err != nil {
		return nil, persistenceFailure(err)
	}
	if !item.Available() {
		return nil, newError(KindNotFound, "not found")
	}
	return item, nil
}

// AdminSetStock は棚卸しなどで在庫の現在値を上書きする。
// 差分をADJUSTとして履歴に残し、監査ログも書く。
func (u *CatalogUsecase) AdminSetStock(ctx context.Context, actor Actor, ref model.ItemRef, newStock int64, reason string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if ref.ID <= 0 {
		return validationError("invalid item id")
	}
	if newStock < 0 {
		return validationError("stock must be >= 0")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return validationError("reason required")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）。上書きまで他の確保・戻しを待たせる
		item, err := r.Catalog().FindItemForUpdate(ctx, ref)
		if errors.Is(err, repo.ErrNotFound) {
			return newError(KindNotFound, "not found")
		}
		if err != nil {
			return persistenceFailure(err)
		}
		before := item.StockQuantity()

		if err := r.Catalog().SetStock(ctx, ref, newStock); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return newError(KindNotFound, "not found")
			}
			return persistenceFailure(err)
		}

		now := time.Now()
		actorID := actor.UserID
		if err := r.Movements().Create(ctx, model.InventoryMovement{
			ItemKind:    ref.Kind,
			ItemID:      ref.ID,
			ActorUserID: &actorID,
			Delta:       newStock - before,
			Reason:      model.MovementAdjust,
			Note:        reason,
			CreatedAt:   now,
		}); err != nil {
			return persistenceFailure(err)
		}

		//監査ログを作成（在庫更新）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceForItem(ref.Kind),
			ResourceID:   ref.ID,
			BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, before),
			AfterJSON:    fmt.Sprintf(`{"stock":%d}`, newStock),
			CreatedAt:    now,
		}); err != nil {
			return persistenceFailure(err)
		}

		log.Info().
			Str("item", ref.String()).
			Int64("before", before).
			Int64("after", newStock).
			Int64("actor_user_id", actor.UserID).
			Msg("inventory: stock adjusted")
		return nil
	})
}

// 在庫変動履歴（管理者用）
func (u *CatalogUsecase) AdminListMovements(ctx context.Context, actor Actor, ref model.ItemRef) ([]model.InventoryMovement, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if ref.ID <= 0 {
		return nil, validationError("invalid item id")
	}

	var out []model.InventoryMovement
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ms, err := r.Movements().ListByItem(ctx, ref)
		if err != nil {
			return persistenceFailure(err)
		}
		out = ms
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
