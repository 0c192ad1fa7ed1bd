package memory

import (
	"context"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"
)

type catalogRepo struct {
	v *view
}

func (r *catalogRepo) FindItem(_ context.Context, ref model.ItemRef) (model.StockableItem, error) {
	var out model.StockableItem
	err := r.v.run(func() error {
		it, ok := r.v.s.items[ref]
		if !ok {
			return repo.ErrNotFound
		}
		out = it.Clone()
		return nil
	})
	return out, err
}

// Tx自体が排他なので通常のFindItemと同じ
func (r *catalogRepo) FindItemForUpdate(ctx context.Context, ref model.ItemRef) (model.StockableItem, error) {
	return r.FindItem(ctx, ref)
}

// 在庫確認と減算を同じロックの中で行う
func (r *catalogRepo) DecreaseStockIfEnough(_ context.Context, ref model.ItemRef, qty int64) (bool, error) {
	ok := false
	err := r.v.run(func() error {
		it, found := r.v.s.items[ref]
		if !found || !it.Available() || it.StockQuantity() < qty {
			return nil
		}
		if err := it.AdjustStock(-qty); err != nil {
			return nil
		}
		r.v.onRollback(func() { _ = it.AdjustStock(qty) })
		ok = true
		return nil
	})
	return ok, err
}

func (r *catalogRepo) IncreaseStock(_ context.Context, ref model.ItemRef, qty int64) error {
	return r.v.run(func() error {
		it, found := r.v.s.items[ref]
		if !found {
			return repo.ErrNotFound
		}
		if err := it.AdjustStock(qty); err != nil {
			return err
		}
		r.v.onRollback(func() { _ = it.AdjustStock(-qty) })
		return nil
	})
}

func (r *catalogRepo) SetStock(_ context.Context, ref model.ItemRef, newStock int64) error {
	return r.v.run(func() error {
		it, found := r.v.s.items[ref]
		if !found {
			return repo.ErrNotFound
		}
		delta := newStock - it.StockQuantity()
		if err := it.AdjustStock(delta); err != nil {
			return err
		}
		r.v.onRollback(func() { _ = it.AdjustStock(-delta) })
		return nil
	})
}
