package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"
)

type cartRepo struct {
	v *view
}

func (r *cartRepo) ListByUserID(_ context.Context, userID int64) ([]model.CartItem, error) {
	out := []model.CartItem{}
	err := r.v.run(func() error {
		for k, ci := range r.v.s.carts {
			if k.userID == userID {
				out = append(out, ci)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r *cartRepo) AddQuantity(_ context.Context, userID int64, ref model.ItemRef, addQty int64) error {
	return r.v.run(func() error {
		k := cartKey{userID: userID, ref: ref}
		prev, existed := r.v.s.carts[k]
		now := time.Now()

		next := prev
		if existed {
			next.Quantity += addQty
			next.UpdatedAt = now
		} else {
			r.v.s.nextCartID++
			next = model.CartItem{
				ID:        r.v.s.nextCartID,
				UserID:    userID,
				ItemKind:  ref.Kind,
				ItemID:    ref.ID,
				Quantity:  addQty,
				CreatedAt: now,
				UpdatedAt: now,
			}
		}
		r.v.s.carts[k] = next
		r.v.onRollback(func() { r.restore(k, prev, existed) })
		return nil
	})
}

func (r *cartRepo) UpdateQuantity(_ context.Context, userID int64, ref model.ItemRef, qty int64) error {
	return r.v.run(func() error {
		k := cartKey{userID: userID, ref: ref}
		prev, existed := r.v.s.carts[k]
		if !existed {
			return repo.ErrNotFound
		}
		next := prev
		next.Quantity = qty
		next.UpdatedAt = time.Now()
		r.v.s.carts[k] = next
		r.v.onRollback(func() { r.restore(k, prev, true) })
		return nil
	})
}

func (r *cartRepo) Delete(_ context.Context, userID int64, ref model.ItemRef) error {
	return r.v.run(func() error {
		k := cartKey{userID: userID, ref: ref}
		prev, existed := r.v.s.carts[k]
		if !existed {
			return repo.ErrNotFound
		}
		delete(r.v.s.carts, k)
		r.v.onRollback(func() { r.restore(k, prev, true) })
		return nil
	})
}

func (r *cartRepo) Clear(_ context.Context, userID int64, refs []model.ItemRef) error {
	return r.v.run(func() error {
		for _, ref := range refs {
			k := cartKey{userID: userID, ref: ref}
			prev, existed := r.v.s.carts[k]
			if !existed {
				continue
			}
			delete(r.v.s.carts, k)
			r.v.onRollback(func() { r.restore(k, prev, true) })
		}
		return nil
	})
}

func (r *cartRepo) restore(k cartKey, prev model.CartItem, existed bool) {
	if existed {
		r.v.s.carts[k] = prev
		return
	}
	delete(r.v.s.carts, k)
}
