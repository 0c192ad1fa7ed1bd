package memory

import (
	"context"
	"sort"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"
)

type orderRepo struct {
	v *view
}

func (r *orderRepo) FindByID(_ context.Context, orderID int64) (model.Order, error) {
	var out model.Order
	err := r.v.run(func() error {
		o, ok := r.v.s.orders[orderID]
		if !ok {
			return repo.ErrNotFound
		}
		out = o
		return nil
	})
	return out, err
}

// Tx自体が排他なので通常のFindByIDと同じ
func (r *orderRepo) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *orderRepo) FindByOrderNumber(_ context.Context, orderNumber string) (model.Order, error) {
	var out model.Order
	err := r.v.run(func() error {
		for _, o := range r.v.s.orders {
			if o.OrderNumber == orderNumber {
				out = o
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (r *orderRepo) FindByIdempotencyKey(_ context.Context, userID int64, key string) (model.Order, bool, error) {
	var out model.Order
	var found bool
	err := r.v.run(func() error {
		if key == "" {
			return nil
		}
		for _, o := range r.v.s.orders {
			if o.UserID == userID && o.IdempotencyKey == key {
				out, found = o, true
				return nil
			}
		}
		return nil
	})
	return out, found, err
}

func (r *orderRepo) ListByUserID(_ context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	var total int64
	err := r.v.run(func() error {
		all := r.v.s.filterOrders(func(o model.Order) bool { return o.UserID == userID })
		total = int64(len(all))
		out = paginate(all, page, limit)
		return nil
	})
	return out, total, err
}

func (r *orderRepo) Create(_ context.Context, order model.Order) (int64, error) {
	var id int64
	err := r.v.run(func() error {
		for _, o := range r.v.s.orders {
			if o.OrderNumber == order.OrderNumber {
				return repo.ErrConflict
			}
			if order.IdempotencyKey != "" && o.UserID == order.UserID && o.IdempotencyKey == order.IdempotencyKey {
				return repo.ErrConflict
			}
		}
		r.v.s.nextOrderID++
		id = r.v.s.nextOrderID
		order.ID = id
		r.v.s.orders[id] = order
		r.v.onRollback(func() { delete(r.v.s.orders, id) })
		return nil
	})
	return id, err
}

func (r *orderRepo) Update(_ context.Context, order model.Order) error {
	return r.v.run(func() error {
		prev, ok := r.v.s.orders[order.ID]
		if !ok {
			return repo.ErrNotFound
		}
		r.v.s.orders[order.ID] = order
		r.v.onRollback(func() { r.v.s.orders[order.ID] = prev })
		return nil
	})
}

func (r *orderRepo) Delete(_ context.Context, orderID int64) error {
	return r.v.run(func() error {
		prev, ok := r.v.s.orders[orderID]
		if !ok {
			return repo.ErrNotFound
		}
		delete(r.v.s.orders, orderID)
		r.v.onRollback(func() { r.v.s.orders[orderID] = prev })
		return nil
	})
}

func (r *orderRepo) ListAdmin(_ context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	var out []model.Order
	var total int64
	err := r.v.run(func() error {
		all := r.v.s.filterOrders(func(o model.Order) bool {
			if f.Status != "" && string(o.Status) != f.Status {
				return false
			}
			if f.PaymentStatus != "" && string(o.PaymentStatus) != f.PaymentStatus {
				return false
			}
			if f.UserID != nil && o.UserID != *f.UserID {
				return false
			}
			if f.From != nil && o.CreatedAt.Before(*f.From) {
				return false
			}
			if f.To != nil && o.CreatedAt.After(*f.To) {
				return false
			}
			return true
		})
		total = int64(len(all))
		out = paginate(all, f.Page, f.Limit)
		return nil
	})
	return out, total, err
}

// 新しい順
func (s *Store) filterOrders(keep func(model.Order) bool) []model.Order {
	out := []model.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func paginate[T any](all []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return []T{}
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

type orderItemRepo struct {
	v *view
}

func (r *orderItemRepo) CreateBulk(_ context.Context, orderID int64, items []model.OrderItem) error {
	return r.v.run(func() error {
		prev, existed := r.v.s.orderItems[orderID]
		next := append([]model.OrderItem(nil), prev...)
		for _, it := range items {
			r.v.s.nextOrderItemID++
			it.ID = r.v.s.nextOrderItemID
			it.OrderID = orderID
			next = append(next, it)
		}
		r.v.s.orderItems[orderID] = next
		r.v.onRollback(func() { r.restore(orderID, prev, existed) })
		return nil
	})
}

func (r *orderItemRepo) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	var out []model.OrderItem
	err := r.v.run(func() error {
		out = append([]model.OrderItem{}, r.v.s.orderItems[orderID]...)
		return nil
	})
	return out, err
}

func (r *orderItemRepo) DeleteByOrderID(_ context.Context, orderID int64) error {
	return r.v.run(func() error {
		prev, existed := r.v.s.orderItems[orderID]
		delete(r.v.s.orderItems, orderID)
		r.v.onRollback(func() { r.restore(orderID, prev, existed) })
		return nil
	})
}

func (r *orderItemRepo) restore(orderID int64, prev []model.OrderItem, existed bool) {
	if existed {
		r.v.s.orderItems[orderID] = prev
		return
	}
	delete(r.v.s.orderItems, orderID)
}

type sequenceRepo struct {
	v *view
}

func (r *sequenceRepo) Next(_ context.Context, period string) (int64, error) {
	var n int64
	err := r.v.run(func() error {
		prev := r.v.s.sequences[period]
		n = prev + 1
		r.v.s.sequences[period] = n
		r.v.onRollback(func() { r.v.s.sequences[period] = prev })
		return nil
	})
	return n, err
}
