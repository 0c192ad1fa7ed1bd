package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPart(id, stock int64) *model.Part {
	return &model.Part{ID: id, Name: "Brake pad", SKU: "BP-1", Price: 1200, Stock: stock, IsAvailable: true}
}

func stockOf(t *testing.T, s *Store, ref model.ItemRef) int64 {
	t.Helper()
	it, ok := s.Item(ref)
	require.True(t, ok)
	return it.StockQuantity()
}

func TestWithinTx_RollbackRestoresEverything(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	ref := s.PutItem(newPart(1, 5))
	require.NoError(t, s.Carts().AddQuantity(ctx, 9, ref, 2))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Catalog().DecreaseStockIfEnough(ctx, ref, 3)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = r.OrderSequences().Next(ctx, "202610")
		require.NoError(t, err)

		id, err := r.Orders().Create(ctx, model.Order{OrderNumber: "ORD-202610-0001", UserID: 9})
		require.NoError(t, err)
		require.NoError(t, r.OrderItems().CreateBulk(ctx, id, []model.OrderItem{{ItemKind: ref.Kind, ItemID: ref.ID, Quantity: 3}}))
		require.NoError(t, r.Carts().Clear(ctx, 9, []model.ItemRef{ref}))
		require.NoError(t, r.Movements().Create(ctx, model.InventoryMovement{ItemKind: ref.Kind, ItemID: ref.ID, Delta: -3}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int64(5), stockOf(t, s, ref))
	assert.Equal(t, 0, s.OrderCount())

	lines, err := s.Carts().ListByUserID(ctx, 9)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].Quantity)

	ms, err := s.Movements().ListByItem(ctx, ref)
	require.NoError(t, err)
	assert.Empty(t, ms)

	// 採番も戻る
	n, err := s.OrderSequences().Next(ctx, "202610")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDecreaseStockIfEnough(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	ref := s.PutItem(newPart(1, 2))

	ok, err := s.Catalog().DecreaseStockIfEnough(ctx, ref, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Catalog().DecreaseStockIfEnough(ctx, ref, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(0), stockOf(t, s, ref))

	disabled := newPart(2, 10)
	disabled.IsAvailable = false
	dref := s.PutItem(disabled)
	ok, err = s.Catalog().DecreaseStockIfEnough(ctx, dref, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Catalog().DecreaseStockIfEnough(ctx, model.ItemRef{Kind: model.ItemKindVehicle, ID: 99}, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecreaseStockIfEnough_Concurrent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	ref := s.PutItem(newPart(1, 7))

	var wins atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Catalog().DecreaseStockIfEnough(ctx, ref, 1)
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(7), wins.Load())
	assert.Equal(t, int64(0), stockOf(t, s, ref))
}

func TestOrders_DuplicateNumberIsConflict(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.Orders().Create(ctx, model.Order{OrderNumber: "ORD-202610-0001"})
	require.NoError(t, err)
	_, err = s.Orders().Create(ctx, model.Order{OrderNumber: "ORD-202610-0001"})
	assert.ErrorIs(t, err, repo.ErrConflict)
}

func TestOrders_IdempotencyKey(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	id, err := s.Orders().Create(ctx, model.Order{OrderNumber: "ORD-202610-0001", UserID: 1, IdempotencyKey: "k"})
	require.NoError(t, err)

	got, found, err := s.Orders().FindByIdempotencyKey(ctx, 1, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, got.ID)

	_, found, err = s.Orders().FindByIdempotencyKey(ctx, 2, "k")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = s.Orders().Create(ctx, model.Order{OrderNumber: "ORD-202610-0002", UserID: 1, IdempotencyKey: "k"})
	assert.ErrorIs(t, err, repo.ErrConflict)

	_, err = s.Orders().Create(ctx, model.Order{OrderNumber: "ORD-202610-0003", UserID: 2, IdempotencyKey: "k"})
	require.NoError(t, err)
	_, err = s.Orders().Create(ctx, model.Order{OrderNumber: "ORD-202610-0004", UserID: 1})
	require.NoError(t, err)
	_, err = s.Orders().Create(ctx, model.Order{OrderNumber: "ORD-202610-0005", UserID: 1})
	require.NoError(t, err)
}

func TestOrders_ListAdminFilterAndPaging(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	uid := int64(2)

	for i, st := range []model.OrderStatus{model.OrderStatusPending, model.OrderStatusShipped, model.OrderStatusPending} {
		_, err := s.Orders().Create(ctx, model.Order{
			OrderNumber: "ORD-202610-000" + string(rune('1'+i)),
			UserID:      int64(1 + i%2),
			Status:      st,
		})
		require.NoError(t, err)
	}

	got, total, err := s.Orders().ListAdmin(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 1, Status: "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, got, 1)
	assert.Equal(t, "ORD-202610-0003", got[0].OrderNumber)

	got, total, err = s.Orders().ListAdmin(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 10, UserID: &uid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, model.OrderStatusShipped, got[0].Status)
}

func TestCart_UpdateAndDeleteMissingLine(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	ref := model.ItemRef{Kind: model.ItemKindPart, ID: 1}

	assert.ErrorIs(t, s.Carts().UpdateQuantity(ctx, 1, ref, 2), repo.ErrNotFound)
	assert.ErrorIs(t, s.Carts().Delete(ctx, 1, ref), repo.ErrNotFound)

	require.NoError(t, s.Carts().AddQuantity(ctx, 1, ref, 1))
	require.NoError(t, s.Carts().AddQuantity(ctx, 1, ref, 2))
	lines, err := s.Carts().ListByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(3), lines[0].Quantity)
}

func TestWithinTx_CancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(repo.TxRepos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
