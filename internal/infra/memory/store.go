package memory

import (
	"context"
	"sync"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"
)

type cartKey struct {
	userID int64
	ref    model.ItemRef
}

// Store はプロセス内で完結する保存層（開発用とテスト用）。
// トランザクションは1本ずつ直列に実行し、失敗したら記録した逆操作で元に戻す。
type Store struct {
	mu sync.Mutex

	items      map[model.ItemRef]model.StockableItem
	carts      map[cartKey]model.CartItem
	orders     map[int64]model.Order
	orderItems map[int64][]model.OrderItem
	sequences  map[string]int64
	movements  []model.InventoryMovement
	auditLogs  []model.AuditLog

	nextCartID      int64
	nextOrderID     int64
	nextOrderItemID int64
	nextMovementID  int64
	nextAuditID     int64
}

func NewStore() *Store {
	return &Store{
		items:      map[model.ItemRef]model.StockableItem{},
		carts:      map[cartKey]model.CartItem{},
		orders:     map[int64]model.Order{},
		orderItems: map[int64][]model.OrderItem{},
		sequences:  map[string]int64{},
	}
}

// 商品を登録（同じRefなら上書き）
func (s *Store) PutItem(item model.StockableItem) model.ItemRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := item.Ref()
	s.items[ref] = item.Clone()
	return ref
}

// 現在の商品（テストの確認用）
func (s *Store) Item(ref model.ItemRef) (model.StockableItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[ref]
	if !ok {
		return nil, false
	}
	return it.Clone(), true
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// Tx外で使うrepos（1操作ごとにロック）
func (s *Store) Catalog() repo.CatalogRepository              { return &catalogRepo{v: s.view(nil)} }
func (s *Store) Carts() repo.CartRepository                   { return &cartRepo{v: s.view(nil)} }
func (s *Store) Orders() repo.OrderRepository                 { return &orderRepo{v: s.view(nil)} }
func (s *Store) OrderItems() repo.OrderItemRepository         { return &orderItemRepo{v: s.view(nil)} }
func (s *Store) Movements() repo.InventoryMovementRepository  { return &movementRepo{v: s.view(nil)} }
func (s *Store) AuditLogs() repo.AuditLogRepository           { return &auditLogRepo{v: s.view(nil)} }
func (s *Store) OrderSequences() repo.OrderSequenceRepository { return &sequenceRepo{v: s.view(nil)} }

func (s *Store) view(tx *txState) *view { return &view{s: s, tx: tx} }

// WithinTx はfnを排他で実行し、エラーなら変更を全部戻す。
func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txState{}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
		if err != nil {
			tx.rollback()
		}
	}()

	return fn(&txRepos{v: s.view(tx)})
}

type txState struct {
	undo []func()
}

func (t *txState) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// view は1つのTx（またはTx外）から見たStore。
type view struct {
	s  *Store
	tx *txState
}

// Tx内ならロック済みなのでそのまま実行
func (v *view) run(fn func() error) error {
	if v.tx != nil {
		return fn()
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn()
}

func (v *view) onRollback(f func()) {
	if v.tx != nil {
		v.tx.undo = append(v.tx.undo, f)
	}
}

type txRepos struct {
	v *view
}

func (r *txRepos) Orders() repo.OrderRepository                 { return &orderRepo{v: r.v} }
func (r *txRepos) OrderItems() repo.OrderItemRepository         { return &orderItemRepo{v: r.v} }
func (r *txRepos) OrderSequences() repo.OrderSequenceRepository { return &sequenceRepo{v: r.v} }
func (r *txRepos) Carts() repo.CartRepository                   { return &cartRepo{v: r.v} }
func (r *txRepos) Catalog() repo.CatalogRepository              { return &catalogRepo{v: r.v} }
func (r *txRepos) Movements() repo.InventoryMovementRepository  { return &movementRepo{v: r.v} }
func (r *txRepos) AuditLogs() repo.AuditLogRepository           { return &auditLogRepo{v: r.v} }
