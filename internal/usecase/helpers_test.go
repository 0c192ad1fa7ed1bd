package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/infra/memory"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/notification"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"

	"github.com/stretchr/testify/require"
)

var (
	vehicleRef = model.ItemRef{Kind: model.ItemKindVehicle, ID: 1}
	partRef    = model.ItemRef{Kind: model.ItemKindPart, ID: 1}
	admin      = Actor{UserID: 100, Admin: true}
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var october = time.Date(2026, time.October, 17, 10, 0, 0, 0, time.UTC)

// 車両1台（在庫5、300万）と部品1つ（在庫50、1200）
func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.NewStore()
	s.PutItem(&model.Vehicle{
		ID: 1, Make: "Toyota", Model: "Corolla", ModelYear: 2021,
		VIN: "JT000000000000001", Price: 3000000, Stock: 5, IsAvailable: true,
	})
	s.PutItem(&model.Part{
		ID: 1, Name: "Brake pad", SKU: "BP-1", Price: 1200, Stock: 50, IsAvailable: true,
	})
	return s
}

func testAddress() model.ShippingAddress {
	return model.ShippingAddress{
		Recipient:  "Nimal Perera",
		PostalCode: "10100",
		City:       "Colombo",
		Line1:      "12 Galle Road",
		Country:    "LK",
	}
}

func testCheckoutInput() CheckoutInput {
	return CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   model.PaymentMethodBankTransfer,
		ContactEmail:    "buyer@example.com",
	}
}

func addToCart(t *testing.T, s *memory.Store, userID int64, ref model.ItemRef, qty int64) {
	t.Helper()
	require.NoError(t, s.Carts().AddQuantity(context.Background(), userID, ref, qty))
}

func stock(t *testing.T, s *memory.Store, ref model.ItemRef) int64 {
	t.Helper()
	it, ok := s.Item(ref)
	require.True(t, ok)
	return it.StockQuantity()
}

func newCheckout(s *memory.Store, g notification.Gateway) *CheckoutUsecase {
	u := NewCheckoutUsecase(s, DefaultPricing(), g)
	u.now = fixedClock(october)
	return u
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxTries: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

func newLifecycle(tx repo.TransactionManager, g notification.Gateway) *OrderLifecycleUsecase {
	u := NewOrderLifecycleUsecase(tx, g, fastRetry())
	u.now = fixedClock(october.Add(time.Hour))
	return u
}

// 受け取ったイベントを記録するGateway
type recordingGateway struct {
	mu     sync.Mutex
	events []notification.Event
}

func (g *recordingGateway) Notify(_ context.Context, ev notification.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, ev)
}

func (g *recordingGateway) all() []notification.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]notification.Event(nil), g.events...)
}

var errTransient = errors.New("connection reset by peer")

// 最初のfailures回はTxを始める前に失敗する。
// afterCommit=true なら、コミットした上でエラーを返す（結果不明のケース）。
// onFail は失敗を返す直前に呼ばれる（試行の間に他の操作を挟む用）。
type flakyTx struct {
	inner       repo.TransactionManager
	failures    int
	afterCommit bool
	onFail      func()

	mu    sync.Mutex
	calls int
}

func (f *flakyTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if n > f.failures {
		return f.inner.WithinTx(ctx, fn)
	}
	if f.afterCommit {
		if err := f.inner.WithinTx(ctx, fn); err != nil {
			return err
		}
	}
	if f.onFail != nil {
		f.onFail()
	}
	return errTransient
}

func (f *flakyTx) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// TxReposの一部だけ差し替える
type overrideRepos struct {
	repo.TxRepos
	catalog repo.CatalogRepository
	orders  repo.OrderRepository
}

func (r overrideRepos) Catalog() repo.CatalogRepository {
	if r.catalog != nil {
		return r.catalog
	}
	return r.TxRepos.Catalog()
}

func (r overrideRepos) Orders() repo.OrderRepository {
	if r.orders != nil {
		return r.orders
	}
	return r.TxRepos.Orders()
}

type overrideTx struct {
	inner repo.TransactionManager
	wrap  func(r repo.TxRepos) repo.TxRepos
}

func (o overrideTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return o.inner.WithinTx(ctx, func(r repo.TxRepos) error {
		return fn(o.wrap(r))
	})
}

// 読んだ直後に他の注文が在庫を全部取っていった状態を作る
type racingCatalog struct {
	repo.CatalogRepository
}

func (c racingCatalog) DecreaseStockIfEnough(ctx context.Context, ref model.ItemRef, qty int64) (bool, error) {
	if err := c.CatalogRepository.SetStock(ctx, ref, 0); err != nil {
		return false, err
	}
	return c.CatalogRepository.DecreaseStockIfEnough(ctx, ref, qty)
}

type failingOrders struct {
	repo.OrderRepository
	err error
}

func (o failingOrders) Create(context.Context, model.Order) (int64, error) {
	return 0, o.err
}

func requireKind(t *testing.T, err error, kind ErrorKind) *OrderError {
	t.Helper()
	require.Error(t, err)
	oe, ok := AsOrderError(err)
	require.True(t, ok, "expected *OrderError, got %T: %v", err, err)
	require.Equal(t, kind, oe.Kind, "error: %v", err)
	return oe
}

// 行ロックなしの読み取りを禁止する
type lockOnlyCatalog struct {
	repo.CatalogRepository
	locked int
}

func (c *lockOnlyCatalog) FindItem(context.Context, model.ItemRef) (model.StockableItem, error) {
	return nil, errors.New("unlocked read")
}

func (c *lockOnlyCatalog) FindItemForUpdate(ctx context.Context, ref model.ItemRef) (model.StockableItem, error) {
	c.locked++
	return c.CatalogRepository.FindItemForUpdate(ctx, ref)
}
