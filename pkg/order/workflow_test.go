package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/eshiroflex/pkg/models"
)

// fakeStore keeps everything in maps and gives InTx real
// commit-or-rollback semantics by snapshotting before the callback and
// restoring on error. The store mutex is held for the whole
// transaction, so concurrent placements serialize like they would
// against the database.
type fakeStore struct {
	mu         sync.Mutex
	products   map[string]*models.Product
	cart       map[string][]models.CartItem
	orders     map[string]*models.Order
	orderItems map[string][]models.OrderItem

	failOn string
}

func newWorkflowStore() *fakeStore {
	return &fakeStore{
		products:   make(map[string]*models.Product),
		cart:       make(map[string][]models.CartItem),
		orders:     make(map[string]*models.Order),
		orderItems: make(map[string][]models.OrderItem),
	}
}

func (f *fakeStore) snapshot() *fakeStore {
	s := newWorkflowStore()
	for id, p := range f.products {
		cp := *p
		s.products[id] = &cp
	}
	for u, items := range f.cart {
		s.cart[u] = append([]models.CartItem(nil), items...)
	}
	for id, o := range f.orders {
		cp := *o
		s.orders[id] = &cp
	}
	for id, items := range f.orderItems {
		s.orderItems[id] = append([]models.OrderItem(nil), items...)
	}
	return s
}

func (f *fakeStore) restore(s *fakeStore) {
	f.products = s.products
	f.cart = s.cart
	f.orders = s.orders
	f.orderItems = s.orderItems
}

func (f *fakeStore) CartLines(_ context.Context, userID string) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CartItem(nil), f.cart[userID]...), nil
}

func (f *fakeStore) Product(_ context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) Order(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	cp.Items = append([]models.OrderItem(nil), f.orderItems[id]...)
	return &cp, nil
}

func (f *fakeStore) OrdersByUser(_ context.Context, userID string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := f.snapshot()
	if err := fn(&fakeTx{s: f}); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

type fakeTx struct {
	s *fakeStore
}

func (t *fakeTx) CreateOrder(o *models.Order) error {
	if t.s.failOn == "create_order" {
		return errors.New("mysql has gone away")
	}
	cp := *o
	t.s.orders[o.ID] = &cp
	return nil
}

func (t *fakeTx) CreateOrderItems(items []models.OrderItem) error {
	if t.s.failOn == "create_order_items" {
		return errors.New("mysql has gone away")
	}
	for _, it := range items {
		t.s.orderItems[it.OrderID] = append(t.s.orderItems[it.OrderID], it)
	}
	return nil
}

func (t *fakeTx) DecrementStock(productID string, qty uint) error {
	p, ok := t.s.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	if p.Stock < qty {
		return ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

func (t *fakeTx) ClearCart(userID string) error {
	if t.s.failOn == "clear_cart" {
		return errors.New("mysql has gone away")
	}
	delete(t.s.cart, userID)
	return nil
}

func (t *fakeTx) Order(id string) (*models.Order, error) {
	o, ok := t.s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (t *fakeTx) OrderItems(orderID string) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), t.s.orderItems[orderID]...), nil
}

func (t *fakeTx) UpdateOrderTotal(orderID string, total decimal.Decimal) error {
	o, ok := t.s.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.TotalPrice = total
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	placed []string
}

func (n *fakeNotifier) OrderPlaced(orderID, _ string, _ decimal.Decimal, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, orderID)
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.placed)
}

type noopAuditor struct{}

func (noopAuditor) Record(context.Context, string, string, string, map[string]interface{}) error {
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestWorkflow(t *testing.T) (*Workflow, *fakeStore, *fakeNotifier) {
	t.Helper()
	store := newWorkflowStore()
	notifier := &fakeNotifier{}
	return NewWorkflow(store, noopAuditor{}, notifier, zap.NewNop()), store, notifier
}

func seedCatalog(store *fakeStore) {
	store.products["prod-a"] = &models.Product{ID: "prod-a", Name: "Runner A", Price: dec("10.00"), Stock: 5}
	store.products["prod-b"] = &models.Product{ID: "prod-b", Name: "Runner B", Price: dec("5.00"), Stock: 3}
}

func TestPlaceOrderFromCart(t *testing.T) {
	w, store, notifier := newTestWorkflow(t)
	seedCatalog(store)
	store.cart["user-1"] = []models.CartItem{
		{ID: "c1", UserID: "user-1", ProductID: "prod-a", Quantity: 2},
		{ID: "c2", UserID: "user-1", ProductID: "prod-b", Quantity: 1},
	}

	o, err := w.PlaceOrder(context.Background(), "user-1")
	require.NoError(t, err)

	assert.True(t, o.TotalPrice.Equal(dec("25.00")), "total %s", o.TotalPrice)
	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[0].Price.Equal(dec("20.00")))
	assert.True(t, o.Items[1].Price.Equal(dec("5.00")))
	assert.Equal(t, "Runner A", o.Items[0].ProductName)

	// Stock decremented, cart cleared.
	assert.Equal(t, uint(3), store.products["prod-a"].Stock)
	assert.Equal(t, uint(2), store.products["prod-b"].Stock)
	assert.Empty(t, store.cart["user-1"])

	// Total reconciles with the captured item prices.
	sum := decimal.Zero
	for _, it := range store.orderItems[o.ID] {
		sum = sum.Add(it.Price)
	}
	assert.True(t, o.TotalPrice.Equal(sum))

	assert.Equal(t, 1, notifier.count())
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	w, store, notifier := newTestWorkflow(t)
	seedCatalog(store)

	_, err := w.PlaceOrder(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, store.orders)
	assert.Zero(t, notifier.count())
}

func TestPlaceOrderMissingProduct(t *testing.T) {
	w, store, _ := newTestWorkflow(t)
	seedCatalog(store)
	store.cart["user-1"] = []models.CartItem{
		{ID: "c1", UserID: "user-1", ProductID: "prod-a", Quantity: 1},
		{ID: "c2", UserID: "user-1", ProductID: "ghost", Quantity: 1},
	}

	_, err := w.PlaceOrder(context.Background(), "user-1")
	require.ErrorIs(t, err, ErrProductNotFound)
	assert.Contains(t, err.Error(), "ghost")

	// No partial order for the valid line.
	assert.Empty(t, store.orders)
	assert.Equal(t, uint(5), store.products["prod-a"].Stock)
	assert.Len(t, store.cart["user-1"], 2)
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	w, store, notifier := newTestWorkflow(t)
	seedCatalog(store)
	store.cart["user-1"] = []models.CartItem{
		{ID: "c1", UserID: "user-1", ProductID: "prod-a", Quantity: 2},
		{ID: "c2", UserID: "user-1", ProductID: "prod-b", Quantity: 4}, // stock is 3
	}

	_, err := w.PlaceOrder(context.Background(), "user-1")
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "prod-b")

	// Whole transaction rolled back: no order, no stock change, cart intact.
	assert.Empty(t, store.orders)
	assert.Empty(t, store.orderItems)
	assert.Equal(t, uint(5), store.products["prod-a"].Stock)
	assert.Equal(t, uint(3), store.products["prod-b"].Stock)
	assert.Len(t, store.cart["user-1"], 2)
	assert.Zero(t, notifier.count())
}

func TestPlaceOrderInfrastructureFailure(t *testing.T) {
	w, store, notifier := newTestWorkflow(t)
	seedCatalog(store)
	store.cart["user-1"] = []models.CartItem{
		{ID: "c1", UserID: "user-1", ProductID: "prod-a", Quantity: 2},
	}
	store.failOn = "create_order_items"

	_, err := w.PlaceOrder(context.Background(), "user-1")
	// Surfaced as the generic placement error, not the store detail.
	require.ErrorIs(t, err, ErrPlacementFailed)
	assert.NotContains(t, err.Error(), "mysql")

	assert.Empty(t, store.orders)
	assert.Equal(t, uint(5), store.products["prod-a"].Stock)
	assert.Len(t, store.cart["user-1"], 1)
	assert.Zero(t, notifier.count())
}

func TestCapturedPriceSurvivesCatalogChange(t *testing.T) {
	w, store, _ := newTestWorkflow(t)
	seedCatalog(store)
	store.cart["user-1"] = []models.CartItem{
		{ID: "c1", UserID: "user-1", ProductID: "prod-a", Quantity: 2},
	}

	o, err := w.PlaceOrder(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, o.TotalPrice.Equal(dec("20.00")))

	// Catalog price doubles after the sale.
	store.products["prod-a"].Price = dec("40.00")

	got, err := w.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalPrice.Equal(dec("20.00")))
	assert.True(t, got.Items[0].Price.Equal(dec("20.00")))

	// Recomputing the total uses captured item prices only.
	recalced, err := w.RecalculateTotal(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, recalced.TotalPrice.Equal(dec("20.00")))
}

func TestConcurrentPlacementsNeverOversell(t *testing.T) {
	w, store, _ := newTestWorkflow(t)
	store.products["prod-a"] = &models.Product{ID: "prod-a", Name: "Runner A", Price: dec("10.00"), Stock: 10}

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = w.PlaceItems(context.Background(), "user-1", []Line{{ProductID: "prod-a", Quantity: 3}})
		}(i)
	}
	wg.Wait()

	placed := 0
	for _, err := range errs {
		if err == nil {
			placed++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}

	// 10 / 3 per order: exactly three can commit.
	assert.Equal(t, 3, placed)
	assert.Equal(t, uint(1), store.products["prod-a"].Stock)
}

func TestPlaceItemsValidation(t *testing.T) {
	w, store, _ := newTestWorkflow(t)
	seedCatalog(store)

	_, err := w.PlaceItems(context.Background(), "user-1", nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = w.PlaceItems(context.Background(), "user-1", []Line{{ProductID: "prod-a", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = w.PlaceItems(context.Background(), "user-1", []Line{{Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPlaceItemsDuplicateProductStaysSeparate(t *testing.T) {
	w, store, _ := newTestWorkflow(t)
	seedCatalog(store)

	o, err := w.PlaceItems(context.Background(), "user-1", []Line{
		{ProductID: "prod-a", Quantity: 1},
		{ProductID: "prod-a", Quantity: 2},
	})
	require.NoError(t, err)

	require.Len(t, o.Items, 2)
	assert.True(t, o.TotalPrice.Equal(dec("30.00")))
	assert.Equal(t, uint(2), store.products["prod-a"].Stock)
}

func TestZipLines(t *testing.T) {
	lines, err := ZipLines([]string{"a", "b"}, []uint{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []Line{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 2}}, lines)

	_, err = ZipLines(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = ZipLines([]string{"a"}, []uint{1, 2})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRecalculateTotal(t *testing.T) {
	w, store, _ := newTestWorkflow(t)
	store.orders["o1"] = &models.Order{ID: "o1", UserID: "user-1", TotalPrice: dec("1.00")}
	store.orderItems["o1"] = []models.OrderItem{
		{ID: "i1", OrderID: "o1", Quantity: 2, Price: dec("20.00")},
		{ID: "i2", OrderID: "o1", Quantity: 1, Price: dec("5.00")},
	}

	o, err := w.RecalculateTotal(context.Background(), "o1")
	require.NoError(t, err)
	assert.True(t, o.TotalPrice.Equal(dec("25.00")))
	assert.True(t, store.orders["o1"].TotalPrice.Equal(dec("25.00")))
}

func TestRecalculateTotalRejectsNonPositive(t *testing.T) {
	w, store, _ := newTestWorkflow(t)
	store.orders["o1"] = &models.Order{ID: "o1", UserID: "user-1", TotalPrice: dec("1.00")}

	_, err := w.RecalculateTotal(context.Background(), "o1")
	assert.ErrorIs(t, err, ErrInvalidOrderState)

	// Failed recalculation leaves the stored total untouched.
	assert.True(t, store.orders["o1"].TotalPrice.Equal(dec("1.00")))
}

func TestRecalculateTotalUnknownOrder(t *testing.T) {
	w, _, _ := newTestWorkflow(t)

	_, err := w.RecalculateTotal(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
