package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/eshiroflex/pkg/catalog"
	"github.com/example/eshiroflex/pkg/models"
)

type fakeStore struct {
	lines map[string]*models.CartItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{lines: make(map[string]*models.CartItem)}
}

func (f *fakeStore) CartLine(_ context.Context, userID, productID string) (*models.CartItem, error) {
	for _, l := range f.lines {
		if l.UserID == userID && l.ProductID == productID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) CartLineByID(_ context.Context, id string) (*models.CartItem, error) {
	l, ok := f.lines[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) CreateCartLine(_ context.Context, item *models.CartItem) error {
	cp := *item
	f.lines[item.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateCartLineQuantity(_ context.Context, id string, quantity uint) error {
	l, ok := f.lines[id]
	if !ok {
		return ErrNotFound
	}
	l.Quantity = quantity
	return nil
}

func (f *fakeStore) DeleteCartLine(_ context.Context, id string) error {
	if _, ok := f.lines[id]; !ok {
		return ErrNotFound
	}
	delete(f.lines, id)
	return nil
}

func (f *fakeStore) CartLines(_ context.Context, userID string) ([]models.CartItem, error) {
	var out []models.CartItem
	for _, l := range f.lines {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

type fakeCatalog struct {
	products map[string]*models.Product
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeCatalog) {
	t.Helper()
	store := newFakeStore()
	cat := &fakeCatalog{products: map[string]*models.Product{
		"prod-a": {ID: "prod-a", Name: "Runner A", Price: dec("10.00"), Stock: 5, ImageURL: "http://img/a"},
		"prod-b": {ID: "prod-b", Name: "Runner B", Price: dec("5.00"), Stock: 3},
	}}
	return NewService(store, cat, zap.NewNop()), store, cat
}

func TestAddItemCreatesLine(t *testing.T) {
	svc, store, _ := newTestService(t)

	item, err := svc.AddItem(context.Background(), "user-1", "prod-a", 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), item.Quantity)
	assert.Contains(t, store.lines, item.ID)
}

func TestAddItemMergesExistingLine(t *testing.T) {
	svc, store, _ := newTestService(t)

	first, err := svc.AddItem(context.Background(), "user-1", "prod-a", 2)
	require.NoError(t, err)

	second, err := svc.AddItem(context.Background(), "user-1", "prod-a", 3)
	require.NoError(t, err)

	// Same line, incremented, not a duplicate row.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, uint(5), second.Quantity)
	assert.Len(t, store.lines, 1)
}

func TestAddItemRejectsExceedingStock(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AddItem(context.Background(), "user-1", "prod-b", 4) // stock is 3
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)

	// Merge that would cross the stock line is rejected too.
	_, err = svc.AddItem(context.Background(), "user-1", "prod-b", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "user-1", "prod-b", 2)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
}

func TestAddItemValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AddItem(context.Background(), "user-1", "prod-a", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(context.Background(), "user-1", "prod-a", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(context.Background(), "user-1", "ghost", 1)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestRemoveItem(t *testing.T) {
	svc, store, _ := newTestService(t)

	item, err := svc.AddItem(context.Background(), "user-1", "prod-a", 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(context.Background(), "user-1", item.ID))
	assert.Empty(t, store.lines)
}

func TestRemoveItemOtherUsersLine(t *testing.T) {
	svc, store, _ := newTestService(t)

	item, err := svc.AddItem(context.Background(), "user-1", "prod-a", 1)
	require.NoError(t, err)

	err = svc.RemoveItem(context.Background(), "user-2", item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, store.lines, 1)
}

func TestListItems(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AddItem(context.Background(), "user-1", "prod-a", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "user-1", "prod-b", 1)
	require.NoError(t, err)

	lines, err := svc.ListItems(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)

	byProduct := map[string]Line{}
	for _, l := range lines {
		byProduct[l.ProductID] = l
	}
	assert.Equal(t, "Runner A", byProduct["prod-a"].ProductName)
	assert.True(t, byProduct["prod-a"].Subtotal.Equal(dec("20.00")))
	assert.True(t, byProduct["prod-b"].Subtotal.Equal(dec("5.00")))
}

func TestListItemsSkipsDeletedProduct(t *testing.T) {
	svc, _, cat := newTestService(t)

	_, err := svc.AddItem(context.Background(), "user-1", "prod-a", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "user-1", "prod-b", 1)
	require.NoError(t, err)

	delete(cat.products, "prod-b")

	lines, err := svc.ListItems(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "prod-a", lines[0].ProductID)
}
