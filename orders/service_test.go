package orders

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/tabletap/models"
	"github.com/ray-remotestate/tabletap/sessions"
)

type fakeCatalog struct {
	items  map[uuid.UUID]models.MenuItem
	tables map[uuid.UUID]models.Table
}

func (f *fakeCatalog) GetItem(_ context.Context, itemID uuid.UUID) (models.MenuItem, error) {
	item, ok := f.items[itemID]
	if !ok {
		return models.MenuItem{}, ErrNotFound
	}
	return item, nil
}

func (f *fakeCatalog) GetTable(_ context.Context, tableID uuid.UUID) (models.Table, error) {
	table, ok := f.tables[tableID]
	if !ok {
		return models.Table{}, ErrNotFound
	}
	return table, nil
}

// fakeStore mirrors the SQL store's semantics: per-order line merging with a
// kept price snapshot, conditional submit, compare-and-set completion.
type fakeStore struct {
	mu     sync.Mutex
	clock  time.Time
	orders map[uuid.UUID]*models.Order
	lines  map[uuid.UUID][]*models.OrderItem
	names  map[uuid.UUID]string
}

func newFakeStore(names map[uuid.UUID]string) *fakeStore {
	return &fakeStore{
		clock:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		orders: make(map[uuid.UUID]*models.Order),
		lines:  make(map[uuid.UUID][]*models.OrderItem),
		names:  names,
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) CreateOrder(_ context.Context, tableID, restaurantID uuid.UUID) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	tID := tableID
	order := &models.Order{
		ID:           uuid.New(),
		TableID:      &tID,
		RestaurantID: restaurantID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.orders[order.ID] = order
	return *order, nil
}

func (f *fakeStore) GetOrder(_ context.Context, orderID uuid.UUID) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return *order, nil
}

func (f *fakeStore) AddLine(_ context.Context, orderID, itemID uuid.UUID, quantity int, unitPrice float64) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	if order.Submitted || order.Completed {
		return models.Order{}, ErrOrderClosed
	}

	charged := unitPrice
	merged := false
	for _, line := range f.lines[orderID] {
		if line.ItemID == itemID {
			line.Quantity += quantity
			charged = line.UnitPrice
			merged = true
			break
		}
	}
	if !merged {
		f.lines[orderID] = append(f.lines[orderID], &models.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ItemID:    itemID,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		})
	}

	order.Total += float64(quantity) * charged
	order.UpdatedAt = f.tick()
	return *order, nil
}

func (f *fakeStore) Lines(_ context.Context, orderID uuid.UUID) ([]models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CartLine
	for _, line := range f.lines[orderID] {
		out = append(out, models.CartLine{
			ItemID:    line.ItemID,
			ItemName:  f.names[line.ItemID],
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: float64(line.Quantity) * line.UnitPrice,
		})
	}
	return out, nil
}

func (f *fakeStore) Submit(_ context.Context, orderID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	if !order.Submitted {
		order.Submitted = true
		order.UpdatedAt = f.tick()
	}
	return nil
}

func (f *fakeStore) ListPending(_ context.Context, restaurantIDs []uuid.UUID) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	allowed := make(map[uuid.UUID]bool)
	for _, id := range restaurantIDs {
		allowed[id] = true
	}
	var pending []models.Order
	for _, order := range f.orders {
		if allowed[order.RestaurantID] && order.Submitted && !order.Completed {
			pending = append(pending, *order)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (f *fakeStore) Complete(_ context.Context, orderID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	if !order.Submitted || order.Completed {
		return ErrInvalidTransition
	}
	order.Completed = true
	order.UpdatedAt = f.tick()
	return nil
}

type fakeAuthz struct {
	owned map[uuid.UUID][]uuid.UUID
}

func (f *fakeAuthz) OwnsRestaurant(_ context.Context, ownerID, restaurantID uuid.UUID) (bool, error) {
	for _, id := range f.owned[ownerID] {
		if id == restaurantID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAuthz) RestaurantsOwnedBy(_ context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	return f.owned[ownerID], nil
}

type fixture struct {
	svc          *Service
	store        *fakeStore
	catalog      *fakeCatalog
	binder       *sessions.Memory
	restaurantID uuid.UUID
	tableID      uuid.UUID
	itemA        uuid.UUID
	itemB        uuid.UUID
	ownerID      uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	restaurantID := uuid.New()
	tableID := uuid.New()
	itemA := uuid.New()
	itemB := uuid.New()
	ownerID := uuid.New()

	catalog := &fakeCatalog{
		items: map[uuid.UUID]models.MenuItem{
			itemA: {ID: itemA, Name: "Margherita", Price: 5.00, IsAvailable: true},
			itemB: {ID: itemB, Name: "Lemonade", Price: 3.50, IsAvailable: true},
		},
		tables: map[uuid.UUID]models.Table{
			tableID: {ID: tableID, RestaurantID: restaurantID, Number: 1},
		},
	}
	store := newFakeStore(map[uuid.UUID]string{itemA: "Margherita", itemB: "Lemonade"})
	authz := &fakeAuthz{owned: map[uuid.UUID][]uuid.UUID{ownerID: {restaurantID}}}
	binder := sessions.NewMemory()

	return &fixture{
		svc:          NewService(catalog, store, authz, binder),
		store:        store,
		catalog:      catalog,
		binder:       binder,
		restaurantID: restaurantID,
		tableID:      tableID,
		itemA:        itemA,
		itemB:        itemB,
		ownerID:      ownerID,
	}
}

func TestAddItemCreatesOrderAndMergesQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := sessions.NewToken()

	order, err := f.svc.AddItem(ctx, token, f.tableID, f.itemA, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, order.Status())
	assert.InDelta(t, 10.00, order.Total, 1e-9)

	order, err = f.svc.AddItem(ctx, token, f.tableID, f.itemA, 1)
	require.NoError(t, err)
	assert.InDelta(t, 15.00, order.Total, 1e-9)

	order, err = f.svc.AddItem(ctx, token, f.tableID, f.itemB, 1)
	require.NoError(t, err)
	assert.InDelta(t, 18.50, order.Total, 1e-9)

	cart, err := f.svc.ViewCart(ctx, token)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2, "repeated adds must merge, not duplicate")

	byName := make(map[string]models.CartLine)
	for _, line := range cart.Lines {
		byName[line.ItemName] = line
	}
	assert.Equal(t, 3, byName["Margherita"].Quantity)
	assert.InDelta(t, 15.00, byName["Margherita"].LineTotal, 1e-9)
	assert.Equal(t, 1, byName["Lemonade"].Quantity)
	assert.InDelta(t, 3.50, byName["Lemonade"].LineTotal, 1e-9)
}

func TestAddItemSequencesKeepTotalConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := sessions.NewToken()

	adds := []struct {
		item uuid.UUID
		qty  int
	}{
		{f.itemA, 1}, {f.itemB, 2}, {f.itemA, 4}, {f.itemB, 1}, {f.itemA, 1},
	}

	want := 0.0
	for _, add := range adds {
		item := f.catalog.items[add.item]
		want += float64(add.qty) * item.Price

		order, err := f.svc.AddItem(ctx, token, f.tableID, add.item, add.qty)
		require.NoError(t, err)
		assert.InDelta(t, want, order.Total, 1e-9, "total must track every mutation")
	}

	cart, err := f.svc.ViewCart(ctx, token)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	sum := 0.0
	for _, line := range cart.Lines {
		sum += line.LineTotal
	}
	assert.InDelta(t, cart.Order.Total, sum, 1e-9)
}

func TestAddItemRejectsBadQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, qty := range []int{0, -1, -100} {
		_, err := f.svc.AddItem(ctx, sessions.NewToken(), f.tableID, f.itemA, qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", qty)
	}
}

func TestAddItemUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, sessions.NewToken(), f.tableID, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.AddItem(ctx, sessions.NewToken(), uuid.New(), f.itemA, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExistingBindingWinsOverTableArgument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := sessions.NewToken()

	otherTable := uuid.New()
	f.catalog.tables[otherTable] = models.Table{ID: otherTable, RestaurantID: f.restaurantID, Number: 2}

	first, err := f.svc.AddItem(ctx, token, f.tableID, f.itemA, 1)
	require.NoError(t, err)

	second, err := f.svc.AddItem(ctx, token, otherTable, f.itemB, 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "bound order wins; table argument is ignored")
	require.NotNil(t, second.TableID)
	assert.Equal(t, f.tableID, *second.TableID)
}

func TestViewCartWithoutOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ViewCart(context.Background(), sessions.NewToken())
	assert.ErrorIs(t, err, ErrNoActiveOrder)
}

func TestSubmitWithoutOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), sessions.NewToken())
	assert.ErrorIs(t, err, ErrNoActiveOrder)
}

func TestSubmitIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := sessions.NewToken()

	_, err := f.svc.AddItem(ctx, token, f.tableID, f.itemA, 2)
	require.NoError(t, err)

	first, err := f.svc.Submit(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, first.Status())

	second, err := f.svc.Submit(ctx, token)
	require.NoError(t, err, "repeat submit is a no-op, not an error")
	assert.Equal(t, models.StatusSubmitted, second.Status())
	assert.Equal(t, first.ID, second.ID)
}

func TestNextAddAfterSubmitOpensFreshOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := sessions.NewToken()

	first, err := f.svc.AddItem(ctx, token, f.tableID, f.itemA, 2)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, token)
	require.NoError(t, err)

	fresh, err := f.svc.AddItem(ctx, token, f.tableID, f.itemB, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, fresh.ID, "a new visit starts a new order")
	assert.InDelta(t, 3.50, fresh.Total, 1e-9)

	// the submitted order stays exactly as submitted
	submitted, err := f.store.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, submitted.Status())
	assert.InDelta(t, 10.00, submitted.Total, 1e-9)
}

func TestStoreRejectsLineOnClosedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := sessions.NewToken()

	order, err := f.svc.AddItem(ctx, token, f.tableID, f.itemA, 1)
	require.NoError(t, err)
	require.NoError(t, f.store.Submit(ctx, order.ID))

	// an add racing the submit hits the locked guard, not the order
	_, err = f.store.AddLine(ctx, order.ID, f.itemA, 1, 5.00)
	assert.ErrorIs(t, err, ErrOrderClosed)
	assert.True(t, IsTransition(err))
}

func TestPriceChangeDoesNotRewriteOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := sessions.NewToken()

	_, err := f.svc.AddItem(ctx, token, f.tableID, f.itemA, 2)
	require.NoError(t, err)

	// menu edit after the customer already ordered
	item := f.catalog.items[f.itemA]
	item.Price = 9.00
	f.catalog.items[f.itemA] = item

	order, err := f.svc.AddItem(ctx, token, f.tableID, f.itemA, 1)
	require.NoError(t, err)
	assert.InDelta(t, 15.00, order.Total, 1e-9, "merged line keeps its price snapshot")

	cart, err := f.svc.ViewCart(ctx, token)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.InDelta(t, 5.00, cart.Lines[0].UnitPrice, 1e-9)
	assert.InDelta(t, 15.00, cart.Lines[0].LineTotal, 1e-9)
}

func TestCompleteLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := sessions.NewToken()

	order, err := f.svc.AddItem(ctx, token, f.tableID, f.itemA, 2)
	require.NoError(t, err)

	// completing an open order skips a state
	err = f.svc.Complete(ctx, f.ownerID, order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.Submit(ctx, token)
	require.NoError(t, err)

	require.NoError(t, f.svc.Complete(ctx, f.ownerID, order.ID))

	// only one completion takes effect
	err = f.svc.Complete(ctx, f.ownerID, order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	done, err := f.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status())
}

func TestCompleteUnknownOrder(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Complete(context.Background(), f.ownerID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOwnerCapabilityGatesConsole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := sessions.NewToken()

	order, err := f.svc.AddItem(ctx, token, f.tableID, f.itemA, 1)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, token)
	require.NoError(t, err)

	stranger := uuid.New()
	err = f.svc.Complete(ctx, stranger, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.OrderDetail(ctx, stranger, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	cart, err := f.svc.OrderDetail(ctx, f.ownerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, cart.Order.ID)
}

func TestListPendingScopesAndOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// three orders on the owner's restaurant: open, submitted, completed
	openToken := sessions.NewToken()
	_, err := f.svc.AddItem(ctx, openToken, f.tableID, f.itemA, 1)
	require.NoError(t, err)

	firstToken := sessions.NewToken()
	first, err := f.svc.AddItem(ctx, firstToken, f.tableID, f.itemA, 1)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, firstToken)
	require.NoError(t, err)

	secondToken := sessions.NewToken()
	second, err := f.svc.AddItem(ctx, secondToken, f.tableID, f.itemB, 1)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, secondToken)
	require.NoError(t, err)

	doneToken := sessions.NewToken()
	done, err := f.svc.AddItem(ctx, doneToken, f.tableID, f.itemA, 1)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, doneToken)
	require.NoError(t, err)
	require.NoError(t, f.svc.Complete(ctx, f.ownerID, done.ID))

	// a submitted order on someone else's restaurant
	otherRestaurant := uuid.New()
	otherTable := uuid.New()
	f.catalog.tables[otherTable] = models.Table{ID: otherTable, RestaurantID: otherRestaurant, Number: 1}
	otherToken := sessions.NewToken()
	_, err = f.svc.AddItem(ctx, otherToken, otherTable, f.itemA, 1)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, otherToken)
	require.NoError(t, err)

	pending, err := f.svc.ListPending(ctx, f.ownerID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID, "oldest unfulfilled order first")
	assert.Equal(t, second.ID, pending[1].ID)

	// an owner with no restaurants sees nothing
	nobody, err := f.svc.ListPending(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, nobody)
}
