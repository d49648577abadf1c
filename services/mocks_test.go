package services_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"food-order-service/models"
	"food-order-service/repository"
	"food-order-service/services"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ---- mock cart repository ----

type mockCartRepo struct {
	mu        sync.Mutex
	carts     map[uuid.UUID]*models.Cart
	getErr    error
	addErr    error
	deleteErr error

	// beforeDelete runs ahead of DeleteCartIfUnchanged, outside the lock.
	beforeDelete func()
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: map[uuid.UUID]*models.Cart{}}
}

func (m *mockCartRepo) GetCart(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Items = append([]models.CartItem(nil), c.Items...)
	return &cp, nil
}

func (m *mockCartRepo) AddItem(ctx context.Context, userID uuid.UUID, item models.CartItem) (*models.Cart, error) {
	m.mu.Lock()
	if m.addErr != nil {
		m.mu.Unlock()
		return nil, m.addErr
	}
	c, ok := m.carts[userID]
	if !ok {
		c = &models.Cart{ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}
		m.carts[userID] = c
	}
	found := false
	for i := range c.Items {
		if c.Items[i].MenuItemID == item.MenuItemID {
			c.Items[i].Qty += item.Qty
			found = true
		}
	}
	if !found {
		item.ID = uuid.New()
		item.CartID = c.ID
		c.Items = append(c.Items, item)
	}
	now := time.Now()
	if !now.After(c.UpdatedAt) {
		now = c.UpdatedAt.Add(time.Nanosecond)
	}
	c.UpdatedAt = now
	m.mu.Unlock()
	return m.GetCart(ctx, userID)
}

func (m *mockCartRepo) RemoveItem(_ context.Context, userID, menuItemID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return repository.ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].MenuItemID == menuItemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepo) DeleteCart(_ context.Context, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return false, m.deleteErr
	}
	_, ok := m.carts[userID]
	delete(m.carts, userID)
	return ok, nil
}

func (m *mockCartRepo) DeleteCartIfUnchanged(_ context.Context, userID uuid.UUID, updatedAt time.Time) (bool, error) {
	if m.beforeDelete != nil {
		m.beforeDelete()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return false, m.deleteErr
	}
	c, ok := m.carts[userID]
	if !ok || !c.UpdatedAt.Equal(updatedAt) {
		return false, nil
	}
	delete(m.carts, userID)
	return true, nil
}

// ---- mock catalog ----

type mockCatalog struct {
	items       map[uuid.UUID]*models.MenuItem
	restaurants map[uuid.UUID]*models.Restaurant
	itemErr     error
	ownerErr    error
	delay       time.Duration
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		items:       map[uuid.UUID]*models.MenuItem{},
		restaurants: map[uuid.UUID]*models.Restaurant{},
	}
}

func (m *mockCatalog) addRestaurant(owner uuid.UUID, open bool) *models.Restaurant {
	r := &models.Restaurant{ID: uuid.New(), OwnerID: owner, Name: "Spice Route", IsOpen: open}
	m.restaurants[r.ID] = r
	return r
}

func (m *mockCatalog) addItem(restaurantID uuid.UUID, name string, price int64, available bool) *models.MenuItem {
	it := &models.MenuItem{ID: uuid.New(), RestaurantID: restaurantID, Name: name, PriceCents: price, Available: available}
	m.items[it.ID] = it
	return it
}

func (m *mockCatalog) FindMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.itemErr != nil {
		return nil, m.itemErr
	}
	it, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *mockCatalog) FindRestaurant(_ context.Context, id uuid.UUID) (*models.Restaurant, error) {
	r, ok := m.restaurants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockCatalog) IsRestaurantOwnedBy(_ context.Context, restaurantID, ownerID uuid.UUID) (bool, error) {
	if m.ownerErr != nil {
		return false, m.ownerErr
	}
	r, ok := m.restaurants[restaurantID]
	return ok && r.OwnerID == ownerID, nil
}

// ---- mock address repository ----

type mockAddressRepo struct {
	addresses map[uuid.UUID]*models.Address
	createErr error
}

func newMockAddressRepo() *mockAddressRepo {
	return &mockAddressRepo{addresses: map[uuid.UUID]*models.Address{}}
}

func (m *mockAddressRepo) Create(_ context.Context, a *models.Address) error {
	if m.createErr != nil {
		return m.createErr
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.IsDefault {
		for _, other := range m.addresses {
			if other.UserID == a.UserID {
				other.IsDefault = false
			}
		}
	}
	cp := *a
	m.addresses[a.ID] = &cp
	return nil
}

func (m *mockAddressRepo) FindByIDAndUserID(_ context.Context, id, userID uuid.UUID) (*models.Address, error) {
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAddressRepo) FindByUserID(_ context.Context, userID uuid.UUID) ([]models.Address, error) {
	out := []models.Address{}
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAddressRepo) SetDefault(_ context.Context, id, userID uuid.UUID) (*models.Address, error) {
	target, ok := m.addresses[id]
	if !ok || target.UserID != userID {
		return nil, repository.ErrNotFound
	}
	for _, a := range m.addresses {
		if a.UserID == userID {
			a.IsDefault = a.ID == id
		}
	}
	cp := *target
	return &cp, nil
}

func (m *mockAddressRepo) Delete(_ context.Context, id, userID uuid.UUID) error {
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.addresses, id)
	return nil
}

// ---- mock order repository ----

// mockOrderRepo applies StatusGuard the way the SQL UPDATE does, so tests
// exercise the optimistic concurrency path.
type mockOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*models.Order
	createErr error
	updateErr error
	updates   int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (m *mockOrderRepo) put(o *models.Order) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	m.orders[o.ID] = &cp
	return o
}

func (m *mockOrderRepo) get(id uuid.UUID) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.orders[id]
	return &cp
}

func (m *mockOrderRepo) Create(_ context.Context, o *models.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.put(o)
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) FindByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	o, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) FindByUserID(_ context.Context, userID uuid.UUID, status *models.OrderStatus) ([]models.Order, error) {
	return m.filter(func(o *models.Order) bool { return o.UserID == userID }, status), nil
}

func (m *mockOrderRepo) FindByRestaurantID(_ context.Context, restaurantID uuid.UUID, status *models.OrderStatus) ([]models.Order, error) {
	return m.filter(func(o *models.Order) bool { return o.RestaurantID == restaurantID }, status), nil
}

func (m *mockOrderRepo) filter(match func(*models.Order) bool, status *models.OrderStatus) []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if match(o) && (status == nil || o.Status == *status) {
			out = append(out, *o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, guard repository.StatusGuard, change repository.StatusChange) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.updateErr != nil {
		return false, m.updateErr
	}
	o, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	if len(guard.From) > 0 {
		matched := false
		for _, s := range guard.From {
			if o.Status == s {
				matched = true
			}
		}
		if !matched {
			return false, nil
		}
	}
	if guard.PaymentStatusNot != "" && o.PaymentStatus == guard.PaymentStatusNot {
		return false, nil
	}
	o.Status = change.Status
	if change.PaymentStatus != nil {
		o.PaymentStatus = *change.PaymentStatus
	}
	if change.PaymentTransactionID != nil {
		o.PaymentTransactionID = change.PaymentTransactionID
	}
	if change.CancelledAt != nil {
		o.CancelledAt = change.CancelledAt
	}
	if change.DeliveredAt != nil {
		o.DeliveredAt = change.DeliveredAt
	}
	return true, nil
}

// ---- mock SNS publisher ----

type publishedEvent struct {
	topic     string
	eventType string
	body      []byte
}

type mockSNS struct {
	mu         sync.Mutex
	published  []publishedEvent
	publishErr error
}

func (m *mockSNS) Publish(_ context.Context, topicArn, eventType string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedEvent{topic: topicArn, eventType: eventType, body: message})
	return m.publishErr
}

func (m *mockSNS) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.published))
	for _, p := range m.published {
		out = append(out, p.eventType)
	}
	return out
}

// ---- helpers ----

const testTopic = "arn:aws:sns:ap-south-1:000000000000:order-events"

type fixture struct {
	carts     *mockCartRepo
	catalog   *mockCatalog
	addresses *mockAddressRepo
	orders    *mockOrderRepo
	sns       *mockSNS

	cartSvc    services.CartService
	orderSvc   services.OrderService
	paymentSvc services.PaymentService
}

func newFixture() *fixture {
	f := &fixture{
		carts:     newMockCartRepo(),
		catalog:   newMockCatalog(),
		addresses: newMockAddressRepo(),
		orders:    newMockOrderRepo(),
		sns:       &mockSNS{},
	}
	logger := zap.NewNop()
	f.cartSvc = services.NewCartService(f.carts, f.catalog, time.Second, logger)
	f.orderSvc = services.NewOrderService(services.OrderDeps{
		Orders:    f.orders,
		Carts:     f.carts,
		Catalog:   f.catalog,
		Addresses: f.addresses,
		Guard:     services.NewGuard(f.catalog),
	}, f.sns, testTopic, time.Second, logger)
	f.paymentSvc = services.NewPaymentService(f.orders, f.sns, testTopic, logger)
	return f
}

func strPtr(s string) *string { return &s }
