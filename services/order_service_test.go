package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"food-order-service/apperrors"
	"food-order-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillCart puts two 5000-cent items from a new open restaurant into the
// user's cart and returns the restaurant.
func fillCart(t *testing.T, f *fixture, userID, ownerID uuid.UUID) *models.Restaurant {
	t.Helper()
	r := f.catalog.addRestaurant(ownerID, true)
	item := f.catalog.addItem(r.ID, "Thali", 5000, true)
	_, err := f.cartSvc.AddItem(context.Background(), userID, models.AddCartItemRequest{MenuItemID: item.ID, Qty: 2})
	require.NoError(t, err)
	return r
}

func seedOrder(f *fixture, userID, restaurantID uuid.UUID, status models.OrderStatus) *models.Order {
	return f.orders.put(&models.Order{
		UserID:        userID,
		RestaurantID:  restaurantID,
		Status:        status,
		PaymentType:   models.PaymentTypeCOD,
		PaymentStatus: models.PaymentStatusPending,
	})
}

func TestCreateFromCart_EmptyCart(t *testing.T) {
	f := newFixture()

	_, err := f.orderSvc.CreateFromCart(context.Background(), uuid.New(), models.CreateOrderRequest{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.EqualError(t, err, "Cart is empty")
}

func TestCreateFromCart_MixedRestaurants(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	r1 := f.catalog.addRestaurant(uuid.New(), true)
	r2 := f.catalog.addRestaurant(uuid.New(), true)
	a := f.catalog.addItem(r1.ID, "Pizza", 30000, true)
	b := f.catalog.addItem(r2.ID, "Sushi", 45000, true)
	_, _ = f.cartSvc.AddItem(ctx, userID, models.AddCartItemRequest{MenuItemID: a.ID, Qty: 1})
	_, _ = f.cartSvc.AddItem(ctx, userID, models.AddCartItemRequest{MenuItemID: b.ID, Qty: 1})

	_, err := f.orderSvc.CreateFromCart(ctx, userID, models.CreateOrderRequest{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Contains(t, err.Error(), "same restaurant")
}

func TestCreateFromCart_RestaurantClosed(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	r := fillCart(t, f, userID, uuid.New())
	f.catalog.restaurants[r.ID].IsOpen = false

	_, err := f.orderSvc.CreateFromCart(context.Background(), userID, models.CreateOrderRequest{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.EqualError(t, err, "Restaurant is closed")
}

func TestCreateFromCart_RestaurantMissing(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	r := fillCart(t, f, userID, uuid.New())
	delete(f.catalog.restaurants, r.ID)

	_, err := f.orderSvc.CreateFromCart(context.Background(), userID, models.CreateOrderRequest{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateFromCart_AddressOfAnotherUser(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	fillCart(t, f, userID, uuid.New())

	other := &models.Address{UserID: uuid.New(), AddressLine: "1 MG Road", City: "Pune", PostalCode: "411001"}
	require.NoError(t, f.addresses.Create(context.Background(), other))

	_, err := f.orderSvc.CreateFromCart(context.Background(), userID, models.CreateOrderRequest{DeliveryAddressID: &other.ID})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// cart survives a failed checkout
	view, err := f.cartSvc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestCreateFromCart_DefaultsToCOD(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	r := fillCart(t, f, userID, uuid.New())

	addr := &models.Address{UserID: userID, AddressLine: "221B Baker St", City: "London", PostalCode: "NW16XE", Lat: 51.52, Lon: -0.15}
	require.NoError(t, f.addresses.Create(ctx, addr))

	order, err := f.orderSvc.CreateFromCart(ctx, userID, models.CreateOrderRequest{
		DeliveryAddressID:   &addr.ID,
		SpecialInstructions: strPtr("  ring twice  "),
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCreated, order.Status)
	assert.Equal(t, models.PaymentTypeCOD, order.PaymentType)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, r.ID, order.RestaurantID)
	assert.Equal(t, int64(10000), order.SubtotalCents)
	assert.Equal(t, int64(500), order.TaxCents)
	assert.Equal(t, int64(5000), order.DeliveryFeeCents)
	assert.Equal(t, int64(15500), order.TotalCents)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Qty)
	assert.Equal(t, "ring twice", *order.SpecialInstructions)

	require.NotNil(t, order.DeliveryAddress)
	assert.Equal(t, "London", order.DeliveryAddress.City)

	// later edits to the address book do not reach the order
	f.addresses.addresses[addr.ID].City = "Paris"
	stored, err := f.orderSvc.GetOrder(ctx, order.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "London", stored.DeliveryAddress.City)

	view, err := f.cartSvc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	require.Equal(t, []string{models.EventOrderCreated}, f.sns.types())
	var ev models.OrderEvent
	require.NoError(t, json.Unmarshal(f.sns.published[0].body, &ev))
	assert.Equal(t, order.ID.String(), ev.OrderID)
	assert.Equal(t, testTopic, f.sns.published[0].topic)
}

func TestCreateFromCart_Prepaid(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	fillCart(t, f, userID, uuid.New())

	order, err := f.orderSvc.CreateFromCart(context.Background(), userID, models.CreateOrderRequest{PaymentType: models.PaymentTypeUPI})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusNotRequested, order.PaymentStatus)
	assert.Equal(t, int64(3000), order.DeliveryFeeCents)
	assert.Equal(t, int64(13500), order.TotalCents)
}

func TestCreateFromCart_UnknownPaymentType(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	fillCart(t, f, userID, uuid.New())

	_, err := f.orderSvc.CreateFromCart(context.Background(), userID, models.CreateOrderRequest{PaymentType: "BITCOIN"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateFromCart_SurvivesSNSAndClearFailures(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	fillCart(t, f, userID, uuid.New())
	f.sns.publishErr = errors.New("sns down")
	f.carts.deleteErr = errors.New("redis down")

	order, err := f.orderSvc.CreateFromCart(context.Background(), userID, models.CreateOrderRequest{})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, order.ID)
}

func TestCreateFromCart_TotalOutOfRange(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	r := f.catalog.addRestaurant(uuid.New(), true)
	f.carts.carts[userID] = &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: []models.CartItem{
			{MenuItemID: uuid.New(), RestaurantID: r.ID, Name: "Feast", UnitPriceCents: 50000, Qty: 200000000000000},
		},
	}

	_, err := f.orderSvc.CreateFromCart(context.Background(), userID, models.CreateOrderRequest{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.sns.types())
}

func TestCreateFromCart_KeepsLinesAddedDuringCheckout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	r := fillCart(t, f, userID, uuid.New())
	late := f.catalog.addItem(r.ID, "Kulfi", 4000, true)
	f.carts.beforeDelete = func() {
		_, err := f.cartSvc.AddItem(ctx, userID, models.AddCartItemRequest{MenuItemID: late.ID, Qty: 1})
		require.NoError(t, err)
	}

	order, err := f.orderSvc.CreateFromCart(ctx, userID, models.CreateOrderRequest{})
	require.NoError(t, err)
	assert.Len(t, order.Items, 1)

	view, err := f.cartSvc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
}

func TestGetOrder_NotOwned(t *testing.T) {
	f := newFixture()
	o := seedOrder(f, uuid.New(), uuid.New(), models.OrderStatusCreated)

	_, err := f.orderSvc.GetOrder(context.Background(), o.ID, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateStatus_ForwardPath(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ownerID := uuid.New()
	r := f.catalog.addRestaurant(ownerID, true)
	o := seedOrder(f, uuid.New(), r.ID, models.OrderStatusConfirmed)
	owner := models.Identity{UserID: ownerID, Role: models.RoleOwner}

	path := []models.OrderStatus{
		models.OrderStatusPreparing,
		models.OrderStatusReady,
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
	}
	for _, next := range path {
		updated, err := f.orderSvc.UpdateStatus(ctx, owner, o.ID, next)
		require.NoError(t, err, "to %s", next)
		assert.Equal(t, next, updated.Status)
	}

	stored := f.orders.get(o.ID)
	assert.Equal(t, models.OrderStatusDelivered, stored.Status)
	assert.NotNil(t, stored.DeliveredAt)
	assert.Len(t, f.sns.types(), 4)
}

func TestUpdateStatus_TransitionTable(t *testing.T) {
	allowed := map[[2]models.OrderStatus]bool{
		{models.OrderStatusConfirmed, models.OrderStatusPreparing}:      true,
		{models.OrderStatusPreparing, models.OrderStatusReady}:          true,
		{models.OrderStatusReady, models.OrderStatusOutForDelivery}:     true,
		{models.OrderStatusOutForDelivery, models.OrderStatusDelivered}: true,
	}

	for _, from := range models.AllOrderStatuses {
		for _, to := range models.AllOrderStatuses {
			f := newFixture()
			r := f.catalog.addRestaurant(uuid.New(), true)
			o := seedOrder(f, uuid.New(), r.ID, from)
			admin := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

			_, err := f.orderSvc.UpdateStatus(context.Background(), admin, o.ID, to)
			if allowed[[2]models.OrderStatus{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "%s -> %s", from, to)
		}
	}
}

func TestUpdateStatus_SkipNamesBothStates(t *testing.T) {
	f := newFixture()
	r := f.catalog.addRestaurant(uuid.New(), true)
	o := seedOrder(f, uuid.New(), r.ID, models.OrderStatusConfirmed)
	admin := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	_, err := f.orderSvc.UpdateStatus(context.Background(), admin, o.ID, models.OrderStatusReady)
	assert.EqualError(t, err, "Invalid status transition from CONFIRMED to READY")
}

func TestUpdateStatus_Authorization(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r := f.catalog.addRestaurant(uuid.New(), true)
	o := seedOrder(f, uuid.New(), r.ID, models.OrderStatusConfirmed)

	otherOwner := models.Identity{UserID: uuid.New(), Role: models.RoleOwner}
	_, err := f.orderSvc.UpdateStatus(ctx, otherOwner, o.ID, models.OrderStatusPreparing)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	customer := models.Identity{UserID: o.UserID, Role: models.RoleCustomer}
	_, err = f.orderSvc.UpdateStatus(ctx, customer, o.ID, models.OrderStatusPreparing)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	assert.Equal(t, models.OrderStatusConfirmed, f.orders.get(o.ID).Status)
	assert.Zero(t, f.orders.updates)
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	f := newFixture()
	admin := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	_, err := f.orderSvc.UpdateStatus(context.Background(), admin, uuid.New(), models.OrderStatusPreparing)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateStatus_ConcurrentAdvancesOnlyOneWins(t *testing.T) {
	f := newFixture()
	r := f.catalog.addRestaurant(uuid.New(), true)
	o := seedOrder(f, uuid.New(), r.ID, models.OrderStatusConfirmed)
	admin := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.orderSvc.UpdateStatus(context.Background(), admin, o.ID, models.OrderStatusPreparing); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, models.OrderStatusPreparing, f.orders.get(o.ID).Status)
}

func TestCancel(t *testing.T) {
	blocked := map[models.OrderStatus]bool{
		models.OrderStatusDelivered:      true,
		models.OrderStatusCancelled:      true,
		models.OrderStatusOutForDelivery: true,
	}

	for _, status := range models.AllOrderStatuses {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture()
			userID := uuid.New()
			o := seedOrder(f, userID, uuid.New(), status)

			got, err := f.orderSvc.Cancel(context.Background(), o.ID, userID)
			if blocked[status] {
				assert.ErrorIs(t, err, apperrors.ErrInvalidState)
				assert.Equal(t, status, f.orders.get(o.ID).Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusCancelled, got.Status)
			stored := f.orders.get(o.ID)
			assert.Equal(t, models.OrderStatusCancelled, stored.Status)
			assert.NotNil(t, stored.CancelledAt)
		})
	}
}

func TestCancel_NotOwned(t *testing.T) {
	f := newFixture()
	o := seedOrder(f, uuid.New(), uuid.New(), models.OrderStatusCreated)

	_, err := f.orderSvc.Cancel(context.Background(), o.ID, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListRestaurantOrders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ownerID := uuid.New()
	r := f.catalog.addRestaurant(ownerID, true)
	seedOrder(f, uuid.New(), r.ID, models.OrderStatusCreated)
	seedOrder(f, uuid.New(), r.ID, models.OrderStatusConfirmed)
	seedOrder(f, uuid.New(), uuid.New(), models.OrderStatusConfirmed)

	owner := models.Identity{UserID: ownerID, Role: models.RoleOwner}
	orders, err := f.orderSvc.ListRestaurantOrders(ctx, owner, r.ID, nil)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	confirmed := models.OrderStatusConfirmed
	orders, err = f.orderSvc.ListRestaurantOrders(ctx, owner, r.ID, &confirmed)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	stranger := models.Identity{UserID: uuid.New(), Role: models.RoleOwner}
	_, err = f.orderSvc.ListRestaurantOrders(ctx, stranger, r.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	admin := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}
	_, err = f.orderSvc.ListRestaurantOrders(ctx, admin, r.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	owningAdmin := models.Identity{UserID: ownerID, Role: models.RoleAdmin}
	orders, err = f.orderSvc.ListRestaurantOrders(ctx, owningAdmin, r.ID, nil)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestListRestaurantOrders_NewestFirst(t *testing.T) {
	f := newFixture()
	ownerID := uuid.New()
	r := f.catalog.addRestaurant(ownerID, true)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		o := f.orders.put(&models.Order{
			UserID:       uuid.New(),
			RestaurantID: r.ID,
			Status:       models.OrderStatusCreated,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
		ids = append(ids, o.ID)
	}

	owner := models.Identity{UserID: ownerID, Role: models.RoleOwner}
	orders, err := f.orderSvc.ListRestaurantOrders(context.Background(), owner, r.ID, nil)
	require.NoError(t, err)
	require.Len(t, orders, 4)
	for i, o := range orders {
		assert.Equal(t, ids[len(ids)-1-i], o.ID)
	}
}

func TestListOrders(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	seedOrder(f, userID, uuid.New(), models.OrderStatusCreated)
	seedOrder(f, uuid.New(), uuid.New(), models.OrderStatusCreated)

	orders, err := f.orderSvc.ListOrders(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	none, err := f.orderSvc.ListOrders(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
