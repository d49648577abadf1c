package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"food-order-service/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CartRepository stores one cart per user.
type CartRepository interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, item models.CartItem) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, menuItemID uuid.UUID) error
	DeleteCart(ctx context.Context, userID uuid.UUID) (bool, error)
	DeleteCartIfUnchanged(ctx context.Context, userID uuid.UUID, updatedAt time.Time) (bool, error)
}

// RedisCartRepository keeps a cart in three hashes:
//
//	cart:user:<id>        id, created_at, updated_at
//	cart:user:<id>:lines  menu item id -> JSON snapshot (name, price, restaurant)
//	cart:user:<id>:qty    menu item id -> quantity
//
// Quantities live apart from the snapshot so an add is HSETNX + HINCRBY in
// one MULTI: the first add fixes the price and every add increments without a
// read-modify-write.
type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{
		client: client,
		ttl:    ttl,
	}
}

type storedLine struct {
	ID             uuid.UUID `json:"id"`
	MenuItemID     uuid.UUID `json:"menu_item_id"`
	RestaurantID   uuid.UUID `json:"restaurant_id"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"price_cents"`
	AddedAt        time.Time `json:"added_at"`
}

func (r *RedisCartRepository) metaKey(userID uuid.UUID) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

func (r *RedisCartRepository) linesKey(userID uuid.UUID) string {
	return r.metaKey(userID) + ":lines"
}

func (r *RedisCartRepository) qtyKey(userID uuid.UUID) string {
	return r.metaKey(userID) + ":qty"
}

func (r *RedisCartRepository) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var meta, lines, qty *redis.MapStringStringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		meta = pipe.HGetAll(ctx, r.metaKey(userID))
		lines = pipe.HGetAll(ctx, r.linesKey(userID))
		qty = pipe.HGetAll(ctx, r.qtyKey(userID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	m := meta.Val()
	if len(m) == 0 {
		return nil, nil
	}

	cart := &models.Cart{UserID: userID, Items: []models.CartItem{}}
	if cart.ID, err = uuid.Parse(m["id"]); err != nil {
		return nil, fmt.Errorf("corrupt cart id for user %s: %w", userID, err)
	}
	cart.CreatedAt, _ = time.Parse(time.RFC3339Nano, m["created_at"])
	cart.UpdatedAt, _ = time.Parse(time.RFC3339Nano, m["updated_at"])

	stored := make([]storedLine, 0, len(lines.Val()))
	quantities := qty.Val()
	for field, raw := range lines.Val() {
		if _, ok := quantities[field]; !ok {
			continue
		}
		var line storedLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return nil, fmt.Errorf("corrupt cart line %s: %w", field, err)
		}
		stored = append(stored, line)
	}
	sort.Slice(stored, func(i, j int) bool {
		if stored[i].AddedAt.Equal(stored[j].AddedAt) {
			return stored[i].MenuItemID.String() < stored[j].MenuItemID.String()
		}
		return stored[i].AddedAt.Before(stored[j].AddedAt)
	})

	for _, line := range stored {
		n, err := strconv.Atoi(quantities[line.MenuItemID.String()])
		if err != nil {
			return nil, fmt.Errorf("corrupt quantity for %s: %w", line.MenuItemID, err)
		}
		cart.Items = append(cart.Items, models.CartItem{
			ID:             line.ID,
			CartID:         cart.ID,
			MenuItemID:     line.MenuItemID,
			RestaurantID:   line.RestaurantID,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Qty:            n,
		})
	}
	return cart, nil
}

// AddItem creates the cart if needed, inserts the line snapshot if the menu
// item is new and increments its quantity by item.Qty, all in one MULTI/EXEC.
func (r *RedisCartRepository) AddItem(ctx context.Context, userID uuid.UUID, item models.CartItem) (*models.Cart, error) {
	now := time.Now().UTC()
	stamp := now.Format(time.RFC3339Nano)
	field := item.MenuItemID.String()

	line, err := json.Marshal(storedLine{
		ID:             uuid.New(),
		MenuItemID:     item.MenuItemID,
		RestaurantID:   item.RestaurantID,
		Name:           item.Name,
		UnitPriceCents: item.UnitPriceCents,
		AddedAt:        now,
	})
	if err != nil {
		return nil, err
	}

	meta, lines, qty := r.metaKey(userID), r.linesKey(userID), r.qtyKey(userID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, meta, "id", uuid.NewString())
		pipe.HSetNX(ctx, meta, "created_at", stamp)
		pipe.HSet(ctx, meta, "updated_at", stamp)
		pipe.HSetNX(ctx, lines, field, line)
		pipe.HIncrBy(ctx, qty, field, int64(item.Qty))
		r.touch(ctx, pipe, meta, lines, qty)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetCart(ctx, userID)
}

// removeLineScript deletes one line. Returns -1 when there is no cart and 0
// when the line is absent, so the caller can tell the two apart.
var removeLineScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local removed = redis.call('HDEL', KEYS[2], ARGV[1])
redis.call('HDEL', KEYS[3], ARGV[1])
if removed == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
return 1
`)

func (r *RedisCartRepository) RemoveItem(ctx context.Context, userID, menuItemID uuid.UUID) error {
	keys := []string{r.metaKey(userID), r.linesKey(userID), r.qtyKey(userID)}
	res, err := removeLineScript.Run(ctx, r.client, keys, menuItemID.String(), time.Now().UTC().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return err
	}
	switch res {
	case -1:
		return ErrCartNotFound
	case 0:
		return ErrCartItemNotFound
	}
	if r.ttl > 0 {
		pipe := r.client.Pipeline()
		r.touch(ctx, pipe, keys...)
		_, err = pipe.Exec(ctx)
	}
	return err
}

// DeleteCart removes the cart and its lines. It reports whether a cart existed.
func (r *RedisCartRepository) DeleteCart(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := r.client.Del(ctx, r.metaKey(userID), r.linesKey(userID), r.qtyKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// deleteIfUnchangedScript drops the cart only while updated_at still holds the
// value the caller read.
var deleteIfUnchangedScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'updated_at') ~= ARGV[1] then
	return 0
end
redis.call('DEL', KEYS[1], KEYS[2], KEYS[3])
return 1
`)

// DeleteCartIfUnchanged removes the cart if it has not been modified since
// updatedAt. It reports false when the cart changed or is already gone.
func (r *RedisCartRepository) DeleteCartIfUnchanged(ctx context.Context, userID uuid.UUID, updatedAt time.Time) (bool, error) {
	keys := []string{r.metaKey(userID), r.linesKey(userID), r.qtyKey(userID)}
	n, err := deleteIfUnchangedScript.Run(ctx, r.client, keys, updatedAt.UTC().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisCartRepository) touch(ctx context.Context, pipe redis.Pipeliner, keys ...string) {
	if r.ttl <= 0 {
		return
	}
	for _, k := range keys {
		pipe.Expire(ctx, k, r.ttl)
	}
}
