// Package cache реализует хранение черновиков заказов в Redis.
// Значения хранятся в JSON с временем жизни, поэтому брошенные черновики удаляются сами.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/byteport-bot/internal/config"
	"github.com/magabrotheeeer/byteport-bot/internal/models"
)

// Cache обёртка над клиентом Redis с JSON-сериализацией значений.
type Cache struct {
	Db *redis.Client
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get читает значение по ключу в result. Возвращает false, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal([]byte(val), result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение с временем жизни expiration.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.Db.Set(ctx, key, jsonData, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate удаляет значение по ключу.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	const op = "cache.Invalidate"
	if err := c.Db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (c *Cache) Close() error {
	return c.Db.Close()
}

// OrderStore хранилище черновиков заказов поверх Cache.
type OrderStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewOrderStore создает хранилище черновиков с временем жизни ttl.
func NewOrderStore(c *Cache, ttl time.Duration) *OrderStore {
	return &OrderStore{cache: c, ttl: ttl}
}

func orderKey(userID string) string {
	return "order:" + userID
}

// Get возвращает черновик пользователя.
func (s *OrderStore) Get(ctx context.Context, userID string) (models.PendingOrder, bool, error) {
	var o models.PendingOrder
	found, err := s.cache.Get(ctx, orderKey(userID), &o)
	if err != nil {
		return models.PendingOrder{}, false, err
	}
	return o, found, nil
}

// Put сохраняет черновик и продлевает его время жизни.
func (s *OrderStore) Put(ctx context.Context, userID string, o models.PendingOrder) error {
	return s.cache.Set(ctx, orderKey(userID), o, s.ttl)
}

// Delete удаляет черновик.
func (s *OrderStore) Delete(ctx context.Context, userID string) error {
	return s.cache.Invalidate(ctx, orderKey(userID))
}
