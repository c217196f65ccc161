package service

import (
	"context"
	"errors"
	"time"

	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/entity"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const runCachePrefix = "bakery:purchase_run:"

// RunCache 已完成的采购运行缓存。缓存失败只记日志，不影响主流程
type RunCache interface {
	Get(ctx context.Context, id string) (*entity.PurchaseRun, bool)
	Set(ctx context.Context, run *entity.PurchaseRun)
}

// RedisRunCache msgpack 编码后存入 redis
type RedisRunCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisRunCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisRunCache {
	return &RedisRunCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *RedisRunCache) Get(ctx context.Context, id string) (*entity.PurchaseRun, bool) {
	data, err := c.rdb.Get(ctx, runCachePrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Run cache read failed", zap.String("run_id", id), zap.Error(err))
		}
		return nil, false
	}
	var run entity.PurchaseRun
	if err := msgpack.Unmarshal(data, &run); err != nil {
		c.logger.Warn("Run cache decode failed", zap.String("run_id", id), zap.Error(err))
		return nil, false
	}
	return &run, true
}

func (c *RedisRunCache) Set(ctx context.Context, run *entity.PurchaseRun) {
	data, err := msgpack.Marshal(run)
	if err != nil {
		c.logger.Warn("Run cache encode failed", zap.String("run_id", run.ID), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, runCachePrefix+run.ID, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Run cache write failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}

// MemoryRunCache 未配置 redis 时使用的进程内缓存
type MemoryRunCache struct {
	c *cache.Cache
}

func NewMemoryRunCache(ttl time.Duration) *MemoryRunCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryRunCache{c: cache.New(ttl, 2*ttl)}
}

func (c *MemoryRunCache) Get(_ context.Context, id string) (*entity.PurchaseRun, bool) {
	v, ok := c.c.Get(runCachePrefix + id)
	if !ok {
		return nil, false
	}
	run := v.(entity.PurchaseRun)
	return &run, true
}

func (c *MemoryRunCache) Set(_ context.Context, run *entity.PurchaseRun) {
	c.c.SetDefault(runCachePrefix+run.ID, *run)
}
