package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nicopkrauss/Talenttracker2-sub022/config"
)

// ErrDayLocked 目标日期正在被其他请求写入
var ErrDayLocked = errors.New("该日期的指派正在被其他操作修改，请稍后重试")

// Client Redis 客户端封装
// 用于指派写入的按日互斥锁、接口限流与 Token 黑名单
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 按日互斥锁 ──
// 同一 (project, date) 的整日替换写入必须串行，否则慢请求会悄悄覆盖新状态

const dayLockPrefix = "day_lock:"

// releaseScript 只释放自己持有的锁
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireDayLock 获取 (projectID, date) 的写锁
// 返回持有凭证，释放时必须原样传回；锁被占用时返回 ErrDayLocked
func (c *Client) AcquireDayLock(ctx context.Context, projectID, date string, ttl time.Duration) (string, error) {
	key := fmt.Sprintf("%s%s:%s", dayLockPrefix, projectID, date)
	token := uuid.New().String()

	ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrDayLocked
	}
	return token, nil
}

// ReleaseDayLock 释放写锁（凭证不匹配时不动别人的锁）
func (c *Client) ReleaseDayLock(ctx context.Context, projectID, date, token string) error {
	key := fmt.Sprintf("%s%s:%s", dayLockPrefix, projectID, date)
	return releaseScript.Run(ctx, c.rdb, []string{key}, token).Err()
}

// ── 接口限流（固定窗口计数） ──

// CheckRateLimit 检查窗口内请求数是否超限
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
