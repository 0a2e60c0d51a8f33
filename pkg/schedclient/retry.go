package schedclient

import (
	"context"
	"math/rand"
	"time"
)

// ── 重试组合器 ──
// 调用方负责判定哪些错误可重试；本文件只负责节奏控制。

// 未配置时的重试节奏
const (
	defaultMaxRetries   = 3
	defaultBackoffBase  = 250 * time.Millisecond
	defaultBackoffLimit = 4 * time.Second
)

// RetryPolicy 重试策略
type RetryPolicy struct {
	// MaxRetries 首次调用之外的最大重试次数
	MaxRetries int
	// Backoff 第 attempt 次重试前的等待时长（attempt 从 0 开始）
	Backoff BackoffFunc
	// Retryable 判定错误是否值得重试
	Retryable func(error) bool
}

// BackoffFunc 按重试序号给出等待时长
type BackoffFunc func(attempt int) time.Duration

// ExponentialBackoff 指数退避：base×2^attempt 加抖动，封顶 max
func ExponentialBackoff(base, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := base << uint(attempt)
		if d > max || d <= 0 {
			d = max
		}
		// 抖动最多为基准的四分之一，避免齐步重试
		jitter := time.Duration(rand.Int63n(int64(base)/4 + 1))
		return d + jitter
	}
}

// DefaultRetryPolicy 默认策略：最多 3 次重试，250ms 起步，封顶 4s
func DefaultRetryPolicy(retryable func(error) bool) RetryPolicy {
	return RetryPolicy{
		MaxRetries: defaultMaxRetries,
		Backoff:    ExponentialBackoff(defaultBackoffBase, defaultBackoffLimit),
		Retryable:  retryable,
	}
}

// doWithRetry 执行 fn，按策略重试；ctx 取消立即终止
func doWithRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt >= policy.MaxRetries || policy.Retryable == nil || !policy.Retryable(lastErr) {
			return lastErr
		}

		wait := time.Duration(0)
		if policy.Backoff != nil {
			wait = policy.Backoff(attempt)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
