package middleware

import (
	"sync"
	"time"

	"forum/internal/config"
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// 超过 limiterIdleTTL 未访问的限流器会被清理
const (
	limiterIdleTTL         = 10 * time.Minute
	limiterCleanupInterval = 5 * time.Minute
)

type limiterEntry struct {
	limiter      *rate.Limiter
	lastAccessed time.Time
}

// IPRateLimiter 按客户端IP分别限流
type IPRateLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewIPRateLimiter 创建IP限流器，limit 为每秒补充的令牌数
func NewIPRateLimiter(limit rate.Limit, burst int) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &IPRateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
	}
}

// NewPerMinuteLimiter 每分钟 n 次，允许一次性用完
func NewPerMinuteLimiter(n int) *IPRateLimiter {
	if n <= 0 {
		n = 1
	}
	return NewIPRateLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

// Allow 检查该IP是否还有令牌
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastAccessed = l.now()
	l.mu.Unlock()

	return entry.limiter.Allow()
}

// Cleanup 清理长时间未访问的限流器，返回清理数量
func (l *IPRateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	now := l.now()
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastAccessed) > limiterIdleTTL {
			delete(l.limiters, ip)
			removed++
		}
	}
	return removed
}

// Size 当前限流器数量
func (l *IPRateLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// StartCleanup 定期清理，stop 关闭后退出
func (l *IPRateLimiter) StartCleanup(stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := l.Cleanup(); n > 0 {
					utils.GetLogger().Debug("清理过期限流器", "removed", n)
				}
			case <-stop:
				return
			}
		}
	}()
}

// RateLimitMiddleware 使用给定限流器的中间件
func RateLimitMiddleware(limiter *IPRateLimiter, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		if !limiter.Allow(c.ClientIP()) {
			utils.GetLogger().Warn("请求被限流",
				"ip", c.ClientIP(),
				"path", c.Request.URL.Path)
			utils.TooManyRequestsResponse(c, message)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimiters 全局、认证、举报三类限流器
type RateLimiters struct {
	Global *IPRateLimiter
	Auth   *IPRateLimiter
	Report *IPRateLimiter
}

// NewRateLimiters 按配置创建限流器，未启用时全部为 nil
func NewRateLimiters(cfg config.RateLimitConfig) *RateLimiters {
	if !cfg.Enabled {
		return &RateLimiters{}
	}
	limiters := &RateLimiters{
		Global: NewIPRateLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		Auth:   NewPerMinuteLimiter(cfg.AuthPerMin),
		Report: NewPerMinuteLimiter(cfg.ReportPerMin),
	}
	utils.GetLogger().Info("限流器初始化完成",
		"rps", cfg.RPS,
		"burst", cfg.Burst,
		"authPerMin", cfg.AuthPerMin,
		"reportPerMin", cfg.ReportPerMin)
	return limiters
}

// StartCleanup 启动全部限流器的清理协程
func (r *RateLimiters) StartCleanup(stop <-chan struct{}) {
	for _, l := range []*IPRateLimiter{r.Global, r.Auth, r.Report} {
		if l != nil {
			l.StartCleanup(stop)
		}
	}
}
