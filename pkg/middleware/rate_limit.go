package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/storage/kv"
	"github.com/yeisme/vidvault/pkg/internal/types"
)

// clientIdentity 限流键：已认证请求按主体，匿名请求按客户端 IP.
func clientIdentity(c *gin.Context) string {
	if p := GetPrincipal(c); p != nil {
		return "sub:" + p.SubjectID
	}

	return "ip:" + clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = c.Request.RemoteAddr
		}
	}

	return ip
}

// GlobalRateLimitMiddleware 进程级令牌桶限流，按客户端身份分键.
func GlobalRateLimitMiddleware(cfg configs.GlobalLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var (
		mu       sync.Mutex
		limiters = map[string]*rate.Limiter{}
	)

	// 获取限流器
	getLimiter := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		if l, ok := limiters[key]; ok {
			return l
		}

		l := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
		limiters[key] = l

		return l
	}

	// 后台清理闲置 limiter（简单实现）
	go func() {
		const (
			cleanupInterval   = 10 * time.Minute
			maxLimiterEntries = 10000
		)

		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for range ticker.C {
			mu.Lock()
			// 简化：不做逐个访问时间统计，仅在 map 较大时重置
			if len(limiters) > maxLimiterEntries {
				limiters = map[string]*rate.Limiter{}
			}

			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		if !getLimiter(clientIdentity(c)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				types.APIError{Error: "rate limit exceeded, please try again later"})

			return
		}

		c.Next()
	}
}

// window 固定窗口计数器的存储形态.
type window struct {
	Count int   `json:"count"`
	Reset int64 `json:"reset"` // unix seconds
}

// FixedWindowMiddleware 基于 KV 的固定窗口限流器.
// 认证接口（严格：15 分钟 5 次）与上传接口（按主体的每小时上限）使用；
// KV 配置为 redis 时多实例共享同一窗口.
func FixedWindowMiddleware(name string, cfg configs.WindowLimitConfig, kvc *kv.Client) gin.HandlerFunc {
	if !cfg.Enabled || kvc == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := time.Now().Unix()
		key := fmt.Sprintf("rl:%s:%x", name, xxhash.Sum64String(clientIdentity(c)))

		var w window

		if raw, err := kvc.Get(ctx, key); err == nil {
			_ = sonic.Unmarshal(raw, &w)
		}

		if w.Reset <= now {
			w = window{Count: 0, Reset: now + int64(cfg.Window().Seconds())}
		}

		w.Count++

		if raw, err := sonic.Marshal(w); err == nil {
			ttl := time.Duration(w.Reset-now) * time.Second
			_ = kvc.Set(ctx, key, raw, ttl)
		}

		if w.Count > cfg.Max {
			c.Header("Retry-After", strconv.FormatInt(w.Reset-now, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				types.APIError{Error: "too many requests, please try again later"})

			return
		}

		c.Next()
	}
}
