package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimit 令牌桶限流，按登录用户区分，未登录时按客户端IP。
// 一段时间没有请求的限流器会被清理。
func RateLimit(every time.Duration, burst int) gin.HandlerFunc {
	limiters := cache.New(10*time.Minute, 20*time.Minute)
	var mu sync.Mutex

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if v, ok := limiters.Get(key); ok {
			limiters.SetDefault(key, v)
			return v.(*rate.Limiter)
		}
		l := rate.NewLimiter(rate.Every(every), burst)
		limiters.SetDefault(key, l)
		return l
	}

	return func(c *gin.Context) {
		key := c.GetString("user_id")
		if key == "" {
			key = c.ClientIP()
		}
		if !limiterFor(key).Allow() {
			c.Header("Retry-After", "1")
			abort(c, http.StatusTooManyRequests, 42900, "Too many requests")
			return
		}
		c.Next()
	}
}
