package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const metaKey = "response_meta"

// ResponseMeta gives handlers a per-request map that ends up in the
// envelope's meta field, and stamps the processing time when absent.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		meta := map[string]interface{}{}
		c.Set(metaKey, meta)
		c.Next()
		if _, ok := meta["processing_time_ms"]; !ok {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
}

// SetMeta stores one meta entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	Meta(c)[key] = value
}

// SetCacheHit records whether the response came from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, "cache_hit", hit)
}

// Meta returns the meta map of the request, creating it when ResponseMeta
// did not run.
func Meta(c *gin.Context) map[string]interface{} {
	if v, ok := c.Get(metaKey); ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	m := map[string]interface{}{}
	c.Set(metaKey, m)
	return m
}
