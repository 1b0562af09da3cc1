package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Redis keys for the health dashboard counters. Exported for use by the
// health service (collect, reset).
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"
)

// maxErrorLogEntries bounds the error log list so it never grows unbounded.
const maxErrorLogEntries = 50

type requestMark struct {
	Time   time.Time `json:"time"`
	IP     string    `json:"ip"`
	Path   string    `json:"path"`
	Method string    `json:"method"`
}

type errorLogEntry struct {
	Time       time.Time `json:"time"`
	Path       string    `json:"path"`
	Method     string    `json:"method"`
	StatusCode int       `json:"statusCode"`
}

// HealthMarker records request stats in Redis (skip /health*, favicon).
// Responses with a 5xx status also land in a capped error log list read
// by GET /health/errors.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		mark := requestMark{
			Time:   start,
			IP:     c.IP(),
			Path:   c.OriginalURL(),
			Method: c.Method(),
		}
		b, _ := json.Marshal(mark)
		ctx := context.Background()
		_, _ = rdb.Set(ctx, KeyLastReq, b, 0).Result()
		_, _ = rdb.Incr(ctx, KeyReqTotal).Result()

		err := c.Next()

		ms := time.Since(start).Milliseconds()
		_, _ = rdb.Incr(ctx, KeyResCount).Result()
		_, _ = rdb.IncrByFloat(ctx, KeyResTime, float64(ms)).Result()
		if status := c.Response().StatusCode(); status >= 500 {
			_, _ = rdb.Incr(ctx, KeyReqErrors).Result()
			recordError(ctx, rdb, errorLogEntry{
				Time:       time.Now(),
				Path:       mark.Path,
				Method:     mark.Method,
				StatusCode: status,
			})
		}
		return err
	}
}

func recordError(ctx context.Context, rdb *redis.Client, entry errorLogEntry) {
	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = rdb.LPush(ctx, KeyErrorLog, b).Result()
	_, _ = rdb.LTrim(ctx, KeyErrorLog, 0, maxErrorLogEntries-1).Result()
}
