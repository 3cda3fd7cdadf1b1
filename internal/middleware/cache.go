package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/finbridge/backoffice/internal/config"
)

// cachedResponse is the envelope stored in Redis.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter records the response body and status while forwarding
// everything to the client. Bodies over the limit are forwarded but not
// cached.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.size < cw.limit {
		remain := cw.limit - cw.size
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// Cache serves read responses from Redis and keeps the entries honest
// across writes. The key covers the concrete request path, query and the
// caller identity, so two records under one route never share an entry
// and one admin's scoped listing is never served to another. Keys are
// grouped by entity family; a successful mutation flowing through the
// middleware drops the whole group, so a PATCH is visible to the next
// GET. Only 200 responses within the size limit are stored. A nil Redis
// client disables the middleware.
func Cache(rdb *redis.Client, cfg config.CacheConfig) echo.MiddlewareFunc {
	if rdb == nil || !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			group := routeGroup(c.Path())

			if !cfg.Methods[c.Request().Method] {
				if err := next(c); err != nil {
					return err
				}
				if c.Response().Status < http.StatusBadRequest {
					invalidateGroup(c.Request().Context(), rdb, cfg.Prefix, group)
				}
				return nil
			}

			key := cacheKey(cfg.Prefix, group, c)
			ctx := c.Request().Context()

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(raw, &cached) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(cached.Status, cached.ContentType, cached.Body)
				}
			}

			cw := &captureWriter{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          int64(cfg.MaxBodyBytes),
			}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK && cw.size <= cw.limit {
				entry := cachedResponse{
					Status:      cw.status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        cw.buf.Bytes(),
				}
				if raw, err := json.Marshal(entry); err == nil {
					_ = rdb.Set(ctx, key, raw, cfg.TTL).Err()
				}
			}
			return nil
		}
	}
}

// cacheKey hashes the concrete request path (not the route template) so
// /v1/agents/agent-a and /v1/agents/agent-b get distinct entries.
func cacheKey(prefix, group string, c echo.Context) string {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		uid = "anon"
	}
	r := c.Request()
	sum := sha1.Sum([]byte(r.Method + "|" + r.URL.Path + "|" + r.URL.RawQuery + "|" + uid))
	return strings.Join([]string{prefix, group, hex.EncodeToString(sum[:])}, ":")
}

// routeGroup extracts the entity family from a registered route, e.g.
// "/v1/agents/:id" -> "agents". It keys cache invalidation, so a write to
// one family never evicts another's entries.
func routeGroup(route string) string {
	parts := strings.Split(strings.TrimPrefix(route, "/"), "/")
	if len(parts) >= 2 && parts[1] != "" {
		return parts[1]
	}
	if parts[0] != "" {
		return parts[0]
	}
	return "root"
}

// invalidateGroup deletes every cached entry for the entity family. Scan
// failures are ignored; stale entries then age out with the TTL.
func invalidateGroup(ctx context.Context, rdb *redis.Client, prefix, group string) {
	pattern := prefix + ":" + group + ":*"
	var cursor uint64
	for {
		keys, next, err := rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			_ = rdb.Del(ctx, keys...).Err()
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
