package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipehub/api/internal/repository"
	"recipehub/api/pkg/crypto"
	"recipehub/api/pkg/response"
)

const (
	HeaderIdempotencyKey     = "Idempotency-Key"
	HeaderIdempotentReplayed = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 255
)

var pendingMarker = []byte("pending")

type cachedResponse struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first successful response for a POST carrying an
// Idempotency-Key header. A key is reserved before the handler runs, so a
// concurrent duplicate gets 409 instead of creating a second record.
// Non-2xx responses release the key so the client can retry. Reusing a key
// with a different body is rejected with 422.
func Idempotency(store repository.StateStore, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			response.Abort(c, http.StatusBadRequest, "idempotency key too long")
			return
		}

		var body []byte
		if c.Request.Body != nil {
			var err error
			if body, err = io.ReadAll(c.Request.Body); err != nil {
				response.Abort(c, http.StatusBadRequest, "invalid request body: "+err.Error())
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}
		fingerprint := crypto.Fingerprint([]byte(c.Request.Method), []byte(c.FullPath()), body)

		ctx := c.Request.Context()
		storeKey := "idempotency:" + c.FullPath() + ":" + key

		reserved, err := store.SetNX(ctx, storeKey, pendingMarker, ttl)
		if err != nil {
			logger.Error("reserve idempotency key", zap.Error(err))
			response.Abort(c, http.StatusInternalServerError, "internal server error")
			return
		}

		if !reserved {
			data, err := store.Get(ctx, storeKey)
			if err != nil {
				logger.Error("read idempotency key", zap.Error(err))
				response.Abort(c, http.StatusInternalServerError, "internal server error")
				return
			}
			if bytes.Equal(data, pendingMarker) {
				response.Abort(c, http.StatusConflict, "a request with this idempotency key is in progress")
				return
			}
			var cached cachedResponse
			if data != nil && json.Unmarshal(data, &cached) == nil {
				if cached.Fingerprint != fingerprint {
					response.Abort(c, http.StatusUnprocessableEntity, "idempotency key was used with a different request")
					return
				}
				idempotentReplays.Inc()
				c.Header(HeaderIdempotentReplayed, "true")
				c.Data(cached.Status, cached.ContentType, cached.Body)
				c.Abort()
				return
			}
			// Expired or unreadable entry: run the request without caching.
			c.Next()
			return
		}

		// The reservation is released unless a response gets cached, including
		// when the handler panics and Recovery answers further up the chain.
		cached := false
		defer func() {
			if cached {
				return
			}
			if err := store.Delete(context.WithoutCancel(ctx), storeKey); err != nil {
				logger.Warn("release idempotency key", zap.Error(err))
			}
		}()

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 {
			return
		}

		data, err := json.Marshal(cachedResponse{
			Fingerprint: fingerprint,
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		})
		if err == nil {
			err = store.Set(ctx, storeKey, data, ttl)
		}
		if err != nil {
			logger.Warn("store idempotent response", zap.Error(err))
			return
		}
		cached = true
	}
}
