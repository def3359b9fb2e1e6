package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"recipehub/api/internal/config"
	"recipehub/api/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"message":"internal server error"}`, w.Body.String())
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "panic recovered", entry.Message)
	assert.Equal(t, w.Header().Get(HeaderRequestID), entry.ContextMap()["request_id"])
}

func TestRequestLogger_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/broken", nil))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.EqualValues(t, http.StatusNotFound, entries[1].ContextMap()["status"])
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	small := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny")))
	large := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("far too large")))

	assert.Equal(t, http.StatusOK, small.Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, large.Code)
}

func newIdempotentRouter(store repository.StateStore, calls *int, status int) *gin.Engine {
	r := gin.New()
	r.Use(Idempotency(store, time.Minute, zap.NewNop()))
	r.POST("/things", func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"call": *calls})
	})
	r.GET("/things", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusOK, gin.H{"call": *calls})
	})
	return r
}

func postWithKey(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/things", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(HeaderIdempotencyKey, key)
	return req
}

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(repository.NewMemoryStateStore(), &calls, http.StatusCreated)

	first := serve(r, postWithKey("abc"))
	second := serve(r, postWithKey("abc"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(HeaderIdempotentReplayed))
	assert.Contains(t, second.Header().Get("Content-Type"), "application/json")
}

func TestIdempotency_DoesNotCacheFailures(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(repository.NewMemoryStateStore(), &calls, http.StatusBadRequest)

	serve(r, postWithKey("abc"))
	w := serve(r, postWithKey("abc"))

	assert.Equal(t, 2, calls)
	assert.Empty(t, w.Header().Get(HeaderIdempotentReplayed))
}

func TestIdempotency_IgnoresOtherRequests(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(repository.NewMemoryStateStore(), &calls, http.StatusCreated)

	serve(r, httptest.NewRequest(http.MethodPost, "/things", nil))
	serve(r, httptest.NewRequest(http.MethodPost, "/things", nil))
	get := httptest.NewRequest(http.MethodGet, "/things", nil)
	get.Header.Set(HeaderIdempotencyKey, "abc")
	serve(r, get)
	serve(r, get.Clone(get.Context()))

	assert.Equal(t, 4, calls)
}

func TestIdempotency_RejectsLongKey(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(repository.NewMemoryStateStore(), &calls, http.StatusCreated)

	w := serve(r, postWithKey(strings.Repeat("k", maxIdempotencyKeyLen+1)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, calls)
}

func TestIdempotency_RejectsKeyReuseWithDifferentBody(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(repository.NewMemoryStateStore(), &calls, http.StatusCreated)

	serve(r, postWithKey("abc"))
	req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(`{"other":true}`))
	req.Header.Set(HeaderIdempotencyKey, "abc")
	w := serve(r, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_ReleasesKeyWhenHandlerPanics(t *testing.T) {
	store := repository.NewMemoryStateStore()
	calls := 0
	r := gin.New()
	r.Use(Recovery(zap.NewNop()), Idempotency(store, time.Minute, zap.NewNop()))
	r.POST("/things", func(c *gin.Context) {
		calls++
		if calls == 1 {
			panic("first attempt fails")
		}
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})

	first := serve(r, postWithKey("k1"))
	require.Equal(t, http.StatusInternalServerError, first.Code)

	second := serve(r, postWithKey("k1"))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Empty(t, second.Header().Get(HeaderIdempotentReplayed))
	assert.Equal(t, 2, calls)

	third := serve(r, postWithKey("k1"))
	assert.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, "true", third.Header().Get(HeaderIdempotentReplayed))
	assert.Equal(t, 2, calls)
}
