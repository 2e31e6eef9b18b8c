package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	identityapp "github.com/clinicledger/backend/internal/application/identity"
	"github.com/clinicledger/backend/internal/infrastructure/cache"
	"github.com/clinicledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func idempotencyRouter(t *testing.T, store *cache.InMemoryIdempotencyStore, principal *identityapp.Principal, status int, calls *int32) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.Use(RequestID(), func(c *gin.Context) { SetPrincipal(c, principal) }, Idempotency(store, time.Hour))
	router.POST("/dispenses", func(c *gin.Context) {
		n := atomic.AddInt32(calls, 1)
		c.JSON(status, dto.NewSuccessResponse(gin.H{"call": n}))
	})
	return router
}

func dispense(router *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/dispenses", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	principal := &identityapp.Principal{UserID: uuid.New(), TenantID: uuid.New()}
	var calls int32
	router := idempotencyRouter(t, store, principal, http.StatusCreated, &calls)

	first := dispense(router, "key-1")
	second := dispense(router, "key-1")

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(IdempotencyReplayHeader))
	assert.Contains(t, second.Header().Get("Content-Type"), "application/json")
}

func TestIdempotency_ScopedPerTenantAndKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	routerA := idempotencyRouter(t, store, &identityapp.Principal{UserID: uuid.New(), TenantID: uuid.New()}, http.StatusCreated, &calls)
	routerB := idempotencyRouter(t, store, &identityapp.Principal{UserID: uuid.New(), TenantID: uuid.New()}, http.StatusCreated, &calls)

	dispense(routerA, "shared-key")
	dispense(routerB, "shared-key")
	dispense(routerA, "other-key")
	dispense(routerA, "")
	dispense(routerA, "")

	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestIdempotency_ScopedPerResource(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	principal := &identityapp.Principal{UserID: uuid.New(), TenantID: uuid.New()}
	router := gin.New()
	router.Use(RequestID(), func(c *gin.Context) { SetPrincipal(c, principal) }, Idempotency(store, time.Hour))
	router.POST("/invoices/:id/post", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"id": c.Param("id")}))
	})

	post := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/invoices/"+id+"/post", nil)
		req.Header.Set(IdempotencyKeyHeader, "same-key")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := post("a")
	second := post("b")
	again := post("a")

	assert.Contains(t, first.Body.String(), `"id":"a"`)
	assert.Contains(t, second.Body.String(), `"id":"b"`)
	assert.Empty(t, second.Header().Get(IdempotencyReplayHeader))
	assert.Equal(t, "true", again.Header().Get(IdempotencyReplayHeader))
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	router := idempotencyRouter(t, store, &identityapp.Principal{UserID: uuid.New(), TenantID: uuid.New()}, http.StatusInternalServerError, &calls)

	dispense(router, "key-500")
	dispense(router, "key-500")

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Zero(t, store.Size())
}

func TestIdempotency_InFlightConflict(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	principal := &identityapp.Principal{UserID: uuid.New(), TenantID: uuid.New()}
	var calls int32
	router := idempotencyRouter(t, store, principal, http.StatusCreated, &calls)

	ok, err := store.Reserve(context.Background(), principal.TenantID.String()+":POST:/dispenses:busy", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	w := dispense(router, "busy")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeIdempotencyInFlight)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	router := idempotencyRouter(t, store, &identityapp.Principal{UserID: uuid.New(), TenantID: uuid.New()}, http.StatusCreated, &calls)

	w := dispense(router, strings.Repeat("k", maxIdempotencyKeyLength+1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type failingStore struct {
	mock.Mock
}

func (f *failingStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := f.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (f *failingStore) Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return f.Called(ctx, key, response, ttl).Error(0)
}

func (f *failingStore) Lookup(ctx context.Context, key string) ([]byte, bool, error) {
	args := f.Called(ctx, key)
	return nil, args.Bool(1), args.Error(2)
}

func (f *failingStore) Release(ctx context.Context, key string) error {
	return f.Called(ctx, key).Error(0)
}

func (f *failingStore) Close() error { return nil }

func TestIdempotency_StoreOutageFailsOpen(t *testing.T) {
	store := new(failingStore)
	store.On("Lookup", mock.Anything, mock.Anything).Return(nil, false, errors.New("redis down"))

	router := gin.New()
	router.Use(Idempotency(store, time.Hour))
	router.POST("/dispenses", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := dispense(router, "key-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	store.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything)
}
