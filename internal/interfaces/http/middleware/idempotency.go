package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/infrastructure/logger"
	"github.com/clinicledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader    = "Idempotency-Key"
	IdempotencyReplayHeader = "Idempotency-Replayed"
	maxIdempotencyKeyLength = 255
)

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key already seen for the same tenant, method and request path.
// Requests without the header pass through. A repeat that arrives while the
// first request is still running gets 409. Server errors release the key so
// the client can retry. Place it after Auth.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || store == nil {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", c.GetString(RequestIDKey)))
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		scoped := c.GetString(TenantIDKey) + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		if raw, found, err := store.Lookup(ctx, scoped); err != nil {
			log.Warn("Idempotency lookup failed, processing request", zap.Error(err))
			c.Next()
			return
		} else if found {
			replayOrConflict(c, raw)
			return
		}

		reserved, err := store.Reserve(ctx, scoped, ttl)
		if err != nil {
			log.Warn("Idempotency reserve failed, processing request", zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			replayOrConflict(c, nil)
			return
		}

		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		status := writer.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Release(ctx, scoped); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
			return
		}
		encoded, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
		})
		if err == nil {
			err = store.Complete(ctx, scoped, encoded, ttl)
		}
		if err != nil {
			log.Warn("Failed to store idempotent response", zap.Error(err))
		}
	}
}

func replayOrConflict(c *gin.Context, raw []byte) {
	var stored storedResponse
	if len(raw) == 0 || json.Unmarshal(raw, &stored) != nil {
		c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeIdempotencyInFlight, "A request with this Idempotency-Key is still in progress", c.GetString(RequestIDKey)))
		return
	}
	c.Header(IdempotencyReplayHeader, "true")
	c.Data(stored.Status, stored.ContentType, stored.Body)
	c.Abort()
}
