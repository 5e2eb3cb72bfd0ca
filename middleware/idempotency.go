package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Govind-619/PropertyHub/utils"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// IdempotencyKeyHeader is the header carrying the client supplied key
	IdempotencyKeyHeader = "X-Idempotency-Key"
	// IdempotencyReplayHeader marks responses served from a stored record
	IdempotencyReplayHeader = "X-Idempotent-Replay"
	IdempotencyKeyPrefix    = "idempotency:"
	DefaultIdempotencyTTL   = 24 * time.Hour
	DefaultProcessingTTL    = 60 * time.Second
)

type idempotencyStatus string

const (
	statusProcessing idempotencyStatus = "processing"
	statusCompleted  idempotencyStatus = "completed"
)

type idempotencyRecord struct {
	Status       idempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code,omitempty"`
	ResponseBody string            `json:"response_body,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// RedisClient is the subset of go-redis the idempotency store needs
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Idempotency replays the stored response of a completed POST that carried the
// same X-Idempotency-Key. Requests without the header pass through. Failed
// responses are not stored so the client may retry with the same key.
// A nil client disables the middleware.
func Idempotency(client RedisClient, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if client == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				utils.BadRequest(c, "Unable to read request body", nil)
				c.Abort()
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		ctx := c.Request.Context()
		redisKey := IdempotencyKeyPrefix + ActorID(c) + ":" + key
		hash := requestHash(c, body)

		record := &idempotencyRecord{Status: statusProcessing, RequestHash: hash, CreatedAt: time.Now()}
		acquired, err := setNX(ctx, client, redisKey, record)
		if err != nil {
			utils.LogWarn("Idempotency store unavailable, continuing without it: %v", err)
			c.Next()
			return
		}

		if !acquired {
			existing, err := getRecord(ctx, client, redisKey)
			if err != nil {
				if errors.Is(err, redis.Nil) {
					// record expired between SETNX and GET
					c.Next()
					return
				}
				utils.LogWarn("Idempotency lookup failed for key %s: %v", key, err)
				c.Next()
				return
			}
			replayOrReject(c, existing, hash)
			return
		}

		rw := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rw
		c.Next()

		status := rw.Status()
		if status < 200 || status >= 300 {
			if err := client.Del(ctx, redisKey).Err(); err != nil {
				utils.LogWarn("Failed to release idempotency key %s: %v", key, err)
			}
			return
		}

		record.Status = statusCompleted
		record.ResponseCode = status
		record.ResponseBody = rw.body.String()
		data, err := json.Marshal(record)
		if err == nil {
			err = client.Set(ctx, redisKey, data, ttl).Err()
		}
		if err != nil {
			utils.LogWarn("Failed to store idempotent response for key %s: %v", key, err)
		}
	}
}

func replayOrReject(c *gin.Context, existing *idempotencyRecord, hash string) {
	if existing.RequestHash != hash {
		utils.Error(c, http.StatusUnprocessableEntity, "Idempotency key already used with a different request", nil)
		c.Abort()
		return
	}
	if existing.Status == statusProcessing {
		utils.Conflict(c, "A request with this idempotency key is already being processed", nil)
		c.Abort()
		return
	}
	c.Header(IdempotencyReplayHeader, "true")
	c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
	c.Abort()
}

func requestHash(c *gin.Context, body []byte) string {
	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte(c.Request.URL.Path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func setNX(ctx context.Context, client RedisClient, key string, record *idempotencyRecord) (bool, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return false, err
	}
	return client.SetNX(ctx, key, data, DefaultProcessingTTL).Result()
}

func getRecord(ctx context.Context, client RedisClient, key string) (*idempotencyRecord, error) {
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var record idempotencyRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
