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
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/vendorhub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/vendorhub-backend/pkg/redis"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	maxIdempotencyKeyLen   = 128
	maxIdempotentBodyBytes = 1 << 20

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour

	statePending  = "pending"
	stateComplete = "complete"
)

// idempotentRoute matches a request path segment by segment; "*" matches any
// single segment.
type idempotentRoute struct {
	method  string
	pattern string
	ttl     time.Duration
}

// Order placement and refund requests move money, so their keys live longest.
var idempotentRoutes = []idempotentRoute{
	{http.MethodPost, "/api/v1/orders", criticalIdempotencyTTL},
	{http.MethodPost, "/api/v1/refunds", criticalIdempotencyTTL},
	{http.MethodPost, "/api/v1/orders/*/vendors/*/dispatch", defaultIdempotencyTTL},
	{http.MethodPost, "/api/v1/refunds/*/messages", defaultIdempotencyTTL},
	{http.MethodPost, "/api/v1/complaints", defaultIdempotencyTTL},
}

// replayRecord is what sits under an idempotency key. A pending record marks
// a request still being handled; a complete one carries the response to
// replay. Body is base64 encoded by encoding/json.
type replayRecord struct {
	State       string `json:"state"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency claims the Idempotency-Key before the handler runs, so two
// concurrent requests with one key never both execute. A finished response
// is stored and replayed; a reused key with a different body is refused.
// Server errors release the claim so the client may retry. ttlOverride
// replaces the default TTL of the shorter lived routes when positive.
func Idempotency(store pkgredis.IdempotencyStore, ttlOverride time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := idempotencyTTL(r.Method, r.URL.Path)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if ttlOverride > 0 && ttl == defaultIdempotencyTTL {
				ttl = ttlOverride
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			switch {
			case clientKey == "":
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			case len(clientKey) > maxIdempotencyKeyLen:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBodyBytes+1))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			if len(body) > maxIdempotentBodyBytes {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
					WithDetails(map[string]any{"max_bytes": maxIdempotentBodyBytes}))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := requestHash(body)
			key := store.IdempotencyKey(requestScope(r), clientKey)

			claimed, err := claim(ctx, store, key, hash, ttl)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replayOrReject(ctx, logg, w, store, key, hash)
				return
			}

			// the outcome is recorded even if the client went away mid-request
			storeCtx := context.WithoutCancel(ctx)
			capture := &responseCapture{ResponseWriter: w}
			serveClaimed(storeCtx, logg, store, key, next, capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				release(storeCtx, logg, store, key)
				return
			}
			done, err := json.Marshal(replayRecord{
				State:       stateComplete,
				RequestHash: hash,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if err == nil {
				err = store.Set(storeCtx, key, string(done), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(ctx, "idempotency.persist_failed", err)
			}
		})
	}
}

func claim(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string, ttl time.Duration) (bool, error) {
	pending, err := json.Marshal(replayRecord{State: statePending, RequestHash: hash})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(pending), ttl)
}

// serveClaimed runs the handler under a claimed key. A panic releases the
// key before it propagates, otherwise the key would stay pending for its TTL.
func serveClaimed(ctx context.Context, logg *logger.Logger, store pkgredis.IdempotencyStore, key string, next http.Handler, w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			release(ctx, logg, store, key)
			panic(rec)
		}
	}()
	next.ServeHTTP(w, r)
}

func release(ctx context.Context, logg *logger.Logger, store pkgredis.IdempotencyStore, key string) {
	if err := store.Del(ctx, key); err != nil && logg != nil {
		logg.Error(ctx, "idempotency.release_failed", err)
	}
}

func replayOrReject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, store pkgredis.IdempotencyStore, key, hash string) {
	stored, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// released by a failed first attempt between our claim and read
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key was just released, retry"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency record"))
		return
	}
	var record replayRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != hash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if record.State != stateComplete {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is still in progress"))
		return
	}
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

// requestScope keeps keys from colliding across actors and endpoints.
func requestScope(r *http.Request) string {
	actorID, role := "anonymous", ""
	if actor, ok := ActorFromContext(r.Context()); ok {
		actorID, role = actor.ID.String(), string(actor.Role)
	}
	return strings.Join([]string{actorID, role, r.Method, r.URL.Path}, "|")
}

func requestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// idempotencyTTL matches against the raw URL path because the chi route
// pattern is still partial while group middleware runs.
func idempotencyTTL(method, path string) (time.Duration, bool) {
	for _, route := range idempotentRoutes {
		if route.method == method && pathMatches(route.pattern, path) {
			return route.ttl, true
		}
	}
	return 0, false
}

func pathMatches(pattern, path string) bool {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if got[i] == "" || (want[i] != "*" && want[i] != got[i]) {
			return false
		}
	}
	return true
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
