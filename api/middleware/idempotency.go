package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/lekhapadi/lekhapadi-backend/api/responses"
	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
	pkgredis "github.com/lekhapadi/lekhapadi-backend/pkg/redis"
)

const (
	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// claimTTL bounds how long a crashed request can block its key.
	claimTTL = 2 * time.Minute

	// signed uploads are 10 MiB by default; leave room for multipart framing.
	maxIdempotentBodyBytes = 32 << 20
)

// idempotentRoutes maps replayable POST routes to whether they are signing
// routes, whose replays are kept for a week instead of the configured TTL.
var idempotentRoutes = map[string]bool{
	"/api/v1/documents":                   false,
	"/api/v1/documents/upload":            false,
	"/api/v1/documents/request-signature": false,
	"/api/v1/documents/upload-signed":     true,
	"/api/v1/documents/digital-sign":      true,
}

// replay is what sits under an idempotency key. A record without a Status
// is a claim held by a request that has not finished yet.
type replay struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

func (r replay) pending() bool { return r.Status == 0 }

// Idempotency replays the first response for a repeated Idempotency-Key on
// the replayable document routes. The key is claimed before the handler
// runs, so a concurrent duplicate gets a 409 instead of a second execution.
// 5xx responses release the key so the client can retry.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			keepFor, replayable := routeTTL(r.Method, routePattern(r), ttl)
			clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if !replayable || store == nil || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBodyBytes+1))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read request body"))
				return
			}
			if len(body) > maxIdempotentBodyBytes {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodePayloadTooLarge, "request body too large"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := store.IdempotencyKey(buildScope(r), clientKey)
			fingerprint := fingerprintOf(r.Header.Get("Content-Type"), body)

			claimed, err := claim(ctx, store, key, fingerprint)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store"))
				return
			}
			if !claimed {
				answerDuplicate(ctx, store, key, fingerprint, w, logg)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			status := capture.statusOrOK()

			// release first: the claim has to go whether or not the outcome is kept
			if err := store.Del(ctx, key); err != nil {
				logError(ctx, logg, "release idempotency claim", err)
				return
			}
			if status >= http.StatusInternalServerError {
				return
			}
			finished, err := json.Marshal(replay{
				Fingerprint: fingerprint,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if err != nil {
				logError(ctx, logg, "encode idempotency replay", err)
				return
			}
			if _, err := store.SetNX(ctx, key, string(finished), keepFor); err != nil {
				logError(ctx, logg, "store idempotency replay", err)
			}
		})
	}
}

func claim(ctx context.Context, store pkgredis.IdempotencyStore, key, fingerprint string) (bool, error) {
	pending, err := json.Marshal(replay{Fingerprint: fingerprint})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(pending), claimTTL)
}

func answerDuplicate(ctx context.Context, store pkgredis.IdempotencyStore, key, fingerprint string, w http.ResponseWriter, logg *logger.Logger) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// the first request finished with a 5xx between our SetNX and Get
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is being retried"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store"))
		return
	}
	var prior replay
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "corrupt idempotency record"))
		return
	}

	switch {
	case prior.Fingerprint != fingerprint:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case prior.pending():
		w.Header().Set("Retry-After", "1")
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is still in progress"))
	default:
		if prior.ContentType != "" {
			w.Header().Set("Content-Type", prior.ContentType)
		}
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(prior.Status)
		_, _ = w.Write(prior.Body)
	}
}

// buildScope keeps keys from colliding across callers and routes.
func buildScope(r *http.Request) string {
	return UserEmailFromContext(r.Context()) + "|" + r.Method + "|" + r.URL.Path
}

func routePattern(r *http.Request) string {
	if r == nil {
		return ""
	}
	// mounted middleware only sees the partial "/prefix/*" pattern
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	if trimmed := strings.TrimSuffix(r.URL.Path, "/"); trimmed != "" {
		return trimmed
	}
	return r.URL.Path
}

func routeTTL(method, pattern string, standard time.Duration) (time.Duration, bool) {
	if method != http.MethodPost {
		return 0, false
	}
	signing, ok := idempotentRoutes[pattern]
	switch {
	case !ok:
		return 0, false
	case signing:
		return criticalIdempotencyTTL, true
	default:
		return standard, true
	}
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

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg != nil && err != nil {
		logg.Error(ctx, msg, err)
	}
}
