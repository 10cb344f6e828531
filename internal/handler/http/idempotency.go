package http

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/internal/repository"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
	"github.com/utafrali/catalog-review/pkg/httputil"
	"github.com/utafrali/catalog-review/pkg/logger"
	"github.com/utafrali/catalog-review/pkg/middleware"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotentReplayedHeader  = "Idempotent-Replayed"
	maxIdempotencyKeyLength   = 255
	maxIdempotentRequestBytes = 1 << 20
)

// Idempotent replays the stored response when a request repeats an
// Idempotency-Key with the same fingerprint, and rejects reuse of a key for a
// different request with 422. Only successful responses are stored. Requests
// without the header pass through untouched, as do all requests when the
// store is unreachable.
func Idempotent(store repository.IdempotencyRepository, fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLength {
				httputil.WriteError(w, r, apperrors.InvalidInput("Idempotency-Key is too long"), fallback)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentRequestBytes+1))
			if err != nil {
				httputil.WriteError(w, r, apperrors.InvalidInput("could not read request body"), fallback)
				return
			}
			if len(body) > maxIdempotentRequestBytes {
				httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "PAYLOAD_TOO_LARGE", Message: "request body exceeds 1 MiB"},
				})
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			log := logger.FromContextOr(r.Context(), fallback)
			scopedKey := middleware.UserIDFromContext(r.Context()) + ":" + key
			fingerprint := requestFingerprint(r, body)

			stored, err := store.Get(r.Context(), scopedKey)
			switch {
			case err == nil:
				if stored.Fingerprint != fingerprint {
					httputil.WriteError(w, r, apperrors.Unprocessable("Idempotency-Key was already used for a different request"), fallback)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(IdempotentReplayedHeader, "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			case !errors.Is(err, apperrors.ErrNotFound):
				log.WarnContext(r.Context(), "idempotency lookup failed, processing request",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			rec := &capturingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status < 200 || rec.status >= 300 {
				return
			}
			saved, err := store.Save(r.Context(), scopedKey, &domain.StoredResponse{
				Fingerprint: fingerprint,
				Status:      rec.status,
				Body:        rec.body.Bytes(),
			})
			if err != nil {
				log.WarnContext(r.Context(), "failed to store idempotent response", slog.String("error", err.Error()))
				return
			}
			if !saved {
				log.InfoContext(r.Context(), "concurrent request stored idempotent response first",
					slog.String("idempotency_key", key),
				)
			}
		})
	}
}

// requestFingerprint hashes the parts of a request that must match for a
// replay to be served.
func requestFingerprint(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.RawQuery))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(len(body))))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type capturingWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (c *capturingWriter) WriteHeader(code int) {
	if !c.wroteHeader {
		c.status = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *capturingWriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *capturingWriter) Unwrap() http.ResponseWriter {
	return c.ResponseWriter
}
