package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"unicode"

	"github.com/ayo6706/otc-ledger/internal/api/problem"
	"github.com/ayo6706/otc-ledger/internal/idempotency"
	"github.com/ayo6706/otc-ledger/internal/observability"
	"go.uber.org/zap"
)

const maxIdempotencyKeyLen = 128

// IdempotencyMiddleware guards review actions (approve, reject, pay, transfer)
// with the Idempotency-Key header. A retried action replays the first
// response. Keys live in a per-caller namespace, and a response of 500 or
// above releases the key so the client may retry with it.
func IdempotencyMiddleware(store *idempotency.Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := r.Header.Get("Idempotency-Key")
			if clientKey == "" {
				observability.IncrementIdempotencyEvent("missing_key")
				problem.Write(w, r, http.StatusBadRequest, problem.Type("idempotency/missing-key"), "", "Idempotency-Key header is required")
				return
			}
			if !validKey(clientKey) {
				observability.IncrementIdempotencyEvent("invalid_key")
				problem.Write(w, r, http.StatusBadRequest, problem.Type("idempotency/invalid-key"), "", "Idempotency-Key must be 1-128 printable characters")
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				problem.Write(w, r, http.StatusBadRequest, problem.Type("request/invalid-body"), "", "Failed to read request body")
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			userID := UserIDFromContext(r.Context())
			key := scopedKey(userID, clientKey)
			hash := hashRequest(r.Method, r.URL.Path, userID, body)

			if handled := replayExisting(w, r, store, logger, key, hash); handled {
				return
			}

			reserved, err := store.Reserve(r.Context(), key, hash, r.Method, r.URL.Path)
			if err != nil {
				observability.IncrementIdempotencyEvent("reserve_error")
				logger.Error("idempotency reserve failed", zap.Error(err))
				problem.Write(w, r, http.StatusInternalServerError, problem.Type("idempotency/unavailable"), "", "idempotency unavailable")
				return
			}
			if !reserved {
				// Lost the race to a concurrent request carrying the same key.
				waitAndReplay(w, r, store, logger, key, hash, "replay_after_reserve")
				return
			}
			observability.IncrementIdempotencyEvent("reserved")

			recorder := &bodyRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)
			finish(r.Context(), store, logger, recorder, key, hash)
		})
	}
}

// replayExisting answers from a stored response when one exists. It reports
// whether the request was handled.
func replayExisting(w http.ResponseWriter, r *http.Request, store *idempotency.Store, logger *zap.Logger, key, hash string) bool {
	rec, err := store.Lookup(r.Context(), key, hash)
	switch {
	case err == nil:
		observability.IncrementIdempotencyEvent("replay")
		respondFromRecord(w, rec)
		return true
	case errors.Is(err, idempotency.ErrHashMismatch):
		observability.IncrementIdempotencyEvent("hash_mismatch")
		problem.Write(w, r, http.StatusConflict, problem.Type("idempotency/key-conflict"), "", "Idempotency-Key was already used for a different request")
		return true
	case errors.Is(err, idempotency.ErrInProgress):
		waitAndReplay(w, r, store, logger, key, hash, "replay_after_wait")
		return true
	case errors.Is(err, idempotency.ErrNotFound):
		return false
	default:
		observability.IncrementIdempotencyEvent("lookup_error")
		logger.Warn("idempotency lookup failed", zap.Error(err))
		return false
	}
}

func waitAndReplay(w http.ResponseWriter, r *http.Request, store *idempotency.Store, logger *zap.Logger, key, hash, outcome string) {
	rec, err := store.WaitForCompletion(r.Context(), key, hash)
	if err == nil {
		observability.IncrementIdempotencyEvent(outcome)
		respondFromRecord(w, rec)
		return
	}
	observability.IncrementIdempotencyEvent("in_progress_conflict")
	logger.Warn("idempotency wait failed", zap.Error(err))
	problem.Write(w, r, http.StatusConflict, problem.Type("idempotency/in-progress"), "", "a request with this Idempotency-Key is still being processed")
}

// finish stores the outcome of a reserved request. Workflow rejections (4xx)
// are stored like successes since retrying them cannot change the answer.
func finish(ctx context.Context, store *idempotency.Store, logger *zap.Logger, rec *bodyRecorder, key, hash string) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	if rec.status >= http.StatusInternalServerError {
		if err := store.Release(ctx, key, hash); err != nil {
			logger.Warn("idempotency release failed", zap.Error(err), zap.String("key", key))
		}
		observability.IncrementIdempotencyEvent("released")
		return
	}

	contentType := rec.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	if _, err := store.Finalize(ctx, key, hash, rec.status, rec.body.Bytes(), contentType); err != nil {
		observability.IncrementIdempotencyEvent("finalize_error")
		logger.Warn("idempotency finalize failed", zap.Error(err), zap.String("key", key))
		return
	}
	observability.IncrementIdempotencyEvent("finalized")
}

func validKey(key string) bool {
	if len(key) > maxIdempotencyKeyLen {
		return false
	}
	for _, c := range key {
		if c > unicode.MaxASCII || !unicode.IsPrint(c) || c == ' ' {
			return false
		}
	}
	return true
}

// scopedKey namespaces a client key by caller so two admins never collide.
func scopedKey(userID, key string) string {
	return userID + ":" + key
}

// hashRequest binds a key to the request it first arrived with.
func hashRequest(method, path, userID string, body []byte) string {
	sum := sha256.Sum256(append([]byte(method+"|"+path+"|"+userID+"|"), body...))
	return hex.EncodeToString(sum[:])
}

type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (br *bodyRecorder) WriteHeader(code int) {
	br.status = code
	br.ResponseWriter.WriteHeader(code)
}

func (br *bodyRecorder) Write(b []byte) (int, error) {
	if br.status == 0 {
		br.status = http.StatusOK
	}
	br.body.Write(b)
	return br.ResponseWriter.Write(b)
}

func respondFromRecord(w http.ResponseWriter, rec *idempotency.Record) {
	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("X-Idempotent-Replay", rec.ServedBy)
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}
