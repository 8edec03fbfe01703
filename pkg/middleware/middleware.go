// Package middleware carries the transport-edge plumbing: the database
// pool, the request correlation id and the acting staff member are placed
// into the request context for the service layer.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/staffledger/pkg/composables"
)

// ActorIDHeader names the authenticated staff member. Authentication itself
// happens upstream; the server trusts this header.
const ActorIDHeader = "X-Actor-ID"

func WithPool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}

// RequestID propagates the caller's correlation id, minting one when the
// header is absent or malformed. The id is echoed back to the client and
// stamped onto audit entries.
func RequestID(header string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(strings.TrimSpace(r.Header.Get(header)))
			if err != nil || id == uuid.Nil {
				id = uuid.New()
			}
			w.Header().Set(header, id.String())
			next.ServeHTTP(w, r.WithContext(composables.WithRequestID(r.Context(), id)))
		})
	}
}

// ActorID records who is performing the request. Requests without the
// header stay anonymous; mutating operations that need an actor fail later
// with ErrNoActor.
func ActorID() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actorID, err := strconv.ParseInt(strings.TrimSpace(r.Header.Get(ActorIDHeader)), 10, 64); err == nil && actorID > 0 {
				r = r.WithContext(composables.WithActorID(r.Context(), actorID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
