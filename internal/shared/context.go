package shared

import (
	"context"
	"net/http"
	"strconv"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
)

// Request headers carrying the caller identity. Authentication happens
// upstream; the service trusts these values.
const (
	HeaderUserID    = "X-User-ID"
	HeaderCompanyID = "X-Company-ID"
)

// Actor identifies who performs a request and on behalf of which company.
type Actor struct {
	UserID    int64
	CompanyID int64
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// ActorFromRequest parses the identity headers. Missing or malformed values
// yield zero IDs.
func ActorFromRequest(r *http.Request) Actor {
	userID, _ := strconv.ParseInt(r.Header.Get(HeaderUserID), 10, 64)
	companyID, _ := strconv.ParseInt(r.Header.Get(HeaderCompanyID), 10, 64)
	return Actor{UserID: userID, CompanyID: companyID}
}

// ActorMiddleware places the request actor in context. Requests without a
// company are rejected on every route except the ones listed in public.
func ActorMiddleware(public ...string) func(http.Handler) http.Handler {
	open := make(map[string]struct{}, len(public))
	for _, p := range public {
		open[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := open[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			actor := ActorFromRequest(r)
			if actor.CompanyID <= 0 {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing "+HeaderCompanyID+" header")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}
