package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/angelmondragon/vendorhub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

// PerActorRateLimit caps requests per actor, falling back to the client IP,
// over a one minute window. A non-positive limit disables it.
func PerActorRateLimit(perMinute int, logg *logger.Logger) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(actorRateKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many document requests"))
		}),
	)
}

func actorRateKey(r *http.Request) (string, error) {
	if actor, ok := ActorFromContext(r.Context()); ok {
		return "actor:" + actor.ID.String(), nil
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr, nil
	}
	return "ip:" + host, nil
}
