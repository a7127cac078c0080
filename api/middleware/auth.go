package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/vendorhub-backend/api/responses"
	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

// Auth requires "Authorization: Bearer <token>" and puts the verified actor
// on the request context and its log scope.
func Auth(signer *auth.Signer, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
			token = strings.TrimSpace(token)
			if !strings.EqualFold(scheme, "bearer") || token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="vendorhub"`)
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token required"))
				return
			}

			actor, err := signer.Verify(token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="vendorhub", error="invalid_token"`)
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithActor(ctx, actor.ID.String(), string(actor.Role))
				if actor.VendorID != nil {
					ctx = logg.WithField(ctx, "vendor_id", actor.VendorID.String())
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
