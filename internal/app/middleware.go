package app

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spendlog/spendlog/internal/rest"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

const userIdHeader = "X-User-Id"

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {
	r.Use(userMiddleware(deps.UserService))
}

// userMiddleware puts the user named by the X-User-Id header into the request context. Unknown users are
// rejected, except when they are about to create their profile.
func userMiddleware(users user.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			uid := req.Header.Get(userIdHeader)
			ctx := req.Context()

			if uid != "" {
				u, err := users.GetUserByUid(ctx, uid)
				switch {
				case errors.Is(err, user.ErrUserNotFound):
					if req.Method == http.MethodPost && req.URL.Path == "/api/user" {
						break
					}
					log.Debugf("user not found: %s", uid)
					w.Header().Set("Content-Type", "application/json")
					rest.WriteError(w, http.StatusForbidden, "User not found", "")
					return
				case err != nil:
					log.Errorf("failed to get user: %v", err)
					w.Header().Set("Content-Type", "application/json")
					rest.WriteError(w, http.StatusInternalServerError, "Failed to resolve user", err.Error())
					return
				default:
					log.Tracef("user found: %s", u.Uid)
					ctx = user.WithUser(ctx, u)
				}
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
