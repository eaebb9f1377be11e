package middleware

import (
	"net/http"
	"strings"

	"papermerge/config"
	"papermerge/services"
	"papermerge/utils"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// AuthMiddleware resolves the acting identity: a bearer API token when
// present, otherwise the reverse-proxy remote-user header. The resolved
// actor and the audit identity are installed on the request context.
func AuthMiddleware(auth services.AuthService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var actor services.Actor
		var err error

		authHeader := c.GetHeader("Authorization")
		switch {
		case authHeader != "":
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				utils.Error(c, http.StatusUnauthorized, "malformed authorization header")
				c.Abort()
				return
			}
			actor, err = auth.AuthenticateToken(c.Request.Context(), parts[1])
		case c.GetHeader(cfg.Auth.RemoteUserHeader) != "":
			actor, err = auth.AuthenticateRemote(c.Request.Context(), c.GetHeader(cfg.Auth.RemoteUserHeader))
		default:
			utils.Error(c, http.StatusUnauthorized, "authentication missing")
			c.Abort()
			return
		}
		if err != nil {
			if appErr, ok := err.(*services.AppError); ok {
				utils.Error(c, appErr.HTTPCode, appErr.Message)
			} else {
				utils.Error(c, http.StatusUnauthorized, "authentication failed")
			}
			c.Abort()
			return
		}

		ctx := services.WithAuditIdentity(c.Request.Context(), services.AuditIdentity{
			UserID:   actor.User.ID,
			Username: actor.User.Username,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireScope gates a route group on one scope of the closed set.
// Superusers pass implicitly because their effective set is full.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			utils.Error(c, http.StatusUnauthorized, "authentication missing")
			c.Abort()
			return
		}
		if !actor.Scopes.Has(scope) {
			utils.Error(c, http.StatusForbidden, "missing required scope: "+scope)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFrom returns the authenticated actor installed by AuthMiddleware.
func ActorFrom(c *gin.Context) (services.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return services.Actor{}, false
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}
