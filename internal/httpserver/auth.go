package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"printshop-commerce/internal/domain"
)

const (
	actorKey             = "actor"
	anonymousTokenHeader = "X-Anonymous-Token"
)

// actorMiddleware resolves the caller. A bearer token identifies a registered customer or
// staff member; otherwise X-Anonymous-Token names an anonymous session. Requests carrying
// neither continue without an actor. A credential that is present but invalid is rejected.
func actorMiddleware(customers CustomerService, sessions AnonymousService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			actor, err := customers.Authenticate(token)
			if err != nil {
				abortWithError(c, http.StatusUnauthorized, "invalid token")
				return
			}
			c.Set(actorKey, actor)
			c.Next()
			return
		}
		if token := strings.TrimSpace(c.GetHeader(anonymousTokenHeader)); token != "" {
			owner, err := sessions.Owner(c.Request.Context(), token)
			if err != nil {
				abortWithError(c, http.StatusUnauthorized, "invalid anonymous token")
				return
			}
			c.Set(actorKey, domain.Actor{Owner: owner, Role: domain.RoleCustomer})
		}
		c.Next()
	}
}

func requireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := actorFrom(c); !ok {
			abortWithError(c, http.StatusUnauthorized, "missing credentials")
			return
		}
		c.Next()
	}
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok || actor.Owner.IsAnonymous() {
			abortWithError(c, http.StatusUnauthorized, "sign in required")
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok && !actor.Owner.IsZero()
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
