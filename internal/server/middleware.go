package server

import (
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dealerhub/internal/authorization"
	obscontext "github.com/smallbiznis/dealerhub/internal/observability/context"
)

const (
	HeaderActor     = "X-Actor"
	contextActorKey = "actor"
)

// RequireActor rejects mutating requests that do not identify their caller.
// It runs before any handler so a bad header never reaches the core.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := authorization.ParseActor(c.GetHeader(HeaderActor))
		if err != nil {
			AbortWithError(c, newValidationError("actor", "invalid_actor", validationErrorMessage("invalid_actor")))
			return
		}

		c.Set(contextActorKey, actor)
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), actor.Raw))
		c.Next()
	}
}

// authorize checks the actor's role against the policy for object and action.
func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			AbortWithError(c, newValidationError("actor", "invalid_actor", validationErrorMessage("invalid_actor")))
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), actor, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func actorFromContext(c *gin.Context) (authorization.Actor, bool) {
	value, ok := c.Get(contextActorKey)
	if !ok {
		return authorization.Actor{}, false
	}
	actor, ok := value.(authorization.Actor)
	return actor, ok
}
