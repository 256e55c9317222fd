package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/dealerhub/internal/audit/domain"
	"go.uber.org/zap"
)

// recordMutation runs after a successful write: it drops the cached home
// metrics and appends the audit entry. The write itself is already
// committed, so an audit failure only fails the request when the rules say so.
func (s *Server) recordMutation(c *gin.Context, action auditdomain.Action, entity auditdomain.Entity, entityID string, metadata map[string]any) error {
	ctx := c.Request.Context()
	s.dashboardSvc.Invalidate(ctx)

	actor, _ := actorFromContext(c)
	err := s.auditSvc.Record(ctx, actor.Raw, action, entity, entityID, metadata)
	if err == nil {
		return nil
	}

	s.obsMetrics.RecordAuditFailure(ctx, string(entity))
	if !s.rules.Get().FailOnAuditError() {
		return nil
	}
	s.log.Error("audit write failed after commit",
		zap.String("action", string(action)),
		zap.String("entity", string(entity)),
		zap.String("entity_id", entityID),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s %s", ErrAuditFailed, action, entity)
}
