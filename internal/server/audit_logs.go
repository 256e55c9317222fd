package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/dealerhub/internal/audit/domain"
	"github.com/smallbiznis/dealerhub/pkg/db/pagination"
)

type listAuditLogsQuery struct {
	pagination.Pagination
	Entity   string `form:"entity"`
	ID       string `form:"id"`
	EntityID string `form:"entityId"`
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	var query listAuditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.auditSvc.Query(c.Request.Context(), auditdomain.QueryRequest{
		Pagination: query.Pagination,
		Entity:     strings.TrimSpace(query.Entity),
		EntityID:   firstNonEmpty(query.ID, query.EntityID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.AuditLogs, "pageInfo": resp.PageInfo})
}
