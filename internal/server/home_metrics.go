package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetHomeMetrics serves the dashboard counts through the read-through cache.
func (s *Server) GetHomeMetrics(c *gin.Context) {
	resp, err := s.dashboardSvc.ComputeHomeMetrics(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
