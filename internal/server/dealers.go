package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/dealerhub/internal/audit/domain"
	dealerdomain "github.com/smallbiznis/dealerhub/internal/dealer/domain"
)

type createDealerRequest struct {
	LegalName  string `json:"legalName"`
	OutletName string `json:"outletName"`
	Location   string `json:"location"`
}

type updateDealerRequest struct {
	Status string `json:"status"`
}

func (s *Server) CreateDealer(c *gin.Context) {
	var req createDealerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.dealerSvc.Create(c.Request.Context(), dealerdomain.CreateDealerRequest{
		LegalName:  req.LegalName,
		OutletName: req.OutletName,
		Location:   req.Location,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.recordMutation(c, auditdomain.ActionCreate, auditdomain.EntityDealer, resp.ID.String(), map[string]any{
		"code":       resp.Code,
		"legalName":  resp.LegalName,
		"outletName": resp.OutletName,
		"location":   resp.Location,
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDealers(c *gin.Context) {
	resp, err := s.dealerSvc.List(c.Request.Context(), dealerdomain.ListDealerRequest{
		Status: strings.TrimSpace(c.Query("status")),
		Name:   strings.TrimSpace(c.Query("name")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if resp == nil {
		resp = []dealerdomain.Dealer{}
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDealer(c *gin.Context) {
	id, err := parseSnowflakeID("id", c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dealerSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateDealer(c *gin.Context) {
	id, err := parseSnowflakeID("id", c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateDealerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.dealerSvc.UpdateStatus(c.Request.Context(), id, dealerdomain.Status(req.Status))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.recordMutation(c, auditdomain.ActionUpdate, auditdomain.EntityDealer, id.String(), map[string]any{
		"status": string(resp.Status),
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
