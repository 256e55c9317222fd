package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/dealerhub/internal/audit/domain"
	transferdomain "github.com/smallbiznis/dealerhub/internal/transfer/domain"
	"github.com/smallbiznis/dealerhub/pkg/db/pagination"
)

type createTransferRequest struct {
	ClientID     string `json:"clientId"`
	FromDealerID string `json:"fromDealerId"`
	ToDealerID   string `json:"toDealerId"`
	Reason       string `json:"reason"`
}

type listTransfersQuery struct {
	pagination.Pagination
	Status   string `form:"status"`
	ClientID string `form:"clientId"`
	DealerID string `form:"dealerId"`
}

func (s *Server) CreateTransfer(c *gin.Context) {
	var req createTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	clientID, err := parseSnowflakeID("clientId", req.ClientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	fromDealerID, err := parseSnowflakeID("fromDealerId", req.FromDealerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	toDealerID, err := parseSnowflakeID("toDealerId", req.ToDealerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor, _ := actorFromContext(c)
	resp, err := s.transferSvc.Create(c.Request.Context(), transferdomain.CreateTransferRequest{
		ClientID:     clientID,
		FromDealerID: fromDealerID,
		ToDealerID:   toDealerID,
		Reason:       req.Reason,
		Actor:        actor.Raw,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.recordMutation(c, auditdomain.ActionCreate, auditdomain.EntityTransfer, resp.ID.String(), map[string]any{
		"clientId":     clientID.String(),
		"fromDealerId": fromDealerID.String(),
		"toDealerId":   toDealerID.String(),
		"reason":       strings.TrimSpace(req.Reason),
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApproveTransfer(c *gin.Context) {
	s.decideTransfer(c, auditdomain.ActionApprove, s.transferSvc.Approve)
}

func (s *Server) RejectTransfer(c *gin.Context) {
	s.decideTransfer(c, auditdomain.ActionReject, s.transferSvc.Reject)
}

func (s *Server) CancelTransfer(c *gin.Context) {
	s.decideTransfer(c, auditdomain.ActionCancel, s.transferSvc.Cancel)
}

type transferDecision func(ctx context.Context, id snowflake.ID, actor string) (transferdomain.TransferRequest, error)

func (s *Server) decideTransfer(c *gin.Context, action auditdomain.Action, decide transferDecision) {
	id, err := parseSnowflakeID("id", c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor, _ := actorFromContext(c)
	resp, err := decide(c.Request.Context(), id, actor.Raw)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.recordMutation(c, action, auditdomain.EntityTransfer, id.String(), map[string]any{
		"clientId":     resp.ClientID.String(),
		"fromDealerId": resp.FromDealerID.String(),
		"toDealerId":   resp.ToDealerID.String(),
		"status":       string(resp.Status),
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

func (s *Server) ListTransfers(c *gin.Context) {
	var query listTransfersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	clientID, err := parseOptionalSnowflakeID("clientId", query.ClientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	dealerID, err := parseOptionalSnowflakeID("dealerId", query.DealerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	req := transferdomain.ListTransferRequest{
		Pagination: query.Pagination,
		Status:     strings.TrimSpace(query.Status),
	}
	if clientID != nil {
		req.ClientID = *clientID
	}
	if dealerID != nil {
		req.DealerID = *dealerID
	}

	resp, err := s.transferSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Transfers, "pageInfo": resp.PageInfo})
}

func (s *Server) GetTransfer(c *gin.Context) {
	id, err := parseSnowflakeID("id", c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.transferSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
