package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	auditdomain "github.com/smallbiznis/dealerhub/internal/audit/domain"
	conflictdomain "github.com/smallbiznis/dealerhub/internal/conflict/domain"
	identitydomain "github.com/smallbiznis/dealerhub/internal/identity/domain"
	onboardingdomain "github.com/smallbiznis/dealerhub/internal/onboarding/domain"
)

type createClientRequest struct {
	ClientType        string        `json:"clientType"`
	TaxID             string        `json:"taxId"`
	PAN               string        `json:"pan"`
	OrgName           string        `json:"orgName"`
	OfficeCode        string        `json:"officeCode"`
	OfficialReference string        `json:"officialReference"`
	Name              string        `json:"name"`
	ContactPerson     string        `json:"contactPerson"`
	Mobile            string        `json:"mobile"`
	Email             string        `json:"email"`
	Address           string        `json:"address"`
	GSTNumber         string        `json:"gstNumber"`
	GSTIN             string        `json:"gstin"`
	Vehicles          vehicleInputs `json:"vehicles"`
	DealerID          string        `json:"dealerId"`
	DateOfOnboarding  string        `json:"dateOfOnboarding"`
}

// vehicleInputs accepts either bare registration numbers or
// {registrationNumber, fuelType} objects.
type vehicleInputs []identitydomain.VehicleInput

func (v *vehicleInputs) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(vehicleInputs, 0, len(raw))
	for _, item := range raw {
		var registration string
		if err := json.Unmarshal(item, &registration); err == nil {
			out = append(out, identitydomain.VehicleInput{RegistrationNumber: registration})
			continue
		}
		var input identitydomain.VehicleInput
		if err := json.Unmarshal(item, &input); err != nil {
			return err
		}
		out = append(out, input)
	}
	*v = out
	return nil
}

type addVehicleRequest struct {
	RegistrationNumber string `json:"registrationNumber"`
	FuelType           string `json:"fuelType"`
}

type clientSearchQuery struct {
	TaxID   string `form:"taxId"`
	PAN     string `form:"pan"`
	OrgID   string `form:"orgId"`
	GovID   string `form:"govId"`
	Vehicle string `form:"vehicle"`
	Name    string `form:"name"`
	Org     string `form:"org"`
}

type clientSearchResult struct {
	identitydomain.Client
	Vehicles   []identitydomain.Vehicle      `json:"vehicles"`
	ActiveLink *affiliationdomain.ClientLink `json:"activeLink"`
}

type dealerClient struct {
	affiliationdomain.ClientLink
	Client   *identitydomain.Client   `json:"client,omitempty"`
	Vehicles []identitydomain.Vehicle `json:"vehicles"`
}

func (s *Server) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dealerID, err := parseSnowflakeID("dealerId", req.DealerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	onboardedAt, err := parseOptionalDate("dateOfOnboarding", req.DateOfOnboarding)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	dateOfOnboarding := s.clock.Now()
	if onboardedAt != nil {
		dateOfOnboarding = *onboardedAt
	}

	resp, err := s.onboardingSvc.RegisterClient(c.Request.Context(), onboardingdomain.RegisterClientRequest{
		ClientInput: identitydomain.ClientInput{
			ClientType:        identitydomain.ClientType(strings.ToUpper(strings.TrimSpace(req.ClientType))),
			TaxID:             firstNonEmpty(req.TaxID, req.PAN),
			OrgName:           req.OrgName,
			OfficeCode:        req.OfficeCode,
			OfficialReference: req.OfficialReference,
			Name:              req.Name,
			ContactPerson:     req.ContactPerson,
			Mobile:            req.Mobile,
			Email:             req.Email,
			Address:           req.Address,
			GSTNumber:         firstNonEmpty(req.GSTNumber, req.GSTIN),
		},
		Vehicles:         req.Vehicles,
		DealerID:         dealerID,
		DateOfOnboarding: dateOfOnboarding,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	registrations := make([]string, 0, len(resp.Vehicles))
	for _, vehicle := range resp.Vehicles {
		registrations = append(registrations, vehicle.RegistrationNumber)
	}
	if err := s.recordMutation(c, auditdomain.ActionCreate, auditdomain.EntityClient, resp.Client.ID.String(), map[string]any{
		"clientType":    string(resp.Client.ClientType),
		"taxId":         resp.Client.TaxID,
		"orgId":         resp.Client.OrgID,
		"name":          resp.Client.Name,
		"mobile":        resp.Client.Mobile,
		"email":         resp.Client.Email,
		"gstNumber":     resp.Client.GSTNumber,
		"dealerId":      dealerID.String(),
		"linkId":        resp.Link.ID.String(),
		"vehicles":      registrations,
		"clientCreated": resp.ClientCreated,
		"reused":        resp.Reused,
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SearchClients(c *gin.Context) {
	var query clientSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	clients, err := s.identitySvc.SearchClients(ctx, identitydomain.ClientSearch{
		TaxID:               firstNonEmpty(query.TaxID, query.PAN),
		OrgID:               firstNonEmpty(query.OrgID, query.GovID),
		Name:                firstNonEmpty(query.Name, query.Org),
		VehicleRegistration: strings.TrimSpace(query.Vehicle),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ids := make([]snowflake.ID, 0, len(clients))
	for _, client := range clients {
		ids = append(ids, client.ID)
	}
	vehicles, err := s.identitySvc.ListVehicles(ctx, ids)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	links, err := s.affiliationSvc.ActiveClientLinks(ctx, ids)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	results := make([]clientSearchResult, 0, len(clients))
	for _, client := range clients {
		item := clientSearchResult{Client: client, Vehicles: vehicles[client.ID]}
		if item.Vehicles == nil {
			item.Vehicles = []identitydomain.Vehicle{}
		}
		if link, ok := links[client.ID]; ok {
			item.ActiveLink = &link
		}
		results = append(results, item)
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (s *Server) SimilarClients(c *gin.Context) {
	var query similarQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	dealerID, err := parseSnowflakeID("dealerId", query.DealerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	matches, err := s.conflictSvc.FindSimilarClients(c.Request.Context(), conflictdomain.SimilarQuery{
		Name:            strings.TrimSpace(query.Name),
		Mobile:          strings.TrimSpace(query.Mobile),
		Email:           strings.TrimSpace(query.Email),
		TaxID:           firstNonEmpty(query.TaxID, query.PAN),
		ExcludeDealerID: dealerID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if matches == nil {
		matches = []conflictdomain.SimilarClient{}
	}

	c.JSON(http.StatusOK, gin.H{"data": matches})
}

func (s *Server) AddVehicle(c *gin.Context) {
	clientID, err := parseSnowflakeID("id", c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req addVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	vehicle, err := s.identitySvc.AddVehicle(c.Request.Context(), clientID, identitydomain.VehicleInput{
		RegistrationNumber: req.RegistrationNumber,
		FuelType:           req.FuelType,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.recordMutation(c, auditdomain.ActionAddVehicle, auditdomain.EntityClient, clientID.String(), map[string]any{
		"vehicleId":          vehicle.ID.String(),
		"registrationNumber": vehicle.RegistrationNumber,
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vehicle})
}

func (s *Server) ListDealerClients(c *gin.Context) {
	dealerID, err := parseSnowflakeID("dealerId", c.Param("dealerId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := s.dealerSvc.GetByID(ctx, dealerID); err != nil {
		AbortWithError(c, err)
		return
	}

	links, err := s.affiliationSvc.ListClientLinksByDealer(ctx, dealerID, affiliationdomain.StatusActive)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	clientIDs := make([]snowflake.ID, 0, len(links))
	for _, link := range links {
		clientIDs = append(clientIDs, link.ClientID)
	}
	clients, err := s.identitySvc.LookupClients(ctx, clientIDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	vehicles, err := s.identitySvc.ListVehicles(ctx, clientIDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	results := make([]dealerClient, 0, len(links))
	for _, link := range links {
		item := dealerClient{ClientLink: link, Vehicles: vehicles[link.ClientID]}
		if client, ok := clients[link.ClientID]; ok {
			item.Client = &client
		}
		if item.Vehicles == nil {
			item.Vehicles = []identitydomain.Vehicle{}
		}
		results = append(results, item)
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}
