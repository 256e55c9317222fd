package server

import (
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

type createEmployeeRequest struct {
	NationalID    string `json:"nationalId"`
	Aadhaar       string `json:"aadhaar"`
	Name          string `json:"name"`
	Mobile        string `json:"mobile"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	DateOfBirth   string `json:"dateOfBirth"`
	DealerID      string `json:"dealerId"`
	DateOfJoining string `json:"dateOfJoining"`
}

type endEmploymentRequest struct {
	SeparationDate string `json:"separationDate"`
	SeparationType string `json:"separationType"`
	Remarks        string `json:"remarks"`
}

type employeeSearchQuery struct {
	NationalID string `form:"nationalId"`
	Aadhaar    string `form:"aadhaar"`
	Name       string `form:"name"`
	Mobile     string `form:"mobile"`
}

type similarQuery struct {
	Name     string `form:"name"`
	Mobile   string `form:"mobile"`
	Email    string `form:"email"`
	TaxID    string `form:"taxId"`
	PAN      string `form:"pan"`
	DealerID string `form:"dealerId"`
}

type employeeSearchResult struct {
	identitydomain.Person
	Employments []affiliationdomain.Employment `json:"employments"`
}

type dealerEmployee struct {
	affiliationdomain.Employment
	Person *identitydomain.Person `json:"person,omitempty"`
}

func (s *Server) CreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dealerID, err := parseSnowflakeID("dealerId", req.DealerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	dateOfJoining, err := parseDate("dateOfJoining", req.DateOfJoining)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	dateOfBirth, err := parseOptionalDate("dateOfBirth", req.DateOfBirth)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.onboardingSvc.RegisterEmployee(c.Request.Context(), onboardingdomain.RegisterEmployeeRequest{
		PersonInput: identitydomain.PersonInput{
			NationalID:  firstNonEmpty(req.NationalID, req.Aadhaar),
			Name:        req.Name,
			Mobile:      req.Mobile,
			Email:       req.Email,
			Address:     req.Address,
			DateOfBirth: dateOfBirth,
		},
		DealerID:      dealerID,
		DateOfJoining: dateOfJoining,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if !resp.Reused {
		if err := s.recordMutation(c, auditdomain.ActionCreate, auditdomain.EntityEmployment, resp.Employment.ID.String(), map[string]any{
			"personId":      resp.Person.ID.String(),
			"nationalId":    resp.Person.NationalID,
			"name":          resp.Person.Name,
			"mobile":        resp.Person.Mobile,
			"email":         resp.Person.Email,
			"dealerId":      dealerID.String(),
			"dateOfJoining": dateOfJoining.Format(dateOnlyLayout),
			"personCreated": resp.PersonCreated,
		}); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SearchEmployees(c *gin.Context) {
	var query employeeSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	persons, err := s.identitySvc.SearchPersons(ctx, identitydomain.PersonSearch{
		NationalID: firstNonEmpty(query.NationalID, query.Aadhaar),
		Name:       strings.TrimSpace(query.Name),
		Mobile:     strings.TrimSpace(query.Mobile),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ids := make([]snowflake.ID, 0, len(persons))
	for _, person := range persons {
		ids = append(ids, person.ID)
	}
	employments, err := s.affiliationSvc.ListEmploymentsByPersons(ctx, ids)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	results := make([]employeeSearchResult, 0, len(persons))
	for _, person := range persons {
		history := employments[person.ID]
		if history == nil {
			history = []affiliationdomain.Employment{}
		}
		results = append(results, employeeSearchResult{Person: person, Employments: history})
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (s *Server) SimilarEmployees(c *gin.Context) {
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

	matches, err := s.conflictSvc.FindSimilarEmployees(c.Request.Context(), conflictdomain.SimilarQuery{
		Name:            strings.TrimSpace(query.Name),
		Mobile:          strings.TrimSpace(query.Mobile),
		Email:           strings.TrimSpace(query.Email),
		ExcludeDealerID: dealerID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if matches == nil {
		matches = []conflictdomain.SimilarEmployee{}
	}

	c.JSON(http.StatusOK, gin.H{"data": matches})
}

func (s *Server) EndEmployment(c *gin.Context) {
	id, err := parseSnowflakeID("id", c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req endEmploymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	separationDate, err := parseDate("separationDate", req.SeparationDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor, _ := actorFromContext(c)
	event, err := s.affiliationSvc.EndEmployment(c.Request.Context(), id, affiliationdomain.EndEmploymentRequest{
		SeparationDate: separationDate,
		SeparationType: affiliationdomain.SeparationType(req.SeparationType),
		Remarks:        req.Remarks,
		Actor:          actor.Raw,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.recordMutation(c, auditdomain.ActionEndEmployment, auditdomain.EntityEmployment, id.String(), map[string]any{
		"separationDate": separationDate.Format(dateOnlyLayout),
		"separationType": string(event.SeparationType),
		"remarks":        event.Remarks,
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": event})
}

func (s *Server) ListDealerEmployees(c *gin.Context) {
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

	status := affiliationdomain.Status(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	employments, err := s.affiliationSvc.ListEmploymentsByDealer(ctx, dealerID, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	personIDs := make([]snowflake.ID, 0, len(employments))
	for _, employment := range employments {
		personIDs = append(personIDs, employment.PersonID)
	}
	persons, err := s.identitySvc.LookupPersons(ctx, personIDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	results := make([]dealerEmployee, 0, len(employments))
	for _, employment := range employments {
		item := dealerEmployee{Employment: employment}
		if person, ok := persons[employment.PersonID]; ok {
			item.Person = &person
		}
		results = append(results, item)
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}
