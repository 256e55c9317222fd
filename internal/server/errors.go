package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	auditdomain "github.com/smallbiznis/dealerhub/internal/audit/domain"
	"github.com/smallbiznis/dealerhub/internal/authorization"
	conflictdomain "github.com/smallbiznis/dealerhub/internal/conflict/domain"
	dealerdomain "github.com/smallbiznis/dealerhub/internal/dealer/domain"
	identitydomain "github.com/smallbiznis/dealerhub/internal/identity/domain"
	onboardingdomain "github.com/smallbiznis/dealerhub/internal/onboarding/domain"
	transferdomain "github.com/smallbiznis/dealerhub/internal/transfer/domain"
	"github.com/smallbiznis/dealerhub/pkg/db/pagination"
	"gorm.io/gorm"
)

const codeInvalidState = "INVALID_STATE"

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

// errorPayload is the body of every failed response. Business conflicts
// also carry the blocking dealer so the UI can offer a transfer request.
type errorPayload struct {
	Type       string            `json:"type"`
	Code       string            `json:"code,omitempty"`
	Message    string            `json:"message"`
	DealerID   string            `json:"dealerId,omitempty"`
	DealerName string            `json:"dealerName,omitempty"`
	Since      *time.Time        `json:"since,omitempty"`
	Errors     []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrAuditFailed    = errors.New("audit_failed")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	if cErr, ok := conflictdomain.AsError(err); ok {
		since := cErr.Conflict.Since
		return http.StatusConflict, errorPayload{
			Type:       "conflict",
			Code:       string(cErr.Conflict.Code),
			Message:    cErr.Conflict.Message(),
			DealerID:   cErr.Conflict.DealerID.String(),
			DealerName: cErr.Conflict.DealerName,
			Since:      &since,
		}
	}

	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, affiliationdomain.ErrInvalidState),
		errors.Is(err, transferdomain.ErrInvalidState):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    codeInvalidState,
			Message: "the record is not in a state that allows this action",
		}
	case errors.Is(err, transferdomain.ErrPendingTransferExists),
		errors.Is(err, affiliationdomain.ErrActiveAffiliationExists),
		errors.Is(err, identitydomain.ErrPersonExists),
		errors.Is(err, identitydomain.ErrClientExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    strings.ToUpper(err.Error()),
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog labels request errors for the access log without
// echoing their text.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return payload.Type, ""
	}
	code := payload.Code
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pagination.ErrInvalidCursor):
		return true
	case isDealerValidationError(err),
		isIdentityValidationError(err),
		isAffiliationValidationError(err),
		isTransferValidationError(err),
		isAuditQueryValidationError(err),
		isOnboardingValidationError(err),
		errors.Is(err, authorization.ErrInvalidActor),
		errors.Is(err, conflictdomain.ErrInvalidDealer):
		return true
	default:
		return false
	}
}

func isDealerValidationError(err error) bool {
	return isAny(err,
		dealerdomain.ErrInvalidLegalName,
		dealerdomain.ErrInvalidOutletName,
		dealerdomain.ErrInvalidLocation,
		dealerdomain.ErrInvalidStatus,
		dealerdomain.ErrInvalidID,
	)
}

func isIdentityValidationError(err error) bool {
	return isAny(err,
		identitydomain.ErrInvalidID,
		identitydomain.ErrInvalidNationalID,
		identitydomain.ErrInvalidName,
		identitydomain.ErrInvalidMobile,
		identitydomain.ErrInvalidEmail,
		identitydomain.ErrInvalidAddress,
		identitydomain.ErrInvalidClientType,
		identitydomain.ErrInvalidTaxID,
		identitydomain.ErrInvalidOrgName,
		identitydomain.ErrInvalidOfficeCode,
		identitydomain.ErrInvalidOfficialReference,
		identitydomain.ErrInvalidContactPerson,
		identitydomain.ErrInvalidGSTNumber,
		identitydomain.ErrInvalidRegistrationNumber,
		identitydomain.ErrInvalidSearch,
		identitydomain.ErrVehicleExists,
	)
}

func isAffiliationValidationError(err error) bool {
	return isAny(err,
		affiliationdomain.ErrInvalidID,
		affiliationdomain.ErrInvalidDealer,
		affiliationdomain.ErrInvalidDateOfJoining,
		affiliationdomain.ErrInvalidSeparationDate,
		affiliationdomain.ErrInvalidSeparationType,
		affiliationdomain.ErrInvalidRemarks,
		affiliationdomain.ErrInvalidActor,
		affiliationdomain.ErrInvalidStatus,
		affiliationdomain.ErrInvalidReason,
	)
}

func isTransferValidationError(err error) bool {
	return isAny(err,
		transferdomain.ErrInvalidID,
		transferdomain.ErrInvalidClient,
		transferdomain.ErrInvalidFromDealer,
		transferdomain.ErrInvalidToDealer,
		transferdomain.ErrInvalidActor,
		transferdomain.ErrInvalidStatus,
		transferdomain.ErrInvalidReason,
		transferdomain.ErrSameDealer,
		transferdomain.ErrSourceNotActive,
	)
}

// Audit write errors never reach the client as validation failures; only
// query parameters are the caller's fault.
func isAuditQueryValidationError(err error) bool {
	return isAny(err,
		auditdomain.ErrInvalidEntity,
		auditdomain.ErrInvalidEntityID,
		auditdomain.ErrInvalidPageToken,
	)
}

func isOnboardingValidationError(err error) bool {
	return isAny(err,
		onboardingdomain.ErrInvalidDealer,
		onboardingdomain.ErrVehiclesRequired,
	)
}

func isNotFoundError(err error) bool {
	return isAny(err,
		ErrNotFound,
		dealerdomain.ErrNotFound,
		identitydomain.ErrPersonNotFound,
		identitydomain.ErrClientNotFound,
		affiliationdomain.ErrEmploymentNotFound,
		affiliationdomain.ErrClientLinkNotFound,
		transferdomain.ErrNotFound,
		gorm.ErrRecordNotFound,
	)
}

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// validationErrorField turns "invalid_date_of_joining" into "dateOfJoining".
func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "vehicle_exists":
		return "registrationNumber"
	case "invalid_same_dealer":
		return "toDealerId"
	case "invalid_source_not_active":
		return "fromDealerId"
	}
	if !strings.HasPrefix(code, "invalid_") {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(code, "invalid_"), "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "id" {
			parts[i] = "Id"
			continue
		}
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_search":
		return "at least one search parameter is required"
	case "invalid_actor":
		return "X-Actor must be ADMIN or DEALER:<name>"
	case "vehicle_exists":
		return "registration number is already registered"
	case "invalid_same_dealer":
		return "source and destination dealer must differ"
	case "invalid_source_not_active":
		return "source dealer does not hold the client's active link"
	default:
		return "invalid value"
	}
}
