package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Code string

const (
	CodeEmployeeActiveElsewhere Code = "EMPLOYEE_ACTIVE_ELSEWHERE"
	CodeClientActiveElsewhere   Code = "CLIENT_ACTIVE_ELSEWHERE"
)

// Conflict describes the active affiliation that blocks a new one.
type Conflict struct {
	Code          Code         `json:"code"`
	AffiliationID snowflake.ID `json:"affiliationId"`
	DealerID      snowflake.ID `json:"dealerId"`
	DealerName    string       `json:"dealerName"`
	Since         time.Time    `json:"since"`
}

func (c Conflict) Message() string {
	switch c.Code {
	case CodeEmployeeActiveElsewhere:
		return "Employee is already active with another dealer"
	case CodeClientActiveElsewhere:
		return "Client is already active with another dealer"
	default:
		return "Identity is already active with another dealer"
	}
}

// Error carries a Conflict through error returns so handlers can render it.
type Error struct {
	Conflict Conflict
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: dealer %s since %s", e.Conflict.Code, e.Conflict.DealerID, e.Conflict.Since.Format(time.RFC3339))
}

func NewError(c Conflict) *Error {
	return &Error{Conflict: c}
}

// AsError unwraps a conflict error from err.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
