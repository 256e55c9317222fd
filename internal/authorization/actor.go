package authorization

import (
	"strings"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleDealer Role = "DEALER"
)

const dealerPrefix = "DEALER:"

// Actor is the caller identity sent in X-Actor. Raw is kept verbatim for
// the audit trail.
type Actor struct {
	Raw  string
	Role Role
	Name string
}

// ParseActor accepts "ADMIN" or "DEALER:<name>".
func ParseActor(raw string) (Actor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Actor{}, ErrInvalidActor
	}
	if strings.EqualFold(raw, string(RoleAdmin)) {
		return Actor{Raw: raw, Role: RoleAdmin}, nil
	}
	if len(raw) > len(dealerPrefix) && strings.EqualFold(raw[:len(dealerPrefix)], dealerPrefix) {
		name := strings.TrimSpace(raw[len(dealerPrefix):])
		if name == "" {
			return Actor{}, ErrInvalidActor
		}
		return Actor{Raw: raw, Role: RoleDealer, Name: name}, nil
	}
	return Actor{}, ErrInvalidActor
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) subject() string {
	return "role:" + strings.ToLower(string(a.Role))
}
