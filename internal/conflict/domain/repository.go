package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	"gorm.io/gorm"
)

// CandidateFilter is the OR'd match criteria pushed down to storage.
type CandidateFilter struct {
	Name            string
	Mobile          string
	Email           string
	TaxID           string
	ExcludeDealerID snowflake.ID
	Limit           int
}

func (f CandidateFilter) Empty() bool {
	return f.Name == "" && f.Mobile == "" && f.Email == "" && f.TaxID == ""
}

type Repository interface {
	// EmploymentCandidates returns, per matching person, the newest employment
	// outside the excluded dealer. Exact mobile/email hits come first, then
	// newest first, up to Limit rows.
	EmploymentCandidates(ctx context.Context, db *gorm.DB, filter CandidateFilter) ([]*affiliationdomain.Employment, error)
	// ClientLinkCandidates returns, per matching client, the newest link outside
	// the excluded dealer. Exact mobile/email/taxId hits come first.
	ClientLinkCandidates(ctx context.Context, db *gorm.DB, filter CandidateFilter) ([]*affiliationdomain.ClientLink, error)
}
