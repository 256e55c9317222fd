package repository

import (
	"context"
	"strings"

	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	"github.com/smallbiznis/dealerhub/internal/conflict/domain"
	"github.com/smallbiznis/dealerhub/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) EmploymentCandidates(ctx context.Context, conn *gorm.DB, filter domain.CandidateFilter) ([]*affiliationdomain.Employment, error) {
	m := buildMatch("p", filter, false)
	if m.empty() {
		return nil, nil
	}

	// One row per person (its newest employment outside the dealer); exact
	// identifier hits sort ahead of name-only hits before the pool is cut.
	query := `SELECT e.id, e.person_id, e.dealer_id, e.date_of_joining, e.date_of_resignation, e.status, e.created_at, e.updated_at
		FROM employments e
		JOIN persons p ON p.id = e.person_id
		WHERE e.dealer_id <> ? AND (` + m.where() + `)
		AND NOT EXISTS (
			SELECT 1 FROM employments n
			WHERE n.person_id = e.person_id AND n.dealer_id <> ?
			AND (n.date_of_joining > e.date_of_joining OR (n.date_of_joining = e.date_of_joining AND n.id > e.id))
		)
		ORDER BY ` + m.exactRank() + `e.date_of_joining DESC, e.id DESC
		LIMIT ?`
	params := []any{filter.ExcludeDealerID}
	params = append(params, m.args...)
	params = append(params, filter.ExcludeDealerID)
	params = append(params, m.exactArgs...)
	params = append(params, filter.Limit)

	var employments []*affiliationdomain.Employment
	if err := conn.WithContext(ctx).Raw(query, params...).Scan(&employments).Error; err != nil {
		return nil, err
	}
	return employments, nil
}

func (r *repo) ClientLinkCandidates(ctx context.Context, conn *gorm.DB, filter domain.CandidateFilter) ([]*affiliationdomain.ClientLink, error) {
	m := buildMatch("c", filter, true)
	if m.empty() {
		return nil, nil
	}

	query := `SELECT l.id, l.client_id, l.dealer_id, l.status, l.date_of_onboarding, l.date_of_offboarding, l.offboarding_reason, l.created_at, l.updated_at
		FROM client_dealer_links l
		JOIN clients c ON c.id = l.client_id
		WHERE l.dealer_id <> ? AND (` + m.where() + `)
		AND NOT EXISTS (
			SELECT 1 FROM client_dealer_links n
			WHERE n.client_id = l.client_id AND n.dealer_id <> ?
			AND (n.date_of_onboarding > l.date_of_onboarding OR (n.date_of_onboarding = l.date_of_onboarding AND n.id > l.id))
		)
		ORDER BY ` + m.exactRank() + `l.date_of_onboarding DESC, l.id DESC
		LIMIT ?`
	params := []any{filter.ExcludeDealerID}
	params = append(params, m.args...)
	params = append(params, filter.ExcludeDealerID)
	params = append(params, m.exactArgs...)
	params = append(params, filter.Limit)

	var links []*affiliationdomain.ClientLink
	if err := conn.WithContext(ctx).Raw(query, params...).Scan(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// match holds the OR'd criteria. Exact identifier criteria (mobile, email,
// taxId) are kept apart so they can also drive the ordering.
type match struct {
	name      string
	exact     []string
	exactArgs []any
	args      []any
}

func buildMatch(alias string, filter domain.CandidateFilter, withTaxID bool) match {
	var m match
	if filter.Name != "" {
		m.name = "LOWER(" + alias + ".name) LIKE ?" + db.EscapeLike
		m.args = append(m.args, db.ContainsPattern(filter.Name))
	}
	if filter.Mobile != "" {
		m.exact = append(m.exact, alias+".mobile = ?")
		m.exactArgs = append(m.exactArgs, filter.Mobile)
	}
	if filter.Email != "" {
		m.exact = append(m.exact, "LOWER("+alias+".email) = ?")
		m.exactArgs = append(m.exactArgs, strings.ToLower(filter.Email))
	}
	if withTaxID && filter.TaxID != "" {
		m.exact = append(m.exact, alias+".tax_id = ?")
		m.exactArgs = append(m.exactArgs, strings.ToUpper(filter.TaxID))
	}

	m.args = append(m.args, m.exactArgs...)
	return m
}

func (m match) empty() bool {
	return m.name == "" && len(m.exact) == 0
}

func (m match) where() string {
	clauses := make([]string, 0, len(m.exact)+1)
	if m.name != "" {
		clauses = append(clauses, m.name)
	}
	return strings.Join(append(clauses, m.exact...), " OR ")
}

// exactRank is the leading ORDER BY term placing exact identifier hits
// first. It is empty when no exact criterion was given.
func (m match) exactRank() string {
	if len(m.exact) == 0 {
		return ""
	}
	return "CASE WHEN " + strings.Join(m.exact, " OR ") + " THEN 0 ELSE 1 END, "
}
