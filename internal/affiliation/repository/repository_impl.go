package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const (
	employmentColumns = `id, person_id, dealer_id, date_of_joining, date_of_resignation, status, created_at, updated_at`
	linkColumns       = `id, client_id, dealer_id, status, date_of_onboarding, date_of_offboarding, offboarding_reason, created_at, updated_at`
)

func (r *repo) InsertEmployment(ctx context.Context, db *gorm.DB, employment *domain.Employment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO employments (`+employmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		employment.ID,
		employment.PersonID,
		employment.DealerID,
		employment.DateOfJoining,
		employment.DateOfResignation,
		employment.Status,
		employment.CreatedAt,
		employment.UpdatedAt,
	).Error
}

func (r *repo) FindEmploymentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Employment, error) {
	return r.findEmployment(ctx, db, `id = ?`, id)
}

func (r *repo) FindActiveEmployment(ctx context.Context, db *gorm.DB, personID snowflake.ID) (*domain.Employment, error) {
	return r.findEmployment(ctx, db, `person_id = ? AND status = 'ACTIVE'`, personID)
}

func (r *repo) findEmployment(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.Employment, error) {
	var employment domain.Employment
	err := db.WithContext(ctx).Raw(
		`SELECT `+employmentColumns+` FROM employments WHERE `+where,
		arg,
	).Scan(&employment).Error
	if err != nil {
		return nil, err
	}
	if employment.ID == 0 {
		return nil, nil
	}
	return &employment, nil
}

func (r *repo) ListEmploymentsByPersons(ctx context.Context, db *gorm.DB, personIDs []snowflake.ID) ([]*domain.Employment, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}
	var employments []*domain.Employment
	err := db.WithContext(ctx).Raw(
		`SELECT `+employmentColumns+` FROM employments WHERE person_id IN ? ORDER BY date_of_joining desc, id desc`,
		personIDs,
	).Scan(&employments).Error
	if err != nil {
		return nil, err
	}
	return employments, nil
}

func (r *repo) ListEmploymentsByDealer(ctx context.Context, db *gorm.DB, dealerID snowflake.ID, status domain.Status) ([]*domain.Employment, error) {
	var employments []*domain.Employment
	stmt := db.WithContext(ctx).Model(&domain.Employment{}).Where("dealer_id = ?", dealerID)
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	if err := stmt.Order("date_of_joining desc, id desc").Find(&employments).Error; err != nil {
		return nil, err
	}
	return employments, nil
}

func (r *repo) CloseEmployment(ctx context.Context, db *gorm.DB, id snowflake.ID, resignedAt, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE employments SET status = 'INACTIVE', date_of_resignation = ?, updated_at = ?
		 WHERE id = ? AND status = 'ACTIVE'`,
		resignedAt,
		at,
		id,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) InsertSeparationEvent(ctx context.Context, db *gorm.DB, event *domain.SeparationEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO separation_events (id, employment_id, separation_date, separation_type, remarks, recorded_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.EmploymentID,
		event.SeparationDate,
		event.SeparationType,
		event.Remarks,
		event.RecordedBy,
		event.CreatedAt,
	).Error
}

func (r *repo) InsertClientLink(ctx context.Context, db *gorm.DB, link *domain.ClientLink) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO client_dealer_links (`+linkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ID,
		link.ClientID,
		link.DealerID,
		link.Status,
		link.DateOfOnboarding,
		link.DateOfOffboarding,
		link.OffboardingReason,
		link.CreatedAt,
		link.UpdatedAt,
	).Error
}

func (r *repo) FindClientLinkByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ClientLink, error) {
	return r.findLink(ctx, db, `id = ?`, id)
}

func (r *repo) FindActiveClientLink(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (*domain.ClientLink, error) {
	return r.findLink(ctx, db, `client_id = ? AND status = 'ACTIVE'`, clientID)
}

func (r *repo) findLink(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.ClientLink, error) {
	var link domain.ClientLink
	err := db.WithContext(ctx).Raw(
		`SELECT `+linkColumns+` FROM client_dealer_links WHERE `+where,
		arg,
	).Scan(&link).Error
	if err != nil {
		return nil, err
	}
	if link.ID == 0 {
		return nil, nil
	}
	return &link, nil
}

func (r *repo) FindActiveClientLinks(ctx context.Context, db *gorm.DB, clientIDs []snowflake.ID) ([]*domain.ClientLink, error) {
	if len(clientIDs) == 0 {
		return nil, nil
	}
	var links []*domain.ClientLink
	err := db.WithContext(ctx).Raw(
		`SELECT `+linkColumns+` FROM client_dealer_links WHERE client_id IN ? AND status = 'ACTIVE'`,
		clientIDs,
	).Scan(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repo) ListClientLinksByDealer(ctx context.Context, db *gorm.DB, dealerID snowflake.ID, status domain.Status) ([]*domain.ClientLink, error) {
	var links []*domain.ClientLink
	stmt := db.WithContext(ctx).Model(&domain.ClientLink{}).Where("dealer_id = ?", dealerID)
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	if err := stmt.Order("date_of_onboarding desc, id desc").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repo) DeactivateClientLink(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE client_dealer_links SET status = 'INACTIVE', date_of_offboarding = ?, offboarding_reason = ?, updated_at = ?
		 WHERE id = ? AND status = 'ACTIVE'`,
		at,
		reason,
		at,
		id,
	)
	return res.RowsAffected, res.Error
}
