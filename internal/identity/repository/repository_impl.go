package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealerhub/internal/identity/domain"
	"github.com/smallbiznis/dealerhub/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const (
	personColumns  = `id, national_id, name, mobile, email, address, date_of_birth, created_at, updated_at`
	clientColumns  = `id, client_type, tax_id, org_id, name, contact_person, mobile, email, address, gst_number, created_at, updated_at`
	vehicleColumns = `id, client_id, registration_number, fuel_type, created_at`
)

func (r *repo) InsertPerson(ctx context.Context, conn *gorm.DB, person *domain.Person) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO persons (`+personColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		person.ID,
		person.NationalID,
		person.Name,
		person.Mobile,
		person.Email,
		person.Address,
		person.DateOfBirth,
		person.CreatedAt,
		person.UpdatedAt,
	).Error
}

func (r *repo) FindPersonByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Person, error) {
	return r.findPerson(ctx, conn, `id = ?`, id)
}

func (r *repo) FindPersonByNationalID(ctx context.Context, conn *gorm.DB, nationalID string) (*domain.Person, error) {
	return r.findPerson(ctx, conn, `national_id = ?`, nationalID)
}

func (r *repo) findPerson(ctx context.Context, conn *gorm.DB, where string, arg any) (*domain.Person, error) {
	var person domain.Person
	err := conn.WithContext(ctx).Raw(
		`SELECT `+personColumns+` FROM persons WHERE `+where,
		arg,
	).Scan(&person).Error
	if err != nil {
		return nil, err
	}
	if person.ID == 0 {
		return nil, nil
	}
	return &person, nil
}

func (r *repo) FindPersonsByIDs(ctx context.Context, conn *gorm.DB, ids []snowflake.ID) ([]*domain.Person, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var persons []*domain.Person
	err := conn.WithContext(ctx).Raw(
		`SELECT `+personColumns+` FROM persons WHERE id IN ?`,
		ids,
	).Scan(&persons).Error
	if err != nil {
		return nil, err
	}
	return persons, nil
}

func (r *repo) SearchPersons(ctx context.Context, conn *gorm.DB, filter domain.PersonSearch) ([]*domain.Person, error) {
	var persons []*domain.Person
	stmt := conn.WithContext(ctx).Model(&domain.Person{})
	if filter.NationalID != "" {
		stmt = stmt.Where("national_id = ?", filter.NationalID)
	}
	if filter.Name != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?"+db.EscapeLike, db.ContainsPattern(filter.Name))
	}
	if filter.Mobile != "" {
		stmt = stmt.Where("mobile = ?", filter.Mobile)
	}
	err := stmt.Order("name asc, id asc").Limit(domain.SearchLimit).Find(&persons).Error
	if err != nil {
		return nil, err
	}
	return persons, nil
}

func (r *repo) InsertClient(ctx context.Context, conn *gorm.DB, client *domain.Client) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		client.ID,
		client.ClientType,
		client.TaxID,
		client.OrgID,
		client.Name,
		client.ContactPerson,
		client.Mobile,
		client.Email,
		client.Address,
		client.GSTNumber,
		client.CreatedAt,
		client.UpdatedAt,
	).Error
}

func (r *repo) FindClientByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Client, error) {
	return r.findClient(ctx, conn, `id = ?`, id)
}

func (r *repo) FindClientByTaxID(ctx context.Context, conn *gorm.DB, taxID string) (*domain.Client, error) {
	return r.findClient(ctx, conn, `tax_id = ?`, taxID)
}

func (r *repo) FindClientByOrgID(ctx context.Context, conn *gorm.DB, orgID string) (*domain.Client, error) {
	return r.findClient(ctx, conn, `org_id = ?`, orgID)
}

func (r *repo) findClient(ctx context.Context, conn *gorm.DB, where string, arg any) (*domain.Client, error) {
	var client domain.Client
	err := conn.WithContext(ctx).Raw(
		`SELECT `+clientColumns+` FROM clients WHERE `+where,
		arg,
	).Scan(&client).Error
	if err != nil {
		return nil, err
	}
	if client.ID == 0 {
		return nil, nil
	}
	return &client, nil
}

func (r *repo) FindClientsByIDs(ctx context.Context, conn *gorm.DB, ids []snowflake.ID) ([]*domain.Client, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var clients []*domain.Client
	err := conn.WithContext(ctx).Raw(
		`SELECT `+clientColumns+` FROM clients WHERE id IN ?`,
		ids,
	).Scan(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *repo) SearchClients(ctx context.Context, conn *gorm.DB, filter domain.ClientSearch) ([]*domain.Client, error) {
	var clients []*domain.Client
	stmt := conn.WithContext(ctx).Model(&domain.Client{})
	if filter.TaxID != "" {
		stmt = stmt.Where("tax_id = ?", strings.ToUpper(filter.TaxID))
	}
	if filter.OrgID != "" {
		stmt = stmt.Where("org_id = ?", strings.ToUpper(filter.OrgID))
	}
	if filter.Name != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?"+db.EscapeLike, db.ContainsPattern(filter.Name))
	}
	if filter.VehicleRegistration != "" {
		stmt = stmt.Where(
			"EXISTS (SELECT 1 FROM vehicles v WHERE v.client_id = clients.id AND LOWER(v.registration_number) LIKE ?"+db.EscapeLike+")",
			db.ContainsPattern(filter.VehicleRegistration),
		)
	}
	err := stmt.Order("name asc, id asc").Limit(domain.SearchLimit).Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *repo) InsertVehicle(ctx context.Context, conn *gorm.DB, vehicle *domain.Vehicle) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO vehicles (`+vehicleColumns+`) VALUES (?, ?, ?, ?, ?)`,
		vehicle.ID,
		vehicle.ClientID,
		vehicle.RegistrationNumber,
		vehicle.FuelType,
		vehicle.CreatedAt,
	).Error
}

func (r *repo) FindVehicleByRegistration(ctx context.Context, conn *gorm.DB, registration string) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	err := conn.WithContext(ctx).Raw(
		`SELECT `+vehicleColumns+` FROM vehicles WHERE registration_number = ?`,
		registration,
	).Scan(&vehicle).Error
	if err != nil {
		return nil, err
	}
	if vehicle.ID == 0 {
		return nil, nil
	}
	return &vehicle, nil
}

func (r *repo) ListVehiclesByClientIDs(ctx context.Context, conn *gorm.DB, clientIDs []snowflake.ID) ([]*domain.Vehicle, error) {
	if len(clientIDs) == 0 {
		return nil, nil
	}
	var vehicles []*domain.Vehicle
	err := conn.WithContext(ctx).Raw(
		`SELECT `+vehicleColumns+` FROM vehicles WHERE client_id IN ? ORDER BY created_at asc, id asc`,
		clientIDs,
	).Scan(&vehicles).Error
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}
