package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var fixtureTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// InsertDealer adds an ACTIVE dealer whose legal and outlet names derive from name.
func InsertDealer(t *testing.T, db *gorm.DB, id snowflake.ID, name string) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO dealers (id, code, legal_name, outlet_name, location, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 'ACTIVE', ?, ?)`,
		id, strings.ToLower(strings.ReplaceAll(name, " ", "-"))+"-"+id.String(), name+" Pvt Ltd", name, "Srinagar", fixtureTime, fixtureTime,
	).Error
	if err != nil {
		t.Fatalf("insert dealer: %v", err)
	}
}

func InsertPerson(t *testing.T, db *gorm.DB, id snowflake.ID, nationalID, name string) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO persons (id, national_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, nationalID, name, fixtureTime, fixtureTime,
	).Error
	if err != nil {
		t.Fatalf("insert person: %v", err)
	}
}

func InsertPrivateClient(t *testing.T, db *gorm.DB, id snowflake.ID, taxID, name string) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO clients (id, client_type, tax_id, name, created_at, updated_at) VALUES (?, 'PRIVATE', ?, ?, ?, ?)`,
		id, taxID, name, fixtureTime, fixtureTime,
	).Error
	if err != nil {
		t.Fatalf("insert client: %v", err)
	}
}

// CountActive returns the number of ACTIVE rows in table matching column = id.
func CountActive(t *testing.T, db *gorm.DB, table, column string, id snowflake.ID) int64 {
	t.Helper()
	var count int64
	if err := db.Table(table).Where(column+" = ? AND status = 'ACTIVE'", id).Count(&count).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}
