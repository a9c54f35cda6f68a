package survey

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"p9e.in/agrisurvey/models"
)

// openTestDB returns an isolated in-memory database with the full
// schema migrated.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Route{},
		&models.Farm{},
		&models.Crop{},
		&models.SoilSample{},
		&models.WaterSample{},
		&models.PestDiseaseReport{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fixture is the canonical two-enumerator dataset most tests run
// against. Alice holds two routes (one with farms, one empty), Bob
// holds one. Observations exist on Alice's first farm and Bob's farm.
type fixture struct {
	db *gorm.DB

	admin Principal
	alice Principal
	bob   Principal

	routeNorth models.Route // alice, in_progress, two farms
	routeSouth models.Route // alice, pending, no farms
	routeEast  models.Route // bob, pending, one farm

	farmGreen   models.Farm // routeNorth, has soil sample + pest report
	farmSunrise models.Farm // routeNorth, no observations
	farmRiver   models.Farm // routeEast, has water sample

	soilGreen  models.SoilSample
	waterRiver models.WaterSample
	pestGreen  models.PestDiseaseReport
}

// fixtureBase anchors the CreatedAt sequence so ordering assertions
// are deterministic.
var fixtureBase = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return fixtureBase.Add(time.Duration(minutes) * time.Minute)
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

func seedFixture(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)
	f := &fixture{db: db}

	admin := models.User{
		Username: "admin", Email: "admin@example.com", Name: "Admin",
		PasswordHash: "x", Role: models.RoleAdmin, IsActive: true,
	}
	alice := models.User{
		Username: "alice", Email: "alice@example.com", Name: "Alice",
		PasswordHash: "x", Role: models.RoleEnumerator, IsActive: true,
	}
	bob := models.User{
		Username: "bob", Email: "bob@example.com", Name: "Bob",
		PasswordHash: "x", Role: models.RoleEnumerator, IsActive: true,
	}
	mustCreate(t, db, &admin)
	mustCreate(t, db, &alice)
	mustCreate(t, db, &bob)
	f.admin = Principal{ID: admin.ID, Role: admin.Role}
	f.alice = Principal{ID: alice.ID, Role: alice.Role}
	f.bob = Principal{ID: bob.ID, Role: bob.Role}

	f.routeNorth = models.Route{
		Name: "Akola North", AssignedToID: alice.ID,
		DateAssigned: models.NewDate(at(0)), Status: models.RouteStatusInProgress,
	}
	f.routeSouth = models.Route{
		Name: "Akola South", AssignedToID: alice.ID,
		DateAssigned: models.NewDate(at(0)), Status: models.RouteStatusPending,
	}
	f.routeEast = models.Route{
		Name: "Bidar East", AssignedToID: bob.ID,
		DateAssigned: models.NewDate(at(0)), Status: models.RouteStatusPending,
	}
	mustCreate(t, db, &f.routeNorth)
	mustCreate(t, db, &f.routeSouth)
	mustCreate(t, db, &f.routeEast)

	f.farmGreen = models.Farm{
		RouteID: f.routeNorth.ID, Name: "Green Acres", OwnerName: "R. Kale",
		SizeHa: 12.5, CreatedAt: at(1),
	}
	f.farmSunrise = models.Farm{
		RouteID: f.routeNorth.ID, Name: "Sunrise Farm", OwnerName: "S. More",
		SizeHa: 4, CreatedAt: at(2),
	}
	f.farmRiver = models.Farm{
		RouteID: f.routeEast.ID, Name: "River Bend", OwnerName: "T. Patil",
		SizeHa: 8.25, CreatedAt: at(3),
	}
	mustCreate(t, db, &f.farmGreen)
	mustCreate(t, db, &f.farmSunrise)
	mustCreate(t, db, &f.farmRiver)

	f.soilGreen = models.SoilSample{
		FarmID: f.farmGreen.ID, SampleDate: models.NewDate(at(0)),
		PH: 6.5, CreatedAt: at(4),
	}
	f.waterRiver = models.WaterSample{
		FarmID: f.farmRiver.ID, SampleDate: models.NewDate(at(0)),
		Source: "borewell", PH: 7.2, CreatedAt: at(5),
	}
	f.pestGreen = models.PestDiseaseReport{
		FarmID: f.farmGreen.ID, ReportDate: models.NewDate(at(0)),
		Category: models.CategoryPest, Name: "Fall armyworm",
		Severity: models.SeverityHigh, CreatedAt: at(6),
	}
	mustCreate(t, db, &f.soilGreen)
	mustCreate(t, db, &f.waterRiver)
	mustCreate(t, db, &f.pestGreen)

	return f
}
