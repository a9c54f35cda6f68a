package survey

import (
	"testing"

	"github.com/google/uuid"

	"p9e.in/agrisurvey/models"
)

func TestProgressForRoutes(t *testing.T) {
	f := seedFixture(t)
	calc := NewProgressCalculator(f.db)

	got, err := calc.ForRoutes([]uuid.UUID{f.routeNorth.ID, f.routeSouth.ID, f.routeEast.ID})
	if err != nil {
		t.Fatalf("ForRoutes: %v", err)
	}

	tests := []struct {
		name string
		id   uuid.UUID
		want RouteProgress
	}{
		{"one of two farms surveyed", f.routeNorth.ID, RouteProgress{FarmCount: 2, CompletedFarms: 1, Progress: 50}},
		{"route with no farms is zero", f.routeSouth.ID, RouteProgress{}},
		{"single surveyed farm is complete", f.routeEast.ID, RouteProgress{FarmCount: 1, CompletedFarms: 1, Progress: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got[tt.id] != tt.want {
				t.Errorf("progress = %+v, want %+v", got[tt.id], tt.want)
			}
		})
	}
}

func TestProgressFloorsPercentage(t *testing.T) {
	f := seedFixture(t)

	// Third farm on the north route: 1 of 3 surveyed is 33, not 34.
	third := models.Farm{RouteID: f.routeNorth.ID, Name: "Hilltop", OwnerName: "V. Shinde", SizeHa: 2}
	mustCreate(t, f.db, &third)

	got, err := NewProgressCalculator(f.db).ForRoute(f.routeNorth.ID)
	if err != nil {
		t.Fatalf("ForRoute: %v", err)
	}
	want := RouteProgress{FarmCount: 3, CompletedFarms: 1, Progress: 33}
	if got != want {
		t.Errorf("progress = %+v, want %+v", got, want)
	}
}

func TestProgressCountsFarmOnceAcrossObservationKinds(t *testing.T) {
	f := seedFixture(t)

	// farmGreen already has a soil sample and a pest report. Adding a
	// water sample must not double count it.
	extra := models.WaterSample{
		FarmID: f.farmGreen.ID, SampleDate: models.NewDate(at(0)),
		Source: "canal", PH: 7.9,
	}
	mustCreate(t, f.db, &extra)

	got, err := NewProgressCalculator(f.db).ForRoute(f.routeNorth.ID)
	if err != nil {
		t.Fatalf("ForRoute: %v", err)
	}
	if got.CompletedFarms != 1 || got.Progress != 50 {
		t.Errorf("progress = %+v, want 1 completed farm at 50", got)
	}
}

func TestProgressUnknownRouteGetsZeroEntry(t *testing.T) {
	f := seedFixture(t)

	missing := uuid.New()
	got, err := NewProgressCalculator(f.db).ForRoutes([]uuid.UUID{missing})
	if err != nil {
		t.Fatalf("ForRoutes: %v", err)
	}
	progress, ok := got[missing]
	if !ok {
		t.Fatal("requested id missing from result")
	}
	if progress != (RouteProgress{}) {
		t.Errorf("progress = %+v, want zero value", progress)
	}
}

func TestProgressEmptyInput(t *testing.T) {
	f := seedFixture(t)

	got, err := NewProgressCalculator(f.db).ForRoutes(nil)
	if err != nil {
		t.Fatalf("ForRoutes: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("result has %d entries, want 0", len(got))
	}
}
