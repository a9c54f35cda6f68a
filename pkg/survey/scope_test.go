package survey

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestScopeResolverVisibility(t *testing.T) {
	f := seedFixture(t)
	scope := NewScopeResolver(f.db)

	tests := []struct {
		name      string
		principal Principal
		routes    int64
		farms     int64
		soil      int64
		water     int64
		pests     int64
	}{
		{"admin sees everything", f.admin, 3, 3, 1, 1, 1},
		{"alice sees her routes only", f.alice, 2, 2, 1, 0, 1},
		{"bob sees his route only", f.bob, 1, 1, 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got int64
			if err := scope.Routes(tt.principal).Count(&got).Error; err != nil {
				t.Fatalf("routes: %v", err)
			}
			if got != tt.routes {
				t.Errorf("routes = %d, want %d", got, tt.routes)
			}
			if err := scope.Farms(tt.principal).Count(&got).Error; err != nil {
				t.Fatalf("farms: %v", err)
			}
			if got != tt.farms {
				t.Errorf("farms = %d, want %d", got, tt.farms)
			}
			if err := scope.SoilSamples(tt.principal).Count(&got).Error; err != nil {
				t.Fatalf("soil samples: %v", err)
			}
			if got != tt.soil {
				t.Errorf("soil samples = %d, want %d", got, tt.soil)
			}
			if err := scope.WaterSamples(tt.principal).Count(&got).Error; err != nil {
				t.Fatalf("water samples: %v", err)
			}
			if got != tt.water {
				t.Errorf("water samples = %d, want %d", got, tt.water)
			}
			if err := scope.PestReports(tt.principal).Count(&got).Error; err != nil {
				t.Fatalf("pest reports: %v", err)
			}
			if got != tt.pests {
				t.Errorf("pest reports = %d, want %d", got, tt.pests)
			}
		})
	}
}

func TestAuthorizeRoute(t *testing.T) {
	f := seedFixture(t)
	scope := NewScopeResolver(f.db)

	t.Run("admin may touch any route", func(t *testing.T) {
		route, err := scope.AuthorizeRoute(f.admin, f.routeEast.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if route.ID != f.routeEast.ID {
			t.Errorf("got route %s, want %s", route.ID, f.routeEast.ID)
		}
	})

	t.Run("enumerator may touch an assigned route", func(t *testing.T) {
		if _, err := scope.AuthorizeRoute(f.alice, f.routeNorth.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("someone else's route is forbidden, not hidden", func(t *testing.T) {
		_, err := scope.AuthorizeRoute(f.alice, f.routeEast.ID)
		var authErr *AuthorizationError
		if !errors.As(err, &authErr) {
			t.Fatalf("got %v, want AuthorizationError", err)
		}
	})

	t.Run("missing route is not found", func(t *testing.T) {
		_, err := scope.AuthorizeRoute(f.admin, uuid.New())
		var nfErr *NotFoundError
		if !errors.As(err, &nfErr) {
			t.Fatalf("got %v, want NotFoundError", err)
		}
	})
}

func TestAuthorizeFarm(t *testing.T) {
	f := seedFixture(t)
	scope := NewScopeResolver(f.db)

	t.Run("owner enumerator is allowed", func(t *testing.T) {
		farm, err := scope.AuthorizeFarm(f.alice, f.farmGreen.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if farm.Name != "Green Acres" {
			t.Errorf("got farm %q, want Green Acres", farm.Name)
		}
	})

	t.Run("farm on another route is forbidden", func(t *testing.T) {
		_, err := scope.AuthorizeFarm(f.bob, f.farmGreen.ID)
		var authErr *AuthorizationError
		if !errors.As(err, &authErr) {
			t.Fatalf("got %v, want AuthorizationError", err)
		}
	})

	t.Run("missing farm is not found", func(t *testing.T) {
		_, err := scope.AuthorizeFarm(f.admin, uuid.New())
		var nfErr *NotFoundError
		if !errors.As(err, &nfErr) {
			t.Fatalf("got %v, want NotFoundError", err)
		}
	})
}
