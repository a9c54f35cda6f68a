package survey

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/agrisurvey/models"
)

// Principal is the authenticated actor a request runs as.
type Principal struct {
	ID   uuid.UUID
	Role string
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

// ScopeResolver is the single place the visibility rule lives: admins
// see the whole store, enumerators see their assigned routes and,
// transitively, everything under them. Every read query and every write
// authorization goes through here; call sites never re-derive the
// predicate.
type ScopeResolver struct {
	db *gorm.DB
}

func NewScopeResolver(db *gorm.DB) *ScopeResolver {
	return &ScopeResolver{db: db}
}

// Routes returns the route query visible to p.
func (s *ScopeResolver) Routes(p Principal) *gorm.DB {
	q := s.db.Model(&models.Route{})
	if !p.IsAdmin() {
		q = q.Where("routes.assigned_to_id = ?", p.ID)
	}
	return q
}

// Farms returns the farm query visible to p. The owning route is always
// joined so callers can select route columns without a second query.
func (s *ScopeResolver) Farms(p Principal) *gorm.DB {
	q := s.db.Model(&models.Farm{}).
		Joins("JOIN routes ON routes.id = farms.route_id")
	if !p.IsAdmin() {
		q = q.Where("routes.assigned_to_id = ?", p.ID)
	}
	return q
}

// Crops returns the crop query visible to p.
func (s *ScopeResolver) Crops(p Principal) *gorm.DB {
	return s.childScope(p, s.db.Model(&models.Crop{}), "crops")
}

// SoilSamples returns the soil sample query visible to p.
func (s *ScopeResolver) SoilSamples(p Principal) *gorm.DB {
	return s.childScope(p, s.db.Model(&models.SoilSample{}), "soil_samples")
}

// WaterSamples returns the water sample query visible to p.
func (s *ScopeResolver) WaterSamples(p Principal) *gorm.DB {
	return s.childScope(p, s.db.Model(&models.WaterSample{}), "water_samples")
}

// PestReports returns the pest/disease report query visible to p.
func (s *ScopeResolver) PestReports(p Principal) *gorm.DB {
	return s.childScope(p, s.db.Model(&models.PestDiseaseReport{}), "pest_disease_reports")
}

// childScope scopes a farm-child table through farms to routes. Farms
// are always joined so farm columns are selectable in one query.
func (s *ScopeResolver) childScope(p Principal, q *gorm.DB, table string) *gorm.DB {
	q = q.Joins("JOIN farms ON farms.id = " + table + ".farm_id").
		Joins("JOIN routes ON routes.id = farms.route_id")
	if !p.IsAdmin() {
		q = q.Where("routes.assigned_to_id = ?", p.ID)
	}
	return q
}

// AuthorizeRoute checks that p may mutate the named route. A missing
// route is a NotFoundError; an existing route outside p's scope is an
// explicit AuthorizationError, never a silent filter.
func (s *ScopeResolver) AuthorizeRoute(p Principal, routeID uuid.UUID) (*models.Route, error) {
	var route models.Route
	if err := s.db.First(&route, "id = ?", routeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("route")
		}
		return nil, err
	}
	if !p.IsAdmin() && route.AssignedToID != p.ID {
		return nil, NewAuthorizationError("route is not assigned to you")
	}
	return &route, nil
}

// AuthorizeFarm checks that p may attach records to, or mutate, the
// named farm. Same contract as AuthorizeRoute.
func (s *ScopeResolver) AuthorizeFarm(p Principal, farmID uuid.UUID) (*models.Farm, error) {
	var farm models.Farm
	if err := s.db.First(&farm, "id = ?", farmID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("farm")
		}
		return nil, err
	}
	if !p.IsAdmin() {
		route, err := s.AuthorizeRoute(p, farm.RouteID)
		if err != nil {
			return nil, err
		}
		farm.Route = route
	}
	return &farm, nil
}
