package survey

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/agrisurvey/models"
)

// CompletionPolicy decides when a farm counts as completed for route
// progress. The definition is a policy knob, not a law of the domain.
type CompletionPolicy int

const (
	// AnyObservation marks a farm completed once it has at least one
	// soil sample, water sample, or pest/disease report.
	AnyObservation CompletionPolicy = iota
)

// RouteProgress is the completion summary for one route.
type RouteProgress struct {
	FarmCount      int `json:"farmCount"`
	CompletedFarms int `json:"completedFarms"`
	// Progress is floor(100 * completed / total); 0 when the route has
	// no farms.
	Progress int `json:"progress"`
}

// ProgressCalculator computes route completion from batched counts.
// One grouped query covers any number of routes; there is no per-farm
// round trip.
type ProgressCalculator struct {
	db     *gorm.DB
	policy CompletionPolicy
}

func NewProgressCalculator(db *gorm.DB) *ProgressCalculator {
	return &ProgressCalculator{db: db, policy: AnyObservation}
}

// WithPolicy returns a calculator using the given completion policy.
func (c *ProgressCalculator) WithPolicy(policy CompletionPolicy) *ProgressCalculator {
	return &ProgressCalculator{db: c.db, policy: policy}
}

const anyObservationExpr = `EXISTS (SELECT 1 FROM soil_samples WHERE soil_samples.farm_id = farms.id)
	OR EXISTS (SELECT 1 FROM water_samples WHERE water_samples.farm_id = farms.id)
	OR EXISTS (SELECT 1 FROM pest_disease_reports WHERE pest_disease_reports.farm_id = farms.id)`

func (c *ProgressCalculator) completedExpr() string {
	// Only one policy exists today; the switch is the extension point.
	switch c.policy {
	default:
		return anyObservationExpr
	}
}

// ForRoutes returns progress keyed by route id. Routes with no farms
// get a zero entry, so every requested id is present in the result.
func (c *ProgressCalculator) ForRoutes(routeIDs []uuid.UUID) (map[uuid.UUID]RouteProgress, error) {
	result := make(map[uuid.UUID]RouteProgress, len(routeIDs))
	for _, id := range routeIDs {
		result[id] = RouteProgress{}
	}
	if len(routeIDs) == 0 {
		return result, nil
	}

	type countRow struct {
		RouteID        uuid.UUID
		FarmCount      int
		CompletedFarms int
	}
	var rows []countRow
	err := c.db.Model(&models.Farm{}).
		Select(`farms.route_id AS route_id,
			COUNT(farms.id) AS farm_count,
			SUM(CASE WHEN `+c.completedExpr()+` THEN 1 ELSE 0 END) AS completed_farms`).
		Where("farms.route_id IN ?", routeIDs).
		Group("farms.route_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		progress := 0
		if row.FarmCount > 0 {
			progress = row.CompletedFarms * 100 / row.FarmCount
		}
		result[row.RouteID] = RouteProgress{
			FarmCount:      row.FarmCount,
			CompletedFarms: row.CompletedFarms,
			Progress:       progress,
		}
	}
	return result, nil
}

// ForRoute returns progress for a single route.
func (c *ProgressCalculator) ForRoute(routeID uuid.UUID) (RouteProgress, error) {
	all, err := c.ForRoutes([]uuid.UUID{routeID})
	if err != nil {
		return RouteProgress{}, err
	}
	return all[routeID], nil
}
