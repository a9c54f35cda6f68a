// handlers/route_handlers.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"p9e.in/agrisurvey/config"
	"p9e.in/agrisurvey/middleware"
	"p9e.in/agrisurvey/models"
	"p9e.in/agrisurvey/pkg/survey"
)

type routeOut struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	AssignedTo     uuid.UUID   `json:"assignedTo"`
	AssignedToName string      `json:"assignedToName"`
	DateAssigned   models.Date `json:"dateAssigned"`
	Status         string      `json:"status"`
	FarmCount      int         `json:"farmCount"`
	CompletedFarms int         `json:"completedFarms"`
	Progress       int         `json:"progress"`
}

func routesOut(routes []models.Route, progress map[uuid.UUID]survey.RouteProgress) []routeOut {
	out := make([]routeOut, len(routes))
	for i, rt := range routes {
		name := ""
		if rt.AssignedTo != nil {
			name = rt.AssignedTo.DisplayName()
		}
		pr := progress[rt.ID]
		out[i] = routeOut{
			ID:             rt.ID,
			Name:           rt.Name,
			AssignedTo:     rt.AssignedToID,
			AssignedToName: name,
			DateAssigned:   rt.DateAssigned,
			Status:         rt.Status,
			FarmCount:      pr.FarmCount,
			CompletedFarms: pr.CompletedFarms,
			Progress:       pr.Progress,
		}
	}
	return out
}

// GetAllRoutes lists the routes visible to the caller, newest
// assignment first, with batched progress figures attached.
func GetAllRoutes(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	q := scope.Routes(principal).Preload("AssignedTo")
	if status := r.URL.Query().Get("status"); status != "" {
		q = q.Where("routes.status = ?", status)
	}

	var routes []models.Route
	if err := q.Order("routes.date_assigned DESC, routes.created_at DESC").Find(&routes).Error; err != nil {
		respondError(w, err)
		return
	}

	ids := make([]uuid.UUID, len(routes))
	for i, rt := range routes {
		ids[i] = rt.ID
	}
	progress, err := survey.NewProgressCalculator(config.DB).ForRoutes(ids)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routesOut(routes, progress))
}

func GetRoute(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	var route models.Route
	if err := scope.Routes(principal).Preload("AssignedTo").First(&route, "routes.id = ?", id).Error; err != nil {
		respondError(w, survey.NewNotFoundError("route"))
		return
	}
	progress, err := survey.NewProgressCalculator(config.DB).ForRoute(route.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	out := routesOut([]models.Route{route}, map[uuid.UUID]survey.RouteProgress{route.ID: progress})
	writeJSON(w, http.StatusOK, out[0])
}

type routeReq struct {
	Name       string    `json:"name"`
	AssignedTo uuid.UUID `json:"assignedTo"`
}

// CreateRoute is admin-only (enforced at the router). The assignee
// must be an existing enumerator; a route with no assignee is invalid.
func CreateRoute(w http.ResponseWriter, r *http.Request) {
	var req routeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.Name == "" {
		respondError(w, survey.NewValidationError("name", "name is required"))
		return
	}
	assignee, err := lookupEnumerator(req.AssignedTo)
	if err != nil {
		respondError(w, err)
		return
	}

	route := models.Route{Name: req.Name, AssignedToID: assignee.ID}
	if err := config.DB.Create(&route).Error; err != nil {
		respondError(w, err)
		return
	}
	route.AssignedTo = assignee
	out := routesOut([]models.Route{route}, nil)
	writeJSON(w, http.StatusCreated, out[0])
}

func lookupEnumerator(id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, survey.NewValidationError("assignedTo", "route must be assigned to an enumerator")
	}
	var user models.User
	if err := config.DB.First(&user, "id = ?", id).Error; err != nil {
		return nil, survey.NewValidationError("assignedTo", "assignee does not exist")
	}
	if !user.IsEnumerator() {
		return nil, survey.NewValidationError("assignedTo", "routes can only be assigned to enumerators")
	}
	return &user, nil
}

// UpdateRoute is admin-only: rename or reassign.
func UpdateRoute(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var route models.Route
	if err := config.DB.First(&route, "id = ?", id).Error; err != nil {
		respondError(w, survey.NewNotFoundError("route"))
		return
	}

	var req routeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.Name != "" {
		route.Name = req.Name
	}
	if req.AssignedTo != uuid.Nil && req.AssignedTo != route.AssignedToID {
		assignee, err := lookupEnumerator(req.AssignedTo)
		if err != nil {
			respondError(w, err)
			return
		}
		route.AssignedToID = assignee.ID
	}
	if err := config.DB.Save(&route).Error; err != nil {
		respondError(w, err)
		return
	}

	progress, err := survey.NewProgressCalculator(config.DB).ForRoute(route.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	config.DB.Preload("AssignedTo").First(&route, "id = ?", route.ID)
	out := routesOut([]models.Route{route}, map[uuid.UUID]survey.RouteProgress{route.ID: progress})
	writeJSON(w, http.StatusOK, out[0])
}

// DeleteRoute is admin-only. Farms and their children cascade.
func DeleteRoute(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result := config.DB.Delete(&models.Route{}, "id = ?", id)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("route"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusReq struct {
	Status string `json:"status"`
}

// UpdateRouteStatus moves a route through its lifecycle. Permitted for
// admins and the route's assigned enumerator; everyone else gets an
// explicit authorization error.
func UpdateRouteStatus(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, survey.NewNotFoundError("route"))
		return
	}

	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if !models.IsValidRouteStatus(req.Status) {
		respondError(w, survey.NewValidationError("status",
			"invalid status, choose from: "+strings.Join(models.ValidRouteStatuses(), ", ")))
		return
	}

	route, err := scope.AuthorizeRoute(principal, id)
	if err != nil {
		respondError(w, err)
		return
	}
	route.Status = req.Status
	if err := config.DB.Save(route).Error; err != nil {
		respondError(w, err)
		return
	}

	progress, err := survey.NewProgressCalculator(config.DB).ForRoute(route.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	config.DB.Preload("AssignedTo").First(route, "id = ?", route.ID)
	out := routesOut([]models.Route{*route}, map[uuid.UUID]survey.RouteProgress{route.ID: progress})
	writeJSON(w, http.StatusOK, out[0])
}
