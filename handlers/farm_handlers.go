// handlers/farm_handlers.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/paulmach/orb/geojson"
	"gorm.io/datatypes"

	"p9e.in/agrisurvey/config"
	"p9e.in/agrisurvey/middleware"
	"p9e.in/agrisurvey/models"
	"p9e.in/agrisurvey/pkg/survey"
)

// farmRow is the list/detail read model: the farm plus its route name
// and per-child counts, all selectable in a single joined query.
type farmRow struct {
	models.Farm
	RouteName        string `json:"routeName"`
	SoilSampleCount  int    `json:"soilSampleCount"`
	WaterSampleCount int    `json:"waterSampleCount"`
	PestReportCount  int    `json:"pestDiseaseCount"`
	CropCount        int    `json:"cropCount"`
}

const farmRowSelect = `farms.*, routes.name AS route_name,
	(SELECT COUNT(*) FROM soil_samples WHERE soil_samples.farm_id = farms.id) AS soil_sample_count,
	(SELECT COUNT(*) FROM water_samples WHERE water_samples.farm_id = farms.id) AS water_sample_count,
	(SELECT COUNT(*) FROM pest_disease_reports WHERE pest_disease_reports.farm_id = farms.id) AS pest_report_count,
	(SELECT COUNT(*) FROM crops WHERE crops.farm_id = farms.id) AS crop_count`

func GetAllFarms(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	q := scope.Farms(principal).Select(farmRowSelect)
	if route := r.URL.Query().Get("route"); route != "" {
		q = q.Where("farms.route_id = ?", route)
	}

	rows := []farmRow{}
	if err := q.Order("farms.created_at DESC").Scan(&rows).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func GetFarm(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	var row farmRow
	result := scope.Farms(principal).Select(farmRowSelect).
		Where("farms.id = ?", id).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("farm"))
		return
	}

	// Detail view includes the farm's crops.
	if err := config.DB.Order("planting_date DESC").Find(&row.Crops, "farm_id = ?", row.ID).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

type farmReq struct {
	RouteID     uuid.UUID       `json:"route"`
	Name        string          `json:"name"`
	OwnerName   string          `json:"ownerName"`
	SizeHa      float64         `json:"sizeHa"`
	Location    string          `json:"location"`
	Address     string          `json:"address"`
	Latitude    *float64        `json:"latitude"`
	Longitude   *float64        `json:"longitude"`
	BoundaryGeo json.RawMessage `json:"boundaryGeo"`
	PhotoURL    *string         `json:"photoUrl"`
}

func validateFarmReq(req farmReq) error {
	if req.Name == "" {
		return survey.NewValidationError("name", "name is required")
	}
	if req.OwnerName == "" {
		return survey.NewValidationError("ownerName", "owner name is required")
	}
	if req.SizeHa <= 0 {
		return survey.NewValidationError("sizeHa", "size must be a positive number of hectares")
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		return survey.NewValidationError("latitude", "latitude must be between -90 and 90")
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		return survey.NewValidationError("longitude", "longitude must be between -180 and 180")
	}
	if len(req.BoundaryGeo) > 0 {
		if _, err := geojson.UnmarshalGeometry(req.BoundaryGeo); err != nil {
			return survey.NewValidationError("boundaryGeo", "boundary must be a valid GeoJSON geometry")
		}
	}
	return nil
}

// CreateFarm records a new farm. The named route is authorized through
// the scope resolver: enumerators can only add farms to their own
// routes, and the rejection is explicit, not a silent filter.
func CreateFarm(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	var req farmReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.RouteID == uuid.Nil {
		respondError(w, survey.NewValidationError("route", "route is required"))
		return
	}
	if err := validateFarmReq(req); err != nil {
		respondError(w, err)
		return
	}
	if _, err := scope.AuthorizeRoute(principal, req.RouteID); err != nil {
		respondError(w, err)
		return
	}

	farm := models.Farm{
		RouteID:     req.RouteID,
		Name:        req.Name,
		OwnerName:   req.OwnerName,
		SizeHa:      req.SizeHa,
		Location:    req.Location,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		BoundaryGeo: datatypes.JSON(req.BoundaryGeo),
		PhotoURL:    req.PhotoURL,
	}
	if err := config.DB.Create(&farm).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, farm)
}

func UpdateFarm(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, survey.NewNotFoundError("farm"))
		return
	}
	farm, err := scope.AuthorizeFarm(principal, id)
	if err != nil {
		respondError(w, err)
		return
	}

	var req farmReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.RouteID == uuid.Nil {
		req.RouteID = farm.RouteID
	}
	if err := validateFarmReq(req); err != nil {
		respondError(w, err)
		return
	}
	// Moving the farm to another route needs authorization on the
	// target route too.
	if req.RouteID != farm.RouteID {
		if _, err := scope.AuthorizeRoute(principal, req.RouteID); err != nil {
			respondError(w, err)
			return
		}
	}

	farm.RouteID = req.RouteID
	farm.Name = req.Name
	farm.OwnerName = req.OwnerName
	farm.SizeHa = req.SizeHa
	farm.Location = req.Location
	farm.Address = req.Address
	farm.Latitude = req.Latitude
	farm.Longitude = req.Longitude
	farm.BoundaryGeo = datatypes.JSON(req.BoundaryGeo)
	if req.PhotoURL != nil {
		farm.PhotoURL = req.PhotoURL
	}
	if err := config.DB.Save(farm).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, farm)
}

func DeleteFarm(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, survey.NewNotFoundError("farm"))
		return
	}
	farm, err := scope.AuthorizeFarm(principal, id)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := config.DB.Delete(farm).Error; err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFarmSamples returns both sample collections for one farm.
func GetFarmSamples(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	farm, err := visibleFarm(scope, principal, id)
	if err != nil {
		respondError(w, err)
		return
	}

	soil := []models.SoilSample{}
	if err := config.DB.Order("sample_date DESC").Find(&soil, "farm_id = ?", farm.ID).Error; err != nil {
		respondError(w, err)
		return
	}
	water := []models.WaterSample{}
	if err := config.DB.Order("sample_date DESC").Find(&water, "farm_id = ?", farm.ID).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"soilSamples":  soil,
		"waterSamples": water,
	})
}

// GetFarmPestDisease returns the pest/disease reports for one farm.
func GetFarmPestDisease(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	farm, err := visibleFarm(scope, principal, id)
	if err != nil {
		respondError(w, err)
		return
	}

	reports := []models.PestDiseaseReport{}
	if err := config.DB.Order("report_date DESC").Find(&reports, "farm_id = ?", farm.ID).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// visibleFarm resolves a farm through the read scope: out-of-scope and
// nonexistent farms are both not-found.
func visibleFarm(scope *survey.ScopeResolver, principal survey.Principal, id string) (*models.Farm, error) {
	var farm models.Farm
	result := scope.Farms(principal).
		Select("farms.*").
		Where("farms.id = ?", id).
		Limit(1).
		Scan(&farm)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, survey.NewNotFoundError("farm")
	}
	return &farm, nil
}
