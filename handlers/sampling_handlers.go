// handlers/sampling_handlers.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"p9e.in/agrisurvey/config"
	"p9e.in/agrisurvey/middleware"
	"p9e.in/agrisurvey/models"
	"p9e.in/agrisurvey/pkg/survey"
)

// applySampleFilters adds the shared list filters for sample tables.
func applySampleFilters(q *gorm.DB, r *http.Request, table string) *gorm.DB {
	if farm := r.URL.Query().Get("farm"); farm != "" {
		q = q.Where(table+".farm_id = ?", farm)
	}
	if minPH := r.URL.Query().Get("min_ph"); minPH != "" {
		q = q.Where(table+".ph >= ?", minPH)
	}
	if maxPH := r.URL.Query().Get("max_ph"); maxPH != "" {
		q = q.Where(table+".ph <= ?", maxPH)
	}
	return q
}

func validatePH(ph float64) error {
	if ph < 0 || ph > 14 {
		return survey.NewValidationError("pH", "pH must be between 0 and 14")
	}
	return nil
}

func validateSampleDate(field string, d models.Date) error {
	if d.IsZero() {
		return survey.NewValidationError(field, field+" is required")
	}
	if d.InFuture() {
		return survey.NewValidationError(field, field+" cannot be in the future")
	}
	return nil
}

// ---- Soil samples ----

type soilSampleReq struct {
	FarmID      uuid.UUID   `json:"farm"`
	SampleDate  models.Date `json:"sampleDate"`
	PH          float64     `json:"pH"`
	MoisturePct *float64    `json:"moisturePct"`
	NutrientN   *float64    `json:"nutrientN"`
	NutrientP   *float64    `json:"nutrientP"`
	NutrientK   *float64    `json:"nutrientK"`
	Notes       *string     `json:"notes"`
	PhotoURL    *string     `json:"photoUrl"`
}

func validateSoilSampleReq(req soilSampleReq) error {
	if err := validateSampleDate("sampleDate", req.SampleDate); err != nil {
		return err
	}
	if err := validatePH(req.PH); err != nil {
		return err
	}
	if req.MoisturePct != nil && (*req.MoisturePct < 0 || *req.MoisturePct > 100) {
		return survey.NewValidationError("moisturePct", "moisture must be between 0 and 100 percent")
	}
	for field, v := range map[string]*float64{
		"nutrientN": req.NutrientN,
		"nutrientP": req.NutrientP,
		"nutrientK": req.NutrientK,
	} {
		if v != nil && (*v < 0 || *v > 999) {
			return survey.NewValidationError(field, "nutrient level must be between 0 and 999")
		}
	}
	return nil
}

func GetAllSoilSamples(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	q := applySampleFilters(scope.SoilSamples(principal), r, "soil_samples").
		Select("soil_samples.*")

	samples := []models.SoilSample{}
	if err := q.Order("soil_samples.sample_date DESC, soil_samples.created_at DESC").Scan(&samples).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, samples)
}

func GetSoilSample(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	var sample models.SoilSample
	result := scope.SoilSamples(principal).Select("soil_samples.*").
		Where("soil_samples.id = ?", id).
		Limit(1).
		Scan(&sample)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("soil sample"))
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func CreateSoilSample(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	var req soilSampleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.FarmID == uuid.Nil {
		respondError(w, survey.NewValidationError("farm", "farm is required"))
		return
	}
	if err := validateSoilSampleReq(req); err != nil {
		respondError(w, err)
		return
	}
	if _, err := scope.AuthorizeFarm(principal, req.FarmID); err != nil {
		respondError(w, err)
		return
	}

	sample := models.SoilSample{
		FarmID:      req.FarmID,
		SampleDate:  req.SampleDate,
		PH:          req.PH,
		MoisturePct: req.MoisturePct,
		NutrientN:   req.NutrientN,
		NutrientP:   req.NutrientP,
		NutrientK:   req.NutrientK,
		Notes:       req.Notes,
		PhotoURL:    req.PhotoURL,
	}
	if err := config.DB.Create(&sample).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sample)
}

func UpdateSoilSample(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	var sample models.SoilSample
	result := scope.SoilSamples(principal).Select("soil_samples.*").
		Where("soil_samples.id = ?", id).
		Limit(1).
		Scan(&sample)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("soil sample"))
		return
	}

	var req soilSampleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.FarmID == uuid.Nil {
		req.FarmID = sample.FarmID
	}
	if err := validateSoilSampleReq(req); err != nil {
		respondError(w, err)
		return
	}
	if req.FarmID != sample.FarmID {
		if _, err := scope.AuthorizeFarm(principal, req.FarmID); err != nil {
			respondError(w, err)
			return
		}
	}

	sample.FarmID = req.FarmID
	sample.SampleDate = req.SampleDate
	sample.PH = req.PH
	sample.MoisturePct = req.MoisturePct
	sample.NutrientN = req.NutrientN
	sample.NutrientP = req.NutrientP
	sample.NutrientK = req.NutrientK
	sample.Notes = req.Notes
	if req.PhotoURL != nil {
		sample.PhotoURL = req.PhotoURL
	}
	if err := config.DB.Save(&sample).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func DeleteSoilSample(w http.ResponseWriter, r *http.Request) {
	deleteScopedSample(w, r, "soil sample", func(principal survey.Principal, scope *survey.ScopeResolver, id string) (interface{}, *gorm.DB) {
		var sample models.SoilSample
		result := scope.SoilSamples(principal).Select("soil_samples.*").
			Where("soil_samples.id = ?", id).
			Limit(1).
			Scan(&sample)
		return &sample, result
	})
}

// ---- Water samples ----

type waterSampleReq struct {
	FarmID     uuid.UUID   `json:"farm"`
	SampleDate models.Date `json:"sampleDate"`
	Source     string      `json:"source"`
	PH         float64     `json:"pH"`
	Turbidity  *float64    `json:"turbidity"`
	Notes      *string     `json:"notes"`
	PhotoURL   *string     `json:"photoUrl"`
}

func validateWaterSampleReq(req waterSampleReq) error {
	if err := validateSampleDate("sampleDate", req.SampleDate); err != nil {
		return err
	}
	if req.Source == "" {
		return survey.NewValidationError("source", "water source is required")
	}
	if err := validatePH(req.PH); err != nil {
		return err
	}
	if req.Turbidity != nil && *req.Turbidity < 0 {
		return survey.NewValidationError("turbidity", "turbidity cannot be negative")
	}
	return nil
}

func GetAllWaterSamples(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	q := applySampleFilters(scope.WaterSamples(principal), r, "water_samples").
		Select("water_samples.*")

	samples := []models.WaterSample{}
	if err := q.Order("water_samples.sample_date DESC, water_samples.created_at DESC").Scan(&samples).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, samples)
}

func GetWaterSample(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	var sample models.WaterSample
	result := scope.WaterSamples(principal).Select("water_samples.*").
		Where("water_samples.id = ?", id).
		Limit(1).
		Scan(&sample)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("water sample"))
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func CreateWaterSample(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	var req waterSampleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.FarmID == uuid.Nil {
		respondError(w, survey.NewValidationError("farm", "farm is required"))
		return
	}
	if err := validateWaterSampleReq(req); err != nil {
		respondError(w, err)
		return
	}
	if _, err := scope.AuthorizeFarm(principal, req.FarmID); err != nil {
		respondError(w, err)
		return
	}

	sample := models.WaterSample{
		FarmID:     req.FarmID,
		SampleDate: req.SampleDate,
		Source:     req.Source,
		PH:         req.PH,
		Turbidity:  req.Turbidity,
		Notes:      req.Notes,
		PhotoURL:   req.PhotoURL,
	}
	if err := config.DB.Create(&sample).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sample)
}

func UpdateWaterSample(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	var sample models.WaterSample
	result := scope.WaterSamples(principal).Select("water_samples.*").
		Where("water_samples.id = ?", id).
		Limit(1).
		Scan(&sample)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("water sample"))
		return
	}

	var req waterSampleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.FarmID == uuid.Nil {
		req.FarmID = sample.FarmID
	}
	if err := validateWaterSampleReq(req); err != nil {
		respondError(w, err)
		return
	}
	if req.FarmID != sample.FarmID {
		if _, err := scope.AuthorizeFarm(principal, req.FarmID); err != nil {
			respondError(w, err)
			return
		}
	}

	sample.FarmID = req.FarmID
	sample.SampleDate = req.SampleDate
	sample.Source = req.Source
	sample.PH = req.PH
	sample.Turbidity = req.Turbidity
	sample.Notes = req.Notes
	if req.PhotoURL != nil {
		sample.PhotoURL = req.PhotoURL
	}
	if err := config.DB.Save(&sample).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func DeleteWaterSample(w http.ResponseWriter, r *http.Request) {
	deleteScopedSample(w, r, "water sample", func(principal survey.Principal, scope *survey.ScopeResolver, id string) (interface{}, *gorm.DB) {
		var sample models.WaterSample
		result := scope.WaterSamples(principal).Select("water_samples.*").
			Where("water_samples.id = ?", id).
			Limit(1).
			Scan(&sample)
		return &sample, result
	})
}

func deleteScopedSample(w http.ResponseWriter, r *http.Request, resource string,
	fetch func(survey.Principal, *survey.ScopeResolver, string) (interface{}, *gorm.DB)) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	sample, result := fetch(principal, scope, id)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError(resource))
		return
	}
	if err := config.DB.Delete(sample).Error; err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
