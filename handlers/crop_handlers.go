// handlers/crop_handlers.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"p9e.in/agrisurvey/config"
	"p9e.in/agrisurvey/middleware"
	"p9e.in/agrisurvey/models"
	"p9e.in/agrisurvey/pkg/survey"
)

func GetAllCrops(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	q := scope.Crops(principal).Select("crops.*")
	if farm := r.URL.Query().Get("farm"); farm != "" {
		q = q.Where("crops.farm_id = ?", farm)
	}

	crops := []models.Crop{}
	if err := q.Order("crops.planting_date DESC").Scan(&crops).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, crops)
}

func GetCrop(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	var crop models.Crop
	result := scope.Crops(principal).Select("crops.*").
		Where("crops.id = ?", id).
		Limit(1).
		Scan(&crop)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("crop"))
		return
	}
	writeJSON(w, http.StatusOK, crop)
}

type cropReq struct {
	FarmID          uuid.UUID    `json:"farm"`
	CropType        string       `json:"cropType"`
	Variety         *string      `json:"variety"`
	PlantingDate    models.Date  `json:"plantingDate"`
	ExpectedHarvest *models.Date `json:"expectedHarvest"`
}

func validateCropReq(req cropReq) error {
	if req.CropType == "" {
		return survey.NewValidationError("cropType", "crop type is required")
	}
	if req.PlantingDate.IsZero() {
		return survey.NewValidationError("plantingDate", "planting date is required")
	}
	if req.ExpectedHarvest != nil && !req.ExpectedHarvest.IsZero() &&
		req.PlantingDate.After(*req.ExpectedHarvest) {
		return survey.NewValidationError("expectedHarvest", "expected harvest cannot precede the planting date")
	}
	return nil
}

func CreateCrop(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	var req cropReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.FarmID == uuid.Nil {
		respondError(w, survey.NewValidationError("farm", "farm is required"))
		return
	}
	if err := validateCropReq(req); err != nil {
		respondError(w, err)
		return
	}
	if _, err := scope.AuthorizeFarm(principal, req.FarmID); err != nil {
		respondError(w, err)
		return
	}

	crop := models.Crop{
		FarmID:          req.FarmID,
		CropType:        req.CropType,
		Variety:         req.Variety,
		PlantingDate:    req.PlantingDate,
		ExpectedHarvest: req.ExpectedHarvest,
	}
	if err := config.DB.Create(&crop).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, crop)
}

func UpdateCrop(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	var crop models.Crop
	result := scope.Crops(principal).Select("crops.*").
		Where("crops.id = ?", id).
		Limit(1).
		Scan(&crop)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("crop"))
		return
	}

	var req cropReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.FarmID == uuid.Nil {
		req.FarmID = crop.FarmID
	}
	if err := validateCropReq(req); err != nil {
		respondError(w, err)
		return
	}
	if req.FarmID != crop.FarmID {
		if _, err := scope.AuthorizeFarm(principal, req.FarmID); err != nil {
			respondError(w, err)
			return
		}
	}

	crop.FarmID = req.FarmID
	crop.CropType = req.CropType
	crop.Variety = req.Variety
	crop.PlantingDate = req.PlantingDate
	crop.ExpectedHarvest = req.ExpectedHarvest
	if err := config.DB.Save(&crop).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, crop)
}

func DeleteCrop(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	var crop models.Crop
	result := scope.Crops(principal).Select("crops.*").
		Where("crops.id = ?", id).
		Limit(1).
		Scan(&crop)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("crop"))
		return
	}
	if err := config.DB.Delete(&crop).Error; err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
