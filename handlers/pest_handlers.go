// handlers/pest_handlers.go
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

type pestReportReq struct {
	FarmID      uuid.UUID   `json:"farm"`
	ReportDate  models.Date `json:"reportDate"`
	Category    string      `json:"category"`
	Name        string      `json:"name"`
	Severity    string      `json:"severity"`
	Description *string     `json:"description"`
	LocationLat *float64    `json:"locationLat"`
	LocationLng *float64    `json:"locationLng"`
	PhotoURL    *string     `json:"photoUrl"`
}

func validatePestReportReq(req pestReportReq) error {
	if err := validateSampleDate("reportDate", req.ReportDate); err != nil {
		return err
	}
	if req.Name == "" {
		return survey.NewValidationError("name", "pest or disease name is required")
	}
	if req.Category != "" && !models.IsValidCategory(req.Category) {
		return survey.NewValidationError("category",
			"invalid category, choose from: "+strings.Join(models.ValidCategories(), ", "))
	}
	if req.Severity != "" && !models.IsValidSeverity(req.Severity) {
		return survey.NewValidationError("severity",
			"invalid severity, choose from: "+strings.Join(models.ValidSeverities(), ", "))
	}
	return nil
}

func GetAllPestReports(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	q := scope.PestReports(principal).Select("pest_disease_reports.*")
	if farm := r.URL.Query().Get("farm"); farm != "" {
		q = q.Where("pest_disease_reports.farm_id = ?", farm)
	}
	if category := r.URL.Query().Get("category"); category != "" {
		q = q.Where("pest_disease_reports.category = ?", category)
	}
	if severity := r.URL.Query().Get("severity"); severity != "" {
		q = q.Where("pest_disease_reports.severity = ?", severity)
	}

	reports := []models.PestDiseaseReport{}
	if err := q.Order("pest_disease_reports.report_date DESC, pest_disease_reports.created_at DESC").Scan(&reports).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func GetPestReport(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	var report models.PestDiseaseReport
	result := scope.PestReports(principal).Select("pest_disease_reports.*").
		Where("pest_disease_reports.id = ?", id).
		Limit(1).
		Scan(&report)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("pest/disease report"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func CreatePestReport(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)

	var req pestReportReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.FarmID == uuid.Nil {
		respondError(w, survey.NewValidationError("farm", "farm is required"))
		return
	}
	if err := validatePestReportReq(req); err != nil {
		respondError(w, err)
		return
	}
	if _, err := scope.AuthorizeFarm(principal, req.FarmID); err != nil {
		respondError(w, err)
		return
	}

	report := models.PestDiseaseReport{
		FarmID:      req.FarmID,
		ReportDate:  req.ReportDate,
		Category:    req.Category,
		Name:        req.Name,
		Severity:    req.Severity,
		Description: req.Description,
		LocationLat: req.LocationLat,
		LocationLng: req.LocationLng,
		PhotoURL:    req.PhotoURL,
	}
	if err := config.DB.Create(&report).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func UpdatePestReport(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	var report models.PestDiseaseReport
	result := scope.PestReports(principal).Select("pest_disease_reports.*").
		Where("pest_disease_reports.id = ?", id).
		Limit(1).
		Scan(&report)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("pest/disease report"))
		return
	}

	var req pestReportReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.FarmID == uuid.Nil {
		req.FarmID = report.FarmID
	}
	if err := validatePestReportReq(req); err != nil {
		respondError(w, err)
		return
	}
	if req.FarmID != report.FarmID {
		if _, err := scope.AuthorizeFarm(principal, req.FarmID); err != nil {
			respondError(w, err)
			return
		}
	}

	report.FarmID = req.FarmID
	report.ReportDate = req.ReportDate
	if req.Category != "" {
		report.Category = req.Category
	}
	report.Name = req.Name
	if req.Severity != "" {
		report.Severity = req.Severity
	}
	report.Description = req.Description
	report.LocationLat = req.LocationLat
	report.LocationLng = req.LocationLng
	if req.PhotoURL != nil {
		report.PhotoURL = req.PhotoURL
	}
	if err := config.DB.Save(&report).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func DeletePestReport(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	scope := survey.NewScopeResolver(config.DB)
	id := mux.Vars(r)["id"]

	var report models.PestDiseaseReport
	result := scope.PestReports(principal).Select("pest_disease_reports.*").
		Where("pest_disease_reports.id = ?", id).
		Limit(1).
		Scan(&report)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("pest/disease report"))
		return
	}
	if err := config.DB.Delete(&report).Error; err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
