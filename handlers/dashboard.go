// handlers/dashboard.go
package handlers

import (
	"net/http"

	"p9e.in/agrisurvey/config"
	"p9e.in/agrisurvey/middleware"
	"p9e.in/agrisurvey/pkg/survey"
)

type dashboardResp struct {
	User userPayload `json:"user"`
	*survey.DashboardSummary
}

// GetDashboard returns the role-scoped summary. Always 200 for an
// authenticated caller; an empty scope just reads as zeros.
func GetDashboard(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	user := middleware.GetUser(r)

	summary, err := survey.NewAggregator(config.DB).Summarize(principal)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResp{
		User:             userOut(user),
		DashboardSummary: summary,
	})
}
