package survey

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/agrisurvey/models"
)

const (
	latestPerKind = 5
	activityLimit = 10
)

// RouteStats counts routes by status within the principal's scope.
type RouteStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Complete   int64 `json:"complete"`
}

// RouteFarmCount is one row of the farms-by-route breakdown.
type RouteFarmCount struct {
	RouteID uuid.UUID `json:"routeId"`
	Name    string    `json:"name"`
	Count   int64     `json:"count"`
}

// FarmStats is the farm section of the dashboard.
type FarmStats struct {
	Total   int64            `json:"total"`
	ByRoute []RouteFarmCount `json:"byRoute"`
}

// SampleSummary is one row of a latest-samples list.
type SampleSummary struct {
	ID       uuid.UUID   `json:"id"`
	FarmName string      `json:"farmName"`
	Date     models.Date `gorm:"column:sample_date" json:"date"`
	PH       float64     `gorm:"column:ph" json:"pH"`
}

// SampleStats is a total plus the most recently created samples.
type SampleStats struct {
	Total  int64           `json:"total"`
	Latest []SampleSummary `json:"latest"`
}

// SamplingStats groups the soil and water sections.
type SamplingStats struct {
	Soil  SampleStats `json:"soil"`
	Water SampleStats `json:"water"`
}

// CategoryCounts breaks pest/disease reports down by category.
type CategoryCounts struct {
	Pest    int64 `json:"pest"`
	Disease int64 `json:"disease"`
}

// SeverityCounts breaks pest/disease reports down by severity.
type SeverityCounts struct {
	Low    int64 `json:"low"`
	Medium int64 `json:"medium"`
	High   int64 `json:"high"`
}

// PestReportSummary is one row of the latest-reports list.
type PestReportSummary struct {
	ID       uuid.UUID   `json:"id"`
	FarmName string      `json:"farmName"`
	Date     models.Date `gorm:"column:report_date" json:"date"`
	Name     string      `json:"name"`
	Category string      `json:"category"`
	Severity string      `json:"severity"`
}

// PestDiseaseStats is the pest/disease section of the dashboard.
type PestDiseaseStats struct {
	Total      int64               `json:"total"`
	ByCategory CategoryCounts      `json:"byCategory"`
	BySeverity SeverityCounts      `json:"bySeverity"`
	Latest     []PestReportSummary `json:"latest"`
}

// ActivityItem is one entry of the unified recent-activity feed.
type ActivityItem struct {
	Kind     string    `json:"type"`
	ID       uuid.UUID `json:"id"`
	FarmName string    `json:"farmName,omitempty"`
	Date     time.Time `json:"date"`
	Summary  string    `json:"summary"`
}

// DashboardSummary is the full role-scoped dashboard payload.
type DashboardSummary struct {
	Routes      RouteStats       `json:"routes"`
	Farms       FarmStats        `json:"farms"`
	Sampling    SamplingStats    `json:"sampling"`
	PestDisease PestDiseaseStats `json:"pestDisease"`
	Activity    []ActivityItem   `json:"activity"`
}

// Aggregator computes dashboard summaries over a principal's scope.
// It is strictly read-only and issues a fixed number of batched
// queries per section regardless of how much data the scope holds.
type Aggregator struct {
	db    *gorm.DB
	scope *ScopeResolver
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db, scope: NewScopeResolver(db)}
}

// Summarize builds the dashboard for p. An empty scope is not an
// error: all counts read zero and all lists come back empty.
func (a *Aggregator) Summarize(p Principal) (*DashboardSummary, error) {
	summary := &DashboardSummary{}

	if err := a.routeStats(p, &summary.Routes); err != nil {
		return nil, err
	}
	if err := a.farmStats(p, &summary.Farms); err != nil {
		return nil, err
	}
	if err := a.samplingStats(p, &summary.Sampling); err != nil {
		return nil, err
	}
	if err := a.pestDiseaseStats(p, &summary.PestDisease); err != nil {
		return nil, err
	}
	activity, err := a.recentActivity(p)
	if err != nil {
		return nil, err
	}
	summary.Activity = activity
	return summary, nil
}

func (a *Aggregator) routeStats(p Principal, out *RouteStats) error {
	type statusRow struct {
		Status string
		Count  int64
	}
	var rows []statusRow
	err := a.scope.Routes(p).
		Select("routes.status AS status, COUNT(routes.id) AS count").
		Group("routes.status").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		out.Total += row.Count
		switch row.Status {
		case models.RouteStatusPending:
			out.Pending = row.Count
		case models.RouteStatusInProgress:
			out.InProgress = row.Count
		case models.RouteStatusComplete:
			out.Complete = row.Count
		}
	}
	return nil
}

func (a *Aggregator) farmStats(p Principal, out *FarmStats) error {
	if err := a.scope.Farms(p).Count(&out.Total).Error; err != nil {
		return err
	}
	out.ByRoute = []RouteFarmCount{}
	// Ordered by route name so the breakdown is deterministic.
	return a.scope.Farms(p).
		Select("farms.route_id AS route_id, routes.name AS name, COUNT(farms.id) AS count").
		Group("farms.route_id, routes.name").
		Order("routes.name").
		Scan(&out.ByRoute).Error
}

func (a *Aggregator) samplingStats(p Principal, out *SamplingStats) error {
	if err := a.sampleStats(a.scope.SoilSamples(p), "soil_samples", &out.Soil); err != nil {
		return err
	}
	return a.sampleStats(a.scope.WaterSamples(p), "water_samples", &out.Water)
}

func (a *Aggregator) sampleStats(base *gorm.DB, table string, out *SampleStats) error {
	if err := base.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		return err
	}
	out.Latest = []SampleSummary{}
	return base.Session(&gorm.Session{}).
		Select(table + ".id AS id, farms.name AS farm_name, " +
			table + ".sample_date AS sample_date, " + table + ".ph AS ph").
		Order(table + ".created_at DESC").
		Limit(latestPerKind).
		Scan(&out.Latest).Error
}

func (a *Aggregator) pestDiseaseStats(p Principal, out *PestDiseaseStats) error {
	type keyRow struct {
		Key   string
		Count int64
	}

	var byCategory []keyRow
	err := a.scope.PestReports(p).
		Select("pest_disease_reports.category AS key, COUNT(pest_disease_reports.id) AS count").
		Group("pest_disease_reports.category").
		Scan(&byCategory).Error
	if err != nil {
		return err
	}
	for _, row := range byCategory {
		out.Total += row.Count
		switch row.Key {
		case models.CategoryPest:
			out.ByCategory.Pest = row.Count
		case models.CategoryDisease:
			out.ByCategory.Disease = row.Count
		}
	}

	var bySeverity []keyRow
	err = a.scope.PestReports(p).
		Select("pest_disease_reports.severity AS key, COUNT(pest_disease_reports.id) AS count").
		Group("pest_disease_reports.severity").
		Scan(&bySeverity).Error
	if err != nil {
		return err
	}
	for _, row := range bySeverity {
		switch row.Key {
		case models.SeverityLow:
			out.BySeverity.Low = row.Count
		case models.SeverityMedium:
			out.BySeverity.Medium = row.Count
		case models.SeverityHigh:
			out.BySeverity.High = row.Count
		}
	}

	out.Latest = []PestReportSummary{}
	return a.scope.PestReports(p).
		Select(`pest_disease_reports.id AS id, farms.name AS farm_name,
			pest_disease_reports.report_date AS report_date,
			pest_disease_reports.name AS name,
			pest_disease_reports.category AS category,
			pest_disease_reports.severity AS severity`).
		Order("pest_disease_reports.created_at DESC").
		Limit(latestPerKind).
		Scan(&out.Latest).Error
}

// recentActivity unions the most recent farms, samples, and reports
// into one feed. Sorting is by creation timestamp descending; ties
// break by kind then id, which is arbitrary but deterministic for a
// fixed input set.
func (a *Aggregator) recentActivity(p Principal) ([]ActivityItem, error) {
	items := []ActivityItem{}

	type farmRow struct {
		ID        uuid.UUID
		Name      string
		CreatedAt time.Time
	}
	var farms []farmRow
	err := a.scope.Farms(p).
		Select("farms.id AS id, farms.name AS name, farms.created_at AS created_at").
		Order("farms.created_at DESC").
		Limit(latestPerKind).
		Scan(&farms).Error
	if err != nil {
		return nil, err
	}
	for _, f := range farms {
		items = append(items, ActivityItem{
			Kind:     "farm",
			ID:       f.ID,
			FarmName: f.Name,
			Date:     f.CreatedAt,
			Summary:  "Added Farm: " + f.Name,
		})
	}

	type sampleRow struct {
		ID        uuid.UUID
		FarmName  string
		CreatedAt time.Time
	}
	for _, src := range []struct {
		query   *gorm.DB
		table   string
		kind    string
		summary string
	}{
		{a.scope.SoilSamples(p), "soil_samples", "soil_sample", "Soil Sample: %s"},
		{a.scope.WaterSamples(p), "water_samples", "water_sample", "Water Sample: %s"},
	} {
		var rows []sampleRow
		err := src.query.
			Select(src.table + ".id AS id, farms.name AS farm_name, " +
				src.table + ".created_at AS created_at").
			Order(src.table + ".created_at DESC").
			Limit(latestPerKind).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			items = append(items, ActivityItem{
				Kind:     src.kind,
				ID:       r.ID,
				FarmName: r.FarmName,
				Date:     r.CreatedAt,
				Summary:  fmt.Sprintf(src.summary, r.FarmName),
			})
		}
	}

	type reportRow struct {
		ID        uuid.UUID
		FarmName  string
		Name      string
		Category  string
		CreatedAt time.Time
	}
	var reports []reportRow
	err = a.scope.PestReports(p).
		Select(`pest_disease_reports.id AS id, farms.name AS farm_name,
			pest_disease_reports.name AS name,
			pest_disease_reports.category AS category,
			pest_disease_reports.created_at AS created_at`).
		Order("pest_disease_reports.created_at DESC").
		Limit(latestPerKind).
		Scan(&reports).Error
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		items = append(items, ActivityItem{
			Kind:     "pest_disease",
			ID:       r.ID,
			FarmName: r.FarmName,
			Date:     r.CreatedAt,
			Summary:  fmt.Sprintf("%s Report: %s on %s", models.CategoryLabel(r.Category), r.Name, r.FarmName),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		if items[i].Kind != items[j].Kind {
			return items[i].Kind < items[j].Kind
		}
		return items[i].ID.String() < items[j].ID.String()
	})
	if len(items) > activityLimit {
		items = items[:activityLimit]
	}
	return items, nil
}
