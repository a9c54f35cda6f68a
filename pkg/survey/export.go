package survey

import (
	"strconv"
	"strings"

	"gorm.io/gorm"

	"p9e.in/agrisurvey/models"
)

// Export kinds.
const (
	ExportFarms        = "farms"
	ExportSoilSamples  = "soil-samples"
	ExportWaterSamples = "water-samples"
	ExportPestDisease  = "pest-disease"
)

// ExportKinds lists the exportable entity kinds.
func ExportKinds() []string {
	return []string{ExportFarms, ExportSoilSamples, ExportWaterSamples, ExportPestDisease}
}

const (
	exportDateFormat     = "2006-01-02"
	exportDateTimeFormat = "2006-01-02 15:04:05"
)

// Dataset is a flat tabular projection ready for CSV or spreadsheet
// rendering. Rows are ordered newest first.
type Dataset struct {
	Kind    string
	Headers []string
	Rows    [][]string
}

// Exporter projects entity collections into tabular form. Export is
// restricted to admin principals; there is no scoped-but-reduced
// variant for enumerators.
type Exporter struct {
	db *gorm.DB
}

func NewExporter(db *gorm.DB) *Exporter {
	return &Exporter{db: db}
}

// Export builds the dataset for one entity kind.
func (e *Exporter) Export(kind string, p Principal) (*Dataset, error) {
	if !p.IsAdmin() {
		return nil, NewAuthorizationError("export is restricted to administrators")
	}
	switch kind {
	case ExportFarms:
		return e.exportFarms()
	case ExportSoilSamples:
		return e.exportSoilSamples()
	case ExportWaterSamples:
		return e.exportWaterSamples()
	case ExportPestDisease:
		return e.exportPestDisease()
	default:
		return nil, NewValidationError("kind",
			"unknown export kind, choose from: "+strings.Join(ExportKinds(), ", "))
	}
}

func (e *Exporter) exportFarms() (*Dataset, error) {
	type row struct {
		models.Farm
		RouteName string
	}
	var rows []row
	err := e.db.Model(&models.Farm{}).
		Select("farms.*, routes.name AS route_name").
		Joins("JOIN routes ON routes.id = farms.route_id").
		Order("farms.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Kind: ExportFarms,
		Headers: []string{
			"ID", "Name", "Owner Name", "Location", "Address", "Size (ha)",
			"Route", "Latitude", "Longitude", "Created At",
		},
		Rows: make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		ds.Rows = append(ds.Rows, []string{
			r.ID.String(),
			r.Name,
			r.OwnerName,
			r.Location,
			r.Address,
			formatFloat(r.SizeHa),
			r.RouteName,
			formatFloatPtr(r.Latitude),
			formatFloatPtr(r.Longitude),
			r.CreatedAt.Format(exportDateTimeFormat),
		})
	}
	return ds, nil
}

func (e *Exporter) exportSoilSamples() (*Dataset, error) {
	type row struct {
		models.SoilSample
		FarmName string
	}
	var rows []row
	err := e.db.Model(&models.SoilSample{}).
		Select("soil_samples.*, farms.name AS farm_name").
		Joins("JOIN farms ON farms.id = soil_samples.farm_id").
		Order("soil_samples.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Kind: ExportSoilSamples,
		Headers: []string{
			"ID", "Farm", "Sample Date", "pH", "Moisture %",
			"Nitrogen", "Phosphorus", "Potassium", "Notes", "Created At",
		},
		Rows: make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		ds.Rows = append(ds.Rows, []string{
			r.ID.String(),
			r.FarmName,
			r.SampleDate.Time().Format(exportDateFormat),
			formatFloat(r.PH),
			formatFloatPtr(r.MoisturePct),
			formatFloatPtr(r.NutrientN),
			formatFloatPtr(r.NutrientP),
			formatFloatPtr(r.NutrientK),
			stringPtr(r.Notes),
			r.CreatedAt.Format(exportDateTimeFormat),
		})
	}
	return ds, nil
}

func (e *Exporter) exportWaterSamples() (*Dataset, error) {
	type row struct {
		models.WaterSample
		FarmName string
	}
	var rows []row
	err := e.db.Model(&models.WaterSample{}).
		Select("water_samples.*, farms.name AS farm_name").
		Joins("JOIN farms ON farms.id = water_samples.farm_id").
		Order("water_samples.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Kind: ExportWaterSamples,
		Headers: []string{
			"ID", "Farm", "Source", "Sample Date", "pH",
			"Turbidity (NTU)", "Notes", "Created At",
		},
		Rows: make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		ds.Rows = append(ds.Rows, []string{
			r.ID.String(),
			r.FarmName,
			r.Source,
			r.SampleDate.Time().Format(exportDateFormat),
			formatFloat(r.PH),
			formatFloatPtr(r.Turbidity),
			stringPtr(r.Notes),
			r.CreatedAt.Format(exportDateTimeFormat),
		})
	}
	return ds, nil
}

func (e *Exporter) exportPestDisease() (*Dataset, error) {
	type row struct {
		models.PestDiseaseReport
		FarmName string
	}
	var rows []row
	err := e.db.Model(&models.PestDiseaseReport{}).
		Select("pest_disease_reports.*, farms.name AS farm_name").
		Joins("JOIN farms ON farms.id = pest_disease_reports.farm_id").
		Order("pest_disease_reports.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Kind: ExportPestDisease,
		Headers: []string{
			"ID", "Farm", "Category", "Name", "Severity",
			"Report Date", "Description", "Created At",
		},
		Rows: make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		ds.Rows = append(ds.Rows, []string{
			r.ID.String(),
			r.FarmName,
			r.Category,
			r.Name,
			r.Severity,
			r.ReportDate.Time().Format(exportDateFormat),
			stringPtr(r.Description),
			r.CreatedAt.Format(exportDateTimeFormat),
		})
	}
	return ds, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func stringPtr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
