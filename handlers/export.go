// handlers/export.go
package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/xuri/excelize/v2"

	"p9e.in/agrisurvey/config"
	"p9e.in/agrisurvey/middleware"
	"p9e.in/agrisurvey/pkg/survey"
)

// ExportDataset serves one entity kind as a CSV or Excel download.
// The admin-only restriction lives in the exporter, not here.
func ExportDataset(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	kind := mux.Vars(r)["kind"]

	dataset, err := survey.NewExporter(config.DB).Export(kind, principal)
	if err != nil {
		respondError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	stamp := time.Now().Format("20060102_150405")
	base := strings.ReplaceAll(dataset.Kind, "-", "_")

	switch format {
	case "csv":
		data, err := datasetToCSV(dataset)
		if err != nil {
			respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s.csv", base, stamp))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	case "xlsx":
		f, err := datasetToExcel(dataset)
		if err != nil {
			respondError(w, err)
			return
		}
		buffer, err := f.WriteToBuffer()
		if err != nil {
			respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s.xlsx", base, stamp))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))
		w.WriteHeader(http.StatusOK)
		w.Write(buffer.Bytes())
	default:
		respondError(w, survey.NewValidationError("format", "unknown format, choose from: csv, xlsx"))
	}
}

func datasetToCSV(dataset *survey.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(dataset.Headers); err != nil {
		return nil, err
	}
	for _, row := range dataset.Rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func datasetToExcel(dataset *survey.Dataset) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Export"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})

	for colIdx, header := range dataset.Headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(colIdx + 1)
		f.SetColWidth(sheetName, col, col, 20)
	}

	for rowIdx, row := range dataset.Rows {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}
