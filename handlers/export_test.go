package handlers

import (
	"strings"
	"testing"

	"p9e.in/agrisurvey/pkg/survey"
)

func sampleDataset() *survey.Dataset {
	return &survey.Dataset{
		Kind:    survey.ExportFarms,
		Headers: []string{"ID", "Name", "Size (ha)"},
		Rows: [][]string{
			{"1", "Green Acres", "12.5"},
			{"2", "River, Bend", "8.25"},
		},
	}
}

func TestDatasetToCSV(t *testing.T) {
	data, err := datasetToCSV(sampleDataset())
	if err != nil {
		t.Fatalf("datasetToCSV: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines, want 3", len(lines))
	}
	if lines[0] != "ID,Name,Size (ha)" {
		t.Errorf("header = %q", lines[0])
	}
	// A comma inside a cell must be quoted, not split.
	if lines[2] != `2,"River, Bend",8.25` {
		t.Errorf("row = %q", lines[2])
	}
}

func TestDatasetToExcel(t *testing.T) {
	f, err := datasetToExcel(sampleDataset())
	if err != nil {
		t.Fatalf("datasetToExcel: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Export", "B1")
	if err != nil {
		t.Fatalf("read header cell: %v", err)
	}
	if got != "Name" {
		t.Errorf("B1 = %q, want Name", got)
	}
	got, err = f.GetCellValue("Export", "B3")
	if err != nil {
		t.Fatalf("read data cell: %v", err)
	}
	if got != "River, Bend" {
		t.Errorf("B3 = %q, want River, Bend", got)
	}
}
