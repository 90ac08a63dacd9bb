package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"shop_visit_app_go/models"
)

var visitExportHeaders = []string{
	"Shop Name",
	"Shop Type",
	"City",
	"Contact Person",
	"Status",
	"Visit Date",
	"Duration (min)",
	"Purpose",
	"Visibility Score",
	"Products Discussed",
	"Training Provided",
	"Commercial Outcome",
	"Order Value",
	"Satisfaction",
	"Follow-up Required",
	"Follow-up Date",
	"Score",
	"Priority",
	"Notes",
}

// ExportVisitsToExcel renders the visits matching the filters as an
// xlsx workbook, one row per visit
func ExportVisitsToExcel(db *gorm.DB, filters VisitFilters) (*bytes.Buffer, error) {
	visits, err := ListVisits(db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load visits for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Visits"
	f.SetSheetName("Sheet1", sheet)

	for i, header := range visitExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	lastHeaderCell, _ := excelize.CoordinatesToCellName(len(visitExportHeaders), 1)
	f.SetCellStyle(sheet, "A1", lastHeaderCell, headerStyle)
	f.SetColWidth(sheet, "A", "S", 18)

	for i, visit := range visits {
		row := i + 2
		values := visitExportRow(&visit)
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}

func visitExportRow(visit *models.ShopVisit) []any {
	visibility := ""
	if visit.ProductVisibilityScore != nil {
		visibility = fmt.Sprintf("%d", *visit.ProductVisibilityScore)
	}
	satisfaction := ""
	if visit.OverallSatisfaction > 0 {
		satisfaction = fmt.Sprintf("%d", visit.OverallSatisfaction)
	}
	followUpDate := ""
	if visit.FollowUpDate != nil {
		followUpDate = visit.FollowUpDate.Format("2006-01-02")
	}
	score := ""
	if visit.CalculatedScore != nil {
		score = fmt.Sprintf("%d", *visit.CalculatedScore)
	}
	priority := ""
	if visit.PriorityLevel != nil {
		priority = *visit.PriorityLevel
	}

	return []any{
		visit.ShopName,
		visit.ShopType,
		visit.City,
		visit.ContactPerson,
		visit.VisitStatus,
		visit.VisitDate.Format("2006-01-02"),
		visit.VisitDuration,
		visit.VisitPurpose,
		visibility,
		strings.Join(visit.ProductsDiscussed, ", "),
		yesNo(visit.TrainingProvided),
		visit.CommercialOutcome,
		visit.OrderValue,
		satisfaction,
		yesNo(visit.FollowUpRequired),
		followUpDate,
		score,
		priority,
		visit.Notes,
	}
}
