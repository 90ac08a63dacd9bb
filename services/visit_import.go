package services

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"shop_visit_app_go/models"
)

// ImportResult contains the summary of the import process
type ImportResult struct {
	TotalProcessed int
	SuccessCount   int
	FailedCount    int
	Errors         []string
}

var customerImportHeaders = []string{
	"Shop Name*",     // A
	"Shop Type",      // B
	"Address",        // C
	"Zipcode",        // D
	"City",           // E
	"County",         // F
	"Contact Person", // G
	"Contact Phone",  // H
	"Contact Email",  // I
	"Job Title",      // J
	"Shop Timings",   // K
}

var appointmentImportHeaders = []string{
	"Shop Name*",          // A
	"Planned Visit Date*", // B (YYYY-MM-DD)
	"Visit Purpose",       // C
	"Duration (minutes)",  // D
	"Description",         // E
}

// GenerateImportTemplate generates the Excel template for customer and
// appointment import
func GenerateImportTemplate() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetInstructions := "Instructions"
	f.SetSheetName("Sheet1", sheetInstructions)

	f.SetCellValue(sheetInstructions, "A1", "Customer & Appointment Import")
	f.SetCellValue(sheetInstructions, "A3", "Considerations:")
	f.SetCellValue(sheetInstructions, "A4", "- Columns marked with * are required.")
	f.SetCellValue(sheetInstructions, "A5", "- Shop names in the Appointments sheet must match a row in the Customers sheet or an existing customer.")
	f.SetCellValue(sheetInstructions, "A6", "- Dates use the YYYY-MM-DD format.")
	f.SetCellValue(sheetInstructions, "A7", "- Existing customers with the same shop name and city are reused, not duplicated.")
	f.SetCellValue(sheetInstructions, "A8", "- Imported appointments are created with status 'appointment' and can be completed from the app.")

	mainTitleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	f.SetCellStyle(sheetInstructions, "A1", "A1", mainTitleStyle)
	f.SetColWidth(sheetInstructions, "A", "A", 90)

	sheetCustomers := "Customers"
	f.NewSheet(sheetCustomers)
	for i, header := range customerImportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetCustomers, cell, header)
	}
	f.SetColWidth(sheetCustomers, "A", "K", 20)

	f.SetCellValue(sheetCustomers, "A2", "Corner Pharmacy")
	f.SetCellValue(sheetCustomers, "B2", "pharmacy")
	f.SetCellValue(sheetCustomers, "C2", "12 High Street")
	f.SetCellValue(sheetCustomers, "E2", "Dublin")
	f.SetCellValue(sheetCustomers, "G2", "Jane Murphy")
	f.SetCellValue(sheetCustomers, "H2", "+353 1 234 5678")
	f.SetCellValue(sheetCustomers, "K2", "Mon-Fri: 9:00 AM - 6:00 PM")

	sheetAppointments := "Appointments"
	f.NewSheet(sheetAppointments)
	for i, header := range appointmentImportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetAppointments, cell, header)
	}
	f.SetColWidth(sheetAppointments, "A", "E", 22)

	f.SetCellValue(sheetAppointments, "A2", "Corner Pharmacy")
	f.SetCellValue(sheetAppointments, "B2", time.Now().AddDate(0, 0, 7).Format("2006-01-02"))
	f.SetCellValue(sheetAppointments, "C2", "routine_check")
	f.SetCellValue(sheetAppointments, "D2", 60)
	f.SetCellValue(sheetAppointments, "E2", "Quarterly shelf review")

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheetCustomers, "A1", "K1", headerStyle)
	f.SetCellStyle(sheetAppointments, "A1", "E1", headerStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}

// BulkImportFromExcel parses the Excel file and creates customers and
// appointment visits
func BulkImportFromExcel(db *gorm.DB, userID string, file io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	result := &ImportResult{Errors: []string{}}

	if f.SheetCount < 3 {
		return nil, fmt.Errorf("invalid excel format: missing sheets")
	}

	sheets := f.GetSheetList()
	customerSheetName := sheets[1]
	appointmentSheetName := sheets[2]

	customerRows, err := f.GetRows(customerSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read customers sheet: %w", err)
	}

	// shop name (lowercased) -> customer, populated from both the sheet
	// and existing records looked up on demand
	shopNameToCustomer := make(map[string]*models.Customer)

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	cell := func(row []string, idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	// --- Phase 1: Customers ---
	for i, row := range customerRows {
		if i == 0 {
			continue // Header
		}

		shopName := cell(row, 0)
		if shopName == "" {
			continue
		}
		city := cell(row, 4)

		var existing models.Customer
		err := tx.Where("shop_name = ? AND city = ?", shopName, city).First(&existing).Error
		if err == nil {
			shopNameToCustomer[strings.ToLower(shopName)] = &existing
			continue
		}
		if err != gorm.ErrRecordNotFound {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d (Customer): Database error for %s: %v", i+1, shopName, err))
			tx.Rollback()
			return result, err
		}

		customer := models.Customer{
			ID:            uuid.New().String(),
			ShopName:      shopName,
			ShopType:      cell(row, 1),
			ShopAddress:   cell(row, 2),
			Zipcode:       cell(row, 3),
			City:          city,
			County:        cell(row, 5),
			ContactPerson: cell(row, 6),
			ContactPhone:  cell(row, 7),
			ContactEmail:  cell(row, 8),
			JobTitle:      cell(row, 9),
			ShopTimings:   cell(row, 10),
			Status:        models.CustomerStatusActive,
		}
		if err := tx.Create(&customer).Error; err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d (Customer): Failed to create %s: %v", i+1, shopName, err))
			continue
		}
		shopNameToCustomer[strings.ToLower(shopName)] = &customer
		result.SuccessCount++
		result.TotalProcessed++
	}

	// --- Phase 2: Appointments ---
	appointmentRows, err := f.GetRows(appointmentSheetName)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to read appointments sheet: %w", err)
	}

	for i, row := range appointmentRows {
		if i == 0 {
			continue // Header
		}

		shopName := cell(row, 0)
		if shopName == "" {
			continue
		}
		result.TotalProcessed++

		customer, ok := shopNameToCustomer[strings.ToLower(shopName)]
		if !ok {
			var existing models.Customer
			if err := tx.Where("shop_name = ?", shopName).First(&existing).Error; err != nil {
				result.FailedCount++
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d (Appointment): Shop '%s' not found in Customers sheet or system", i+1, shopName))
				continue
			}
			customer = &existing
			shopNameToCustomer[strings.ToLower(shopName)] = customer
		}

		plannedDate, err := ParseDate(cell(row, 1))
		if err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d (Appointment): Invalid planned date %q", i+1, cell(row, 1)))
			continue
		}

		duration := 60
		if raw := cell(row, 3); raw != "" {
			if _, err := fmt.Sscanf(raw, "%d", &duration); err != nil || duration <= 0 {
				duration = 60
			}
		}

		visit := models.ShopVisit{
			ID:                     uuid.New().String(),
			CustomerID:             customer.ID,
			ShopName:               customer.ShopName,
			ShopType:               customer.ShopType,
			ShopAddress:            customer.ShopAddress,
			Zipcode:                customer.Zipcode,
			City:                   customer.City,
			County:                 customer.County,
			ContactPerson:          customer.ContactPerson,
			ContactPhone:           customer.ContactPhone,
			ContactEmail:           customer.ContactEmail,
			JobTitle:               customer.JobTitle,
			ShopTimings:            customer.ShopTimings,
			VisitStatus:            models.VisitStatusAppointment,
			PlannedVisitDate:       &plannedDate,
			VisitDate:              plannedDate,
			VisitDuration:          duration,
			VisitPurpose:           cell(row, 2),
			AppointmentDescription: cell(row, 4),
			CreatedByID:            ptrIfNotEmpty(userID),
		}
		if err := tx.Create(&visit).Error; err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d (Appointment): Failed to save: %v", i+1, err))
			continue
		}
		result.SuccessCount++
	}

	if result.FailedCount > 0 && result.SuccessCount == 0 {
		tx.Rollback()
		return result, fmt.Errorf("all rows failed")
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return result, nil
}
