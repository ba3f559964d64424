package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/halalverify/halal-backend/config"
	"github.com/halalverify/halal-backend/internal/app/model"
	"github.com/halalverify/halal-backend/internal/app/repository"
	"github.com/halalverify/halal-backend/internal/db"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Column layout of the import sheet. The first row is a header.
const (
	colName = iota
	colRegion
	colDistrict
	colAddress
	colPhone
	colOwner
	colApplicationStatus
	minColumns = colDistrict + 1
)

// seedRow is one business with the application that comes with it.
type seedRow struct {
	Business model.Business
	Status   model.ApplicationStatus
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, err := readBusinessesFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total businesses to import: %d\n", len(rows))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	businesses, applications, err := importRows(db.GetDB(), rows, time.Now().UTC())
	if err != nil {
		log.Fatal("Import failed, nothing was written:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Businesses imported: %d\n", len(businesses))
	fmt.Printf("Applications imported: %d\n", len(applications))
}

func readBusinessesFromXLSX(filePath string) ([]seedRow, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	parsed, skipped := parseBusinessRows(rows[1:])

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid businesses: %d\n", len(parsed))
	fmt.Printf("  Skipped rows: %d\n", skipped)

	return parsed, nil
}

// parseBusinessRows turns sheet rows into seed rows, dropping incomplete
// rows and repeats of the same name at the same address.
func parseBusinessRows(rows [][]string) ([]seedRow, int) {
	var parsed []seedRow
	seen := make(map[string]bool)
	skipped := 0

	for _, row := range rows {
		if len(row) < minColumns {
			skipped++
			continue
		}

		name := strings.TrimSpace(row[colName])
		region := strings.TrimSpace(row[colRegion])
		district := strings.TrimSpace(row[colDistrict])
		if name == "" || region == "" || district == "" {
			skipped++
			continue
		}

		address := cell(row, colAddress)
		key := strings.ToLower(fmt.Sprintf("%s|%s|%s|%s", name, region, district, address))
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		status := model.ApplicationStatus(strings.ToLower(cell(row, colApplicationStatus)))
		switch status {
		case model.ApplicationStatusPending, model.ApplicationStatusUnderReview,
			model.ApplicationStatusApproved, model.ApplicationStatusRejected:
		case "":
			status = model.ApplicationStatusPending
		default:
			skipped++
			continue
		}

		parsed = append(parsed, seedRow{
			Business: model.Business{
				Name:        name,
				Region:      region,
				District:    district,
				Address:     address,
				PhoneNumber: cell(row, colPhone),
				OwnerName:   cell(row, colOwner),
			},
			Status: status,
		})
	}

	return parsed, skipped
}

// importRows writes businesses and their applications in one transaction,
// so a failed application insert leaves no business behind.
func importRows(gdb *gorm.DB, rows []seedRow, now time.Time) ([]model.Business, []model.Application, error) {
	businesses := make([]model.Business, len(rows))
	for i := range rows {
		businesses[i] = rows[i].Business
	}

	var applications []model.Application
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewBusinessRepository(tx).BulkCreate(businesses); err != nil {
			return fmt.Errorf("failed to bulk create businesses: %w", err)
		}
		applications = buildApplications(businesses, rows, now)
		if err := repository.NewApplicationRepository(tx).BulkCreate(applications); err != nil {
			return fmt.Errorf("failed to bulk create applications: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return businesses, applications, nil
}

// buildApplications pairs each created business with its application.
// businesses must carry the IDs assigned on insert.
func buildApplications(businesses []model.Business, rows []seedRow, now time.Time) []model.Application {
	applications := make([]model.Application, 0, len(businesses))
	for i := range businesses {
		submitted := now
		app := model.Application{
			BusinessID:  businesses[i].ID,
			Status:      rows[i].Status,
			SubmittedAt: &submitted,
		}
		if app.Status == model.ApplicationStatusApproved || app.Status == model.ApplicationStatusRejected {
			reviewed := now
			app.ReviewedAt = &reviewed
		}
		applications = append(applications, app)
	}
	return applications
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
