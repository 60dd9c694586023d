package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/salesai/api-server-go/internal/errors"
	"github.com/salesai/api-server-go/internal/repository"
)

// ExportService renders the usage ledger as a spreadsheet for finance.
type ExportService struct {
	usageRepo repository.UsageRepository
}

func NewExportService(usageRepo repository.UsageRepository) *ExportService {
	return &ExportService{usageRepo: usageRepo}
}

// UsageWorkbook builds an xlsx of all usage records in [from, to) and returns
// the file bytes plus a suggested filename.
func (s *ExportService) UsageWorkbook(ctx context.Context, from, to time.Time) ([]byte, string, error) {
	records, err := s.usageRepo.ListByPeriod(ctx, from, to)
	if err != nil {
		return nil, "", apperrors.Database(err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"usage_id",
		"profile_id",
		"company_id",
		"session_id",
		"minutes_used",
		"cost",
		"period_start",
		"period_end",
		"recorded_at",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, "", fmt.Errorf("write header: %w", err)
	}

	row := 2
	totalMinutes := 0
	for _, record := range records {
		companyID := ""
		if record.CompanyID != nil {
			companyID = *record.CompanyID
		}

		excelRow := []interface{}{
			record.ID,
			record.ProfileID,
			companyID,
			record.SessionID,
			record.MinutesUsed,
			CostForMinutes(record.MinutesUsed),
			record.PeriodStart.Format(time.RFC3339),
			record.PeriodEnd.Format(time.RFC3339),
			record.CreatedAt.Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, "", fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, "", fmt.Errorf("write row: %w", err)
		}
		totalMinutes += record.MinutesUsed
		row++
	}

	summaryCell, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return nil, "", fmt.Errorf("cell name: %w", err)
	}
	summary := []interface{}{"total", "", "", "", totalMinutes, CostForMinutes(totalMinutes)}
	if err := f.SetSheetRow(sheet, summaryCell, &summary); err != nil {
		return nil, "", fmt.Errorf("write summary: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	filename := fmt.Sprintf("usage_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	return buf.Bytes(), filename, nil
}
