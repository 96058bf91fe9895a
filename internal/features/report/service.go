package report

import (
	"context"
	"fmt"
	"time"

	"go-permits/internal/features/account"
	"go-permits/internal/features/permit"

	"github.com/xuri/excelize/v2"
)

// ReportService renders the permit register as an xlsx workbook.
type ReportService interface {
	ExportPermitRegister(ctx context.Context, filter permit.ListFilter) ([]byte, string, error)
}

type ReportServiceImpl struct {
	permits  permit.PermitRepository
	accounts account.AccountRepository
}

func NewReportService(permits permit.PermitRepository, accounts account.AccountRepository) ReportService {
	return &ReportServiceImpl{
		permits:  permits,
		accounts: accounts,
	}
}

var registerColumns = []string{
	"Application No", "Type", "Applicant", "Stage", "Status", "Submitted", "Last Updated",
}

func (s *ReportServiceImpl) ExportPermitRegister(ctx context.Context, filter permit.ListFilter) ([]byte, string, error) {
	permits, err := s.permits.List(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Permit Register"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	for i, col := range registerColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// Applicant names are resolved once per distinct account.
	names := make(map[string]string)
	for rowIdx, p := range permits {
		applicant := names[p.ApplicantID.Hex()]
		if applicant == "" {
			if acc, err := s.accounts.FindByID(ctx, p.ApplicantID.Hex()); err == nil {
				applicant = acc.FullName
				if applicant == "" {
					applicant = acc.Username
				}
			} else {
				applicant = p.ApplicantID.Hex()
			}
			names[p.ApplicantID.Hex()] = applicant
		}

		submitted := ""
		if p.DateOfSubmission != nil {
			submitted = p.DateOfSubmission.Format("2006-01-02 15:04:05")
		}

		values := []any{
			p.ApplicationNumber,
			string(p.ApplicationType),
			applicant,
			string(p.CurrentStage),
			string(p.Status),
			submitted,
			p.LastUpdated.Format("2006-01-02 15:04:05"),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	for i := range registerColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 24)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("permit-register-%s.xlsx", time.Now().Format("20060102-150405"))
	return buffer.Bytes(), filename, nil
}
