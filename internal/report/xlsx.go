package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

const (
	summarySheet = "Summary"
	errorsSheet  = "Errors"
)

// WriteXLSX saves the run counters and the full error list as a workbook.
func WriteXLSX(path string, stats *domain.RunStatistics) (err error) {
	if stats == nil {
		stats = &domain.RunStatistics{}
	}
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close workbook: %w", closeErr)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	summary := [][]any{
		{"Run", stats.RunID},
		{"Kind", "Succeeded", "Already imported", "Failed"},
		{string(domain.KindInvoice), stats.InvoiceSuccess, stats.InvoiceDuplicate, stats.InvoiceError},
		{string(domain.KindFreight), stats.FreightSuccess, stats.FreightDuplicate, stats.FreightError},
		{"Total", stats.TotalSuccess(), stats.InvoiceDuplicate + stats.FreightDuplicate, stats.TotalError()},
		{"Items inserted", stats.ItemsInserted},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}

	if _, err := f.NewSheet(errorsSheet); err != nil {
		return fmt.Errorf("create errors sheet: %w", err)
	}
	rows := make([][]any, 0, len(stats.Errors)+1)
	rows = append(rows, []any{"Kind", "File", "Message"})
	for _, e := range stats.Errors {
		rows = append(rows, []any{string(e.Kind), e.Filename, e.Message})
	}
	if err := writeRows(f, errorsSheet, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(errorsSheet, "B", "B", 40); err != nil {
		return fmt.Errorf("size errors sheet: %w", err)
	}
	if err := f.SetColWidth(errorsSheet, "C", "C", 100); err != nil {
		return fmt.Errorf("size errors sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
