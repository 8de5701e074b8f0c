package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

const allocationSheet = "Allocations"

var allocationColumns = []interface{}{
	"Allocation ID", "Lab", "User", "Email", "Status",
	"Allocated At", "Due Date", "Expires At", "Completed At", "Score",
}

type reportService struct {
	allocations AllocationService
	logger      *slog.Logger
}

func NewReportService(allocations AllocationService, logger *slog.Logger) ReportService {
	return &reportService{
		allocations: allocations,
		logger:      logger,
	}
}

// ExportAllocations renders the filtered allocations as an XLSX workbook.
func (s *reportService) ExportAllocations(ctx context.Context, filter AllocationFilter) ([]byte, error) {
	allocations, err := s.allocations.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	rows := s.allocations.Details(ctx, allocations)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.ErrorContext(ctx, "Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", allocationSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(allocationSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, len(allocationColumns), 22); err != nil {
		return nil, err
	}
	if err := sw.SetRow("A1", allocationColumns, excelize.RowOpts{StyleID: header}); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, d := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, allocationRow(d)); err != nil {
			return nil, fmt.Errorf("failed to write allocation %s: %w", d.ID, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Exported allocations", "rows", len(rows))
	return buf.Bytes(), nil
}

func allocationRow(d AllocationDetails) []interface{} {
	completedAt := ""
	if d.CompletedAt != nil {
		completedAt = formatTimestamp(*d.CompletedAt)
	}
	var score interface{} = ""
	if d.Score != nil {
		score = *d.Score
	}

	return []interface{}{
		d.ID,
		d.LabTitle,
		d.UserName,
		d.UserEmail,
		string(d.Status),
		formatTimestamp(d.AllocatedAt),
		formatTimestamp(d.DueDate),
		formatTimestamp(d.ExpiresAt),
		completedAt,
		score,
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
