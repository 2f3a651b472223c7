package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"resbook/internal/models"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	bookingsSheet = "Bookings"
	summarySheet  = "Summary"
)

var bookingHeaders = []string{
	"ID", "Resource", "Type", "Requester", "Date", "Start", "End",
	"PIC", "Section", "Status", "Approver", "Decided At", "Feedback", "Notes",
}

// BuildWorkbook renders the booking rows and the aggregate summary
// into a two-sheet workbook. The caller owns the returned file and
// must Close it.
func BuildWorkbook(rows []models.ExportRow, summary *models.ReportSummary) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for col, header := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(bookingsSheet, cell, header)
		_ = f.SetCellStyle(bookingsSheet, cell, cell, headerStyle)
	}

	for i, row := range rows {
		values := []interface{}{
			row.BookingID, row.ResourceName, row.ResourceType, row.Requester,
			row.Date, row.StartTime, row.EndTime, row.PIC, row.Section,
			row.Status, row.Approver, row.DecidedAt, row.Feedback, row.Notes,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(bookingsSheet, cell, value)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "B", "B", 25)
	_ = f.SetColWidth(bookingsSheet, "D", "D", 20)
	_ = f.SetColWidth(bookingsSheet, "M", "N", 30)

	if summary != nil {
		if err := writeSummary(f, summary, headerStyle); err != nil {
			return nil, err
		}
	}

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

func writeSummary(f *excelize.File, summary *models.ReportSummary, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	_ = f.SetCellValue(summarySheet, "A1", "Metric")
	_ = f.SetCellValue(summarySheet, "B1", "Count")
	_ = f.SetCellStyle(summarySheet, "A1", "B1", headerStyle)

	row := 2
	write := func(label string, count int64) {
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		countCell, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(summarySheet, labelCell, label)
		_ = f.SetCellValue(summarySheet, countCell, count)
		row++
	}

	write("Total", summary.Total)
	for _, status := range []string{models.StatusPending, models.StatusApproved, models.StatusRejected, models.StatusCancelled} {
		if count, ok := summary.ByStatus[status]; ok {
			write("Status: "+status, count)
		}
	}
	for _, resourceType := range []string{models.ResourceRoom, models.ResourceTransport} {
		if count, ok := summary.ByResourceType[resourceType]; ok {
			write("Type: "+resourceType, count)
		}
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 25)
	return nil
}

// Save writes the workbook into the export directory under a unique
// name and returns the full path.
func Save(f *excelize.File, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	fileName := fmt.Sprintf("bookings_%s_%s.xlsx",
		time.Now().Format("2006-01-02"), uuid.NewString()[:8])
	filePath := filepath.Join(dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return filePath, nil
}

// WriteTo streams the workbook, used to serve the export over HTTP
// without touching disk.
func WriteTo(f *excelize.File, w io.Writer) error {
	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
