package service

import (
	"context"

	"resbook/internal/database"
	"resbook/internal/domain"
	"resbook/internal/models"
)

type ReportService struct {
	repo domain.Repository
}

func NewReportService(repo domain.Repository) *ReportService {
	return &ReportService{repo: repo}
}

func validateFilter(filter models.BookingFilter) error {
	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		return database.NewValidationError("unknown status %q", filter.Status)
	}
	if filter.ResourceType != "" && !models.ValidResourceType(filter.ResourceType) {
		return database.NewValidationError("unknown resource type %q", filter.ResourceType)
	}
	return nil
}

// Summary aggregates booking counts by status and resource type.
func (s *ReportService) Summary(ctx context.Context, filter models.BookingFilter) (*models.ReportSummary, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.repo.AggregateBookings(ctx, filter)
}

// ExportRows flattens bookings into spreadsheet rows in ledger order.
func (s *ReportService) ExportRows(ctx context.Context, filter models.BookingFilter) ([]models.ExportRow, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListBookings(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([]models.ExportRow, 0, len(bookings))
	for _, b := range bookings {
		decided := ""
		if b.DecidedAt != nil {
			decided = b.DecidedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, models.ExportRow{
			BookingID:    b.ID,
			ResourceName: b.ResourceName,
			ResourceType: b.ResourceType,
			Requester:    b.UserName,
			Date:         b.Date,
			StartTime:    b.StartTime,
			EndTime:      b.EndTime,
			PIC:          b.PIC,
			Section:      b.Section,
			Status:       b.Status,
			Approver:     b.ApproverName,
			DecidedAt:    decided,
			Feedback:     b.Feedback,
			Notes:        b.Notes,
		})
	}
	return rows, nil
}
