package api

import (
	"fmt"
	"net/http"
	"time"

	"resbook/internal/export"
	"resbook/internal/models"
)

func reportFilter(r *http.Request) models.BookingFilter {
	query := r.URL.Query()
	return models.BookingFilter{
		Status:       query.Get("status"),
		ResourceType: query.Get("resource_type"),
		DateFrom:     query.Get("date_from"),
		DateTo:       query.Get("date_to"),
	}
}

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reports.Summary(r.Context(), reportFilter(r))
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleReportExport streams an xlsx workbook and keeps a copy in the
// exports directory for audit.
func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	filter := reportFilter(r)

	rows, err := s.reports.ExportRows(r.Context(), filter)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	summary, err := s.reports.Summary(r.Context(), filter)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	workbook, err := export.BuildWorkbook(rows, summary)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	defer workbook.Close()

	if s.exportsPath != "" {
		if path, err := export.Save(workbook, s.exportsPath); err != nil {
			s.logger.Error().Err(err).Msg("export save error")
		} else {
			s.logger.Info().Str("file_path", path).Msg("export file created")
		}
	}

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)

	if err := export.WriteTo(workbook, w); err != nil {
		s.logger.Error().Err(err).Msg("export stream error")
	}
}
