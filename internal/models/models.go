package models

// ReportSummary aggregates the booking ledger for admin dashboards.
type ReportSummary struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	ByResourceType map[string]int64 `json:"by_resource_type"`
}

// ExportRow is one line of the administrator spreadsheet export.
type ExportRow struct {
	BookingID    int64  `json:"booking_id"`
	ResourceName string `json:"resource_name"`
	ResourceType string `json:"resource_type"`
	Requester    string `json:"requester"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	PIC          string `json:"pic"`
	Section      string `json:"section"`
	Status       string `json:"status"`
	Approver     string `json:"approver"`
	DecidedAt    string `json:"decided_at,omitempty"`
	Feedback     string `json:"feedback"`
	Notes        string `json:"notes"`
}
