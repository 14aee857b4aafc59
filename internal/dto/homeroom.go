package dto

// RecordAttendanceRequest upserts one student's status for a day.
type RecordAttendanceRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
}

// MarkAllPresentRequest marks every listed student present on Date.
type MarkAllPresentRequest struct {
	StudentIDs []string `json:"studentIds" validate:"dive,required"`
	Date       string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ImportStudentsResult reports a spreadsheet import.
type ImportStudentsResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
