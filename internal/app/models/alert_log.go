package models

import "time"

// AlertLogEntry defines one row of the append-only alert ledger based on the
// 'alert_log' table. Row existence for (student_id, alert_kind, doc_type_id,
// sent_on) is the sole dedup signal; rows are written only after a
// notification was confirmed delivered, and never updated.
type AlertLogEntry struct {
	ID         int64     `json:"id" db:"id"`
	StudentID  int64     `json:"studentId" db:"student_id"`
	AlertKind  AlertKind `json:"alertKind" db:"alert_kind"`
	DocTypeID  *int64    `json:"docTypeId,omitempty" db:"doc_type_id"` // nil for visa and missing kinds
	SentOn     time.Time `json:"sentOn" db:"sent_on"`                  // calendar date of the sweep run
	DaysBefore int       `json:"daysBefore" db:"days_before"`          // threshold that fired (7, 30 or 90)
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
