package entity

import (
	"time"

	"github.com/google/uuid"
)

// ScanJobState tracks a reconciliation run through its lifecycle.
type ScanJobState string

const (
	ScanJobPending ScanJobState = "pending"
	ScanJobRunning ScanJobState = "running"
	ScanJobDone    ScanJobState = "done"
	// ScanJobPartial means the run finished but some items were skipped.
	ScanJobPartial ScanJobState = "partial"
	ScanJobFailed  ScanJobState = "failed"
)

// ScanJob records one fire-and-forget reconciliation run so its outcome can
// be polled after the triggering request has returned.
type ScanJob struct {
	ID         uuid.UUID
	UserID     int64
	State      ScanJobState
	FoldersNew int
	MediaNew   int
	Skipped    int
	Error      *string
	StartedAt  time.Time
	FinishedAt *time.Time
}
