package usecase

import (
	"context"

	"lumen/internal/domain/entity"

	"github.com/google/uuid"
)

// ScanReport summarizes one reconciliation run.
type ScanReport struct {
	JobID      uuid.UUID
	FoldersNew int
	MediaNew   int
	Skipped    int
}

// ScannerUsecase defines the interface for filesystem reconciliation.
type ScannerUsecase interface {
	// ScanRoot launches a reconciliation run for the user's gallery directory
	// and returns its job ID immediately. At most one run per user is active;
	// a second request while one is running is rejected.
	ScanRoot(ctx context.Context, userUUID uuid.UUID) (uuid.UUID, error)

	// ScanRootSync runs a full reconciliation and blocks until it finishes.
	ScanRootSync(ctx context.Context, userUUID uuid.UUID) (*ScanReport, error)

	// JobStatus reports the state and counters of a reconciliation run.
	JobStatus(ctx context.Context, jobID uuid.UUID) (*entity.ScanJob, error)
}
