package repository

import (
	"context"

	"lumen/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrScanJobNotFound is returned when a scan job is not found.
var ErrScanJobNotFound = errors.New("scan job not found")

// ScanJobRepository defines the interface for scan job persistence. Jobs are
// written outside the caller's request context so results survive the
// triggering request.
type ScanJobRepository interface {
	// Create persists a new scan job record.
	Create(ctx context.Context, job *entity.ScanJob) error

	// FindByID retrieves a scan job by its identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ScanJob, error)

	// FindLatestByUserID retrieves the most recently started job for a user.
	FindLatestByUserID(ctx context.Context, userID int64) (*entity.ScanJob, error)

	// Update persists the current state and counters of a job.
	Update(ctx context.Context, job *entity.ScanJob) error
}
