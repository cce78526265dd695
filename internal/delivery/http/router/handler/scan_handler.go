package handler

import (
	"log/slog"
	"net/http"

	"lumen/internal/delivery/http/middleware"
	"lumen/internal/delivery/http/response"
	"lumen/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ScanHandler holds dependencies for media scan handlers.
type ScanHandler struct {
	uc     usecase.ScannerUsecase
	logger *slog.Logger
}

// NewScanHandler is the constructor for ScanHandler, injected by Fx.
func NewScanHandler(uc usecase.ScannerUsecase, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{uc: uc, logger: logger}
}

// StartScan launches a reconciliation run for the caller's gallery directory.
// With ?wait=true the request blocks until the run finishes and returns its
// counters; otherwise the job ID comes back immediately.
func (h *ScanHandler) StartScan(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.User == nil {
		return response.Unauthorized(c, "INVALID_TOKEN", "Account credentials required")
	}

	if c.QueryParam("wait") == "true" {
		report, err := h.uc.ScanRootSync(c.Request().Context(), identity.User.UUID)
		if err != nil {
			return errors.WithStack(err)
		}

		return response.Success(c, http.StatusOK, report, "Scan completed")
	}

	jobID, err := h.uc.ScanRoot(c.Request().Context(), identity.User.UUID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusAccepted, map[string]string{"jobId": jobID.String()}, "Scan started")
}

// ScanStatus reports the state and counters of a scan job.
func (h *ScanHandler) ScanStatus(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid scan job ID")
	}

	job, err := h.uc.JobStatus(c.Request().Context(), jobID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, job, "Scan status retrieved successfully")
}
