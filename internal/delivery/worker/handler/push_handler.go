// Package handler contains the worker's Pub/Sub push handlers.
package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"lumen/config"
	deliverycontext "lumen/internal/delivery/context"
	"lumen/internal/domain/constants"
	"lumen/internal/domain/entity"
	"lumen/internal/domain/repository"
	"lumen/internal/domain/service"
	"lumen/internal/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// PubSubMessage represents the structure of a Pub/Sub push message
type PubSubMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// retryableError wraps an error to indicate it should trigger a Pub/Sub retry
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.err)
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func newRetryableError(err error) error {
	return &retryableError{err: err}
}

func isRetryableError(err error) bool {
	var re *retryableError

	return errors.As(err, &re)
}

// PushHandler consumes scan lifecycle events pushed by Pub/Sub. It keeps an
// audit trail of scan outcomes and surfaces runs that finish badly.
type PushHandler struct {
	verifyPushAuth bool
	logger         *slog.Logger
	scanJobRepo    repository.ScanJobRepository
	userRepo       repository.UserRepository
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config      *config.Config
	Logger      *slog.Logger
	ScanJobRepo repository.ScanJobRepository
	UserRepo    repository.UserRepository
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	// Local pushes carry no identity token, so only Google pushes outside
	// development are verified.
	verifyPushAuth := params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == constants.PubSubProviderGoogle &&
		params.Config.Env.Env != constants.EnvDevelop

	return &PushHandler{
		verifyPushAuth: verifyPushAuth,
		logger:         params.Logger,
		scanJobRepo:    params.ScanJobRepo,
		userRepo:       params.UserRepo,
	}
}

// HandlePush handles incoming Pub/Sub push messages
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	if h.verifyPushAuth {
		if err := verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var pushMsg PubSubMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		// Malformed data never gets better on retry; ack and drop.
		return c.NoContent(http.StatusOK)
	}

	var event service.ScanEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error("[Worker] Failed to unmarshal scan event", slog.Any("error", err))

		return c.NoContent(http.StatusOK)
	}

	logger := deliverycontext.GetLoggerOrDefault(ctx, h.logger)
	if event.RequestID != "" {
		logger = logger.With(slog.String("request_id", event.RequestID))
	}

	if err := h.handleScanEvent(c, logger, &event); err != nil {
		if isRetryableError(err) {
			logger.Warn("[Worker] Retryable failure handling scan event", slog.Any("error", err))

			return c.NoContent(http.StatusServiceUnavailable)
		}

		logger.Error("[Worker] Failed to handle scan event", slog.Any("error", err))
	}

	return c.NoContent(http.StatusOK)
}

// handleScanEvent records the outcome of a scan run. Only terminal states
// matter here; intermediate states are logged and dropped.
func (h *PushHandler) handleScanEvent(c echo.Context, logger *slog.Logger, event *service.ScanEvent) error {
	ctx := c.Request().Context()

	state := entity.ScanJobState(event.State)
	logger.Info("[Worker] Scan event received",
		slog.String("job_id", event.JobID),
		slog.Int64("user_id", event.UserID),
		slog.String("state", event.State),
	)

	switch state {
	case entity.ScanJobDone, entity.ScanJobPartial, entity.ScanJobFailed:
	default:
		return nil
	}

	jobID, err := uuid.Parse(event.JobID)
	if err != nil {
		return errors.Wrap(err, "malformed job ID in scan event")
	}

	job, err := h.scanJobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrScanJobNotFound) {
			// The push beat the job row's final write; let Pub/Sub redeliver.
			return newRetryableError(err)
		}

		return errors.Wrap(err, "failed to load scan job")
	}

	user, err := h.userRepo.FindByID(ctx, job.UserID)
	if err != nil {
		return errors.Wrap(err, "failed to load scan user")
	}

	duration := time.Duration(0)
	if job.FinishedAt != nil {
		duration = job.FinishedAt.Sub(job.StartedAt)
	}

	attrs := []any{
		slog.String("job_id", job.ID.String()),
		slog.String("username", user.Username),
		slog.String("state", string(job.State)),
		slog.Int("folders_new", job.FoldersNew),
		slog.Int("media_new", job.MediaNew),
		slog.Int("skipped", job.Skipped),
		slog.Duration("duration", duration),
		slog.String("duration_human", util.FormatDuration(duration)),
	}

	switch job.State {
	case entity.ScanJobFailed:
		if job.Error != nil {
			attrs = append(attrs, slog.String("error", *job.Error))
		}
		logger.Error("[Worker] Scan run failed", attrs...)
	case entity.ScanJobPartial:
		logger.Warn("[Worker] Scan run finished with skipped items", attrs...)
	default:
		logger.Info("[Worker] Scan run finished", attrs...)
	}

	return nil
}

// verifyPubSubToken verifies the authenticity of a Google Pub/Sub push.
func verifyPubSubToken(r *http.Request) error {
	authHeader := r.Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return errors.New("missing Authorization header")
	}

	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) || authHeader[:len(prefix)] != prefix {
		return errors.New("malformed Authorization header")
	}

	if _, err := idtoken.Validate(r.Context(), authHeader[len(prefix):], ""); err != nil {
		return errors.Wrap(err, "failed to validate Pub/Sub token")
	}

	return nil
}
