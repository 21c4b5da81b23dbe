package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/iconidentify/vidgate/internal/config"
	"github.com/iconidentify/vidgate/internal/domain"
	"github.com/iconidentify/vidgate/internal/probe"
	"github.com/iconidentify/vidgate/internal/repository"
)

// CheckService orchestrates the source validation workflow: it accepts
// check submissions, runs probes, and persists outcomes.
type CheckService struct {
	checkRepo repository.CheckRepository
	jobRepo   repository.JobRepository
	prober    probe.Prober
	workerCfg config.WorkerConfig
	logger    *slog.Logger
}

// NewCheckService creates a new check service.
func NewCheckService(
	checkRepo repository.CheckRepository,
	jobRepo repository.JobRepository,
	prober probe.Prober,
	workerCfg config.WorkerConfig,
	logger *slog.Logger,
) *CheckService {
	return &CheckService{
		checkRepo: checkRepo,
		jobRepo:   jobRepo,
		prober:    prober,
		workerCfg: workerCfg,
		logger:    logger,
	}
}

// SubmitRequest represents a check submission.
type SubmitRequest struct {
	SourceURL     string
	CorrelationID string
}

// SubmitResponse is returned after submitting a check.
type SubmitResponse struct {
	CheckID       domain.CheckID
	JobID         domain.JobID
	CorrelationID string
	Status        domain.CheckStatus
	Message       string
}

// Submit accepts a new source check and queues it for processing.
func (s *CheckService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	if err := validateSourceURL(req.SourceURL); err != nil {
		return nil, err
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = probe.NewCorrelationID()
	}

	checkID := domain.CheckID("chk_" + uuid.New().String()[:8])
	check := &domain.Check{
		ID:            checkID,
		SourceURL:     req.SourceURL,
		CorrelationID: correlationID,
		Status:        domain.CheckStatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.checkRepo.Create(ctx, check); err != nil {
		return nil, fmt.Errorf("create check: %w", err)
	}

	jobID := domain.JobID("job_" + uuid.New().String()[:8])
	job := domain.NewJob(jobID, checkID, s.workerCfg.MaxRetries)

	if err := s.jobRepo.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	s.logger.Info("check submitted",
		"check_id", checkID,
		"job_id", jobID,
		"correlation_id", correlationID,
		"source_url", req.SourceURL,
	)

	return &SubmitResponse{
		CheckID:       checkID,
		JobID:         jobID,
		CorrelationID: correlationID,
		Status:        domain.CheckStatusPending,
		Message:       "Check queued for processing",
	}, nil
}

// ValidateNow probes the source synchronously and persists the outcome.
// Callers that gate an asset before use block on this instead of polling
// a queued check.
func (s *CheckService) ValidateNow(ctx context.Context, req SubmitRequest) (*domain.Check, error) {
	if err := validateSourceURL(req.SourceURL); err != nil {
		return nil, err
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = probe.NewCorrelationID()
	}

	checkID := domain.CheckID("chk_" + uuid.New().String()[:8])
	check := &domain.Check{
		ID:            checkID,
		SourceURL:     req.SourceURL,
		CorrelationID: correlationID,
		Status:        domain.CheckStatusRunning,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.checkRepo.Create(ctx, check); err != nil {
		return nil, fmt.Errorf("create check: %w", err)
	}

	outcome := s.prober.Validate(ctx, req.SourceURL, correlationID)

	now := time.Now().UTC()
	check.Status = domain.CheckStatusCompleted
	check.CompletedAt = &now
	check.Outcome = &outcome

	if err := s.checkRepo.SaveOutcome(ctx, check); err != nil {
		return nil, domain.NewCheckError(checkID, "save outcome", err)
	}

	return check, nil
}

// ProcessCheck runs the probe for a queued check. Called by workers.
// A probe that completes with an error code is a successful job; an
// error return here means the check itself could not be processed and
// the job may retry.
func (s *CheckService) ProcessCheck(ctx context.Context, checkID domain.CheckID) error {
	check, err := s.checkRepo.Get(ctx, checkID)
	if err != nil {
		return fmt.Errorf("get check: %w", err)
	}

	logger := s.logger.With("check_id", checkID, "correlation_id", check.CorrelationID)

	if err := s.checkRepo.UpdateStatus(ctx, checkID, domain.CheckStatusRunning, ""); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	logger.Info("probing source", "source_url", check.SourceURL)
	outcome := s.prober.Validate(ctx, check.SourceURL, check.CorrelationID)

	now := time.Now().UTC()
	check.Status = domain.CheckStatusCompleted
	check.CompletedAt = &now
	check.Outcome = &outcome

	if err := s.checkRepo.SaveOutcome(ctx, check); err != nil {
		return domain.NewCheckError(checkID, "save outcome", err)
	}

	logger.Info("check completed",
		"valid", outcome.Valid,
		"error_code", outcome.ErrorCode,
		"duration_ms", outcome.DurationMs,
	)
	return nil
}

// MarkFailed records that a check could not be processed at all.
func (s *CheckService) MarkFailed(ctx context.Context, checkID domain.CheckID, errMsg string) error {
	return s.checkRepo.UpdateStatus(ctx, checkID, domain.CheckStatusFailed, errMsg)
}

// Get retrieves a check by ID.
func (s *CheckService) Get(ctx context.Context, checkID domain.CheckID) (*domain.Check, error) {
	return s.checkRepo.Get(ctx, checkID)
}

// List returns checks newest first, optionally filtered by status.
func (s *CheckService) List(ctx context.Context, status *domain.CheckStatus, limit, offset int) ([]*domain.Check, int, error) {
	checks, err := s.checkRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.checkRepo.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	return checks, total, nil
}

// Stats summarizes stored checks and the job queue.
type Stats struct {
	TotalChecks  int                    `json:"total_checks"`
	ValidSources int                    `json:"valid_sources"`
	Queue        *repository.QueueStats `json:"queue"`
}

// Stats returns aggregate counts for checks and the job queue.
func (s *CheckService) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.checkRepo.Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("count checks: %w", err)
	}
	valid, err := s.checkRepo.CountValid(ctx)
	if err != nil {
		return nil, fmt.Errorf("count valid: %w", err)
	}
	queue, err := s.jobRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	return &Stats{TotalChecks: total, ValidSources: valid, Queue: queue}, nil
}

// validateSourceURL requires an absolute http(s) URL with a host.
func validateSourceURL(raw string) error {
	if raw == "" {
		return domain.ErrInvalidSourceURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return domain.ErrInvalidSourceURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.ErrInvalidSourceURL
	}
	return nil
}
