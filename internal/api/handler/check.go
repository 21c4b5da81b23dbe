package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/vidgate/internal/domain"
	"github.com/iconidentify/vidgate/internal/service"
)

// CheckHandler handles source check HTTP requests.
type CheckHandler struct {
	checkSvc *service.CheckService
	logger   *slog.Logger
}

// NewCheckHandler creates a new check handler.
func NewCheckHandler(checkSvc *service.CheckService, logger *slog.Logger) *CheckHandler {
	return &CheckHandler{
		checkSvc: checkSvc,
		logger:   logger,
	}
}

// SubmitRequest is the JSON request body for check submission.
type SubmitRequest struct {
	SourceURL     string `json:"source_url"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// SubmitResponse is the JSON response after submission.
type SubmitResponse struct {
	CheckID       string `json:"check_id"`
	JobID         string `json:"job_id,omitempty"`
	CorrelationID string `json:"correlation_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// OutcomeResponse mirrors a probe outcome.
type OutcomeResponse struct {
	SourceURL         string    `json:"source_url"`
	FinalURL          string    `json:"final_url"`
	CorrelationID     string    `json:"correlation_id"`
	HeadStatus        *int      `json:"head_status,omitempty"`
	RangeStatus       *int      `json:"range_status,omitempty"`
	ContentType       string    `json:"content_type,omitempty"`
	AcceptRanges      string    `json:"accept_ranges,omitempty"`
	RangeContentRange string    `json:"range_content_range,omitempty"`
	ContentLength     *int64    `json:"content_length,omitempty"`
	HasFtyp           bool      `json:"has_ftyp"`
	FtypOffset        *int      `json:"ftyp_offset,omitempty"`
	ResolvedAddrs     []string  `json:"resolved_addrs,omitempty"`
	Valid             bool      `json:"valid"`
	ErrorCode         string    `json:"error_code,omitempty"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	CheckedAt         time.Time `json:"checked_at"`
	DurationMs        int64     `json:"duration_ms"`
}

// CheckResponse represents a check in list/get responses.
type CheckResponse struct {
	CheckID       string           `json:"check_id"`
	SourceURL     string           `json:"source_url"`
	CorrelationID string           `json:"correlation_id"`
	Status        string           `json:"status"`
	Outcome       *OutcomeResponse `json:"outcome,omitempty"`
	Error         string           `json:"error,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}

// ListResponse contains a paginated check list.
type ListResponse struct {
	Checks []CheckResponse `json:"checks"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// Submit handles POST /api/v1/checks
func (h *CheckHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.checkSvc.Submit(r.Context(), service.SubmitRequest{
		SourceURL:     req.SourceURL,
		CorrelationID: req.CorrelationID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSourceURL) {
			h.writeError(w, http.StatusBadRequest, "invalid source URL")
			return
		}
		h.logger.Error("submit failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to submit check")
		return
	}

	h.writeJSON(w, http.StatusAccepted, SubmitResponse{
		CheckID:       string(result.CheckID),
		JobID:         string(result.JobID),
		CorrelationID: result.CorrelationID,
		Status:        string(result.Status),
		Message:       result.Message,
	})
}

// ValidateNow handles POST /api/v1/checks/validate - synchronous probe.
func (h *CheckHandler) ValidateNow(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	check, err := h.checkSvc.ValidateNow(r.Context(), service.SubmitRequest{
		SourceURL:     req.SourceURL,
		CorrelationID: req.CorrelationID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSourceURL) {
			h.writeError(w, http.StatusBadRequest, "invalid source URL")
			return
		}
		h.logger.Error("validate failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to validate source")
		return
	}

	h.writeJSON(w, http.StatusOK, toCheckResponse(check))
}

// List handles GET /api/v1/checks
func (h *CheckHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	var status *domain.CheckStatus

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.CheckStatus(s)
		status = &st
	}

	checks, total, err := h.checkSvc.List(r.Context(), status, limit, offset)
	if err != nil {
		h.logger.Error("list failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list checks")
		return
	}

	response := ListResponse{
		Checks: make([]CheckResponse, 0, len(checks)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for _, c := range checks {
		response.Checks = append(response.Checks, toCheckResponse(c))
	}

	h.writeJSON(w, http.StatusOK, response)
}

// Get handles GET /api/v1/checks/{checkID}
func (h *CheckHandler) Get(w http.ResponseWriter, r *http.Request) {
	checkID := chi.URLParam(r, "checkID")
	if checkID == "" {
		h.writeError(w, http.StatusBadRequest, "missing check ID")
		return
	}

	check, err := h.checkSvc.Get(r.Context(), domain.CheckID(checkID))
	if err != nil {
		if errors.Is(err, domain.ErrCheckNotFound) {
			h.writeError(w, http.StatusNotFound, "check not found")
			return
		}
		h.logger.Error("get failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get check")
		return
	}

	h.writeJSON(w, http.StatusOK, toCheckResponse(check))
}

// Stats handles GET /api/v1/stats
func (h *CheckHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.checkSvc.Stats(r.Context())
	if err != nil {
		h.logger.Error("stats failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func toCheckResponse(c *domain.Check) CheckResponse {
	resp := CheckResponse{
		CheckID:       string(c.ID),
		SourceURL:     c.SourceURL,
		CorrelationID: c.CorrelationID,
		Status:        string(c.Status),
		Error:         c.Error,
		CreatedAt:     c.CreatedAt,
		CompletedAt:   c.CompletedAt,
	}
	if c.Outcome != nil {
		resp.Outcome = &OutcomeResponse{
			SourceURL:         c.Outcome.SourceURL,
			FinalURL:          c.Outcome.FinalURL,
			CorrelationID:     c.Outcome.CorrelationID,
			HeadStatus:        c.Outcome.HeadStatus,
			RangeStatus:       c.Outcome.RangeStatus,
			ContentType:       c.Outcome.ContentType,
			AcceptRanges:      c.Outcome.AcceptRanges,
			RangeContentRange: c.Outcome.RangeContentRange,
			ContentLength:     c.Outcome.ContentLength,
			HasFtyp:           c.Outcome.HasFtyp,
			FtypOffset:        c.Outcome.FtypOffset,
			ResolvedAddrs:     c.Outcome.ResolvedAddrs,
			Valid:             c.Outcome.Valid,
			ErrorCode:         string(c.Outcome.ErrorCode),
			ErrorMessage:      c.Outcome.ErrorMessage,
			CheckedAt:         c.Outcome.CheckedAt,
			DurationMs:        c.Outcome.DurationMs,
		}
	}
	return resp
}

func (h *CheckHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *CheckHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
