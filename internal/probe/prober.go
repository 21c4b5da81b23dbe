// Package probe verifies that a remote URL actually serves a playable
// MP4 file, without downloading it. A probe is two bounded network round
// trips: a HEAD request to read status and headers, then a range GET for
// the first bytes of the body, which are sniffed for the ISO-BMFF ftyp
// marker. Every failure mode maps to a distinct error code on the
// outcome; the prober itself never returns an error.
package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/iconidentify/vidgate/internal/config"
	"github.com/iconidentify/vidgate/internal/domain"
)

// Prober validates remote video sources.
type Prober interface {
	// Validate probes sourceURL and returns the outcome. It never
	// returns an error: network faults, timeouts and malformed
	// responses are captured on the outcome's error code.
	Validate(ctx context.Context, sourceURL, correlationID string) domain.Outcome
}

// HTTPProber implements Prober over HTTP HEAD and range GET requests.
// It holds no mutable state between invocations; concurrent Validate
// calls are independent.
type HTTPProber struct {
	client   *http.Client
	cfg      config.ProbeConfig
	limiter  *rate.Limiter
	resolver *Resolver
	logger   *slog.Logger
}

// NewHTTPProber creates a prober from probe configuration.
func NewHTTPProber(cfg config.ProbeConfig) *HTTPProber {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	p := &HTTPProber{
		// Redirects are followed by the default client policy; the
		// final URL is recorded from the response.
		client:  &http.Client{},
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  slog.Default(),
	}

	if cfg.DNSPreflight {
		p.resolver = NewResolver(cfg.DNSResolvers, cfg.DNSTimeout)
	}

	return p
}

// SetLogger sets the logger for probe diagnostics.
func (p *HTTPProber) SetLogger(logger *slog.Logger) {
	p.logger = logger
}

// NewCorrelationID generates a short token for correlating the log lines
// of one probe. Uniqueness only needs to be good enough for log reading.
func NewCorrelationID() string {
	return "cor_" + uuid.New().String()[:8]
}

// Validate runs the full probe sequence against sourceURL.
func (p *HTTPProber) Validate(ctx context.Context, sourceURL, correlationID string) domain.Outcome {
	if correlationID == "" {
		correlationID = NewCorrelationID()
	}

	start := time.Now()
	out := domain.Outcome{
		SourceURL:     sourceURL,
		FinalURL:      sourceURL,
		CorrelationID: correlationID,
		CheckedAt:     start.UTC(),
	}

	logger := p.logger.With("correlation_id", correlationID, "source_url", sourceURL)

	p.run(ctx, logger, &out)

	out.DurationMs = time.Since(start).Milliseconds()
	if out.ErrorCode == "" {
		out.Valid = true
		logger.Info("source valid",
			"final_url", out.FinalURL,
			"ftyp_offset", *out.FtypOffset,
			"duration_ms", out.DurationMs,
		)
	} else {
		logger.Info("source rejected",
			"error_code", out.ErrorCode,
			"error_message", out.ErrorMessage,
			"duration_ms", out.DurationMs,
		)
	}

	return out
}

// run fills the outcome in probe order, stopping at the first failure.
func (p *HTTPProber) run(ctx context.Context, logger *slog.Logger, out *domain.Outcome) {
	if p.resolver != nil {
		if !p.preflight(ctx, logger, out) {
			return
		}
	}

	// HEAD probe
	logger.Debug("head probe", "timeout", p.cfg.HeadTimeout)
	headResp, err := p.doRequest(ctx, http.MethodHead, out.SourceURL, p.cfg.HeadTimeout, "")
	if err != nil {
		fail(out, domain.ErrCodeSourceCheckError, fmt.Sprintf("head request: %v", err))
		return
	}
	headResp.Body.Close()

	headStatus := headResp.StatusCode
	out.HeadStatus = &headStatus
	out.FinalURL = headResp.Request.URL.String()
	out.ContentType = headResp.Header.Get("Content-Type")
	out.AcceptRanges = headResp.Header.Get("Accept-Ranges")
	if cl := headResp.ContentLength; cl >= 0 {
		out.ContentLength = &cl
	}

	logger.Debug("head result",
		"status", headStatus,
		"content_type", out.ContentType,
		"accept_ranges", out.AcceptRanges,
		"final_url", out.FinalURL,
	)

	if headStatus >= 400 {
		fail(out, domain.ErrCodeHeadFailed, fmt.Sprintf("head request returned status %d", headStatus))
		return
	}
	if isHTML(out.ContentType) {
		fail(out, domain.ErrCodeInvalidSourceHTML, fmt.Sprintf("source served HTML content-type %q", out.ContentType))
		return
	}

	// Range probe against the original URL, not a continuation of the HEAD.
	rangeHeader := fmt.Sprintf("bytes=0-%d", p.cfg.RangeBytes-1)
	logger.Debug("range probe", "range", rangeHeader, "timeout", p.cfg.RangeTimeout)
	rangeResp, err := p.doRequest(ctx, http.MethodGet, out.SourceURL, p.cfg.RangeTimeout, rangeHeader)
	if err != nil {
		fail(out, domain.ErrCodeSourceCheckError, fmt.Sprintf("range request: %v", err))
		return
	}

	rangeStatus := rangeResp.StatusCode
	out.RangeStatus = &rangeStatus
	out.RangeContentRange = rangeResp.Header.Get("Content-Range")
	rangeContentType := rangeResp.Header.Get("Content-Type")

	logger.Debug("range result",
		"status", rangeStatus,
		"content_type", rangeContentType,
		"content_range", out.RangeContentRange,
	)

	// 200 means the server ignored the range but still returned content;
	// the bounded read below keeps that case from downloading the file.
	if rangeStatus != http.StatusOK && rangeStatus != http.StatusPartialContent {
		rangeResp.Body.Close()
		fail(out, domain.ErrCodeRangeFailed, fmt.Sprintf("range request returned status %d", rangeStatus))
		return
	}

	// A server that returns HTML only on GET, not HEAD, must still be caught.
	if isHTML(rangeContentType) {
		rangeResp.Body.Close()
		fail(out, domain.ErrCodeInvalidSourceHTML, fmt.Sprintf("range response served HTML content-type %q", rangeContentType))
		return
	}

	head, err := readAtMost(rangeResp.Body, p.cfg.SniffBudget)
	if err != nil {
		fail(out, domain.ErrCodeSourceCheckError, fmt.Sprintf("read range body: %v", err))
		return
	}

	offset, found := FindFtyp(head)
	logger.Debug("signature result", "has_ftyp", found, "offset", offset, "bytes_read", len(head))
	if !found {
		fail(out, domain.ErrCodeNotMP4, "no ftyp marker in leading bytes")
		return
	}
	out.HasFtyp = true
	out.FtypOffset = &offset

	// A confirmed signature match outranks a misconfigured content-type
	// header, so an off content-type only warns.
	effectiveType := out.ContentType
	if effectiveType == "" {
		effectiveType = rangeContentType
	}
	if effectiveType != "" && !isVideoType(effectiveType) {
		logger.Warn("content-type does not look like video",
			"content_type", effectiveType,
		)
	}
}

// preflight resolves the source host before any HTTP request is made.
func (p *HTTPProber) preflight(ctx context.Context, logger *slog.Logger, out *domain.Outcome) bool {
	u, err := url.Parse(out.SourceURL)
	if err != nil {
		fail(out, domain.ErrCodeSourceCheckError, fmt.Sprintf("parse url: %v", err))
		return false
	}

	dctx, cancel := context.WithTimeout(ctx, p.cfg.DNSTimeout)
	defer cancel()

	addrs, err := p.resolver.Lookup(dctx, u.Hostname())
	if err != nil {
		fail(out, domain.ErrCodeSourceCheckError, fmt.Sprintf("resolve %s: %v", u.Hostname(), err))
		return false
	}

	out.ResolvedAddrs = addrs
	logger.Debug("dns preflight", "host", u.Hostname(), "addrs", addrs)
	return true
}

// doRequest issues one rate-limited request bounded by its own timeout.
func (p *HTTPProber) doRequest(ctx context.Context, method, rawURL string, timeout time.Duration, rangeHeader string) (*http.Response, error) {
	rctx, cancel := context.WithTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(rctx, method, rawURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", p.cfg.UserAgent)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	if err := p.limiter.Wait(rctx); err != nil {
		cancel()
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	// The timeout covers the body read too; cancel when the body closes.
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelBody releases the per-request context when the body closes.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func fail(out *domain.Outcome, code domain.ErrorCode, msg string) {
	out.ErrorCode = code
	out.ErrorMessage = msg
}

// isHTML matches the content-type against text/html with explicit
// lowercase normalization.
func isHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}

// isVideoType accepts video/* and octet-stream content types.
func isVideoType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "video/") || strings.Contains(ct, "octet-stream")
}
