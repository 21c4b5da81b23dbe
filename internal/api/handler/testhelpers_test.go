package handler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/iconidentify/vidgate/internal/config"
	"github.com/iconidentify/vidgate/internal/domain"
	"github.com/iconidentify/vidgate/internal/repository"
	"github.com/iconidentify/vidgate/internal/service"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockJobRepository is a test implementation of repository.JobRepository.
type mockJobRepository struct {
	mu         sync.Mutex
	stats      *repository.QueueStats
	statsErr   error
	jobs       map[domain.JobID]*domain.Job
	enqueueErr error
	dequeueErr error
}

func newMockJobRepository() *mockJobRepository {
	return &mockJobRepository{
		stats: &repository.QueueStats{},
		jobs:  make(map[domain.JobID]*domain.Job),
	}
}

func (m *mockJobRepository) Enqueue(ctx context.Context, job *domain.Job) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *mockJobRepository) Dequeue(ctx context.Context) (*domain.Job, error) {
	if m.dequeueErr != nil {
		return nil, m.dequeueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.Status == domain.JobStatusQueued {
			return job, nil
		}
	}
	return nil, domain.ErrNoJobs
}

func (m *mockJobRepository) Get(ctx context.Context, id domain.JobID) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		return job, nil
	}
	return nil, domain.ErrJobNotFound
}

func (m *mockJobRepository) Update(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *mockJobRepository) Stats(ctx context.Context) (*repository.QueueStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return m.stats, nil
}

func (m *mockJobRepository) GetByCheckID(ctx context.Context, checkID domain.CheckID) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.CheckID == checkID {
			return job, nil
		}
	}
	return nil, domain.ErrJobNotFound
}

// mockCheckRepository is a test implementation of repository.CheckRepository.
type mockCheckRepository struct {
	mu        sync.Mutex
	checks    map[domain.CheckID]*domain.Check
	order     []domain.CheckID
	createErr error
	getErr    error
	listErr   error
}

func newMockCheckRepository() *mockCheckRepository {
	return &mockCheckRepository{checks: make(map[domain.CheckID]*domain.Check)}
}

func (m *mockCheckRepository) Create(_ context.Context, check *domain.Check) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *check
	m.checks[check.ID] = &cp
	m.order = append(m.order, check.ID)
	return nil
}

func (m *mockCheckRepository) SaveOutcome(_ context.Context, check *domain.Check) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.checks[check.ID]; !ok {
		return domain.ErrCheckNotFound
	}
	cp := *check
	m.checks[check.ID] = &cp
	return nil
}

func (m *mockCheckRepository) UpdateStatus(_ context.Context, id domain.CheckID, status domain.CheckStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	check, ok := m.checks[id]
	if !ok {
		return domain.ErrCheckNotFound
	}
	check.Status = status
	check.Error = errMsg
	return nil
}

func (m *mockCheckRepository) Get(_ context.Context, id domain.CheckID) (*domain.Check, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	check, ok := m.checks[id]
	if !ok {
		return nil, domain.ErrCheckNotFound
	}
	cp := *check
	return &cp, nil
}

func (m *mockCheckRepository) GetByCorrelationID(_ context.Context, correlationID string) (*domain.Check, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		if check := m.checks[m.order[i]]; check != nil && check.CorrelationID == correlationID {
			cp := *check
			return &cp, nil
		}
	}
	return nil, domain.ErrCheckNotFound
}

func (m *mockCheckRepository) List(_ context.Context, status *domain.CheckStatus, limit, offset int) ([]*domain.Check, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Check
	for i := len(m.order) - 1; i >= 0; i-- {
		check := m.checks[m.order[i]]
		if status != nil && check.Status != *status {
			continue
		}
		cp := *check
		out = append(out, &cp)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockCheckRepository) Count(_ context.Context, status *domain.CheckStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, check := range m.checks {
		if status == nil || check.Status == *status {
			n++
		}
	}
	return n, nil
}

func (m *mockCheckRepository) CountValid(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, check := range m.checks {
		if check.Outcome != nil && check.Outcome.Valid {
			n++
		}
	}
	return n, nil
}

func (m *mockCheckRepository) Delete(_ context.Context, id domain.CheckID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.checks[id]; !ok {
		return domain.ErrCheckNotFound
	}
	delete(m.checks, id)
	return nil
}

// stubProber returns a fixed outcome for every probe.
type stubProber struct {
	outcome domain.Outcome
}

func (s *stubProber) Validate(_ context.Context, sourceURL, correlationID string) domain.Outcome {
	out := s.outcome
	out.SourceURL = sourceURL
	if out.FinalURL == "" {
		out.FinalURL = sourceURL
	}
	out.CorrelationID = correlationID
	out.CheckedAt = time.Now().UTC()
	return out
}

func validProbeOutcome() domain.Outcome {
	head := 200
	rng := 206
	offset := 4
	length := int64(1 << 20)
	return domain.Outcome{
		HeadStatus:    &head,
		RangeStatus:   &rng,
		ContentType:   "video/mp4",
		AcceptRanges:  "bytes",
		ContentLength: &length,
		HasFtyp:       true,
		FtypOffset:    &offset,
		Valid:         true,
		DurationMs:    12,
	}
}

// newTestCheckService wires a CheckService from the mocks above.
func newTestCheckService(checkRepo *mockCheckRepository, jobRepo *mockJobRepository, prober *stubProber) *service.CheckService {
	return service.NewCheckService(checkRepo, jobRepo, prober, config.WorkerConfig{MaxRetries: 3}, testLogger())
}
