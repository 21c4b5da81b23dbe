package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/iconidentify/vidgate/internal/domain"
)

func newTestCheckRepo(t *testing.T) *SQLiteCheckRepository {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "checks.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo, err := NewSQLiteCheckRepository(db)
	if err != nil {
		t.Fatalf("NewSQLiteCheckRepository failed: %v", err)
	}
	return repo
}

func pendingCheck(id, url, correlationID string) *domain.Check {
	return &domain.Check{
		ID:            domain.CheckID(id),
		SourceURL:     url,
		CorrelationID: correlationID,
		Status:        domain.CheckStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestCheckRepository_CreateAndGet(t *testing.T) {
	repo := newTestCheckRepo(t)
	ctx := context.Background()

	check := pendingCheck("chk_1", "https://cdn.example.com/spot.mp4", "cor_1")
	if err := repo.Create(ctx, check); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.Get(ctx, "chk_1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.SourceURL != check.SourceURL {
		t.Errorf("SourceURL = %q, want %q", got.SourceURL, check.SourceURL)
	}
	if got.Status != domain.CheckStatusPending {
		t.Errorf("Status = %s, want pending", got.Status)
	}
	if got.Outcome != nil {
		t.Error("Outcome should be nil before the probe runs")
	}
}

func TestCheckRepository_Get_NotFound(t *testing.T) {
	repo := newTestCheckRepo(t)

	_, err := repo.Get(context.Background(), "chk_missing")
	if !errors.Is(err, domain.ErrCheckNotFound) {
		t.Errorf("err = %v, want ErrCheckNotFound", err)
	}
}

func TestCheckRepository_SaveOutcome_Roundtrip(t *testing.T) {
	repo := newTestCheckRepo(t)
	ctx := context.Background()

	check := pendingCheck("chk_1", "https://cdn.example.com/spot.mp4", "cor_1")
	if err := repo.Create(ctx, check); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	headStatus := 200
	rangeStatus := 206
	contentLength := int64(1048576)
	ftypOffset := 4
	completedAt := time.Now().UTC()

	check.Status = domain.CheckStatusCompleted
	check.CompletedAt = &completedAt
	check.Outcome = &domain.Outcome{
		SourceURL:         check.SourceURL,
		FinalURL:          "https://edge.example.com/spot.mp4",
		CorrelationID:     "cor_1",
		HeadStatus:        &headStatus,
		RangeStatus:       &rangeStatus,
		ContentType:       "video/mp4",
		AcceptRanges:      "bytes",
		RangeContentRange: "bytes 0-2047/1048576",
		ContentLength:     &contentLength,
		HasFtyp:           true,
		FtypOffset:        &ftypOffset,
		ResolvedAddrs:     []string{"192.0.2.10", "192.0.2.11"},
		Valid:             true,
		CheckedAt:         completedAt,
		DurationMs:        142,
	}

	if err := repo.SaveOutcome(ctx, check); err != nil {
		t.Fatalf("SaveOutcome failed: %v", err)
	}

	got, err := repo.Get(ctx, "chk_1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != domain.CheckStatusCompleted {
		t.Errorf("Status = %s, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Fatal("CompletedAt should be set")
	}
	out := got.Outcome
	if out == nil {
		t.Fatal("Outcome should be present after SaveOutcome")
	}
	if !out.Valid {
		t.Error("Valid should survive the roundtrip")
	}
	if out.FinalURL != "https://edge.example.com/spot.mp4" {
		t.Errorf("FinalURL = %q", out.FinalURL)
	}
	if out.HeadStatus == nil || *out.HeadStatus != 200 {
		t.Errorf("HeadStatus = %v, want 200", out.HeadStatus)
	}
	if out.RangeStatus == nil || *out.RangeStatus != 206 {
		t.Errorf("RangeStatus = %v, want 206", out.RangeStatus)
	}
	if out.ContentLength == nil || *out.ContentLength != 1048576 {
		t.Errorf("ContentLength = %v, want 1048576", out.ContentLength)
	}
	if !out.HasFtyp || out.FtypOffset == nil || *out.FtypOffset != 4 {
		t.Errorf("ftyp = (%v, %v), want (true, 4)", out.HasFtyp, out.FtypOffset)
	}
	if len(out.ResolvedAddrs) != 2 || out.ResolvedAddrs[0] != "192.0.2.10" {
		t.Errorf("ResolvedAddrs = %v", out.ResolvedAddrs)
	}
	if out.DurationMs != 142 {
		t.Errorf("DurationMs = %d, want 142", out.DurationMs)
	}
}

func TestCheckRepository_SaveOutcome_ErroredProbe(t *testing.T) {
	repo := newTestCheckRepo(t)
	ctx := context.Background()

	check := pendingCheck("chk_1", "https://cdn.example.com/page", "cor_1")
	if err := repo.Create(ctx, check); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	headStatus := 200
	completedAt := time.Now().UTC()
	check.Status = domain.CheckStatusCompleted
	check.CompletedAt = &completedAt
	check.Outcome = &domain.Outcome{
		SourceURL:     check.SourceURL,
		FinalURL:      check.SourceURL,
		CorrelationID: "cor_1",
		HeadStatus:    &headStatus,
		ContentType:   "text/html; charset=utf-8",
		ErrorCode:     domain.ErrCodeInvalidSourceHTML,
		ErrorMessage:  `source served HTML content-type "text/html; charset=utf-8"`,
		CheckedAt:     completedAt,
		DurationMs:    38,
	}

	if err := repo.SaveOutcome(ctx, check); err != nil {
		t.Fatalf("SaveOutcome failed: %v", err)
	}

	got, err := repo.Get(ctx, "chk_1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	out := got.Outcome
	if out == nil {
		t.Fatal("Outcome should be present")
	}
	if out.Valid {
		t.Error("Valid should be false for an errored probe")
	}
	if out.ErrorCode != domain.ErrCodeInvalidSourceHTML {
		t.Errorf("ErrorCode = %s, want %s", out.ErrorCode, domain.ErrCodeInvalidSourceHTML)
	}
	if out.RangeStatus != nil {
		t.Error("RangeStatus should stay absent when the range probe never ran")
	}
	if out.FtypOffset != nil {
		t.Error("FtypOffset should stay absent without a signature match")
	}
}

func TestCheckRepository_SaveOutcome_MissingCheck(t *testing.T) {
	repo := newTestCheckRepo(t)

	check := pendingCheck("chk_missing", "https://cdn.example.com/spot.mp4", "cor_1")
	check.Outcome = &domain.Outcome{CheckedAt: time.Now()}

	err := repo.SaveOutcome(context.Background(), check)
	if !errors.Is(err, domain.ErrCheckNotFound) {
		t.Errorf("err = %v, want ErrCheckNotFound", err)
	}
}

func TestCheckRepository_GetByCorrelationID(t *testing.T) {
	repo := newTestCheckRepo(t)
	ctx := context.Background()

	first := pendingCheck("chk_1", "https://cdn.example.com/a.mp4", "cor_shared")
	first.CreatedAt = time.Now().UTC().Add(-time.Minute)
	second := pendingCheck("chk_2", "https://cdn.example.com/b.mp4", "cor_shared")

	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByCorrelationID(ctx, "cor_shared")
	if err != nil {
		t.Fatalf("GetByCorrelationID failed: %v", err)
	}
	if got.ID != "chk_2" {
		t.Errorf("ID = %s, want the most recent check chk_2", got.ID)
	}

	_, err = repo.GetByCorrelationID(ctx, "cor_unknown")
	if !errors.Is(err, domain.ErrCheckNotFound) {
		t.Errorf("err = %v, want ErrCheckNotFound", err)
	}
}

func TestCheckRepository_ListAndCount(t *testing.T) {
	repo := newTestCheckRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		check := pendingCheck(
			"chk_"+string(rune('a'+i)),
			"https://cdn.example.com/v.mp4",
			"cor_"+string(rune('a'+i)),
		)
		check.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, check); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if err := repo.UpdateStatus(ctx, "chk_a", domain.CheckStatusCompleted, ""); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	all, err := repo.List(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len(all) = %d, want 5", len(all))
	}
	// Newest first
	if all[0].ID != "chk_e" {
		t.Errorf("first = %s, want chk_e", all[0].ID)
	}

	pending := domain.CheckStatusPending
	filtered, err := repo.List(ctx, &pending, 10, 0)
	if err != nil {
		t.Fatalf("List filtered failed: %v", err)
	}
	if len(filtered) != 4 {
		t.Errorf("len(filtered) = %d, want 4", len(filtered))
	}

	page, err := repo.List(ctx, nil, 2, 2)
	if err != nil {
		t.Fatalf("List paged failed: %v", err)
	}
	if len(page) != 2 || page[0].ID != "chk_c" {
		t.Errorf("page = %v, want chk_c first", page)
	}

	total, err := repo.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}

	completed := domain.CheckStatusCompleted
	n, err := repo.Count(ctx, &completed)
	if err != nil {
		t.Fatalf("Count filtered failed: %v", err)
	}
	if n != 1 {
		t.Errorf("completed count = %d, want 1", n)
	}
}

func TestCheckRepository_Delete(t *testing.T) {
	repo := newTestCheckRepo(t)
	ctx := context.Background()

	check := pendingCheck("chk_1", "https://cdn.example.com/spot.mp4", "cor_1")
	if err := repo.Create(ctx, check); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Delete(ctx, "chk_1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, "chk_1"); !errors.Is(err, domain.ErrCheckNotFound) {
		t.Errorf("Get after delete = %v, want ErrCheckNotFound", err)
	}

	if err := repo.Delete(ctx, "chk_1"); !errors.Is(err, domain.ErrCheckNotFound) {
		t.Errorf("second Delete = %v, want ErrCheckNotFound", err)
	}
}
