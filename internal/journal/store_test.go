package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	runID := uuid.NewString()

	if _, ok, err := store.LastRun(ctx, "fr"); err != nil || ok {
		t.Fatalf("LastRun on empty db = %v, %v", ok, err)
	}
	if err := store.StartRun(ctx, Run{ID: runID, Lang: "fr"}); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.FinishRun(ctx, Run{ID: runID, Videos: 2, Succeeded: 1, Samples: 5}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	run, ok, err := store.LastRun(ctx, "fr")
	if err != nil || !ok {
		t.Fatalf("LastRun: %v %v", ok, err)
	}
	if run.ID != runID || run.Videos != 2 || run.Samples != 5 || run.FinishedAt.IsZero() {
		t.Fatalf("unexpected run %+v", run)
	}

	if err := store.FinishRun(ctx, Run{ID: "missing"}); err == nil {
		t.Fatal("expected error for unknown run")
	}
	if err := store.StartRun(ctx, Run{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestAttemptsFilterAndCounts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	runID := uuid.NewString()
	if err := store.StartRun(ctx, Run{ID: runID, Lang: "fr"}); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	attempts := []Attempt{
		{RunID: runID, Lang: "fr", Creator: "a", VideoID: "v1", State: StateOK, Samples: 3, Seconds: 36, FinishedAt: now},
		{RunID: runID, Lang: "fr", Creator: "a", VideoID: "v2", State: StateNoSubtitles, FinishedAt: now},
		{RunID: runID, Lang: "fr", Creator: "b", VideoID: "v3", State: StateAgeRestricted, Error: "age_limit=18", FinishedAt: now},
	}
	for _, a := range attempts {
		if _, err := store.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
	}

	failed, err := store.Attempts(ctx, Filter{Lang: "fr", FailedOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 2 || failed[0].VideoID != "v3" || failed[0].Error != "age_limit=18" {
		t.Fatalf("unexpected failed attempts %+v", failed)
	}
	if !failed[0].Failed() {
		t.Fatal("Failed() should be true for age restricted")
	}

	byCreator, err := store.Attempts(ctx, Filter{Creator: "a", Limit: 1})
	if err != nil || len(byCreator) != 1 || byCreator[0].VideoID != "v2" {
		t.Fatalf("creator filter = %+v, %v", byCreator, err)
	}

	counts, err := store.StateCounts(ctx, "fr")
	if err != nil {
		t.Fatal(err)
	}
	if counts[StateOK] != 1 || counts[StateNoSubtitles] != 1 || counts[StateAgeRestricted] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestHarvestedAndSkipStateIsNotAFailure(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	runID := uuid.NewString()
	if err := store.StartRun(ctx, Run{ID: runID, Lang: "fr"}); err != nil {
		t.Fatal(err)
	}
	attempts := []Attempt{
		{RunID: runID, Lang: "fr", Creator: "a", VideoID: "v1", State: StateOK, Samples: 1},
		{RunID: runID, Lang: "fr", Creator: "a", VideoID: "v2", State: StateRetrievalFailed, Error: "403"},
		{RunID: runID, Lang: "fr", Creator: "a", VideoID: "v1", State: StateHarvested},
	}
	for _, a := range attempts {
		if _, err := store.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
	}

	tests := []struct {
		creator, video string
		want           bool
	}{
		{"a", "v1", true},
		{"a", "v2", false},
		{"b", "v1", false},
		{"a", "unknown", false},
	}
	for _, tc := range tests {
		got, err := store.Harvested(ctx, "fr", tc.creator, tc.video)
		if err != nil {
			t.Fatalf("Harvested(%s/%s): %v", tc.creator, tc.video, err)
		}
		if got != tc.want {
			t.Fatalf("Harvested(%s/%s) = %v, want %v", tc.creator, tc.video, got, tc.want)
		}
	}

	failed, err := store.Attempts(ctx, Filter{Lang: "fr", FailedOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 || failed[0].VideoID != "v2" {
		t.Fatalf("failed attempts = %+v", failed)
	}
	if (Attempt{State: StateHarvested}).Failed() {
		t.Fatal("already harvested should not count as a failure")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestRecordAttemptRequiresRun(t *testing.T) {
	store := openTestStore(t)
	_, err := store.RecordAttempt(context.Background(), Attempt{RunID: "nope", Lang: "fr", Creator: "a", VideoID: "v", State: StateOK})
	if err == nil {
		t.Fatal("expected foreign key failure for unknown run")
	}
}
