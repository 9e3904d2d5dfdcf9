package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/wellybot/wgvpn-admin/internal/metrics"
	"github.com/wellybot/wgvpn-admin/internal/model"
)

func TestRecordSwallowsFailure(t *testing.T) {
	store := &fakeSnapshotStore{insertErr: errStore}
	svc := NewSnapshotService(store, nil)

	before := testutil.ToFloat64(metrics.SnapshotWriteFailures)
	svc.Record(context.Background(), 1, "key", 10, 20)
	if ok := svc.RecordCycle(context.Background(), []model.TrafficSnapshot{{AccountID: 1}, {AccountID: 2}}); ok {
		t.Fatalf("RecordCycle should report failure")
	}
	if got := testutil.ToFloat64(metrics.SnapshotWriteFailures) - before; got != 3 {
		t.Fatalf("write failures = %v, want 3", got)
	}
}

func TestRecordAppends(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	store := &fakeSnapshotStore{}
	svc := NewSnapshotService(store, nil)
	svc.now = fixedClock(now)

	svc.Record(context.Background(), 1, "key-a", 1536, 2048)
	if len(store.snapshots) != 1 {
		t.Fatalf("stored %d snapshots", len(store.snapshots))
	}
	s := store.snapshots[0]
	if s.AccountID != 1 || s.BytesReceived != 1536 || s.BytesSent != 2048 || !s.CapturedAt.Equal(now) || s.Source != model.SourceReal {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestRangePagination(t *testing.T) {
	store := &fakeSnapshotStore{}
	for i := 1; i <= 20; i++ {
		store.snapshots = append(store.snapshots, model.TrafficSnapshot{AccountID: int64(i)})
	}
	svc := NewSnapshotService(store, nil)

	page, err := svc.Range(context.Background(), model.SnapshotFilter{Limit: 10, Offset: 5})
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if page.Total != 20 || len(page.Items) != 10 || page.Items[0].AccountID != 6 || page.Items[9].AccountID != 15 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestRangeDefaults(t *testing.T) {
	store := &fakeSnapshotStore{}
	svc := NewSnapshotService(store, nil)

	if _, err := svc.Range(context.Background(), model.SnapshotFilter{Offset: -3}); err != nil {
		t.Fatalf("Range: %v", err)
	}
	if store.filter.Limit != 1000 || store.filter.Offset != 0 {
		t.Fatalf("unexpected filter: %+v", store.filter)
	}

	start := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	if _, err := svc.Range(context.Background(), model.SnapshotFilter{StartDate: &start, EndDate: &end}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDailySummaryWindowAndCache(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC)
	store := &fakeSnapshotStore{daily: []model.DailyTraffic{{Date: "2026-03-10", TotalReceived: 10, TotalSent: 5, Count: 2}}}
	cache := &memoryCache{data: map[string]any{}}
	svc := NewSnapshotService(store, cache)
	svc.now = fixedClock(now)

	list, err := svc.DailySummary(context.Background(), nil, 7)
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if len(list) != 1 || list[0].Date != "2026-03-10" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if want := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC); !store.since.Equal(want) {
		t.Fatalf("since = %v, want %v", store.since, want)
	}

	if _, err := svc.DailySummary(context.Background(), nil, 7); err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("store called %d times, want 1 (second call cached)", store.calls)
	}
}

func TestDailySummaryWindowIsUTC(t *testing.T) {
	// 2026-03-10 03:00 +09:00 == 2026-03-09 18:00 UTC
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.FixedZone("KST", 9*60*60))
	store := &fakeSnapshotStore{}
	svc := NewSnapshotService(store, nil)
	svc.now = fixedClock(now)

	if _, err := svc.DailySummary(context.Background(), nil, 7); err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if want := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC); !store.since.Equal(want) {
		t.Fatalf("since = %v, want %v", store.since, want)
	}
}

func TestHourlySummaryWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC)
	store := &fakeSnapshotStore{}
	svc := NewSnapshotService(store, nil)
	svc.now = fixedClock(now)

	accountID := int64(3)
	if _, err := svc.HourlySummary(context.Background(), &accountID, 0); err != nil {
		t.Fatalf("HourlySummary: %v", err)
	}
	if want := time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC); !store.since.Equal(want) {
		t.Fatalf("since = %v, want %v", store.since, want)
	}
}

func TestSummaryKey(t *testing.T) {
	id := int64(4)
	if got := summaryKey("daily", nil, 7); got != "summary:daily:all:7" {
		t.Fatalf("got %q", got)
	}
	if got := summaryKey("hourly", &id, 24); got != "summary:hourly:4:24" {
		t.Fatalf("got %q", got)
	}
}
