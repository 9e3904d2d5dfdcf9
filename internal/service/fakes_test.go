package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wellybot/wgvpn-admin/internal/model"
	"github.com/wellybot/wgvpn-admin/internal/wgstatus"
)

var errStore = errors.New("store unavailable")

type fakeAccounts struct {
	list []model.Account
	err  error
}

func (f *fakeAccounts) ListActiveAccounts(context.Context) ([]model.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func (f *fakeAccounts) GetAccount(_ context.Context, id int64) (*model.Account, error) {
	for _, a := range f.list {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeAlertStore struct {
	mu     sync.Mutex
	alerts map[string]*model.Alert
	err    error
	filter model.AlertFilter
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{alerts: map[string]*model.Alert{}}
}

func (f *fakeAlertStore) InsertAlert(_ context.Context, a model.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.alerts[a.ID] = &a
	return nil
}

func (f *fakeAlertStore) GetAlert(_ context.Context, id string) (*model.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAlertStore) ListAlerts(_ context.Context, filter model.AlertFilter) ([]model.Alert, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	if f.err != nil {
		return nil, 0, f.err
	}

	var matched []model.Alert
	for _, a := range f.alerts {
		if filter.Resolved != nil && a.IsResolved != *filter.Resolved {
			continue
		}
		if filter.Severity != nil && a.Severity != *filter.Severity {
			continue
		}
		if filter.AccountID != nil && (a.AccountID == nil || *a.AccountID != *filter.AccountID) {
			continue
		}
		matched = append(matched, *a)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := min(filter.Offset, len(matched))
	end := min(start+filter.Limit, len(matched))
	return matched[start:end], total, nil
}

func (f *fakeAlertStore) ResolveAlert(_ context.Context, id string, resolvedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	a, ok := f.alerts[id]
	if !ok || a.IsResolved {
		return false, nil
	}
	if resolvedAt.Before(a.CreatedAt) {
		resolvedAt = a.CreatedAt
	}
	a.IsResolved = true
	a.ResolvedAt = &resolvedAt
	return true, nil
}

func (f *fakeAlertStore) CountOpenAlerts(context.Context) (model.AlertSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s model.AlertSummary
	for _, a := range f.alerts {
		if a.IsResolved {
			continue
		}
		s.Open++
		switch a.Severity {
		case model.SeverityInfo:
			s.Info++
		case model.SeverityWarning:
			s.Warning++
		case model.SeverityCritical:
			s.Critical++
		}
	}
	return s, nil
}

type fakeSnapshotStore struct {
	mu        sync.Mutex
	snapshots []model.TrafficSnapshot
	insertErr error
	sinceErr  error
	filter    model.SnapshotFilter
	since     time.Time
	daily     []model.DailyTraffic
	hourly    []model.HourlyTraffic
	calls     int
}

func (f *fakeSnapshotStore) InsertSnapshot(_ context.Context, s model.TrafficSnapshot) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	s.ID = int64(len(f.snapshots) + 1)
	f.snapshots = append(f.snapshots, s)
	return s.ID, nil
}

func (f *fakeSnapshotStore) InsertSnapshots(_ context.Context, list []model.TrafficSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, s := range list {
		s.ID = int64(len(f.snapshots) + 1)
		f.snapshots = append(f.snapshots, s)
	}
	return nil
}

func (f *fakeSnapshotStore) RecentSnapshots(_ context.Context, limit int) ([]model.TrafficSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.TrafficSnapshot, 0, limit)
	for i := len(f.snapshots) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.snapshots[i])
	}
	return out, nil
}

func (f *fakeSnapshotStore) ListSnapshots(_ context.Context, filter model.SnapshotFilter) ([]model.TrafficSnapshot, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	total := len(f.snapshots)
	start := min(filter.Offset, total)
	end := min(start+filter.Limit, total)
	return append([]model.TrafficSnapshot(nil), f.snapshots[start:end]...), int64(total), nil
}

func (f *fakeSnapshotStore) SnapshotsSince(_ context.Context, since time.Time) ([]model.TrafficSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = since
	if f.sinceErr != nil {
		return nil, f.sinceErr
	}
	var out []model.TrafficSnapshot
	for _, s := range f.snapshots {
		if !s.CapturedAt.Before(since) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AccountID != out[j].AccountID {
			return out[i].AccountID < out[j].AccountID
		}
		return out[i].CapturedAt.Before(out[j].CapturedAt)
	})
	return out, nil
}

func (f *fakeSnapshotStore) DailyTraffic(_ context.Context, _ *int64, since time.Time) ([]model.DailyTraffic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.since = since
	return f.daily, nil
}

func (f *fakeSnapshotStore) HourlyTraffic(_ context.Context, _ *int64, since time.Time) ([]model.HourlyTraffic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.since = since
	return f.hourly, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (f *fakePublisher) Publish(event model.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return true
}

func (f *fakePublisher) byCategory(c model.EventCategory) []model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Event
	for _, e := range f.events {
		if e.Category() == c {
			out = append(out, e)
		}
	}
	return out
}

type fakeReader struct {
	peers []wgstatus.Peer
	err   error
}

func (f *fakeReader) Read(context.Context) ([]wgstatus.Peer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.peers, nil
}

type memoryCache struct {
	data map[string]any
}

func (m *memoryCache) Get(_ context.Context, key string, dest any) bool {
	v, ok := m.data[key]
	if !ok {
		return false
	}
	switch d := dest.(type) {
	case *[]model.DailyTraffic:
		*d = v.([]model.DailyTraffic)
	case *[]model.HourlyTraffic:
		*d = v.([]model.HourlyTraffic)
	default:
		return false
	}
	return true
}

func (m *memoryCache) Set(_ context.Context, key string, value any) {
	m.data[key] = value
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
