// 트래픽 스냅샷 저장/조회 비즈니스 로직 정의
//
// 쓰기 실패는 수집 파이프라인을 멈추지 않는다 (로그 + metric 후 무시)
// 집계 결과는 summaryCache가 있으면 TTL 동안 캐시

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wellybot/wgvpn-admin/internal/metrics"
	"github.com/wellybot/wgvpn-admin/internal/model"
)

const (
	defaultRecentLimit  = 100
	defaultRangeLimit   = 1000
	maxSnapshotLimit    = 10000
	defaultSummaryDays  = 7
	defaultSummaryHours = 24
)

// snapshotStore - traffic_snapshots 테이블 DB 인터페이스
type snapshotStore interface {
	InsertSnapshot(ctx context.Context, s model.TrafficSnapshot) (int64, error)
	InsertSnapshots(ctx context.Context, snapshots []model.TrafficSnapshot) error
	RecentSnapshots(ctx context.Context, limit int) ([]model.TrafficSnapshot, error)
	ListSnapshots(ctx context.Context, filter model.SnapshotFilter) ([]model.TrafficSnapshot, int64, error)
	SnapshotsSince(ctx context.Context, since time.Time) ([]model.TrafficSnapshot, error)
	DailyTraffic(ctx context.Context, accountID *int64, since time.Time) ([]model.DailyTraffic, error)
	HourlyTraffic(ctx context.Context, accountID *int64, since time.Time) ([]model.HourlyTraffic, error)
}

// summaryCache - 집계 결과 캐시 (cache.RedisCache)
type summaryCache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any)
}

type SnapshotService struct {
	store snapshotStore
	cache summaryCache
	now   func() time.Time
}

// NewSnapshotService - cache는 nil 가능
func NewSnapshotService(store snapshotStore, cache summaryCache) *SnapshotService {
	return &SnapshotService{store: store, cache: cache, now: time.Now}
}

// Record - 스냅샷 1건 저장. 실패해도 에러를 반환하지 않는다
func (s *SnapshotService) Record(ctx context.Context, accountID int64, peerIdentity string, rx, tx uint64) {
	snapshot := model.TrafficSnapshot{
		AccountID:     accountID,
		PeerIdentity:  peerIdentity,
		BytesReceived: rx,
		BytesSent:     tx,
		Source:        model.SourceReal,
		CapturedAt:    s.now().UTC(),
	}
	if _, err := s.store.InsertSnapshot(ctx, snapshot); err != nil {
		metrics.SnapshotWriteFailures.Inc()
		log.Printf("Failed to save traffic snapshot (account_id=%d): %v", accountID, err)
	}
}

// RecordCycle - 수집 사이클 한 번의 스냅샷 일괄 저장. 저장 성공 여부 반환
func (s *SnapshotService) RecordCycle(ctx context.Context, snapshots []model.TrafficSnapshot) bool {
	if len(snapshots) == 0 {
		return true
	}
	if err := s.store.InsertSnapshots(ctx, snapshots); err != nil {
		metrics.SnapshotWriteFailures.Add(float64(len(snapshots)))
		log.Printf("Failed to save traffic snapshots (count=%d): %v", len(snapshots), err)
		return false
	}
	return true
}

// Recent - 최신순 스냅샷
func (s *SnapshotService) Recent(ctx context.Context, limit int) ([]model.TrafficSnapshot, error) {
	list, err := s.store.RecentSnapshots(ctx, clampLimit(limit, defaultRecentLimit, maxSnapshotLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to load recent snapshots: %w", err)
	}
	return list, nil
}

// Range - 계정/날짜 범위 조회 (날짜는 양 끝 포함)
func (s *SnapshotService) Range(ctx context.Context, filter model.SnapshotFilter) (model.SnapshotPage, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return model.SnapshotPage{}, fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}
	filter.Limit = clampLimit(filter.Limit, defaultRangeLimit, maxSnapshotLimit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	items, total, err := s.store.ListSnapshots(ctx, filter)
	if err != nil {
		return model.SnapshotPage{}, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return model.SnapshotPage{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Window - since 이후 스냅샷 (account, 시간 오름차순)
func (s *SnapshotService) Window(ctx context.Context, since time.Time) ([]model.TrafficSnapshot, error) {
	list, err := s.store.SnapshotsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot window: %w", err)
	}
	return list, nil
}

// DailySummary - 최근 days일 일별 합계 (최신 날짜 먼저)
func (s *SnapshotService) DailySummary(ctx context.Context, accountID *int64, days int) ([]model.DailyTraffic, error) {
	if days <= 0 {
		days = defaultSummaryDays
	}
	key := summaryKey("daily", accountID, days)

	var cached []model.DailyTraffic
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	// 일별 버킷은 UTC 기준 (db 쿼리와 동일)
	since := truncateDay(s.now().UTC()).AddDate(0, 0, -(days - 1))
	list, err := s.store.DailyTraffic(ctx, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily summary: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, list)
	}
	return list, nil
}

// HourlySummary - 최근 hours시간 시간별 합계 (최신 시간 먼저)
func (s *SnapshotService) HourlySummary(ctx context.Context, accountID *int64, hours int) ([]model.HourlyTraffic, error) {
	if hours <= 0 {
		hours = defaultSummaryHours
	}
	key := summaryKey("hourly", accountID, hours)

	var cached []model.HourlyTraffic
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	since := s.now().UTC().Truncate(time.Hour).Add(-time.Duration(hours-1) * time.Hour)
	list, err := s.store.HourlyTraffic(ctx, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load hourly summary: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, list)
	}
	return list, nil
}

func summaryKey(unit string, accountID *int64, span int) string {
	account := "all"
	if accountID != nil {
		account = fmt.Sprintf("%d", *accountID)
	}
	return fmt.Sprintf("summary:%s:%s:%d", unit, account, span)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
