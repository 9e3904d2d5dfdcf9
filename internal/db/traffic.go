package db

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wellybot/wgvpn-admin/internal/model"
)

const snapshotColumns = `id, account_id, peer_identity, bytes_received, bytes_sent, source, captured_at`

// EnsureTrafficSchema - traffic_snapshots 테이블 생성
func (db *Postgres) EnsureTrafficSchema(ctx context.Context) error {
	return db.exec(ctx, []string{
		`
		CREATE TABLE IF NOT EXISTS traffic_snapshots (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL,
			peer_identity TEXT NOT NULL DEFAULT '',
			bytes_received BIGINT NOT NULL DEFAULT 0 CHECK (bytes_received >= 0),
			bytes_sent BIGINT NOT NULL DEFAULT 0 CHECK (bytes_sent >= 0),
			source TEXT NOT NULL DEFAULT 'real',
			captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE INDEX IF NOT EXISTS traffic_snapshots_captured_at_idx ON traffic_snapshots(captured_at DESC)`,
		`CREATE INDEX IF NOT EXISTS traffic_snapshots_account_captured_idx ON traffic_snapshots(account_id, captured_at DESC)`,
	})
}

const insertSnapshotQuery = `
	INSERT INTO traffic_snapshots (account_id, peer_identity, bytes_received, bytes_sent, source, captured_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
`

// InsertSnapshot - 스냅샷 1행 추가
func (db *Postgres) InsertSnapshot(ctx context.Context, s model.TrafficSnapshot) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, insertSnapshotQuery,
		s.AccountID, s.PeerIdentity, toInt8(s.BytesReceived), toInt8(s.BytesSent), string(s.Source), s.CapturedAt,
	).Scan(&id)
	return id, err
}

// InsertSnapshots - 수집 사이클 한 번의 스냅샷을 batch로 추가
func (db *Postgres) InsertSnapshots(ctx context.Context, snapshots []model.TrafficSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range snapshots {
		batch.Queue(insertSnapshotQuery,
			s.AccountID, s.PeerIdentity, toInt8(s.BytesReceived), toInt8(s.BytesSent), string(s.Source), s.CapturedAt,
		)
	}

	br := db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		var id int64
		if err := br.QueryRow().Scan(&id); err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
	}
	return nil
}

// RecentSnapshots - 최신순 스냅샷
func (db *Postgres) RecentSnapshots(ctx context.Context, limit int) ([]model.TrafficSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM traffic_snapshots
		ORDER BY captured_at DESC, id DESC
		LIMIT $1`

	rows, err := db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return collectSnapshots(rows)
}

// ListSnapshots - 조건별 스냅샷 조회 (최신순) + 전체 개수
func (db *Postgres) ListSnapshots(ctx context.Context, filter model.SnapshotFilter) ([]model.TrafficSnapshot, int64, error) {
	where, args := buildSnapshotWhere(filter)

	var total int64
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM traffic_snapshots`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args := buildSnapshotListQuery(filter)
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	list, err := collectSnapshots(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// SnapshotsSince - since 이후 스냅샷 (account, 시간 오름차순). 이상 탐지용
func (db *Postgres) SnapshotsSince(ctx context.Context, since time.Time) ([]model.TrafficSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM traffic_snapshots
		WHERE captured_at >= $1
		ORDER BY account_id, captured_at ASC, id ASC`

	rows, err := db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	return collectSnapshots(rows)
}

// DailyTraffic - 일별 합계 (최신 날짜 먼저)
func (db *Postgres) DailyTraffic(ctx context.Context, accountID *int64, since time.Time) ([]model.DailyTraffic, error) {
	query, args := buildSummaryQuery("day", accountID, since)
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.DailyTraffic{}
	for rows.Next() {
		var (
			rx, tx int64
			d      model.DailyTraffic
		)
		if err := rows.Scan(&d.Date, &rx, &tx, &d.Count); err != nil {
			return nil, err
		}
		d.TotalReceived = uint64(rx)
		d.TotalSent = uint64(tx)
		list = append(list, d)
	}
	return list, rows.Err()
}

// HourlyTraffic - 시간별 합계 (최신 시간 먼저)
func (db *Postgres) HourlyTraffic(ctx context.Context, accountID *int64, since time.Time) ([]model.HourlyTraffic, error) {
	query, args := buildSummaryQuery("hour", accountID, since)
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.HourlyTraffic{}
	for rows.Next() {
		var (
			rx, tx int64
			h      model.HourlyTraffic
		)
		if err := rows.Scan(&h.Hour, &rx, &tx, &h.Count); err != nil {
			return nil, err
		}
		h.TotalReceived = uint64(rx)
		h.TotalSent = uint64(tx)
		list = append(list, h)
	}
	return list, rows.Err()
}

func collectSnapshots(rows pgx.Rows) ([]model.TrafficSnapshot, error) {
	defer rows.Close()

	list := []model.TrafficSnapshot{}
	for rows.Next() {
		var (
			s      model.TrafficSnapshot
			rx, tx int64
			source string
		)
		if err := rows.Scan(&s.ID, &s.AccountID, &s.PeerIdentity, &rx, &tx, &source, &s.CapturedAt); err != nil {
			return nil, err
		}
		s.BytesReceived = uint64(rx)
		s.BytesSent = uint64(tx)
		s.Source = model.Source(source)
		list = append(list, s)
	}
	return list, rows.Err()
}

// buildSnapshotWhere - 필터 조건을 WHERE 절로 변환 (날짜는 하루 단위 포함 범위)
func buildSnapshotWhere(filter model.SnapshotFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		conds = append(conds, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, truncateDay(*filter.StartDate))
		conds = append(conds, fmt.Sprintf("captured_at >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, truncateDay(*filter.EndDate).AddDate(0, 0, 1))
		conds = append(conds, fmt.Sprintf("captured_at < $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildSnapshotListQuery(filter model.SnapshotFilter) (string, []any) {
	where, args := buildSnapshotWhere(filter)
	args = append(args, filter.Limit, filter.Offset)
	query := `SELECT ` + snapshotColumns + ` FROM traffic_snapshots` + where +
		fmt.Sprintf(" ORDER BY captured_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return query, args
}

// buildSummaryQuery - unit: "day" 또는 "hour"
func buildSummaryQuery(unit string, accountID *int64, since time.Time) (string, []any) {
	args := []any{since}
	where := " WHERE captured_at >= $1"
	if accountID != nil {
		args = append(args, *accountID)
		where += " AND account_id = $2"
	}
	// 버킷은 세션 타임존과 무관하게 UTC 기준. 일별은 날짜 문자열로 반환
	bucket := "date_trunc('hour', captured_at AT TIME ZONE 'UTC') AT TIME ZONE 'UTC'"
	if unit == "day" {
		bucket = "to_char(date_trunc('day', captured_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD')"
	}
	query := fmt.Sprintf(`SELECT %s AS bucket,
		COALESCE(SUM(bytes_received), 0)::BIGINT, COALESCE(SUM(bytes_sent), 0)::BIGINT, COUNT(*)
		FROM traffic_snapshots%s
		GROUP BY bucket
		ORDER BY bucket DESC`, bucket, where)
	return query, args
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func toInt8(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
