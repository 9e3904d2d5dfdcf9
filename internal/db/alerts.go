package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wellybot/wgvpn-admin/internal/model"
)

const alertColumns = `id, account_id, kind, severity, message, threshold_value, actual_value, source, created_at, resolved_at, is_resolved`

// EnsureAlertSchema - alerts 테이블 생성
func (db *Postgres) EnsureAlertSchema(ctx context.Context) error {
	return db.exec(ctx, []string{
		`
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			account_id BIGINT,
			kind TEXT NOT NULL,
			severity TEXT NOT NULL DEFAULT 'warning',
			message TEXT NOT NULL DEFAULT '',
			threshold_value DOUBLE PRECISION,
			actual_value DOUBLE PRECISION,
			source TEXT NOT NULL DEFAULT 'real',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at TIMESTAMPTZ,
			is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
			CHECK (resolved_at IS NULL OR resolved_at >= created_at)
		)
		`,
		`CREATE INDEX IF NOT EXISTS alerts_created_at_idx ON alerts(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS alerts_account_id_idx ON alerts(account_id) WHERE account_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS alerts_open_idx ON alerts(severity) WHERE is_resolved = FALSE`,
	})
}

// InsertAlert - 알림 저장 (항상 미해결 상태로 시작)
func (db *Postgres) InsertAlert(ctx context.Context, a model.Alert) error {
	query := `
		INSERT INTO alerts (
			id, account_id, kind, severity, message, threshold_value, actual_value, source, created_at, is_resolved
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
	`
	_, err := db.Pool.Exec(ctx, query,
		a.ID,
		a.AccountID,
		string(a.Kind),
		string(a.Severity),
		a.Message,
		a.ThresholdValue,
		a.ActualValue,
		string(a.Source),
		a.CreatedAt,
	)
	return err
}

// GetAlert - 알림 단건 조회 (없으면 pgx.ErrNoRows)
func (db *Postgres) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	a, err := scanAlert(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAlerts - 조건별 알림 목록 (최신순) + 전체 개수
func (db *Postgres) ListAlerts(ctx context.Context, filter model.AlertFilter) ([]model.Alert, int64, error) {
	where, args := buildAlertWhere(filter)

	var total int64
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := `SELECT ` + alertColumns + ` FROM alerts` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []model.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ResolveAlert - 미해결 알림만 resolved 처리
// resolved_at은 created_at보다 앞설 수 없음. 이미 resolved면 false 반환 (시각 변경 없음)
func (db *Postgres) ResolveAlert(ctx context.Context, id string, resolvedAt time.Time) (bool, error) {
	query := `
		UPDATE alerts
		SET is_resolved = TRUE, resolved_at = GREATEST($2, created_at)
		WHERE id = $1 AND is_resolved = FALSE
	`
	tag, err := db.Pool.Exec(ctx, query, id, resolvedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountOpenAlerts - 미해결 알림 severity 별 개수
func (db *Postgres) CountOpenAlerts(ctx context.Context) (model.AlertSummary, error) {
	query := `
		SELECT severity, COUNT(*)
		FROM alerts
		WHERE is_resolved = FALSE
		GROUP BY severity
	`

	var summary model.AlertSummary
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return summary, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			severity string
			count    int64
		)
		if err := rows.Scan(&severity, &count); err != nil {
			return summary, err
		}
		summary.Open += count
		switch model.Severity(severity) {
		case model.SeverityInfo:
			summary.Info = count
		case model.SeverityWarning:
			summary.Warning = count
		case model.SeverityCritical:
			summary.Critical = count
		}
	}
	return summary, rows.Err()
}

func scanAlert(row pgx.Row) (model.Alert, error) {
	var a model.Alert
	var kind, severity, source string
	err := row.Scan(
		&a.ID,
		&a.AccountID,
		&kind,
		&severity,
		&a.Message,
		&a.ThresholdValue,
		&a.ActualValue,
		&source,
		&a.CreatedAt,
		&a.ResolvedAt,
		&a.IsResolved,
	)
	if err != nil {
		return a, err
	}
	a.Kind = model.AlertKind(kind)
	a.Severity = model.Severity(severity)
	a.Source = model.Source(source)
	return a, nil
}

// buildAlertWhere - 필터 조건은 모두 AND
func buildAlertWhere(filter model.AlertFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		conds = append(conds, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if filter.Severity != nil {
		args = append(args, string(*filter.Severity))
		conds = append(conds, fmt.Sprintf("severity = $%d", len(args)))
	}
	if filter.Resolved != nil {
		args = append(args, *filter.Resolved)
		conds = append(conds, fmt.Sprintf("is_resolved = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
