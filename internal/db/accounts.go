package db

import (
	"context"

	"github.com/wellybot/wgvpn-admin/internal/model"
)

// EnsureAccountSchema - accounts 테이블 (CRUD 컴포넌트 소유, 없을 때만 최소 스키마 생성)
func (db *Postgres) EnsureAccountSchema(ctx context.Context) error {
	return db.exec(ctx, []string{
		`
		CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			label TEXT NOT NULL DEFAULT '',
			public_key TEXT NOT NULL UNIQUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
	})
}

// ListActiveAccounts - 활성 계정 목록 (peer_identity -> account_id 매핑용)
func (db *Postgres) ListActiveAccounts(ctx context.Context) ([]model.Account, error) {
	query := `
		SELECT id, label, public_key, is_active
		FROM accounts
		WHERE is_active = TRUE
		ORDER BY id`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Label, &a.PeerIdentity, &a.IsActive); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if list == nil {
		list = []model.Account{}
	}
	return list, nil
}

// GetAccount - 계정 단건 조회 (없으면 pgx.ErrNoRows)
func (db *Postgres) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	query := `
		SELECT id, label, public_key, is_active
		FROM accounts
		WHERE id = $1
	`

	var a model.Account
	if err := db.Pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.Label, &a.PeerIdentity, &a.IsActive); err != nil {
		return nil, err
	}
	return &a, nil
}
