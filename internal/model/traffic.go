// 트래픽 텔레메트리 모델 정의
// collector, db, service, handler 레이어에서 공통으로 사용하기 때문에 model 레이어에 별도로 정의

package model

import "time"

// Source - 데이터 출처 (실제 wg 출력 / fallback 합성 데이터)
type Source string

const (
	SourceReal      Source = "real"
	SourceSynthetic Source = "synthetic"
)

// PeerStatusSample - wg show 출력 한 peer 블록을 파싱한 결과 (저장 전 임시 데이터)
type PeerStatusSample struct {
	PeerIdentity  string `json:"peer_identity"`
	BytesReceived uint64 `json:"bytes_received"`
	BytesSent     uint64 `json:"bytes_sent"`
	Source        Source `json:"source"`
}

// TrafficSnapshot - traffic_snapshots 테이블 한 행
// 수집 사이클마다 account 당 1행, 생성 후 변경되지 않음
type TrafficSnapshot struct {
	ID            int64     `json:"id"`
	AccountID     int64     `json:"account_id"`
	PeerIdentity  string    `json:"peer_identity"`
	BytesReceived uint64    `json:"bytes_received"`
	BytesSent     uint64    `json:"bytes_sent"`
	Source        Source    `json:"source"`
	CapturedAt    time.Time `json:"captured_at"`
}

// SnapshotFilter - 스냅샷 범위 조회 조건 (nil 필드는 제한 없음)
type SnapshotFilter struct {
	AccountID *int64
	StartDate *time.Time // 포함 (해당 날짜 00:00부터)
	EndDate   *time.Time // 포함 (해당 날짜 끝까지)
	Limit     int
	Offset    int
}

// DailyTraffic - 일별 집계 버킷
type DailyTraffic struct {
	Date          string `json:"date"` // YYYY-MM-DD
	TotalReceived uint64 `json:"total_received"`
	TotalSent     uint64 `json:"total_sent"`
	Count         int64  `json:"count"`
}

// HourlyTraffic - 시간별 집계 버킷
type HourlyTraffic struct {
	Hour          time.Time `json:"hour"`
	TotalReceived uint64    `json:"total_received"`
	TotalSent     uint64    `json:"total_sent"`
	Count         int64     `json:"count"`
}

// CollectResponse - 수집 사이클 1회 실행 결과
type CollectResponse struct {
	Status   string `json:"status"`
	Source   Source `json:"source"`
	Samples  int    `json:"samples"`
	Recorded int    `json:"recorded"`
}
