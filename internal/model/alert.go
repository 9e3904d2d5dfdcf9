// 트래픽 이상 탐지 알림 모델 정의
// detector, alert service, stream 레이어에서 공통으로 사용

package model

import "time"

// AlertKind - 알림 종류
type AlertKind string

const (
	// 최근 윈도우 평균 대비 급증
	AlertKindTrafficSpike AlertKind = "traffic_spike"
	// 데모용 고대역폭 알림 (synthetic)
	AlertKindHighBandwidth AlertKind = "high_bandwidth"
	// 외부에서 수동 생성
	AlertKindManual AlertKind = "manual"
)

// Severity - 심각도
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Valid - 허용된 severity 값인지 확인
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// Alert - alerts 테이블 한 행
// 상태 전이는 OPEN(is_resolved=false) -> RESOLVED 한 번뿐
type Alert struct {
	ID             string     `json:"id"`
	AccountID      *int64     `json:"account_id"` // null 가능 (계정과 무관한 알림)
	Kind           AlertKind  `json:"kind"`
	Severity       Severity   `json:"severity"`
	Message        string     `json:"message"`
	ThresholdValue *float64   `json:"threshold_value"`
	ActualValue    *float64   `json:"actual_value"`
	Source         Source     `json:"source"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at"`
	IsResolved     bool       `json:"is_resolved"`
}

// CreateAlertInput - 알림 생성 입력
type CreateAlertInput struct {
	AccountID      *int64    `json:"account_id"`
	Kind           AlertKind `json:"kind"`
	Severity       Severity  `json:"severity"`
	Message        string    `json:"message"`
	ThresholdValue *float64  `json:"threshold_value"`
	ActualValue    *float64  `json:"actual_value"`
	Source         Source    `json:"-"`
}

// CreateAlertRequest - POST /api/v1/alerts 요청 바디 (수동 알림)
type CreateAlertRequest struct {
	AccountID      *int64   `json:"account_id"`
	Severity       Severity `json:"severity" binding:"required"`
	Message        string   `json:"message" binding:"required"`
	ThresholdValue *float64 `json:"threshold_value"`
	ActualValue    *float64 `json:"actual_value"`
}

// AlertFilter - 알림 목록 조회 조건 (모든 조건은 AND)
type AlertFilter struct {
	AccountID *int64
	Severity  *Severity
	Resolved  *bool
	Limit     int
	Offset    int
}

// AlertSummary - 미해결 알림 severity 별 개수
type AlertSummary struct {
	Open     int64 `json:"open"`
	Info     int64 `json:"info"`
	Warning  int64 `json:"warning"`
	Critical int64 `json:"critical"`
}

// DetectResponse - 탐지 1회 실행 결과
type DetectResponse struct {
	Status   string   `json:"status"`
	AlertIDs []string `json:"alert_ids"`
}
