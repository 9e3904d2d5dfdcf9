// 알림 lifecycle 비즈니스 로직 정의
//
// 처리 흐름:
//  1. Create: detector 또는 handler(수동 알림)에서 입력을 받아 검증
//     - severity가 허용 값이 아니면 ErrInvalidInput
//     - account_id가 있으면 계정 존재 확인 (없으면 ErrAccountNotFound)
//  2. uuid 발급 후 OPEN 상태로 DB 저장
//  3. 저장 성공 시 alert 스트림 이벤트 발행 (발행 실패는 무시)
//     - notifier가 있으면 webhook 전송은 비동기로 요청
//  4. Resolve: OPEN -> RESOLVED 한 번만 전이, 이미 RESOLVED면 시각 변경 없이 현재 상태 반환

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wellybot/wgvpn-admin/internal/metrics"
	"github.com/wellybot/wgvpn-admin/internal/model"
)

var (
	ErrAlertNotFound   = errors.New("alert not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidInput    = errors.New("invalid input")
)

const (
	defaultAlertLimit      = 50
	maxAlertLimit          = 1000
	defaultUnresolvedLimit = 50
)

// alertStore - alerts 테이블 DB 인터페이스
type alertStore interface {
	InsertAlert(ctx context.Context, a model.Alert) error
	GetAlert(ctx context.Context, id string) (*model.Alert, error)
	ListAlerts(ctx context.Context, filter model.AlertFilter) ([]model.Alert, int64, error)
	ResolveAlert(ctx context.Context, id string, resolvedAt time.Time) (bool, error)
	CountOpenAlerts(ctx context.Context) (model.AlertSummary, error)
}

// accountReader - 외부 CRUD 컴포넌트가 관리하는 accounts 조회
type accountReader interface {
	ListActiveAccounts(ctx context.Context) ([]model.Account, error)
	GetAccount(ctx context.Context, id int64) (*model.Account, error)
}

// eventPublisher - 스트림 Hub (nil이면 발행하지 않음)
type eventPublisher interface {
	Publish(event model.Event) bool
}

// alertNotifier - 외부 webhook 전송 (WebhookNotifier)
type alertNotifier interface {
	Notify(ctx context.Context, alert model.Alert, accountLabel string) int
}

type AlertService struct {
	alerts    alertStore
	accounts  accountReader
	publisher eventPublisher
	notifier  alertNotifier
	now       func() time.Time
}

func NewAlertService(alerts alertStore, accounts accountReader, publisher eventPublisher) *AlertService {
	return &AlertService{
		alerts:    alerts,
		accounts:  accounts,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithNotifier - 알림 생성 시 webhook 전송 활성화
func (s *AlertService) WithNotifier(notifier alertNotifier) *AlertService {
	s.notifier = notifier
	return s
}

// Create - 알림 생성 (항상 OPEN). 생성된 알림 ID 반환
func (s *AlertService) Create(ctx context.Context, input model.CreateAlertInput) (string, error) {
	if !input.Severity.Valid() {
		return "", fmt.Errorf("%w: severity must be one of info, warning, critical", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Message) == "" {
		return "", fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if input.Kind == "" {
		input.Kind = model.AlertKindManual
	}
	if input.Source == "" {
		input.Source = model.SourceReal
	}

	var label string
	if input.AccountID != nil {
		account, err := s.accounts.GetAccount(ctx, *input.AccountID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return "", ErrAccountNotFound
			}
			return "", fmt.Errorf("failed to load account: %w", err)
		}
		label = account.Label
	}

	alert := model.Alert{
		ID:             uuid.NewString(),
		AccountID:      input.AccountID,
		Kind:           input.Kind,
		Severity:       input.Severity,
		Message:        input.Message,
		ThresholdValue: input.ThresholdValue,
		ActualValue:    input.ActualValue,
		Source:         input.Source,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.alerts.InsertAlert(ctx, alert); err != nil {
		return "", fmt.Errorf("failed to save alert: %w", err)
	}

	metrics.AlertsCreated.WithLabelValues(string(alert.Kind), string(alert.Severity), string(alert.Source)).Inc()
	log.Printf("Created alert (alert_id=%s, kind=%s, severity=%s, source=%s)", alert.ID, alert.Kind, alert.Severity, alert.Source)

	if s.publisher != nil {
		s.publisher.Publish(model.NewAlertEvent(alert, label))
	}
	if s.notifier != nil {
		go s.notifier.Notify(context.Background(), alert, label)
	}
	return alert.ID, nil
}

// Resolve - OPEN 알림을 RESOLVED로 전이. 이미 RESOLVED면 그대로 반환
func (s *AlertService) Resolve(ctx context.Context, id string) (*model.Alert, error) {
	changed, err := s.alerts.ResolveAlert(ctx, id, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}

	alert, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		log.Printf("Resolved alert (alert_id=%s)", id)
	}
	return alert, nil
}

// Get - 단건 조회 (없으면 ErrAlertNotFound)
func (s *AlertService) Get(ctx context.Context, id string) (*model.Alert, error) {
	alert, err := s.alerts.GetAlert(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

// List - 조건별 목록 (created_at 내림차순, 페이지네이션)
func (s *AlertService) List(ctx context.Context, filter model.AlertFilter) (model.AlertPage, error) {
	if filter.Severity != nil && !filter.Severity.Valid() {
		return model.AlertPage{}, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, *filter.Severity)
	}
	filter.Limit = clampLimit(filter.Limit, defaultAlertLimit, maxAlertLimit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	items, total, err := s.alerts.ListAlerts(ctx, filter)
	if err != nil {
		return model.AlertPage{}, fmt.Errorf("failed to list alerts: %w", err)
	}
	return model.AlertPage{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Unresolved - 미해결 알림 최신순
func (s *AlertService) Unresolved(ctx context.Context, limit int) ([]model.Alert, error) {
	resolved := false
	page, err := s.List(ctx, model.AlertFilter{
		Resolved: &resolved,
		Limit:    clampLimit(limit, defaultUnresolvedLimit, maxAlertLimit),
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Summary - 미해결 알림 severity 별 개수
func (s *AlertService) Summary(ctx context.Context) (model.AlertSummary, error) {
	summary, err := s.alerts.CountOpenAlerts(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to count alerts: %w", err)
	}
	return summary, nil
}

func clampLimit(limit, fallback, maxLimit int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
