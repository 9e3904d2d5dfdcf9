// 트래픽 이상 탐지 비즈니스 로직 정의
//
// 처리 흐름:
//  1. 최근 윈도우(DETECT_WINDOW) 안의 스냅샷을 계정별로 묶음
//     - 샘플이 2개 미만인 계정은 건너뜀
//  2. 방향(received/sent)마다 평균(최신 샘플 포함)을 구하고
//     최신 값 > factor × 평균 이면 traffic_spike(warning) 알림 생성
//  3. 실제 급증이 하나도 없으면 DETECT_DEMO_PROBABILITY 확률로
//     랜덤 활성 계정에 high_bandwidth(info, synthetic) 데모 알림 생성
//  4. 생성된 알림 ID 목록 반환 (스트림 발행은 AlertService가 담당)

package service

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/wellybot/wgvpn-admin/internal/config"
	"github.com/wellybot/wgvpn-admin/internal/metrics"
	"github.com/wellybot/wgvpn-admin/internal/model"
	"github.com/wellybot/wgvpn-admin/internal/units"
)

const (
	demoThresholdBytes = 100 << 20
	demoActualMinBytes = 150 << 20
	demoActualMaxBytes = 500 << 20
)

// alertCreator - AlertService.Create
type alertCreator interface {
	Create(ctx context.Context, input model.CreateAlertInput) (string, error)
}

type DetectorService struct {
	snapshots *SnapshotService
	alerts    alertCreator
	accounts  accountLister
	cfg       config.DetectorConfig
	now       func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewDetectorService(snapshots *SnapshotService, alerts alertCreator, accounts accountLister, cfg config.DetectorConfig, rng *rand.Rand) *DetectorService {
	if cfg.Window <= 0 {
		cfg.Window = 5 * time.Minute
	}
	if cfg.SpikeFactor <= 0 {
		cfg.SpikeFactor = 10
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0xda942042e4dd58b5))
	}
	return &DetectorService{
		snapshots: snapshots,
		alerts:    alerts,
		accounts:  accounts,
		cfg:       cfg,
		now:       time.Now,
		rng:       rng,
	}
}

// spike - 한 방향의 급증 판정 결과
type spike struct {
	accountID int64
	direction string
	latest    float64
	threshold float64
}

// Detect - 탐지 1회 실행. 생성된 알림 ID 반환
func (s *DetectorService) Detect(ctx context.Context) ([]string, error) {
	since := s.now().Add(-s.cfg.Window)
	window, err := s.snapshots.Window(ctx, since)
	if err != nil {
		// 탐지 실패는 호출자에게 에러로 전달하지 않음 (빈 결과)
		metrics.PipelineFailures.WithLabelValues("detect_window").Inc()
		log.Printf("[Detector] Failed to load snapshot window, skipping run: %v", err)
		return []string{}, nil
	}

	ids := []string{}
	spikes := findSpikes(window, s.cfg.SpikeFactor)
	for _, sp := range spikes {
		accountID := sp.accountID
		threshold, actual := sp.threshold, sp.latest
		id, err := s.alerts.Create(ctx, model.CreateAlertInput{
			AccountID: &accountID,
			Kind:      model.AlertKindTrafficSpike,
			Severity:  model.SeverityWarning,
			Message: fmt.Sprintf("Traffic spike: %s %s in latest sample (threshold %s)",
				sp.direction, units.FormatBytes(actual), units.FormatBytes(threshold)),
			ThresholdValue: &threshold,
			ActualValue:    &actual,
			Source:         model.SourceReal,
		})
		if err != nil {
			log.Printf("[Detector] Failed to create spike alert (account_id=%d, direction=%s): %v", accountID, sp.direction, err)
			continue
		}
		ids = append(ids, id)
	}
	// 실제 급증이 있었으면 (알림 생성이 모두 실패했더라도) 데모 알림 없음
	if len(spikes) > 0 {
		return ids, nil
	}

	id, err := s.demoAlert(ctx)
	if err != nil {
		log.Printf("[Detector] Failed to create demo alert: %v", err)
		return ids, nil
	}
	if id != "" {
		ids = append(ids, id)
	}
	return ids, nil
}

// findSpikes - window는 (account_id, captured_at) 오름차순
func findSpikes(window []model.TrafficSnapshot, factor float64) []spike {
	var (
		order  []int64
		groups = map[int64][]model.TrafficSnapshot{}
	)
	for _, snap := range window {
		if _, ok := groups[snap.AccountID]; !ok {
			order = append(order, snap.AccountID)
		}
		groups[snap.AccountID] = append(groups[snap.AccountID], snap)
	}

	var spikes []spike
	for _, accountID := range order {
		group := groups[accountID]
		if len(group) < 2 {
			continue
		}

		var sumRx, sumTx float64
		for _, snap := range group {
			sumRx += float64(snap.BytesReceived)
			sumTx += float64(snap.BytesSent)
		}
		n := float64(len(group))
		latest := group[len(group)-1]

		if sp, ok := checkSpike(accountID, "received", float64(latest.BytesReceived), sumRx/n, factor); ok {
			spikes = append(spikes, sp)
		}
		if sp, ok := checkSpike(accountID, "sent", float64(latest.BytesSent), sumTx/n, factor); ok {
			spikes = append(spikes, sp)
		}
	}
	return spikes
}

func checkSpike(accountID int64, direction string, latest, mean, factor float64) (spike, bool) {
	if mean <= 0 {
		return spike{}, false
	}
	threshold := factor * mean
	if latest <= threshold {
		return spike{}, false
	}
	return spike{accountID: accountID, direction: direction, latest: latest, threshold: threshold}, true
}

// demoAlert - 확률적으로 synthetic high_bandwidth 알림 생성 (생성 안 하면 "")
func (s *DetectorService) demoAlert(ctx context.Context) (string, error) {
	if s.cfg.DemoProbability <= 0 {
		return "", nil
	}

	s.mu.Lock()
	roll := s.rng.Float64()
	s.mu.Unlock()
	if roll >= s.cfg.DemoProbability {
		return "", nil
	}

	accounts, err := s.accounts.ListActiveAccounts(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", nil
	}

	s.mu.Lock()
	account := accounts[s.rng.IntN(len(accounts))]
	actual := demoActualMinBytes + s.rng.Float64()*(demoActualMaxBytes-demoActualMinBytes)
	s.mu.Unlock()

	accountID := account.ID
	threshold := float64(demoThresholdBytes)
	return s.alerts.Create(ctx, model.CreateAlertInput{
		AccountID: &accountID,
		Kind:      model.AlertKindHighBandwidth,
		Severity:  model.SeverityInfo,
		Message: fmt.Sprintf("High bandwidth usage: %s (threshold %s)",
			units.FormatBytes(actual), units.FormatBytes(threshold)),
		ThresholdValue: &threshold,
		ActualValue:    &actual,
		Source:         model.SourceSynthetic,
	})
}
