// WireGuard peer 상태 수집 비즈니스 로직 정의
//
// 처리 흐름 (RunCycle):
//  1. Collect: wg show 실행 후 peer 블록 파싱
//     - 명령 실패/시간 초과/파싱 실패/peer 0개면 활성 계정마다 synthetic 샘플 생성
//  2. peer_identity(public key)를 활성 계정에 매핑
//     - 모르는 peer는 건너뜀, 같은 계정이 두 번 나오면 첫 샘플만 사용
//  3. 한 타임스탬프로 스냅샷 일괄 저장
//  4. 저장된 스냅샷마다 traffic 이벤트 발행
//  5. 직전 real 사이클과 비교해 새로 나타나거나 사라진 peer의 connection 이벤트 발행

package service

import (
	"context"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/wellybot/wgvpn-admin/internal/config"
	"github.com/wellybot/wgvpn-admin/internal/metrics"
	"github.com/wellybot/wgvpn-admin/internal/model"
	"github.com/wellybot/wgvpn-admin/internal/wgstatus"
)

// peerReader - wgstatus.Reader
type peerReader interface {
	Read(ctx context.Context) ([]wgstatus.Peer, error)
}

// accountLister - 활성 계정 목록 조회
type accountLister interface {
	ListActiveAccounts(ctx context.Context) ([]model.Account, error)
}

type CollectorService struct {
	reader    peerReader
	accounts  accountLister
	snapshots *SnapshotService
	publisher eventPublisher
	cfg       config.CollectorConfig
	now       func() time.Time

	mu   sync.Mutex
	rng  *rand.Rand
	prev map[string]model.Account // 직전 real 사이클에서 보인 peer
}

func NewCollectorService(reader peerReader, accounts accountLister, snapshots *SnapshotService, publisher eventPublisher, cfg config.CollectorConfig, rng *rand.Rand) *CollectorService {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x2545f4914f6cdd1d))
	}
	return &CollectorService{
		reader:    reader,
		accounts:  accounts,
		snapshots: snapshots,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
		rng:       rng,
	}
}

// Collect - 현재 peer 카운터. 실패하지 않는다 (fallback은 synthetic)
func (s *CollectorService) Collect(ctx context.Context) []model.PeerStatusSample {
	samples, _ := s.collect(ctx)
	return samples
}

func (s *CollectorService) collect(ctx context.Context) ([]model.PeerStatusSample, model.Source) {
	peers, err := s.reader.Read(ctx)
	if err != nil {
		log.Printf("[Collector] wg status unavailable, using synthetic data: %v", err)
		samples := s.synthetic(ctx)
		metrics.CollectorCycles.WithLabelValues(string(model.SourceSynthetic)).Inc()
		metrics.CollectorPeers.Set(float64(len(samples)))
		return samples, model.SourceSynthetic
	}

	samples := make([]model.PeerStatusSample, 0, len(peers))
	for _, p := range peers {
		samples = append(samples, model.PeerStatusSample{
			PeerIdentity:  p.PublicKey,
			BytesReceived: p.BytesReceived,
			BytesSent:     p.BytesSent,
			Source:        model.SourceReal,
		})
	}
	metrics.CollectorCycles.WithLabelValues(string(model.SourceReal)).Inc()
	metrics.CollectorPeers.Set(float64(len(samples)))
	return samples, model.SourceReal
}

// synthetic - 활성 계정마다 설정 범위 안의 랜덤 카운터
func (s *CollectorService) synthetic(ctx context.Context) []model.PeerStatusSample {
	accounts, err := s.accounts.ListActiveAccounts(ctx)
	if err != nil {
		log.Printf("[Collector] Failed to list accounts for synthetic data: %v", err)
		return []model.PeerStatusSample{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	samples := make([]model.PeerStatusSample, 0, len(accounts))
	for _, a := range accounts {
		samples = append(samples, model.PeerStatusSample{
			PeerIdentity:  a.PeerIdentity,
			BytesReceived: s.between(s.cfg.SyntheticRxMin, s.cfg.SyntheticRxMax),
			BytesSent:     s.between(s.cfg.SyntheticTxMin, s.cfg.SyntheticTxMax),
			Source:        model.SourceSynthetic,
		})
	}
	return samples
}

// between - [lo, hi] 균등 분포 (mu 보유 상태에서 호출)
func (s *CollectorService) between(lo, hi uint64) uint64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	span := hi - lo + 1
	if span == 0 {
		return s.rng.Uint64()
	}
	return lo + s.rng.Uint64N(span)
}

// RunCycle - 수집 -> 계정 매핑 -> 저장 -> 이벤트 발행
func (s *CollectorService) RunCycle(ctx context.Context) (model.CollectResponse, error) {
	samples, source := s.collect(ctx)

	accounts, err := s.accounts.ListActiveAccounts(ctx)
	if err != nil {
		// 계정 매핑 불가: 아무것도 기록하지 않고 degraded 응답
		metrics.PipelineFailures.WithLabelValues("collect_accounts").Inc()
		log.Printf("[Collector] Failed to list accounts, cycle degraded (source=%s, samples=%d): %v", source, len(samples), err)
		s.mu.Lock()
		s.prev = nil
		s.mu.Unlock()
		return model.CollectResponse{
			Status:  "degraded",
			Source:  source,
			Samples: len(samples),
		}, nil
	}
	byIdentity := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byIdentity[a.PeerIdentity] = a
	}

	capturedAt := s.now().UTC()
	seen := make(map[int64]bool, len(samples))
	current := make(map[string]model.Account, len(samples))
	snapshots := make([]model.TrafficSnapshot, 0, len(samples))
	owners := make([]model.Account, 0, len(samples))

	for _, sample := range samples {
		account, ok := byIdentity[sample.PeerIdentity]
		if !ok {
			log.Printf("[Collector] Skipping unknown peer (peer=%s)", sample.PeerIdentity)
			continue
		}
		if seen[account.ID] {
			log.Printf("[Collector] Skipping duplicate sample (account_id=%d)", account.ID)
			continue
		}
		seen[account.ID] = true
		current[sample.PeerIdentity] = account

		snapshots = append(snapshots, model.TrafficSnapshot{
			AccountID:     account.ID,
			PeerIdentity:  sample.PeerIdentity,
			BytesReceived: sample.BytesReceived,
			BytesSent:     sample.BytesSent,
			Source:        sample.Source,
			CapturedAt:    capturedAt,
		})
		owners = append(owners, account)
	}

	recorded := 0
	if s.snapshots.RecordCycle(ctx, snapshots) {
		recorded = len(snapshots)
		if s.publisher != nil {
			for i, snap := range snapshots {
				s.publisher.Publish(model.NewTrafficEvent(owners[i], snap))
			}
		}
	}

	s.trackConnections(source, current, capturedAt)

	log.Printf("[Collector] Cycle finished (source=%s, samples=%d, recorded=%d)", source, len(samples), recorded)
	return model.CollectResponse{
		Status:   "ok",
		Source:   source,
		Samples:  len(samples),
		Recorded: recorded,
	}, nil
}

// trackConnections - 연속된 두 real 사이클 사이의 peer 변화만 이벤트로 발행
func (s *CollectorService) trackConnections(source model.Source, current map[string]model.Account, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if source != model.SourceReal {
		s.prev = nil
		return
	}
	prev := s.prev
	s.prev = current
	if prev == nil || s.publisher == nil {
		return
	}

	for key, account := range current {
		if _, ok := prev[key]; !ok {
			s.publisher.Publish(model.NewConnectionEvent(account, true, model.SourceReal, at))
		}
	}
	for key, account := range prev {
		if _, ok := current[key]; !ok {
			s.publisher.Publish(model.NewConnectionEvent(account, false, model.SourceReal, at))
		}
	}
}
