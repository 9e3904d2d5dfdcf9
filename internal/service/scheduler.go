// 주기 작업 스케줄러
// COLLECT_INTERVAL마다 수집 사이클, DETECT_INTERVAL마다 이상 탐지 실행 (0이면 비활성)

package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/wellybot/wgvpn-admin/internal/config"
	"github.com/wellybot/wgvpn-admin/internal/model"
)

type cycleRunner interface {
	RunCycle(ctx context.Context) (model.CollectResponse, error)
}

type anomalyDetector interface {
	Detect(ctx context.Context) ([]string, error)
}

type Scheduler struct {
	collector cycleRunner
	detector  anomalyDetector
	cfg       config.SchedulerConfig
}

func NewScheduler(collector cycleRunner, detector anomalyDetector, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{collector: collector, detector: detector, cfg: cfg}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup

	if s.cfg.CollectInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			every(ctx, s.cfg.CollectInterval, func() {
				if _, err := s.collector.RunCycle(ctx); err != nil {
					log.Printf("[Scheduler] Collect cycle failed: %v", err)
				}
			})
		}()
	}

	if s.cfg.DetectInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			every(ctx, s.cfg.DetectInterval, func() {
				ids, err := s.detector.Detect(ctx)
				if err != nil {
					log.Printf("[Scheduler] Detect failed: %v", err)
					return
				}
				if len(ids) > 0 {
					log.Printf("[Scheduler] Detect created %d alert(s)", len(ids))
				}
			})
		}()
	}

	log.Printf("[Scheduler] Started (collect_interval=%s, detect_interval=%s)", s.cfg.CollectInterval, s.cfg.DetectInterval)
	wg.Wait()
}

func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
