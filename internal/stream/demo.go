package stream

import (
	"context"
	"log"
	"math/rand/v2"
	"time"

	"github.com/wellybot/wgvpn-admin/internal/model"
)

// AccountLister - 데모 이벤트 대상 계정 조회
type AccountLister interface {
	ListActiveAccounts(ctx context.Context) ([]model.Account, error)
}

var demoAuditActions = []string{
	"viewed traffic report",
	"exported peer configuration",
	"updated peer label",
	"rotated preshared key",
}

// DemoProducer - 데모용 synthetic 이벤트를 주기적으로 발행
// 연결마다 타이머를 두지 않고 하나의 producer가 Hub로 발행한다
type DemoProducer struct {
	publisher Publisher
	accounts  AccountLister
	interval  time.Duration
	rng       *rand.Rand
	now       func() time.Time
}

func NewDemoProducer(publisher Publisher, accounts AccountLister, interval time.Duration, rng *rand.Rand) *DemoProducer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	return &DemoProducer{
		publisher: publisher,
		accounts:  accounts,
		interval:  interval,
		rng:       rng,
		now:       time.Now,
	}
}

// Run publishes one demo event per interval until ctx is cancelled.
func (p *DemoProducer) Run(ctx context.Context) {
	if p.interval <= 0 {
		return
	}
	log.Printf("[Stream] Demo producer started (interval=%s)", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			accounts, err := p.accounts.ListActiveAccounts(ctx)
			if err != nil {
				log.Printf("[Stream] Failed to list accounts for demo event: %v", err)
				continue
			}
			if event := p.Next(accounts); event != nil {
				p.publisher.Publish(event)
			}
		}
	}
}

// Next builds one synthetic event for a uniformly random account and category.
// Returns nil when there are no accounts.
func (p *DemoProducer) Next(accounts []model.Account) model.Event {
	if len(accounts) == 0 {
		return nil
	}
	account := accounts[p.rng.IntN(len(accounts))]
	now := p.now()

	switch p.rng.IntN(4) {
	case 0:
		return model.NewConnectionEvent(account, p.rng.IntN(2) == 0, model.SourceSynthetic, now)
	case 1:
		return model.NewTrafficEvent(account, model.TrafficSnapshot{
			AccountID:     account.ID,
			PeerIdentity:  account.PeerIdentity,
			BytesReceived: 1<<20 + p.rng.Uint64N(99<<20),
			BytesSent:     512<<10 + p.rng.Uint64N(50<<20 - 512<<10),
			Source:        model.SourceSynthetic,
			CapturedAt:    now,
		})
	case 2:
		id := account.ID
		return model.NewAlertEvent(model.Alert{
			AccountID: &id,
			Kind:      model.AlertKindHighBandwidth,
			Severity:  model.SeverityInfo,
			Message:   "demo: elevated bandwidth usage",
			Source:    model.SourceSynthetic,
			CreatedAt: now,
		}, account.Label)
	default:
		id := account.ID
		event := model.NewAuditEvent(&id, account.Label, "demo", demoAuditActions[p.rng.IntN(len(demoAuditActions))], model.LevelInfo, now)
		event.Source = model.SourceSynthetic
		return event
	}
}
