// 알림 webhook 전송 서비스
//
// AlertService가 알림을 만든 직후 비동기로 호출한다.
// 개별 URL 실패는 로그만 남기고 나머지는 계속 전송한다.
// synthetic 알림과 MinSeverity 미만 알림은 전송하지 않는다.

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/wellybot/wgvpn-admin/internal/config"
	"github.com/wellybot/wgvpn-admin/internal/metrics"
	"github.com/wellybot/wgvpn-admin/internal/model"
	tmpl "github.com/wellybot/wgvpn-admin/internal/template"
)

// errUnexpectedStatus - 2xx 이외 응답
var errUnexpectedStatus = errors.New("unexpected status")

var severityRank = map[model.Severity]int{
	model.SeverityInfo:     0,
	model.SeverityWarning:  1,
	model.SeverityCritical: 2,
}

// WebhookNotifier - 설정된 URL로 렌더링된 알림 body를 POST
type WebhookNotifier struct {
	urls        []string
	body        string
	minSeverity model.Severity
	httpClient  *http.Client
}

func NewWebhookNotifier(cfg config.NotifierConfig) *WebhookNotifier {
	body := cfg.Body
	if body == "" {
		body = tmpl.DefaultBody
	}
	minSeverity := model.Severity(cfg.MinSeverity)
	if !minSeverity.Valid() {
		minSeverity = model.SeverityWarning
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		urls:        cfg.WebhookURLs,
		body:        body,
		minSeverity: minSeverity,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Enabled - 전송 대상 URL이 있는지
func (n *WebhookNotifier) Enabled() bool {
	return len(n.urls) > 0
}

// Notify - 모든 URL로 전송. 전송 성공 수 반환
func (n *WebhookNotifier) Notify(ctx context.Context, alert model.Alert, accountLabel string) int {
	if !n.Enabled() || alert.Source == model.SourceSynthetic {
		return 0
	}
	if severityRank[alert.Severity] < severityRank[n.minSeverity] {
		return 0
	}

	data := tmpl.AlertDataFromModel(alert, accountLabel)
	rendered := tmpl.RenderBody(n.body, &data)

	delivered := 0
	for _, url := range n.urls {
		if err := n.send(ctx, url, rendered); err != nil {
			reason := "request"
			if errors.Is(err, errUnexpectedStatus) {
				reason = "status"
			}
			metrics.AlertNotifyFailures.WithLabelValues(reason).Inc()
			log.Printf("[Notifier] Failed to deliver alert to %s (alert_id=%s): %v", url, alert.ID, err)
			continue
		}
		log.Printf("[Notifier] Delivered alert to %s (alert_id=%s)", url, alert.ID)
		delivered++
	}
	return delivered
}

func (n *WebhookNotifier) send(ctx context.Context, url, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w %d", errUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
