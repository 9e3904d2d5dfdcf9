// Package template provides alert webhook body template rendering.
//
// 지원하는 변수 형식:
//
//	{{alert.id}}, {{alert.kind}}, {{alert.severity}}, {{alert.message}},
//	{{alert.account_id}}, {{alert.account_label}}, {{alert.source}},
//	{{alert.threshold}}, {{alert.actual}}, {{alert.created_at}}
//
// 값은 JSON 문자열 안에 들어갈 수 있도록 escape 된다
package template

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/wellybot/wgvpn-admin/internal/model"
	"github.com/wellybot/wgvpn-admin/internal/units"
)

// DefaultBody - Slack incoming webhook 호환 기본 body
const DefaultBody = `{"text":"[{{alert.severity}}] {{alert.account_label}} {{alert.message}} (alert_id={{alert.id}})"}`

// AlertData - 템플릿 렌더링에 사용할 Alert 데이터
type AlertData struct {
	ID           string
	Kind         string
	Severity     string
	Message      string
	AccountID    string
	AccountLabel string
	Source       string
	Threshold    string
	Actual       string
	CreatedAt    time.Time
}

// AlertDataFromModel - model.Alert에서 AlertData 생성
func AlertDataFromModel(alert model.Alert, accountLabel string) AlertData {
	d := AlertData{
		ID:           alert.ID,
		Kind:         string(alert.Kind),
		Severity:     string(alert.Severity),
		Message:      alert.Message,
		AccountLabel: accountLabel,
		Source:       string(alert.Source),
		CreatedAt:    alert.CreatedAt,
	}
	if alert.AccountID != nil {
		d.AccountID = strconv.FormatInt(*alert.AccountID, 10)
	}
	if alert.ThresholdValue != nil {
		d.Threshold = units.FormatBytes(*alert.ThresholdValue)
	}
	if alert.ActualValue != nil {
		d.Actual = units.FormatBytes(*alert.ActualValue)
	}
	return d
}

// RenderBody - webhook body 템플릿의 변수를 실제 값으로 치환
// alert가 nil이면 모든 변수는 빈 문자열로 치환된다
func RenderBody(body string, alert *AlertData) string {
	if alert == nil {
		alert = &AlertData{}
	}
	createdAt := ""
	if !alert.CreatedAt.IsZero() {
		createdAt = alert.CreatedAt.UTC().Format(time.RFC3339)
	}

	return strings.NewReplacer(
		"{{alert.id}}", escape(alert.ID),
		"{{alert.kind}}", escape(alert.Kind),
		"{{alert.severity}}", escape(alert.Severity),
		"{{alert.message}}", escape(alert.Message),
		"{{alert.account_id}}", escape(alert.AccountID),
		"{{alert.account_label}}", escape(alert.AccountLabel),
		"{{alert.source}}", escape(alert.Source),
		"{{alert.threshold}}", escape(alert.Threshold),
		"{{alert.actual}}", escape(alert.Actual),
		"{{alert.created_at}}", createdAt,
	).Replace(body)
}

func escape(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b[1 : len(b)-1])
}
