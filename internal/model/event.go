// 실시간 스트림 이벤트 정의
//
// Event는 닫힌 타입 집합(ConnectionEvent, TrafficEvent, AlertEvent, AuditEvent)이며
// 각 생성자는 해당 카테고리에 필요한 필드만 받는다.
// 전송 시에는 Envelope()로 공통 wire 포맷(StreamMessage)으로 변환한다.

package model

import (
	"fmt"
	"time"

	"github.com/wellybot/wgvpn-admin/internal/units"
)

// EventCategory - 스트림 이벤트 카테고리
type EventCategory string

const (
	CategoryConnection EventCategory = "connection"
	CategoryTraffic    EventCategory = "traffic"
	CategoryAlert      EventCategory = "alert"
	CategoryAudit      EventCategory = "audit"
)

// EventLevel - 로그 레벨
type EventLevel string

const (
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// Valid - 허용된 level 값인지 확인
func (l EventLevel) Valid() bool {
	switch l {
	case LevelInfo, LevelWarning, LevelError:
		return true
	}
	return false
}

const (
	MessageTypeConnected = "connected"
	MessageTypeLog       = "log"
)

// StreamMessage - observer에게 전송되는 JSON 메시지
type StreamMessage struct {
	Type         string        `json:"type"` // connected, log
	Category     EventCategory `json:"category,omitempty"`
	AccountID    *int64        `json:"account_id,omitempty"`
	AccountLabel string        `json:"account_label,omitempty"`
	Message      string        `json:"message"`
	Timestamp    time.Time     `json:"timestamp"`
	Level        EventLevel    `json:"level"`
	Source       Source        `json:"source,omitempty"`
}

// Event - 스트림으로 발행 가능한 이벤트
type Event interface {
	Category() EventCategory
	Envelope() StreamMessage
	isEvent()
}

// ConnectedMessage - 연결 직후 observer에게 한 번 보내는 ack
func ConnectedMessage(at time.Time) StreamMessage {
	return StreamMessage{
		Type:      MessageTypeConnected,
		Message:   "connected to event stream",
		Timestamp: at.UTC(),
		Level:     LevelInfo,
	}
}

// ConnectionEvent - peer 접속/해제
type ConnectionEvent struct {
	AccountID    int64
	AccountLabel string
	PeerIdentity string
	Connected    bool
	Source       Source
	At           time.Time
}

func NewConnectionEvent(account Account, connected bool, source Source, at time.Time) ConnectionEvent {
	return ConnectionEvent{
		AccountID:    account.ID,
		AccountLabel: account.Label,
		PeerIdentity: account.PeerIdentity,
		Connected:    connected,
		Source:       source,
		At:           at,
	}
}

func (e ConnectionEvent) Category() EventCategory { return CategoryConnection }

func (e ConnectionEvent) Envelope() StreamMessage {
	msg, level := "peer connected", LevelInfo
	if !e.Connected {
		msg, level = "peer disconnected", LevelWarning
	}
	if e.PeerIdentity != "" {
		msg = fmt.Sprintf("%s (%s)", msg, shortKey(e.PeerIdentity))
	}
	id := e.AccountID
	return StreamMessage{
		Type:         MessageTypeLog,
		Category:     CategoryConnection,
		AccountID:    &id,
		AccountLabel: e.AccountLabel,
		Message:      msg,
		Timestamp:    e.At.UTC(),
		Level:        level,
		Source:       e.Source,
	}
}

func (ConnectionEvent) isEvent() {}

// TrafficEvent - 수집 사이클에서 기록된 계정별 카운터
type TrafficEvent struct {
	AccountID     int64
	AccountLabel  string
	BytesReceived uint64
	BytesSent     uint64
	Source        Source
	At            time.Time
}

func NewTrafficEvent(account Account, snapshot TrafficSnapshot) TrafficEvent {
	return TrafficEvent{
		AccountID:     account.ID,
		AccountLabel:  account.Label,
		BytesReceived: snapshot.BytesReceived,
		BytesSent:     snapshot.BytesSent,
		Source:        snapshot.Source,
		At:            snapshot.CapturedAt,
	}
}

func (e TrafficEvent) Category() EventCategory { return CategoryTraffic }

func (e TrafficEvent) Envelope() StreamMessage {
	id := e.AccountID
	return StreamMessage{
		Type:         MessageTypeLog,
		Category:     CategoryTraffic,
		AccountID:    &id,
		AccountLabel: e.AccountLabel,
		Message: fmt.Sprintf("received %s, sent %s",
			units.FormatBytes(float64(e.BytesReceived)), units.FormatBytes(float64(e.BytesSent))),
		Timestamp: e.At.UTC(),
		Level:     LevelInfo,
		Source:    e.Source,
	}
}

func (TrafficEvent) isEvent() {}

// AlertEvent - 새로 생성된 알림
type AlertEvent struct {
	Alert        Alert
	AccountLabel string
}

func NewAlertEvent(alert Alert, accountLabel string) AlertEvent {
	return AlertEvent{Alert: alert, AccountLabel: accountLabel}
}

func (e AlertEvent) Category() EventCategory { return CategoryAlert }

func (e AlertEvent) Envelope() StreamMessage {
	level := LevelInfo
	switch e.Alert.Severity {
	case SeverityWarning:
		level = LevelWarning
	case SeverityCritical:
		level = LevelError
	}
	return StreamMessage{
		Type:         MessageTypeLog,
		Category:     CategoryAlert,
		AccountID:    e.Alert.AccountID,
		AccountLabel: e.AccountLabel,
		Message:      e.Alert.Message,
		Timestamp:    e.Alert.CreatedAt.UTC(),
		Level:        level,
		Source:       e.Alert.Source,
	}
}

func (AlertEvent) isEvent() {}

// AuditEvent - 관리자 작업 기록 (CRUD 컴포넌트가 발행)
type AuditEvent struct {
	AccountID    *int64
	AccountLabel string
	Actor        string
	Action       string
	Level        EventLevel
	Source       Source
	At           time.Time
}

func NewAuditEvent(accountID *int64, accountLabel, actor, action string, level EventLevel, at time.Time) AuditEvent {
	if !level.Valid() {
		level = LevelInfo
	}
	return AuditEvent{
		AccountID:    accountID,
		AccountLabel: accountLabel,
		Actor:        actor,
		Action:       action,
		Level:        level,
		Source:       SourceReal,
		At:           at,
	}
}

func (e AuditEvent) Category() EventCategory { return CategoryAudit }

func (e AuditEvent) Envelope() StreamMessage {
	msg := e.Action
	if e.Actor != "" {
		msg = e.Actor + ": " + e.Action
	}
	return StreamMessage{
		Type:         MessageTypeLog,
		Category:     CategoryAudit,
		AccountID:    e.AccountID,
		AccountLabel: e.AccountLabel,
		Message:      msg,
		Timestamp:    e.At.UTC(),
		Level:        e.Level,
		Source:       e.Source,
	}
}

func (AuditEvent) isEvent() {}

// PublishEventRequest - POST /api/v1/stream/events 요청 바디
type PublishEventRequest struct {
	Category     EventCategory `json:"category" binding:"required"`
	AccountID    *int64        `json:"account_id"`
	AccountLabel string        `json:"account_label"`
	Actor        string        `json:"actor"`
	Message      string        `json:"message" binding:"required"`
	Level        EventLevel    `json:"level"`
	Connected    *bool         `json:"connected"`
}

func shortKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8] + "…"
}
