// 실시간 이벤트 브로드캐스터
//
// 처리 흐름:
//  1. producer(collector, detector, alert service, 외부 audit)가 Publish로 이벤트 발행
//     - 큐가 가득 차면 drop (producer는 블록되지 않음)
//  2. Run의 dispatcher 고루틴 하나가 큐를 비우며 이벤트를 한 번만 JSON 인코딩
//  3. 등록된 모든 observer의 send 버퍼에 전달
//     - 버퍼가 가득 찬 observer는 끊긴 것으로 보고 registry에서 제거
//  4. 웹소켓 연결마다 Serve가 write/read pump를 돌리고, 실패 시 스스로 Unregister

package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wellybot/wgvpn-admin/internal/metrics"
	"github.com/wellybot/wgvpn-admin/internal/model"
)

// Publisher - 이벤트 발행 인터페이스 (service 레이어에서 사용)
type Publisher interface {
	Publish(event model.Event) bool
}

// Hub - observer registry 소유자 (전역 상태 없음)
type Hub struct {
	mu         sync.RWMutex
	observers  map[string]*Observer
	events     chan model.Event
	sendBuffer int
	now        func() time.Time
}

// Observer - 연결된 스트림 구독자 하나
type Observer struct {
	id          string
	connectedAt time.Time
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
}

func NewHub(queueSize, sendBuffer int) *Hub {
	if queueSize <= 0 {
		queueSize = 256
	}
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Hub{
		observers:  make(map[string]*Observer),
		events:     make(chan model.Event, queueSize),
		sendBuffer: sendBuffer,
		now:        time.Now,
	}
}

// Publish enqueues an event for fan-out without blocking the caller.
func (h *Hub) Publish(event model.Event) bool {
	if event == nil {
		return false
	}
	select {
	case h.events <- event:
		metrics.StreamEventsPublished.WithLabelValues(string(event.Category())).Inc()
		return true
	default:
		metrics.StreamEventsDropped.WithLabelValues("queue_full").Inc()
		log.Printf("[Stream] Event queue full, dropping %s event", event.Category())
		return false
	}
}

// Run drains the event queue until ctx is cancelled, then disconnects every observer.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case event := <-h.events:
			h.broadcast(event)
		}
	}
}

func (h *Hub) broadcast(event model.Event) {
	payload, err := json.Marshal(event.Envelope())
	if err != nil {
		log.Printf("[Stream] Failed to encode %s event: %v", event.Category(), err)
		return
	}

	h.mu.RLock()
	targets := make([]*Observer, 0, len(h.observers))
	for _, o := range h.observers {
		targets = append(targets, o)
	}
	h.mu.RUnlock()

	for _, o := range targets {
		if !o.offer(payload) {
			metrics.StreamEventsDropped.WithLabelValues("observer_gone").Inc()
			log.Printf("[Stream] Removing unresponsive observer (observer_id=%s)", o.id)
			h.Unregister(o.id)
		}
	}
}

// Register adds a new observer and queues its connected acknowledgement.
func (h *Hub) Register() *Observer {
	now := h.now()
	o := &Observer{
		id:          uuid.NewString(),
		connectedAt: now,
		send:        make(chan []byte, h.sendBuffer),
		done:        make(chan struct{}),
	}
	if ack, err := json.Marshal(model.ConnectedMessage(now)); err == nil {
		o.send <- ack
	}

	h.mu.Lock()
	h.observers[o.id] = o
	count := len(h.observers)
	h.mu.Unlock()

	metrics.StreamObservers.Set(float64(count))
	log.Printf("[Stream] Observer connected (observer_id=%s, observers=%d)", o.id, count)
	return o
}

// Unregister removes the observer; safe to call more than once.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	o, ok := h.observers[id]
	if ok {
		delete(h.observers, id)
	}
	count := len(h.observers)
	h.mu.Unlock()

	if !ok {
		return
	}
	o.close()
	metrics.StreamObservers.Set(float64(count))
	log.Printf("[Stream] Observer disconnected (observer_id=%s, observers=%d, connected_for=%s)",
		id, count, h.now().Sub(o.connectedAt).Round(time.Second))
}

// Count - 현재 연결된 observer 수
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	observers := h.observers
	h.observers = make(map[string]*Observer)
	h.mu.Unlock()

	for _, o := range observers {
		o.close()
	}
	metrics.StreamObservers.Set(0)
}

func (o *Observer) ID() string { return o.id }

// Messages - 전송 대기 중인 인코딩된 메시지
func (o *Observer) Messages() <-chan []byte { return o.send }

// Done - Unregister 되면 닫힘
func (o *Observer) Done() <-chan struct{} { return o.done }

func (o *Observer) offer(payload []byte) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.send <- payload:
		return true
	default:
		return false
	}
}

func (o *Observer) close() {
	o.closeOnce.Do(func() { close(o.done) })
}
