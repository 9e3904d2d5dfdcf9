// 실시간 이벤트 스트림 핸들러
//
// 요청 흐름:
//  1. GET /api/v1/stream: 웹소켓 업그레이드 후 Hub에 observer로 등록
//     - 연결 직후 connected ack, 이후 이벤트 팬아웃
//  2. POST /api/v1/stream/events: CRUD 컴포넌트가 audit/connection 이벤트 발행

package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wellybot/wgvpn-admin/internal/model"
	"github.com/wellybot/wgvpn-admin/internal/stream"
)

type streamHub interface {
	Serve(ctx context.Context, conn stream.Conn)
	Publish(event model.Event) bool
}

type StreamHandler struct {
	hub      streamHub
	ctx      context.Context // 서버 종료 시 취소 (연결 정리)
	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewStreamHandler - allowedOrigins가 비어 있으면 모든 origin 허용
func NewStreamHandler(ctx context.Context, hub streamHub, allowedOrigins []string) *StreamHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &StreamHandler{
		hub: hub,
		ctx: ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(origins) == 0 {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		now: time.Now,
	}
}

// Stream godoc
// @Summary Realtime event stream (websocket)
// @Description Upgrades to a websocket. The first message is {"type":"connected"}, then every published event as {"type":"log"}.
// @Tags stream
// @Security BearerAuth
// @Param token query string false "Access token (browsers cannot set headers on websocket requests)"
// @Success 101
// @Router /api/v1/stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade가 이미 에러 응답을 작성함
		log.Printf("[Stream] Websocket upgrade failed: %v", err)
		return
	}
	h.hub.Serve(h.ctx, conn)
}

// PublishEvent godoc
// @Summary Publish an audit or connection event
// @Tags stream
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.PublishEventRequest true "Event payload"
// @Success 202 {object} model.PublishEventResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/stream/events [post]
func (h *StreamHandler) PublishEvent(c *gin.Context) {
	var req model.PublishEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Level != "" && !req.Level.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "level must be one of info, warning, error"})
		return
	}

	now := h.now()
	var event model.Event
	switch req.Category {
	case model.CategoryAudit:
		actor := req.Actor
		if actor == "" {
			actor = GetAuthSubject(c)
		}
		event = model.NewAuditEvent(req.AccountID, req.AccountLabel, actor, req.Message, req.Level, now)
	case model.CategoryConnection:
		if req.AccountID == nil || req.Connected == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "connection events require account_id and connected"})
			return
		}
		account := model.Account{ID: *req.AccountID, Label: req.AccountLabel}
		event = model.NewConnectionEvent(account, *req.Connected, model.SourceReal, now)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "category must be audit or connection"})
		return
	}

	delivered := h.hub.Publish(event)
	c.JSON(http.StatusAccepted, model.PublishEventResponse{Status: "accepted", Delivered: delivered})
}
