// 알림 lifecycle 핸들러
//
// 요청 흐름:
//  1. POST /api/v1/alerts/detect: 이상 탐지 1회 실행
//  2. GET  /api/v1/alerts: 조건별 목록 (account_id, severity, resolved, limit, offset)
//  3. POST /api/v1/alerts: 수동 알림 생성
//  4. POST /api/v1/alerts/:id/resolve: 해결 처리 (이미 해결된 알림은 그대로 반환)

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wellybot/wgvpn-admin/internal/model"
)

type alertAPI interface {
	Create(ctx context.Context, input model.CreateAlertInput) (string, error)
	Resolve(ctx context.Context, id string) (*model.Alert, error)
	Get(ctx context.Context, id string) (*model.Alert, error)
	List(ctx context.Context, filter model.AlertFilter) (model.AlertPage, error)
	Unresolved(ctx context.Context, limit int) ([]model.Alert, error)
	Summary(ctx context.Context) (model.AlertSummary, error)
}

type detectorAPI interface {
	Detect(ctx context.Context) ([]string, error)
}

type AlertHandler struct {
	alerts   alertAPI
	detector detectorAPI
}

func NewAlertHandler(alerts alertAPI, detector detectorAPI) *AlertHandler {
	return &AlertHandler{alerts: alerts, detector: detector}
}

// Detect godoc
// @Summary Run anomaly detection once
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.DetectResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/alerts/detect [post]
func (h *AlertHandler) Detect(c *gin.Context) {
	ids, err := h.detector.Detect(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, model.DetectResponse{Status: "ok", AlertIDs: ids})
}

// List godoc
// @Summary List alerts
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param account_id query int false "Account ID"
// @Param severity query string false "info, warning or critical"
// @Param resolved query bool false "Resolved state"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {object} model.AlertPage
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	var (
		filter model.AlertFilter
		err    error
	)
	if filter.AccountID, err = queryInt64Ptr(c, "account_id"); err != nil {
		writeError(c, err)
		return
	}
	if raw := c.Query("severity"); raw != "" {
		severity := model.Severity(raw)
		filter.Severity = &severity
	}
	if filter.Resolved, err = queryBoolPtr(c, "resolved"); err != nil {
		writeError(c, err)
		return
	}
	if filter.Limit, err = queryInt(c, "limit", 0); err != nil {
		writeError(c, err)
		return
	}
	if filter.Offset, err = queryInt(c, "offset", 0); err != nil {
		writeError(c, err)
		return
	}

	page, err := h.alerts.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Unresolved godoc
// @Summary List open alerts
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {array} model.Alert
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/alerts/unresolved [get]
func (h *AlertHandler) Unresolved(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.alerts.Unresolved(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Summary godoc
// @Summary Open alert counts per severity
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AlertSummary
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/alerts/summary [get]
func (h *AlertHandler) Summary(c *gin.Context) {
	res, err := h.alerts.Summary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Get godoc
// @Summary Get alert
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} model.Alert
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/alerts/{id} [get]
func (h *AlertHandler) Get(c *gin.Context) {
	res, err := h.alerts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Create godoc
// @Summary Create manual alert
// @Tags alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CreateAlertRequest true "Alert payload"
// @Success 201 {object} model.Alert
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/alerts [post]
func (h *AlertHandler) Create(c *gin.Context) {
	var req model.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	id, err := h.alerts.Create(ctx, model.CreateAlertInput{
		AccountID:      req.AccountID,
		Kind:           model.AlertKindManual,
		Severity:       req.Severity,
		Message:        req.Message,
		ThresholdValue: req.ThresholdValue,
		ActualValue:    req.ActualValue,
		Source:         model.SourceReal,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	alert, err := h.alerts.Get(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

// Resolve godoc
// @Summary Resolve alert
// @Description Marks an open alert resolved. Resolving an already resolved alert returns it unchanged.
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} model.AlertResolveResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *gin.Context) {
	alert, err := h.alerts.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.AlertResolveResponse{Status: "resolved", Data: alert})
}
