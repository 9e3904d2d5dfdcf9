// 트래픽 텔레메트리 조회/수집 핸들러
//
// 요청 흐름:
//  1. 쿼리 파라미터 파싱 (잘못된 값은 400)
//  2. collector / snapshot service 호출
//  3. JSON 응답 반환

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wellybot/wgvpn-admin/internal/model"
)

type collectorAPI interface {
	Collect(ctx context.Context) []model.PeerStatusSample
	RunCycle(ctx context.Context) (model.CollectResponse, error)
}

type snapshotAPI interface {
	Recent(ctx context.Context, limit int) ([]model.TrafficSnapshot, error)
	Range(ctx context.Context, filter model.SnapshotFilter) (model.SnapshotPage, error)
	DailySummary(ctx context.Context, accountID *int64, days int) ([]model.DailyTraffic, error)
	HourlySummary(ctx context.Context, accountID *int64, hours int) ([]model.HourlyTraffic, error)
}

type TrafficHandler struct {
	collector collectorAPI
	snapshots snapshotAPI
}

func NewTrafficHandler(collector collectorAPI, snapshots snapshotAPI) *TrafficHandler {
	return &TrafficHandler{collector: collector, snapshots: snapshots}
}

// Live godoc
// @Summary Read current peer counters
// @Description Runs the status tool once without persisting; falls back to synthetic samples when unavailable.
// @Tags traffic
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.PeerStatusSample
// @Router /api/v1/traffic/live [get]
func (h *TrafficHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, h.collector.Collect(c.Request.Context()))
}

// Collect godoc
// @Summary Run one collection cycle
// @Tags traffic
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.CollectResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/traffic/collect [post]
func (h *TrafficHandler) Collect(c *gin.Context) {
	res, err := h.collector.RunCycle(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Recent godoc
// @Summary List most recent snapshots
// @Tags traffic
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max rows (default 100)"
// @Success 200 {array} model.TrafficSnapshot
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/traffic/recent [get]
func (h *TrafficHandler) Recent(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.snapshots.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// History godoc
// @Summary List snapshots by account and date range
// @Tags traffic
// @Produce json
// @Security BearerAuth
// @Param account_id query int false "Account ID"
// @Param start_date query string false "Inclusive start day (YYYY-MM-DD)"
// @Param end_date query string false "Inclusive end day (YYYY-MM-DD)"
// @Param limit query int false "Page size (default 1000)"
// @Param offset query int false "Page offset"
// @Success 200 {object} model.SnapshotPage
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/traffic/history [get]
func (h *TrafficHandler) History(c *gin.Context) {
	var (
		filter model.SnapshotFilter
		err    error
	)
	if filter.AccountID, err = queryInt64Ptr(c, "account_id"); err != nil {
		writeError(c, err)
		return
	}
	if filter.StartDate, err = queryDatePtr(c, "start_date"); err != nil {
		writeError(c, err)
		return
	}
	if filter.EndDate, err = queryDatePtr(c, "end_date"); err != nil {
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

	page, err := h.snapshots.Range(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// DailySummary godoc
// @Summary Daily traffic totals
// @Tags traffic
// @Produce json
// @Security BearerAuth
// @Param account_id query int false "Account ID"
// @Param days query int false "Number of days (default 7)"
// @Success 200 {array} model.DailyTraffic
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/traffic/summary/daily [get]
func (h *TrafficHandler) DailySummary(c *gin.Context) {
	accountID, err := queryInt64Ptr(c, "account_id")
	if err != nil {
		writeError(c, err)
		return
	}
	days, err := queryInt(c, "days", 7)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.snapshots.DailySummary(c.Request.Context(), accountID, days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HourlySummary godoc
// @Summary Hourly traffic totals
// @Tags traffic
// @Produce json
// @Security BearerAuth
// @Param account_id query int false "Account ID"
// @Param hours query int false "Number of hours (default 24)"
// @Success 200 {array} model.HourlyTraffic
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/traffic/summary/hourly [get]
func (h *TrafficHandler) HourlySummary(c *gin.Context) {
	accountID, err := queryInt64Ptr(c, "account_id")
	if err != nil {
		writeError(c, err)
		return
	}
	hours, err := queryInt(c, "hours", 24)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.snapshots.HourlySummary(c.Request.Context(), accountID, hours)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
