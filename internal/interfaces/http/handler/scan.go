package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chafiq1992/order-scanner/internal/application/scanning"
	"github.com/chafiq1992/order-scanner/internal/infrastructure/logger"
	"github.com/chafiq1992/order-scanner/internal/interfaces/http/dto"
)

// ScanHandler exposes scan ingestion and the dispatch board queries.
type ScanHandler struct {
	BaseHandler
	scans   *scanning.ScanService
	summary *scanning.SummaryService
}

// NewScanHandler creates a new ScanHandler
func NewScanHandler(scans *scanning.ScanService, summary *scanning.SummaryService) *ScanHandler {
	return &ScanHandler{
		scans:   scans,
		summary: summary,
	}
}

// RegisterRoutes registers the scan routes on the API group
func (h *ScanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/scan", h.SubmitScan)
	rg.GET("/scans", h.ListScans)
	rg.PATCH("/scans/:id", h.UpdateScan)
	rg.DELETE("/scans/:id", h.DeleteScan)
	rg.GET("/tag-summary", h.TagSummary)
	rg.GET("/tag-summary/by-store", h.TagSummaryByStore)
	rg.GET("/orders/count", h.CountOrders)
}

// SubmitScan ingests one raw barcode
func (h *ScanHandler) SubmitScan(c *gin.Context) {
	var req dto.SubmitScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	outcome, err := h.scans.SubmitScan(c.Request.Context(), req.Barcode, req.Confirm)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.GetGinLogger(c).Info("scan submitted",
		zap.String("order", outcome.OrderName),
		zap.String("status", string(outcome.Status)),
		zap.String("result", outcome.Result),
	)
	h.Success(c, dto.FromScanOutcome(outcome))
}

// ListScans returns the scans of one day, optionally filtered by tag
func (h *ScanHandler) ListScans(c *gin.Context) {
	var q dto.ListScansQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	day, err := parseDayOrToday(q.Date)
	if err != nil {
		h.BadRequest(c, "invalid date")
		return
	}

	recs, err := h.scans.ListScans(c.Request.Context(), day, q.Tag)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromScanRecords(recs))
}

// UpdateScan applies operator edits to a scan
func (h *ScanHandler) UpdateScan(c *gin.Context) {
	var id dto.ScanIDRequest
	if err := c.ShouldBindUri(&id); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	var req dto.UpdateScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	rec, err := h.scans.UpdateScan(c.Request.Context(), id.ID, scanning.ScanUpdate{
		Driver: req.Driver,
		Tags:   req.Tags,
		Status: req.Status,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromScanRecord(*rec))
}

// DeleteScan removes a scan
func (h *ScanHandler) DeleteScan(c *gin.Context) {
	var id dto.ScanIDRequest
	if err := c.ShouldBindUri(&id); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.scans.DeleteScan(c.Request.Context(), id.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// TagSummary returns per-tag scan counts for one day
func (h *ScanHandler) TagSummary(c *gin.Context) {
	var q dto.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	day, err := parseDayOrToday(q.Date)
	if err != nil {
		h.BadRequest(c, "invalid date")
		return
	}

	counts, err := h.summary.TagSummary(c.Request.Context(), day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counts)
}

// TagSummaryByStore returns per-tag scan counts for one day, broken down by store
func (h *ScanHandler) TagSummaryByStore(c *gin.Context) {
	var q dto.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	day, err := parseDayOrToday(q.Date)
	if err != nil {
		h.BadRequest(c, "invalid date")
		return
	}

	counts, err := h.summary.TagSummaryByStore(c.Request.Context(), day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counts)
}

// CountOrders sums fulfilled upstream orders across all stores over a date
// window
func (h *ScanHandler) CountOrders(c *gin.Context) {
	var q dto.CountOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	start, err := time.Parse("2006-01-02", q.Start)
	if err != nil {
		h.BadRequest(c, "invalid start date")
		return
	}
	end, err := time.Parse("2006-01-02", q.End)
	if err != nil {
		h.BadRequest(c, "invalid end date")
		return
	}
	if end.Before(start) {
		h.BadRequest(c, "end date precedes start date")
		return
	}
	// make the end bound inclusive of the whole day
	end = end.AddDate(0, 0, 1).Add(-time.Second)

	total, perStore, err := h.scans.CountFulfilled(c.Request.Context(), start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CountOrdersResponse{Total: total, PerStore: perStore})
}

// parseDayOrToday parses a YYYY-MM-DD date, defaulting to the current UTC
// day when empty.
func parseDayOrToday(date string) (time.Time, error) {
	if date == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01-02", date)
}
