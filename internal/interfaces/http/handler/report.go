package handler

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ReportHandler handles the financial report endpoints
type ReportHandler struct {
	BaseHandler
	reports ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ListDefaulters godoc
// @Summary      List defaulters
// @Description  Students with at least one overdue invoice, grouped per student, largest debt first
// @Tags         reports
// @Produce      json
// @Param        as_of query string false "Reference day, defaults to today" format(date)
// @Success      200 {object} dto.Response{data=appfinance.DefaulterListResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /financial/defaulters [get]
func (h *ReportHandler) ListDefaulters(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	asOf, ok := h.queryDate(c, "as_of")
	if !ok {
		return
	}
	result, err := h.reports.ListDefaulters(c.Request.Context(), rc, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RevenueSummary godoc
// @Summary      Revenue summary
// @Description  Expected against collected revenue for a period, defaults to the current month
// @Tags         reports
// @Produce      json
// @Param        from query string false "First day" format(date)
// @Param        to query string false "Last day" format(date)
// @Success      200 {object} dto.Response{data=appfinance.RevenueSummaryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /financial/summary [get]
func (h *ReportHandler) RevenueSummary(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	from, ok := h.queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := h.queryDate(c, "to")
	if !ok {
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		h.InvalidField(c, "to", "A data final não pode ser anterior à inicial")
		return
	}
	result, err := h.reports.RevenueSummary(c.Request.Context(), rc, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ExportDefaulters godoc
// @Summary      Export defaulters
// @Description  Writes the defaulter list as CSV to object storage and returns a temporary download link
// @Tags         reports
// @Produce      json
// @Param        as_of query string false "Reference day, defaults to today" format(date)
// @Success      201 {object} dto.Response{data=appfinance.ExportResult}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /financial/defaulters/export [post]
func (h *ReportHandler) ExportDefaulters(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	asOf, ok := h.queryDate(c, "as_of")
	if !ok {
		return
	}
	result, err := h.reports.ExportDefaulters(c.Request.Context(), rc, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

func (h *ReportHandler) queryDate(c *gin.Context, name string) (time.Time, bool) {
	t, err := parseDate(c.Query(name))
	if err != nil {
		h.InvalidField(c, name, "Data inválida, use o formato AAAA-MM-DD")
		return time.Time{}, false
	}
	return t, true
}
