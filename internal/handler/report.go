package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/report"
	"github.com/iliyamo/checkpoint-revenue/internal/repository"
	"github.com/iliyamo/checkpoint-revenue/internal/service"
)

type ReportService interface {
	Dashboard(ctx context.Context, actor model.Actor, f repository.LogFilter, warnings []string) (service.Dashboard, error)
	Revenue(ctx context.Context, actor model.Actor, f repository.LogFilter) (service.Revenue, error)
	OfficerPerformance(ctx context.Context, actor model.Actor, f service.PerformanceFilter, warnings []string) (service.Performance, error)
	Render(ctx context.Context, kind string, format report.Format, t report.Table, chart []report.Slice) (service.Document, error)
	Email(ctx context.Context, actor model.Actor, to string, format report.Format, doc service.Document) (string, error)
}

// ReportHandler serves the admin dashboard and the report exports.
type ReportHandler struct {
	svc ReportService
}

func NewReportHandler(svc ReportService) *ReportHandler { return &ReportHandler{svc: svc} }

// Dashboard GET /v1/admin/dashboard
func (h *ReportHandler) Dashboard(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	f, warnings := service.ParseLogFilter(c.QueryParams())
	ctx, cancel := withTimeout(c, reportTimeout)
	defer cancel()

	d, err := h.svc.Dashboard(ctx, actor, f, warnings)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// Revenue GET /v1/admin/reports
//
// Query: the dashboard filters plus format (excel, csv or pdf; default
// excel), include_chart (pdf only) and email. With email the file is
// queued for delivery and 202 is returned instead of the file.
func (h *ReportHandler) Revenue(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	format, err := formatParam(c, report.FormatExcel)
	if err != nil {
		return err
	}
	to, err := emailParam(c)
	if err != nil {
		return err
	}
	f, warnings := service.ParseLogFilter(c.QueryParams())
	ctx, cancel := withTimeout(c, reportTimeout)
	defer cancel()

	rev, err := h.svc.Revenue(ctx, actor, f)
	if err != nil {
		return err
	}
	var chart []report.Slice
	if format == report.FormatPDF && boolParam(c, "include_chart") {
		chart = rev.ByCompany
	}
	doc, err := h.svc.Render(ctx, service.KindRevenue, format, rev.Table, chart)
	if err != nil {
		return err
	}
	return h.deliver(ctx, c, actor, format, doc, to, warnings)
}

// OfficerPerformance GET /v1/admin/officer-performance
//
// Without format the aggregate is returned as JSON; with format the
// matching export is produced (or e-mailed, as for Revenue).
func (h *ReportHandler) OfficerPerformance(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	to, err := emailParam(c)
	if err != nil {
		return err
	}
	pf, warnings := service.ParsePerformanceFilter(c.QueryParams())
	ctx, cancel := withTimeout(c, reportTimeout)
	defer cancel()

	p, err := h.svc.OfficerPerformance(ctx, actor, pf, warnings)
	if err != nil {
		return err
	}
	if strings.TrimSpace(c.QueryParam("format")) == "" {
		return c.JSON(http.StatusOK, p)
	}
	format, err := formatParam(c, "")
	if err != nil {
		return err
	}
	doc, err := h.svc.Render(ctx, service.KindPerformance, format, p.Table(format), nil)
	if err != nil {
		return err
	}
	return h.deliver(ctx, c, actor, format, doc, to, warnings)
}

func (h *ReportHandler) deliver(ctx context.Context, c echo.Context, actor model.Actor, format report.Format, doc service.Document, to string, warnings []string) error {
	if doc.ArchiveKey != "" {
		c.Response().Header().Set("X-Report-Archive", doc.ArchiveKey)
	}
	if to != "" {
		jobID, err := h.svc.Email(ctx, actor, to, format, doc)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusAccepted, echo.Map{
			"message":  fmt.Sprintf("report queued for delivery to %s", to),
			"job_id":   jobID,
			"warnings": warnings,
		})
	}
	if len(warnings) > 0 {
		c.Response().Header().Set("X-Filter-Warnings", strings.Join(warnings, "; "))
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Name))
	return c.Blob(http.StatusOK, doc.ContentType, doc.Body)
}

func formatParam(c echo.Context, def report.Format) (report.Format, error) {
	v := strings.TrimSpace(c.QueryParam("format"))
	if v == "" && def != "" {
		return def, nil
	}
	f, err := report.ParseFormat(v)
	if err != nil {
		return "", &service.ValidationError{Msg: "format must be excel, csv or pdf"}
	}
	return f, nil
}

type emailQuery struct {
	Email string `json:"email" validate:"omitempty,email"`
}

// emailParam returns the optional delivery address, rejecting a malformed
// one before any document is rendered or archived.
func emailParam(c echo.Context) (string, error) {
	q := emailQuery{Email: strings.TrimSpace(c.QueryParam("email"))}
	if err := c.Validate(&q); err != nil {
		return "", err
	}
	return q.Email, nil
}

func boolParam(c echo.Context, name string) bool {
	b, _ := strconv.ParseBool(c.QueryParam(name))
	return b
}
