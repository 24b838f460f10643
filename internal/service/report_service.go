package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/checkpoint-revenue/internal/metrics"
	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/queue"
	"github.com/iliyamo/checkpoint-revenue/internal/report"
	"github.com/iliyamo/checkpoint-revenue/internal/repository"
)

const activeOfficerWindow = 15 * time.Minute

// Report kinds, used in file names and metrics.
const (
	KindRevenue     = "revenue"
	KindPerformance = "officer_performance"
)

var emailCheck = validator.New()

// ReportSettings are the presentation options from configuration.
type ReportSettings struct {
	Currency string
	LogoPath string
}

// ActiveOfficer is an officer seen logged in within the last 15 minutes.
type ActiveOfficer struct {
	ID         uint64     `json:"id"`
	Name       string     `json:"name"`
	Checkpoint string     `json:"checkpoint,omitempty"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

// Dashboard is the admin revenue overview for a filter.
type Dashboard struct {
	Logs            []model.VehicleLog `json:"logs"`
	TotalVehicles   int                `json:"total_vehicles"`
	TotalAmount     float64            `json:"total_amount"`
	ByCompany       []report.Slice     `json:"by_company"`
	ByCheckpoint    []report.Slice     `json:"by_checkpoint"`
	CompanyChart    string             `json:"company_chart,omitempty"`
	CheckpointChart string             `json:"checkpoint_chart,omitempty"`
	Companies       []model.CompanyRef `json:"companies"`
	Checkpoints     []string           `json:"checkpoints"`
	Years           []int              `json:"years"`
	ActiveOfficers  []ActiveOfficer    `json:"active_officers"`
	Warnings        []string           `json:"warnings,omitempty"`
}

// Revenue is the filtered ledger in tabular form plus its company split.
type Revenue struct {
	Table     report.Table
	ByCompany []report.Slice
}

// OfficerTotal is one officer's collection over the whole window.
type OfficerTotal struct {
	OfficerID   uint64  `json:"officer_id"`
	OfficerName string  `json:"officer_name"`
	Entries     int64   `json:"entries"`
	Amount      float64 `json:"amount"`
}

// OfficerRef identifies an officer in the performance picker.
type OfficerRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Performance is the officer performance report.
type Performance struct {
	Daily      []repository.OfficerDay `json:"daily"`
	Totals     []OfficerTotal          `json:"totals"`
	GrandTotal float64                 `json:"grand_total"`
	Officers   []OfficerRef            `json:"officers"`
	Warnings   []string                `json:"warnings,omitempty"`

	DailyTable  report.Table `json:"-"`
	TotalsTable report.Table `json:"-"`
}

// Table returns the table exported for format: per-officer totals for CSV,
// the daily breakdown otherwise.
func (p Performance) Table(format report.Format) report.Table {
	if format == report.FormatCSV {
		return p.TotalsTable
	}
	return p.DailyTable
}

// Document is a rendered export.
type Document struct {
	Name        string
	ContentType string
	Body        []byte
	ArchiveKey  string
}

// ReportService builds dashboards and exports over the vehicle-log ledger.
type ReportService struct {
	logs      LogStore
	users     UserStore
	publisher JobPublisher
	archive   Archiver
	cfg       ReportSettings
	log       zerolog.Logger
	now       func() time.Time
}

// NewReportService wires the reporting layer. publisher and archive may be
// nil: e-mail requests then fail and archiving is skipped.
func NewReportService(logs LogStore, users UserStore, publisher JobPublisher, archive Archiver, cfg ReportSettings, log zerolog.Logger) *ReportService {
	return &ReportService{
		logs:      logs,
		users:     users,
		publisher: publisher,
		archive:   archive,
		cfg:       cfg,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard aggregates the logs matching f. warnings come from
// ParseLogFilter and are echoed back to the caller.
func (s *ReportService) Dashboard(ctx context.Context, actor model.Actor, f repository.LogFilter, warnings []string) (Dashboard, error) {
	if !actor.Is(model.RoleAdmin) {
		return Dashboard{}, ErrForbidden
	}
	logs, err := s.logs.List(ctx, f)
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{Logs: logs, TotalVehicles: len(logs), Warnings: warnings}
	for _, l := range logs {
		d.TotalAmount += l.AmountPaid
	}
	d.ByCompany = byCompany(logs)
	d.ByCheckpoint = report.Breakdown(logs,
		func(l model.VehicleLog) string { return l.Checkpoint },
		func(l model.VehicleLog) float64 { return l.AmountPaid })

	if len(logs) > 0 {
		d.CompanyChart = s.chart(report.PieChartPNG, "Revenue Share by Company", d.ByCompany)
		d.CheckpointChart = s.chart(report.BarChartPNG, "Revenue by Checkpoint", d.ByCheckpoint)
	}

	if d.Companies, err = s.users.ListCompanies(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.Checkpoints, err = s.logs.Checkpoints(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.Years, err = s.logs.Years(ctx); err != nil {
		return Dashboard{}, err
	}
	active, err := s.users.ActiveOfficers(ctx, s.now().Add(-activeOfficerWindow))
	if err != nil {
		return Dashboard{}, err
	}
	d.ActiveOfficers = make([]ActiveOfficer, 0, len(active))
	for _, u := range active {
		a := ActiveOfficer{ID: u.ID, Name: u.DisplayName(), LastLogin: u.LastLogin}
		if u.Officer != nil && u.Officer.Checkpoint != nil {
			a.Checkpoint = *u.Officer.Checkpoint
		}
		d.ActiveOfficers = append(d.ActiveOfficers, a)
	}
	return d, nil
}

func (s *ReportService) chart(render func(string, []report.Slice) ([]byte, error), title string, slices []report.Slice) string {
	png, err := render(title, slices)
	if err != nil {
		s.log.Debug().Err(err).Str("chart", title).Msg("chart skipped")
		return ""
	}
	return report.Base64(png)
}

func byCompany(logs []model.VehicleLog) []report.Slice {
	return report.Breakdown(logs,
		func(l model.VehicleLog) string {
			if l.CompanyName == "" {
				return model.UnknownCompany
			}
			return l.CompanyName
		},
		func(l model.VehicleLog) float64 { return l.AmountPaid })
}

// Revenue turns the logs matching f into the export table.
func (s *ReportService) Revenue(ctx context.Context, actor model.Actor, f repository.LogFilter) (Revenue, error) {
	if !actor.Is(model.RoleAdmin) {
		return Revenue{}, ErrForbidden
	}
	logs, err := s.logs.List(ctx, f)
	if err != nil {
		return Revenue{}, err
	}
	t := report.Table{
		Title:       "Checkpoint Report",
		Headers:     []string{"Number Plate", "Company", "Checkpoint", "Amount Paid", "Timestamp"},
		AmountCol:   3,
		Rows:        make([]report.Row, 0, len(logs)),
		Currency:    s.cfg.Currency,
		GeneratedAt: s.now(),
	}
	for _, l := range logs {
		company := l.CompanyName
		if company == "" {
			company = model.UnknownCompany
		}
		t.Rows = append(t.Rows, report.Row{
			Cells:  []string{l.NumberPlate, company, l.Checkpoint, "", l.Timestamp.Format("2006-01-02 15:04")},
			Amount: l.AmountPaid,
		})
	}
	return Revenue{Table: t, ByCompany: byCompany(logs)}, nil
}

// OfficerPerformance aggregates collections per officer per day over the
// window in f, plus per-officer totals.
func (s *ReportService) OfficerPerformance(ctx context.Context, actor model.Actor, f PerformanceFilter, warnings []string) (Performance, error) {
	if !actor.Is(model.RoleAdmin) {
		return Performance{}, ErrForbidden
	}
	daily, err := s.logs.OfficerDaily(ctx, f.logFilter())
	if err != nil {
		return Performance{}, err
	}
	officers, err := s.users.ListOfficers(ctx)
	if err != nil {
		return Performance{}, err
	}

	p := Performance{Daily: daily, Warnings: warnings, Officers: make([]OfficerRef, 0, len(officers))}
	for _, o := range officers {
		p.Officers = append(p.Officers, OfficerRef{ID: o.ID, Name: o.DisplayName()})
	}

	totals := map[uint64]*OfficerTotal{}
	p.DailyTable = s.table("Officer Performance Report",
		[]string{"Officer", "Date", "Entries", "Amount Collected"}, 3)
	for _, d := range daily {
		p.DailyTable.Rows = append(p.DailyTable.Rows, report.Row{
			Cells:  []string{d.OfficerName, d.Day.Format("2006-01-02"), fmt.Sprint(d.Entries), ""},
			Amount: d.Amount,
		})
		t, ok := totals[d.OfficerID]
		if !ok {
			t = &OfficerTotal{OfficerID: d.OfficerID, OfficerName: d.OfficerName}
			totals[d.OfficerID] = t
		}
		t.Entries += d.Entries
		t.Amount += d.Amount
		p.GrandTotal += d.Amount
	}

	p.Totals = make([]OfficerTotal, 0, len(totals))
	for _, t := range totals {
		p.Totals = append(p.Totals, *t)
	}
	sort.Slice(p.Totals, func(i, j int) bool {
		if p.Totals[i].Amount != p.Totals[j].Amount {
			return p.Totals[i].Amount > p.Totals[j].Amount
		}
		return p.Totals[i].OfficerID < p.Totals[j].OfficerID
	})

	p.TotalsTable = s.table("Officer Performance Totals",
		[]string{"Officer", "Entries", "Total Amount Collected"}, 2)
	for _, t := range p.Totals {
		p.TotalsTable.Rows = append(p.TotalsTable.Rows, report.Row{
			Cells:  []string{t.OfficerName, fmt.Sprint(t.Entries), ""},
			Amount: t.Amount,
		})
	}
	return p, nil
}

func (s *ReportService) table(title string, headers []string, amountCol int) report.Table {
	return report.Table{
		Title:       title,
		Headers:     headers,
		AmountCol:   amountCol,
		Rows:        []report.Row{},
		Currency:    s.cfg.Currency,
		GeneratedAt: s.now(),
	}
}

// Render produces the export file for t. For PDF revenue reports with
// includeChart, a company pie chart is embedded. When an archive is
// configured the document is also uploaded; archive failures are logged
// and do not fail the export.
func (s *ReportService) Render(ctx context.Context, kind string, format report.Format, t report.Table, chart []report.Slice) (Document, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case report.FormatExcel:
		err = report.WriteExcel(&buf, t)
	case report.FormatCSV:
		err = report.WriteCSV(&buf, t)
	case report.FormatPDF:
		opts := report.PDFOptions{LogoPath: s.cfg.LogoPath}
		if len(chart) > 0 {
			if png, cerr := report.PieChartPNG("Revenue Share by Company", chart); cerr == nil {
				opts.Chart = png
			}
		}
		err = report.WritePDF(&buf, t, opts)
	default:
		return Document{}, invalid("unsupported format %q", format)
	}
	if err != nil {
		return Document{}, fmt.Errorf("render %s %s: %w", kind, format, err)
	}
	metrics.ReportsGeneratedTotal.WithLabelValues(kind, string(format)).Inc()

	doc := Document{
		Name:        reportFileName(kind) + format.Ext(),
		ContentType: format.ContentType(),
		Body:        buf.Bytes(),
	}
	if s.archive != nil {
		stamped := fmt.Sprintf("%s_%s%s", reportFileName(kind), s.now().Format("20060102T150405Z"), format.Ext())
		key, aerr := s.archive.Put(ctx, stamped, doc.ContentType, doc.Body)
		if aerr != nil {
			s.log.Warn().Err(aerr).Str("report", stamped).Msg("report archive failed")
		} else {
			doc.ArchiveKey = key
		}
	}
	return doc, nil
}

func reportFileName(kind string) string {
	switch kind {
	case KindRevenue:
		return "checkpoint_report"
	case KindPerformance:
		return "officer_performance"
	}
	return strings.ReplaceAll(kind, " ", "_")
}

// Email queues doc for delivery to the given address and returns the job id.
func (s *ReportService) Email(ctx context.Context, actor model.Actor, to string, format report.Format, doc Document) (string, error) {
	if !actor.Is(model.RoleAdmin) {
		return "", ErrForbidden
	}
	to = strings.TrimSpace(to)
	if err := emailCheck.Var(to, "required,email"); err != nil {
		return "", invalid("email must be a valid address")
	}
	if s.publisher == nil {
		return "", fmt.Errorf("report e-mail is not configured")
	}
	job := queue.ReportEmailJob{
		ID:          uuid.NewString(),
		To:          to,
		Subject:     "Checkpoint report: " + doc.Name,
		Body:        "Please find the requested report attached.",
		Filename:    doc.Name,
		Format:      string(format),
		ContentType: doc.ContentType,
		Attachment:  doc.Body,
		RequestedBy: actor.UserID,
		RequestedAt: s.now(),
	}
	if err := s.publisher.PublishReportEmail(ctx, job); err != nil {
		metrics.ReportEmailsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("queue report e-mail: %w", err)
	}
	metrics.ReportEmailsTotal.WithLabelValues("queued").Inc()
	s.log.Info().Str("job_id", job.ID).Str("to", to).Str("file", doc.Name).Msg("report e-mail queued")
	return job.ID, nil
}
