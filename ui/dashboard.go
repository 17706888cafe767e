package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"churnscope/domain/core"
	"churnscope/domain/report"
	"churnscope/internal/errors"
	"churnscope/internal/reports"
	"churnscope/ports"
)

//go:embed templates/*.html
var dashboardTemplates embed.FS

// reportPageRows caps how many rows a report page renders inline; the
// CSV download link carries the rest
const reportPageRows = 100

// Dashboard is the human-facing web server: run list, run detail with
// the rendered executive summary, and report table pages.
type Dashboard struct {
	router    *gin.Engine
	reader    ports.ReaderPort
	templates *template.Template
}

// runRow is the template projection of one run summary
type runRow struct {
	ID           string
	Variant      string
	RowCount     int
	ChurnedCount int
	Created      string
	Fingerprint  string
}

// tableRow is the template projection of one stored table summary
type tableRow struct {
	Name     string
	RowCount int
	Hash     string
}

// NewDashboard creates the dashboard server over a run reader
func NewDashboard(reader ports.ReaderPort) (*Dashboard, error) {
	funcMap := template.FuncMap{
		"shortID": func(s string) string {
			if len(s) > 8 {
				return s[:8]
			}
			return s
		},
		"shortHash": func(s string) string {
			if len(s) > 12 {
				return s[:12]
			}
			return s
		},
	}

	templates, err := template.New("").Funcs(funcMap).ParseFS(dashboardTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard templates: %w", err)
	}

	d := &Dashboard{
		router:    gin.Default(),
		reader:    reader,
		templates: templates,
	}

	d.setupRoutes()

	return d, nil
}

// setupRoutes configures the dashboard routes
func (d *Dashboard) setupRoutes() {
	d.router.GET("/", d.handleIndex)
	d.router.GET("/runs/:id", d.handleRunDetail)
	d.router.GET("/runs/:id/reports/:name", d.handleReportPage)
	d.router.GET("/api/runs/:id/reports/:name", d.handleReportCSV)
}

// Start starts the dashboard server
func (d *Dashboard) Start(addr string) error {
	log.Printf("Starting ChurnScope dashboard on http://localhost%s", addr)
	return d.router.Run(addr)
}

// Router exposes the underlying handler for testing
func (d *Dashboard) Router() http.Handler {
	return d.router
}

func (d *Dashboard) handleIndex(c *gin.Context) {
	runs, err := d.reader.ListRuns(c.Request.Context(), ports.RunFilters{Limit: 50})
	if err != nil {
		log.Printf("[Dashboard] Failed to list runs: %v", err)
		c.String(http.StatusInternalServerError, "Failed to load runs")
		return
	}

	rows := make([]runRow, 0, len(runs))
	for _, summary := range runs {
		rows = append(rows, runRow{
			ID:           summary.ID.String(),
			Variant:      string(summary.Variant),
			RowCount:     summary.RowCount,
			ChurnedCount: summary.ChurnedCount,
			Created:      summary.CreatedAt.Time().UTC().Format("2006-01-02 15:04:05"),
			Fingerprint:  summary.Fingerprint.String(),
		})
	}

	d.renderTemplate(c, "index.html", gin.H{
		"Title": "ChurnScope - Runs",
		"Runs":  rows,
	})
}

func (d *Dashboard) handleRunDetail(c *gin.Context) {
	runID := core.RunID(c.Param("id"))

	detail, err := d.reader.GetRun(c.Request.Context(), runID)
	if err != nil {
		d.renderError(c, err, "Failed to load run")
		return
	}

	summaryHTML, err := d.composeSummaryHTML(c, detail)
	if err != nil {
		log.Printf("[Dashboard] Failed to compose summary for run %s: %v", runID, err)
		summaryHTML = template.HTML("<p>Summary unavailable for this run.</p>")
	}

	tables := make([]tableRow, 0, len(detail.Tables))
	for _, summary := range detail.Tables {
		tables = append(tables, tableRow{
			Name:     summary.Name,
			RowCount: summary.RowCount,
			Hash:     summary.Hash.String(),
		})
	}

	manifest := detail.Manifest
	d.renderTemplate(c, "run.html", gin.H{
		"Title":             fmt.Sprintf("ChurnScope - Run %s", manifest.RunID),
		"RunID":             manifest.RunID.String(),
		"SnapshotID":        manifest.SnapshotID.String(),
		"Variant":           string(manifest.Variant),
		"RowCount":          manifest.RowCount,
		"ChurnedCount":      manifest.ChurnedCount,
		"QualityViolations": manifest.QualityViolations,
		"DurationMs":        manifest.DurationMs,
		"CreatedAt":         manifest.CreatedAt.Time().UTC().Format("2006-01-02 15:04:05"),
		"Fingerprint":       manifest.Fingerprint.Fingerprint.String(),
		"Tables":            tables,
		"SummaryHTML":       summaryHTML,
	})
}

func (d *Dashboard) handleReportPage(c *gin.Context) {
	runID := core.RunID(c.Param("id"))
	name := c.Param("name")

	table, err := d.reader.GetReport(c.Request.Context(), runID, name)
	if err != nil {
		d.renderError(c, err, "Failed to load report")
		return
	}

	rows := table.Rows
	truncated := false
	if len(rows) > reportPageRows {
		rows = rows[:reportPageRows]
		truncated = true
	}

	d.renderTemplate(c, "report.html", gin.H{
		"Title":     fmt.Sprintf("ChurnScope - %s", table.Name),
		"RunID":     runID.String(),
		"Name":      table.Name,
		"Columns":   table.Columns,
		"Rows":      rows,
		"TotalRows": table.RowCount(),
		"Truncated": truncated,
	})
}

// handleReportCSV mirrors the API download endpoint so dashboard links
// work on a standalone dashboard deployment
func (d *Dashboard) handleReportCSV(c *gin.Context) {
	runID := core.RunID(c.Param("id"))
	name := c.Param("name")

	table, err := d.reader.GetReport(c.Request.Context(), runID, name)
	if err != nil {
		d.renderError(c, err, "Failed to load report")
		return
	}

	writeTableCSV(c.Writer, table)
}

// composeSummaryHTML rebuilds the stored bundle and renders the executive
// summary markdown as HTML
func (d *Dashboard) composeSummaryHTML(c *gin.Context, detail *ports.RunDetail) (template.HTML, error) {
	bundle := report.NewBundle()
	for _, summary := range detail.Tables {
		table, err := d.reader.GetReport(c.Request.Context(), detail.Manifest.RunID, summary.Name)
		if err != nil {
			return "", err
		}
		bundle.Add(table)
	}

	md := reports.ComposeStoredSummary(&detail.Manifest, bundle)
	return renderMarkdown(md), nil
}

// renderMarkdown converts the executive summary markdown into HTML
func renderMarkdown(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return template.HTML(markdown.Render(doc, renderer))
}

func (d *Dashboard) renderTemplate(c *gin.Context, name string, data gin.H) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := d.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		log.Printf("[Dashboard] Template %s error: %v", name, err)
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

func (d *Dashboard) renderError(c *gin.Context, err error, fallback string) {
	if errors.GetCode(err) == errors.CodeNotFound {
		c.String(http.StatusNotFound, "%s", err.Error())
		return
	}
	log.Printf("[Dashboard] %s: %v", fallback, err)
	c.String(http.StatusInternalServerError, "%s", fallback)
}
