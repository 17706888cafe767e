package ui

import (
	"encoding/csv"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"churnscope/app"
	"churnscope/domain/core"
	"churnscope/domain/report"
	"churnscope/domain/scoring"
	"churnscope/internal/errors"
	"churnscope/ports"
)

// runSummaryResponse is the list-view payload for one run
type runSummaryResponse struct {
	ID           string `json:"id"`
	Variant      string `json:"variant"`
	Fingerprint  string `json:"fingerprint"`
	RowCount     int    `json:"row_count"`
	ChurnedCount int    `json:"churned_count"`
	CreatedAt    string `json:"created_at"`
}

// tableSummaryResponse is the list-view payload for one stored table
type tableSummaryResponse struct {
	Name     string `json:"name"`
	RowCount int    `json:"row_count"`
	Hash     string `json:"hash"`
}

// triggerRunRequest selects the snapshot for a new run
type triggerRunRequest struct {
	SnapshotID string `json:"snapshot_id"`
}

// triggerRunResponse reports the outcome of a triggered run
type triggerRunResponse struct {
	RunID             string `json:"run_id"`
	SnapshotID        string `json:"snapshot_id"`
	Fingerprint       string `json:"fingerprint"`
	ReplayOf          string `json:"replay_of,omitempty"`
	RowCount          int    `json:"row_count"`
	ChurnedCount      int    `json:"churned_count"`
	QualityViolations int    `json:"quality_violations"`
	DurationMs        int64  `json:"duration_ms"`
	Reports           int    `json:"reports"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filters, err := parseRunFilters(r)
	if err != nil {
		respondError(w, err)
		return
	}

	runs, err := a.reader.ListRuns(r.Context(), filters)
	if err != nil {
		respondError(w, err)
		return
	}

	payload := make([]runSummaryResponse, 0, len(runs))
	for _, summary := range runs {
		payload = append(payload, toRunSummaryResponse(summary))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  payload,
		"count": len(payload),
	})
}

func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := core.RunID(chi.URLParam(r, "id"))

	detail, err := a.reader.GetRun(r.Context(), runID)
	if err != nil {
		respondError(w, err)
		return
	}

	tables := make([]tableSummaryResponse, 0, len(detail.Tables))
	for _, summary := range detail.Tables {
		tables = append(tables, toTableSummaryResponse(summary))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"manifest": detail.Manifest,
		"tables":   tables,
	})
}

func (a *App) handleListReports(w http.ResponseWriter, r *http.Request) {
	runID := core.RunID(chi.URLParam(r, "id"))

	summaries, err := a.reader.ListReports(r.Context(), runID)
	if err != nil {
		respondError(w, err)
		return
	}

	payload := make([]tableSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		payload = append(payload, toTableSummaryResponse(summary))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  runID.String(),
		"reports": payload,
	})
}

func (a *App) handleGetReport(w http.ResponseWriter, r *http.Request) {
	runID := core.RunID(chi.URLParam(r, "id"))
	name := chi.URLParam(r, "name")

	if !report.IsKnown(name) {
		respondError(w, errors.InvalidInput(fmt.Sprintf("unknown report %q", name)))
		return
	}

	table, err := a.reader.GetReport(r.Context(), runID, name)
	if err != nil {
		respondError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeTableCSV(w, table)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":      table.Name,
		"columns":   table.Columns,
		"rows":      table.Rows,
		"row_count": table.RowCount(),
		"hash":      table.Hash().String(),
	})
}

func (a *App) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if a.runner == nil {
		respondJSON(w, http.StatusServiceUnavailable,
			map[string]string{"error": "run trigger requires a database-backed deployment"})
		return
	}

	var req triggerRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !stderrors.Is(err, io.EOF) {
		respondError(w, errors.InvalidInput("request body must be JSON"))
		return
	}

	result, err := a.runner.TriggerRun(r.Context(), app.TriggerRequest{
		SnapshotID: core.SnapshotID(req.SnapshotID),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toTriggerResponse(result))
}

// parseRunFilters reads variant, limit, and offset query parameters
func parseRunFilters(r *http.Request) (ports.RunFilters, error) {
	filters := ports.RunFilters{}

	if v := r.URL.Query().Get("variant"); v != "" {
		variant, err := scoring.ParseVariant(v)
		if err != nil {
			return filters, errors.InvalidInput(fmt.Sprintf("unknown variant %q", v))
		}
		filters.Variant = &variant
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filters, errors.InvalidInput(fmt.Sprintf("invalid limit %q", v))
		}
		filters.Limit = limit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filters, errors.InvalidInput(fmt.Sprintf("invalid offset %q", v))
		}
		filters.Offset = offset
	}

	return filters, nil
}

// writeTableCSV streams a stored table in the same byte layout the CSV
// export sink produces
func writeTableCSV(w http.ResponseWriter, table *report.Table) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", table.Name))

	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		log.Printf("[API] Failed to stream report %s: %v", table.Name, err)
		return
	}
	for _, row := range table.Rows {
		if err := cw.Write(row); err != nil {
			log.Printf("[API] Failed to stream report %s: %v", table.Name, err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("[API] Failed to flush report %s: %v", table.Name, err)
	}
}

func toRunSummaryResponse(s ports.RunSummary) runSummaryResponse {
	return runSummaryResponse{
		ID:           s.ID.String(),
		Variant:      string(s.Variant),
		Fingerprint:  s.Fingerprint.String(),
		RowCount:     s.RowCount,
		ChurnedCount: s.ChurnedCount,
		CreatedAt:    s.CreatedAt.Time().UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func toTableSummaryResponse(s ports.TableSummary) tableSummaryResponse {
	return tableSummaryResponse{
		Name:     s.Name,
		RowCount: s.RowCount,
		Hash:     s.Hash.String(),
	}
}

func toTriggerResponse(result *app.TriggerResult) triggerRunResponse {
	manifest := result.Manifest
	return triggerRunResponse{
		RunID:             manifest.RunID.String(),
		SnapshotID:        manifest.SnapshotID.String(),
		Fingerprint:       manifest.Fingerprint.Fingerprint.String(),
		ReplayOf:          result.ReplayOf.String(),
		RowCount:          manifest.RowCount,
		ChurnedCount:      manifest.ChurnedCount,
		QualityViolations: manifest.QualityViolations,
		DurationMs:        manifest.DurationMs,
		Reports:           len(manifest.TableHashes),
	}
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

// respondError maps application error codes onto HTTP statuses
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeConfigInvalid, errors.CodeSchemaViolation:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Printf("[API] Internal error: %v", err)
	}

	respondJSON(w, status, map[string]string{"error": err.Error()})
}
