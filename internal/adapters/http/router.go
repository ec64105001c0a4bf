package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shahabnazari/blackqm-theme-engine/internal/adapters/export/xlsx"
	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
	"github.com/shahabnazari/blackqm-theme-engine/internal/core/ports"
	"github.com/shahabnazari/blackqm-theme-engine/internal/core/usecase"
	"github.com/shahabnazari/blackqm-theme-engine/internal/observability/metrics"
)

type Router struct {
	extractUC ports.ThemeExtractionService
	submitUC  *usecase.SubmitRunUseCase
	reader    ports.RunReader
	exporter  *xlsx.Exporter
	metrics   *metrics.HTTPServerMetrics
	service   string
}

func NewRouter(
	extractUC ports.ThemeExtractionService,
	submitUC *usecase.SubmitRunUseCase,
	reader ports.RunReader,
	httpMetrics *metrics.HTTPServerMetrics,
	service string,
) *Router {
	return &Router{
		extractUC: extractUC,
		submitUC:  submitUC,
		reader:    reader,
		exporter:  xlsx.NewExporter(),
		metrics:   httpMetrics,
		service:   service,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/extractions", rt.extractSync)
	mux.HandleFunc("/v1/extractions/async", rt.submitAsync)
	mux.HandleFunc("/v1/extractions/", rt.getRun)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) extractSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.ExtractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	result, err := rt.extractUC.Extract(r.Context(), req)
	if rt.metrics != nil {
		themes := 0
		if result != nil {
			themes = len(result.Themes)
		}
		rt.metrics.RecordExtraction(rt.service, string(req.Purpose), themes, time.Since(start), err)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) submitAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.ExtractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	run, err := rt.submitUC.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, run)
}

func (rt *Router) getRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/extractions/")
	id, tail, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "run id is required"})
		return
	}

	switch tail {
	case "":
		run, err := rt.reader.GetRun(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
	case "result":
		result, err := rt.reader.GetResult(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	case "export":
		result, err := rt.reader.GetResult(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="themes-`+id+`.xlsx"`)
		if err := rt.exporter.Write(w, result); err != nil {
			slog.Error("export_write_failed", "run_id", id, "error", err)
		}
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
