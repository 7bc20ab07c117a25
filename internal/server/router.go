// Package server exposes a dashboard session over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vburojevic/mscope/internal/domain"
	"github.com/vburojevic/mscope/internal/filter"
	"github.com/vburojevic/mscope/internal/output"
	"github.com/vburojevic/mscope/internal/session"
	"go.uber.org/zap"
)

const codeBadRequest = "BAD_REQUEST"

var errBadRequest = errors.New("bad request")

// Router serves the session API.
type Router struct {
	ctrl   *session.Controller
	logger *zap.Logger
}

// Options configures the handler.
type Options struct {
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter returns the HTTP handler for ctrl.
func NewRouter(ctrl *session.Controller, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{ctrl: ctrl, logger: logger}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(r.logRequests)
	if len(opts.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/state", r.wrap(r.handleState))
		rt.Post("/loading/finish", r.wrap(r.handleFinishLoading))
		rt.Post("/intro/ack", r.wrap(r.handleAcknowledgeIntro))
		rt.Post("/scan", r.wrap(r.handleScan))
		rt.Get("/current", r.wrap(r.handleCurrent))
		rt.Get("/current/stats", r.wrap(r.handleCurrentStats))
		rt.Get("/current/export", r.wrap(r.handleExport))
		rt.Post("/navigate", r.wrap(r.handleNavigate))
		rt.Post("/save", r.wrap(r.handleSave))
		rt.Get("/history", r.wrap(r.handleHistory))
		rt.Get("/history/{id}", r.wrap(r.handleHistoryEntry))
		rt.Post("/history/{id}/select", r.wrap(r.handleSelectHistory))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, code := classify(err)
			if status == http.StatusInternalServerError {
				r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			}
			writeJSON(w, status, &output.ErrorOutput{
				Type:          "error",
				SchemaVersion: output.SchemaVersion,
				Code:          code,
				Message:       err.Error(),
			})
		}
	}
}

// classify maps err onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.CodeNotFound
	case errors.Is(err, domain.ErrNoActiveResult):
		return http.StatusConflict, domain.CodeNoActiveResult
	case errors.Is(err, domain.ErrScanInProgress):
		return http.StatusConflict, domain.CodeScanInProgress
	case errors.Is(err, domain.ErrNoSaveInProgress):
		return http.StatusConflict, domain.CodeNoSaveInProgress
	case errors.Is(err, domain.ErrInvalidEntry):
		return http.StatusBadRequest, domain.CodeInvalidEntry
	case errors.Is(err, domain.ErrEmptyName):
		return http.StatusBadRequest, domain.CodeEmptyName
	case errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest, domain.CodeInvalidFilter
	case errors.Is(err, domain.ErrUnknownPage):
		return http.StatusBadRequest, domain.CodeUnknownPage
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusNotImplemented, domain.CodeUnsupportedFormat
	case errors.Is(err, domain.ErrInvalidResult):
		return http.StatusUnprocessableEntity, domain.CodeInvalidResult
	case errors.Is(err, domain.ErrAcquisition):
		return http.StatusBadGateway, domain.CodeAcquisition
	case errors.Is(err, domain.ErrDisposed):
		return http.StatusServiceUnavailable, domain.CodeDisposed
	default:
		return http.StatusInternalServerError, domain.CodeInternal
	}
}

func (r *Router) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		r.logger.Debug("http request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(req.Context())))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func decodeBody(w http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func stateOf(v session.View) *output.StateOutput {
	s := &output.StateOutput{
		Type:          "state",
		SchemaVersion: output.SchemaVersion,
		Phase:         v.Phase.String(),
		Page:          v.Page.String(),
		Subview:       v.Subview.String(),
		Saving:        v.Saving,
		Scanning:      v.Scanning,
		HistoryCount:  v.HistoryCount,
	}
	if v.Current != nil {
		s.CurrentID = v.Current.ID()
	}
	return s
}

// GET /v1/state
func (r *Router) handleState(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, stateOf(r.ctrl.View()))
	return nil
}

// POST /v1/loading/finish
func (r *Router) handleFinishLoading(w http.ResponseWriter, _ *http.Request) error {
	if err := r.ctrl.FinishLoading(); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stateOf(r.ctrl.View()))
	return nil
}

// POST /v1/intro/ack
func (r *Router) handleAcknowledgeIntro(w http.ResponseWriter, _ *http.Request) error {
	if err := r.ctrl.AcknowledgeIntro(); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stateOf(r.ctrl.View()))
	return nil
}

type resultResponse struct {
	Type          string                `json:"type"` // Always "result"
	SchemaVersion int                   `json:"schemaVersion"`
	Result        domain.AnalysisResult `json:"result"`
	Stats         *output.StatsOutput   `json:"stats"`
}

func resultOf(res domain.AnalysisResult) *resultResponse {
	return &resultResponse{
		Type:          "result",
		SchemaVersion: output.SchemaVersion,
		Result:        res,
		Stats:         output.NewStatsOutput(res, domain.ComputeStatistics(res)),
	}
}

// POST /v1/scan
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) error {
	res, err := r.ctrl.RequestScan(req.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, resultOf(res))
	return nil
}

// GET /v1/current
func (r *Router) handleCurrent(w http.ResponseWriter, _ *http.Request) error {
	res, ok := r.ctrl.Current()
	if !ok {
		return domain.ErrNoActiveResult
	}
	writeJSON(w, http.StatusOK, resultOf(res))
	return nil
}

// GET /v1/current/stats
func (r *Router) handleCurrentStats(w http.ResponseWriter, _ *http.Request) error {
	res, ok := r.ctrl.Current()
	if !ok {
		return domain.ErrNoActiveResult
	}
	writeJSON(w, http.StatusOK, output.NewStatsOutput(res, domain.ComputeStatistics(res)))
	return nil
}

// GET /v1/current/export?format=csv
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	name := req.URL.Query().Get("format")
	if name == "" {
		name = string(output.FormatCSV)
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	if format == output.FormatPDF {
		return fmt.Errorf("%w: pdf", domain.ErrUnsupportedFormat)
	}
	res, ok := r.ctrl.Current()
	if !ok {
		return domain.ErrNoActiveResult
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+output.ExportFileName(res, format)+`"`)
	return output.Export(w, format, res)
}

// POST /v1/navigate {"page":"history"}
func (r *Router) handleNavigate(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Page string `json:"page"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	page, err := domain.ParsePage(body.Page)
	if err != nil {
		return err
	}
	if err := r.ctrl.Navigate(page); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stateOf(r.ctrl.View()))
	return nil
}

// POST /v1/save {"name":"Dock-A-5"}
func (r *Router) handleSave(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	entry, err := r.ctrl.SaveAs(req.Context(), body.Name)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, &output.HistoryOutput{
		Type:          "history",
		SchemaVersion: output.SchemaVersion,
		Entry:         entry,
	})
	return nil
}

// GET /v1/history?where=risk>=moderate&species=Dino*
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	pipeline, err := filter.Build(filter.Options{
		Pattern:  q.Get("pattern"),
		Exclude:  q["exclude"],
		Where:    q["where"],
		Risk:     q.Get("risk"),
		Species:  q["species"],
		Location: q.Get("location"),
	})
	if err != nil {
		return err
	}
	entries := make([]*output.HistorySummaryOutput, 0)
	for _, e := range pipeline.Select(r.ctrl.History()) {
		entries = append(entries, output.NewHistorySummary(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"type":          "history_list",
		"schemaVersion": output.SchemaVersion,
		"entries":       entries,
	})
	return nil
}

// GET /v1/history/{id}
func (r *Router) handleHistoryEntry(w http.ResponseWriter, req *http.Request) error {
	entry, err := r.ctrl.FindHistory(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, &output.HistoryOutput{
		Type:          "history",
		SchemaVersion: output.SchemaVersion,
		Entry:         entry,
	})
	return nil
}

// POST /v1/history/{id}/select
func (r *Router) handleSelectHistory(w http.ResponseWriter, req *http.Request) error {
	res, err := r.ctrl.SelectHistory(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, resultOf(res))
	return nil
}
