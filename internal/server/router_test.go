package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/vburojevic/mscope/internal/domain"
	"github.com/vburojevic/mscope/internal/history"
	"github.com/vburojevic/mscope/internal/ident"
	"github.com/vburojevic/mscope/internal/scan"
	"github.com/vburojevic/mscope/internal/session"
)

type harness struct {
	t    *testing.T
	ctrl *session.Controller
	h    http.Handler
}

func newHarness(t *testing.T, src scan.Source) *harness {
	t.Helper()
	if src == nil {
		clk := clock.NewMock()
		clk.Set(time.Date(2026, 4, 2, 6, 0, 0, 0, time.UTC))
		src = scan.NewMockSource(scan.WithSeed(7), scan.WithClock(clk), scan.WithIDs(ident.Sequence("scan_")))
	}
	ctrl := session.New(src, history.NewMemory(), session.WithIDGenerator(ident.Sequence("history_")))
	t.Cleanup(ctrl.Close)
	return &harness{
		t:    t,
		ctrl: ctrl,
		h:    NewRouter(ctrl, Options{AllowedOrigins: []string{"https://lab.example"}}),
	}
}

func (h *harness) do(method, path, body string) (*http.Response, string) {
	h.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	res := rec.Result()
	b, err := io.ReadAll(res.Body)
	require.NoError(h.t, err)
	return res, string(b)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	res, body := h.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestStateLifecycle(t *testing.T) {
	h := newHarness(t, nil)

	_, body := h.do(http.MethodGet, "/v1/state", "")
	assert.Equal(t, "loading", gjson.Get(body, "phase").String())
	assert.Equal(t, "home", gjson.Get(body, "page").String())
	assert.Equal(t, "welcome", gjson.Get(body, "subview").String())

	_, body = h.do(http.MethodPost, "/v1/loading/finish", "")
	assert.Equal(t, "ready", gjson.Get(body, "phase").String())

	_, body = h.do(http.MethodPost, "/v1/intro/ack", "")
	assert.Equal(t, "awaiting_scan", gjson.Get(body, "subview").String())
}

func TestScanAndCurrent(t *testing.T) {
	h := newHarness(t, nil)

	res, body := h.do(http.MethodGet, "/v1/current", "")
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "NO_ACTIVE_RESULT", gjson.Get(body, "code").String())
	assert.Equal(t, "error", gjson.Get(body, "type").String())

	res, body = h.do(http.MethodPost, "/v1/scan", "")
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	id := gjson.Get(body, "result.id").String()
	assert.Equal(t, "scan_1", id)
	total := gjson.Get(body, "result.totalOrganisms").Int()
	assert.GreaterOrEqual(t, total, int64(50))
	assert.Equal(t, id, gjson.Get(body, "stats.resultId").String())

	_, body = h.do(http.MethodGet, "/v1/current", "")
	assert.Equal(t, id, gjson.Get(body, "result.id").String())

	_, body = h.do(http.MethodGet, "/v1/current/stats", "")
	assert.Equal(t, "stats", gjson.Get(body, "type").String())
	assert.Equal(t, int64(5), gjson.Get(body, "shares.#").Int())

	_, body = h.do(http.MethodGet, "/v1/state", "")
	assert.Equal(t, "dashboard", gjson.Get(body, "subview").String())
	assert.Equal(t, id, gjson.Get(body, "currentId").String())
}

func TestScanFailureMapsToBadGateway(t *testing.T) {
	h := newHarness(t, scan.Unavailable("lamp failure"))

	res, body := h.do(http.MethodPost, "/v1/scan", "")
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Equal(t, "ACQUISITION_ERROR", gjson.Get(body, "code").String())
}

func TestInvalidResultMapsTo422(t *testing.T) {
	h := newHarness(t, scan.SourceFunc(func(context.Context) (domain.AnalysisResult, error) {
		return domain.NewAnalysisResult(domain.ResultSpec{ID: "bad", TotalOrganisms: -1})
	}))

	res, body := h.do(http.MethodPost, "/v1/scan", "")
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(t, "INVALID_RESULT", gjson.Get(body, "code").String())
}

func TestSaveAndHistory(t *testing.T) {
	h := newHarness(t, nil)

	res, body := h.do(http.MethodPost, "/v1/save", `{"name":"Dock-A-5"}`)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "NO_ACTIVE_RESULT", gjson.Get(body, "code").String())

	_, body = h.do(http.MethodPost, "/v1/scan", "")
	firstID := gjson.Get(body, "result.id").String()

	res, body = h.do(http.MethodPost, "/v1/save", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "EMPTY_NAME", gjson.Get(body, "code").String())

	res, body = h.do(http.MethodPost, "/v1/save", `{"name":" Dock-A-5 "}`)
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	entryID := gjson.Get(body, "entry.id").String()
	assert.Equal(t, "history_1", entryID)
	assert.Equal(t, "Dock-A-5", gjson.Get(body, "entry.name").String())
	assert.Equal(t, firstID, gjson.Get(body, "entry.data.id").String())

	_, _ = h.do(http.MethodPost, "/v1/scan", "")
	_, body = h.do(http.MethodPost, "/v1/save", `{"name":"Bay-Sample-001"}`)
	assert.Equal(t, "history_2", gjson.Get(body, "entry.id").String())

	_, body = h.do(http.MethodGet, "/v1/history", "")
	assert.Equal(t, int64(2), gjson.Get(body, "entries.#").Int())
	assert.Equal(t, "Bay-Sample-001", gjson.Get(body, "entries.0.name").String())
	assert.Equal(t, "Dock-A-5", gjson.Get(body, "entries.1.name").String())

	res, body = h.do(http.MethodGet, "/v1/history?pattern=%5EBay", "")
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Equal(t, int64(1), gjson.Get(body, "entries.#").Int())
	assert.Equal(t, "Bay-Sample-001", gjson.Get(body, "entries.0.name").String())

	_, body = h.do(http.MethodGet, "/v1/history?where=name%3DDock-A-5&exclude=Bay", "")
	assert.Equal(t, "Dock-A-5", gjson.Get(body, "entries.0.name").String())

	res, body = h.do(http.MethodGet, "/v1/history?where=pid%3D1", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "INVALID_FILTER", gjson.Get(body, "code").String())

	_, body = h.do(http.MethodGet, "/v1/history/"+entryID, "")
	assert.Equal(t, firstID, gjson.Get(body, "entry.data.id").String())

	res, body = h.do(http.MethodPost, "/v1/history/"+entryID+"/select", "")
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Equal(t, firstID, gjson.Get(body, "result.id").String())

	_, body = h.do(http.MethodGet, "/v1/current", "")
	assert.Equal(t, firstID, gjson.Get(body, "result.id").String())
}

func TestHistoryNotFound(t *testing.T) {
	h := newHarness(t, nil)
	_, _ = h.do(http.MethodPost, "/v1/scan", "")
	_, before := h.do(http.MethodGet, "/v1/current", "")

	res, body := h.do(http.MethodGet, "/v1/history/nonexistent-id", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "NOT_FOUND", gjson.Get(body, "code").String())

	res, _ = h.do(http.MethodPost, "/v1/history/nonexistent-id/select", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	_, after := h.do(http.MethodGet, "/v1/current", "")
	assert.Equal(t, before, after)
}

func TestNavigate(t *testing.T) {
	h := newHarness(t, nil)

	res, body := h.do(http.MethodPost, "/v1/navigate", `{"page":"History"}`)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Equal(t, "history", gjson.Get(body, "page").String())

	res, body = h.do(http.MethodPost, "/v1/navigate", `{"page":"settings"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "UNKNOWN_PAGE", gjson.Get(body, "code").String())

	res, body = h.do(http.MethodPost, "/v1/navigate", `{"page":`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "BAD_REQUEST", gjson.Get(body, "code").String())

	res, _ = h.do(http.MethodPost, "/v1/navigate", `{"page":"about","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestExport(t *testing.T) {
	h := newHarness(t, nil)

	res, _ := h.do(http.MethodGet, "/v1/current/export?format=csv", "")
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	_, body := h.do(http.MethodPost, "/v1/scan", "")
	id := gjson.Get(body, "result.id").String()

	res, body = h.do(http.MethodGet, "/v1/current/export?format=excel", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "analysis-"+id+".csv")
	assert.True(t, strings.HasPrefix(body, "id,"+id+"\n"))

	res, body = h.do(http.MethodGet, "/v1/current/export?format=ndjson", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "stats", gjson.Get(lines[1], "type").String())

	res, body = h.do(http.MethodGet, "/v1/current/export?format=pdf", "")
	assert.Equal(t, http.StatusNotImplemented, res.StatusCode)
	assert.Equal(t, "UNSUPPORTED_FORMAT", gjson.Get(body, "code").String())

	res, _ = h.do(http.MethodGet, "/v1/current/export?format=docx", "")
	assert.Equal(t, http.StatusNotImplemented, res.StatusCode)
}

func TestClosedSessionMapsTo503(t *testing.T) {
	h := newHarness(t, nil)
	h.ctrl.Close()

	res, body := h.do(http.MethodPost, "/v1/scan", "")
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.Equal(t, "SESSION_CLOSED", gjson.Get(body, "code").String())
}

func TestCORS(t *testing.T) {
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/state", nil)
	req.Header.Set("Origin", "https://lab.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	assert.Equal(t, "https://lab.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/v1/state", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{errors.New("boom"), http.StatusInternalServerError, domain.CodeInternal},
		{domain.ErrNoSaveInProgress, http.StatusConflict, domain.CodeNoSaveInProgress},
		{fmt.Errorf("append: %w", domain.ErrInvalidEntry), http.StatusBadRequest, domain.CodeInvalidEntry},
		{domain.ErrUnsupportedFormat, http.StatusNotImplemented, domain.CodeUnsupportedFormat},
	}
	for _, tt := range tests {
		status, code := classify(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestSaveDoesNotDisturbOpenWorkflow(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, _ = h.do(http.MethodPost, "/v1/scan", "")

	w, err := h.ctrl.RequestSave()
	require.NoError(t, err)

	res, body := h.do(http.MethodPost, "/v1/save", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "EMPTY_NAME", gjson.Get(body, "code").String())

	_, body = h.do(http.MethodGet, "/v1/state", "")
	assert.True(t, gjson.Get(body, "saving").Bool())

	res, body = h.do(http.MethodPost, "/v1/save", `{"name":"Bay-Sample-001"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	entry, err := w.Confirm(ctx, "Dock-A-5")
	require.NoError(t, err)
	assert.Equal(t, "Dock-A-5", entry.Name())

	_, err = w.Confirm(ctx, "again")
	require.ErrorIs(t, err, domain.ErrNoSaveInProgress)

	_, body = h.do(http.MethodGet, "/v1/history", "")
	assert.Equal(t, int64(2), gjson.Get(body, "entries.#").Int())
	assert.Equal(t, "Dock-A-5", gjson.Get(body, "entries.0.name").String())
}

func TestServerServeShutdown(t *testing.T) {
	h := newHarness(t, nil)
	srv := New("127.0.0.1:0", h.ctrl, Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	res, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
