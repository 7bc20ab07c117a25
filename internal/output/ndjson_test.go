package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/vburojevic/mscope/internal/domain"
)

func sampleResult(t *testing.T) domain.AnalysisResult {
	t.Helper()
	r, err := domain.NewAnalysisResult(domain.ResultSpec{
		ID:             "scan_1",
		ImageRef:       "https://placehold.co/600x400?text=Microscope+Feed+7",
		TotalOrganisms: 80,
		UniqueSpecies:  9,
		HighRiskAlerts: []domain.RiskAlert{
			{Name: "Dinophysis", Species: "Dinoflagellate", Count: 5, RiskLevel: domain.RiskHigh},
		},
		Environmental: domain.Environmental{
			Location:    "13.0827° N, 80.2707° E",
			Temperature: "28.1°C",
			Timestamp:   time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
		SpeciesDistribution: []domain.SpeciesCount{
			{Name: "Chaetoceros", Count: 30},
			{Name: "Thalassiosira", Count: 25},
			{Name: "Prorocentrum", Count: 15},
			{Name: "Dinophysis", Count: 5},
			{Name: "Other", Count: 5},
		},
	})
	require.NoError(t, err)
	return r
}

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestNDJSONWriter_WriteResult(t *testing.T) {
	var buf bytes.Buffer
	w := NewNDJSONWriter(&buf)
	r := sampleResult(t)

	require.NoError(t, w.WriteResult(r))

	line := buf.String()
	assert.Equal(t, "result", gjson.Get(line, "type").String())
	assert.Equal(t, int64(SchemaVersion), gjson.Get(line, "schemaVersion").Int())
	assert.Equal(t, "scan_1", gjson.Get(line, "result.id").String())
	assert.Equal(t, int64(80), gjson.Get(line, "result.totalOrganisms").Int())
	assert.Equal(t, "High", gjson.Get(line, "result.highRiskAlerts.0.risk").String())
	assert.Equal(t, int64(5), gjson.Get(line, "result.speciesDistribution.#").Int())
	// URLs are not HTML-escaped.
	assert.Contains(t, line, "600x400?text=Microscope+Feed+7")
}

func TestNDJSONWriter_WriteStats(t *testing.T) {
	var buf bytes.Buffer
	w := NewNDJSONWriter(&buf)
	r := sampleResult(t)

	require.NoError(t, w.WriteStats(r, domain.ComputeStatistics(r)))

	line := buf.String()
	assert.Equal(t, "stats", gjson.Get(line, "type").String())
	assert.Equal(t, "scan_1", gjson.Get(line, "resultId").String())
	assert.Equal(t, int64(80), gjson.Get(line, "total").Int())
	assert.Equal(t, int64(6), gjson.Get(line, `shares.#(name=="Dinophysis").percentage`).Int())
	assert.Equal(t, int64(38), gjson.Get(line, `shares.#(name=="Chaetoceros").percentage`).Int())
	assert.Equal(t, int64(100), gjson.Get(line, "percentSum").Int())
}

func TestNDJSONWriter_WriteHistory(t *testing.T) {
	var buf bytes.Buffer
	w := NewNDJSONWriter(&buf)
	e, err := domain.NewHistoryEntry("history_1", "Dock-A-5", time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), sampleResult(t))
	require.NoError(t, err)

	require.NoError(t, w.WriteHistorySummary(e))
	require.NoError(t, w.WriteHistoryEntry(e))

	out := lines(&buf)
	require.Len(t, out, 2)

	assert.Equal(t, "history_entry", gjson.Get(out[0], "type").String())
	assert.Equal(t, "Dock-A-5", gjson.Get(out[0], "name").String())
	assert.Equal(t, "2026-03-14T10:00:00Z", gjson.Get(out[0], "savedAt").String())
	assert.Equal(t, "scan_1", gjson.Get(out[0], "resultId").String())
	assert.False(t, gjson.Get(out[0], "data").Exists())

	assert.Equal(t, "history", gjson.Get(out[1], "type").String())
	assert.Equal(t, "history_1", gjson.Get(out[1], "entry.id").String())
	assert.Equal(t, "scan_1", gjson.Get(out[1], "entry.data.id").String())
}

func TestNDJSONWriter_WriteError(t *testing.T) {
	t.Run("with hint", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewNDJSONWriter(&buf).WriteError(domain.CodeEmptyName, "sample name must not be empty", "pass --save NAME"))
		line := buf.String()
		assert.Equal(t, "error", gjson.Get(line, "type").String())
		assert.Equal(t, "EMPTY_NAME", gjson.Get(line, "code").String())
		assert.Equal(t, "pass --save NAME", gjson.Get(line, "hint").String())
	})

	t.Run("omits empty hint", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewNDJSONWriter(&buf).WriteError("NOT_FOUND", "missing"))
		assert.NotContains(t, buf.String(), `"hint"`)
	})
}

func TestNDJSONWriter_AllTypesHaveSchemaVersion(t *testing.T) {
	var buf bytes.Buffer
	w := NewNDJSONWriter(&buf)
	r := sampleResult(t)
	e, err := domain.NewHistoryEntry("history_1", "x", time.Now(), r)
	require.NoError(t, err)

	require.NoError(t, w.WriteResult(r))
	require.NoError(t, w.WriteStats(r, domain.ComputeStatistics(r)))
	require.NoError(t, w.WriteHistoryEntry(e))
	require.NoError(t, w.WriteHistorySummary(e))
	require.NoError(t, w.WriteState(&StateOutput{Phase: "ready", Page: "home", Subview: "dashboard"}))
	require.NoError(t, w.WriteError("E", "m"))
	require.NoError(t, w.WriteInfo("saved", "/tmp/x"))
	require.NoError(t, w.WriteWarning("careful"))
	require.NoError(t, w.WriteMetadata("1.0.0", "abc", ""))

	seen := map[string]bool{}
	for _, line := range lines(&buf) {
		require.True(t, gjson.Valid(line), line)
		typ := gjson.Get(line, "type").String()
		require.NotEmpty(t, typ, line)
		assert.Equal(t, int64(SchemaVersion), gjson.Get(line, "schemaVersion").Int(), typ)
		seen[typ] = true
	}
	for _, typ := range []string{"result", "stats", "history", "history_entry", "state", "error", "info", "warning", "metadata"} {
		assert.True(t, seen[typ], "missing %s", typ)
	}
}

func TestEmitter(t *testing.T) {
	r := sampleResult(t)

	var jbuf bytes.Buffer
	je := NewEmitter(&jbuf, "ndjson")
	assert.True(t, je.JSON())
	require.NoError(t, je.Result(r))
	out := lines(&jbuf)
	require.Len(t, out, 2)
	assert.Equal(t, "result", gjson.Get(out[0], "type").String())
	assert.Equal(t, "stats", gjson.Get(out[1], "type").String())

	var tbuf bytes.Buffer
	te := NewEmitter(&tbuf, "text")
	assert.False(t, te.JSON())
	require.NoError(t, te.Result(r))
	assert.Contains(t, tbuf.String(), "Chaetoceros")
	assert.Contains(t, tbuf.String(), "38%")

	tbuf.Reset()
	require.NoError(t, te.History(nil))
	assert.Contains(t, tbuf.String(), "No saved samples yet.")

	tbuf.Reset()
	require.NoError(t, te.Error("NOT_FOUND", "history entry not found", "run history list"))
	assert.Contains(t, tbuf.String(), "[NOT_FOUND]")
	assert.Contains(t, tbuf.String(), "run history list")
}
