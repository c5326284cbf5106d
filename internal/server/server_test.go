package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/background"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/bus"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/flow"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/research"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/session"
)

type stubProvider struct {
	name   string
	answer string
	err    error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Research(ctx context.Context, query string) (string, error) {
	return p.answer, p.err
}

type noopLeads struct{}

func (noopLeads) Generate(ctx context.Context, scope string) error { return nil }

// recordingLeads captures the scopes handed to Generate so tests can observe
// background lead requests.
type recordingLeads struct {
	called chan string
}

func newRecordingLeads() *recordingLeads {
	return &recordingLeads{called: make(chan string, 4)}
}

func (r *recordingLeads) Generate(ctx context.Context, scope string) error {
	r.called <- scope
	return nil
}

type serverFixture struct {
	srv   *Server
	store session.Store
	leads *recordingLeads
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	st := session.NewMemory()
	emitter := bus.New()
	t.Cleanup(func() { emitter.Close() })

	orch := research.NewOrchestrator(research.DefaultConfig(), &stubProvider{
		name:   "gpt4o",
		answer: "Acme builds billing software.",
	})
	coord := background.New(st, orch, emitter, nil)
	gen := newRecordingLeads()
	mgr := flow.NewManager(st, coord, emitter, gen, flow.DefaultConfig())

	srv := New(Config{Port: 0}, st, mgr, orch, coord, gen, emitter)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	return &serverFixture{srv: srv, store: st, leads: gen}
}

func (f *serverFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestResearch(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/research", map[string]any{"query": "research acme.com"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["combined"], "Acme builds billing software.")
}

func TestResearch_EmptyQuery(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/research", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResearch_AllProvidersFail(t *testing.T) {
	t.Parallel()

	st := session.NewMemory()
	emitter := bus.New()
	t.Cleanup(func() { emitter.Close() })

	orch := research.NewOrchestrator(research.DefaultConfig(),
		&stubProvider{name: "gpt4o", err: assert.AnError})
	coord := background.New(st, orch, emitter, nil)
	mgr := flow.NewManager(st, coord, emitter, noopLeads{}, flow.DefaultConfig())
	srv := New(Config{}, st, mgr, orch, coord, noopLeads{}, emitter)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	f := &serverFixture{srv: srv, store: st}

	rec := f.do(t, http.MethodPost, "/research", map[string]any{"query": "research acme.com"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestResearch_OnlySelectedProviderFails(t *testing.T) {
	t.Parallel()

	st := session.NewMemory()
	emitter := bus.New()
	t.Cleanup(func() { emitter.Close() })

	orch := research.NewOrchestrator(research.DefaultConfig(),
		&stubProvider{name: "gpt4o", answer: "fine"},
		&stubProvider{name: "gemini", err: assert.AnError},
	)
	coord := background.New(st, orch, emitter, nil)
	mgr := flow.NewManager(st, coord, emitter, noopLeads{}, flow.DefaultConfig())
	srv := New(Config{}, st, mgr, orch, coord, noopLeads{}, emitter)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	f := &serverFixture{srv: srv, store: st}

	rec := f.do(t, http.MethodPost, "/research", map[string]any{
		"query":     "research acme.com",
		"providers": []string{"gemini"},
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSessionStart(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/session/start", map[string]any{
		"scope":   "widget-1",
		"message": "jane@acme.com",
	})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "started", decodeBody(t, rec)["status"])
}

func TestSessionStart_AlreadyActive(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	start := map[string]any{"scope": "widget-1", "message": "jane@acme.com"}
	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/session/start", start).Code)

	rec := f.do(t, http.MethodPost, "/session/start", start)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSessionStart_MissingScope(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/session/start", map[string]any{"message": "jane@acme.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionRespond_NoSession(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/session/respond", map[string]any{
		"scope":   "nobody",
		"message": "1",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessages_PollingWithOffset(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/session/start", map[string]any{
		"scope":   "widget-1",
		"message": "jane@acme.com",
	}).Code)

	// Entry posts at least the engagement notice and the first question; the
	// recorder consumes the bus asynchronously.
	var next float64
	require.Eventually(t, func() bool {
		rec := f.do(t, http.MethodGet, "/session/widget-1/messages", nil)
		if rec.Code != http.StatusOK {
			return false
		}
		body := decodeBody(t, rec)
		msgs := body["messages"].([]any)
		next = body["next_offset"].(float64)
		return len(msgs) >= 2
	}, 2*time.Second, 20*time.Millisecond)

	rec := f.do(t, http.MethodGet, "/session/widget-1/messages?offset="+strconv.Itoa(int(next)), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Empty(t, body["messages"])
}

func TestMessages_UnknownScopeEmpty(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/session/ghost/messages", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Empty(t, body["messages"])
	assert.EqualValues(t, 0, body["next_offset"])
}

func TestSummary_NotReady(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/session/widget-1/summary", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummary_Served(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	require.NoError(t, session.SetJSON(context.Background(), f.store, "widget-1", session.KeySummary,
		model.CompanySummary{Raw: "Acme", HTML: "<p>Acme</p>"}))

	rec := f.do(t, http.MethodGet, "/session/widget-1/summary", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var summary model.CompanySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "<p>Acme</p>", summary.HTML)
}

func TestLeadsExport_NoLeads(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/session/widget-1/leads.xlsx", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeadsExport_ServesWorkbook(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	require.NoError(t, session.SetJSON(context.Background(), f.store, "widget-1", session.KeyLeads,
		[]model.ProspectRecord{{Company: "Acme", DecisionMaker: "Jane *****"}}))

	rec := f.do(t, http.MethodGet, "/session/widget-1/leads.xlsx", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "prospects.xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestCompanySummary_ServedFromCache(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	require.NoError(t, session.SetJSON(context.Background(), f.store, "widget-1", session.KeySummary,
		model.CompanySummary{Raw: "Acme", HTML: "<p>Acme</p>"}))

	rec := f.do(t, http.MethodPost, "/company-summary", map[string]any{"scope": "widget-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	var summary model.CompanySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "<p>Acme</p>", summary.HTML)
}

func TestCompanySummary_StartsGeneration(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/company-summary", map[string]any{
		"scope":   "widget-1",
		"message": "jane@acme.com",
	})

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "generating", decodeBody(t, rec)["status"])

	require.Eventually(t, func() bool {
		var summary model.CompanySummary
		found, err := session.GetJSON(context.Background(), f.store, "widget-1", session.KeySummary, &summary)
		return err == nil && found
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCompanySummary_NoIdentifiers(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/company-summary", map[string]any{
		"scope":   "widget-1",
		"message": "hello there",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompanySummary_UncachedWithoutMessage(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/company-summary", map[string]any{"scope": "widget-1"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeadsGenerate_WithoutAudience(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/leads", map[string]any{"scope": "widget-1"})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLeadsGenerate_StartsGeneration(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	require.NoError(t, session.SetJSON(context.Background(), f.store, "widget-1", session.KeyTargetAudience,
		model.TargetAudience{TargetIndustry: "Software", TargetRegion: "NA"}))

	rec := f.do(t, http.MethodPost, "/leads", map[string]any{"scope": "widget-1"})

	require.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case scope := <-f.leads.called:
		assert.Equal(t, "widget-1", scope)
	case <-time.After(2 * time.Second):
		t.Fatal("lead generation was never invoked")
	}
}

func TestSaveTargetAudience_Persists(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/save-target-audience", map[string]any{
		"scope": "widget-1",
		"targetAudienceData": map[string]any{
			"target_industry": "Healthcare",
			"target_region":   "EU",
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "saved", decodeBody(t, rec)["status"])

	var audience model.TargetAudience
	found, err := session.GetJSON(context.Background(), f.store, "widget-1", session.KeyTargetAudience, &audience)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Healthcare", audience.TargetIndustry)
}

func TestSaveTargetAudience_MissingScope(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/save-target-audience", map[string]any{
		"targetAudienceData": map[string]any{"target_industry": "Healthcare"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessageLog_OffsetsSurviveTruncation(t *testing.T) {
	t.Parallel()

	l := &messageLog{byScope: make(map[string]*scopeLog)}
	for i := 0; i < 10; i++ {
		l.append(bus.ChatMessage{Scope: "widget-1", Content: fmt.Sprintf("m%d", i)})
	}

	first, next := l.since("widget-1", 0)
	require.Len(t, first, 10)
	require.Equal(t, 10, next)

	// Push the log past its cap so the oldest entries are dropped.
	for i := 10; i < 10+logCap; i++ {
		l.append(bus.ChatMessage{Scope: "widget-1", Content: fmt.Sprintf("m%d", i)})
	}

	msgs, next := l.since("widget-1", 10)
	require.Len(t, msgs, logCap)
	assert.Equal(t, "m10", msgs[0].Content)
	assert.Equal(t, 10+logCap, next)

	// A stale offset from before the retained tail resumes at the oldest
	// retained message instead of replaying from zero.
	stale, _ := l.since("widget-1", 3)
	require.Len(t, stale, logCap)
	assert.Equal(t, "m10", stale[0].Content)

	// Fully caught up.
	tail, _ := l.since("widget-1", next)
	assert.Empty(t, tail)
}

func TestSessions_Listing(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/session/start", map[string]any{
		"scope":   "widget-1",
		"message": "jane@acme.com",
	}).Code)

	rec := f.do(t, http.MethodGet, "/sessions", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["sessions"])
}
