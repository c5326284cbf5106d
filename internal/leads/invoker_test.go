package leads

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/bus"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/session"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/pkg/leadsapi"
)

type fakeAPI struct {
	mu      sync.Mutex
	calls   int
	lastReq leadsapi.LeadsRequest
	resp    *leadsapi.LeadsResponse
	err     error
	// gate, when set, blocks GenerateLeads until closed.
	gate  chan struct{}
	saved chan leadsapi.SaveAudienceRequest
}

func (f *fakeAPI) GenerateLeads(ctx context.Context, req leadsapi.LeadsRequest) (*leadsapi.LeadsResponse, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	return f.resp, f.err
}

func (f *fakeAPI) SaveTargetAudience(ctx context.Context, req leadsapi.SaveAudienceRequest) error {
	if f.saved != nil {
		f.saved <- req
	}
	return nil
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAPI) request() leadsapi.LeadsRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

type invokerFixture struct {
	inv    *Invoker
	store  session.Store
	api    *fakeAPI
	msgs   <-chan bus.ChatMessage
	sleeps *[]time.Duration
}

func newInvokerFixture(t *testing.T, api *fakeAPI) *invokerFixture {
	t.Helper()

	st := session.NewMemory()
	emitter := bus.New()
	t.Cleanup(func() { emitter.Close() })
	ch, cancel := emitter.Subscribe()
	t.Cleanup(cancel)

	inv := NewInvoker(st, api, emitter)
	var sleeps []time.Duration
	inv.sleep = func(ctx context.Context, d time.Duration) bool {
		sleeps = append(sleeps, d)
		return true
	}

	ctx := context.Background()
	require.NoError(t, session.SetJSON(ctx, st, "scope", session.KeyInputs,
		model.LightningInputs{Website: "https://acme.com"}))
	require.NoError(t, session.SetJSON(ctx, st, "scope", session.KeyTargetAudience,
		model.TargetAudience{TargetIndustry: "Healthcare", TargetEmployeeSize: "51-200"}))
	require.NoError(t, session.SetJSON(ctx, st, "scope", session.KeySummary,
		model.CompanySummary{Raw: "Acme builds billing software.", HTML: "<p>Acme</p>"}))

	return &invokerFixture{inv: inv, store: st, api: api, msgs: ch, sleeps: &sleeps}
}

func (f *invokerFixture) recv(t *testing.T) bus.ChatMessage {
	t.Helper()
	select {
	case msg := <-f.msgs:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message posted")
		return bus.ChatMessage{}
	}
}

func TestInvoker_GenerateHappyPath(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{resp: &leadsapi.LeadsResponse{Leads: []model.ProspectRecord{
		{Company: "Globex", Website: "globex.io", DecisionMaker: "Jane Doe"},
	}}}
	f := newInvokerFixture(t, api)

	require.NoError(t, f.inv.Generate(context.Background(), "scope"))

	req := api.request()
	assert.Equal(t, "Acme builds billing software.", req.CompanySummary)
	assert.Equal(t, "Medium", req.SizeCategory)
	assert.Equal(t, "scope", req.TrackerAnonID)
	assert.Equal(t, "Healthcare", req.TargetAudience.TargetIndustry)

	grid := f.recv(t)
	assert.Equal(t, bus.TypeLeads, grid.Type)
	assert.True(t, grid.IsStructuredData)
	assert.Equal(t, "scope", grid.Scope)
	assert.Contains(t, grid.Content, "Jane *****")
	assert.NotContains(t, grid.Content, "Jane Doe")

	disclaimer := f.recv(t)
	assert.Equal(t, bus.TypeSystem, disclaimer.Type)

	action := f.recv(t)
	assert.Equal(t, bus.TypeBot, action.Type)

	// Two fixed gaps: grid → disclaimer, disclaimer → action.
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, *f.sleeps)

	var persisted []model.ProspectRecord
	found, err := session.GetJSON(context.Background(), f.store, "scope", session.KeyLeads, &persisted)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, persisted, 1)
	assert.Equal(t, "Jane *****", persisted[0].DecisionMaker)
}

func TestInvoker_RawLeadsParsedAndMasked(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{resp: &leadsapi.LeadsResponse{RawLeads: rawGridFixture()}}
	f := newInvokerFixture(t, api)

	require.NoError(t, f.inv.Generate(context.Background(), "scope"))

	var persisted []model.ProspectRecord
	found, err := session.GetJSON(context.Background(), f.store, "scope", session.KeyLeads, &persisted)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, persisted, 2)
	assert.Equal(t, "Acme", persisted[0].Company)
	assert.Equal(t, "Jane *****", persisted[0].DecisionMaker)
	assert.Equal(t, "Carlos *****", persisted[1].DecisionMaker)
}

func TestInvoker_EmptyResultStopsAfterGrid(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{resp: &leadsapi.LeadsResponse{}}
	f := newInvokerFixture(t, api)

	require.NoError(t, f.inv.Generate(context.Background(), "scope"))

	grid := f.recv(t)
	assert.Equal(t, bus.TypeLeads, grid.Type)
	assert.Contains(t, grid.Content, "No prospects matched")
	assert.Empty(t, *f.sleeps)

	select {
	case msg := <-f.msgs:
		t.Fatalf("unexpected follow-up message: %q", msg.Content)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestInvoker_StatusErrorPostsDetails(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{err: &leadsapi.StatusError{StatusCode: 422, Details: "quota exhausted"}}
	f := newInvokerFixture(t, api)

	err := f.inv.Generate(context.Background(), "scope")
	require.Error(t, err)

	msg := f.recv(t)
	assert.Equal(t, bus.TypeError, msg.Type)
	assert.Contains(t, msg.Content, "quota exhausted")
	assert.Contains(t, msg.Content, "**retry**")
}

func TestInvoker_StatusErrorWithoutDetails(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{err: &leadsapi.StatusError{StatusCode: 502}}
	f := newInvokerFixture(t, api)

	require.Error(t, f.inv.Generate(context.Background(), "scope"))

	msg := f.recv(t)
	assert.Contains(t, msg.Content, "status 502")
}

func TestInvoker_ConcurrentCallsCollapse(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		resp: &leadsapi.LeadsResponse{},
		gate: make(chan struct{}),
	}
	f := newInvokerFixture(t, api)

	done := make(chan error, 1)
	go func() { done <- f.inv.Generate(context.Background(), "scope") }()

	require.Eventually(t, func() bool { return api.callCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	// The guard makes this a no-op while the first round is in flight.
	require.NoError(t, f.inv.Generate(context.Background(), "scope"))

	close(api.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.callCount())
}

func TestInvoker_RetryAllowedAfterFailure(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{err: &leadsapi.StatusError{StatusCode: 500}}
	f := newInvokerFixture(t, api)

	require.Error(t, f.inv.Generate(context.Background(), "scope"))

	api.mu.Lock()
	api.err = nil
	api.resp = &leadsapi.LeadsResponse{}
	api.mu.Unlock()

	require.NoError(t, f.inv.Generate(context.Background(), "scope"))
	assert.Equal(t, 2, api.callCount())
}

func TestInvoker_SavesTargetAudience(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		resp:  &leadsapi.LeadsResponse{},
		saved: make(chan leadsapi.SaveAudienceRequest, 1),
	}
	f := newInvokerFixture(t, api)

	require.NoError(t, f.inv.Generate(context.Background(), "scope"))

	select {
	case req := <-api.saved:
		assert.Equal(t, "Healthcare", req.TargetAudience.TargetIndustry)
		assert.Equal(t, "https://acme.com", req.Inputs.Website)
	case <-time.After(2 * time.Second):
		t.Fatal("target audience never saved")
	}
}

func TestSizeCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"1-10", "Small"},
		{"11-50", "Small"},
		{"51-200", "Medium"},
		{"201-500", "Medium"},
		{"500+", "Medium"},
		{"501-1000", "Large"},
		{"1000+", "Large"},
		{"unknown", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SizeCategory(tt.in), "input %q", tt.in)
	}
}

func TestParseRawGrid(t *testing.T) {
	t.Parallel()

	records := parseRawGrid(rawGridFixture())

	require.Len(t, records, 2)
	assert.Equal(t, "Acme", records[0].Company)
	assert.Equal(t, "acme.com", records[0].Website)
	assert.Equal(t, "Jane Doe", records[0].DecisionMaker)
	assert.Equal(t, "VP Sales", records[0].Designation)
	assert.Equal(t, "Email first", records[0].ApproachStrategy)
	assert.Equal(t, "Globex", records[1].Company)
}

func TestParseRawGrid_NoTable(t *testing.T) {
	t.Parallel()

	assert.Empty(t, parseRawGrid("Sorry, no results this time."))
}
