// Package leads turns a confirmed target profile into a posted prospect
// list: it calls the external generation endpoint, masks contact names,
// persists the sanitized results, and staggers the chat handoff so the grid,
// disclaimer, and call-to-action land as three distinct messages.
package leads

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/bus"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/format"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/resilience"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/session"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/pkg/leadsapi"
)

// Message stagger offsets. Three separate posts read as a deliberate
// handoff rather than one wall of text.
const (
	disclaimerDelay = 500 * time.Millisecond
	actionDelay     = 1000 * time.Millisecond
)

// Invoker drives one lead-generation round per session at a time.
type Invoker struct {
	store   session.Store
	api     leadsapi.Client
	emitter *bus.Emitter

	// sleep is injectable so tests can observe the stagger without waiting.
	sleep func(ctx context.Context, d time.Duration) bool

	mu         sync.Mutex
	generating map[string]bool
}

// NewInvoker wires the invoker over the store, the leads API, and the chat bus.
func NewInvoker(store session.Store, api leadsapi.Client, emitter *bus.Emitter) *Invoker {
	return &Invoker{
		store:      store,
		api:        api,
		emitter:    emitter,
		sleep:      sleepCtx,
		generating: make(map[string]bool),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Generate runs the full round: load session artifacts, call the endpoint,
// sanitize, persist, and post. Concurrent calls for the same scope collapse
// into the one already running; the guard always resets, so a failed round
// can be retried.
func (inv *Invoker) Generate(ctx context.Context, scope string) error {
	inv.mu.Lock()
	if inv.generating[scope] {
		inv.mu.Unlock()
		zap.L().Debug("leads: generation already in flight", zap.String("scope", scope))
		return nil
	}
	inv.generating[scope] = true
	inv.mu.Unlock()
	defer func() {
		inv.mu.Lock()
		delete(inv.generating, scope)
		inv.mu.Unlock()
	}()

	if err := inv.run(ctx, scope); err != nil {
		inv.post(scope, bus.ChatMessage{
			Content: format.ErrorRetry(diagnose(err)),
			Type:    bus.TypeError,
		})
		return err
	}
	return nil
}

func (inv *Invoker) run(ctx context.Context, scope string) error {
	var inputs model.LightningInputs
	if _, err := session.GetJSON(ctx, inv.store, scope, session.KeyInputs, &inputs); err != nil {
		return err
	}

	var audience model.TargetAudience
	if _, err := session.GetJSON(ctx, inv.store, scope, session.KeyTargetAudience, &audience); err != nil {
		return err
	}

	var summary model.CompanySummary
	if _, err := session.GetJSON(ctx, inv.store, scope, session.KeySummary, &summary); err != nil {
		return err
	}

	resp, err := inv.api.GenerateLeads(ctx, leadsapi.LeadsRequest{
		Inputs:         inputs,
		TargetAudience: audience,
		CompanySummary: summary.Raw,
		SizeCategory:   SizeCategory(audience.TargetEmployeeSize),
		TrackerAnonID:  scope,
	})
	if err != nil {
		return err
	}

	records := resp.Leads
	if len(records) == 0 && strings.TrimSpace(resp.RawLeads) != "" {
		records = parseRawGrid(resp.RawLeads)
	}
	SanitizeRecords(records)

	if err := session.SetJSON(ctx, inv.store, scope, session.KeyLeads, records); err != nil {
		return err
	}

	inv.postStaggered(ctx, scope, records)
	inv.saveAudience(inputs, audience)

	zap.L().Info("leads: generation complete",
		zap.String("scope", scope),
		zap.Int("count", len(records)),
	)
	return nil
}

// postStaggered delivers the three-part handoff in order with fixed gaps.
// Session cancellation between posts stops the remainder.
func (inv *Invoker) postStaggered(ctx context.Context, scope string, records []model.ProspectRecord) {
	inv.post(scope, bus.ChatMessage{
		Content:          format.LeadsGrid(records),
		Type:             bus.TypeLeads,
		IsStructuredData: true,
		Data:             records,
	})
	if len(records) == 0 {
		return
	}
	if !inv.sleep(ctx, disclaimerDelay) {
		return
	}
	inv.post(scope, bus.ChatMessage{
		Content: format.LeadsDisclaimer(),
		Type:    bus.TypeSystem,
	})
	if !inv.sleep(ctx, actionDelay-disclaimerDelay) {
		return
	}
	inv.post(scope, bus.ChatMessage{
		Content: format.LeadsAction(),
		Type:    bus.TypeBot,
	})
}

// saveAudience persists the confirmed audience to the CRM endpoint in the
// background. Failures are logged, never surfaced: the chat handoff already
// happened and must not be walked back.
func (inv *Invoker) saveAudience(inputs model.LightningInputs, audience model.TargetAudience) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
			return inv.api.SaveTargetAudience(ctx, leadsapi.SaveAudienceRequest{
				Inputs:         inputs,
				TargetAudience: audience,
			})
		})
		if err != nil {
			zap.L().Warn("leads: save target audience failed", zap.Error(err))
		}
	}()
}

func (inv *Invoker) post(scope string, msg bus.ChatMessage) {
	if inv.emitter != nil {
		msg.Scope = scope
		inv.emitter.Post(msg)
	}
}

func diagnose(err error) string {
	var statusErr *leadsapi.StatusError
	if eris.As(err, &statusErr) {
		if statusErr.Details != "" {
			return statusErr.Details
		}
		return "the lead service returned status " + strconv.Itoa(statusErr.StatusCode)
	}
	return "we could not generate your prospect list"
}

// SizeCategory bands an employee-size range into the coarse category the
// lead service expects.
func SizeCategory(employeeSize string) string {
	bound := firstNumber(employeeSize)
	switch {
	case bound == 0:
		return ""
	case bound <= 50:
		return "Small"
	case bound <= 500:
		return "Medium"
	default:
		return "Large"
	}
}

// firstNumber extracts the leading number of a range like "51-200" or "500+".
func firstNumber(s string) int {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, _ := strconv.Atoi(s[start:i])
			return n
		}
	}
	if start >= 0 {
		n, _ := strconv.Atoi(s[start:])
		return n
	}
	return 0
}

// parseRawGrid recovers prospect records from a pipe-delimited markdown
// table returned as raw text. Rows with the wrong column count are dropped.
func parseRawGrid(raw string) []model.ProspectRecord {
	var records []model.ProspectRecord
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			continue
		}
		cells := strings.Split(trimmed, "|")
		if len(cells) != len(model.ProspectColumns)+2 {
			continue
		}

		row := make([]string, 0, len(model.ProspectColumns))
		for _, cell := range cells[1 : len(cells)-1] {
			row = append(row, strings.TrimSpace(cell))
		}
		if isHeaderCell(row[decisionMakerColumn]) || isSeparatorCell(row[decisionMakerColumn]) {
			continue
		}

		records = append(records, model.ProspectRecord{
			Company:          row[0],
			Website:          row[1],
			Industry:         row[2],
			SubIndustry:      row[3],
			ProductLine:      row[4],
			UseCase:          row[5],
			Employees:        row[6],
			Revenue:          row[7],
			Location:         row[8],
			DecisionMaker:    row[9],
			Designation:      row[10],
			PainPoints:       row[11],
			ApproachStrategy: row[12],
		})
	}
	return records
}
