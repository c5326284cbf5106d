// Package background runs company-summary generation off the main question
// flow. Generation happens at most once per session, completion is signaled
// through the session store and a per-session ready channel, and provider
// overload degrades to a restart-oriented message instead of dead-ending
// the chat.
package background

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/bus"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/extract"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/format"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/research"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/resilience"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/session"
)

// Orchestrator is the narrow slice of the research orchestrator the
// coordinator needs; tests substitute a counting fake.
type Orchestrator interface {
	Orchestrate(ctx context.Context, query string, selection research.Selection) (map[string]string, error)
}

const researchPrompt = `Research the company behind %s.

Provide:
1. A concise company summary: what they sell, who they sell to, and how they position themselves.
2. A section titled "Target Audience" with one line per field:
   - Sales Objective:
   - Company Role:
   - Short-Term Goal:
   - Website URL:
   - Go-To-Market Motion:
   - Target Industry:
   - Target Revenue Size:
   - Target Employee Size:
   - Target Departments:
   - Target Region:
   - Target Location:`

// Coordinator owns the per-session at-most-once summary pipeline.
type Coordinator struct {
	store     session.Store
	orch      Orchestrator
	emitter   *bus.Emitter
	selection research.Selection

	mu         sync.Mutex
	processing map[string]bool
	ready      map[string]chan struct{}
}

// New creates a Coordinator. selection may be nil to use every provider.
func New(store session.Store, orch Orchestrator, emitter *bus.Emitter, selection research.Selection) *Coordinator {
	return &Coordinator{
		store:      store,
		orch:       orch,
		emitter:    emitter,
		selection:  selection,
		processing: make(map[string]bool),
		ready:      make(map[string]chan struct{}),
	}
}

// Ready returns a channel that is closed once the session's summary artifact
// is persisted (successfully or degraded). Safe to call before Start.
func (c *Coordinator) Ready(scope string) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyLocked(scope)
}

func (c *Coordinator) readyLocked(scope string) chan struct{} {
	ch, ok := c.ready[scope]
	if !ok {
		ch = make(chan struct{})
		c.ready[scope] = ch
	}
	return ch
}

func (c *Coordinator) signalReady(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := c.readyLocked(scope)
	select {
	case <-ch:
	default:
		close(ch)
	}
}

// Reset forgets in-memory state for a session. Called at session entry so a
// new session gets a fresh ready channel after the store was force-cleared.
func (c *Coordinator) Reset(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.processing, scope)
	delete(c.ready, scope)
}

// Start launches summary generation for the session and returns immediately.
// Completion is observable via Ready and the persisted summary-ready flag,
// never via a return value — the question flow must not block on this.
// Rapid duplicate invocations collapse into one underlying run.
func (c *Coordinator) Start(ctx context.Context, scope string, inputs model.LightningInputs) {
	c.mu.Lock()
	if c.processing[scope] {
		c.mu.Unlock()
		zap.L().Debug("background: generation already in flight", zap.String("scope", scope))
		return
	}
	c.processing[scope] = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.processing, scope)
			c.mu.Unlock()
		}()

		if err := c.run(ctx, scope, inputs); err != nil {
			zap.L().Error("background: summary generation failed",
				zap.String("scope", scope),
				zap.Error(err),
			)
			if c.emitter != nil {
				c.emitter.Post(bus.ChatMessage{
					Scope:   scope,
					Content: format.ErrorRetry("we could not finish researching your company"),
					Type:    bus.TypeError,
				})
			}
		}
	}()
}

func (c *Coordinator) run(ctx context.Context, scope string, inputs model.LightningInputs) error {
	done, err := c.healOrServeCached(ctx, scope)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	identifier := deriveIdentifier(inputs)
	if identifier == "" {
		zap.L().Warn("background: no usable identifier, skipping summary generation",
			zap.String("scope", scope))
		return nil
	}

	query := fmt.Sprintf(researchPrompt, identifier)
	results, err := c.orch.Orchestrate(ctx, query, c.selection)
	if err != nil {
		if resilience.IsServiceUnavailable(err) {
			zap.L().Warn("background: providers unavailable, storing degraded summary",
				zap.String("scope", scope))
			return c.storeArtifact(ctx, scope, model.CompanySummary{
				Raw:      format.ServiceUnavailable(),
				Audience: extract.Defaults(),
				Degraded: true,
			})
		}
		return err
	}

	combined := research.Combine(results)
	if strings.TrimSpace(combined) == "" {
		return c.storeArtifact(ctx, scope, model.CompanySummary{
			Raw:      format.ServiceUnavailable(),
			Audience: extract.Defaults(),
			Degraded: true,
		})
	}

	audience := extract.Extract(combined)
	if audience.WebsiteURL == "" {
		audience.WebsiteURL = inputs.Website
	}

	if err := session.SetJSON(ctx, c.store, scope, session.KeyRawAnalysis, combined); err != nil {
		return err
	}
	if err := session.SetJSON(ctx, c.store, scope, session.KeyTargetAudience, audience); err != nil {
		return err
	}
	return c.storeArtifact(ctx, scope, model.CompanySummary{Raw: combined, Audience: audience})
}

// healOrServeCached enforces the flag/artifact invariant: a ready flag
// without a backing artifact is stale state from a crashed run — clear it
// and regenerate. A flag with its artifact means a repeat request: serve
// from cache by signaling ready without touching the providers.
func (c *Coordinator) healOrServeCached(ctx context.Context, scope string) (done bool, err error) {
	readyFlag, err := session.GetFlag(ctx, c.store, scope, session.KeySummaryReady)
	if err != nil {
		return false, err
	}
	if !readyFlag {
		return false, nil
	}

	var cached model.CompanySummary
	found, err := session.GetJSON(ctx, c.store, scope, session.KeySummary, &cached)
	if err != nil {
		return false, err
	}
	if found {
		zap.L().Debug("background: serving cached summary", zap.String("scope", scope))
		c.signalReady(scope)
		return true, nil
	}

	zap.L().Warn("background: stale ready flag without artifact, regenerating",
		zap.String("scope", scope))
	if err := c.store.Remove(ctx, scope, session.KeySummaryReady); err != nil {
		return false, err
	}
	return false, nil
}

// storeArtifact renders and persists the summary, then sets the ready flag.
// The artifact write strictly precedes the flag write: consumers must never
// observe ready without a stored artifact.
func (c *Coordinator) storeArtifact(ctx context.Context, scope string, artifact model.CompanySummary) error {
	rendered := format.CompanyProfile(artifact.Raw, artifact.Audience)
	html, err := format.RenderHTML(rendered)
	if err != nil {
		return err
	}
	artifact.HTML = html

	if err := session.SetJSON(ctx, c.store, scope, session.KeySummary, artifact); err != nil {
		return err
	}
	if err := session.SetFlag(ctx, c.store, scope, session.KeySummaryReady, true); err != nil {
		return err
	}
	c.signalReady(scope)
	return nil
}

// deriveIdentifier picks the research identifier in priority order:
// explicit website, then email domain, then LinkedIn profile.
func deriveIdentifier(inputs model.LightningInputs) string {
	switch {
	case inputs.Website != "":
		return inputs.Website
	case inputs.Domain != "":
		return "https://" + inputs.Domain
	case inputs.Email != "":
		if at := strings.LastIndex(inputs.Email, "@"); at >= 0 {
			return "https://" + inputs.Email[at+1:]
		}
		return ""
	case inputs.LinkedIn != "":
		return inputs.LinkedIn
	default:
		return ""
	}
}
