// Package flow drives the Lightning question sequence: entry, three fixed
// questions, summary reveal, ICP review, confirmation, and lead handoff.
// Each step carries its own idempotency guard and duplicate-response
// debounce; a single cancellable timer expires idle sessions.
package flow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/background"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/bus"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/format"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/parse"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/session"
)

// ErrSessionActive is the no-op sentinel returned when entry is attempted
// while a session is already running for the scope.
var ErrSessionActive = eris.New("flow: lightning session already active")

// ErrNoSession is returned when a response arrives with no active session.
var ErrNoSession = eris.New("flow: no active lightning session")

// LeadsGenerator produces and posts the prospect list for a confirmed ICP.
type LeadsGenerator interface {
	Generate(ctx context.Context, scope string) error
}

// Config tunes flow timing.
type Config struct {
	// DebounceWindow rejects a second identical answer arriving within it.
	DebounceWindow time.Duration
	// SessionTimeout expires a session with no activity.
	SessionTimeout time.Duration
}

// DefaultConfig mirrors production timing: 1s debounce, 30m session expiry.
func DefaultConfig() Config {
	return Config{
		DebounceWindow: time.Second,
		SessionTimeout: 30 * time.Minute,
	}
}

// Manager owns all active sessions and dispatches user responses.
type Manager struct {
	store   session.Store
	coord   *background.Coordinator
	emitter *bus.Emitter
	leads   LeadsGenerator
	cfg     Config

	// now is injectable for debounce tests.
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*activeSession
}

// NewManager wires the flow over its collaborators.
func NewManager(store session.Store, coord *background.Coordinator, emitter *bus.Emitter, leads LeadsGenerator, cfg Config) *Manager {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = time.Second
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 30 * time.Minute
	}
	return &Manager{
		store:    store,
		coord:    coord,
		emitter:  emitter,
		leads:    leads,
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*activeSession),
	}
}

// Active reports whether a session is running for the scope.
func (m *Manager) Active(scope string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[scope] != nil
}

// Enter starts a new Lightning session from the user's freeform message.
// Re-entry while a session is active returns ErrSessionActive without
// touching the running session. Malformed inputs are reported as chat
// messages, never as errors.
func (m *Manager) Enter(ctx context.Context, scope, freeText string) error {
	if err := m.enter(ctx, scope, freeText); err != nil {
		if eris.Is(err, ErrSessionActive) {
			return err
		}
		zap.L().Error("flow: entry failed", zap.String("scope", scope), zap.Error(err))
		m.post(scope, bus.ChatMessage{
			Content: format.ErrorRetry("we could not start your session"),
			Type:    bus.TypeError,
		})
		return err
	}
	return nil
}

func (m *Manager) enter(ctx context.Context, scope, freeText string) error {
	m.mu.Lock()
	if m.sessions[scope] != nil {
		m.mu.Unlock()
		return ErrSessionActive
	}
	// Reserve the slot before any I/O so a racing second entry no-ops.
	placeholder := &activeSession{scope: scope}
	m.sessions[scope] = placeholder
	m.mu.Unlock()

	inputs := parse.Parse(freeText)
	if problems := parse.Validate(inputs); len(problems) > 0 {
		m.mu.Lock()
		delete(m.sessions, scope)
		m.mu.Unlock()
		m.post(scope, bus.ChatMessage{
			Content: "Before we can research your company:\n- " + strings.Join(problems, "\n- "),
			Type:    bus.TypeSystem,
		})
		return nil
	}

	// A new session must never observe a previous session's artifacts.
	if err := m.store.ForceClearAll(ctx, scope, session.KnownKeys); err != nil {
		m.mu.Lock()
		delete(m.sessions, scope)
		m.mu.Unlock()
		return err
	}
	m.coord.Reset(scope)

	sctx, cancel := context.WithCancel(context.Background())
	s := &activeSession{
		scope: scope,
		record: model.SessionRecord{
			ID:        uuid.New().String(),
			Step:      model.StepQ1,
			Inputs:    inputs,
			Answers:   make(map[string]string),
			UpdatedAt: m.now().UTC(),
		},
		ctx:       sctx,
		cancel:    cancel,
		processed: make(map[model.Step]bool),
	}
	s.timeout = time.AfterFunc(m.cfg.SessionTimeout, func() { m.expire(scope) })

	m.mu.Lock()
	m.sessions[scope] = s
	m.mu.Unlock()

	// A failure past this point must release the slot, or the scope stays
	// locked out until the timeout fires.
	release := func() {
		s.timeout.Stop()
		cancel()
		m.mu.Lock()
		delete(m.sessions, scope)
		m.mu.Unlock()
	}

	if err := session.SetJSON(ctx, m.store, scope, session.KeyInputs, inputs); err != nil {
		release()
		return err
	}
	if err := m.persistRecord(ctx, scope, s.record); err != nil {
		release()
		return err
	}

	m.coord.Start(sctx, scope, inputs)

	m.post(scope, bus.ChatMessage{
		Content: "⚡ Lightning Mode engaged. We're researching your company in the background.",
		Type:    bus.TypeSystem,
	})
	m.askQuestion(scope, model.StepQ1)

	zap.L().Info("flow: session started",
		zap.String("scope", scope),
		zap.String("session_id", s.record.ID),
	)
	return nil
}

// Respond feeds one user response into the state machine.
func (m *Manager) Respond(ctx context.Context, scope, response string) error {
	m.mu.Lock()
	s := m.sessions[scope]
	var step model.Step
	var summaryPosted bool
	if s != nil {
		step = s.record.Step
		summaryPosted = s.summaryPosted
	}
	m.mu.Unlock()
	if s == nil || s.ctx == nil {
		return ErrNoSession
	}

	switch step {
	case model.StepQ1, model.StepQ2, model.StepQ3:
		return m.handleAnswer(ctx, s, step, response)
	case model.StepSummaryReveal:
		if !summaryPosted {
			m.post(scope, bus.ChatMessage{
				Content: "Still putting the finishing touches on your company profile — one moment.",
				Type:    bus.TypeSystem,
			})
		}
		return nil
	case model.StepICPReview:
		return m.handleICPReview(ctx, s, response)
	case model.StepConfirmed:
		if equalFold(trimResponse(response), "retry") {
			m.generateLeads(ctx, s)
			return nil
		}
		m.post(scope, bus.ChatMessage{
			Content: "Your prospect list is being generated. Reply **retry** if it previously failed.",
			Type:    bus.TypeSystem,
		})
		return nil
	case model.StepComplete, model.StepLeadsGenerated:
		m.post(scope, bus.ChatMessage{
			Content: "This Lightning session is complete. Share a new email or website to start another.",
			Type:    bus.TypeSystem,
		})
		return nil
	default:
		return eris.Errorf("flow: unexpected step %q", step)
	}
}

// End terminates the session: the timeout is cancelled, in-flight work for
// the session is aborted, and the active slot is released.
func (m *Manager) End(ctx context.Context, scope string) {
	m.mu.Lock()
	s := m.sessions[scope]
	delete(m.sessions, scope)
	m.mu.Unlock()

	if s == nil {
		return
	}
	if s.timeout != nil {
		s.timeout.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	zap.L().Info("flow: session ended", zap.String("scope", scope))
}

func (m *Manager) expire(scope string) {
	m.mu.Lock()
	s := m.sessions[scope]
	m.mu.Unlock()
	if s == nil {
		return
	}

	zap.L().Info("flow: session timed out", zap.String("scope", scope))
	m.post(scope, bus.ChatMessage{
		Content: "Your Lightning session timed out after 30 minutes of inactivity. Share an email or website to start again.",
		Type:    bus.TypeSystem,
	})
	m.End(context.Background(), scope)
}

// handleAnswer processes one of the three question steps with its
// idempotency guard and debounce window.
func (m *Manager) handleAnswer(ctx context.Context, s *activeSession, step model.Step, response string) error {
	q, ok := questionForStep(step)
	if !ok {
		return eris.Errorf("flow: no question for step %q", step)
	}

	// Debounce and processed-flag state is shared with concurrent deliveries
	// of the same answer; both checks happen under the manager lock.
	m.mu.Lock()
	if s.debounced(response, m.now(), m.cfg.DebounceWindow) {
		m.mu.Unlock()
		zap.L().Debug("flow: duplicate response debounced",
			zap.String("scope", s.scope),
			zap.String("step", string(step)),
		)
		return nil
	}
	if s.processed[step] {
		m.mu.Unlock()
		return nil
	}
	s.processed[step] = true
	m.mu.Unlock()

	answer := resolveChoice(q, response)
	if answer == "" {
		// Empty answers don't advance; let the user try again.
		m.mu.Lock()
		s.processed[step] = false
		m.mu.Unlock()
		m.askQuestion(s.scope, step)
		return nil
	}
	rec := m.updateRecord(s, func(rec *model.SessionRecord) {
		rec.Answers[q.ID] = answer
		rec.Step = nextStep(step)
	})

	if err := m.persistRecord(ctx, s.scope, rec); err != nil {
		return err
	}

	if rec.Step == model.StepSummaryReveal {
		return m.finishQuestions(ctx, s)
	}
	m.askQuestion(s.scope, rec.Step)
	return nil
}

// finishQuestions runs after Q3: mark the questionnaire complete and wait on
// the coordinator's explicit ready signal — not a fixed delay — to surface
// the summary whenever generation finishes.
func (m *Manager) finishQuestions(ctx context.Context, s *activeSession) error {
	if err := session.SetFlag(ctx, m.store, s.scope, session.KeyQuestionsComplete, true); err != nil {
		return err
	}
	m.post(s.scope, bus.ChatMessage{
		Content: "Great — that's everything. Finalizing your company profile now…",
		Type:    bus.TypeSystem,
	})

	ready := m.coord.Ready(s.scope)
	go func() {
		select {
		case <-ready:
			m.revealSummary(s)
		case <-s.ctx.Done():
		}
	}()
	return nil
}

// revealSummary posts the company summary and ICP exactly once.
func (m *Manager) revealSummary(s *activeSession) {
	ctx := s.ctx

	m.mu.Lock()
	if s.summaryPosted {
		m.mu.Unlock()
		return
	}
	s.summaryPosted = true
	m.mu.Unlock()

	posted, err := session.GetFlag(ctx, m.store, s.scope, session.KeySummaryPosted)
	if err != nil || posted {
		return
	}

	var artifact model.CompanySummary
	found, err := session.GetJSON(ctx, m.store, s.scope, session.KeySummary, &artifact)
	if err != nil || !found {
		zap.L().Warn("flow: ready signal without artifact", zap.String("scope", s.scope), zap.Error(err))
		return
	}

	m.post(s.scope, bus.ChatMessage{
		Content: artifact.HTML,
		Type:    bus.TypeSummary,
		IsHTML:  true,
	})
	if err := session.SetFlag(ctx, m.store, s.scope, session.KeySummaryPosted, true); err != nil {
		zap.L().Warn("flow: persist summary-posted flag", zap.Error(err))
	}

	m.mu.Lock()
	s.icp = deriveICP(artifact.Audience)
	icp := s.icp
	m.mu.Unlock()
	m.post(s.scope, bus.ChatMessage{
		Content: format.ICPReview(icp),
		Type:    bus.TypeQuestion,
	})

	rec := m.updateRecord(s, func(rec *model.SessionRecord) {
		rec.Step = model.StepICPReview
	})
	if err := m.persistRecord(ctx, s.scope, rec); err != nil {
		zap.L().Warn("flow: persist after summary reveal", zap.Error(err))
	}
}

// handleICPReview accepts a confirmation or an in-place field edit.
func (m *Manager) handleICPReview(ctx context.Context, s *activeSession, response string) error {
	trimmed := trimResponse(response)
	if equalFold(trimmed, "confirm") || equalFold(trimmed, "yes") {
		m.mu.Lock()
		s.icp.Confirmed = true
		m.mu.Unlock()
		rec := m.updateRecord(s, func(rec *model.SessionRecord) {
			rec.Step = model.StepConfirmed
		})
		if err := m.persistRecord(ctx, s.scope, rec); err != nil {
			return err
		}
		m.post(s.scope, bus.ChatMessage{
			Content: "Profile confirmed. Generating your prospect list — this can take a minute.",
			Type:    bus.TypeSystem,
		})
		m.generateLeads(ctx, s)
		return nil
	}

	m.mu.Lock()
	edited := applyICPEdit(&s.icp, trimmed)
	icp := s.icp
	m.mu.Unlock()
	if edited {
		m.post(s.scope, bus.ChatMessage{
			Content: format.ICPReview(icp),
			Type:    bus.TypeQuestion,
		})
		return nil
	}

	m.post(s.scope, bus.ChatMessage{
		Content: "Reply **confirm** to generate prospects, or edit a field like `industry: Healthcare`.",
		Type:    bus.TypeSystem,
	})
	return nil
}

// generateLeads runs the invoker off the request goroutine; the invoker
// posts its own results and errors. Session completion follows success.
func (m *Manager) generateLeads(ctx context.Context, s *activeSession) {
	m.mu.Lock()
	if s.leadsRequested {
		m.mu.Unlock()
		return
	}
	s.leadsRequested = true
	m.mu.Unlock()

	go func() {
		defer func() {
			// Allow an explicit retry after a failed attempt.
			m.mu.Lock()
			s.leadsRequested = false
			m.mu.Unlock()
		}()

		if err := m.leads.Generate(s.ctx, s.scope); err != nil {
			zap.L().Error("flow: lead generation failed", zap.String("scope", s.scope), zap.Error(err))
			return
		}

		rec := m.updateRecord(s, func(rec *model.SessionRecord) {
			rec.Step = model.StepComplete
		})
		if err := m.persistRecord(s.ctx, s.scope, rec); err != nil {
			zap.L().Warn("flow: persist completion", zap.Error(err))
		}
		m.End(context.Background(), s.scope)
	}()
}

func (m *Manager) askQuestion(scope string, step model.Step) {
	q, ok := questionForStep(step)
	if !ok {
		return
	}
	m.post(scope, bus.ChatMessage{
		Content: format.Question(q.Prompt, q.Choices),
		Type:    bus.TypeQuestion,
	})
}

// updateRecord mutates the session record under the manager lock and
// returns a snapshot safe to persist without holding it.
func (m *Manager) updateRecord(s *activeSession, mutate func(rec *model.SessionRecord)) model.SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	mutate(&s.record)
	s.record.UpdatedAt = m.now().UTC()
	return s.record
}

func (m *Manager) persistRecord(ctx context.Context, scope string, rec model.SessionRecord) error {
	return session.SetJSON(ctx, m.store, scope, session.KeySessionRecord, rec)
}

func (m *Manager) post(scope string, msg bus.ChatMessage) {
	if m.emitter != nil {
		msg.Scope = scope
		m.emitter.Post(msg)
	}
}

// deriveICP maps extracted audience fields onto the editable ICP draft.
func deriveICP(a model.TargetAudience) model.ICPDraft {
	location := a.TargetRegion
	if a.TargetLocation != "" && !equalFold(a.TargetLocation, a.TargetRegion) {
		location = a.TargetLocation + ", " + a.TargetRegion
	}
	return model.ICPDraft{
		Industry:       a.TargetIndustry,
		Location:       location,
		CompanySize:    a.TargetEmployeeSize + " employees, " + a.TargetRevenueSize + " revenue",
		DecisionMakers: a.TargetDepartments + " leadership",
		PainPoints:     painPointsForGoal(a.ShortTermGoal),
		TechStack:      "Not identified",
	}
}

func painPointsForGoal(goal string) string {
	switch goal {
	case "Book More Meetings":
		return "Low reply rates and thin top-of-funnel"
	case "Close Deals Faster":
		return "Long sales cycles and stalled deals"
	case "Expand Into New Markets":
		return "No repeatable playbook outside the home market"
	default:
		return "Inconsistent pipeline generation"
	}
}

// applyICPEdit parses "field: value" edits against the draft.
func applyICPEdit(icp *model.ICPDraft, response string) bool {
	field, value, ok := strings.Cut(response, ":")
	if !ok {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(field)) {
	case "industry":
		icp.Industry = value
	case "location":
		icp.Location = value
	case "company size", "size":
		icp.CompanySize = value
	case "decision makers", "decision maker":
		icp.DecisionMakers = value
	case "pain points", "pain point":
		icp.PainPoints = value
	case "tech stack", "stack":
		icp.TechStack = value
	default:
		return false
	}
	return true
}
