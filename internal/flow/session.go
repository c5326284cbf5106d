package flow

import (
	"context"
	"strings"
	"time"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
)

// activeSession is the in-memory per-session context. All the guards that
// were process-wide flags in earlier incarnations of this flow live here,
// so concurrent sessions in different scopes cannot trample each other.
type activeSession struct {
	scope  string
	record model.SessionRecord

	// ctx is cancelled when the session ends; in-flight research and lead
	// requests for this session abort with it.
	ctx    context.Context
	cancel context.CancelFunc

	// timeout is the single cancellable session-expiry task, armed at entry.
	timeout *time.Timer

	// processed marks steps that already consumed an answer.
	processed map[model.Step]bool

	// lastText/lastAt support the duplicate-response debounce. The guard is
	// session-wide: a duplicate delivery of the same message must not answer
	// the next question after the first copy advanced the flow.
	lastText string
	lastAt   time.Time

	summaryPosted  bool
	leadsRequested bool
	icp            model.ICPDraft
}

// debounced reports whether response is an identical duplicate of the
// session's last response within the debounce window. Non-duplicates are
// recorded as the new last response. Callers hold the manager lock.
func (s *activeSession) debounced(response string, now time.Time, window time.Duration) bool {
	if s.lastText == response && !s.lastAt.IsZero() && now.Sub(s.lastAt) < window {
		return true
	}
	s.lastText = response
	s.lastAt = now
	return false
}

func trimResponse(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), ".!"))
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
