// Package research fans one query out to the selected LLM providers and
// aggregates whatever comes back. Providers fail independently: a single
// failure or empty answer never blocks the others, and hard failures resolve
// to an empty result set rather than an error so callers can degrade.
package research

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/resilience"
)

// Selection names the providers to query. A nil selection means all.
type Selection map[string]bool

// combineSeparator joins provider outputs into the blob handed to the
// field extractor.
const combineSeparator = "\n\n---\n\n"

// Config paces the orchestrator.
type Config struct {
	// RatePerSecond caps each provider's request rate.
	RatePerSecond float64
	// Burst is the per-provider limiter burst.
	Burst int
	// Timeout bounds one full fan-out; zero means unbounded.
	Timeout time.Duration
}

// DefaultConfig returns the production pacing.
func DefaultConfig() Config {
	return Config{RatePerSecond: 2, Burst: 4}
}

// Orchestrator coordinates concurrent multi-provider research.
type Orchestrator struct {
	cfg       Config
	providers []Provider
	limiters  map[string]*rate.Limiter
	breakers  map[string]*resilience.CircuitBreaker
}

// NewOrchestrator builds an orchestrator over the given providers. Each
// provider gets its own rate limiter and circuit breaker so one flapping
// backend cannot starve the rest.
func NewOrchestrator(cfg Config, providers ...Provider) *Orchestrator {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultConfig().RatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}
	o := &Orchestrator{
		cfg:       cfg,
		providers: providers,
		limiters:  make(map[string]*rate.Limiter, len(providers)),
		breakers:  make(map[string]*resilience.CircuitBreaker, len(providers)),
	}
	for _, p := range providers {
		o.limiters[p.Name()] = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst)
		o.breakers[p.Name()] = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})
	}
	return o
}

// Orchestrate queries every selected provider concurrently and returns the
// per-provider results. Failed or empty providers are simply absent from the
// map; they are logged, not surfaced — even when every selected provider
// failed, the call resolves with an empty map so callers can degrade instead
// of dead-ending. The one exception is rate-limit/overload failures
// (ServiceUnavailable), which are returned so callers can tell the user to
// restart. No retries happen at this layer.
func (o *Orchestrator) Orchestrate(ctx context.Context, query string, selection Selection) (map[string]string, error) {
	selected := o.selectProviders(selection)
	if len(selected) == 0 {
		return nil, eris.New("research: no providers selected")
	}

	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(selected))
		errs    []error
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range selected {
		p := p
		g.Go(func() error {
			text, err := o.queryProvider(gctx, p, query)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				zap.L().Warn("research: provider failed",
					zap.String("provider", p.Name()),
					zap.Error(err),
				)
				errs = append(errs, err)
				return nil // tolerant: never cancel the group
			}
			if text != "" {
				results[p.Name()] = text
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(results) == 0 && len(errs) == len(selected) {
		for _, err := range errs {
			if resilience.IsServiceUnavailable(err) {
				return nil, err
			}
		}
		zap.L().Warn("research: all providers failed",
			zap.Int("selected", len(selected)),
			zap.Error(errs[0]),
		)
	}
	return results, nil
}

func (o *Orchestrator) queryProvider(ctx context.Context, p Provider, query string) (string, error) {
	if limiter := o.limiters[p.Name()]; limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return "", eris.Wrapf(err, "research: rate wait %s", p.Name())
		}
	}

	breaker := o.breakers[p.Name()]
	if breaker == nil {
		return p.Research(ctx, query)
	}
	return resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) (string, error) {
		return p.Research(ctx, query)
	})
}

func (o *Orchestrator) selectProviders(selection Selection) []Provider {
	if selection == nil {
		return o.providers
	}
	var out []Provider
	for _, p := range o.providers {
		if selection[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}

// Combine joins non-empty provider outputs into one blob for the field
// extractor, in stable provider-name order so repeated runs are comparable.
func Combine(results map[string]string) string {
	names := make([]string, 0, len(results))
	for name, text := range results {
		if strings.TrimSpace(text) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, results[name])
	}
	return strings.Join(parts, combineSeparator)
}
