package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/background"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/bus"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/flow"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/leads"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/research"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/session"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/pkg/gemini"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/pkg/leadsapi"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/pkg/openai"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/pkg/perplexity"
)

// initStore builds the configured session-state backend.
func initStore(ctx context.Context) (session.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := session.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "init postgres store")
		}
		return st, nil
	case "sqlite":
		st, err := session.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		return st, nil
	case "memory":
		return session.NewMemory(), nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// lightningEnv holds the wired Lightning core for a command's lifetime.
type lightningEnv struct {
	Store   session.Store
	Emitter *bus.Emitter
	Orch    *research.Orchestrator
	Coord   *background.Coordinator
	Leads   *leads.Invoker
	Flow    *flow.Manager
}

// initLightning wires the store, research providers, coordinator, lead
// invoker, and question flow. Providers without a configured key are left
// out; the orchestrator fans out to whatever remains.
func initLightning(ctx context.Context) (*lightningEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var providers []research.Provider
	if cfg.Perplexity.Key != "" {
		providers = append(providers, &research.PerplexityProvider{
			Client: perplexity.NewClient(cfg.Perplexity.Key,
				perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
				perplexity.WithModel(cfg.Perplexity.Model)),
		})
	}
	if cfg.Gemini.Key != "" {
		providers = append(providers, &research.GeminiProvider{
			Client: gemini.NewClient(cfg.Gemini.Key,
				gemini.WithBaseURL(cfg.Gemini.BaseURL),
				gemini.WithModel(cfg.Gemini.Model)),
		})
	}
	if cfg.OpenAI.Key != "" {
		opts := []openai.Option{openai.WithModel(cfg.OpenAI.Model)}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		providers = append(providers, &research.GPT4oProvider{
			Client: openai.NewClient(cfg.OpenAI.Key, opts...),
		})
	}
	if len(providers) == 0 {
		st.Close()
		return nil, eris.New("no research provider configured")
	}
	zap.L().Info("research providers configured", zap.Int("count", len(providers)))

	var selection research.Selection
	if len(cfg.Research.Providers) > 0 {
		selection = make(research.Selection, len(cfg.Research.Providers))
		for _, name := range cfg.Research.Providers {
			selection[name] = true
		}
	}

	emitter := bus.New()
	orch := research.NewOrchestrator(research.Config{
		RatePerSecond: cfg.Research.RatePerSecond,
		Timeout:       time.Duration(cfg.Research.TimeoutSecs) * time.Second,
	}, providers...)
	coord := background.New(st, orch, emitter, selection)
	invoker := leads.NewInvoker(st, leadsapi.NewClient(cfg.Leads.BaseURL), emitter)
	mgr := flow.NewManager(st, coord, emitter, invoker, flow.Config{
		DebounceWindow: cfg.Flow.DebounceWindow(),
		SessionTimeout: cfg.Flow.SessionTimeout(),
	})

	return &lightningEnv{
		Store:   st,
		Emitter: emitter,
		Orch:    orch,
		Coord:   coord,
		Leads:   invoker,
		Flow:    mgr,
	}, nil
}

func (e *lightningEnv) Close() {
	e.Emitter.Close()
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}
