package rules

import "github.com/warp/hours-engine/clock"

// =============================================================================
// ENGINE - Priority-ordered strategy selection
// =============================================================================

// Engine selects and applies exactly one strategy per day. Strategies are
// held in an explicit priority order (highest first); the first applicable
// one wins, regardless of configuration or registration recency.
type Engine struct {
	ordered  []Strategy
	byCode   map[string]Strategy
	fallback Strategy
}

// NewEngine returns an engine with the built-in strategies registered:
// bargaining overrides outrank the statutory base.
func NewEngine() *Engine {
	e := &Engine{byCode: make(map[string]Strategy), fallback: Statutory{}}
	e.Register(Bargaining{})
	e.Register(Statutory{})
	return e
}

// Register appends a strategy at the lowest priority so far. Call order
// defines priority.
func (e *Engine) Register(s Strategy) {
	e.ordered = append(e.ordered, s)
	e.byCode[s.Code()] = s
}

// Calculate applies the highest-priority applicable strategy. The statutory
// rule always applies, so the explicit fallback should be unreachable; it
// exists so calculation stays total even with a misassembled registry.
func (e *Engine) Calculate(rec clock.Record, cfg clock.Config) clock.Result {
	for _, s := range e.ordered {
		if s.CanApply(rec, cfg) {
			return s.Calculate(rec, cfg)
		}
	}
	return e.fallback.Calculate(rec, cfg)
}

// Simulate forces the strategy identified by code, bypassing applicability
// and priority, for what-if analysis. An empty or unknown code falls back
// to normal selection.
func (e *Engine) Simulate(rec clock.Record, cfg clock.Config, code string) clock.Result {
	if code != "" {
		if s, ok := e.byCode[code]; ok {
			return s.Calculate(rec, cfg)
		}
	}
	return e.Calculate(rec, cfg)
}

// Codes lists the registered strategy identifiers in priority order.
func (e *Engine) Codes() []string {
	codes := make([]string, 0, len(e.ordered))
	for _, s := range e.ordered {
		codes = append(codes, s.Code())
	}
	return codes
}
