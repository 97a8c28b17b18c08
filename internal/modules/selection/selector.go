package selection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/quantpick/internal/events"
	"github.com/aristath/quantpick/internal/modules/quantum"
)

// Source tells whether picks came from a sampled outcome or the fallback ranking
type Source string

const (
	SourceSampled  Source = "sampled"
	SourceFallback Source = "fallback"
)

// Options configure a Selector
type Options struct {
	Workers        int
	MaxEvaluations int
	MaxDepth       int
	Degenerate     DegeneratePolicy
}

// Result is the outcome of one portfolio selection
type Result struct {
	RunID       string        `json:"run_id"`
	Picks       []string      `json:"picks"`
	Source      Source        `json:"source"`
	Best        *Candidate    `json:"best,omitempty"`
	Evaluations int           `json:"evaluations"`
	Params      Params        `json:"parameters"`
	Duration    time.Duration `json:"-"`
}

// BestScore returns the winning score, or nil for fallback results
func (r *Result) BestScore() *float64 {
	if r.Best == nil {
		return nil
	}
	score := r.Best.Score
	return &score
}

// Selector runs the grid search and applies the fallback when it finds nothing feasible.
type Selector struct {
	sampler quantum.Sampler
	opts    Options
	bus     *events.Bus
	log     zerolog.Logger
}

// NewSelector creates a selector. bus may be nil.
func NewSelector(sampler quantum.Sampler, opts Options, bus *events.Bus, log zerolog.Logger) *Selector {
	return &Selector{
		sampler: sampler,
		opts:    opts,
		bus:     bus,
		log:     log.With().Str("component", "selector").Logger(),
	}
}

// Select runs a complete selection. No partial result is returned on error.
func (s *Selector) Select(ctx context.Context, p Problem, params Params) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()

	result, err := s.run(ctx, runID, p, params)
	selectionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		selectionsTotal.WithLabelValues("error").Inc()
		s.bus.Emit(&events.SearchFailedData{RunID: runID, Error: err.Error()})
		return nil, err
	}

	result.Duration = time.Since(start)
	selectionsTotal.WithLabelValues(string(result.Source)).Inc()

	s.bus.Emit(&events.SearchCompletedData{
		RunID:       runID,
		Picks:       result.Picks,
		Source:      string(result.Source),
		BestScore:   result.BestScore(),
		Evaluations: result.Evaluations,
		DurationMs:  result.Duration.Milliseconds(),
	})

	s.log.Info().
		Str("run_id", runID).
		Strs("picks", result.Picks).
		Str("source", string(result.Source)).
		Int("evaluations", result.Evaluations).
		Dur("duration", result.Duration).
		Msg("Portfolio selected")

	return result, nil
}

func (s *Selector) run(ctx context.Context, runID string, p Problem, params Params) (*Result, error) {
	searcher := NewSearcher(s.sampler, SearchOptions{
		Workers:        s.opts.Workers,
		MaxEvaluations: s.opts.MaxEvaluations,
		MaxDepth:       s.opts.MaxDepth,
	})

	total, err := searcher.Plan(p, params)
	if err != nil {
		return nil, err
	}

	s.bus.Emit(&events.SearchStartedData{
		RunID:       runID,
		Assets:      p.N(),
		Budget:      params.Budget,
		Depth:       params.Depth,
		Grid:        params.Grid,
		Shots:       params.Shots,
		Evaluations: total,
	})

	if s.bus != nil {
		step := total / 20
		if step < 1 {
			step = 1
		}
		searcher.opts.Progress = func(done, total int) {
			if done%step == 0 || done == total {
				s.bus.Emit(&events.SearchProgressData{RunID: runID, Done: done, Total: total})
			}
		}
	}

	return selectWith(ctx, searcher, p, params, s.opts.Degenerate, runID)
}

func selectWith(ctx context.Context, searcher *Searcher, p Problem, params Params, policy DegeneratePolicy, runID string) (*Result, error) {
	found, err := searcher.Search(ctx, p, params)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:       runID,
		Evaluations: found.Evaluations,
		Params:      params,
	}

	bits := Bitstring(nil)
	if found.Best != nil {
		bits = found.Best.Bits
		result.Best = found.Best
		result.Source = SourceSampled
	} else {
		bits, err = Fallback(p, params.Budget, policy)
		if err != nil {
			return nil, err
		}
		result.Source = SourceFallback
	}

	result.Picks = Picks(p.Tickers, bits)
	return result, nil
}

// Picks returns the tickers at the set bit positions in ascending index order
func Picks(tickers []string, bits Bitstring) []string {
	picks := make([]string, 0, bits.Weight())
	for _, i := range bits.Indices() {
		picks = append(picks, tickers[i])
	}
	return picks
}

// SelectPortfolio is the single-call form of Selector.Select
func SelectPortfolio(
	ctx context.Context,
	sampler quantum.Sampler,
	mu []float64,
	cov [][]float64,
	tickers []string,
	budget, depth, grid, shots int,
	opts Options,
) ([]string, error) {
	searcher := NewSearcher(sampler, SearchOptions{
		Workers:        opts.Workers,
		MaxEvaluations: opts.MaxEvaluations,
		MaxDepth:       opts.MaxDepth,
	})
	p := Problem{Mu: mu, Cov: cov, Tickers: tickers}
	params := Params{Budget: budget, Depth: depth, Grid: grid, Shots: shots}

	result, err := selectWith(ctx, searcher, p, params, opts.Degenerate, "")
	if err != nil {
		return nil, err
	}
	return result.Picks, nil
}
