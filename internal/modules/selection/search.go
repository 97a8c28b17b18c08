package selection

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/quantpick/internal/modules/quantum"
)

// DefaultMaxEvaluations caps grid^(2*depth) unless configured otherwise
const DefaultMaxEvaluations = 4096

// SearchOptions tune the grid search
type SearchOptions struct {
	// Workers is the number of circuits evaluated concurrently (default 1)
	Workers int
	// MaxEvaluations rejects searches with more evaluations; 0 disables the ceiling
	MaxEvaluations int
	// MaxDepth rejects searches with more QAOA layers; 0 disables the ceiling
	MaxDepth int
	// Progress, if set, is called after each evaluation from worker goroutines
	Progress func(done, total int)
}

// SearchResult is the outcome of a grid search
type SearchResult struct {
	// Best is nil when no feasible outcome was sampled
	Best        *Candidate
	Evaluations int
}

// Searcher enumerates the (gamma, beta) grid, samples each circuit and keeps the
// best feasible outcome.
type Searcher struct {
	sampler quantum.Sampler
	opts    SearchOptions
}

// NewSearcher creates a grid searcher
func NewSearcher(sampler quantum.Sampler, opts SearchOptions) *Searcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Searcher{
		sampler: sampler,
		opts:    opts,
	}
}

// Plan validates the inputs and returns the number of circuit evaluations the search will run.
func (s *Searcher) Plan(p Problem, params Params) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if err := params.Validate(p.N()); err != nil {
		return 0, err
	}

	if s.opts.MaxDepth > 0 && params.Depth > s.opts.MaxDepth {
		return 0, fmt.Errorf("%w: depth=%d exceeds limit %d", ErrSearchTooLarge, params.Depth, s.opts.MaxDepth)
	}

	total, ok := EvaluationCount(params.Grid, params.Depth)
	if !ok {
		return 0, fmt.Errorf("%w: grid=%d depth=%d overflows", ErrSearchTooLarge, params.Grid, params.Depth)
	}
	if s.opts.MaxEvaluations > 0 && total > s.opts.MaxEvaluations {
		return 0, fmt.Errorf("%w: grid=%d depth=%d needs %d evaluations, limit is %d",
			ErrSearchTooLarge, params.Grid, params.Depth, total, s.opts.MaxEvaluations)
	}
	return total, nil
}

// Search runs every grid combination and reduces the scored outcomes to a single best
// candidate. The result does not depend on the number of workers.
func (s *Searcher) Search(ctx context.Context, p Problem, params Params) (*SearchResult, error) {
	total, err := s.Plan(p, params)
	if err != nil {
		return nil, err
	}

	m := newModel(p)
	schedule := newAngleSchedule(params.Grid, params.Depth)

	workers := s.opts.Workers
	if workers > total {
		workers = total
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)

	g.Go(func() error {
		defer close(jobs)
		for k := 0; k < total; k++ {
			select {
			case jobs <- k:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var (
		mu   sync.Mutex
		best *Candidate
		done atomic.Int64
	)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			var local *Candidate
			for k := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}

				cand, err := s.evaluate(gctx, m, p, params, schedule, k)
				if err != nil {
					return err
				}
				local = Best(local, cand)

				evaluationsTotal.Inc()
				n := int(done.Add(1))
				if s.opts.Progress != nil {
					s.opts.Progress(n, total)
				}
			}

			mu.Lock()
			best = Best(best, local)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &SearchResult{
		Best:        best,
		Evaluations: total,
	}, nil
}

// evaluate builds and samples the circuit for enumeration index k and returns the
// best feasible outcome it produced, if any.
func (s *Searcher) evaluate(ctx context.Context, m *model, p Problem, params Params, schedule angleSchedule, k int) (*Candidate, error) {
	gammas, betas := schedule.at(k)

	circuit, err := BuildCircuit(p.Mu, p.Cov, gammas, betas)
	if err != nil {
		return nil, err
	}
	circuit.Stream = uint64(k)

	hist, err := s.sampler.Run(ctx, circuit, params.Shots)
	if err != nil {
		return nil, fmt.Errorf("%w: evaluation %d: %w", ErrSamplerFailure, k, err)
	}
	if got := hist.Total(); got != params.Shots {
		return nil, fmt.Errorf("%w: evaluation %d: counts sum to %d, expected %d", ErrSamplerFailure, k, got, params.Shots)
	}

	var best *Candidate
	for j, outcome := range hist {
		if len(outcome.Bits) != m.n {
			return nil, fmt.Errorf("%w: evaluation %d: outcome %d has %d bits, expected %d",
				ErrSamplerFailure, k, j, len(outcome.Bits), m.n)
		}
		cand := m.scoreOutcome(Bitstring(outcome.Bits), outcome.Count, params.Shots, params.Budget, k, j)
		best = Best(best, cand)
	}
	return best, nil
}
