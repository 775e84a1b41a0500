package fixpoint

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/njchilds90/gofixpoint/internal/pool"
)

const (
	// DefaultToleranceScale loosens every stopping test by this factor.
	DefaultToleranceScale = 1000
	// DefaultDigits is the precision of extracted critical points.
	DefaultDigits = 6
	// DefaultMaxIter and DefaultTolerance apply when a tool call omits them.
	DefaultMaxIter   = 500
	DefaultTolerance = 1e-6
)

var tracer = otel.Tracer("github.com/njchilds90/gofixpoint")

// Options configures a Searcher. Zero numeric fields take their defaults,
// except Workers where zero means one goroutine per seed.
type Options struct {
	// CAS defaults to SymbolicCAS.
	CAS CAS
	// Workers bounds concurrent iteration workers. Zero or less is unbounded.
	Workers int
	// ToleranceScale multiplies the tolerance in the stopping tests.
	ToleranceScale float64
	// Dedupe drops roots whose formatted value was already reported.
	Dedupe bool
	// Digits is the precision of critical points.
	Digits int
	// ScanRange enables the numeric critical-point scan for
	// non-polynomial derivatives.
	ScanRange float64
	// SerializeEval guards CAS evaluation with a mutex.
	SerializeEval bool
	// DefaultMaxIter and DefaultTolerance fill in tool calls that omit them.
	DefaultMaxIter   int
	DefaultTolerance float64

	Logger   *zap.Logger
	Recorder Recorder
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		CAS:              SymbolicCAS{},
		Workers:          runtime.NumCPU(),
		ToleranceScale:   DefaultToleranceScale,
		Digits:           DefaultDigits,
		DefaultMaxIter:   DefaultMaxIter,
		DefaultTolerance: DefaultTolerance,
	}
}

// Searcher finds real roots by fixed-point iteration. It keeps no state
// between calls apart from its worker pool, so one Searcher can serve
// concurrent requests.
type Searcher struct {
	cas      CAS
	opts     Options
	pool     *pool.Pool
	logger   *zap.Logger
	recorder Recorder
}

func NewSearcher(opts Options) *Searcher {
	if opts.CAS == nil {
		opts.CAS = SymbolicCAS{}
	}
	if opts.SerializeEval {
		opts.CAS = Serialized(opts.CAS)
	}
	if opts.ToleranceScale <= 0 {
		opts.ToleranceScale = DefaultToleranceScale
	}
	if opts.Digits <= 0 {
		opts.Digits = DefaultDigits
	}
	if opts.DefaultMaxIter <= 0 {
		opts.DefaultMaxIter = DefaultMaxIter
	}
	if opts.DefaultTolerance <= 0 {
		opts.DefaultTolerance = DefaultTolerance
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = NopRecorder{}
	}
	return &Searcher{
		cas:      opts.CAS,
		opts:     opts,
		pool:     pool.New(opts.Workers),
		logger:   opts.Logger,
		recorder: opts.Recorder,
	}
}

// Options returns the effective options, defaults filled in.
func (s *Searcher) Options() Options { return s.opts }

// run is everything one search produces.
type run struct {
	f        *Expression
	maps     []*Expression
	analysis *Analysis
	seeds    *SeedSet
	traces   []Trace
}

// Search returns one root per surviving trace, in seed order. It fails with
// ErrParse, ErrSolveFailure, ErrNoStartingPoint or ErrInvalidArgument. No
// surviving trace is not an error: the result is then empty.
func (s *Searcher) Search(ctx context.Context, text string, maxIter int, tol float64) ([]Root, error) {
	r, err := s.execute(ctx, "Searcher.Search", text, maxIter, tol)
	if err != nil {
		return nil, err
	}
	return Aggregate(r.traces, s.opts.Dedupe), nil
}

// Report exposes every intermediate stage of a search.
type Report struct {
	Function         string        `json:"function"`
	FunctionLaTeX    string        `json:"function_latex"`
	Derivative       string        `json:"derivative"`
	SecondDerivative string        `json:"second_derivative"`
	Maps             []MapInfo     `json:"maps"`
	Analysis         *Analysis     `json:"analysis"`
	Seeds            *SeedSet      `json:"seeds"`
	Traces           []TraceReport `json:"traces"`
	Roots            []Root        `json:"roots"`
}

// MapInfo describes one iteration map.
type MapInfo struct {
	Expr  string `json:"expr"`
	LaTeX string `json:"latex"`
}

// Analyze runs a search and reports its intermediate stages along with the
// roots. It fails like Search.
func (s *Searcher) Analyze(ctx context.Context, text string, maxIter int, tol float64) (*Report, error) {
	r, err := s.execute(ctx, "Searcher.Analyze", text, maxIter, tol)
	if err != nil {
		return nil, err
	}
	d1 := r.f.Differentiate()
	rep := &Report{
		Function:         r.f.String(),
		FunctionLaTeX:    r.f.LaTeX(),
		Derivative:       d1.String(),
		SecondDerivative: d1.Differentiate().String(),
		Maps:             describeMaps(r.maps),
		Analysis:         r.analysis,
		Seeds:            r.seeds,
		Traces:           make([]TraceReport, len(r.traces)),
		Roots:            Aggregate(r.traces, s.opts.Dedupe),
	}
	for i := range r.traces {
		rep.Traces[i] = reportTrace(&r.traces[i])
	}
	return rep, nil
}

func describeMaps(maps []*Expression) []MapInfo {
	out := make([]MapInfo, len(maps))
	for i, g := range maps {
		out[i] = MapInfo{Expr: g.String(), LaTeX: g.LaTeX()}
	}
	return out
}

// IterationMaps parses text and returns its iteration maps.
func (s *Searcher) IterationMaps(text string) ([]MapInfo, error) {
	f, err := ParseExpression(s.cas, text)
	if err != nil {
		return nil, err
	}
	maps := f.IsolateVariable()
	if len(maps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSolveFailure, f)
	}
	return describeMaps(maps), nil
}

// CriticalPoints parses text and runs only the critical-point pass.
func (s *Searcher) CriticalPoints(ctx context.Context, text string, tol float64) (*Analysis, error) {
	if !(tol > 0) {
		return nil, fmt.Errorf("%w: tolerance must be positive, got %v", ErrInvalidArgument, tol)
	}
	f, err := ParseExpression(s.cas, text)
	if err != nil {
		return nil, err
	}
	return s.analyzer(tol).Analyze(ctx, f)
}

func (s *Searcher) analyzer(tol float64) Analyzer {
	return Analyzer{
		Tolerance: tol,
		Digits:    s.opts.Digits,
		ScanRange: s.opts.ScanRange,
		Logger:    s.logger,
	}
}

func (s *Searcher) execute(ctx context.Context, op, text string, maxIter int, tol float64) (r *run, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("fixpoint.function", text),
		attribute.Int("fixpoint.max_iter", maxIter),
		attribute.Float64("fixpoint.tolerance", tol),
	))
	defer span.End()
	log := s.logger.With(zap.String("function", text))

	defer func() {
		elapsed := time.Since(start)
		s.recorder.SearchCompleted(Outcome(err), elapsed)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Info("search failed", zap.Error(err), zap.Duration("elapsed", elapsed))
			return
		}
		span.SetStatus(codes.Ok, "")
		log.Info("search finished",
			zap.Int("seeds", len(r.seeds.Seeds)),
			zap.Int("traces", len(r.traces)),
			zap.Duration("elapsed", elapsed),
		)
	}()

	if maxIter <= 0 {
		return nil, fmt.Errorf("%w: max_iter must be positive, got %d", ErrInvalidArgument, maxIter)
	}
	if !(tol > 0) || math.IsInf(tol, 0) {
		return nil, fmt.Errorf("%w: tolerance must be positive, got %v", ErrInvalidArgument, tol)
	}

	f, err := ParseExpression(s.cas, text)
	if err != nil {
		return nil, err
	}
	maps := f.IsolateVariable()
	if len(maps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSolveFailure, f)
	}
	log.Debug("iteration maps", zap.Stringers("maps", maps))

	analysis, err := s.analyzer(tol).Analyze(ctx, f)
	if err != nil {
		return nil, err
	}
	seeds, err := GenerateSeeds(analysis, len(maps), tol)
	if err != nil {
		return nil, err
	}
	log.Debug("seeds",
		zap.Float64s("retained", seeds.Retained),
		zap.Bool("fallback", seeds.Fallback),
		zap.Int("count", len(seeds.Seeds)),
	)
	span.SetAttributes(
		attribute.Int("fixpoint.maps", len(maps)),
		attribute.Int("fixpoint.seeds", len(seeds.Seeds)),
		attribute.Bool("fixpoint.raw_fallback", seeds.Fallback),
	)

	traces, err := s.runWorkers(ctx, f, maps, seeds.Seeds, maxIter, tol)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("fixpoint.traces", len(traces)))
	return &run{f: f, maps: maps, analysis: analysis, seeds: seeds, traces: traces}, nil
}

// runWorkers launches one worker per seed and waits for all of them. Slots
// keep seed order; unusable traces are removed afterwards.
func (s *Searcher) runWorkers(ctx context.Context, f *Expression, maps []*Expression, seeds []Seed, maxIter int, tol float64) ([]Trace, error) {
	w := Worker{ToleranceScale: s.opts.ToleranceScale}
	s.recorder.WorkersLaunched(len(seeds))

	tasks := make([]*pool.Task[Trace], 0, len(seeds))
	for _, seed := range seeds {
		seed := seed
		g := maps[seed.Map]
		task, err := pool.Submit(ctx, s.pool, func(ctx context.Context) Trace {
			tr := w.Run(ctx, f, g, seed.Start, maxIter, tol)
			tr.Seed = seed
			return tr
		})
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	slots := make([]Trace, 0, len(tasks))
	for i, task := range tasks {
		tr, err := task.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("worker failed", zap.Int("slot", i), zap.Error(err))
			continue
		}
		s.recorder.TraceFinished(tr.Mode, tr.Converged, len(tr.Values))
		if !tr.Usable() {
			continue
		}
		slots = append(slots, tr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// Outcome labels err for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, ErrSolveFailure):
		return "solve_failure"
	case errors.Is(err, ErrNoStartingPoint):
		return "no_starting_point"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "error"
}
