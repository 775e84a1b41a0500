package fixpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/gofixpoint/symbolic"
)

// ============================================================
// Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// maxDiffOrder bounds the order accepted by the diff tool.
const maxDiffOrder = 32

// BatchItem is one entry of a search_batch result.
type BatchItem struct {
	Func  string `json:"func"`
	Roots []Root `json:"roots,omitempty"`
	Error string `json:"error,omitempty"`
}

// HandleToolCall dispatches a tool request. Failures are reported in
// ToolResponse.Error, never as a Go error.
func (s *Searcher) HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		str, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return str, nil
	}
	getStrings := func(key string) ([]string, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("param %s must be array", key)
		}
		result := make([]string, len(raw))
		for i, r := range raw {
			str, ok := r.(string)
			if !ok {
				return nil, fmt.Errorf("param %s[%d] must be string", key, i)
			}
			result[i] = str
		}
		return result, nil
	}
	getNumber := func(key string, def float64) (float64, error) {
		v, ok := req.Params[key]
		if !ok {
			return def, nil
		}
		n, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("param %s must be a number", key)
		}
		return n, nil
	}
	getBudget := func() (int, float64, error) {
		maxIter, err := getNumber("max_iter", float64(s.opts.DefaultMaxIter))
		if err != nil {
			return 0, 0, err
		}
		if maxIter != float64(int(maxIter)) {
			return 0, 0, fmt.Errorf("param max_iter must be an integer")
		}
		tol, err := getNumber("tolerance", s.opts.DefaultTolerance)
		if err != nil {
			return 0, 0, err
		}
		return int(maxIter), tol, nil
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }
	respond := func(e symbolic.Expr) ToolResponse {
		return ToolResponse{Result: e.String(), LaTeX: e.LaTeX(), String: e.String()}
	}
	rootsTool := func(roots []Root) ToolResponse {
		strs := make([]string, len(roots))
		for i, r := range roots {
			strs[i] = r.FinalApproximation
		}
		return ToolResponse{Result: roots, String: strings.Join(strs, ", ")}
	}

	switch req.Tool {
	case "search":
		text, err := getString("func")
		if err != nil {
			return fail(err)
		}
		maxIter, tol, err := getBudget()
		if err != nil {
			return fail(err)
		}
		roots, err := s.Search(ctx, text, maxIter, tol)
		if err != nil {
			return fail(err)
		}
		return rootsTool(roots)

	case "search_batch":
		funcs, err := getStrings("funcs")
		if err != nil {
			return fail(err)
		}
		maxIter, tol, err := getBudget()
		if err != nil {
			return fail(err)
		}
		items, err := s.searchBatch(ctx, funcs, maxIter, tol)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: items}

	case "analyze":
		text, err := getString("func")
		if err != nil {
			return fail(err)
		}
		maxIter, tol, err := getBudget()
		if err != nil {
			return fail(err)
		}
		rep, err := s.Analyze(ctx, text, maxIter, tol)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: rep, LaTeX: rep.FunctionLaTeX, String: rep.Function}

	case "diff":
		text, err := getString("func")
		if err != nil {
			return fail(err)
		}
		order, err := getNumber("order", 1)
		if err != nil {
			return fail(err)
		}
		if order < 0 || order > maxDiffOrder || order != math.Trunc(order) {
			return ToolResponse{Error: fmt.Sprintf("param order must be an integer in [0, %d]", maxDiffOrder)}
		}
		f, err := ParseExpression(s.cas, text)
		if err != nil {
			return fail(err)
		}
		for i := 0; i < int(order); i++ {
			f = f.Differentiate()
		}
		return respond(f.Expr())

	case "critical_points":
		text, err := getString("func")
		if err != nil {
			return fail(err)
		}
		tol, err := getNumber("tolerance", s.opts.DefaultTolerance)
		if err != nil {
			return fail(err)
		}
		a, err := s.CriticalPoints(ctx, text, tol)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: a}

	case "iteration_maps":
		text, err := getString("func")
		if err != nil {
			return fail(err)
		}
		maps, err := s.IterationMaps(text)
		if err != nil {
			return fail(err)
		}
		strs := make([]string, len(maps))
		for i, m := range maps {
			strs[i] = m.Expr
		}
		return ToolResponse{Result: maps, String: strings.Join(strs, ", ")}

	case "latex":
		text, err := getString("func")
		if err != nil {
			return fail(err)
		}
		f, err := ParseExpression(s.cas, text)
		if err != nil {
			return fail(err)
		}
		return respond(f.Expr())

	case "schema":
		return ToolResponse{Result: json.RawMessage(ToolSpec())}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// searchBatch searches every function concurrently. Per-function failures
// are reported in their item; only cancellation fails the batch.
func (s *Searcher) searchBatch(ctx context.Context, funcs []string, maxIter int, tol float64) ([]BatchItem, error) {
	items := make([]BatchItem, len(funcs))
	g, gctx := errgroup.WithContext(ctx)
	if s.opts.Workers > 0 {
		g.SetLimit(s.opts.Workers)
	}
	for i, text := range funcs {
		i, text := i, text
		g.Go(func() error {
			roots, err := s.Search(gctx, text, maxIter, tol)
			items[i] = BatchItem{Func: text, Roots: roots}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				items[i].Error = err.Error()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// ToolSpec returns the JSON schema of every tool.
func ToolSpec() string {
	budget := map[string]string{"func": "string", "max_iter": "integer", "tolerance": "number"}
	tools := []map[string]interface{}{
		ts("search", "Find real roots of f(x) by fixed-point iteration. Optional: max_iter, tolerance", []string{"func"}, budget),
		ts("search_batch", "Search several functions concurrently. Optional: max_iter, tolerance", []string{"funcs"}, map[string]string{"funcs": "array", "max_iter": "integer", "tolerance": "number"}),
		ts("analyze", "Search and report derivatives, maps, critical points, seeds and traces", []string{"func"}, budget),
		ts("diff", "Derivative of f. Optional: order (default 1, at most 32)", []string{"func"}, map[string]string{"func": "string", "order": "integer"}),
		ts("critical_points", "Critical points of f and f' with their sign and direction profiles", []string{"func"}, map[string]string{"func": "string", "tolerance": "number"}),
		ts("iteration_maps", "Iteration maps g(y) whose fixed points are roots of f", []string{"func"}, map[string]string{"func": "string"}),
		ts("latex", "Render f as LaTeX", []string{"func"}, map[string]string{"func": "string"}),
		ts("schema", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
