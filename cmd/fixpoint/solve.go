package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	fixpoint "github.com/njchilds90/gofixpoint"
)

type budgetFlags struct {
	maxIter   int
	tolerance float64
}

func (b *budgetFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&b.maxIter, "max-iter", 0, "Iteration budget per worker (default from config)")
	cmd.Flags().Float64Var(&b.tolerance, "tolerance", 0, "Convergence tolerance (default from config)")
}

func (b *budgetFlags) resolve(cmd *cobra.Command, s *fixpoint.Searcher) (int, float64) {
	opts := s.Options()
	maxIter, tol := opts.DefaultMaxIter, opts.DefaultTolerance
	if cmd.Flags().Changed("max-iter") {
		maxIter = b.maxIter
	}
	if cmd.Flags().Changed("tolerance") {
		tol = b.tolerance
	}
	return maxIter, tol
}

func newSolveCmd(a *app) *cobra.Command {
	var budget budgetFlags
	cmd := &cobra.Command{
		Use:   "solve <func>",
		Short: "Print the roots found for f(x)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.searcher(nil)
			maxIter, tol := budget.resolve(cmd, s)
			roots, err := s.Search(cmd.Context(), args[0], maxIter, tol)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"result": roots})
			}
			out := cmd.OutOrStdout()
			if len(roots) == 0 {
				fmt.Fprintln(out, "no root found")
				return nil
			}
			for _, r := range roots {
				fmt.Fprintln(out, r)
			}
			return nil
		},
	}
	budget.register(cmd)
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var budget budgetFlags
	cmd := &cobra.Command{
		Use:   "analyze <func>",
		Short: "Show derivatives, iteration maps, critical points, seeds and roots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.searcher(nil)
			maxIter, tol := budget.resolve(cmd, s)
			rep, err := s.Analyze(cmd.Context(), args[0], maxIter, tol)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	budget.register(cmd)
	return cmd
}

func printReport(w io.Writer, rep *fixpoint.Report) {
	fmt.Fprintf(w, "f(x)    = %s\n", rep.Function)
	fmt.Fprintf(w, "f'(x)   = %s\n", rep.Derivative)
	fmt.Fprintf(w, "f''(x)  = %s\n", rep.SecondDerivative)
	for i, m := range rep.Maps {
		fmt.Fprintf(w, "g%d(y)   = %s\n", i, m.Expr)
	}
	fmt.Fprintf(w, "critical points: %v  signs: %s\n", rep.Analysis.CriticalPoints, joinStringers(rep.Analysis.Signs))
	fmt.Fprintf(w, "inflections:     %v  directions: %s\n", rep.Analysis.Inflections, joinStringers(rep.Analysis.Directions))
	fallback := ""
	if rep.Seeds.Fallback {
		fallback = " (raw fallback)"
	}
	fmt.Fprintf(w, "retained: %v%s, %d seeds\n", rep.Seeds.Retained, fallback, len(rep.Seeds.Seeds))
	for _, tr := range rep.Traces {
		fmt.Fprintf(w, "  seed %.6g map %d [%s] converged=%t steps=%d\n",
			tr.Seed.Start, tr.Seed.Map, tr.Mode, tr.Converged, len(tr.Values))
	}
	fmt.Fprintln(w, "roots:")
	for _, r := range rep.Roots {
		fmt.Fprintf(w, "  %s\n", r)
	}
}

func joinStringers[T fmt.Stringer](items []T) string {
	strs := make([]string, len(items))
	for i, it := range items {
		strs[i] = it.String()
	}
	return "[" + strings.Join(strs, " ") + "]"
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
