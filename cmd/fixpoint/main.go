// Command fixpoint finds real roots of f(x) by fixed-point iteration.
//
// Usage:
//
//	fixpoint solve "x**3 - x - 1"
//	fixpoint analyze "cos(x) - x" --json
//	fixpoint serve --config fixpoint.yaml --addr :8080
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
