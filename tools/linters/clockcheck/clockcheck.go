// Package clockcheck guards how code reads the wall clock.
//
// Everywhere, time.Now() must be normalised with .UTC(). In calendar
// packages, which receive "today" from their caller, any wall-clock read
// is reported.
package clockcheck

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// Analyzer reports time.Now() calls without .UTC() and any clock read in
// the packages named by -pure.
var Analyzer = &analysis.Analyzer{
	Name:     "clockcheck",
	Doc:      "checks that time.Now() is UTC-normalised and absent from calendar packages",
	Run:      run,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

// pure holds package path suffixes that must take the date as input.
var pure = "internal/domain,internal/recurring"

func init() {
	Analyzer.Flags.StringVar(&pure, "pure", pure,
		"comma-separated package path suffixes in which reading the clock is reported")
}

// clockFuncs are the time package functions that read the wall clock.
var clockFuncs = map[string]bool{
	"Now":   true,
	"Since": true,
	"Until": true,
}

func run(pass *analysis.Pass) (any, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	inPure := isPure(pass.Pkg.Path())

	// time.Now() calls that are the receiver of .UTC().
	normalised := make(map[*ast.CallExpr]bool)
	insp.Preorder([]ast.Node{(*ast.SelectorExpr)(nil)}, func(n ast.Node) {
		sel := n.(*ast.SelectorExpr)
		if sel.Sel.Name != "UTC" {
			return
		}
		if call, ok := ast.Unparen(sel.X).(*ast.CallExpr); ok && clockFunc(pass, call) == "Now" {
			normalised[call] = true
		}
	})

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		name := clockFunc(pass, call)
		if name == "" || hasNolint(pass, call) {
			return
		}

		switch {
		case inPure:
			pass.Reportf(call.Pos(), "time.%s() reads the wall clock; take the date as a parameter", name)
		case name == "Now" && !normalised[call]:
			pass.Reportf(call.Pos(), "time.Now() should be followed by .UTC() for timezone consistency")
		}
	})

	return nil, nil
}

// clockFunc returns the name of the time package clock function call
// invokes, or "" when it is something else.
func clockFunc(pass *analysis.Pass, call *ast.CallExpr) string {
	fn, ok := typeutil.Callee(pass.TypesInfo, call).(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Pkg().Path() != "time" {
		return ""
	}
	if sig, ok := fn.Type().(*types.Signature); !ok || sig.Recv() != nil {
		return ""
	}
	if !clockFuncs[fn.Name()] {
		return ""
	}
	return fn.Name()
}

func isPure(path string) bool {
	for suffix := range strings.SplitSeq(pure, ",") {
		suffix = strings.TrimSpace(suffix)
		if suffix != "" && (path == suffix || strings.HasSuffix(path, "/"+suffix)) {
			return true
		}
	}
	return false
}

// hasNolint reports a //nolint or //nolint:clockcheck comment on the call's
// line or the line before.
func hasNolint(pass *analysis.Pass, call *ast.CallExpr) bool {
	pos := pass.Fset.Position(call.Pos())

	for _, file := range pass.Files {
		if pass.Fset.Position(file.Pos()).Filename != pos.Filename {
			continue
		}
		for _, cg := range file.Comments {
			for _, c := range cg.List {
				line := pass.Fset.Position(c.Pos()).Line
				if line != pos.Line && line != pos.Line-1 {
					continue
				}
				text := strings.TrimPrefix(c.Text, "//")
				if !strings.HasPrefix(text, "nolint") {
					continue
				}
				linters, scoped := strings.CutPrefix(text, "nolint:")
				if !scoped {
					return true
				}
				linters, _, _ = strings.Cut(linters, " ")
				for l := range strings.SplitSeq(linters, ",") {
					if l == Analyzer.Name {
						return true
					}
				}
			}
		}
		return false
	}
	return false
}
