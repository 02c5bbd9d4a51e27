package main

import (
	"go/ast"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// ExitCheckAnalyzer reports direct os.Exit calls inside func main of main packages.
var ExitCheckAnalyzer = &analysis.Analyzer{
	Name: "exitcheck",
	Doc:  "forbids calling os.Exit directly in func main of a main package",
	Run:  runExitCheck,
}

// modulePrefix limits the check to packages of one module.
var modulePrefix = "github.com/jayjaytrn/URLMapper"

func init() {
	ExitCheckAnalyzer.Flags.StringVar(&modulePrefix, "module", modulePrefix, "import path prefix of the packages to check")
}

func isGenerated(file *ast.File) bool {
	for _, cg := range file.Comments {
		if strings.Contains(cg.Text(), "Code generated") {
			return true
		}
	}
	return false
}

func isOsExit(pass *analysis.Pass, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil {
		return false
	}
	return fn.Pkg().Path() == "os" && fn.Name() == "Exit"
}

func runExitCheck(pass *analysis.Pass) (interface{}, error) {
	if !strings.HasPrefix(pass.Pkg.Path(), modulePrefix) || pass.Pkg.Name() != "main" {
		return nil, nil
	}

	vendor := string(filepath.Separator) + "vendor" + string(filepath.Separator)
	for _, file := range pass.Files {
		// go test generates a main package for every test binary
		if isGenerated(file) {
			continue
		}
		if strings.Contains(pass.Fset.Position(file.Pos()).Filename, vendor) {
			continue
		}

		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil || fn.Name.Name != "main" || fn.Body == nil {
				continue
			}
			ast.Inspect(fn.Body, func(n ast.Node) bool {
				if call, ok := n.(*ast.CallExpr); ok && isOsExit(pass, call) {
					pass.Reportf(call.Pos(), "direct os.Exit call in main function")
				}
				return true
			})
		}
	}
	return nil, nil
}
