package main

import (
	"testing"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/analysistest"
)

func TestExitCheckAnalyzer(t *testing.T) {
	prev := modulePrefix
	if err := ExitCheckAnalyzer.Flags.Set("module", "example.com"); err != nil {
		t.Fatal(err)
	}
	defer func() { modulePrefix = prev }()

	analysistest.Run(t, analysistest.TestData(), ExitCheckAnalyzer,
		"example.com/app",
		"example.com/aliased",
		"other.org/tool",
	)
}

func TestAllAnalyzers(t *testing.T) {
	analyzers := allAnalyzers()
	if err := analysis.Validate(analyzers); err != nil {
		t.Fatalf("invalid analyzer set: %v", err)
	}

	seen := make(map[string]bool, len(analyzers))
	for _, a := range analyzers {
		if seen[a.Name] {
			t.Errorf("analyzer %s registered twice", a.Name)
		}
		seen[a.Name] = true
	}

	for _, name := range []string{"exitcheck", "ST1005", "SA4006", "forcetypeassert", "wraperrfmt", "printf"} {
		if !seen[name] {
			t.Errorf("analyzer %s missing", name)
		}
	}
}
