package clockcheck_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/badyetly/badyetly/tools/linters/clockcheck"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, clockcheck.Analyzer, "app", "example.com/internal/recurring")
}
