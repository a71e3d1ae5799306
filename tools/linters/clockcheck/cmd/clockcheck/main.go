package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/badyetly/badyetly/tools/linters/clockcheck"
)

func main() {
	singlechecker.Main(clockcheck.Analyzer)
}
