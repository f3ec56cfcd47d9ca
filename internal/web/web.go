// Package web embeds the exam pages and their static assets.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/stemsi/exstem-quiz/internal/exam"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Funcs are the helpers available to every page.
var Funcs = template.FuncMap{
	"number":  func(index int) int { return index + 1 },
	"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"seconds": func(v float64) string { return fmt.Sprintf("%.1fs", v) },
	"clock":   clock,
	"icon":    OutcomeIcon,
}

// Templates parses every embedded page.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(templateFS, "templates/*.html")
}

// Static serves the embedded assets under /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The directory is compiled in; this cannot fail at runtime.
		panic(err)
	}
	return http.FS(sub)
}

// OutcomeIcon labels a report line.
func OutcomeIcon(o exam.ReportOutcome) string {
	switch o {
	case exam.OutcomeCorrect:
		return "✅"
	case exam.OutcomeIncorrect:
		return "❌"
	default:
		return "⏳"
	}
}

// clock renders remaining seconds as M:SS, rounding up so a running question
// never shows 0:00.
func clock(remaining float64) string {
	total := int(remaining)
	if float64(total) < remaining {
		total++
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
