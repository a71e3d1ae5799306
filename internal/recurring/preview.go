package recurring

import "cloud.google.com/go/civil"

// Preview returns up to n dates of def starting from its start date, using
// the same stepping and clamping as Schedule. An invalid definition yields an
// empty slice, never an error. n <= 0 means DefaultPreviewCount.
func (g *Generator) Preview(def Definition, n int) []civil.Date {
	if n <= 0 {
		n = DefaultPreviewCount
	}
	dates, err := g.schedule(def, def.StartDate, min(n, g.cap))
	if err != nil || dates == nil {
		return []civil.Date{}
	}
	return dates
}

// PreviewDraft previews an in-progress form. Anything that does not coerce
// cleanly, including a malformed date, produces an empty slice so the form
// can show that no schedule could be calculated.
func (g *Generator) PreviewDraft(draft Draft, today civil.Date, n int) []civil.Date {
	def, err := draft.Definition(today, InputPolicy{Strict: true})
	if err != nil {
		return []civil.Date{}
	}
	return g.Preview(def, n)
}
