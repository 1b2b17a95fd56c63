package analysis

import "regexp"

// tok captures one whole HH:MM:SS token. Hours are unbounded so very long
// source videos still parse.
const tok = `(\d+:[0-5]\d:[0-5]\d)`

// A grammar is one extraction pattern for timestamp ranges. Grammars are
// tried strictly in order and the first one producing at least one raw
// match wins; each is total and side-effect-free, so the fallback chain
// stays auditable and deterministic.
type grammar struct {
	name string
	re   *regexp.Regexp

	// withFields controls whether labeled metadata (Category:, Description:,
	// Highlight:) is resolved for matches of this grammar.
	withFields bool
}

// grammars is ordered from strict to permissive. The strict form follows
// the format the analysis prompt asks for; the relaxed form accepts any
// two timecodes joined by a hyphen, which rescues runs where the upstream
// model ignored the requested layout.
var grammars = []grammar{
	{
		name: "labeled",
		// Tolerates markdown bold markers, brackets and list dashes between
		// the label and the range, as the upstream model emits all of them.
		re:         regexp.MustCompile(`Timestamp:[\s\*\[]*` + tok + `\s*-\s*` + tok),
		withFields: true,
	},
	{
		name: "bare-range",
		re:   regexp.MustCompile(tok + `\s*-\s*` + tok),
	},
}

var (
	reCategory    = regexp.MustCompile(`(?i)Category\s*:\s*([^\n]+)`)
	reDescription = regexp.MustCompile(`(?i)Description\s*:\s*([^\n]+)`)
	reHighlight   = regexp.MustCompile(`(?i)Highlight\s*:\s*([^\n]+)`)
)
