// Package analysis extracts candidate clip segments from the free-form
// highlight analysis produced by the upstream text-generation service.
//
// The input has no structural contract. Extraction therefore runs an
// ordered list of grammars (see grammar.go) and recovers locally from
// every malformed entry: a bad range is logged and skipped, never raised.
// Given the same raw text and duration the output is always identical.
package analysis

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clipmoment/clipmoment/internal/domain/timecode"
	"github.com/clipmoment/clipmoment/internal/types"
)

type Parser struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Parser {
	return &Parser{log: log.With().Str("component", "analysis").Logger()}
}

// Parse extracts candidate segments from rawText. It never fails; total
// non-match yields an empty slice. Candidates violating start < end or
// start < totalDuration are discarded here and never stored.
func (p *Parser) Parse(rawText string, totalDuration int) []types.CandidateSegment {
	for _, g := range grammars {
		matches := g.re.FindAllStringSubmatchIndex(rawText, -1)
		if len(matches) == 0 {
			continue
		}
		p.log.Debug().Str("grammar", g.name).Int("raw_matches", len(matches)).Msg("grammar matched")
		return p.collect(rawText, matches, g, totalDuration)
	}
	p.log.Debug().Msg("no grammar matched analysis text")
	return nil
}

func (p *Parser) collect(rawText string, matches [][]int, g grammar, totalDuration int) []types.CandidateSegment {
	var out []types.CandidateSegment
	prevEnd := 0
	for _, m := range matches {
		startTok := rawText[m[2]:m[3]]
		endTok := rawText[m[4]:m[5]]
		entryStart := prevEnd
		prevEnd = m[1]

		start, err := timecode.Parse(startTok)
		if err != nil {
			p.log.Debug().Str("token", startTok).Msg("unparseable start timecode, entry skipped")
			continue
		}
		end, err := timecode.Parse(endTok)
		if err != nil {
			p.log.Debug().Str("token", endTok).Msg("unparseable end timecode, entry skipped")
			continue
		}
		if start >= end {
			p.log.Debug().Stringer("start", start).Stringer("end", end).Msg("inverted range, entry skipped")
			continue
		}
		if start.Seconds() >= totalDuration {
			p.log.Debug().Stringer("start", start).Int("total", totalDuration).Msg("range starts past end of video, entry skipped")
			continue
		}

		c := types.CandidateSegment{
			Start:       start,
			End:         end,
			SourceOrder: len(out),
		}
		if g.withFields {
			// Labels are resolved from the entry block: everything between the
			// previous timestamp match (or start of text) and this one.
			block := rawText[entryStart:m[0]]
			c.Category = lastLabel(reCategory, block)
			c.Description = lastLabel(reDescription, block)
			c.Highlight = lastLabel(reHighlight, block)
		}
		out = append(out, c)
	}
	return out
}

// lastLabel returns the cleaned value of the nearest preceding occurrence
// of the label in the entry block, or "" when absent.
func lastLabel(re *regexp.Regexp, block string) string {
	ms := re.FindAllStringSubmatch(block, -1)
	if len(ms) == 0 {
		return ""
	}
	return cleanField(ms[len(ms)-1][1])
}

// cleanField strips the markdown noise the upstream model wraps values in.
func cleanField(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.Trim(s, " \t[]*-")
	return strings.TrimSpace(s)
}
