// Package transcript slices a timestamp-aligned transcript down to the
// portion covered by one clip.
package transcript

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/clipmoment/clipmoment/internal/types"
)

// Load reads a transcript in the whisper JSON shape from disk.
func Load(path string) (types.Transcript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Transcript{}, err
	}
	var tr types.Transcript
	if err := json.Unmarshal(b, &tr); err != nil {
		return types.Transcript{}, err
	}
	for i := range tr.Segments {
		tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
	}
	return tr, nil
}

// HasTiming reports whether the transcript carries usable timestamps.
func HasTiming(tr types.Transcript) bool {
	for _, s := range tr.Segments {
		if s.End > s.Start && strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}

// Excerpt joins the text of every transcript segment overlapping
// [start, end) seconds. Segments that only partially overlap and carry
// word timestamps contribute just the words inside the window; segments
// without word timing contribute their whole text. Returns "" when
// nothing overlaps.
func Excerpt(tr types.Transcript, start, end int) string {
	s0, e0 := float64(start), float64(end)
	var parts []string
	for _, s := range tr.Segments {
		if s.End <= s0 || s.Start >= e0 {
			continue
		}
		if len(s.Words) > 0 && (s.Start < s0 || s.End > e0) {
			for _, w := range s.Words {
				if w.End <= s0 || w.Start >= e0 {
					continue
				}
				if t := strings.TrimSpace(w.Word); t != "" {
					parts = append(parts, t)
				}
			}
			continue
		}
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
