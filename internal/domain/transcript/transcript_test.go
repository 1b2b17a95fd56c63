package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/clipmoment/clipmoment/internal/types"
)

func testTranscript() types.Transcript {
	return types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 5, Text: "hello there"},
		{Start: 5, End: 12, Text: "this is the middle"},
		{Start: 12, End: 20, Text: "and the end"},
	}}
}

func TestExcerpt(t *testing.T) {
	t.Parallel()

	tr := testTranscript()
	if got := Excerpt(tr, 6, 11); got != "this is the middle" {
		t.Fatalf("got %q", got)
	}
	// Partial overlaps on both sides are included.
	if got := Excerpt(tr, 4, 13); got != "hello there this is the middle and the end" {
		t.Fatalf("got %q", got)
	}
	// Boundary touch is not an overlap.
	if got := Excerpt(tr, 20, 30); got != "" {
		t.Fatalf("expected empty excerpt, got %q", got)
	}
}

func TestExcerpt_WordTimingTightensBoundaries(t *testing.T) {
	t.Parallel()

	tr := types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 10, Text: "one two three four", Words: []types.Word{
			{Start: 0, End: 2, Word: " one"},
			{Start: 2, End: 5, Word: " two"},
			{Start: 5, End: 8, Word: " three"},
			{Start: 8, End: 10, Word: " four"},
		}},
		{Start: 10, End: 14, Text: "five six", Words: []types.Word{
			{Start: 10, End: 12, Word: " five"},
			{Start: 12, End: 14, Word: " six"},
		}},
	}}

	// The first segment straddles the window start; only its in-window
	// words survive. The second lies fully inside and keeps its text.
	if got := Excerpt(tr, 4, 14); got != "two three four five six" {
		t.Fatalf("got %q", got)
	}
	// Straddling the window end trims trailing words.
	if got := Excerpt(tr, 0, 6); got != "one two three" {
		t.Fatalf("got %q", got)
	}
	// Word boundary touch is not an overlap.
	if got := Excerpt(tr, 2, 5); got != "two" {
		t.Fatalf("got %q", got)
	}
}

func TestHasTiming(t *testing.T) {
	t.Parallel()

	if !HasTiming(testTranscript()) {
		t.Fatalf("expected timing")
	}
	if HasTiming(types.Transcript{}) {
		t.Fatalf("empty transcript should have no timing")
	}
	if HasTiming(types.Transcript{Segments: []types.Segment{{Start: 3, End: 3, Text: "x"}}}) {
		t.Fatalf("zero-length segments are not usable timing")
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tr.json")
	data := `{"segments":[{"start":0,"end":2,"text":"  padded  "}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	tr, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tr.Segments) != 1 || tr.Segments[0].Text != "padded" {
		t.Fatalf("unexpected transcript: %+v", tr)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
