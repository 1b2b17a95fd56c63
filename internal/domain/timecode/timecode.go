// Package timecode holds the canonical HH:MM:SS time representation used
// across analysis parsing, duration policy and rendering.
package timecode

import (
	"fmt"
	"regexp"
	"strconv"
)

// TimeCode is a second-accurate offset from the start of a video.
// Hours are unbounded; minutes and seconds are 0-59 in the canonical form.
type TimeCode int

// Pattern matches a single HH:MM:SS token. Hours may exceed two digits.
const Pattern = `(\d{1,}):([0-5]\d):([0-5]\d)`

var re = regexp.MustCompile(`^` + Pattern + `$`)

// Parse converts a canonical HH:MM:SS string into a TimeCode.
func Parse(s string) (TimeCode, error) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid timecode %q", s)
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", s, err)
	}
	mm, _ := strconv.Atoi(m[2])
	ss, _ := strconv.Atoi(m[3])
	return TimeCode(h*3600 + mm*60 + ss), nil
}

// String renders the zero-padded canonical form, so Parse(tc.String()) == tc.
func (t TimeCode) String() string {
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// Seconds returns the offset as plain seconds.
func (t TimeCode) Seconds() int { return int(t) }

// FromSeconds clamps negative inputs to zero.
func FromSeconds(sec int) TimeCode {
	if sec < 0 {
		sec = 0
	}
	return TimeCode(sec)
}
