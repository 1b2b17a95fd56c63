// Package policy enforces the clip-length buckets on candidate segments.
package policy

import (
	"github.com/clipmoment/clipmoment/internal/domain/timecode"
	"github.com/clipmoment/clipmoment/internal/types"
)

// Bounds is the allowed clip length range for one duration bucket.
type Bounds struct {
	Min int
	Max int
}

// DefaultBucket is used when the requested bucket name is unknown.
const DefaultBucket = "3m-5m"

// buckets is fixed; bucket names are part of the caller-facing contract
// and are not extensible at runtime.
var buckets = map[string]Bounds{
	"<30s":    {1, 30},
	"30s-59s": {30, 60},
	"90s-3m":  {90, 180},
	"3m-5m":   {180, 300},
	"5m-10m":  {300, 600},
	"10m-15m": {600, 900},
	"15m-20m": {900, 1200},
	"20m-25m": {1200, 1500},
}

// Resolve maps a bucket name to its bounds, falling back to DefaultBucket
// for unknown names.
func Resolve(bucketName string) Bounds {
	if b, ok := buckets[bucketName]; ok {
		return b
	}
	return buckets[DefaultBucket]
}

// Known reports whether bucketName is one of the fixed buckets.
func Known(bucketName string) bool {
	_, ok := buckets[bucketName]
	return ok
}

// Apply adjusts one candidate to satisfy the bucket bounds against the
// total video duration.
//
// The two clamp stages must run in this order: extend/truncate to the
// bucket first, clamp to the video end second. Reversing them changes
// results near the tail of the video, so the order is a behavioral
// contract, not an implementation detail.
func Apply(c types.CandidateSegment, b Bounds, totalDuration int) types.SelectedSegment {
	start := c.Start.Seconds()
	end := c.End.Seconds()

	length := end - start
	if length < b.Min {
		end = start + b.Min
	} else if length > b.Max {
		end = start + b.Max
	}

	tailClamped := false
	if end > totalDuration {
		end = totalDuration
		if end-start < b.Min {
			// The remaining tail is shorter than the bucket minimum. Pull the
			// start back as far as the video allows; when the whole video is
			// shorter than the minimum the segment still ends up under it,
			// which is the one sanctioned violation of the bounds.
			start = end - b.Min
			if start < 0 {
				start = 0
			}
			tailClamped = true
		}
	}

	return types.SelectedSegment{
		CandidateSegment: c,
		AdjustedStart:    timecode.FromSeconds(start),
		AdjustedEnd:      timecode.FromSeconds(end),
		TailClamped:      tailClamped,
	}
}
