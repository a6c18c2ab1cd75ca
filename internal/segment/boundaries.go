// Package segment slices a timeline into chapters. Candidate boundaries are
// scored by independent heuristics, filtered for minimum spacing, then
// applied as chronological cut points.
package segment

import (
	"sort"

	"github.com/storyarc/storyarc/internal/model"
)

const (
	// candidateThreshold is the minimum strength for a pair to become a
	// candidate boundary.
	candidateThreshold = 0.4
	// minBoundarySpacing is the minimum event-index distance between kept
	// boundaries, enforcing a chapter size floor independent of time.
	minBoundarySpacing = 5
	// timeGapDays is the gap beyond which elapsed time alone can justify a
	// boundary.
	timeGapDays = 90
)

// boundary is a candidate cut point before event Index.
type boundary struct {
	Index    int
	Strength float64
	Reason   string
}

// scoreBoundaries evaluates every adjacent event pair. Strength is the MAX
// of the heuristics, not a sum; later heuristics refine the reason only when
// they raise the score.
func scoreBoundaries(events []model.TimelineEvent, opts model.ChapterOptions) []boundary {
	var candidates []boundary

	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		daysGap := cur.Timestamp.Sub(prev.Timestamp).Hours() / 24

		strength := 0.0
		reason := ""

		if daysGap > timeGapDays {
			s := daysGap / 365
			if s > 1.0 {
				s = 1.0
			}
			strength = s
			reason = "time gap"
		}

		if categoryShift(prev, cur) && strength < 0.7 {
			strength = 0.7
			reason = "major category change"
		}

		if prev.Timestamp.Year() != cur.Timestamp.Year() && strength < 0.5 {
			strength = 0.5
			reason = "calendar year boundary"
		}

		if daysGap >= float64(opts.MinChapterDurationDays) && daysGap <= float64(opts.MaxChapterDurationDays) && strength < 0.4 {
			strength = 0.4
			reason = "natural cluster boundary"
		}

		if strength >= candidateThreshold {
			candidates = append(candidates, boundary{Index: i, Strength: strength, Reason: reason})
		}
	}
	return candidates
}

// categoryShift reports a category change where either side is major.
func categoryShift(a, b model.TimelineEvent) bool {
	if a.Category == nil || b.Category == nil {
		return false
	}
	if *a.Category == *b.Category {
		return false
	}
	return a.Category.IsMajor() || b.Category.IsMajor()
}

// filterBoundaries keeps candidates greedily in descending strength order,
// rejecting any whose index distance to every already-kept boundary is below
// minBoundarySpacing. The "nearest kept boundary" reading is deliberate: it
// prevents a cluster of strong candidates from producing sliver chapters.
// The result is returned in chronological index order, ready for slicing.
func filterBoundaries(candidates []boundary) []boundary {
	byStrength := make([]boundary, len(candidates))
	copy(byStrength, candidates)
	sort.SliceStable(byStrength, func(i, j int) bool {
		return byStrength[i].Strength > byStrength[j].Strength
	})

	var kept []boundary
	for _, c := range byStrength {
		ok := true
		for _, k := range kept {
			d := c.Index - k.Index
			if d < 0 {
				d = -d
			}
			if d < minBoundarySpacing {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, c)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Index < kept[j].Index })
	return kept
}
