package narrative

import (
	"sort"
	"strings"

	"github.com/storyarc/storyarc/internal/model"
)

const (
	// mediaTokenMinLen is the minimum word length considered for matching.
	mediaTokenMinLen = 4
	// mediaScorePerMatch is the relevance contribution of one matched token.
	mediaScorePerMatch = 0.2
	// mediaAcceptThreshold is the relevance required to place the media.
	mediaAcceptThreshold = 0.3
)

// matchMedia places a chapter's media inside its narrative by keyword
// overlap. For every media-bearing event, tokens longer than mediaTokenMinLen
// are searched case-insensitively in the narrative; each hit adds
// mediaScorePerMatch to the relevance, and the earliest hit offset becomes
// the placement position. Heuristic placement, not semantic matching.
func matchMedia(narrative string, events []model.TimelineEvent) []model.MediaMatch {
	lowered := strings.ToLower(narrative)
	var matches []model.MediaMatch

	for _, ev := range events {
		if !ev.Metadata.HasMedia() {
			continue
		}

		relevance := 0.0
		position := -1
		for _, tok := range strings.Fields(ev.Content) {
			tok = strings.ToLower(strings.Trim(tok, ".,!?;:\"'()"))
			if len(tok) <= mediaTokenMinLen {
				continue
			}
			idx := strings.Index(lowered, tok)
			if idx < 0 {
				continue
			}
			relevance += mediaScorePerMatch
			if position < 0 || idx < position {
				position = idx
			}
		}

		if relevance <= mediaAcceptThreshold {
			continue
		}
		for _, url := range ev.Metadata.MediaURLs {
			matches = append(matches, model.MediaMatch{
				EventID:   ev.ID,
				MediaURL:  url,
				MediaType: ev.Metadata.MediaType,
				Relevance: relevance,
				Position:  position,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Position < matches[j].Position
	})
	return matches
}
