package narrative

import (
	"fmt"

	"github.com/storyarc/storyarc/internal/model"
)

// biographyTitle is a static lookup keyed by style plus the timeline's year
// span. No AI call is involved.
func biographyTitle(style model.BiographyStyle, startYear, endYear int) string {
	span := fmt.Sprintf("%d", startYear)
	if endYear != startYear {
		span = fmt.Sprintf("%d-%d", startYear, endYear)
	}
	switch style {
	case model.StyleChronological:
		return fmt.Sprintf("A Life in Order: %s", span)
	case model.StyleReflective:
		return fmt.Sprintf("Looking Back: %s", span)
	case model.StyleThematic:
		return fmt.Sprintf("The Threads of a Life: %s", span)
	case model.StyleDocumentary:
		return fmt.Sprintf("The Record: %s", span)
	case model.StyleHighlights:
		return fmt.Sprintf("Moments That Mattered: %s", span)
	default:
		return fmt.Sprintf("A Life Story: %s", span)
	}
}
