package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storyarc/storyarc/internal/model"
)

// emptyBiography is the no-chapter result for users with too few events to
// segment. It is generated locally, costs nothing, and completes the job.
func emptyBiography(tl *model.Timeline, style model.BiographyStyle) *model.Biography {
	now := time.Now()
	intro := fmt.Sprintf("Not enough recorded moments yet to tell this story in chapters. %d event(s) are on the timeline so far; as more are added, a fuller biography can be written.", len(tl.Events))
	return &model.Biography{
		ID:           uuid.New().String(),
		UserID:       tl.UserID,
		Title:        "A Story Just Beginning",
		Style:        style,
		Chapters:     []model.ChapterNarrative{},
		Introduction: intro,
		Metadata: model.BiographyMetadata{
			TotalWords:  len(strings.Fields(intro)),
			GeneratedAt: now,
		},
	}
}
