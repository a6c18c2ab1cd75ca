package narrative

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/storyarc/storyarc/internal/model"
)

func TestTruncateSnippet_RuneBoundary(t *testing.T) {
	// One ASCII byte then three-byte runes so the limit lands mid-rune.
	s := "a" + strings.Repeat("旅", 100)
	got := truncateSnippet(s, eventSnippetLimit)
	if len(got) > eventSnippetLimit {
		t.Fatalf("snippet exceeds limit: %d > %d", len(got), eventSnippetLimit)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("snippet is not valid UTF-8: %q", got)
	}
	if len(got) != 238 {
		t.Fatalf("expected cut at previous rune start (238 bytes), got %d", len(got))
	}
}

func TestWriteEventLines_ValidUTF8AfterCut(t *testing.T) {
	ev := model.TimelineEvent{
		ID:        "e1",
		Timestamp: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC),
		Content:   strings.Repeat("日記", 300),
	}
	var b strings.Builder
	writeEventLines(&b, []model.TimelineEvent{ev})
	if !utf8.ValidString(b.String()) {
		t.Fatalf("prompt lines contain invalid UTF-8: %q", b.String())
	}
}
