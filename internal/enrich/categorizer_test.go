package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/gateway"
	"github.com/storyarc/storyarc/internal/model"
)

// fakeGateway replays canned responses per call, in order.
type fakeGateway struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeGateway) GenerateText(ctx context.Context, prompt string, opts gateway.Options) (*gateway.Result, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	text := ""
	if i < len(f.responses) {
		text = f.responses[i]
	}
	return &gateway.Result{Text: text}, nil
}

func eventsN(n int) []model.TimelineEvent {
	base := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.TimelineEvent, n)
	for i := range out {
		out[i] = model.TimelineEvent{
			ID:        fmt.Sprintf("e%d", i),
			UserID:    "u1",
			Timestamp: base.AddDate(0, 0, i),
			Content:   fmt.Sprintf("something happened %d", i),
		}
	}
	return out
}

func categoryJSON(n int, cat string) string {
	items := make([]categoryItem, n)
	for i := range items {
		items[i] = categoryItem{Category: cat, Tags: []string{"tag"}, Confidence: 0.8}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func TestCategorizeBatch_Success(t *testing.T) {
	events := eventsN(3)
	gw := &fakeGateway{responses: []string{categoryJSON(3, "CAREER")}}

	c := NewCategorizer(gw, zerolog.Nop())
	out, err := c.CategorizeBatch(context.Background(), events)
	if err != nil {
		t.Fatalf("CategorizeBatch: %v", err)
	}
	if gw.calls != 1 {
		t.Fatalf("expected 1 gateway call, got %d", gw.calls)
	}
	for _, ev := range events {
		res := out[ev.ID]
		if res.Category != model.CategoryCareer || res.Fallback {
			t.Fatalf("event %s: unexpected result %+v", ev.ID, res)
		}
	}
}

// Malformed JSON for a 10-event batch degrades all 10 events to the
// documented fallback and does not fail the call.
func TestCategorizeBatch_MalformedResponseFallsBack(t *testing.T) {
	events := eventsN(10)
	gw := &fakeGateway{responses: []string{"I am not JSON, sorry"}}

	c := NewCategorizer(gw, zerolog.Nop())
	out, err := c.CategorizeBatch(context.Background(), events)
	if err != nil {
		t.Fatalf("CategorizeBatch: %v", err)
	}
	if len(out) != 10 {
		t.Fatalf("expected 10 results, got %d", len(out))
	}
	for _, ev := range events {
		res := out[ev.ID]
		if !res.Fallback || res.Category != model.CategoryOther || res.Confidence != 0 || len(res.Tags) != 0 {
			t.Fatalf("event %s: expected fallback, got %+v", ev.ID, res)
		}
	}
}

func TestCategorizeBatch_LengthMismatchFallsBack(t *testing.T) {
	events := eventsN(4)
	gw := &fakeGateway{responses: []string{categoryJSON(3, "TRAVEL")}} // one short

	c := NewCategorizer(gw, zerolog.Nop())
	out, err := c.CategorizeBatch(context.Background(), events)
	if err != nil {
		t.Fatalf("CategorizeBatch: %v", err)
	}
	for _, ev := range events {
		if !out[ev.ID].Fallback {
			t.Fatalf("event %s: expected fallback on length mismatch", ev.ID)
		}
	}
}

func TestCategorizeBatch_BackendErrorPropagates(t *testing.T) {
	events := eventsN(2)
	gw := &fakeGateway{errs: []error{fmt.Errorf("backend unavailable")}}

	c := NewCategorizer(gw, zerolog.Nop())
	if _, err := c.CategorizeBatch(context.Background(), events); err == nil {
		t.Fatal("expected backend error to propagate")
	}
}

func TestCategorizeBatch_SplitsIntoBatchesOfTen(t *testing.T) {
	events := eventsN(23)
	gw := &fakeGateway{responses: []string{
		categoryJSON(10, "FAMILY"),
		categoryJSON(10, "FAMILY"),
		categoryJSON(3, "FAMILY"),
	}}

	c := NewCategorizer(gw, zerolog.Nop())
	out, err := c.CategorizeBatch(context.Background(), events)
	if err != nil {
		t.Fatalf("CategorizeBatch: %v", err)
	}
	if gw.calls != 3 {
		t.Fatalf("expected 3 gateway calls, got %d", gw.calls)
	}
	if len(out) != 23 {
		t.Fatalf("expected 23 results, got %d", len(out))
	}
}

func TestCategorizeBatch_UnknownCategoryCoercedToOther(t *testing.T) {
	events := eventsN(1)
	gw := &fakeGateway{responses: []string{`[{"category":"SPACE_TRAVEL","tags":[],"confidence":0.9}]`}}

	c := NewCategorizer(gw, zerolog.Nop())
	out, err := c.CategorizeBatch(context.Background(), events)
	if err != nil {
		t.Fatalf("CategorizeBatch: %v", err)
	}
	if out["e0"].Category != model.CategoryOther {
		t.Fatalf("unknown category should coerce to OTHER, got %s", out["e0"].Category)
	}
	if out["e0"].Fallback {
		t.Fatal("coercion is not a fallback")
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct{ in, want string }{
		{"```json\n[1,2]\n```", "[1,2]"},
		{"```\n[1,2]\n```", "[1,2]"},
		{"[1,2]", "[1,2]"},
		{"  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, c := range cases {
		if got := stripCodeFence(c.in); got != c.want {
			t.Fatalf("stripCodeFence(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
