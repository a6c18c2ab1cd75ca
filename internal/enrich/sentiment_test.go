package enrich

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

func TestAnalyzeBatch_ClampsOutOfRangeValues(t *testing.T) {
	events := eventsN(2)
	gw := &fakeGateway{responses: []string{
		`[{"valence":3.5,"arousal":-2,"dominance":1.4,"primaryEmotion":"joy","confidence":9},
		  {"valence":-7,"arousal":0.5,"dominance":0.5,"primaryEmotion":"sadness","confidence":0.4}]`,
	}}

	a := NewSentimentAnalyzer(gw, zerolog.Nop())
	out, err := a.AnalyzeBatch(context.Background(), events)
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}

	s0 := out["e0"]
	if s0.Valence != 1 || s0.Arousal != 0 || s0.Dominance != 1 || s0.Confidence != 1 {
		t.Fatalf("values not clamped: %+v", s0)
	}
	s1 := out["e1"]
	if s1.Valence != -1 {
		t.Fatalf("negative valence not clamped to -1: %+v", s1)
	}
	if s1.Arousal != 0.5 || s1.Confidence != 0.4 {
		t.Fatalf("in-range values must pass through unchanged: %+v", s1)
	}
}

func TestAnalyzeBatch_ParseFailureNeutral(t *testing.T) {
	events := eventsN(3)
	gw := &fakeGateway{responses: []string{"{broken"}}

	a := NewSentimentAnalyzer(gw, zerolog.Nop())
	out, err := a.AnalyzeBatch(context.Background(), events)
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	for _, ev := range events {
		s := out[ev.ID]
		if s.PrimaryEmotion != "neutral" || s.Valence != 0 || s.Confidence != 0 {
			t.Fatalf("event %s: expected neutral fallback, got %+v", ev.ID, s)
		}
	}
}

func TestAnalyzeBatch_BackendErrorPropagates(t *testing.T) {
	events := eventsN(1)
	gw := &fakeGateway{errs: []error{fmt.Errorf("timeout")}}

	a := NewSentimentAnalyzer(gw, zerolog.Nop())
	if _, err := a.AnalyzeBatch(context.Background(), events); err == nil {
		t.Fatal("expected backend error to propagate")
	}
}
