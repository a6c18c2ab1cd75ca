package enrich

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/storyarc/storyarc/internal/model"
)

// milestoneThreshold flags a peak/valley when both |valence| and intensity
// (arousal) exceed it.
const milestoneThreshold = 0.7

// BuildMoodTimeline groups events with sentiment into period buckets and
// flags emotional milestones. Events without sentiment are skipped. Pure
// computation; no gateway calls.
func BuildMoodTimeline(userID string, events []model.TimelineEvent, period model.MoodPeriod) *model.MoodTimeline {
	type acc struct {
		start     time.Time
		valence   float64
		arousal   float64
		dominance float64
		emotions  map[string]int
		count     int
	}

	buckets := make(map[string]*acc)
	var milestones []model.MoodMilestone

	for _, ev := range events {
		if ev.Sentiment == nil {
			continue
		}
		s := *ev.Sentiment

		key, start := periodKey(ev.Timestamp, period)
		b, ok := buckets[key]
		if !ok {
			b = &acc{start: start, emotions: make(map[string]int)}
			buckets[key] = b
		}
		b.valence += s.Valence
		b.arousal += s.Arousal
		b.dominance += s.Dominance
		b.emotions[s.PrimaryEmotion]++
		b.count++

		if math.Abs(s.Valence) > milestoneThreshold && s.Arousal > milestoneThreshold {
			kind := "peak"
			if s.Valence < 0 {
				kind = "valley"
			}
			milestones = append(milestones, model.MoodMilestone{
				EventID:   ev.ID,
				Timestamp: ev.Timestamp,
				Valence:   s.Valence,
				Intensity: s.Arousal,
				Kind:      kind,
			})
		}
	}

	out := &model.MoodTimeline{UserID: userID, Period: period}
	for key, b := range buckets {
		out.Buckets = append(out.Buckets, model.MoodBucket{
			Key:            key,
			StartDate:      b.start,
			Valence:        b.valence / float64(b.count),
			Arousal:        b.arousal / float64(b.count),
			Dominance:      b.dominance / float64(b.count),
			PrimaryEmotion: majorityEmotion(b.emotions),
			EventCount:     b.count,
		})
	}
	sort.Slice(out.Buckets, func(i, j int) bool {
		return out.Buckets[i].StartDate.Before(out.Buckets[j].StartDate)
	})
	sort.Slice(milestones, func(i, j int) bool {
		return milestones[i].Timestamp.Before(milestones[j].Timestamp)
	})
	out.Milestones = milestones
	return out
}

// periodKey derives the bucket key and its start date for a timestamp.
func periodKey(t time.Time, period model.MoodPeriod) (string, time.Time) {
	t = t.UTC()
	switch period {
	case model.MoodWeekly:
		year, week := t.ISOWeek()
		// Walk back to the ISO week's Monday for the bucket start.
		start := t.Truncate(24 * time.Hour)
		for start.Weekday() != time.Monday {
			start = start.AddDate(0, 0, -1)
		}
		return fmt.Sprintf("%04d-W%02d", year, week), start
	case model.MoodMonthly:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return t.Format("2006-01"), start
	default: // daily
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return t.Format("2006-01-02"), start
	}
}

// majorityEmotion picks the most frequent label; ties break alphabetically
// so output is deterministic.
func majorityEmotion(counts map[string]int) string {
	best := ""
	bestN := -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestN {
			best = k
			bestN = counts[k]
		}
	}
	return best
}
