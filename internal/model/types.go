package model

import "time"

// SourceType identifies where a timeline event was observed.
type SourceType string

const (
	SourcePost  SourceType = "POST"
	SourceEmail SourceType = "EMAIL"
	SourceDiary SourceType = "DIARY"
	SourceMedia SourceType = "MEDIA"
)

// Category is the fixed label set assigned by enrichment.
type Category string

const (
	CategoryEducation         Category = "EDUCATION"
	CategoryCareer            Category = "CAREER"
	CategoryFamily            Category = "FAMILY"
	CategoryRelationships     Category = "RELATIONSHIPS"
	CategoryTravel            Category = "TRAVEL"
	CategoryHealth            Category = "HEALTH"
	CategoryHobbies           Category = "HOBBIES"
	CategorySignificantEvents Category = "SIGNIFICANT_EVENTS"
	CategoryDailyLife         Category = "DAILY_LIFE"
	CategoryOther             Category = "OTHER"
)

var allCategories = map[Category]bool{
	CategoryEducation:         true,
	CategoryCareer:            true,
	CategoryFamily:            true,
	CategoryRelationships:     true,
	CategoryTravel:            true,
	CategoryHealth:            true,
	CategoryHobbies:           true,
	CategorySignificantEvents: true,
	CategoryDailyLife:         true,
	CategoryOther:             true,
}

// ParseCategory coerces arbitrary model output into the fixed set.
// Anything unknown becomes OTHER.
func ParseCategory(s string) Category {
	c := Category(s)
	if allCategories[c] {
		return c
	}
	return CategoryOther
}

// IsMajor reports whether a category marks a life-defining area. Major
// categories weigh heavier in chapter boundary detection.
func (c Category) IsMajor() bool {
	switch c {
	case CategoryEducation, CategoryCareer, CategoryFamily, CategorySignificantEvents:
		return true
	}
	return false
}

// EngagementCounts carries social engagement numbers when the source has them.
type EngagementCounts struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
}

// EventMetadata is the typed union of per-source metadata. Known shapes get
// first-class fields; anything provider-specific beyond that lands in Extra.
type EventMetadata struct {
	Provider   string                 `json:"provider,omitempty"`
	MediaURLs  []string               `json:"mediaUrls,omitempty"`
	MediaType  string                 `json:"mediaType,omitempty"`
	Latitude   *float64               `json:"latitude,omitempty"`
	Longitude  *float64               `json:"longitude,omitempty"`
	Engagement *EngagementCounts      `json:"engagement,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// HasMedia reports whether the event carries at least one media reference.
func (m EventMetadata) HasMedia() bool { return len(m.MediaURLs) > 0 }

// Sentiment is a VAD affect vector plus a dominant emotion label.
type Sentiment struct {
	Valence        float64 `json:"valence"`   // [-1, 1]
	Arousal        float64 `json:"arousal"`   // [0, 1]
	Dominance      float64 `json:"dominance"` // [0, 1]
	PrimaryEmotion string  `json:"primaryEmotion"`
	Confidence     float64 `json:"confidence"` // [0, 1]
}

// Clamped returns a copy with every component forced into its declared range,
// regardless of what the model produced.
func (s Sentiment) Clamped() Sentiment {
	s.Valence = clamp(s.Valence, -1, 1)
	s.Arousal = clamp(s.Arousal, 0, 1)
	s.Dominance = clamp(s.Dominance, 0, 1)
	s.Confidence = clamp(s.Confidence, 0, 1)
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TimelineEvent is one observed life moment. Category, Tags and Sentiment are
// nil until the enrichment stage attaches them in place.
type TimelineEvent struct {
	ID         string        `json:"id"`
	UserID     string        `json:"userId"`
	SourceType SourceType    `json:"sourceType"`
	SourceID   string        `json:"sourceId"`
	Timestamp  time.Time     `json:"timestamp"`
	Content    string        `json:"content"`
	Metadata   EventMetadata `json:"metadata"`
	Category   *Category     `json:"category,omitempty"`
	Tags       []string      `json:"tags,omitempty"`
	Sentiment  *Sentiment    `json:"sentiment,omitempty"`
}

// TimelineCluster references a dense run of events. The timeline owns the
// events; the cluster only records ids and the index range.
type TimelineCluster struct {
	ID           string    `json:"id"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	StartIndex   int       `json:"startIndex"`
	EndIndex     int       `json:"endIndex"` // inclusive
	EventIDs     []string  `json:"eventIds"`
	Significance int       `json:"significance"` // event count
}

// TimelineGap records a silence of at least the configured threshold.
type TimelineGap struct {
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	DurationDays int       `json:"durationDays"`
}

// Timeline is the full chronologically ordered view of a user's events with
// derived clusters and gaps. Events are strictly ascending by timestamp.
type Timeline struct {
	UserID    string            `json:"userId"`
	Events    []TimelineEvent   `json:"events"`
	Clusters  []TimelineCluster `json:"clusters"`
	Gaps      []TimelineGap     `json:"gaps"`
	StartDate time.Time         `json:"startDate"`
	EndDate   time.Time         `json:"endDate"`
}

// ChapterMetadata carries derived chapter stats.
type ChapterMetadata struct {
	EventCount   int     `json:"eventCount"`
	DurationDays int     `json:"durationDays"`
	AIGenerated  bool    `json:"aiGenerated"`
	Confidence   float64 `json:"confidence"`
}

// BiographyChapter is a contiguous slice of the timeline treated as one
// narrative unit. EventIDs are weak references into the timeline.
type BiographyChapter struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	StartDate        time.Time       `json:"startDate"`
	EndDate          time.Time       `json:"endDate"`
	EventIDs         []string        `json:"eventIds"`
	Summary          string          `json:"summary"`
	DominantCategory Category        `json:"dominantCategory"`
	Significance     int             `json:"significance"`
	Metadata         ChapterMetadata `json:"metadata"`
}

// BiographyStyle selects the narrative voice.
type BiographyStyle string

const (
	StyleChronological BiographyStyle = "CHRONOLOGICAL"
	StyleReflective    BiographyStyle = "REFLECTIVE"
	StyleThematic      BiographyStyle = "THEMATIC"
	StyleDocumentary   BiographyStyle = "DOCUMENTARY"
	StyleHighlights    BiographyStyle = "HIGHLIGHTS"
)

// Valid reports whether s is one of the supported styles.
func (s BiographyStyle) Valid() bool {
	switch s {
	case StyleChronological, StyleReflective, StyleThematic, StyleDocumentary, StyleHighlights:
		return true
	}
	return false
}

// MediaMatch places one media item inside a chapter narrative.
type MediaMatch struct {
	EventID   string  `json:"eventId"`
	MediaURL  string  `json:"mediaUrl"`
	MediaType string  `json:"mediaType"`
	Relevance float64 `json:"relevance"`
	Position  int     `json:"position"` // character offset in the narrative
}

// ChapterNarrative is the generated text for one chapter.
type ChapterNarrative struct {
	ChapterID    string       `json:"chapterId"`
	Title        string       `json:"title"`
	Narrative    string       `json:"narrative"`
	WordCount    int          `json:"wordCount"`
	MediaMatches []MediaMatch `json:"mediaMatches,omitempty"`
}

// BiographyMetadata aggregates generation stats for one run.
type BiographyMetadata struct {
	TotalWords     int           `json:"totalWords"`
	TotalChapters  int           `json:"totalChapters"`
	GeneratedAt    time.Time     `json:"generatedAt"`
	CostUSD        float64       `json:"costUsd"`
	GenerationTime time.Duration `json:"generationTime"`
}

// Biography is the final narrated life story. It is created whole on job
// completion and never mutated; regeneration produces a new Biography.
type Biography struct {
	ID           string             `json:"id"`
	UserID       string             `json:"userId"`
	Title        string             `json:"title"`
	Style        BiographyStyle     `json:"style"`
	Chapters     []ChapterNarrative `json:"chapters"`
	Introduction string             `json:"introduction"`
	Conclusion   string             `json:"conclusion"`
	Metadata     BiographyMetadata  `json:"metadata"`
}

// MoodPeriod selects the bucket granularity of a mood timeline.
type MoodPeriod string

const (
	MoodDaily   MoodPeriod = "daily"
	MoodWeekly  MoodPeriod = "weekly"
	MoodMonthly MoodPeriod = "monthly"
)

// Valid reports whether p is a supported bucket granularity.
func (p MoodPeriod) Valid() bool {
	return p == MoodDaily || p == MoodWeekly || p == MoodMonthly
}

// MoodBucket is one aggregated period of affect.
type MoodBucket struct {
	Key            string    `json:"key"`
	StartDate      time.Time `json:"startDate"`
	Valence        float64   `json:"valence"`
	Arousal        float64   `json:"arousal"`
	Dominance      float64   `json:"dominance"`
	PrimaryEmotion string    `json:"primaryEmotion"`
	EventCount     int       `json:"eventCount"`
}

// MoodMilestone flags an emotional peak or valley.
type MoodMilestone struct {
	EventID   string    `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
	Valence   float64   `json:"valence"`
	Intensity float64   `json:"intensity"`
	Kind      string    `json:"kind"` // "peak" | "valley"
}

// MoodTimeline is the aggregated affect view over a user's events.
type MoodTimeline struct {
	UserID     string          `json:"userId"`
	Period     MoodPeriod      `json:"period"`
	Buckets    []MoodBucket    `json:"buckets"`
	Milestones []MoodMilestone `json:"milestones"`
}

// ChapterOptions tunes the segmentation engine.
type ChapterOptions struct {
	MinEventsPerChapter    int  `json:"minEventsPerChapter"`
	MaxEventsPerChapter    int  `json:"maxEventsPerChapter"`
	MinChapterDurationDays int  `json:"minChapterDurationDays"`
	MaxChapterDurationDays int  `json:"maxChapterDurationDays"`
	UseAI                  bool `json:"useAI"`
}

// DefaultChapterOptions returns the standard segmentation tuning.
func DefaultChapterOptions() ChapterOptions {
	return ChapterOptions{
		MinEventsPerChapter:    5,
		MaxEventsPerChapter:    50,
		MinChapterDurationDays: 7,
		MaxChapterDurationDays: 365,
		UseAI:                  true,
	}
}

// GenerationOptions carries the per-job feature switches.
type GenerationOptions struct {
	IncludeMedia     bool           `json:"includeMedia"`
	IncludeSentiment bool           `json:"includeSentiment"`
	Chapters         ChapterOptions `json:"chapterOptions"`
}

// GenerationRequest is the job payload submitted over HTTP.
type GenerationRequest struct {
	UserID  string            `json:"userId"`
	Style   BiographyStyle    `json:"style"`
	Options GenerationOptions `json:"options"`
}

// JobState is the lifecycle of a generation job.
type JobState string

const (
	JobQueued    JobState = "QUEUED"
	JobActive    JobState = "ACTIVE"
	JobCompleted JobState = "COMPLETED"
	JobFailed    JobState = "FAILED"
)

// JobResult summarizes a completed job's biography.
type JobResult struct {
	BiographyID   string  `json:"biographyId"`
	Title         string  `json:"title"`
	TotalChapters int     `json:"totalChapters"`
	TotalWords    int     `json:"totalWords"`
	CostUSD       float64 `json:"costUsd"`
}

// Job is one queued, retryable, progress-tracked pipeline execution.
type Job struct {
	ID            string            `json:"id"`
	Queue         string            `json:"queue"`
	Request       GenerationRequest `json:"request"`
	State         JobState          `json:"state"`
	Progress      int               `json:"progress"` // 0-100, monotonic within an attempt
	Attempts      int               `json:"attempts"`
	Result        *JobResult        `json:"result,omitempty"`
	FailureReason string            `json:"failureReason,omitempty"`
	EnqueuedAt    time.Time         `json:"enqueuedAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
