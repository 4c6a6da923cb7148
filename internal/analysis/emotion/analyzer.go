// Package emotion provides the keyword heuristic used whenever the LLM
// classifier is unavailable or fails.
package emotion

import "strings"

// Label is an emotion category understood by the response generator.
type Label string

const (
	Neutral  Label = "neutral"
	Sad      Label = "sad"
	Anxious  Label = "anxious"
	Confused Label = "confused"
)

// Decision is the outcome of emotion detection for one user message.
type Decision struct {
	Emotion   Label   `json:"emotion"`
	Intensity float32 `json:"intensity"`
	Summary   string  `json:"summary"`
}

// bucket keeps the label order fixed so detection stays deterministic;
// the first bucket with a hit wins.
type bucket struct {
	label    Label
	keywords []string
}

var keywordBuckets = []bucket{
	{Sad, []string{"sad", "depressed", "down", "unhappy", "crying", "tears", "miss", "lonely"}},
	{Anxious, []string{"anxious", "worried", "nervous", "stress", "panic", "overwhelm", "afraid", "frustrat", "angry"}},
	{Confused, []string{"confused", "lost", "don't know", "unsure", "uncertain"}},
}

var summaries = map[Label]string{
	Sad:      "low and heavy",
	Anxious:  "on edge and tense",
	Confused: "struggling to understand",
}

// Analyze runs the keyword detector over a user message. It never fails;
// text without any hit maps to a low-intensity neutral decision.
func Analyze(text string) Decision {
	lowered := strings.ToLower(text)

	for _, b := range keywordBuckets {
		for _, keyword := range b.keywords {
			if strings.Contains(lowered, keyword) {
				return Decision{
					Emotion:   b.label,
					Intensity: 0.6,
					Summary:   summaries[b.label],
				}
			}
		}
	}

	return Decision{Emotion: Neutral, Intensity: 0.3, Summary: "neutral tone"}
}

// Normalize maps free-form classifier output onto the four supported
// labels, defaulting to neutral for anything unrecognised.
func Normalize(raw string) Label {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sad", "lonely":
		return Sad
	case "anxious", "angry", "fearful", "overwhelmed", "frustrated":
		return Anxious
	case "confused":
		return Confused
	default:
		return Neutral
	}
}
