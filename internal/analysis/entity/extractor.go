// Package entity extracts canonical person, emotion and situation labels
// from free text via fixed keyword dictionaries.
package entity

import (
	"regexp"
	"sort"
	"strings"
)

// Result holds the labels found in one utterance. Each list is a
// deduplicated, sorted set; ordering across turns is imposed by the
// memory merge, not here.
type Result struct {
	People     []string `json:"people"`
	Emotions   []string `json:"emotions"`
	Situations []string `json:"situations"`
}

// Empty reports whether no labels were detected at all.
func (r Result) Empty() bool {
	return len(r.People) == 0 && len(r.Emotions) == 0 && len(r.Situations) == 0
}

// Keyword dictionaries. Several keywords may map to the same canonical
// label; matching any of them contributes the label once.
var peopleKeywords = map[string]string{
	"dad":     "father",
	"father":  "father",
	"mom":     "mother",
	"mother":  "mother",
	"friend":  "friend",
	"partner": "partner",
	"wife":    "partner",
	"husband": "partner",
	"boss":    "boss",
	"manager": "boss",
	"brother": "brother",
	"sister":  "sister",
}

var emotionKeywords = map[string]string{
	"stress":   "stress",
	"stressed": "stress",
	"sad":      "sadness",
	"down":     "sadness",
	"miss":     "sadness",
	"anxious":  "anxiety",
	"anxiety":  "anxiety",
	"worried":  "anxiety",
	"confused": "confusion",
	"lost":     "confusion",
}

var situationKeywords = map[string]string{
	"work":         "work pressure",
	"job":          "work pressure",
	"exam":         "studies",
	"college":      "studies",
	"relationship": "relationship strain",
	"breakup":      "relationship strain",
	"family":       "family tension",
	"hospital":     "health concern",
	"money":        "financial pressure",
}

// matcher pairs a precompiled word-boundary pattern with its canonical label.
type matcher struct {
	pattern *regexp.Regexp
	label   string
}

var (
	peopleMatchers    = compileMatchers(peopleKeywords)
	emotionMatchers   = compileMatchers(emotionKeywords)
	situationMatchers = compileMatchers(situationKeywords)
)

// compileMatchers builds the word-boundary matchers once at startup so no
// pattern is recompiled per call.
func compileMatchers(keywords map[string]string) []matcher {
	matchers := make([]matcher, 0, len(keywords))
	for keyword, label := range keywords {
		matchers = append(matchers, matcher{
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`),
			label:   label,
		})
	}
	return matchers
}

// Extract pattern-matches a single utterance against the dictionaries.
// It is a pure function and never fails; unknown or empty input yields an
// empty result.
func Extract(text string) Result {
	lowered := strings.ToLower(text)

	return Result{
		People:     matchLabels(peopleMatchers, lowered),
		Emotions:   matchLabels(emotionMatchers, lowered),
		Situations: matchLabels(situationMatchers, lowered),
	}
}

func matchLabels(matchers []matcher, lowered string) []string {
	seen := make(map[string]struct{})
	for _, m := range matchers {
		if m.pattern.MatchString(lowered) {
			seen[m.label] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
