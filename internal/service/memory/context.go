package memory

import (
	"strings"

	memorymodel "github.com/soultalk/backend/internal/model/memory"
)

// RenderContext serializes session memory into the text block injected
// into the response generator's system prompt. Lines appear in a fixed
// order and only when their source data is non-empty; a session with no
// renderable content yields an empty string.
func RenderContext(session memorymodel.Session) string {
	parts := make([]string, 0, 7)

	if session.UserName != "" {
		parts = append(parts, "User's name: "+session.UserName)
	}
	if len(session.Topics) > 0 {
		parts = append(parts, "Topics discussed: "+strings.Join(lastN(session.Topics, 5), ", "))
	}
	if len(session.EmotionalTone) > 0 {
		parts = append(parts, "Recent emotional tones: "+strings.Join(lastN(session.EmotionalTone, 3), ", "))
	}
	if len(session.Entities.People) > 0 {
		parts = append(parts, "People mentioned: "+strings.Join(lastN(session.Entities.People, 5), ", "))
	}
	if len(session.Entities.Emotions) > 0 {
		parts = append(parts, "Emotions mentioned: "+strings.Join(lastN(session.Entities.Emotions, 5), ", "))
	}
	if len(session.Entities.Situations) > 0 {
		parts = append(parts, "Situations mentioned: "+strings.Join(lastN(session.Entities.Situations, 5), ", "))
	}
	if len(session.KeyMoments) > 0 {
		parts = append(parts, "Key moments: "+strings.Join(lastN(session.KeyMoments, 3), " | "))
	}

	return strings.Join(parts, "\n")
}

func lastN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
