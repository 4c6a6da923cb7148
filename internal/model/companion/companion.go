package companion

// Profile captures the companion attributes the prompt builder and the
// speech synthesizer rely on.
type Profile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Title        string `json:"title"`
	Tone         string `json:"tone"`
	SystemPrompt string `json:"systemPrompt"`
	OpeningLine  string `json:"openingLine"`
	VoiceID      string `json:"voiceId,omitempty"`
}

// Default is the single companion the product ships with.
func Default() Profile {
	return Profile{
		ID:           "soultalk",
		Name:         "SoulTalk",
		Title:        "Emotionally intelligent companion",
		Tone:         "warm, validating, unhurried",
		SystemPrompt: "You are SoulTalk, an emotionally intelligent AI companion. Respond with empathy and warmth.",
		OpeningLine:  "Hey, I'm here. Whenever you're ready, tell me what's on your mind.",
		VoiceID:      "EXAVITQu4vr4xnSDxMaL", // ElevenLabs "Sarah"
	}
}
