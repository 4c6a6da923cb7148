package emotion

import "testing"

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Label
	}{
		{"sad keyword", "I've been feeling really sad lately", Sad},
		{"miss maps to sad", "I miss my dad so much", Sad},
		{"anxious keyword", "I'm so worried about tomorrow", Anxious},
		{"overwhelm stem", "everything is overwhelming right now", Anxious},
		{"confused keyword", "I'm just so confused about all of this", Confused},
		{"sad wins over anxious", "I'm sad and worried", Sad},
		{"no hit is neutral", "tell me about the weather", Neutral},
		{"empty is neutral", "", Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Analyze(tt.text)
			if decision.Emotion != tt.want {
				t.Fatalf("Analyze(%q) = %s, want %s", tt.text, decision.Emotion, tt.want)
			}
		})
	}
}

func TestAnalyzeIntensity(t *testing.T) {
	if d := Analyze("I'm sad"); d.Intensity != 0.6 {
		t.Fatalf("expected keyword hit intensity 0.6, got %v", d.Intensity)
	}
	if d := Analyze("hello"); d.Intensity != 0.3 {
		t.Fatalf("expected neutral intensity 0.3, got %v", d.Intensity)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want Label
	}{
		{"sad", Sad},
		{"Lonely", Sad},
		{"ANXIOUS", Anxious},
		{"angry", Anxious},
		{"overwhelmed", Anxious},
		{"frustrated", Anxious},
		{"confused", Confused},
		{" neutral ", Neutral},
		{"joyful", Neutral},
		{"", Neutral},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Fatalf("Normalize(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}
