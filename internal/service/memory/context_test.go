package memory

import (
	"strings"
	"testing"

	memorymodel "github.com/soultalk/backend/internal/model/memory"
)

func TestRenderContextFullSession(t *testing.T) {
	session := memorymodel.Session{
		UserName:      "Alex",
		Topics:        []string{"work", "family"},
		EmotionalTone: []string{"sad", "anxious"},
		Entities: memorymodel.Entities{
			People:     []string{"father", "boss"},
			Emotions:   []string{"stress"},
			Situations: []string{"family tension"},
		},
		KeyMoments: []string{"User has mentioned missing their father."},
	}

	want := strings.Join([]string{
		"User's name: Alex",
		"Topics discussed: work, family",
		"Recent emotional tones: sad, anxious",
		"People mentioned: father, boss",
		"Emotions mentioned: stress",
		"Situations mentioned: family tension",
		"Key moments: User has mentioned missing their father.",
	}, "\n")

	if got := RenderContext(session); got != want {
		t.Fatalf("unexpected context:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderContextOmitsEmptyLines(t *testing.T) {
	session := memorymodel.Session{
		Topics: []string{"work"},
	}

	got := RenderContext(session)
	if got != "Topics discussed: work" {
		t.Fatalf("expected single topics line, got %q", got)
	}
}

func TestRenderContextEmptySession(t *testing.T) {
	if got := RenderContext(memorymodel.Session{}); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}

func TestRenderContextWindows(t *testing.T) {
	session := memorymodel.Session{
		Topics:        []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"},
		EmotionalTone: []string{"e1", "e2", "e3", "e4"},
		KeyMoments:    []string{"m1", "m2", "m3", "m4"},
	}

	got := RenderContext(session)
	if strings.Contains(got, "t2") || !strings.Contains(got, "Topics discussed: t3, t4, t5, t6, t7") {
		t.Fatalf("topics window wrong: %q", got)
	}
	if !strings.Contains(got, "Recent emotional tones: e2, e3, e4") {
		t.Fatalf("tone window wrong: %q", got)
	}
	if !strings.Contains(got, "Key moments: m2 | m3 | m4") {
		t.Fatalf("key moments window wrong: %q", got)
	}
}
