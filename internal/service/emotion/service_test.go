package emotion

import (
	"context"
	"strings"
	"testing"

	analysis "github.com/soultalk/backend/internal/analysis/emotion"
	memorymodel "github.com/soultalk/backend/internal/model/memory"
)

func TestDetectFallsBackWithoutModel(t *testing.T) {
	svc, err := NewService(context.Background(), nil, Config{Enabled: true})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	if svc.Enabled() {
		t.Fatal("service must not report enabled without a model")
	}

	decision := svc.Detect(context.Background(), nil, "I'm so worried about everything")
	if decision.Emotion != analysis.Anxious {
		t.Fatalf("expected heuristic anxious, got %s", decision.Emotion)
	}
}

func TestDetectNilService(t *testing.T) {
	var svc *Service

	decision := svc.Detect(context.Background(), nil, "I feel sad")
	if decision.Emotion != analysis.Sad {
		t.Fatalf("nil service must still answer, got %s", decision.Emotion)
	}
}

func TestParseClassifierOutput(t *testing.T) {
	decision, err := parseClassifierOutput(`{"emotion": "anxious", "intensity": 0.7, "summary": "worried and tense"}`)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if decision.Emotion != analysis.Anxious || decision.Intensity != 0.7 || decision.Summary != "worried and tense" {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestParseClassifierOutputMarkdownFence(t *testing.T) {
	content := "```json\n{\"emotion\": \"sad\", \"intensity\": 0.5, \"summary\": \"low mood\"}\n```"

	decision, err := parseClassifierOutput(content)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if decision.Emotion != analysis.Sad {
		t.Fatalf("unexpected emotion: %s", decision.Emotion)
	}
}

func TestParseClassifierOutputNormalizesAndClamps(t *testing.T) {
	decision, err := parseClassifierOutput(`{"emotion": "overwhelmed", "intensity": 3.5, "summary": ""}`)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if decision.Emotion != analysis.Anxious {
		t.Fatalf("expected overwhelmed to normalize to anxious, got %s", decision.Emotion)
	}
	if decision.Intensity != 1 {
		t.Fatalf("expected intensity clamped to 1, got %v", decision.Intensity)
	}
	if decision.Summary != "anxious" {
		t.Fatalf("expected summary defaulted to label, got %q", decision.Summary)
	}
}

func TestParseClassifierOutputZeroIntensity(t *testing.T) {
	decision, err := parseClassifierOutput(`{"emotion": "sad", "intensity": 0, "summary": "flat"}`)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if decision.Intensity != 0.5 {
		t.Fatalf("expected zero intensity remapped to 0.5, got %v", decision.Intensity)
	}
}

func TestParseClassifierOutputRejectsNonJSON(t *testing.T) {
	if _, err := parseClassifierOutput("the user seems upset"); err == nil {
		t.Fatal("expected error for output without a JSON object")
	}
}

func TestFormatHistory(t *testing.T) {
	turns := []memorymodel.Turn{
		{Role: memorymodel.RoleUser, Content: "hi"},
		{Role: memorymodel.RoleAssistant, Content: "hello"},
		{Role: memorymodel.RoleUser, Content: "I'm tired"},
	}

	got := formatHistory(turns, 6)
	want := "User: hi\nAI: hello\nUser: I'm tired"
	if got != want {
		t.Fatalf("formatHistory = %q, want %q", got, want)
	}
}

func TestFormatHistoryLimit(t *testing.T) {
	turns := []memorymodel.Turn{
		{Role: memorymodel.RoleUser, Content: "first"},
		{Role: memorymodel.RoleUser, Content: "second"},
		{Role: memorymodel.RoleUser, Content: "third"},
	}

	got := formatHistory(turns, 2)
	if strings.Contains(got, "first") {
		t.Fatalf("expected oldest turn dropped, got %q", got)
	}
}

func TestFormatHistoryEmpty(t *testing.T) {
	if got := formatHistory(nil, 6); got != "no prior conversation" {
		t.Fatalf("unexpected empty-history text: %q", got)
	}
}
