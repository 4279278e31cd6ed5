package budget

import (
	"strings"
	"testing"
)

func TestEstimate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"ab", 1},
		{"abcd", 1},
		{strings.Repeat("x", 400), 100},
	}

	for _, tc := range tests {
		if got := Estimate(tc.in); got != tc.want {
			t.Errorf("Estimate(%d chars): want %d, got %d", len(tc.in), tc.want, got)
		}
	}
}

func TestTrimTexts_WithinBudgetUntouched(t *testing.T) {
	t.Parallel()

	texts := []string{"short", "also short"}
	got := TrimTexts(texts, 10, 1000)

	if len(got) != 2 {
		t.Errorf("want 2 texts kept, got %d", len(got))
	}
}

func TestTrimTexts_DropsTrailingTexts(t *testing.T) {
	t.Parallel()

	// Each text estimates to 100 tokens; budget fits two plus reserve.
	texts := []string{
		strings.Repeat("a", 400),
		strings.Repeat("b", 400),
		strings.Repeat("c", 400),
	}
	got := TrimTexts(texts, 50, 260)

	if len(got) != 2 {
		t.Fatalf("want 2 texts after trim, got %d", len(got))
	}
	if got[0][0] != 'a' || got[1][0] != 'b' {
		t.Error("trim must drop from the tail, keeping priority order")
	}
}

func TestTrimTexts_NeverDropsLastText(t *testing.T) {
	t.Parallel()

	texts := []string{strings.Repeat("a", 4000)}
	got := TrimTexts(texts, 0, 10)

	if len(got) != 1 {
		t.Errorf("a single oversized text must be kept, got %d texts", len(got))
	}
}
