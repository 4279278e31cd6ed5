package ingestion

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_CoversTextExactly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		size int
		want int
	}{
		{name: "empty", text: "", size: 1000, want: 0},
		{name: "shorter than size", text: "hello", size: 1000, want: 1},
		{name: "exact multiple", text: strings.Repeat("a", 2000), size: 1000, want: 2},
		{name: "remainder chunk", text: strings.Repeat("b", 2500), size: 1000, want: 3},
		{name: "size one", text: "abc", size: 1, want: 3},
		{name: "one over boundary", text: strings.Repeat("c", 1001), size: 1000, want: 2},
		{name: "cjk straddling boundary", text: strings.Repeat("日", 400), size: 1000, want: 2},
		{name: "accented", text: strings.Repeat("é", 600), size: 1000, want: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			chunks := Split(tc.text, tc.size)

			if len(chunks) != tc.want {
				t.Fatalf("want %d chunks, got %d", tc.want, len(chunks))
			}
			if got := strings.Join(chunks, ""); got != tc.text {
				t.Errorf("concatenated chunks do not reproduce input (got %d bytes, want %d)", len(got), len(tc.text))
			}
			for i, ch := range chunks {
				if len(ch) > tc.size {
					t.Errorf("chunk %d exceeds size: %d > %d", i, len(ch), tc.size)
				}
				if len(ch) == 0 {
					t.Errorf("chunk %d is empty", i)
				}
				if !utf8.ValidString(ch) {
					t.Errorf("chunk %d is not valid UTF-8", i)
				}
			}
		})
	}
}

func TestSplit_PreservesOrder(t *testing.T) {
	t.Parallel()

	chunks := Split("abcdefghij", 3)

	want := []string{"abc", "def", "ghi", "j"}
	if len(chunks) != len(want) {
		t.Fatalf("want %d chunks, got %d", len(want), len(chunks))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: want %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestSplit_SizeSmallerThanRune(t *testing.T) {
	t.Parallel()

	chunks := Split("日本", 1)

	want := []string{"日", "本"}
	if len(chunks) != len(want) {
		t.Fatalf("want %d chunks, got %d", len(want), len(chunks))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: want %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestSplit_ZeroSizeUsesDefault(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", DefaultChunkSize+1)
	chunks := Split(text, 0)

	if len(chunks) != 2 {
		t.Errorf("want 2 chunks with default size, got %d", len(chunks))
	}
}

func TestChunkID_Format(t *testing.T) {
	t.Parallel()

	if got := ChunkID("doc1", 0); got != "doc1-chunk-0" {
		t.Errorf("want doc1-chunk-0, got %q", got)
	}
	if got := ChunkID("doc1", 12); got != "doc1-chunk-12" {
		t.Errorf("want doc1-chunk-12, got %q", got)
	}
}
