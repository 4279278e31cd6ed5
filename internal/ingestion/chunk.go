package ingestion

import "unicode/utf8"

// DefaultChunkSize is the maximum number of characters per chunk when the
// pipeline is constructed without an explicit size.
const DefaultChunkSize = 1000

// Split partitions text into ordered, non-overlapping chunks of at most size
// bytes. The chunks cover the text exactly once: concatenating them
// reproduces the input. Empty text yields no chunks.
//
// Boundaries are not content-aware (no word or sentence detection), but they
// never land inside a multibyte rune: a boundary that would split one is
// backed up to the previous rune start, so every chunk is valid UTF-8
// whenever the input is. A chunk exceeds size only in the degenerate case
// where size is smaller than a single rune.
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(text) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(text)+size-1)/size)
	for start := 0; start < len(text); {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == start {
			// size is smaller than the rune at start; emit the whole rune.
			_, n := utf8.DecodeRuneInString(text[start:])
			end = start + n
		}
		chunks = append(chunks, text[start:end])
		start = end
	}

	return chunks
}
