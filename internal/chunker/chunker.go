package chunker

import "errors"

// ErrInvalidChunkSize is returned when the configured chunk size is below 1.
// Callers are expected to reject bad sizes before building a job.
var ErrInvalidChunkSize = errors.New("chunk size must be at least 1")

// Split cuts text into ordered chunks of at most size characters. Cuts
// prefer natural boundaries, searched backwards from the ideal position in
// strict priority order: newline, then period, then comma, then space.
// Within a class the rightmost occurrence wins, keeping chunks as close to
// size as possible. When no boundary exists in the search window the cut
// lands exactly at size. The budget counts runes, not bytes, so a cut can
// never land inside a multibyte character and concatenating the returned
// chunks reproduces text exactly.
//
// Split is pure: same inputs always produce the same chunks.
func Split(text string, size int) ([]string, error) {
	if size < 1 {
		return nil, ErrInvalidChunkSize
	}

	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		// Only the trailing half of the budget is searched, so a chunk
		// runs between size/2 and size characters when a boundary exists
		// there.
		windowStart := end - size/2
		if windowStart < start {
			windowStart = start
		}

		cut := end
		for _, boundary := range []rune{'\n', '.', ',', ' '} {
			if pos := lastIndexRuneRange(runes, boundary, windowStart, end); pos >= 0 {
				cut = pos + 1
				break
			}
		}

		chunks = append(chunks, string(runes[start:cut]))
		start = cut
	}
	return chunks, nil
}

// lastIndexRuneRange returns the index of the rightmost occurrence of c in
// runes[from:to), or -1 when absent.
func lastIndexRuneRange(runes []rune, c rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		if runes[i] == c {
			return i
		}
	}
	return -1
}
