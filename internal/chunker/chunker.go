// Package chunker splits normalized text into bounded, overlapping windows.
//
// Chunks are byte spans of the original text: dropping each chunk's overlap
// prefix and concatenating the rest reproduces the input exactly. Boundaries
// are deterministic for a given (text, budget, overlap) triple.
package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"summaryd/internal/core"
)

// Chunk is one window of the source text.
type Chunk struct {
	// Ordinal position in the document.
	Index int
	// The text span, including the overlap with the previous chunk.
	Text string
	// Byte offsets of the span within the original text.
	Start, End int
	// Bytes at the head of Text shared with the previous chunk.
	OverlapWithPrev int
	// Number of words in the span.
	Words int
}

// word records the byte extent of one whitespace-delimited token.
type word struct {
	start, end int
}

// Split cuts text into chunks of at most budget words with the given word
// overlap between neighbors. The cut prefers the nearest sentence or
// paragraph break within a tolerance window below the budget edge and falls
// back to a hard cut. Input shorter than the budget yields a single chunk
// with no overlap; empty input is rejected before any work.
func Split(text string, budget, overlap int) ([]Chunk, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("chunk budget must be positive, got %d", budget)
	}
	if overlap < 0 || overlap >= budget {
		return nil, fmt.Errorf("overlap must be >= 0 and < budget, got %d", overlap)
	}
	words := splitWords(text)
	if len(words) == 0 {
		return nil, core.InvalidInput("empty input")
	}
	n := len(words)
	if n <= budget {
		return []Chunk{{Index: 0, Text: text, Start: 0, End: len(text), Words: n}}, nil
	}

	tol := budget / 10
	if tol >= budget-overlap {
		tol = budget - overlap - 1
	}
	if tol < 0 {
		tol = 0
	}

	var chunks []Chunk
	s := 0 // start word of the current chunk
	for {
		e := s + budget
		if e >= n {
			e = n
		} else {
			e = preferBreak(text, words, e, tol)
		}
		byteStart := 0
		if len(chunks) > 0 {
			byteStart = words[s].start
		}
		byteEnd := len(text)
		if e < n {
			// End at the start of the first word outside the chunk so the
			// whitespace between words stays with exactly one owner.
			byteEnd = words[e].start
		}
		c := Chunk{
			Index: len(chunks),
			Text:  text[byteStart:byteEnd],
			Start: byteStart,
			End:   byteEnd,
			Words: e - s,
		}
		if len(chunks) > 0 {
			prev := chunks[len(chunks)-1]
			c.OverlapWithPrev = prev.End - byteStart
		}
		chunks = append(chunks, c)
		if e >= n {
			return chunks, nil
		}
		s = e - overlap
	}
}

// Reassemble drops each chunk's overlap prefix and concatenates the rest.
// For chunks produced by Split this returns the original text byte for byte.
func Reassemble(chunks []Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c.Text)
			continue
		}
		b.WriteString(c.Text[c.OverlapWithPrev:])
	}
	return b.String()
}

// preferBreak moves an exclusive end-word index e down to the nearest
// sentence or paragraph break within tol words, or keeps the hard cut.
func preferBreak(text string, words []word, e, tol int) int {
	for j := e; j > e-tol && j > 0; j-- {
		w := words[j-1]
		last, _ := lastRune(text[w.start:w.end])
		switch last {
		case '.', '!', '?':
			return j
		}
		// A blank line after the word is a paragraph break.
		if j < len(words) {
			gap := text[w.end:words[j].start]
			if strings.Count(gap, "\n") >= 2 {
				return j
			}
		}
	}
	return e
}

func lastRune(s string) (rune, bool) {
	var r rune
	found := false
	for _, c := range s {
		r = c
		found = true
	}
	return r, found
}

// splitWords records the byte extent of every whitespace-delimited token.
func splitWords(text string) []word {
	var out []word
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, word{start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, word{start: start, end: len(text)})
	}
	return out
}

// CountWords returns the number of whitespace-delimited tokens in text.
func CountWords(text string) int { return len(splitWords(text)) }
