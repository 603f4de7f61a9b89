// Package chunk splits extracted text into overlapping, token-bounded
// segments for embedding.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// Default chunking policy.
const (
	DefaultSize      = 500
	DefaultOverlap   = 50
	DefaultSeparator = "\n\n"
)

// Options control the chunking policy. Zero values take defaults.
type Options struct {
	Size      int    // target chunk size in words
	Overlap   int    // words carried over between adjacent chunks
	Separator string // paragraph separator
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.Overlap <= 0 {
		o.Overlap = DefaultOverlap
	}
	if o.Overlap >= o.Size {
		o.Overlap = o.Size / 10
	}
	if o.Separator == "" {
		o.Separator = DefaultSeparator
	}
	return o
}

// Chunk is one emitted text segment with its ordinal index and the
// character offsets of its source span.
type Chunk struct {
	Content   string
	Index     int
	StartChar int
	EndChar   int
}

// Split cuts text into word-bounded chunks. Paragraphs are accumulated
// greedily until the size budget would be exceeded; the next chunk is
// seeded with the trailing Overlap words of the previous one. A second
// pass re-splits any chunk over 1.5x the nominal size (a single oversized
// paragraph) into fixed-stride word windows.
//
// Empty input yields no chunks. Input within one chunk's budget yields a
// single chunk equal to the trimmed input.
func Split(text string, opts Options) []Chunk {
	opts = opts.withDefaults()

	var paragraphs []string
	for _, p := range strings.Split(text, opts.Separator) {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var chunks []Chunk
	var current string
	currentStart := 0
	charOffset := 0
	index := 0
	sepLen := utf8.RuneCountInString(opts.Separator)

	for _, paragraph := range paragraphs {
		if current != "" && len(strings.Fields(current+" "+paragraph)) > opts.Size {
			chunks = append(chunks, Chunk{
				Content:   strings.TrimSpace(current),
				Index:     index,
				StartChar: currentStart,
				EndChar:   charOffset,
			})
			index++

			// Seed the next chunk with the trailing overlap words.
			words := strings.Fields(current)
			if len(words) > opts.Overlap {
				words = words[len(words)-opts.Overlap:]
			}
			overlap := strings.Join(words, " ")
			current = overlap + " " + paragraph
			currentStart = charOffset - utf8.RuneCountInString(overlap)
		} else {
			if current == "" {
				currentStart = charOffset
			} else {
				current += " "
			}
			current += paragraph
		}

		charOffset += utf8.RuneCountInString(paragraph) + sepLen
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, Chunk{
			Content:   strings.TrimSpace(current),
			Index:     index,
			StartChar: currentStart,
			EndChar:   charOffset,
		})
	}

	return resplitOversized(chunks, opts)
}

// resplitOversized cuts chunks whose word count exceeds 1.5x the nominal
// size into fixed-stride windows with the same overlap. Sub-chunks keep
// the parent's character span and take index parent*100+sub to stay
// ordered without colliding with sibling indices.
func resplitOversized(chunks []Chunk, opts Options) []Chunk {
	result := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		words := strings.Fields(c.Content)
		if float64(len(words)) <= float64(opts.Size)*1.5 {
			result = append(result, c)
			continue
		}

		stride := opts.Size - opts.Overlap
		sub := 0
		for i := 0; i < len(words); i += stride {
			end := i + opts.Size
			if end > len(words) {
				end = len(words)
			}
			result = append(result, Chunk{
				Content:   strings.Join(words[i:end], " "),
				Index:     c.Index*100 + sub,
				StartChar: c.StartChar,
				EndChar:   c.EndChar,
			})
			sub++
			if end == len(words) {
				break
			}
		}
	}
	return result
}
