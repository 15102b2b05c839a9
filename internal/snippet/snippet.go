// Package snippet extracts highlighted excerpts around keyword matches.
package snippet

import (
	"bytes"
	"sort"
	"strings"
	"unicode/utf8"

	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
)

const (
	DefaultWidth      = 100
	DefaultMaxResults = 3
)

// Options controls excerpt size and rendering.
type Options struct {
	// Width is the excerpt budget in bytes. Excerpts never split a UTF-8
	// sequence, so they can be a few bytes shorter.
	Width int
	// MaxResults caps the number of excerpts.
	MaxResults int
	// HTMLEscape escapes &, <, > and " in the text between tags.
	HTMLEscape bool
}

// Tag is an open/close pair wrapped around a matched keyword.
type Tag struct {
	Open  string
	Close string
}

type keyword struct {
	word string
	tag  Tag
}

type match struct {
	start, end int
	tag        Tag
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// Snippet holds keywords and a scratch buffer. It must be closed after use;
// Execute on a closed snippet fails.
type Snippet struct {
	opts     Options
	keywords []keyword
	buf      *bytes.Buffer
	closed   bool
}

// New creates a snippet extractor. Zero width and max results fall back to
// the defaults.
func New(opts Options) *Snippet {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	return &Snippet{opts: opts, buf: new(bytes.Buffer)}
}

// NewWithKeywords creates an extractor and assigns tags to words in order,
// cycling through tags when there are more words than tags. With no tags the
// matches are not wrapped.
func NewWithKeywords(opts Options, tags []Tag, words []string) (*Snippet, error) {
	s := New(opts)
	for i, word := range words {
		var tag Tag
		if len(tags) > 0 {
			tag = tags[i%len(tags)]
		}
		if err := s.AddKeyword(word, tag.Open, tag.Close); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddKeyword registers a word to highlight with its tag pair.
func (s *Snippet) AddKeyword(word, open, close string) error {
	if s.closed {
		return internalErrors.ErrClosed
	}
	if word == "" {
		return internalErrors.NewValidationError("keyword", "keyword cannot be empty")
	}
	s.keywords = append(s.keywords, keyword{word: word, tag: Tag{Open: open, Close: close}})
	return nil
}

// Keywords returns the registered words in registration order.
func (s *Snippet) Keywords() []string {
	words := make([]string, len(s.keywords))
	for i, k := range s.keywords {
		words[i] = k.word
	}
	return words
}

// Execute returns the excerpts of text in text order. Each excerpt starts at
// the first match not yet shown and takes every following match that fits
// in the width, then spreads the remaining budget evenly around them.
// Excerpts never overlap.
func (s *Snippet) Execute(text string) ([]string, error) {
	if s.closed {
		return nil, internalErrors.ErrClosed
	}
	matches := s.findMatches(text)
	results := make([]string, 0)
	width := s.opts.Width
	prevEnd := 0

	for i := 0; i < len(matches) && len(results) < s.opts.MaxResults; {
		first := matches[i]
		included := []match{first}
		end := first.end
		j := i + 1
		for ; j < len(matches) && matches[j].end <= first.start+width; j++ {
			included = append(included, matches[j])
			end = matches[j].end
		}

		leftover := width - (end - first.start)
		if leftover < 0 {
			leftover = 0
		}
		windowStart := first.start - leftover/2
		if windowStart < prevEnd {
			windowStart = prevEnd
		}
		if windowStart > first.start {
			windowStart = first.start
		}
		if windowStart < 0 {
			windowStart = 0
		}
		for windowStart < first.start && !utf8.RuneStart(text[windowStart]) {
			windowStart++
		}
		windowEnd := windowStart + width
		if windowEnd < end {
			windowEnd = end
		}
		if windowEnd > len(text) {
			windowEnd = len(text)
		}
		for windowEnd > end && windowEnd < len(text) && !utf8.RuneStart(text[windowEnd]) {
			windowEnd--
		}

		results = append(results, s.render(text, windowStart, windowEnd, included))
		prevEnd = windowEnd
		i = j
	}
	return results, nil
}

// Close releases the scratch buffer. Closing twice is harmless.
func (s *Snippet) Close() error {
	s.closed = true
	s.buf = nil
	s.keywords = nil
	return nil
}

// findMatches locates every keyword occurrence, sorted by start. Where
// matches overlap the earlier (or, on a tie, longer) one wins.
func (s *Snippet) findMatches(text string) []match {
	all := make([]match, 0)
	for _, k := range s.keywords {
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], k.word)
			if i < 0 {
				break
			}
			start := from + i
			all = append(all, match{start: start, end: start + len(k.word), tag: k.tag})
			from = start + len(k.word)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end > all[j].end
	})

	kept := all[:0]
	lastEnd := -1
	for _, m := range all {
		if m.start < lastEnd {
			continue
		}
		kept = append(kept, m)
		lastEnd = m.end
	}
	return kept
}

func (s *Snippet) render(text string, start, end int, matches []match) string {
	s.buf.Reset()
	pos := start
	for _, m := range matches {
		if m.start < pos || m.end > end {
			continue
		}
		s.writeText(text[pos:m.start])
		s.buf.WriteString(m.tag.Open)
		s.writeText(text[m.start:m.end])
		s.buf.WriteString(m.tag.Close)
		pos = m.end
	}
	s.writeText(text[pos:end])
	return s.buf.String()
}

func (s *Snippet) writeText(text string) {
	if s.opts.HTMLEscape {
		htmlEscaper.WriteString(s.buf, text)
		return
	}
	s.buf.WriteString(text)
}
