package tokenizer

import (
	"unicode"
	"unicode/utf8"
)

// NGram emits overlapping n-rune substrings for every whitespace-delimited
// run of the text. When indexing, the tail of each run that is shorter than
// n is also emitted (one term per remaining start position) so every
// character of the run can be reached by a shorter query. Case is preserved.
type NGram struct {
	name string
	n    int
}

// NewBigram returns the "TokenBigram" tokenizer.
func NewBigram() *NGram {
	return NewNGram("TokenBigram", 2)
}

// NewNGram creates an n-gram tokenizer registered under name. n below 1 is
// treated as 1.
func NewNGram(name string, n int) *NGram {
	if n < 1 {
		n = 1
	}
	return &NGram{name: name, n: n}
}

func (g *NGram) Name() string  { return g.name }
func (g *NGram) GramSize() int { return g.n }

func (g *NGram) Tokenize(text string) []Token {
	return g.tokenize(text, false)
}

func (g *NGram) TokenizeQuery(text string) []Token {
	return g.tokenize(text, true)
}

func (g *NGram) tokenize(text string, query bool) []Token {
	tokens := make([]Token, 0)
	for _, run := range whitespaceRuns(text) {
		// byte offsets of each rune in the run plus the end offset
		offsets := make([]int, 0, len(run.text)+1)
		for i := range run.text {
			offsets = append(offsets, run.offset+i)
		}
		runeCount := len(offsets)
		offsets = append(offsets, run.offset+len(run.text))

		if query && runeCount < g.n {
			// A query shorter than the gram size is kept whole; the caller
			// resolves it by substring matching against the lexicon.
			tokens = append(tokens, Token{Term: run.text, Offset: run.offset})
			continue
		}
		for i := 0; i < runeCount; i++ {
			end := i + g.n
			if end > runeCount {
				if query {
					break
				}
				end = runeCount
			}
			tokens = append(tokens, Token{
				Term:   text[offsets[i]:offsets[end]],
				Offset: offsets[i],
			})
		}
	}
	return tokens
}

type textRun struct {
	text   string
	offset int
}

// whitespaceRuns splits text at unicode whitespace, keeping byte offsets.
func whitespaceRuns(text string) []textRun {
	runs := make([]textRun, 0)
	start := -1
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			if start >= 0 {
				runs = append(runs, textRun{text: text[start:i], offset: start})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
		i += size
	}
	if start >= 0 {
		runs = append(runs, textRun{text: text[start:], offset: start})
	}
	return runs
}
