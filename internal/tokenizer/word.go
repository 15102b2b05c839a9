package tokenizer

import (
	"regexp"
	"strings"
)

// alphanumericRegex matches sequences of alphanumeric characters.
var alphanumericRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// acronymRegex handles cases like "HTTPRequest" -> "HTTP Request"
var acronymRegex = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)

// camelCaseRegex handles cases like "theOffice" -> "the Office" or "myAPI" -> "my API"
var camelCaseRegex = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// wordBreak is inserted at camelCase boundaries. It never occurs in an
// alphanumeric run, so it can be stripped again while tracking offsets.
const wordBreak = "\x00"

// Word splits camel/PascalCase, lowercases, and splits by non-alphanumeric
// characters. It is the "TokenWord" tokenizer.
type Word struct{}

// NewWord returns the "TokenWord" tokenizer.
func NewWord() *Word {
	return &Word{}
}

func (w *Word) Name() string  { return "TokenWord" }
func (w *Word) GramSize() int { return 0 }

func (w *Word) Tokenize(text string) []Token {
	tokens := make([]Token, 0)
	for _, loc := range alphanumericRegex.FindAllStringIndex(text, -1) {
		run := text[loc[0]:loc[1]]
		// 1. Split camelCase/PascalCase
		marked := acronymRegex.ReplaceAllString(run, "$1"+wordBreak+"$2")
		marked = camelCaseRegex.ReplaceAllString(marked, "$1"+wordBreak+"$2")

		// 2. Walk the parts, advancing the offset only over original bytes
		offset := loc[0]
		for _, part := range strings.Split(marked, wordBreak) {
			if part != "" {
				tokens = append(tokens, Token{Term: strings.ToLower(part), Offset: offset})
			}
			offset += len(part)
		}
	}
	return tokens
}

func (w *Word) TokenizeQuery(text string) []Token {
	return w.Tokenize(text)
}
