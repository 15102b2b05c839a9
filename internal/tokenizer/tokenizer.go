package tokenizer

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Token is a single term produced from a text value. Offset is the byte
// position of the term's first byte in the tokenized text.
type Token struct {
	Term   string
	Offset int
}

// Tokenizer splits text into terms. Implementations must be deterministic:
// the same input always yields the same tokens in the same order.
type Tokenizer interface {
	// Name is the registry name, e.g. "TokenBigram".
	Name() string
	// Tokenize splits a value that is being indexed.
	Tokenize(text string) []Token
	// TokenizeQuery splits a search query. N-gram tokenizers emit fewer
	// trailing terms in query mode since the query only needs to cover
	// its own text.
	TokenizeQuery(text string) []Token
	// GramSize is the n of an n-gram tokenizer, or 0 when terms are not
	// fixed-length substrings.
	GramSize() int
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Tokenizer{}
)

func init() {
	Register(NewBigram())
	Register(NewNGram("TokenTrigram", 3))
	Register(NewDelimit())
	Register(NewWord())
}

// Register adds a tokenizer under its Name. Registering the same name twice
// replaces the previous tokenizer.
func Register(t Tokenizer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(t.Name())] = t
}

// Lookup finds a registered tokenizer by name, ignoring case.
func Lookup(name string) (Tokenizer, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown tokenizer '%s'", name)
	}
	return t, nil
}

// Names lists the registered tokenizer names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for _, t := range registry {
		names = append(names, t.Name())
	}
	sort.Strings(names)
	return names
}

// Terms returns only the term strings of tokens.
func Terms(tokens []Token) []string {
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}
