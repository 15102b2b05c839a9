package tokenizer

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", []string{}},
		{"simple lowercase", "hello world", []string{"hello", "world"}},
		{"with punctuation", "hello, world!", []string{"hello", "world"}},
		{"with numbers", "item123 test", []string{"item123", "test"}},
		{"leading/trailing spaces", "  hello world  ", []string{"hello", "world"}},
		{"camelCase", "theOffice", []string{"the", "office"}},
		{"PascalCase", "TheOffice", []string{"the", "office"}},
		{"mixedCase", "myAPIService", []string{"my", "api", "service"}},
		{"acronym then camelCase", "HTTPRequestManager", []string{"http", "request", "manager"}},
		{"string with hyphen", "state-of-the-art", []string{"state", "of", "the", "art"}},
		{"string with underscore", "my_variable_name", []string{"my", "variable", "name"}},
		{"mixed with numbers and symbols", "API_v1.0-beta!", []string{"api", "v1", "0", "beta"}},
		{"only symbols", "!@#$%^", []string{}},
	}

	word := NewWord()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Terms(word.Tokenize(tt.input))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWordTokenizeOffsets(t *testing.T) {
	got := NewWord().Tokenize("see myAPIService now")
	want := []Token{
		{Term: "see", Offset: 0},
		{Term: "my", Offset: 4},
		{Term: "api", Offset: 6},
		{Term: "service", Offset: 9},
		{Term: "now", Offset: 17},
	}
	assert.Equal(t, want, got)
}

func TestBigramTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{"empty", "", []Token{}},
		{"single rune", "l", []Token{{"l", 0}}},
		{"two runes", "ll", []Token{{"ll", 0}, {"l", 1}}},
		{"word", "hello", []Token{{"he", 0}, {"el", 1}, {"ll", 2}, {"lo", 3}, {"o", 4}}},
		{"two runs", "ab cd", []Token{{"ab", 0}, {"b", 1}, {"cd", 3}, {"d", 4}}},
		{"multibyte", "エンジン", []Token{{"エン", 0}, {"ンジ", 3}, {"ジン", 6}, {"ン", 9}}},
		{"case preserved", "My", []Token{{"My", 0}, {"y", 1}}},
	}

	bigram := NewBigram()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bigram.Tokenize(tt.input))
		})
	}
}

func TestBigramTokenizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{"shorter than gram", "l", []Token{{"l", 0}}},
		{"exact gram", "ll", []Token{{"ll", 0}}},
		{"word drops trailing unigram", "hello", []Token{{"he", 0}, {"el", 1}, {"ll", 2}, {"lo", 3}}},
		{"phrase keeps offsets", "ab c", []Token{{"ab", 0}, {"c", 3}}},
	}

	bigram := NewBigram()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bigram.TokenizeQuery(tt.input))
		})
	}
}

func TestTrigramTail(t *testing.T) {
	trigram := NewNGram("TokenTrigram", 3)
	assert.Equal(t, []string{"abc", "bcd", "cd", "d"}, Terms(trigram.Tokenize("abcd")))
	assert.Equal(t, []string{"abc", "bcd"}, Terms(trigram.TokenizeQuery("abcd")))
	assert.Equal(t, []string{"ab"}, Terms(trigram.TokenizeQuery("ab")))
	assert.Equal(t, 3, trigram.GramSize())
}

func TestDelimitTokenize(t *testing.T) {
	got := NewDelimit().Tokenize("ruby  groonga\tsearch")
	assert.Equal(t, []Token{{"ruby", 0}, {"groonga", 6}, {"search", 14}}, got)
	assert.Equal(t, 0, NewDelimit().GramSize())
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"TokenBigram", "tokenbigram", " TOKENDELIMIT ", "TokenWord", "TokenTrigram"} {
		t.Run(name, func(t *testing.T) {
			tok, err := Lookup(name)
			require.NoError(t, err)
			assert.NotNil(t, tok)
		})
	}

	_, err := Lookup("TokenMecab")
	assert.Error(t, err)

	assert.Contains(t, Names(), "TokenBigram")
}

func TestTokenizeIsDeterministic(t *testing.T) {
	text := "groonga は組み込み型の全文検索エンジンライブラリです。"
	bigram := NewBigram()
	assert.Equal(t, bigram.Tokenize(text), bigram.Tokenize(text))
}
