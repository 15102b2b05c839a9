package tokenizer

// Delimit splits text at whitespace and emits each run as one term.
type Delimit struct{}

// NewDelimit returns the "TokenDelimit" tokenizer.
func NewDelimit() *Delimit {
	return &Delimit{}
}

func (d *Delimit) Name() string  { return "TokenDelimit" }
func (d *Delimit) GramSize() int { return 0 }

func (d *Delimit) Tokenize(text string) []Token {
	runs := whitespaceRuns(text)
	tokens := make([]Token, len(runs))
	for i, run := range runs {
		tokens[i] = Token{Term: run.text, Offset: run.offset}
	}
	return tokens
}

func (d *Delimit) TokenizeQuery(text string) []Token {
	return d.Tokenize(text)
}
