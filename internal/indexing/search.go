package indexing

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/internal/tokenizer"
	"github.com/gcbaptista/colsearch/model"
	"github.com/gcbaptista/colsearch/store"
)

// SearchOptions controls how a search result is produced.
type SearchOptions struct {
	// Kind selects phrase (default), all-terms or any-term matching.
	Kind store.MatchKind
	// Result, when set, is combined with the matches using Operator and the
	// combination is returned.
	Result   *store.RecordSet
	Operator store.SetOperator
}

// occurrence is one place a query term was found.
type occurrence struct {
	section  uint32
	position uint32
	weight   uint32
}

// Search tokenizes query the way values are tokenized and returns the
// matching records of the target table, deduplicated, in ascending record id
// order. Multi-term queries require every term; when the index keeps
// positions the terms must also appear adjacently in one section.
func (c *IndexColumn) Search(query string, opts SearchOptions) (*store.RecordSet, error) {
	start := time.Now()

	c.mu.RLock()
	found := c.searchLocked(query, opts.Kind)
	c.mu.RUnlock()

	c.observeSearch(start, found.Len())
	if opts.Result != nil {
		return opts.Result.Merge(found, opts.Operator), nil
	}
	return found, nil
}

// SearchTerm returns the records holding the lexicon term with the given id.
func (c *IndexColumn) SearchTerm(termID model.RecordID, opts SearchOptions) (*store.RecordSet, error) {
	term := c.lexicon.Key(termID)
	if term == "" {
		return nil, internalErrors.NewRecordNotFoundError(c.lexicon.Name(), uint32(termID))
	}

	c.mu.RLock()
	hits := make(map[model.RecordID][]occurrence)
	for p := range c.postings.Lookup(term) {
		hits[p.RecordID] = append(hits[p.RecordID], occurrence{p.Section, p.Position, p.Weight})
	}
	found := c.collect(hits, sortedIDs(hits))
	c.mu.RUnlock()

	if opts.Result != nil {
		return opts.Result.Merge(found, opts.Operator), nil
	}
	return found, nil
}

// Match implements store.Searcher.
func (c *IndexColumn) Match(query string, kind store.MatchKind) (*store.RecordSet, error) {
	return c.Search(query, SearchOptions{Kind: kind})
}

func (c *IndexColumn) searchLocked(query string, kind store.MatchKind) *store.RecordSet {
	tokens := c.tokenizer.TokenizeQuery(query)
	if len(tokens) == 0 {
		return store.NewRecordSet(c.target)
	}

	perToken := make([]map[model.RecordID][]occurrence, len(tokens))
	for i, tok := range tokens {
		perToken[i] = c.termOccurrences(tok.Term)
	}

	if kind == store.MatchAny {
		merged := make(map[model.RecordID][]occurrence)
		for _, hits := range perToken {
			for id, occs := range hits {
				merged[id] = append(merged[id], occs...)
			}
		}
		return c.collect(merged, sortedIDs(merged))
	}

	// candidates: records holding every token, visited in ascending id order
	candidates := make([]model.RecordID, 0)
	for _, id := range sortedIDs(perToken[0]) {
		inAll := true
		for _, hits := range perToken[1:] {
			if _, ok := hits[id]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			candidates = append(candidates, id)
		}
	}

	checkPhrase := kind == store.MatchPhrase && c.WithPosition() && len(tokens) > 1
	merged := make(map[model.RecordID][]occurrence, len(candidates))
	kept := candidates[:0]
	for _, id := range candidates {
		if checkPhrase && !phraseMatches(tokens, perToken, id) {
			continue
		}
		for _, hits := range perToken {
			merged[id] = append(merged[id], hits[id]...)
		}
		kept = append(kept, id)
	}
	return c.collect(merged, kept)
}

// termOccurrences resolves one query term. Terms shorter than the gram size
// of an n-gram tokenizer cannot be looked up directly: every lexicon term
// containing the query is a candidate. Indexing emits a gram at every rune
// of a run, so each source occurrence of the query is the prefix of exactly
// one gram; only those count, which keeps overlapping grams from reporting
// the same occurrence twice.
func (c *IndexColumn) termOccurrences(term string) map[model.RecordID][]occurrence {
	hits := make(map[model.RecordID][]occurrence)
	gram := c.tokenizer.GramSize()
	if gram == 0 || utf8.RuneCountInString(term) >= gram {
		for p := range c.postings.Lookup(term) {
			hits[p.RecordID] = append(hits[p.RecordID], occurrence{p.Section, p.Position, p.Weight})
		}
		return hits
	}

	for _, candidate := range c.postings.TermsContaining(term) {
		if !strings.HasPrefix(candidate, term) {
			continue
		}
		for p := range c.postings.Lookup(candidate) {
			hits[p.RecordID] = append(hits[p.RecordID], occurrence{p.Section, p.Position, p.Weight})
		}
	}
	return hits
}

// phraseMatches reports whether the record holds all tokens at the same
// relative byte distances as in the query, inside one section.
func phraseMatches(tokens []tokenizer.Token, perToken []map[model.RecordID][]occurrence, id model.RecordID) bool {
	base := tokens[0].Offset
	for _, first := range perToken[0][id] {
		matched := true
		for i := 1; i < len(tokens); i++ {
			want := int64(first.position) + int64(tokens[i].Offset-base)
			if !hasOccurrence(perToken[i][id], first.section, want) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func hasOccurrence(occs []occurrence, section uint32, position int64) bool {
	for _, o := range occs {
		if o.section == section && int64(o.position) == position {
			return true
		}
	}
	return false
}

// collect builds the result set in ids order, skipping records that no
// longer exist in the target table. A record's score is the sum of the
// weights of its matched postings.
func (c *IndexColumn) collect(hits map[model.RecordID][]occurrence, ids []model.RecordID) *store.RecordSet {
	result := store.NewRecordSet(c.target)
	for _, id := range ids {
		if !c.target.Exists(id) {
			continue
		}
		score := 0.0
		for _, o := range hits[id] {
			score += float64(o.weight)
		}
		result.Add(id, score)
	}
	return result
}

func sortedIDs(hits map[model.RecordID][]occurrence) []model.RecordID {
	ids := make([]model.RecordID, 0, len(hits))
	for id := range hits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var _ store.Searcher = (*IndexColumn)(nil)
