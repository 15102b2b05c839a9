package index

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/colsearch/model"
)

var allFlags = Flags{WithSection: true, WithPosition: true, WithWeight: true}

func TestPostingStoreAddAndLookup(t *testing.T) {
	s := NewPostingStore(allFlags)
	s.Add("en", Posting{RecordID: 2, Section: 1, Position: 4, Weight: 1})
	s.Add("en", Posting{RecordID: 1, Section: 0, Position: 0, Weight: 3})
	s.Add("gi", Posting{RecordID: 1, Section: 0, Position: 1})

	// insertion order, not sorted
	assert.Equal(t, []Posting{
		{RecordID: 2, Section: 1, Position: 4, Weight: 1},
		{RecordID: 1, Section: 0, Position: 0, Weight: 3},
	}, s.Postings("en"))

	// weight defaults to 1
	assert.Equal(t, uint32(1), s.Postings("gi")[0].Weight)

	var seen []model.RecordID
	for p := range s.Lookup("en") {
		seen = append(seen, p.RecordID)
		break
	}
	assert.Equal(t, []model.RecordID{2}, seen)

	assert.Equal(t, 2, s.TermCount())
	assert.Equal(t, 3, s.PostingCount())
	assert.Empty(t, s.Postings("missing"))
}

func TestPostingStoreDuplicatesAreRemovedIndividually(t *testing.T) {
	s := NewPostingStore(allFlags)
	p := Posting{RecordID: 1, Section: 1, Position: 2, Weight: 1}
	s.Add("ab", p)
	s.Add("ab", p)

	require.True(t, s.Remove("ab", p))
	assert.Len(t, s.Postings("ab"), 1)
	require.True(t, s.Remove("ab", p))
	assert.False(t, s.Has("ab"))
	assert.Equal(t, 0, s.PostingCount())
}

func TestPostingStoreRemoveAbsentIsNoop(t *testing.T) {
	s := NewPostingStore(allFlags)
	s.Add("ab", Posting{RecordID: 1, Section: 1, Position: 2})

	tests := []struct {
		name string
		term string
		p    Posting
	}{
		{"unknown term", "zz", Posting{RecordID: 1, Section: 1, Position: 2}},
		{"other record", "ab", Posting{RecordID: 2, Section: 1, Position: 2}},
		{"other section", "ab", Posting{RecordID: 1, Section: 2, Position: 2}},
		{"other position", "ab", Posting{RecordID: 1, Section: 1, Position: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, s.Remove(tt.term, tt.p))
			assert.Equal(t, 1, s.PostingCount())
		})
	}
}

func TestPostingStoreFlagsNormalizeFields(t *testing.T) {
	s := NewPostingStore(Flags{})
	s.Add("ab", Posting{RecordID: 1, Section: 3, Position: 7, Weight: 9})
	assert.Equal(t, []Posting{{RecordID: 1, Section: 0, Position: 0, Weight: 1}}, s.Postings("ab"))

	// fields the index does not keep are ignored when removing
	assert.True(t, s.Remove("ab", Posting{RecordID: 1, Section: 5, Position: 1}))
}

func TestPostingStoreReusesFreedSlots(t *testing.T) {
	s := NewPostingStore(allFlags)
	s.Add("a", Posting{RecordID: 1})
	s.Add("b", Posting{RecordID: 2})
	require.True(t, s.Remove("a", Posting{RecordID: 1}))
	s.Add("c", Posting{RecordID: 3})

	assert.Len(t, s.arena, 2)
	assert.Equal(t, []Posting{{RecordID: 2, Weight: 1}}, s.Postings("b"))
	assert.Equal(t, []Posting{{RecordID: 3, Weight: 1}}, s.Postings("c"))
}

func TestPostingStoreTermsContaining(t *testing.T) {
	s := NewPostingStore(Flags{})
	for _, term := range []string{"l", "ll", "he", "el", "lo", "o"} {
		s.Add(term, Posting{RecordID: 1})
	}
	assert.Equal(t, []string{"el", "l", "ll", "lo"}, s.TermsContaining("l"))
	assert.Equal(t, []string{"el", "he", "l", "ll", "lo", "o"}, s.Terms())
}

func TestPostingStoreRemoveRecord(t *testing.T) {
	s := NewPostingStore(allFlags)
	s.Add("a", Posting{RecordID: 1})
	s.Add("a", Posting{RecordID: 2})
	s.Add("b", Posting{RecordID: 1, Position: 3})

	assert.Equal(t, 2, s.RemoveRecord(1))
	assert.Equal(t, []string{"a"}, s.Terms())
	assert.Equal(t, 1, s.PostingCount())
}

func TestPostingStoreGobRoundTrip(t *testing.T) {
	s := NewPostingStore(allFlags)
	s.Add("a", Posting{RecordID: 1, Section: 1, Position: 2, Weight: 5})
	s.Add("a", Posting{RecordID: 2})
	s.Add("b", Posting{RecordID: 3})
	s.Remove("b", Posting{RecordID: 3})

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(s))

	decoded := &PostingStore{}
	require.NoError(t, gob.NewDecoder(&buf).Decode(decoded))

	assert.Equal(t, allFlags, decoded.Flags)
	assert.Equal(t, s.Postings("a"), decoded.Postings("a"))
	assert.Equal(t, []string{"a"}, decoded.Terms())
	assert.Equal(t, 2, decoded.PostingCount())
}
