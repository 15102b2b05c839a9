package index

import (
	"bytes"
	"encoding/gob"
	"iter"
	"sort"
	"strings"
	"sync"

	"github.com/gcbaptista/colsearch/model"
)

// PostingStore maps terms to posting lists. Postings live in one arena and
// are addressed by stable slot indices; each term owns the list of slots of
// its postings in insertion order. Removing a posting frees its slot for
// reuse without moving other postings.
type PostingStore struct {
	Mu       sync.RWMutex
	Flags    Flags
	arena    []Posting
	free     []int
	terms    map[string][]int
	postings int
}

// NewPostingStore creates an empty store that keeps the fields selected by flags.
func NewPostingStore(flags Flags) *PostingStore {
	return &PostingStore{
		Flags: flags,
		arena: make([]Posting, 0),
		terms: make(map[string][]int),
	}
}

// Add appends a posting to term's list. Adding an identical posting twice
// stores two postings; each must be removed separately.
func (s *PostingStore) Add(term string, p Posting) {
	p = s.Flags.normalize(p)

	s.Mu.Lock()
	defer s.Mu.Unlock()

	var slot int
	if n := len(s.free); n > 0 {
		slot = s.free[n-1]
		s.free = s.free[:n-1]
		s.arena[slot] = p
	} else {
		slot = len(s.arena)
		s.arena = append(s.arena, p)
	}
	s.terms[term] = append(s.terms[term], slot)
	s.postings++
}

// Remove deletes the first posting of term equal to p (compared on the
// fields the flags keep). It reports whether a posting was removed; removing
// an absent posting is a no-op.
func (s *PostingStore) Remove(term string, p Posting) bool {
	p = s.Flags.normalize(p)

	s.Mu.Lock()
	defer s.Mu.Unlock()

	slots, ok := s.terms[term]
	if !ok {
		return false
	}
	for i, slot := range slots {
		if s.arena[slot] != p {
			continue
		}
		if len(slots) == 1 {
			delete(s.terms, term)
		} else {
			s.terms[term] = append(slots[:i:i], slots[i+1:]...)
		}
		s.arena[slot] = Posting{}
		s.free = append(s.free, slot)
		s.postings--
		return true
	}
	return false
}

// RemoveRecord deletes every posting of a record from every term.
func (s *PostingStore) RemoveRecord(id model.RecordID) int {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	removed := 0
	for term, slots := range s.terms {
		kept := slots[:0]
		for _, slot := range slots {
			if s.arena[slot].RecordID == id {
				s.arena[slot] = Posting{}
				s.free = append(s.free, slot)
				removed++
				continue
			}
			kept = append(kept, slot)
		}
		if len(kept) == 0 {
			delete(s.terms, term)
		} else {
			s.terms[term] = kept
		}
	}
	s.postings -= removed
	return removed
}

// Lookup returns a lazy sequence over the postings of term in insertion
// order. The slot list is captured when iteration starts, so concurrent
// writes do not affect a running iteration's length.
func (s *PostingStore) Lookup(term string) iter.Seq[Posting] {
	return func(yield func(Posting) bool) {
		for _, p := range s.Postings(term) {
			if !yield(p) {
				return
			}
		}
	}
}

// Postings returns a copy of term's posting list in insertion order.
func (s *PostingStore) Postings(term string) []Posting {
	s.Mu.RLock()
	defer s.Mu.RUnlock()

	slots := s.terms[term]
	postings := make([]Posting, len(slots))
	for i, slot := range slots {
		postings[i] = s.arena[slot]
	}
	return postings
}

// Has reports whether term has at least one posting.
func (s *PostingStore) Has(term string) bool {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	_, ok := s.terms[term]
	return ok
}

// Terms returns every term with postings in sorted order.
func (s *PostingStore) Terms() []string {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	terms := make([]string, 0, len(s.terms))
	for term := range s.terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// TermsContaining returns the sorted terms that contain sub as a contiguous
// substring. It is the candidate phase of substring queries.
func (s *PostingStore) TermsContaining(sub string) []string {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	terms := make([]string, 0)
	for term := range s.terms {
		if strings.Contains(term, sub) {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)
	return terms
}

// TermCount returns the number of distinct terms.
func (s *PostingStore) TermCount() int {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	return len(s.terms)
}

// PostingCount returns the number of live postings.
func (s *PostingStore) PostingCount() int {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	return s.postings
}

// Clear drops every posting.
func (s *PostingStore) Clear() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.arena = s.arena[:0]
	s.free = s.free[:0]
	s.terms = make(map[string][]int)
	s.postings = 0
}

// gobPostingStoreData is a helper struct for Gob encoding/decoding PostingStore
// data. Free slots are compacted away.
type gobPostingStoreData struct {
	Flags Flags
	Terms map[string][]Posting
}

// GobEncode implements the gob.GobEncoder interface for PostingStore.
func (s *PostingStore) GobEncode() ([]byte, error) {
	s.Mu.RLock()
	dataToEncode := gobPostingStoreData{
		Flags: s.Flags,
		Terms: make(map[string][]Posting, len(s.terms)),
	}
	for term, slots := range s.terms {
		postings := make([]Posting, len(slots))
		for i, slot := range slots {
			postings[i] = s.arena[slot]
		}
		dataToEncode.Terms[term] = postings
	}
	s.Mu.RUnlock()

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for PostingStore.
func (s *PostingStore) GobDecode(data []byte) error {
	decodedData := gobPostingStoreData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return err
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	s.Flags = decodedData.Flags
	s.arena = make([]Posting, 0)
	s.free = nil
	s.terms = make(map[string][]int, len(decodedData.Terms))
	s.postings = 0
	for term, postings := range decodedData.Terms {
		slots := make([]int, len(postings))
		for i, p := range postings {
			slots[i] = len(s.arena)
			s.arena = append(s.arena, p)
		}
		s.terms[term] = slots
		s.postings += len(postings)
	}
	return nil
}
