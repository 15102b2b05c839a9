package index

import "github.com/gcbaptista/colsearch/model"

// Posting records one occurrence of a term: the record it appeared in, the
// section (sub-field) of the record's value, the byte position inside that
// section, and a weight.
type Posting struct {
	RecordID model.RecordID
	Section  uint32
	Position uint32
	Weight   uint32
}

// Flags select which Posting fields an index keeps. They are fixed when the
// index is created. Fields that are not kept are stored as their defaults
// (section 0, position 0, weight 1).
type Flags struct {
	WithSection  bool
	WithPosition bool
	WithWeight   bool
}

// DefaultWeight is the weight of postings added without an explicit weight.
const DefaultWeight = 1

// normalize drops the fields the flags do not keep.
func (f Flags) normalize(p Posting) Posting {
	if !f.WithSection {
		p.Section = 0
	}
	if !f.WithPosition {
		p.Position = 0
	}
	if !f.WithWeight || p.Weight == 0 {
		p.Weight = DefaultWeight
	}
	return p
}
