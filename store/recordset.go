package store

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/gcbaptista/colsearch/model"
)

// SetOperator combines two record sets.
type SetOperator int

const (
	SetOr SetOperator = iota
	SetAnd
	SetAndNot
	// SetAdjust keeps the left set and adds the right set's scores to
	// records present in both.
	SetAdjust
)

// ParseSetOperator accepts the names and symbols used by search options:
// or, ||, and, +, &&, but, not, -, adjust, >.
func ParseSetOperator(name string) (SetOperator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "or", "||":
		return SetOr, nil
	case "and", "+", "&&":
		return SetAnd, nil
	case "but", "not", "-", "and_not":
		return SetAndNot, nil
	case "adjust", ">":
		return SetAdjust, nil
	}
	return SetOr, fmt.Errorf("unknown set operator '%s'", name)
}

// RecordSet is an ordered, deduplicated set of record ids from one table,
// each carrying a score. Membership is tracked in a roaring bitmap; order is
// the order in which records were first added.
type RecordSet struct {
	table  *Table
	ids    []model.RecordID
	member *roaring.Bitmap
	scores map[model.RecordID]float64
}

// NewRecordSet creates an empty set whose records belong to table.
func NewRecordSet(table *Table) *RecordSet {
	return &RecordSet{
		table:  table,
		ids:    make([]model.RecordID, 0),
		member: roaring.New(),
		scores: make(map[model.RecordID]float64),
	}
}

// Table returns the table the record ids belong to.
func (rs *RecordSet) Table() *Table { return rs.table }

// Add inserts id with score. A record already in the set keeps its position
// and accumulates the score. It returns true when id was new.
func (rs *RecordSet) Add(id model.RecordID, score float64) bool {
	if rs.member.CheckedAdd(uint32(id)) {
		rs.ids = append(rs.ids, id)
		rs.scores[id] = score
		return true
	}
	rs.scores[id] += score
	return false
}

func (rs *RecordSet) Contains(id model.RecordID) bool {
	return rs.member.Contains(uint32(id))
}

func (rs *RecordSet) Len() int {
	return len(rs.ids)
}

// Score returns the accumulated score of id, or 0 when absent.
func (rs *RecordSet) Score(id model.RecordID) float64 {
	return rs.scores[id]
}

// IDs returns the record ids in set order.
func (rs *RecordSet) IDs() []model.RecordID {
	ids := make([]model.RecordID, len(rs.ids))
	copy(ids, rs.ids)
	return ids
}

// Records returns record handles in set order.
func (rs *RecordSet) Records() []Record {
	records := make([]Record, len(rs.ids))
	for i, id := range rs.ids {
		records[i] = Record{table: rs.table, id: id}
	}
	return records
}

// Keys returns the keys of the records in set order.
func (rs *RecordSet) Keys() []string {
	keys := make([]string, len(rs.ids))
	for i, id := range rs.ids {
		keys[i] = rs.table.Key(id)
	}
	return keys
}

// Bitmap returns a copy of the membership bitmap.
func (rs *RecordSet) Bitmap() *roaring.Bitmap {
	return rs.member.Clone()
}

// Merge combines rs with other and returns a new set; neither input is
// modified. Records keep the order of rs, followed (for SetOr) by records
// only present in other.
func (rs *RecordSet) Merge(other *RecordSet, op SetOperator) *RecordSet {
	result := NewRecordSet(rs.table)
	if rs.table == nil {
		result.table = other.table
	}

	switch op {
	case SetOr:
		for _, id := range rs.ids {
			result.Add(id, rs.scores[id])
		}
		for _, id := range other.ids {
			result.Add(id, other.scores[id])
		}
	case SetAnd:
		for _, id := range rs.ids {
			if other.Contains(id) {
				result.Add(id, rs.scores[id]+other.scores[id])
			}
		}
	case SetAndNot:
		for _, id := range rs.ids {
			if !other.Contains(id) {
				result.Add(id, rs.scores[id])
			}
		}
	case SetAdjust:
		for _, id := range rs.ids {
			score := rs.scores[id]
			if other.Contains(id) {
				score += other.scores[id]
			}
			result.Add(id, score)
		}
	}
	return result
}
