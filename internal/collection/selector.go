package collection

import "strconv"

// Selector addresses one record, either by stable id or by current position.
type Selector struct {
	id       string
	position int
	byPos    bool
}

// ByID selects the record with the given id.
func ByID(id string) Selector { return Selector{id: id} }

// ByPosition selects the record at the zero-based index.
func ByPosition(index int) Selector { return Selector{position: index, byPos: true} }

func (s Selector) String() string {
	if s.byPos {
		return "#" + strconv.Itoa(s.position)
	}
	return s.id
}

// resolve returns the index of the selected record or -1.
func (s Selector) resolve(records []Record) int {
	if s.byPos {
		if s.position < 0 || s.position >= len(records) {
			return -1
		}
		return s.position
	}
	for i, r := range records {
		if r.ID == s.id {
			return i
		}
	}
	return -1
}
