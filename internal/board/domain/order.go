package domain

// CardOrder is the display order of card ids within one column.
type CardOrder []string

// IndexOf returns the position of id, or -1.
func (o CardOrder) IndexOf(id string) int {
	for i, v := range o {
		if v == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is present.
func (o CardOrder) Contains(id string) bool {
	return o.IndexOf(id) >= 0
}

// Without returns o with the first occurrence of id removed and whether it was found.
// The receiver is not modified.
func (o CardOrder) Without(id string) (CardOrder, bool) {
	i := o.IndexOf(id)
	if i < 0 {
		return o, false
	}
	out := make(CardOrder, 0, len(o)-1)
	out = append(out, o[:i]...)
	return append(out, o[i+1:]...), true
}

// WithoutAll returns o with every occurrence of id removed and how many were removed.
func (o CardOrder) WithoutAll(id string) (CardOrder, int) {
	out := make(CardOrder, 0, len(o))
	removed := 0
	for _, v := range o {
		if v == id {
			removed++
			continue
		}
		out = append(out, v)
	}
	return out, removed
}

// InsertAt returns o with id inserted at index, clamped to [0, len(o)].
// The receiver is not modified.
func (o CardOrder) InsertAt(index int, id string) CardOrder {
	index = ClampIndex(index, len(o))
	out := make(CardOrder, 0, len(o)+1)
	out = append(out, o[:index]...)
	out = append(out, id)
	return append(out, o[index:]...)
}

// ClampIndex bounds i to [0, n].
func ClampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
