package reconstruct

// Record is one logical row rebuilt from its opener and fragments.
type Record struct {
	Index  int
	Fields []string
}

// Arena holds records addressed by index. Placing a record past the end grows the
// arena and leaves the skipped positions as gaps; gaps are never returned.
type Arena struct {
	slots  [][]string
	opened []bool
	count  int
}

// Len returns the addressable length of the arena, gaps included.
func (a *Arena) Len() int {
	return len(a.slots)
}

// Count returns the number of opened records.
func (a *Arena) Count() int {
	return a.count
}

// Opened reports whether a record exists at index.
func (a *Arena) Opened(index int) bool {
	return index >= 0 && index < len(a.opened) && a.opened[index]
}

// Open stores fields as the record at index, growing the arena as needed.
// It must not be called for an index that is already opened.
func (a *Arena) Open(index int, fields []string) {
	if index >= len(a.slots) {
		grow := index + 1 - len(a.slots)
		a.slots = append(a.slots, make([][]string, grow)...)
		a.opened = append(a.opened, make([]bool, grow)...)
	}
	a.slots[index] = fields
	a.opened[index] = true
	a.count++
}

// Append column-concatenates fields onto the opened record at index.
func (a *Arena) Append(index int, fields []string) {
	a.slots[index] = append(a.slots[index], fields...)
}

// Records returns the opened records in ascending index order.
func (a *Arena) Records() []Record {
	out := make([]Record, 0, a.count)
	for i, ok := range a.opened {
		if !ok {
			continue
		}
		out = append(out, Record{Index: i, Fields: a.slots[i]})
	}
	return out
}
