package bible

// Metadata reports verse totals per book and for the whole corpus.
// The zero value knows no totals.
type Metadata struct {
	bookTotals  map[string]int
	globalTotal int
}

// NewMetadata builds metadata from per-book verse totals.
func NewMetadata(bookTotals map[string]int) *Metadata {
	m := &Metadata{bookTotals: make(map[string]int, len(bookTotals))}
	for code, n := range bookTotals {
		if n <= 0 {
			continue
		}
		m.bookTotals[code] = n
		m.globalTotal += n
	}
	return m
}

// TotalVerses returns the verse count of a book and whether it is known.
func (m *Metadata) TotalVerses(bookCode string) (int, bool) {
	if m == nil {
		return 0, false
	}
	n, ok := m.bookTotals[bookCode]
	return n, ok && n > 0
}

// GlobalTotalVerses returns the verse count of all known books.
func (m *Metadata) GlobalTotalVerses() int {
	if m == nil {
		return 0
	}
	return m.globalTotal
}
