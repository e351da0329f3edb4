package promo

// mapBook implements Book using a map for O(1) lookups.
type mapBook struct {
	rules map[string]Rule
}

// NewMapBook creates a map-based book holding the given rules. Later rules
// replace earlier ones with the same code.
func NewMapBook(rules ...Rule) Book {
	b := &mapBook{
		rules: make(map[string]Rule, len(rules)),
	}
	for _, r := range rules {
		b.add(r)
	}
	return b
}

// Lookup returns the rule for code.
func (b *mapBook) Lookup(code string) (Rule, bool) {
	r, ok := b.rules[NormaliseCode(code)]
	return r, ok
}

// Size returns the number of rules in the book.
func (b *mapBook) Size() int {
	return len(b.rules)
}

func (b *mapBook) add(r Rule) {
	r.Code = NormaliseCode(r.Code)
	if r.Code == "" {
		return
	}
	b.rules[r.Code] = r
}
