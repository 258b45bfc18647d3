package engine

// RuleList applies its elements in order. An iterative list repeats the
// whole sequence until a round changes nothing, or until only its first
// element, itself iterative, changed anything (that element already ran to
// its own fixpoint).
type RuleList struct {
	items     []Appliable
	iterative bool
}

// NewRuleList returns a single-pass list.
func NewRuleList(items ...Appliable) *RuleList {
	return &RuleList{items: items}
}

// NewIterativeRuleList returns a list repeated to a fixpoint.
func NewIterativeRuleList(items ...Appliable) *RuleList {
	return &RuleList{items: items, iterative: true}
}

// NewRuleListIf returns an iterative list when iterative is true.
func NewRuleListIf(iterative bool, items ...Appliable) *RuleList {
	return &RuleList{items: items, iterative: iterative}
}

func (l *RuleList) Iterative() bool    { return l.iterative }
func (l *RuleList) Len() int           { return len(l.items) }
func (l *RuleList) Items() []Appliable { return l.items }
func (l *RuleList) Append(a Appliable) { l.items = append(l.items, a) }

// Extend appends every element of items.
func (l *RuleList) Extend(items ...Appliable) {
	l.items = append(l.items, items...)
}

// Sub applies the list and returns the new text.
func (l *RuleList) Sub(text string, args Args) (string, error) {
	out, _, err := l.Subn(text, args)
	return out, err
}

// Subn applies the list and returns the total number of substitutions.
func (l *RuleList) Subn(text string, args Args) (string, int, error) {
	total := 0
	for {
		roundTotal, roundOther := 0, 0
		for i, item := range l.items {
			out, n, err := item.Subn(text, args)
			if err != nil {
				return text, total, err
			}
			text = out
			roundTotal += n
			if i > 0 {
				roundOther += n
			}
		}
		total += roundTotal

		if !l.iterative || roundTotal == 0 {
			return text, total, nil
		}
		if l.items[0].Iterative() && roundOther == 0 {
			return text, total, nil
		}
	}
}
