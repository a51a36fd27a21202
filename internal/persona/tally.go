package persona

// Tally counts votes per tag and remembers the order in which tags were
// first seen. The order drives the tie-break, so it must never come from map
// iteration.
type Tally struct {
	order  []string
	counts map[string]int
}

type Entry struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

func newTally(seed ...string) Tally {
	t := Tally{counts: make(map[string]int, len(seed))}
	for _, tag := range seed {
		if _, ok := t.counts[tag]; ok {
			continue
		}
		t.order = append(t.order, tag)
		t.counts[tag] = 0
	}
	return t
}

// with returns a copy with tag incremented, creating it at zero first.
func (t Tally) with(tag string) Tally {
	next := Tally{
		order:  append(make([]string, 0, len(t.order)+1), t.order...),
		counts: make(map[string]int, len(t.counts)+1),
	}
	for k, v := range t.counts {
		next.counts[k] = v
	}
	if _, ok := next.counts[tag]; !ok {
		next.order = append(next.order, tag)
	}
	next.counts[tag]++
	return next
}

func (t Tally) Has(tag string) bool {
	_, ok := t.counts[tag]
	return ok
}

func (t Tally) Count(tag string) int {
	return t.counts[tag]
}

func (t Tally) Len() int {
	return len(t.order)
}

func (t Tally) Entries() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, tag := range t.order {
		out = append(out, Entry{Tag: tag, Count: t.counts[tag]})
	}
	return out
}

// Winner reduces left to right keeping the first maximum: a later tag only
// wins with a strictly greater count.
func (t Tally) Winner() (string, bool) {
	if len(t.order) == 0 {
		return "", false
	}
	best := t.order[0]
	for _, tag := range t.order[1:] {
		if t.counts[tag] > t.counts[best] {
			best = tag
		}
	}
	return best, true
}
