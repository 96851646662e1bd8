package weave

import "github.com/weavedoc/weave/id"

// idSet is an insertion-ordered set of ids, used for Node.Parents and
// Node.Children. Spec §9 notes child iteration order is "unspecified but
// deterministic per insertion history" — insertion order satisfies that
// directly, with none of the extra bookkeeping a sorted set would need.
type idSet struct {
	order []id.Id
	pos   map[id.Id]int
}

func newIDSet() *idSet {
	return &idSet{pos: make(map[id.Id]int)}
}

func newIDSetFrom(ids ...id.Id) *idSet {
	s := newIDSet()
	for _, i := range ids {
		s.Add(i)
	}
	return s
}

func (s *idSet) Contains(i id.Id) bool {
	_, ok := s.pos[i]
	return ok
}

func (s *idSet) Add(i id.Id) {
	if s.Contains(i) {
		return
	}
	s.pos[i] = len(s.order)
	s.order = append(s.order, i)
}

func (s *idSet) Remove(i id.Id) {
	idx, ok := s.pos[i]
	if !ok {
		return
	}
	s.order = append(s.order[:idx], s.order[idx+1:]...)
	delete(s.pos, i)
	for j := idx; j < len(s.order); j++ {
		s.pos[s.order[j]] = j
	}
}

func (s *idSet) Len() int {
	return len(s.order)
}

// Slice returns a copy of the set's elements in insertion order.
func (s *idSet) Slice() []id.Id {
	out := make([]id.Id, len(s.order))
	copy(out, s.order)
	return out
}

func (s *idSet) Clone() *idSet {
	return newIDSetFrom(s.order...)
}

// Min returns the smallest id in the set by id.Compare, used by
// update_node_activity's deterministic parent tie-break.
func (s *idSet) Min() (id.Id, bool) {
	if len(s.order) == 0 {
		return id.Nil, false
	}
	min := s.order[0]
	for _, i := range s.order[1:] {
		if i.Less(min) {
			min = i
		}
	}
	return min, true
}

// sortedSet keeps its elements in ascending id order at all times, used
// for Weave.roots (spec §3 invariant 2: "roots is ordered by id ascending").
type sortedSet struct {
	order []id.Id
}

func newSortedSet() *sortedSet {
	return &sortedSet{}
}

func (s *sortedSet) Contains(i id.Id) bool {
	_, found := s.search(i)
	return found
}

func (s *sortedSet) search(i id.Id) (int, bool) {
	lo, hi := 0, len(s.order)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case s.order[mid].Less(i):
			lo = mid + 1
		case i.Less(s.order[mid]):
			hi = mid
		default:
			return mid, true
		}
	}
	return lo, false
}

func (s *sortedSet) Add(i id.Id) {
	idx, found := s.search(i)
	if found {
		return
	}
	s.order = append(s.order, id.Nil)
	copy(s.order[idx+1:], s.order[idx:])
	s.order[idx] = i
}

func (s *sortedSet) Remove(i id.Id) {
	idx, found := s.search(i)
	if !found {
		return
	}
	s.order = append(s.order[:idx], s.order[idx+1:]...)
}

func (s *sortedSet) Slice() []id.Id {
	out := make([]id.Id, len(s.order))
	copy(out, s.order)
	return out
}

func (s *sortedSet) Len() int {
	return len(s.order)
}
