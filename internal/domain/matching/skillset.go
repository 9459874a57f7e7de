package matching

import "sort"

// SkillSet is a set of lowercase skill terms.
type SkillSet map[string]struct{}

func NewSkillSet(items ...string) SkillSet {
	s := make(SkillSet, len(items))
	for _, it := range items {
		s.Add(it)
	}
	return s
}

func (s SkillSet) Add(item string) {
	item = normalizeTerm(item)
	if item == "" {
		return
	}
	s[item] = struct{}{}
}

func (s SkillSet) Has(item string) bool {
	_, ok := s[normalizeTerm(item)]
	return ok
}

func (s SkillSet) Len() int {
	return len(s)
}

// Sorted returns the members in alphabetical order. An empty set yields an
// empty, non-nil slice.
func (s SkillSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for it := range s {
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

func (s SkillSet) Intersect(other SkillSet) SkillSet {
	out := make(SkillSet)
	for it := range s {
		if _, ok := other[it]; ok {
			out[it] = struct{}{}
		}
	}
	return out
}

// Difference returns the members of s that are not in other.
func (s SkillSet) Difference(other SkillSet) SkillSet {
	out := make(SkillSet)
	for it := range s {
		if _, ok := other[it]; !ok {
			out[it] = struct{}{}
		}
	}
	return out
}

// normalized rebuilds the set through Add so callers that filled the map
// directly still compare lowercase to lowercase.
func (s SkillSet) normalized() SkillSet {
	out := make(SkillSet, len(s))
	for it := range s {
		out.Add(it)
	}
	return out
}
