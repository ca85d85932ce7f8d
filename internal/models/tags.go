// internal/models/tags.go
package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// TagSet is a set of normalized (trimmed, lower-case, non-empty) skill tags.
type TagSet map[string]struct{}

func NewTagSet(values ...string) TagSet {
	set := make(TagSet, len(values))
	for _, v := range values {
		set.Add(v)
	}
	return set
}

func (s TagSet) Add(v string) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return
	}
	s[v] = struct{}{}
}

func (s TagSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s TagSet) Len() int {
	return len(s)
}

func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Key is a deterministic identity for the set, usable as a map key.
func (s TagSet) Key() string {
	return strings.Join(s.Sorted(), "|")
}

func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *TagSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewTagSet(values...)
	return nil
}
