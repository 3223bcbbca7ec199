package engine

import (
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

// EndKey returns the closing key of a paired command.
func EndKey(key string) string { return "End" + key }

// FindEnd returns the index of the marker closing ps[begin]. Nested pairs
// with the same key are skipped, and so is everything between Ignore and
// EndIgnore. It returns -1 and a ConfigError when no end marker exists.
func FindEnd(ps []placeholder.Placeholder, begin int, key string) (int, error) {
	end := EndKey(key)
	depth := 0
	var m IgnoreMachine
	for i := begin + 1; i < len(ps); i++ {
		state := m.Advance(ps[i].Key)
		if state.IgnoreRelated() || !state.Process() {
			continue
		}
		switch ps[i].Key {
		case key:
			depth++
		case end:
			if depth == 0 {
				return i, nil
			}
			depth--
		}
	}
	return -1, NewConfigError("", key, "no matching "+end+" marker")
}
