package gorelay

import (
	"fmt"
	"math"
	"slices"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
)

// SortKeys is the closed set of sort keys a connection accepts. Key is the
// external sort key (e.g. "CREATED_AT"), value is the field it sorts by.
type SortKeys map[string]string

// Field returns the field for sortKey, or ErrUnsupportedSortKey.
func (s SortKeys) Field(sortKey string) (string, error) {
	field, ok := s[sortKey]
	if !ok || field == "" {
		return "", s.unsupported(sortKey)
	}

	return field, nil
}

// Validate checks that sortKey belongs to the set.
func (s SortKeys) Validate(sortKey string) error {
	_, err := s.Field(sortKey)
	return err
}

// Keys returns the accepted sort keys in lexical order.
func (s SortKeys) Keys() []string {
	keys := lo.Keys(s)
	slices.Sort(keys)

	return keys
}

func (s SortKeys) unsupported(sortKey string) error {
	if len(s) == 0 {
		return fmt.Errorf("%w '%s'", ErrUnsupportedSortKey, sortKey)
	}

	return fmt.Errorf("%w '%s'. closest: '%s'", ErrUnsupportedSortKey, sortKey, closestSortKey(sortKey, s.Keys()))
}

func closestSortKey(input string, dataSet []string) string {
	minDist := math.MaxInt
	closest := ""

	for _, key := range dataSet {
		dist := levenshtein.Distance(key, input)
		if dist < minDist {
			minDist = dist
			closest = key
		}
	}

	return closest
}
