package gorelay

const (
	MaxLimit     = 100
	DefaultLimit = 10
)

// IsNormalizedCountMax resolves a requested page size. A nil count means
// "not requested" and yields defaultLimit; zero is a valid page size; counts
// above maxLimit are clamped. The boolean reports whether the count was used
// as is.
func IsNormalizedCountMax(count *int, defaultLimit, maxLimit int) (int, bool) {
	switch {
	case count == nil:
		return min(defaultLimit, maxLimit), false
	case *count > maxLimit:
		return maxLimit, false
	default:
		return *count, true
	}
}

func NormalizeCountMax(count *int, defaultLimit, maxLimit int) int {
	ret, _ := IsNormalizedCountMax(count, defaultLimit, maxLimit)
	return ret
}
