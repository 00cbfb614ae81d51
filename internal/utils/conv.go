package utils

import (
	"strconv"
)

// ParseID parses a positive decimal id from a path or query parameter.
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// MaxPage is the deepest listing page served.
const MaxPage = 10000

// ParsePage converts a page query value, returning 1 for anything invalid
// and MaxPage for anything deeper.
func ParsePage(s string) int {
	page, err := strconv.Atoi(s)
	if err != nil || page < 1 {
		return 1
	}
	return min(page, MaxPage)
}
