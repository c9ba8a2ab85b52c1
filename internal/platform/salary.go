package platform

import (
	"strconv"
	"strings"
)

// parseSalary extracts (min, max) in thousands from salary text like
// "15k-20k", "15-20K" or "15K-20K·13薪". Unparseable text yields (0, 0),
// which the filter then rejects against any non-trivial salary preference.
func parseSalary(text string) (int, int) {
	s := strings.ToLower(text)
	if i := strings.Index(s, "·"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "k", "")
	s = strings.TrimSpace(s)

	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	min, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	max, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || min > max {
		return 0, 0
	}
	return min, max
}
