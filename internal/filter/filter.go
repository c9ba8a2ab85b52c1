// Package filter implements the pure keep/reject decision applied to every
// posting before a delivery is considered. It performs no I/O and holds no
// state across calls.
package filter

import (
	"strconv"
	"strings"

	"github.com/yunhdeng/job-bot/internal/model"
)

// Reason identifies which rule rejected a posting. Empty means the posting
// was kept.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonBlacklistCompany Reason = "blacklist_company"
	ReasonBlacklistKeyword Reason = "blacklist_keyword"
	ReasonRecruiter        Reason = "blacklist_recruiter"
	ReasonIndustry         Reason = "excluded_industry"
	ReasonSalary           Reason = "salary_mismatch"
	ReasonWorkYears        Reason = "work_years"
	ReasonEducation        Reason = "education"
)

// entryLevelMarkers are requirement strings that mean "no prior experience
// expected"; they never fail the work-years rule.
var entryLevelMarkers = []string{"应届", "在校", "经验不限", "无需经验"}

// Evaluate returns the first rule that rejects the posting, or ReasonNone if
// every rule passes. Rules are checked in blacklist → industry → salary →
// experience → education order.
func Evaluate(p model.Posting, prefs model.Preferences, bl model.Blacklist) Reason {
	for _, company := range bl.Companies {
		if company != "" && p.CompanyName == company {
			return ReasonBlacklistCompany
		}
	}

	haystack := strings.ToLower(p.Title + " " + p.Description)
	for _, kw := range bl.Keywords {
		if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
			return ReasonBlacklistKeyword
		}
	}

	for _, r := range bl.Recruiters {
		if r != "" && strings.Contains(p.Recruiter, r) {
			return ReasonRecruiter
		}
	}

	for _, industry := range prefs.ExcludedIndustries {
		if industry != "" && p.Industry == industry {
			return ReasonIndustry
		}
	}

	// Ranges must overlap: prefs.min <= posting.max && posting.min <= prefs.max.
	// An unparseable salary is (0, 0) and fails here unless the preference
	// range includes 0.
	if !(prefs.SalaryMin <= p.SalaryMax && p.SalaryMin <= prefs.SalaryMax) {
		return ReasonSalary
	}

	if minYears, ok := minWorkYears(p.WorkYears); ok && minYears > prefs.MaxWorkYears {
		return ReasonWorkYears
	}

	if model.ParseEducation(p.Education) > prefs.Education {
		return ReasonEducation
	}

	return ReasonNone
}

// minWorkYears extracts the lower bound from requirement text like "3-5年" or
// "10年以上". Entry-level markers and unparseable text report no requirement.
func minWorkYears(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, marker := range entryLevelMarkers {
		if strings.Contains(s, marker) {
			return 0, false
		}
	}

	digits := s
	if i := strings.IndexAny(digits, "-—年以"); i >= 0 {
		digits = digits[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(digits))
	if err != nil {
		return 0, false
	}
	return n, true
}
