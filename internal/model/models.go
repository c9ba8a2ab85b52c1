// Package model defines the shared data structures of the delivery pipeline.
package model

import "time"

// Posting is one normalised job listing fetched from a recruiting platform.
// Salary bounds are in thousands; both are 0 when the platform's salary text
// could not be parsed, which makes the posting fail any non-trivial salary
// filter.
type Posting struct {
	ID          string    `json:"jobId"`
	Title       string    `json:"title"`
	CompanyName string    `json:"companyName"`
	City        string    `json:"city"`
	SalaryMin   int       `json:"salaryMin"`
	SalaryMax   int       `json:"salaryMax"`
	WorkYears   string    `json:"workYears,omitempty"` // raw requirement text, e.g. "3-5年" or "应届"
	Education   string    `json:"education,omitempty"` // raw requirement text, e.g. "本科"
	Tags        []string  `json:"tags,omitempty"`
	Recruiter   string    `json:"recruiter,omitempty"`
	CompanySize string    `json:"companySize,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"` // zero when the platform omits it
	Description string    `json:"description,omitempty"`
}

// SearchPair is one (keyword, city) search target. A controller run walks
// every pair sequentially.
type SearchPair struct {
	Keyword string `json:"keyword"`
	City    string `json:"city"`
}

// Preferences holds the user's acceptance criteria, shared read-only across
// all platforms for the duration of a run.
type Preferences struct {
	SalaryMin          int
	SalaryMax          int
	MaxWorkYears       int
	Education          Education // highest education the user holds
	ExcludedIndustries []string
}

// Blacklist holds exclusion rules, immutable for the duration of a run.
type Blacklist struct {
	Companies  []string `json:"companies"`
	Recruiters []string `json:"recruiters"`
	Keywords   []string `json:"keywords"`
}

// DefaultBlacklist is the hard-coded fallback used when no blacklist file is
// available: no banned companies, headhunter recruiters and outsourcing
// keywords excluded.
func DefaultBlacklist() Blacklist {
	return Blacklist{
		Companies:  []string{},
		Recruiters: []string{"猎头"},
		Keywords:   []string{"外包", "外派"},
	}
}

// Outcome classifies a delivery attempt in the rate ledger.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// DeliveryRecord is one ledger entry, written exactly once per delivery
// attempt that reached the network.
type DeliveryRecord struct {
	JobID       string    `json:"jobId"`
	Platform    string    `json:"platform"`
	CompanyName string    `json:"companyName"`
	Outcome     Outcome   `json:"outcome"`
	Timestamp   time.Time `json:"timestamp"`
}
