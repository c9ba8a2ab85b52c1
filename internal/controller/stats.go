package controller

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yunhdeng/job-bot/internal/model"
)

// Stats aggregates one run's outcomes for logging and the end-of-run
// report.
type Stats struct {
	Delivered int
	Skipped   int
	Failed    int
	Filtered  int
	Pages     int

	companies map[string]bool
	cities    map[string]bool
	salarySum float64
}

func newStats() *Stats {
	return &Stats{
		companies: make(map[string]bool),
		cities:    make(map[string]bool),
	}
}

func (s *Stats) note(p model.Posting, outcome model.Outcome) {
	switch outcome {
	case model.OutcomeDelivered:
		s.Delivered++
		s.companies[p.CompanyName] = true
		if p.City != "" {
			s.cities[p.City] = true
		}
		s.salarySum += float64(p.SalaryMin+p.SalaryMax) / 2
	case model.OutcomeSkipped:
		s.Skipped++
	case model.OutcomeFailed:
		s.Failed++
	}
}

// Report renders the delivery summary logged at the end of a run.
func (s *Stats) Report() string {
	if s.Delivered == 0 {
		return "no deliveries this run"
	}

	cities := make([]string, 0, len(s.cities))
	for city := range s.cities {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	return fmt.Sprintf("delivered %d postings to %d companies in [%s], avg salary %.1fk",
		s.Delivered, len(s.companies), strings.Join(cities, ", "), s.salarySum/float64(s.Delivered))
}
