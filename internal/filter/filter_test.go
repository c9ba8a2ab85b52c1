package filter_test

import (
	"testing"

	"github.com/yunhdeng/job-bot/internal/filter"
	"github.com/yunhdeng/job-bot/internal/model"
)

func basePrefs() model.Preferences {
	return model.Preferences{
		SalaryMin:          15,
		SalaryMax:          30,
		MaxWorkYears:       5,
		Education:          model.EducationBachelor,
		ExcludedIndustries: []string{"教育培训"},
	}
}

func basePosting() model.Posting {
	return model.Posting{
		ID:          "j1",
		Title:       "Go后端工程师",
		CompanyName: "Acme",
		City:        "上海",
		SalaryMin:   18,
		SalaryMax:   25,
		WorkYears:   "3-5年",
		Education:   "本科",
	}
}

// ── Blacklist rules ────────────────────────────────────────────────────────

func TestEvaluate_AcceptsCleanPosting(t *testing.T) {
	got := filter.Evaluate(basePosting(), basePrefs(), model.DefaultBlacklist())
	if got != filter.ReasonNone {
		t.Errorf("Evaluate() = %q, want accept", got)
	}
}

func TestEvaluate_BlacklistCompany(t *testing.T) {
	bl := model.DefaultBlacklist()
	bl.Companies = []string{"Acme"}
	if got := filter.Evaluate(basePosting(), basePrefs(), bl); got != filter.ReasonBlacklistCompany {
		t.Errorf("Evaluate() = %q, want %q", got, filter.ReasonBlacklistCompany)
	}
}

func TestEvaluate_BlacklistKeywordCaseInsensitive(t *testing.T) {
	bl := model.DefaultBlacklist()
	bl.Keywords = []string{"Outsourcing"}

	p := basePosting()
	p.Title = "OUTSOURCING Engineer"
	if got := filter.Evaluate(p, basePrefs(), bl); got != filter.ReasonBlacklistKeyword {
		t.Errorf("title match: Evaluate() = %q, want %q", got, filter.ReasonBlacklistKeyword)
	}

	p = basePosting()
	p.Description = "long-term outsourcing position"
	if got := filter.Evaluate(p, basePrefs(), bl); got != filter.ReasonBlacklistKeyword {
		t.Errorf("description match: Evaluate() = %q, want %q", got, filter.ReasonBlacklistKeyword)
	}
}

// Posting with a blacklist keyword is rejected regardless of salary fit.
func TestEvaluate_KeywordBeatsSalaryFit(t *testing.T) {
	bl := model.Blacklist{Keywords: []string{"Outsourcing"}}
	p := model.Posting{
		Title:       "Outsourcing Engineer",
		CompanyName: "Acme",
		SalaryMin:   15,
		SalaryMax:   20,
	}
	if got := filter.Evaluate(p, basePrefs(), bl); got != filter.ReasonBlacklistKeyword {
		t.Errorf("Evaluate() = %q, want %q", got, filter.ReasonBlacklistKeyword)
	}
}

func TestEvaluate_RecruiterSubstring(t *testing.T) {
	p := basePosting()
	p.Recruiter = "某某猎头顾问"
	if got := filter.Evaluate(p, basePrefs(), model.DefaultBlacklist()); got != filter.ReasonRecruiter {
		t.Errorf("Evaluate() = %q, want %q", got, filter.ReasonRecruiter)
	}
}

func TestEvaluate_ExcludedIndustry(t *testing.T) {
	p := basePosting()
	p.Industry = "教育培训"
	if got := filter.Evaluate(p, basePrefs(), model.DefaultBlacklist()); got != filter.ReasonIndustry {
		t.Errorf("Evaluate() = %q, want %q", got, filter.ReasonIndustry)
	}
}

// ── Salary overlap ─────────────────────────────────────────────────────────

func TestEvaluate_SalaryOverlap(t *testing.T) {
	cases := []struct {
		name     string
		min, max int
		want     filter.Reason
	}{
		{"inside range", 18, 25, filter.ReasonNone},
		{"overlaps low end", 10, 16, filter.ReasonNone},
		{"overlaps high end", 28, 40, filter.ReasonNone},
		{"below range", 8, 12, filter.ReasonSalary},
		{"above range", 35, 50, filter.ReasonSalary},
	}
	for _, c := range cases {
		p := basePosting()
		p.SalaryMin, p.SalaryMax = c.min, c.max
		if got := filter.Evaluate(p, basePrefs(), model.DefaultBlacklist()); got != c.want {
			t.Errorf("%s: Evaluate() = %q, want %q", c.name, got, c.want)
		}
	}
}

// Unparseable salary (0,0) is rejected unless the preference range includes 0.
func TestEvaluate_UnparseableSalaryConservatism(t *testing.T) {
	p := basePosting()
	p.SalaryMin, p.SalaryMax = 0, 0

	if got := filter.Evaluate(p, basePrefs(), model.DefaultBlacklist()); got != filter.ReasonSalary {
		t.Errorf("prefs excluding 0: Evaluate() = %q, want %q", got, filter.ReasonSalary)
	}

	open := basePrefs()
	open.SalaryMin = 0
	if got := filter.Evaluate(p, open, model.DefaultBlacklist()); got != filter.ReasonNone {
		t.Errorf("prefs including 0: Evaluate() = %q, want accept", got)
	}
}

// ── Experience and education ───────────────────────────────────────────────

func TestEvaluate_WorkYears(t *testing.T) {
	cases := []struct {
		years string
		want  filter.Reason
	}{
		{"3-5年", filter.ReasonNone},
		{"5年", filter.ReasonNone},
		{"8-10年", filter.ReasonWorkYears},
		{"10年以上", filter.ReasonWorkYears},
		{"应届生", filter.ReasonNone},
		{"经验不限", filter.ReasonNone},
		{"", filter.ReasonNone},
		{"不限", filter.ReasonNone}, // unparseable → no requirement
	}
	for _, c := range cases {
		p := basePosting()
		p.WorkYears = c.years
		if got := filter.Evaluate(p, basePrefs(), model.DefaultBlacklist()); got != c.want {
			t.Errorf("WorkYears=%q: Evaluate() = %q, want %q", c.years, got, c.want)
		}
	}
}

func TestEvaluate_Education(t *testing.T) {
	cases := []struct {
		education string
		want      filter.Reason
	}{
		{"大专", filter.ReasonNone},
		{"本科", filter.ReasonNone},
		{"硕士", filter.ReasonEducation},
		{"博士", filter.ReasonEducation},
		{"", filter.ReasonNone},
		{"海外名校", filter.ReasonNone}, // unknown maps to bachelor
	}
	for _, c := range cases {
		p := basePosting()
		p.Education = c.education
		if got := filter.Evaluate(p, basePrefs(), model.DefaultBlacklist()); got != c.want {
			t.Errorf("Education=%q: Evaluate() = %q, want %q", c.education, got, c.want)
		}
	}
}

// ── Monotonicity: growing the blacklist never un-rejects a posting ─────────

func TestEvaluate_BlacklistMonotonic(t *testing.T) {
	bl := model.Blacklist{Keywords: []string{"外包"}}
	p := basePosting()
	p.Title = "外包开发"

	if got := filter.Evaluate(p, basePrefs(), bl); got == filter.ReasonNone {
		t.Fatal("posting should be rejected under the base blacklist")
	}

	grown := model.Blacklist{
		Companies:  []string{"SomeCo", "OtherCo"},
		Recruiters: []string{"猎头"},
		Keywords:   []string{"外包", "外派", "驻场"},
	}
	if got := filter.Evaluate(p, basePrefs(), grown); got == filter.ReasonNone {
		t.Error("posting became accepted after the blacklist only grew")
	}
}
